package model

import (
	"database/sql"
	"time"
)

// Users corresponds to the users table owned by the workflow backend.
// The onboarding service only ever reads it.
type Users struct {
	Id             string `db:"id" gorm:"primaryKey"`
	PrimaryAddress string `db:"primary_address"`
	// Safe wallet addresses are written by the backend once it accepts an
	// enable-module submission for a chain of that kind.
	SafeWalletAddressTestnet sql.NullString `db:"safe_wallet_address_testnet"`
	SafeWalletAddressMainnet sql.NullString `db:"safe_wallet_address_mainnet"`
	CreatedAt                time.Time      `db:"created_at"`
	UpdatedAt                time.Time      `db:"updated_at"`
}
