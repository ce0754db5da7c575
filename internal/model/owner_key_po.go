package model

import (
	"time"
)

// OwnerKeys holds the custodial signing key behind a user's primary (owner) address.
type OwnerKeys struct {
	Id                  int64     `db:"id"`
	UserId              string    `db:"user_id"`
	Address             string    `db:"address"`
	EncryptedPrivateKey string    `db:"encrypted_private_key"`
	CreatedAt           time.Time `db:"created_at"`
	UpdatedAt           time.Time `db:"updated_at"`
}
