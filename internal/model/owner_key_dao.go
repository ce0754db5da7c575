package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

// OwnerKeysDao defines the interface for database operations on the owner_keys table.
type OwnerKeysDao interface {
	FindOneByAddress(ctx context.Context, address string) (*OwnerKeys, error)
}

type ownerKeysDao struct {
	db *gorm.DB
}

// NewOwnerKeysDao creates a new instance of OwnerKeysDao.
func NewOwnerKeysDao(db *gorm.DB) OwnerKeysDao {
	return &ownerKeysDao{
		db: db,
	}
}

// FindOneByAddress retrieves the owner key record for an address.
func (d *ownerKeysDao) FindOneByAddress(ctx context.Context, address string) (*OwnerKeys, error) {
	var resp OwnerKeys
	// addresses are stored checksummed but may arrive lowercased from a token
	err := d.db.WithContext(ctx).Where("LOWER(address) = LOWER(?)", address).First(&resp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &resp, nil
}
