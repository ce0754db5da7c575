package model

import (
	"context"
	"errors"

	"gorm.io/gorm"
)

var ErrNotFound = gorm.ErrRecordNotFound

// UsersDao defines read access to the users table.
type UsersDao interface {
	FindOne(ctx context.Context, id string) (*Users, error)
}

type usersDao struct {
	db *gorm.DB
}

// NewUsersDao creates a new instance of UsersDao.
func NewUsersDao(db *gorm.DB) UsersDao {
	return &usersDao{
		db: db,
	}
}

// FindOne retrieves a user by id. ErrNotFound means the backend has no record yet.
func (d *usersDao) FindOne(ctx context.Context, id string) (*Users, error) {
	var resp Users
	err := d.db.WithContext(ctx).Where("id = ?", id).First(&resp).Error
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &resp, nil
}
