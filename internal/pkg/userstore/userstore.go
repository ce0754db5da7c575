package userstore

import (
	"context"
	"errors"
	"fmt"

	"flowforge/internal/logic/onboarding"
	"flowforge/internal/model"
	"flowforge/internal/types"
)

// Store reads onboarding records from the backend's users table.
type Store struct {
	users model.UsersDao
}

func New(users model.UsersDao) *Store {
	return &Store{users: users}
}

// FetchUserRecord returns onboarding.ErrNoRecord when the backend has not
// created the user yet.
func (s *Store) FetchUserRecord(ctx context.Context, userId string) (*types.UserRecord, error) {
	user, err := s.users.FindOne(ctx, userId)
	if errors.Is(err, model.ErrNotFound) {
		return nil, onboarding.ErrNoRecord
	}
	if err != nil {
		return nil, fmt.Errorf("failed to fetch user %s: %w", userId, err)
	}

	return &types.UserRecord{
		UserId:                   user.Id,
		PrimaryAddress:           user.PrimaryAddress,
		SafeWalletAddressTestnet: user.SafeWalletAddressTestnet.String,
		SafeWalletAddressMainnet: user.SafeWalletAddressMainnet.String,
	}, nil
}
