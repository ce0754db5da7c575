package auth

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v4"
)

// Claim keys. rest.WithJwt copies every non-registered claim into the request
// context under its own name.
const (
	ClaimUserId  = "userId"
	ClaimAddress = "address"
)

var ErrUnauthorized = errors.New("unauthorized")

// Identity is the authenticated caller as carried by the access token.
type Identity struct {
	UserId string
	// Primary (owner) wallet address of the user.
	Address string
}

// IdentityFromContext reads the identity that the jwt middleware put into ctx.
func IdentityFromContext(ctx context.Context) (*Identity, error) {
	userId, _ := ctx.Value(ClaimUserId).(string)
	address, _ := ctx.Value(ClaimAddress).(string)
	if userId == "" || address == "" {
		return nil, ErrUnauthorized
	}

	return &Identity{
		UserId:  userId,
		Address: address,
	}, nil
}

// IssueToken signs an HS256 access token for the given identity.
func IssueToken(secret string, id Identity, ttl time.Duration) (string, error) {
	now := time.Now()
	claims := jwt.MapClaims{
		"iat":        now.Unix(),
		"exp":        now.Add(ttl).Unix(),
		ClaimUserId:  id.UserId,
		ClaimAddress: id.Address,
	}

	token, err := jwt.NewWithClaims(jwt.SigningMethodHS256, claims).SignedString([]byte(secret))
	if err != nil {
		return "", fmt.Errorf("failed to sign access token: %w", err)
	}
	return token, nil
}

// ParseToken verifies an HS256 access token and returns its identity.
func ParseToken(secret, token string) (*Identity, error) {
	claims := jwt.MapClaims{}
	_, err := jwt.ParseWithClaims(token, claims, func(t *jwt.Token) (any, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method %v", t.Header["alg"])
		}
		return []byte(secret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrUnauthorized, err)
	}

	ctx := context.Background()
	for _, key := range []string{ClaimUserId, ClaimAddress} {
		ctx = context.WithValue(ctx, key, claims[key]) //nolint:staticcheck
	}
	return IdentityFromContext(ctx)
}
