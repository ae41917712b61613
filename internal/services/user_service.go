package services

import (
	"context"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/localnerve/scrumdb/internal/models"
	"github.com/localnerve/scrumdb/internal/store"
	"github.com/localnerve/scrumdb/internal/types"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

// RegisterInput is the payload for account creation.
type RegisterInput struct {
	Username string `json:"username"`
	Email    string `json:"email"`
	Password string `json:"password"`
}

// RegisterUser creates a new account with a bcrypt hash at rest. Username and
// email are each globally unique.
func RegisterUser(ctx context.Context, db *gorm.DB, input RegisterInput) (*models.User, error) {
	if input.Username == "" || input.Email == "" || input.Password == "" {
		return nil, types.Opf("user", "register",
			fmt.Errorf("%w: username, email and password are required", types.ErrValidation))
	}

	hash, err := bcrypt.GenerateFromPassword([]byte(input.Password), bcrypt.DefaultCost)
	if err != nil {
		return nil, types.Opf("user", "register", err)
	}

	user := models.User{
		ID:       uuid.NewString(),
		Username: input.Username,
		Email:    strings.ToLower(input.Email),
		Password: string(hash),
	}

	_, err = store.WithRetry(ctx, func() (struct{}, error) {
		return struct{}{}, db.WithContext(ctx).Create(&user).Error
	})
	if err != nil {
		return nil, types.Opf("user", "register", classify(err))
	}

	return &user, nil
}

// FindUserByIdentifier looks up a user by email or username, in that order.
func FindUserByIdentifier(ctx context.Context, db *gorm.DB, identifier string) (*models.User, error) {
	user, err := store.WithRetry(ctx, func() (models.User, error) {
		var u models.User
		err := db.WithContext(ctx).
			Where("email = ? OR username = ?", strings.ToLower(identifier), identifier).
			First(&u).Error
		return u, err
	})
	if err != nil {
		return nil, types.Opf("user", "fetch", classify(err))
	}
	return &user, nil
}

// VerifyLogin checks the identifier/secret pair against the users table.
// The contract matches the original login flow: a single email-or-username
// lookup combined with a password check, except the comparison runs against
// a bcrypt hash rather than plaintext equality.
func VerifyLogin(ctx context.Context, db *gorm.DB, identifier, secret string) (*models.User, error) {
	user, err := FindUserByIdentifier(ctx, db, identifier)
	if err != nil {
		return nil, err
	}

	if err := bcrypt.CompareHashAndPassword([]byte(user.Password), []byte(secret)); err != nil {
		return nil, types.Opf("user", "login", types.ErrNotFound)
	}

	return user, nil
}

// FindUserByID fetches a single user row.
func FindUserByID(ctx context.Context, db *gorm.DB, id string) (*models.User, error) {
	user, err := store.WithRetry(ctx, func() (models.User, error) {
		var u models.User
		err := db.WithContext(ctx).Where("id = ?", id).First(&u).Error
		return u, err
	})
	if err != nil {
		return nil, types.Opf("user", "fetch", classify(err))
	}
	return &user, nil
}
