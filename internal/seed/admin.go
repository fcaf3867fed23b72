package seed

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"
	"golang.org/x/crypto/bcrypt"

	"pharmapos/m/domain"
	"pharmapos/m/internal/store"
)

// Admin is the bootstrap account created at startup.
type Admin struct {
	Email    string
	Password string
	FullName string
}

// EnsureAdmin creates the bootstrap admin unless the email is already
// registered. An existing account is left untouched. With no email configured
// it does nothing.
func EnsureAdmin(ctx context.Context, st *store.Store, admin Admin, log *zap.Logger) (bool, error) {
	if admin.Email == "" {
		return false, nil
	}
	if len(admin.Password) < 6 {
		return false, errors.New("admin password must be at least 6 characters")
	}

	_, err := st.UserByEmail(ctx, admin.Email)
	if err == nil {
		log.Debug("admin already exists", zap.String("email", admin.Email))
		return false, nil
	}
	if !errors.Is(err, domain.ErrNotFound) {
		return false, fmt.Errorf("unable to look up admin: %w", err)
	}

	hashed, err := bcrypt.GenerateFromPassword([]byte(admin.Password), bcrypt.DefaultCost)
	if err != nil {
		return false, fmt.Errorf("unable to hash admin password: %w", err)
	}
	user, err := st.CreateUser(ctx, domain.User{
		Email:    admin.Email,
		FullName: admin.FullName,
		Password: string(hashed),
		Role:     domain.RoleAdmin,
	})
	if err != nil {
		return false, fmt.Errorf("unable to create admin: %w", err)
	}
	log.Info("admin account created", zap.String("user_id", user.ID), zap.String("email", user.Email))
	return true, nil
}
