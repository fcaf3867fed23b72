package store

import (
	"context"
	"database/sql"
	"errors"
	"strings"

	"github.com/google/uuid"

	"pharmapos/m/domain"
)

// ErrEmailTaken is returned when registering an email that already exists.
var ErrEmailTaken = errors.New("email already registered")

// CreateUser stores a user whose Password is already hashed.
func (s *Store) CreateUser(ctx context.Context, u domain.User) (domain.User, error) {
	u.ID = uuid.NewString()
	u.Email = strings.ToLower(strings.TrimSpace(u.Email))

	var exists bool
	if err := s.db.GetContext(ctx, &exists, s.db.Rebind(`SELECT EXISTS(SELECT 1 FROM users WHERE email = ?)`), u.Email); err != nil {
		return domain.User{}, err
	}
	if exists {
		return domain.User{}, ErrEmailTaken
	}
	if _, err := s.db.ExecContext(ctx, s.db.Rebind(`INSERT INTO users (id, email, full_name, password, role) VALUES (?, ?, ?, ?, ?)`),
		u.ID, u.Email, u.FullName, u.Password, u.Role); err != nil {
		return domain.User{}, err
	}
	return u, nil
}

func (s *Store) UserByEmail(ctx context.Context, email string) (domain.User, error) {
	return s.user(ctx, `email = ?`, strings.ToLower(strings.TrimSpace(email)))
}

func (s *Store) UserByID(ctx context.Context, id string) (domain.User, error) {
	return s.user(ctx, `id = ?`, id)
}

func (s *Store) user(ctx context.Context, where string, arg any) (domain.User, error) {
	var u domain.User
	err := s.db.GetContext(ctx, &u, s.db.Rebind(`SELECT id, email, full_name, password, role FROM users WHERE `+where), arg)
	if errors.Is(err, sql.ErrNoRows) {
		return domain.User{}, domain.ErrNotFound
	}
	return u, err
}
