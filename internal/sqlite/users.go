package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

const userColumns = "user_id, email, username, role, created_at"

// CreateUser registers an account with a bcrypt password hash.
func (b *Backend) CreateUser(ctx context.Context, in types.UserCreate) (types.User, error) {
	email := strings.TrimSpace(in.Email)
	if email == "" || in.Password == "" {
		return types.User{}, fmt.Errorf("%w: email and password are required", types.ErrInvalidData)
	}
	role := in.Role
	if role == "" {
		role = types.RoleViewer
	}
	if _, err := types.ParseRole(string(role)); err != nil {
		return types.User{}, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	username := in.Username
	if username == "" {
		username = email
	}
	hash, err := bcrypt.GenerateFromPassword([]byte(in.Password), bcrypt.DefaultCost)
	if err != nil {
		return types.User{}, fmt.Errorf("hashing password: %w", err)
	}
	id, err := generateUUID()
	if err != nil {
		return types.User{}, err
	}
	u := types.User{ID: id, Email: email, Username: username, Role: role, CreatedAt: b.now()}

	err = b.withDB(func(db *sql.DB) error {
		var n int
		if err := db.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", email).Scan(&n); err != nil {
			return fmt.Errorf("checking email: %w", err)
		}
		if n > 0 {
			return types.ErrEmailTaken
		}
		_, err := db.ExecContext(ctx,
			"INSERT INTO users (user_id, email, username, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			u.ID, u.Email, u.Username, string(u.Role), string(hash), formatTime(u.CreatedAt))
		if err != nil {
			return fmt.Errorf("inserting user: %w", err)
		}
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return u, nil
}

// ListUsers returns every account, oldest first.
func (b *Backend) ListUsers(ctx context.Context) ([]types.User, error) {
	users := []types.User{}
	err := b.withDB(func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, "SELECT "+userColumns+" FROM users ORDER BY created_at, email")
		if err != nil {
			return fmt.Errorf("querying users: %w", err)
		}
		defer rows.Close()
		for rows.Next() {
			u, err := scanUser(rows)
			if err != nil {
				return err
			}
			users = append(users, u)
		}
		return rows.Err()
	})
	return users, err
}

// GetUser returns one account.
func (b *Backend) GetUser(ctx context.Context, id string) (types.User, error) {
	if id == "" {
		return types.User{}, types.ErrInvalidID
	}
	var u types.User
	err := b.withDB(func(db *sql.DB) error {
		var err error
		u, err = scanUser(db.QueryRowContext(ctx, "SELECT "+userColumns+" FROM users WHERE user_id = ?", id))
		if errors.Is(err, sql.ErrNoRows) {
			return fmt.Errorf("user %s: %w", id, types.ErrNotFound)
		}
		return err
	})
	return u, err
}

// UpdateUserRole changes the role of an account.
func (b *Backend) UpdateUserRole(ctx context.Context, id string, role types.Role) (types.User, error) {
	if _, err := types.ParseRole(string(role)); err != nil {
		return types.User{}, fmt.Errorf("%w: %v", types.ErrInvalidData, err)
	}
	err := b.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, "UPDATE users SET role = ? WHERE user_id = ?", string(role), id)
		if err != nil {
			return fmt.Errorf("updating role: %w", err)
		}
		return requireAffected(res, "user "+id)
	})
	if err != nil {
		return types.User{}, err
	}
	return b.GetUser(ctx, id)
}

// DeleteUser removes an account and its sessions.
func (b *Backend) DeleteUser(ctx context.Context, id string) error {
	if id == "" {
		return types.ErrInvalidID
	}
	return b.withDB(func(db *sql.DB) error {
		res, err := db.ExecContext(ctx, "DELETE FROM users WHERE user_id = ?", id)
		if err != nil {
			return fmt.Errorf("deleting user: %w", err)
		}
		return requireAffected(res, "user "+id)
	})
}

// Authenticate checks an email and password. Any mismatch returns
// ErrUnauthorized without saying which part was wrong.
func (b *Backend) Authenticate(ctx context.Context, email, password string) (types.User, error) {
	var u types.User
	err := b.withDB(func(db *sql.DB) error {
		var hash, created string
		err := db.QueryRowContext(ctx,
			"SELECT "+userColumns+", password_hash FROM users WHERE email = ?", strings.TrimSpace(email)).
			Scan(&u.ID, &u.Email, &u.Username, &u.Role, &created, &hash)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrUnauthorized
		}
		if err != nil {
			return fmt.Errorf("looking up user: %w", err)
		}
		if bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)) != nil {
			return types.ErrUnauthorized
		}
		u.CreatedAt = parseTime(created)
		return nil
	})
	if err != nil {
		return types.User{}, err
	}
	return u, nil
}

func scanUser(s scanner) (types.User, error) {
	var u types.User
	var created string
	if err := s.Scan(&u.ID, &u.Email, &u.Username, &u.Role, &created); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return u, err
		}
		return u, fmt.Errorf("scanning user: %w", err)
	}
	u.CreatedAt = parseTime(created)
	return u, nil
}
