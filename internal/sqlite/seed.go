package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"golang.org/x/crypto/bcrypt"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// seedUsers creates every configured user whose email is not registered
// yet. Existing accounts are left untouched, so seeding is idempotent.
func seedUsers(ctx context.Context, db *sql.DB, users []types.SeedUser, now time.Time) error {
	if len(users) == 0 {
		return nil
	}
	tx, err := db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning seed transaction: %w", err)
	}
	defer tx.Rollback()

	for _, u := range users {
		var exists int
		err := tx.QueryRowContext(ctx, "SELECT COUNT(*) FROM users WHERE email = ?", u.Email).Scan(&exists)
		if err != nil {
			return fmt.Errorf("checking seed user %s: %w", u.Email, err)
		}
		if exists > 0 {
			continue
		}
		id, err := generateUUID()
		if err != nil {
			return err
		}
		hash, err := bcrypt.GenerateFromPassword([]byte(u.Password), bcrypt.DefaultCost)
		if err != nil {
			return fmt.Errorf("hashing password for %s: %w", u.Email, err)
		}
		username := u.Username
		if username == "" {
			username = u.Email
		}
		_, err = tx.ExecContext(ctx,
			"INSERT INTO users (user_id, email, username, role, password_hash, created_at) VALUES (?, ?, ?, ?, ?, ?)",
			id, u.Email, username, string(u.Role), string(hash), formatTime(now),
		)
		if err != nil {
			return fmt.Errorf("seeding user %s: %w", u.Email, err)
		}
	}
	return tx.Commit()
}
