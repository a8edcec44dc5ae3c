package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/mesh-intelligence/planbook/pkg/types"
)

// IssueSession creates an access token for a user. The token is an opaque
// random id that expires after the configured token TTL.
func (b *Backend) IssueSession(ctx context.Context, userID string) (string, time.Time, error) {
	token, err := generateUUID()
	if err != nil {
		return "", time.Time{}, err
	}
	now := b.now()

	b.mu.RLock()
	ttl := b.config.GetTokenTTL()
	b.mu.RUnlock()
	expires := now.Add(ttl)

	err = b.withDB(func(db *sql.DB) error {
		_, err := db.ExecContext(ctx,
			"INSERT INTO sessions (token, user_id, expires_at, created_at) VALUES (?, ?, ?, ?)",
			token, userID, formatTime(expires), formatTime(now))
		if err != nil {
			return fmt.Errorf("inserting session: %w", err)
		}
		return nil
	})
	if err != nil {
		return "", time.Time{}, err
	}
	return token, expires, nil
}

// ResolveSession returns the user a token belongs to. Unknown and expired
// tokens return ErrUnauthorized; expired ones are removed.
func (b *Backend) ResolveSession(ctx context.Context, token string) (types.User, time.Time, error) {
	if token == "" {
		return types.User{}, time.Time{}, types.ErrUnauthorized
	}
	var u types.User
	var expires time.Time
	err := b.withDB(func(db *sql.DB) error {
		var created, expiresStr string
		err := db.QueryRowContext(ctx,
			`SELECT u.user_id, u.email, u.username, u.role, u.created_at, s.expires_at
			 FROM sessions s JOIN users u ON u.user_id = s.user_id
			 WHERE s.token = ?`, token).
			Scan(&u.ID, &u.Email, &u.Username, &u.Role, &created, &expiresStr)
		if errors.Is(err, sql.ErrNoRows) {
			return types.ErrUnauthorized
		}
		if err != nil {
			return fmt.Errorf("resolving session: %w", err)
		}
		u.CreatedAt = parseTime(created)
		expires = parseTime(expiresStr)
		if !b.now().Before(expires) {
			if _, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
				return fmt.Errorf("removing expired session: %w", err)
			}
			return types.ErrUnauthorized
		}
		return nil
	})
	if err != nil {
		return types.User{}, time.Time{}, err
	}
	return u, expires, nil
}

// RevokeSession deletes a token. Revoking an unknown token is not an error.
func (b *Backend) RevokeSession(ctx context.Context, token string) error {
	return b.withDB(func(db *sql.DB) error {
		if _, err := db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
			return fmt.Errorf("revoking session: %w", err)
		}
		return nil
	})
}
