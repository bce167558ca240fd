package cockroach

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/nicolasparada/go-db"
	"github.com/nicolasparada/go-errs"

	"github.com/immoalbania/immo/id"
	"github.com/immoalbania/immo/types"
)

var ErrUserNotFound = errs.NotFoundError("user not found")

// EnsureUser returns the user with the given username, creating it first if
// it does not exist yet.
func (c *Cockroach) EnsureUser(ctx context.Context, username string) (types.User, error) {
	var out types.User

	const q = `
		INSERT INTO users (id, username)
		VALUES (@user_id, @username)
		ON CONFLICT (username)
		DO UPDATE SET username = excluded.username
		RETURNING id, username, avatar_url, created_at
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id":  id.Generate(),
		"username": username,
	})
	if err != nil {
		return out, fmt.Errorf("sql upsert user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if err != nil {
		return out, fmt.Errorf("sql collect upserted user: %w", err)
	}

	return out, nil
}

func (c *Cockroach) User(ctx context.Context, userID string) (types.User, error) {
	var out types.User

	const q = `
		SELECT id, username, avatar_url, created_at
		FROM users
		WHERE id = @user_id
	`

	rows, err := c.db.Query(ctx, q, pgx.StrictNamedArgs{
		"user_id": userID,
	})
	if err != nil {
		return out, fmt.Errorf("sql select user: %w", err)
	}

	out, err = pgx.CollectExactlyOneRow(rows, pgx.RowToStructByNameLax[types.User])
	if db.IsNotFoundError(err) {
		return out, ErrUserNotFound
	}

	if err != nil {
		return out, fmt.Errorf("sql collect user: %w", err)
	}

	return out, nil
}
