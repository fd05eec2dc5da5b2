package storage

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/meltforce/racecountdown/internal/plan"
)

// LoadSettings returns the stored settings document for a login.
// Returns ErrNotFound when the user has never saved settings.
func (db *DB) LoadSettings(ctx context.Context, login string) (plan.Draft, error) {
	var doc []byte
	err := db.Pool.QueryRow(ctx, `
		SELECT s.document
		FROM user_settings s
		JOIN users u ON u.id = s.user_id
		WHERE u.login = $1
	`, login).Scan(&doc)
	if errors.Is(err, pgx.ErrNoRows) {
		return plan.Draft{}, ErrNotFound
	}
	if err != nil {
		return plan.Draft{}, fmt.Errorf("querying settings for %s: %w", login, err)
	}

	var d plan.Draft
	if err := json.Unmarshal(doc, &d); err != nil {
		return plan.Draft{}, fmt.Errorf("decoding settings for %s: %w", login, err)
	}
	return d, nil
}

// SaveSettings replaces the user's settings document, creating the user
// row on first save. Both happen in one transaction.
func (db *DB) SaveSettings(ctx context.Context, login string, d plan.Draft) error {
	doc, err := json.Marshal(d)
	if err != nil {
		return fmt.Errorf("encoding settings: %w", err)
	}

	err = pgx.BeginFunc(ctx, db.Pool, func(tx pgx.Tx) error {
		var uid int
		err := tx.QueryRow(ctx, `
			INSERT INTO users (login)
			VALUES ($1)
			ON CONFLICT (login) DO UPDATE SET last_seen = NOW()
			RETURNING id
		`, login).Scan(&uid)
		if err != nil {
			return fmt.Errorf("resolving user: %w", err)
		}

		_, err = tx.Exec(ctx, `
			INSERT INTO user_settings (user_id, document, updated_at)
			VALUES ($1, $2, NOW())
			ON CONFLICT (user_id) DO UPDATE
				SET document = EXCLUDED.document, updated_at = NOW()
		`, uid, doc)
		return err
	})
	if err != nil {
		return fmt.Errorf("saving settings for %s: %w", login, err)
	}
	return nil
}

// Logins lists users with stored settings, most recently updated first.
func (db *DB) Logins(ctx context.Context) ([]string, error) {
	rows, err := db.Pool.Query(ctx, `
		SELECT u.login
		FROM users u
		JOIN user_settings s ON s.user_id = u.id
		ORDER BY s.updated_at DESC
	`)
	if err != nil {
		return nil, fmt.Errorf("listing logins: %w", err)
	}
	logins, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, fmt.Errorf("scanning logins: %w", err)
	}
	return logins, nil
}
