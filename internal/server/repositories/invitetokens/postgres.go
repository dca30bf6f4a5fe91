// Package invitetokens provides a PostgreSQL-backed repository for the
// single-use invite codes that gate signup.
package invitetokens

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/dbx"
	"github.com/dmitrijs2005/mymee/internal/server/models"
)

// PostgresRepository works over dbx.DBTX so Consume can join the signup
// transaction.
type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanToken(row rowScanner) (*models.InviteToken, error) {
	var (
		t      models.InviteToken
		usedBy sql.NullString
		usedAt sql.NullTime
	)
	if err := row.Scan(&t.Code, &t.IsUsed, &usedBy, &usedAt, &t.CreatedAt); err != nil {
		return nil, err
	}
	if usedBy.Valid {
		t.UsedBy = &usedBy.String
	}
	if usedAt.Valid {
		t.UsedAt = &usedAt.Time
	}
	return &t, nil
}

// Find returns common.ErrorNotFound when the code does not exist.
func (r *PostgresRepository) Find(ctx context.Context, code string) (*models.InviteToken, error) {
	query := `
		SELECT code, is_used, used_by, used_at, created_at
		FROM invite_tokens
		WHERE code = $1
	`
	t, err := scanToken(r.db.QueryRowContext(ctx, query, code))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return t, nil
}

// Consume marks the token used by userID. Only one caller can win: a token
// that is missing or already used yields common.ErrorConflict.
func (r *PostgresRepository) Consume(ctx context.Context, code, userID string, at time.Time) error {
	query := `
		UPDATE invite_tokens
		SET is_used = TRUE, used_by = $2, used_at = $3
		WHERE code = $1 AND is_used = FALSE
	`
	res, err := r.db.ExecContext(ctx, query, code, userID, at)
	if err != nil {
		return fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("%w: invite token already used", common.ErrorConflict)
	}
	return nil
}

// Create inserts a fresh unused token and reports whether the code was new.
func (r *PostgresRepository) Create(ctx context.Context, code string) (bool, error) {
	query := `
		INSERT INTO invite_tokens (code)
		VALUES ($1)
		ON CONFLICT (code) DO NOTHING
	`
	res, err := r.db.ExecContext(ctx, query, code)
	if err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return false, fmt.Errorf("rows affected error: %w", err)
	}
	return n == 1, nil
}

func (r *PostgresRepository) List(ctx context.Context, onlyUnused bool) ([]*models.InviteToken, error) {
	query := `
		SELECT code, is_used, used_by, used_at, created_at
		FROM invite_tokens
		WHERE ($1 = FALSE OR is_used = FALSE)
		ORDER BY created_at, code
	`
	rows, err := r.db.QueryContext(ctx, query, onlyUnused)
	if err != nil {
		return nil, fmt.Errorf("db error: %w", err)
	}
	defer rows.Close()

	var res []*models.InviteToken
	for rows.Next() {
		t, err := scanToken(rows)
		if err != nil {
			return nil, fmt.Errorf("scan error: %w", err)
		}
		res = append(res, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("rows error: %w", err)
	}
	return res, nil
}
