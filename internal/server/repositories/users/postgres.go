package users

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/dbx"
	"github.com/dmitrijs2005/mymee/internal/server/models"
)

const userColumns = `id, username, email, phone, password_hash, name, bio, header, profile_image,
	links, social_links, theme, social_position, url_format, plan,
	is_public, is_active, is_verified, total_views, total_clicks,
	last_visit, last_login, created_at, updated_at`

type PostgresRepository struct {
	db dbx.DBTX
}

func NewPostgresRepository(db dbx.DBTX) *PostgresRepository {
	return &PostgresRepository{db: db}
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*models.User, error) {
	var (
		u                         models.User
		email, phone              sql.NullString
		links, socialLinks, theme []byte
		socialPosition, urlFormat string
		plan                      string
		lastVisit, lastLogin      sql.NullTime
	)

	err := row.Scan(&u.ID, &u.Username, &email, &phone, &u.PasswordHash, &u.Name, &u.Bio, &u.Header, &u.ProfileImage,
		&links, &socialLinks, &theme, &socialPosition, &urlFormat, &plan,
		&u.IsPublic, &u.IsActive, &u.IsVerified, &u.Analytics.TotalViews, &u.Analytics.TotalClicks,
		&lastVisit, &lastLogin, &u.CreatedAt, &u.UpdatedAt)
	if err != nil {
		return nil, err
	}

	if email.Valid {
		u.Email = &email.String
	}
	if phone.Valid {
		u.Phone = &phone.String
	}
	if lastVisit.Valid {
		u.Analytics.LastVisit = &lastVisit.Time
	}
	if lastLogin.Valid {
		u.LastLogin = &lastLogin.Time
	}
	u.SocialPosition = models.SocialPosition(socialPosition)
	u.URLFormat = models.URLFormat(urlFormat)
	u.Plan = models.Plan(plan)

	if u.Links, err = decodeLinks(links); err != nil {
		return nil, err
	}
	if u.SocialLinks, err = decodeSocialLinks(socialLinks); err != nil {
		return nil, err
	}
	if len(theme) > 0 {
		u.Theme = &models.Theme{}
		if err := json.Unmarshal(theme, u.Theme); err != nil {
			return nil, fmt.Errorf("decode theme: %w", err)
		}
	}

	return &u, nil
}

func decodeLinks(b []byte) ([]*models.Link, error) {
	links := []*models.Link{}
	if len(b) == 0 {
		return links, nil
	}
	if err := json.Unmarshal(b, &links); err != nil {
		return nil, fmt.Errorf("decode links: %w", err)
	}
	return links, nil
}

func decodeSocialLinks(b []byte) ([]*models.SocialLink, error) {
	links := []*models.SocialLink{}
	if len(b) == 0 {
		return links, nil
	}
	if err := json.Unmarshal(b, &links); err != nil {
		return nil, fmt.Errorf("decode social links: %w", err)
	}
	return links, nil
}

func nullable(s *string) any {
	if s == nil || *s == "" {
		return nil
	}
	return *s
}

func mapWriteError(err error) error {
	switch {
	case dbx.IsUniqueViolation(err, "users_username_key"):
		return fmt.Errorf("%w: username already taken", common.ErrorConflict)
	case dbx.IsUniqueViolation(err, ""):
		return fmt.Errorf("%w: account already exists", common.ErrorConflict)
	}
	return fmt.Errorf("db error: %w", err)
}

func (r *PostgresRepository) Create(ctx context.Context, user *models.User) (*models.User, error) {

	query :=
		`INSERT INTO users (username, email, phone, password_hash, is_verified, name)
		 VALUES ($1, $2, $3, $4, $5, $6)
		 RETURNING ` + userColumns

	created, err := scanUser(r.db.QueryRowContext(ctx, query,
		user.Username, nullable(user.Email), nullable(user.Phone), user.PasswordHash, user.IsVerified, user.Name))

	if err != nil {
		return nil, mapWriteError(err)
	}

	return created, nil
}

func (r *PostgresRepository) getOne(ctx context.Context, where string, arg any) (*models.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE ` + where

	user, err := scanUser(r.db.QueryRowContext(ctx, query, arg))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) GetByID(ctx context.Context, id string) (*models.User, error) {
	return r.getOne(ctx, `id = $1`, id)
}

func (r *PostgresRepository) GetByUsername(ctx context.Context, username string) (*models.User, error) {
	return r.getOne(ctx, `username = $1`, username)
}

func (r *PostgresRepository) GetByEmail(ctx context.Context, email string) (*models.User, error) {
	return r.getOne(ctx, `email = $1`, email)
}

func (r *PostgresRepository) GetByPhone(ctx context.Context, phone string) (*models.User, error) {
	return r.getOne(ctx, `phone = $1`, phone)
}

func (r *PostgresRepository) UsernameTaken(ctx context.Context, username, exceptID string) (bool, error) {
	query := `SELECT EXISTS (SELECT 1 FROM users WHERE username = $1 AND id::text <> $2)`

	var taken bool
	if err := r.db.QueryRowContext(ctx, query, username, exceptID).Scan(&taken); err != nil {
		return false, fmt.Errorf("db error: %w", err)
	}
	return taken, nil
}

// execOne runs an UPDATE that must touch exactly one user row.
func (r *PostgresRepository) execOne(ctx context.Context, query string, args ...any) error {
	res, err := r.db.ExecContext(ctx, query, args...)
	if err != nil {
		return mapWriteError(err)
	}

	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected error: %w", err)
	}
	if n == 0 {
		return common.ErrorNotFound
	}
	return nil
}

func (r *PostgresRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	return r.execOne(ctx, `UPDATE users SET password_hash = $2, updated_at = now() WHERE id = $1`, id, passwordHash)
}

func (r *PostgresRepository) TouchLastLogin(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET last_login = $2 WHERE id = $1`, id, at)
}

func (r *PostgresRepository) UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	var position any
	if upd.SocialPosition != nil {
		position = string(*upd.SocialPosition)
	}
	var public any
	if upd.IsPublic != nil {
		public = *upd.IsPublic
	}
	var name, bio, image any
	if upd.Name != nil {
		name = *upd.Name
	}
	if upd.Bio != nil {
		bio = *upd.Bio
	}
	if upd.ProfileImage != nil {
		image = *upd.ProfileImage
	}

	query :=
		`UPDATE users SET
			name = COALESCE($2, name),
			bio = COALESCE($3, bio),
			profile_image = COALESCE($4, profile_image),
			social_position = COALESCE($5, social_position),
			is_public = COALESCE($6, is_public),
			updated_at = now()
		 WHERE id = $1
		 RETURNING ` + userColumns

	user, err := scanUser(r.db.QueryRowContext(ctx, query, id, name, bio, image, position, public))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return user, nil
}

func (r *PostgresRepository) UpdateUsername(ctx context.Context, id, username string, urlFormat models.URLFormat) error {
	var format any
	if urlFormat != "" {
		format = string(urlFormat)
	}
	return r.execOne(ctx,
		`UPDATE users SET username = $2, url_format = COALESCE($3, url_format), updated_at = now() WHERE id = $1`,
		id, username, format)
}

func (r *PostgresRepository) SetHeader(ctx context.Context, id, header string) error {
	return r.execOne(ctx, `UPDATE users SET header = $2, updated_at = now() WHERE id = $1`, id, header)
}

func (r *PostgresRepository) SetTheme(ctx context.Context, id string, theme *models.Theme) error {
	b, err := json.Marshal(theme)
	if err != nil {
		return fmt.Errorf("encode theme: %w", err)
	}
	return r.execOne(ctx, `UPDATE users SET theme = $2, updated_at = now() WHERE id = $1`, id, b)
}

func (r *PostgresRepository) GetLinks(ctx context.Context, id string) ([]*models.Link, error) {
	var b []byte
	err := r.db.QueryRowContext(ctx, `SELECT links FROM users WHERE id = $1`, id).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return decodeLinks(b)
}

// SaveLinks replaces the whole collection. Concurrent writers are
// last-write-wins.
func (r *PostgresRepository) SaveLinks(ctx context.Context, id string, links []*models.Link) error {
	if links == nil {
		links = []*models.Link{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode links: %w", err)
	}
	return r.execOne(ctx, `UPDATE users SET links = $2, updated_at = now() WHERE id = $1`, id, b)
}

func (r *PostgresRepository) GetSocialLinks(ctx context.Context, id string) ([]*models.SocialLink, error) {
	var b []byte
	err := r.db.QueryRowContext(ctx, `SELECT social_links FROM users WHERE id = $1`, id).Scan(&b)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrorNotFound
		}
		return nil, fmt.Errorf("db error: %w", err)
	}
	return decodeSocialLinks(b)
}

func (r *PostgresRepository) SaveSocialLinks(ctx context.Context, id string, links []*models.SocialLink) error {
	if links == nil {
		links = []*models.SocialLink{}
	}
	b, err := json.Marshal(links)
	if err != nil {
		return fmt.Errorf("encode social links: %w", err)
	}
	return r.execOne(ctx, `UPDATE users SET social_links = $2, updated_at = now() WHERE id = $1`, id, b)
}

func (r *PostgresRepository) RecordView(ctx context.Context, id string, at time.Time) error {
	return r.execOne(ctx, `UPDATE users SET total_views = total_views + 1, last_visit = $2 WHERE id = $1`, id, at)
}

// RecordClick bumps the click counter of one link and the account total in
// a single statement.
func (r *PostgresRepository) RecordClick(ctx context.Context, id, linkID string) error {
	query :=
		`UPDATE users SET
			links = (
				SELECT jsonb_agg(
					CASE WHEN l->>'id' = $2
						THEN jsonb_set(l, '{clicks}', to_jsonb(COALESCE((l->>'clicks')::bigint, 0) + 1))
						ELSE l END
					ORDER BY ord)
				FROM jsonb_array_elements(links) WITH ORDINALITY AS t(l, ord)
			),
			total_clicks = total_clicks + 1
		 WHERE id = $1 AND links @> jsonb_build_array(jsonb_build_object('id', $2::text))`

	return r.execOne(ctx, query, id, linkID)
}
