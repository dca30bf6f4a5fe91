package users

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mymee/internal/server/models"
)

type Repository interface {
	Create(ctx context.Context, user *models.User) (*models.User, error)
	GetByID(ctx context.Context, id string) (*models.User, error)
	GetByUsername(ctx context.Context, username string) (*models.User, error)
	GetByEmail(ctx context.Context, email string) (*models.User, error)
	GetByPhone(ctx context.Context, phone string) (*models.User, error)
	UsernameTaken(ctx context.Context, username, exceptID string) (bool, error)

	UpdatePassword(ctx context.Context, id, passwordHash string) error
	TouchLastLogin(ctx context.Context, id string, at time.Time) error
	UpdateProfile(ctx context.Context, id string, upd models.ProfileUpdate) (*models.User, error)
	UpdateUsername(ctx context.Context, id, username string, urlFormat models.URLFormat) error
	SetHeader(ctx context.Context, id, header string) error
	SetTheme(ctx context.Context, id string, theme *models.Theme) error

	GetLinks(ctx context.Context, id string) ([]*models.Link, error)
	SaveLinks(ctx context.Context, id string, links []*models.Link) error
	GetSocialLinks(ctx context.Context, id string) ([]*models.SocialLink, error)
	SaveSocialLinks(ctx context.Context, id string, links []*models.SocialLink) error

	RecordView(ctx context.Context, id string, at time.Time) error
	RecordClick(ctx context.Context, id, linkID string) error
}
