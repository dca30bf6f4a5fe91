package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/collection"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mymee/internal/server/storage"
	"github.com/dmitrijs2005/mymee/internal/server/themes"
)

// ProfileInput carries profile changes. Nil means unchanged.
type ProfileInput struct {
	Name  *string
	Bio   *string
	Image *Upload
}

// SettingsInput carries display settings. Nil means unchanged.
type SettingsInput struct {
	SocialPosition *string
	IsPublic       *bool
}

// CustomTheme holds the colors and fonts a user may override. Empty
// fields keep the current value.
type CustomTheme struct {
	BgColor     string
	BgVideo     string
	NameColor   string
	BioColor    string
	HeaderColor string
	IconColor   string
	IconBg      string
	LinkColor   string
	LinkBg      string
	LinkRadius  string
	FontStyle   string
	ButtonStyle string
	Background  *Upload
}

type ProfileService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     storage.FileStorage
	themes      *themes.Catalog
	logger      logging.Logger
	now         func() time.Time
}

func NewProfileService(db *sql.DB, m repomanager.RepositoryManager, fs storage.FileStorage, catalog *themes.Catalog,
	logger logging.Logger) *ProfileService {
	return &ProfileService{
		db:          db,
		repomanager: m,
		storage:     fs,
		themes:      catalog,
		logger:      logger.With("module", "profile_service"),
		now:         time.Now,
	}
}

func withDefaultTheme(u *models.User) *models.User {
	if u.Theme == nil {
		u.Theme = models.DefaultTheme()
	}
	return u
}

// GetUser returns the account with its theme filled in.
func (s *ProfileService) GetUser(ctx context.Context, userID string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	return withDefaultTheme(u), nil
}

func limitText(field string, v *string, max int) (*string, error) {
	if v == nil {
		return nil, nil
	}
	t := strings.TrimSpace(*v)
	if utf8.RuneCountInString(t) > max {
		return nil, fmt.Errorf("%w: %s must be at most %d characters", common.ErrorValidationFailed, field, max)
	}
	return &t, nil
}

// UpdateProfile changes name, bio and image. A replaced image is released
// once the row is saved.
func (s *ProfileService) UpdateProfile(ctx context.Context, userID string, in ProfileInput) (*models.User, error) {
	name, err := limitText("name", in.Name, models.MaxNameLength)
	if err != nil {
		return nil, err
	}
	bio, err := limitText("bio", in.Bio, models.MaxBioLength)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	upd := models.ProfileUpdate{Name: name, Bio: bio}

	uploads := newUploadBatch(s.storage, s.logger)
	if in.Image != nil {
		current, err := repo.GetByID(ctx, userID)
		if err != nil {
			return nil, err
		}
		ref, err := uploads.save(ctx, in.Image)
		if err != nil {
			return nil, fmt.Errorf("error storing profile image: %w", err)
		}
		uploads.replace(current.ProfileImage)
		upd.ProfileImage = &ref
	}

	u, err := repo.UpdateProfile(ctx, userID, upd)
	if err != nil {
		uploads.rollback(ctx)
		return nil, err
	}
	uploads.commit(ctx)
	return withDefaultTheme(u), nil
}

// UpdateUsername renames the account. An empty urlFormat keeps the
// current one.
func (s *ProfileService) UpdateUsername(ctx context.Context, userID, username, urlFormat string) (*models.User, error) {
	u, err := models.ParseUsername(username)
	if err != nil {
		return nil, err
	}
	format := models.URLFormat(strings.TrimSpace(urlFormat))
	if format != "" && format != models.URLFormatSubdomain && format != models.URLFormatPath {
		return nil, fmt.Errorf("%w: url format must be subdomain or path", common.ErrorInvalidInput)
	}

	repo := s.repomanager.Users(s.db)
	taken, err := repo.UsernameTaken(ctx, u.String(), userID)
	if err != nil {
		return nil, err
	}
	if taken {
		return nil, fmt.Errorf("%w: username already taken", common.ErrorConflict)
	}

	if err := repo.UpdateUsername(ctx, userID, u.String(), format); err != nil {
		return nil, err
	}
	return s.GetUser(ctx, userID)
}

// SetHeader stores a non-empty header line.
func (s *ProfileService) SetHeader(ctx context.Context, userID, header string) (string, error) {
	h, err := limitText("header", &header, models.MaxHeaderLength)
	if err != nil {
		return "", err
	}
	if *h == "" {
		return "", fmt.Errorf("%w: header text is required", common.ErrorInvalidInput)
	}
	if err := s.repomanager.Users(s.db).SetHeader(ctx, userID, *h); err != nil {
		return "", err
	}
	return *h, nil
}

func (s *ProfileService) ClearHeader(ctx context.Context, userID string) error {
	return s.repomanager.Users(s.db).SetHeader(ctx, userID, "")
}

func (s *ProfileService) UpdateSettings(ctx context.Context, userID string, in SettingsInput) (*models.User, error) {
	upd := models.ProfileUpdate{IsPublic: in.IsPublic}
	if in.SocialPosition != nil {
		p := models.SocialPosition(strings.TrimSpace(*in.SocialPosition))
		if p != models.SocialPositionTop && p != models.SocialPositionBottom {
			return nil, fmt.Errorf("%w: social position must be top or bottom", common.ErrorInvalidInput)
		}
		upd.SocialPosition = &p
	}

	u, err := s.repomanager.Users(s.db).UpdateProfile(ctx, userID, upd)
	if err != nil {
		return nil, err
	}
	return withDefaultTheme(u), nil
}

// GetTheme falls back to the default theme when none is stored.
func (s *ProfileService) GetTheme(ctx context.Context, userID string) (*models.Theme, error) {
	u, err := s.GetUser(ctx, userID)
	if err != nil {
		return nil, err
	}
	return u.Theme, nil
}

func (s *ProfileService) BuiltinThemes() map[string]*models.Theme {
	return s.themes.All()
}

func (s *ProfileService) ApplyBuiltinTheme(ctx context.Context, userID, name string) (*models.Theme, error) {
	name = strings.ToLower(strings.TrimSpace(name))
	if name == "" {
		return nil, fmt.Errorf("%w: theme name is required", common.ErrorInvalidInput)
	}
	t, err := s.themes.Get(name)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: unknown theme %q, available: %s",
				common.ErrorInvalidInput, name, strings.Join(s.themes.Names(), ", "))
		}
		return nil, err
	}
	if err := s.repomanager.Users(s.db).SetTheme(ctx, userID, t); err != nil {
		return nil, err
	}
	return t, nil
}

// ApplyCustomTheme overlays the supplied fields on the current theme. A
// new background image replaces the old one, which is then released.
func (s *ProfileService) ApplyCustomTheme(ctx context.Context, userID string, in CustomTheme) (*models.Theme, error) {
	style := models.ButtonStyle(strings.TrimSpace(in.ButtonStyle))
	if style != "" && !models.ValidButtonStyle(style) {
		return nil, fmt.Errorf("%w: button style must be fill, outline, shadow or soft", common.ErrorInvalidInput)
	}

	repo := s.repomanager.Users(s.db)
	u, err := repo.GetByID(ctx, userID)
	if err != nil {
		return nil, err
	}
	t := withDefaultTheme(u).Theme
	t.Name = "custom"

	set := func(dst *string, v string) {
		if v = strings.TrimSpace(v); v != "" {
			*dst = v
		}
	}
	set(&t.BgColor, in.BgColor)
	set(&t.BgVideo, in.BgVideo)
	set(&t.NameColor, in.NameColor)
	set(&t.BioColor, in.BioColor)
	set(&t.HeaderColor, in.HeaderColor)
	set(&t.IconColor, in.IconColor)
	set(&t.IconBg, in.IconBg)
	set(&t.LinkColor, in.LinkColor)
	set(&t.LinkBg, in.LinkBg)
	set(&t.LinkRadius, in.LinkRadius)
	set(&t.FontStyle, in.FontStyle)
	if style != "" {
		t.ButtonStyle = style
	}

	uploads := newUploadBatch(s.storage, s.logger)
	if in.Background != nil {
		ref, err := uploads.save(ctx, in.Background)
		if err != nil {
			return nil, fmt.Errorf("error storing background: %w", err)
		}
		uploads.replace(t.BgImage)
		t.BgImage = ref
	}

	if err := repo.SetTheme(ctx, userID, t); err != nil {
		uploads.rollback(ctx)
		return nil, err
	}
	uploads.commit(ctx)
	return t, nil
}

// publicAccount returns NotFound for hidden and inactive accounts too.
func (s *ProfileService) publicAccount(ctx context.Context, username string) (*models.User, error) {
	u, err := s.repomanager.Users(s.db).GetByUsername(ctx, strings.ToLower(strings.TrimSpace(username)))
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: profile not found", common.ErrorNotFound)
		}
		return nil, err
	}
	if !u.IsActive || !u.IsPublic {
		return nil, fmt.Errorf("%w: profile not found", common.ErrorNotFound)
	}
	return u, nil
}

// PublicProfile counts a view and returns what visitors may see: active
// links inside their schedule and active social links, both sorted.
func (s *ProfileService) PublicProfile(ctx context.Context, username string) (*models.PublicProfile, error) {
	u, err := s.publicAccount(ctx, username)
	if err != nil {
		return nil, err
	}

	now := s.now()
	if err := s.repomanager.Users(s.db).RecordView(ctx, u.ID, now); err != nil {
		s.logger.Warn(ctx, "failed to record profile view", "user_id", u.ID, "error", err)
	}

	links := make([]*models.Link, 0, len(u.Links))
	for _, l := range u.Links {
		if l.VisibleAt(now) {
			links = append(links, l)
		}
	}
	social := make([]*models.SocialLink, 0, len(u.SocialLinks))
	for _, l := range u.SocialLinks {
		if l.Active {
			social = append(social, l)
		}
	}

	withDefaultTheme(u)
	return &models.PublicProfile{
		User: models.PublicUser{
			Name:         u.Name,
			Username:     u.Username,
			ProfileImage: u.ProfileImage,
			Bio:          u.Bio,
			Header:       u.Header,
		},
		Links:          collection.Sorted(links),
		SocialLinks:    collection.Sorted(social),
		Theme:          u.Theme,
		SocialPosition: u.SocialPosition,
	}, nil
}

// RecordClick counts a click on one link of a public profile.
func (s *ProfileService) RecordClick(ctx context.Context, username, linkID string) error {
	u, err := s.publicAccount(ctx, username)
	if err != nil {
		return err
	}
	if err := s.repomanager.Users(s.db).RecordClick(ctx, u.ID, linkID); err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: link not found", common.ErrorNotFound)
		}
		return err
	}
	return nil
}
