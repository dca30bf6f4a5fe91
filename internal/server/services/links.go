// Package services contains server-side business logic: the link
// collections of a profile, the account lifecycle and profile settings.
package services

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/collection"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/repomanager"
	"github.com/dmitrijs2005/mymee/internal/server/storage"
)

// LinkInput carries the fields of a new regular link.
type LinkInput struct {
	Title          string
	URL            string
	Active         *bool
	ScheduledStart *time.Time
	ScheduledEnd   *time.Time
	Icon           *Upload
	Thumbnail      *Upload
}

// LinkPatch carries the fields to change. Nil means unchanged; the Clear
// flags remove a schedule bound.
type LinkPatch struct {
	Title               *string
	URL                 *string
	Active              *bool
	ScheduledStart      *time.Time
	ScheduledEnd        *time.Time
	ClearScheduledStart bool
	ClearScheduledEnd   bool
	Icon                *Upload
	Thumbnail           *Upload
}

// SocialLinkInput carries the fields of a new social link.
type SocialLinkInput struct {
	Title string
	URL   string
	Icon  string
}

// SocialLinkPatch carries the fields to change. Nil means unchanged.
type SocialLinkPatch struct {
	Title  *string
	URL    *string
	Icon   *string
	Active *bool
}

// LinkService manages the two ordered link collections of a profile. Each
// mutation reads the whole collection, changes it and writes it back, so
// concurrent writers to one profile are last-write-wins.
type LinkService struct {
	db          *sql.DB
	repomanager repomanager.RepositoryManager
	storage     storage.FileStorage
	logger      logging.Logger
	now         func() time.Time
}

func NewLinkService(db *sql.DB, m repomanager.RepositoryManager, fs storage.FileStorage, logger logging.Logger) *LinkService {
	return &LinkService{
		db:          db,
		repomanager: m,
		storage:     fs,
		logger:      logger.With("module", "link_service"),
		now:         time.Now,
	}
}

func checkSchedule(start, end *time.Time) error {
	if start != nil && end != nil && end.Before(*start) {
		return fmt.Errorf("%w: schedule ends before it starts", common.ErrorInvalidInput)
	}
	return nil
}

// AddLink appends a link with the next order and returns the sorted
// collection.
func (s *LinkService) AddLink(ctx context.Context, userID string, in LinkInput) ([]*models.Link, error) {
	title := models.NormalizeTitle(in.Title, models.MaxLinkTitleLength)
	if title == "" || strings.TrimSpace(in.URL) == "" {
		return nil, fmt.Errorf("%w: title and url are required", common.ErrorInvalidInput)
	}
	url, err := models.NormalizeURL(in.URL)
	if err != nil {
		return nil, err
	}
	if err := checkSchedule(in.ScheduledStart, in.ScheduledEnd); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	links, err := repo.GetLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	uploads := newUploadBatch(s.storage, s.logger)
	icon, err := uploads.save(ctx, in.Icon)
	if err != nil {
		return nil, fmt.Errorf("error storing icon: %w", err)
	}
	thumb, err := uploads.save(ctx, in.Thumbnail)
	if err != nil {
		uploads.rollback(ctx)
		return nil, fmt.Errorf("error storing thumbnail: %w", err)
	}

	now := s.now()
	link := &models.Link{
		ID:             models.NewItemID(now),
		Title:          title,
		URL:            url,
		Icon:           icon,
		Thumbnail:      thumb,
		Order:          collection.NextOrder(links),
		Active:         in.Active == nil || *in.Active,
		ScheduledStart: in.ScheduledStart,
		ScheduledEnd:   in.ScheduledEnd,
		CreatedAt:      now,
		UpdatedAt:      now,
	}
	links = append(links, link)

	if err := repo.SaveLinks(ctx, userID, links); err != nil {
		uploads.rollback(ctx)
		return nil, err
	}
	return collection.Sorted(links), nil
}

func (s *LinkService) ListLinks(ctx context.Context, userID string) ([]*models.Link, error) {
	links, err := s.repomanager.Users(s.db).GetLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return collection.Sorted(links), nil
}

// ReorderLinks applies moves best-effort. Ids that match nothing are
// ignored.
func (s *LinkService) ReorderLinks(ctx context.Context, userID string, moves []collection.Move) ([]*models.Link, error) {
	repo := s.repomanager.Users(s.db)
	links, err := repo.GetLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := collection.Reorder(links, moves)
	if matched < len(moves) {
		s.logger.Debug(ctx, "reorder skipped unknown links", "user_id", userID, "requested", len(moves), "matched", matched)
	}

	if err := repo.SaveLinks(ctx, userID, links); err != nil {
		return nil, err
	}
	return collection.Sorted(links), nil
}

// EditLink changes the supplied fields. A replaced icon or thumbnail is
// released after the collection is saved.
func (s *LinkService) EditLink(ctx context.Context, userID, linkID string, p LinkPatch) (*models.Link, error) {
	repo := s.repomanager.Users(s.db)
	links, err := repo.GetLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	link, ok := collection.Find(links, linkID)
	if !ok {
		return nil, fmt.Errorf("%w: link not found", common.ErrorNotFound)
	}

	if p.Title != nil {
		title := models.NormalizeTitle(*p.Title, models.MaxLinkTitleLength)
		if title == "" {
			return nil, fmt.Errorf("%w: title cannot be empty", common.ErrorInvalidInput)
		}
		link.Title = title
	}
	if p.URL != nil {
		url, err := models.NormalizeURL(*p.URL)
		if err != nil {
			return nil, err
		}
		link.URL = url
	}
	if p.Active != nil {
		link.Active = *p.Active
	}
	switch {
	case p.ClearScheduledStart:
		link.ScheduledStart = nil
	case p.ScheduledStart != nil:
		link.ScheduledStart = p.ScheduledStart
	}
	switch {
	case p.ClearScheduledEnd:
		link.ScheduledEnd = nil
	case p.ScheduledEnd != nil:
		link.ScheduledEnd = p.ScheduledEnd
	}
	if err := checkSchedule(link.ScheduledStart, link.ScheduledEnd); err != nil {
		return nil, err
	}

	uploads := newUploadBatch(s.storage, s.logger)
	if p.Icon != nil {
		icon, err := uploads.save(ctx, p.Icon)
		if err != nil {
			return nil, fmt.Errorf("error storing icon: %w", err)
		}
		uploads.replace(link.Icon)
		link.Icon = icon
	}
	if p.Thumbnail != nil {
		thumb, err := uploads.save(ctx, p.Thumbnail)
		if err != nil {
			uploads.rollback(ctx)
			return nil, fmt.Errorf("error storing thumbnail: %w", err)
		}
		uploads.replace(link.Thumbnail)
		link.Thumbnail = thumb
	}
	link.UpdatedAt = s.now()

	if err := repo.SaveLinks(ctx, userID, links); err != nil {
		uploads.rollback(ctx)
		return nil, err
	}
	uploads.commit(ctx)
	return link, nil
}

// DeleteLink removes the link, releases its files and returns its id.
func (s *LinkService) DeleteLink(ctx context.Context, userID, linkID string) (string, error) {
	repo := s.repomanager.Users(s.db)
	links, err := repo.GetLinks(ctx, userID)
	if err != nil {
		return "", err
	}
	rest, removed, ok := collection.Remove(links, linkID)
	if !ok {
		return "", fmt.Errorf("%w: link not found", common.ErrorNotFound)
	}

	if err := repo.SaveLinks(ctx, userID, rest); err != nil {
		return "", err
	}

	uploads := newUploadBatch(s.storage, s.logger)
	uploads.replace(removed.Icon)
	uploads.replace(removed.Thumbnail)
	uploads.commit(ctx)

	return removed.ID, nil
}

// AddSocialLink appends a social link with the next order and returns the
// sorted collection.
func (s *LinkService) AddSocialLink(ctx context.Context, userID string, in SocialLinkInput) ([]*models.SocialLink, error) {
	url := strings.TrimSpace(in.URL)
	icon := strings.ToLower(strings.TrimSpace(in.Icon))
	if strings.TrimSpace(in.Title) == "" || url == "" || icon == "" {
		return nil, fmt.Errorf("%w: title, url and icon are required", common.ErrorInvalidInput)
	}
	platform, err := models.ParsePlatform(in.Title)
	if err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	links, err := repo.GetSocialLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	links = append(links, &models.SocialLink{
		ID:          models.NewItemID(s.now()),
		Title:       platform,
		URL:         url,
		Icon:        icon,
		SocialOrder: collection.NextOrder(links),
		Active:      true,
	})

	if err := repo.SaveSocialLinks(ctx, userID, links); err != nil {
		return nil, err
	}
	return collection.Sorted(links), nil
}

func (s *LinkService) ListSocialLinks(ctx context.Context, userID string) ([]*models.SocialLink, error) {
	links, err := s.repomanager.Users(s.db).GetSocialLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	return collection.Sorted(links), nil
}

func (s *LinkService) ReorderSocialLinks(ctx context.Context, userID string, moves []collection.Move) ([]*models.SocialLink, error) {
	repo := s.repomanager.Users(s.db)
	links, err := repo.GetSocialLinks(ctx, userID)
	if err != nil {
		return nil, err
	}

	matched := collection.Reorder(links, moves)
	if matched < len(moves) {
		s.logger.Debug(ctx, "reorder skipped unknown social links", "user_id", userID, "requested", len(moves), "matched", matched)
	}

	if err := repo.SaveSocialLinks(ctx, userID, links); err != nil {
		return nil, err
	}
	return collection.Sorted(links), nil
}

func (s *LinkService) EditSocialLink(ctx context.Context, userID, linkID string, p SocialLinkPatch) (*models.SocialLink, error) {
	repo := s.repomanager.Users(s.db)
	links, err := repo.GetSocialLinks(ctx, userID)
	if err != nil {
		return nil, err
	}
	link, ok := collection.Find(links, linkID)
	if !ok {
		return nil, fmt.Errorf("%w: social link not found", common.ErrorNotFound)
	}

	if p.Title != nil {
		platform, err := models.ParsePlatform(*p.Title)
		if err != nil {
			return nil, err
		}
		link.Title = platform
	}
	if p.URL != nil {
		url := strings.TrimSpace(*p.URL)
		if url == "" {
			return nil, fmt.Errorf("%w: url cannot be empty", common.ErrorInvalidInput)
		}
		link.URL = url
	}
	if p.Icon != nil {
		icon := strings.ToLower(strings.TrimSpace(*p.Icon))
		if icon == "" {
			return nil, fmt.Errorf("%w: icon cannot be empty", common.ErrorInvalidInput)
		}
		link.Icon = icon
	}
	if p.Active != nil {
		link.Active = *p.Active
	}

	if err := repo.SaveSocialLinks(ctx, userID, links); err != nil {
		return nil, err
	}
	return link, nil
}

func (s *LinkService) DeleteSocialLink(ctx context.Context, userID, linkID string) (string, error) {
	repo := s.repomanager.Users(s.db)
	links, err := repo.GetSocialLinks(ctx, userID)
	if err != nil {
		return "", err
	}
	rest, removed, ok := collection.Remove(links, linkID)
	if !ok {
		return "", fmt.Errorf("%w: social link not found", common.ErrorNotFound)
	}
	if err := repo.SaveSocialLinks(ctx, userID, rest); err != nil {
		return "", err
	}
	return removed.ID, nil
}
