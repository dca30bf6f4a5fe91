package services

import (
	"bytes"
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/dbx"
	"github.com/dmitrijs2005/mymee/internal/server/delivery"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/invitetokens"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/users"
)

var errBoom = errors.New("boom")

// --- helpers ---

func newSQLMockDB(t *testing.T) (*sql.DB, sqlmock.Sqlmock) {
	t.Helper()
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("sqlmock.New error: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db, mock
}

func upload(name, body string) *Upload {
	return &Upload{Name: name, ContentType: "image/png", Body: strings.NewReader(body)}
}

// --- users repo ---

// fakeUsersRepo keeps accounts in memory. Collections are copied on read
// and on write, like a real row would be.
type fakeUsersRepo struct {
	mu    sync.Mutex
	seq   int
	users map[string]*models.User

	createErr    error
	saveLinksErr error
	setThemeErr  error
	recordErr    error

	views  int
	clicks map[string]int
}

func newFakeUsersRepo() *fakeUsersRepo {
	return &fakeUsersRepo{users: map[string]*models.User{}, clicks: map[string]int{}}
}

func copyLinks(in []*models.Link) []*models.Link {
	out := make([]*models.Link, 0, len(in))
	for _, l := range in {
		c := *l
		out = append(out, &c)
	}
	return out
}

func copySocial(in []*models.SocialLink) []*models.SocialLink {
	out := make([]*models.SocialLink, 0, len(in))
	for _, l := range in {
		c := *l
		out = append(out, &c)
	}
	return out
}

func copyUser(u *models.User) *models.User {
	c := *u
	c.Links = copyLinks(u.Links)
	c.SocialLinks = copySocial(u.SocialLinks)
	if u.Theme != nil {
		t := *u.Theme
		c.Theme = &t
	}
	return &c
}

func sameStr(a, b *string) bool {
	return a != nil && b != nil && *a != "" && *a == *b
}

// add stores u directly, bypassing uniqueness checks.
func (f *fakeUsersRepo) add(u *models.User) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u.ID == "" {
		f.seq++
		u.ID = fmt.Sprintf("u-%d", f.seq)
	}
	if u.Links == nil {
		u.Links = []*models.Link{}
	}
	if u.SocialLinks == nil {
		u.SocialLinks = []*models.SocialLink{}
	}
	f.users[u.ID] = copyUser(u)
	return u
}

func (f *fakeUsersRepo) stored(id string) *models.User {
	f.mu.Lock()
	defer f.mu.Unlock()
	if u, ok := f.users[id]; ok {
		return copyUser(u)
	}
	return nil
}

func (f *fakeUsersRepo) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.users)
}

func (f *fakeUsersRepo) Create(_ context.Context, user *models.User) (*models.User, error) {
	if f.createErr != nil {
		return nil, f.createErr
	}
	f.mu.Lock()
	for _, u := range f.users {
		if u.Username == user.Username {
			f.mu.Unlock()
			return nil, fmt.Errorf("%w: username already taken", common.ErrorConflict)
		}
		if sameStr(u.Email, user.Email) || sameStr(u.Phone, user.Phone) {
			f.mu.Unlock()
			return nil, fmt.Errorf("%w: account already exists", common.ErrorConflict)
		}
	}
	f.mu.Unlock()

	u := copyUser(user)
	u.IsActive = true
	u.IsPublic = true
	u.SocialPosition = models.SocialPositionTop
	u.URLFormat = models.URLFormatPath
	u.CreatedAt = time.Now()
	return f.add(u), nil
}

func (f *fakeUsersRepo) find(match func(*models.User) bool) (*models.User, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, u := range f.users {
		if match(u) {
			return copyUser(u), nil
		}
	}
	return nil, common.ErrorNotFound
}

func (f *fakeUsersRepo) GetByID(_ context.Context, id string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.ID == id })
}

func (f *fakeUsersRepo) GetByUsername(_ context.Context, username string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Username == username })
}

func (f *fakeUsersRepo) GetByEmail(_ context.Context, email string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Email != nil && *u.Email == email })
}

func (f *fakeUsersRepo) GetByPhone(_ context.Context, phone string) (*models.User, error) {
	return f.find(func(u *models.User) bool { return u.Phone != nil && *u.Phone == phone })
}

func (f *fakeUsersRepo) UsernameTaken(_ context.Context, username, exceptID string) (bool, error) {
	_, err := f.find(func(u *models.User) bool { return u.Username == username && u.ID != exceptID })
	return err == nil, nil
}

// update runs fn on the stored row.
func (f *fakeUsersRepo) update(id string, fn func(u *models.User)) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	u, ok := f.users[id]
	if !ok {
		return common.ErrorNotFound
	}
	fn(u)
	return nil
}

func (f *fakeUsersRepo) UpdatePassword(_ context.Context, id, hash string) error {
	return f.update(id, func(u *models.User) { u.PasswordHash = hash })
}

func (f *fakeUsersRepo) TouchLastLogin(_ context.Context, id string, at time.Time) error {
	return f.update(id, func(u *models.User) { u.LastLogin = &at })
}

func (f *fakeUsersRepo) UpdateProfile(_ context.Context, id string, upd models.ProfileUpdate) (*models.User, error) {
	err := f.update(id, func(u *models.User) {
		if upd.Name != nil {
			u.Name = *upd.Name
		}
		if upd.Bio != nil {
			u.Bio = *upd.Bio
		}
		if upd.ProfileImage != nil {
			u.ProfileImage = *upd.ProfileImage
		}
		if upd.SocialPosition != nil {
			u.SocialPosition = *upd.SocialPosition
		}
		if upd.IsPublic != nil {
			u.IsPublic = *upd.IsPublic
		}
	})
	if err != nil {
		return nil, err
	}
	return f.stored(id), nil
}

func (f *fakeUsersRepo) UpdateUsername(_ context.Context, id, username string, format models.URLFormat) error {
	return f.update(id, func(u *models.User) {
		u.Username = username
		if format != "" {
			u.URLFormat = format
		}
	})
}

func (f *fakeUsersRepo) SetHeader(_ context.Context, id, header string) error {
	return f.update(id, func(u *models.User) { u.Header = header })
}

func (f *fakeUsersRepo) SetTheme(_ context.Context, id string, theme *models.Theme) error {
	if f.setThemeErr != nil {
		return f.setThemeErr
	}
	t := *theme
	return f.update(id, func(u *models.User) { u.Theme = &t })
}

func (f *fakeUsersRepo) GetLinks(_ context.Context, id string) ([]*models.Link, error) {
	u, err := f.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return u.Links, nil
}

func (f *fakeUsersRepo) SaveLinks(_ context.Context, id string, links []*models.Link) error {
	if f.saveLinksErr != nil {
		return f.saveLinksErr
	}
	cp := copyLinks(links)
	return f.update(id, func(u *models.User) { u.Links = cp })
}

func (f *fakeUsersRepo) GetSocialLinks(_ context.Context, id string) ([]*models.SocialLink, error) {
	u, err := f.GetByID(context.Background(), id)
	if err != nil {
		return nil, err
	}
	return u.SocialLinks, nil
}

func (f *fakeUsersRepo) SaveSocialLinks(_ context.Context, id string, links []*models.SocialLink) error {
	cp := copySocial(links)
	return f.update(id, func(u *models.User) { u.SocialLinks = cp })
}

func (f *fakeUsersRepo) RecordView(_ context.Context, id string, at time.Time) error {
	if f.recordErr != nil {
		return f.recordErr
	}
	return f.update(id, func(u *models.User) {
		f.views++
		u.Analytics.TotalViews++
		u.Analytics.LastVisit = &at
	})
}

func (f *fakeUsersRepo) RecordClick(_ context.Context, id, linkID string) error {
	found := false
	err := f.update(id, func(u *models.User) {
		for _, l := range u.Links {
			if l.ID == linkID {
				l.Clicks++
				u.Analytics.TotalClicks++
				found = true
			}
		}
	})
	if err != nil {
		return err
	}
	if !found {
		return common.ErrorNotFound
	}
	f.clicks[linkID]++
	return nil
}

var _ users.Repository = (*fakeUsersRepo)(nil)

// --- invite tokens repo ---

type fakeInviteRepo struct {
	mu         sync.Mutex
	tokens     map[string]*models.InviteToken
	consumeErr error
	findErr    error
}

func newFakeInviteRepo(codes ...string) *fakeInviteRepo {
	f := &fakeInviteRepo{tokens: map[string]*models.InviteToken{}}
	for _, c := range codes {
		f.tokens[c] = &models.InviteToken{Code: c}
	}
	return f
}

func (f *fakeInviteRepo) Find(_ context.Context, code string) (*models.InviteToken, error) {
	if f.findErr != nil {
		return nil, f.findErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[code]
	if !ok {
		return nil, common.ErrorNotFound
	}
	c := *t
	return &c, nil
}

func (f *fakeInviteRepo) Consume(_ context.Context, code, userID string, at time.Time) error {
	if f.consumeErr != nil {
		return f.consumeErr
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[code]
	if !ok || t.IsUsed {
		return fmt.Errorf("%w: invite token already used", common.ErrorConflict)
	}
	t.IsUsed = true
	t.UsedBy = &userID
	t.UsedAt = &at
	return nil
}

func (f *fakeInviteRepo) Create(_ context.Context, code string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, ok := f.tokens[code]; ok {
		return false, nil
	}
	f.tokens[code] = &models.InviteToken{Code: code}
	return true, nil
}

func (f *fakeInviteRepo) List(context.Context, bool) ([]*models.InviteToken, error) {
	return nil, nil
}

func (f *fakeInviteRepo) used(code string) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	t, ok := f.tokens[code]
	return ok && t.IsUsed
}

var _ invitetokens.Repository = (*fakeInviteRepo)(nil)

// --- repository manager ---

type fakeRepoManager struct {
	u *fakeUsersRepo
	i *fakeInviteRepo
}

func (m *fakeRepoManager) RunMigrations(context.Context, *sql.DB) error  { return nil }
func (m *fakeRepoManager) Users(dbx.DBTX) users.Repository               { return m.u }
func (m *fakeRepoManager) InviteTokens(dbx.DBTX) invitetokens.Repository { return m.i }

// --- storage ---

type fakeStorage struct {
	mu      sync.Mutex
	seq     int
	files   map[string][]byte
	deleted []string
	saveErr error
}

func newFakeStorage() *fakeStorage {
	return &fakeStorage{files: map[string][]byte{}}
}

func (s *fakeStorage) Save(_ context.Context, name, _ string, r io.Reader) (string, error) {
	if s.saveErr != nil {
		return "", s.saveErr
	}
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, r); err != nil {
		return "", err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seq++
	ref := fmt.Sprintf("/uploads/%d-%s", s.seq, name)
	s.files[ref] = buf.Bytes()
	return ref, nil
}

func (s *fakeStorage) Delete(_ context.Context, ref string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.files, ref)
	s.deleted = append(s.deleted, ref)
	return nil
}

func (s *fakeStorage) has(ref string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.files[ref]
	return ok
}

// --- senders ---

type sentCode struct {
	To   string
	Kind delivery.Kind
	Code string
}

type fakeSender struct {
	mu   sync.Mutex
	sent []sentCode
	err  error
}

func (s *fakeSender) SendCode(_ context.Context, to string, kind delivery.Kind, code string) error {
	if s.err != nil {
		return s.err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sent = append(s.sent, sentCode{To: to, Kind: kind, Code: code})
	return nil
}

func (s *fakeSender) last(t *testing.T) sentCode {
	t.Helper()
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.sent) == 0 {
		t.Fatalf("no code was sent")
	}
	return s.sent[len(s.sent)-1]
}

func (s *fakeSender) count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.sent)
}
