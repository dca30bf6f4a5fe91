package services

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/collection"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newLinkFixture(t *testing.T) (*LinkService, *fakeUsersRepo, *fakeStorage, string) {
	t.Helper()
	db, _ := newSQLMockDB(t)
	users := newFakeUsersRepo()
	fs := newFakeStorage()
	u := users.add(&models.User{Username: "alice", IsActive: true, IsPublic: true})
	s := NewLinkService(db, &fakeRepoManager{u: users, i: newFakeInviteRepo()}, fs, logging.Nop())
	return s, users, fs, u.ID
}

func addLinks(t *testing.T, s *LinkService, userID string, titles ...string) []*models.Link {
	t.Helper()
	var out []*models.Link
	for _, title := range titles {
		links, err := s.AddLink(context.Background(), userID, LinkInput{Title: title, URL: title + ".com"})
		require.NoError(t, err)
		out = links
	}
	return out
}

func titles(links []*models.Link) []string {
	out := make([]string, 0, len(links))
	for _, l := range links {
		out = append(out, l.Title)
	}
	return out
}

func TestAddLink(t *testing.T) {
	s, users, _, uid := newLinkFixture(t)
	ctx := context.Background()

	links, err := s.AddLink(ctx, uid, LinkInput{Title: "  Blog  ", URL: "example.com"})
	require.NoError(t, err)
	require.Len(t, links, 1)
	l := links[0]
	assert.Equal(t, "Blog", l.Title)
	assert.Equal(t, "https://example.com", l.URL)
	assert.Equal(t, 0, l.Order)
	assert.True(t, l.Active)
	assert.NotEmpty(t, l.ID)

	links, err = s.AddLink(ctx, uid, LinkInput{Title: "Site", URL: "HTTP://site.org"})
	require.NoError(t, err)
	assert.Equal(t, "HTTP://site.org", links[1].URL)
	assert.Equal(t, 1, links[1].Order)

	assert.Len(t, users.stored(uid).Links, 2)
}

func TestAddLink_Validation(t *testing.T) {
	s, _, _, uid := newLinkFixture(t)
	ctx := context.Background()

	_, err := s.AddLink(ctx, uid, LinkInput{Title: "   ", URL: "x.com"})
	assert.True(t, errors.Is(err, common.ErrorInvalidInput))

	_, err = s.AddLink(ctx, uid, LinkInput{Title: "x", URL: " "})
	assert.True(t, errors.Is(err, common.ErrorInvalidInput))

	start := time.Now()
	end := start.Add(-time.Hour)
	_, err = s.AddLink(ctx, uid, LinkInput{Title: "x", URL: "x.com", ScheduledStart: &start, ScheduledEnd: &end})
	assert.True(t, errors.Is(err, common.ErrorInvalidInput))

	_, err = s.AddLink(ctx, "missing", LinkInput{Title: "x", URL: "x.com"})
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	links, err := s.AddLink(ctx, uid, LinkInput{Title: strings.Repeat("a", 150), URL: "x.com"})
	require.NoError(t, err)
	assert.Len(t, links[0].Title, models.MaxLinkTitleLength)
}

func TestAddLink_UploadsRolledBackOnSaveFailure(t *testing.T) {
	s, users, fs, uid := newLinkFixture(t)
	users.saveLinksErr = errBoom

	_, err := s.AddLink(context.Background(), uid, LinkInput{
		Title: "x", URL: "x.com", Icon: upload("i.png", "icon"), Thumbnail: upload("t.png", "thumb"),
	})
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, fs.files, "stored uploads must be removed again")
	assert.Len(t, fs.deleted, 2)
}

func TestReorderLinks(t *testing.T) {
	s, _, _, uid := newLinkFixture(t)
	ctx := context.Background()
	links := addLinks(t, s, uid, "a", "b", "c")

	got, err := s.ReorderLinks(ctx, uid, []collection.Move{
		{ID: links[0].ID, Order: 2},
		{ID: links[2].ID, Order: 0},
		{ID: "unknown", Order: 5},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"c", "b", "a"}, titles(got))

	// ties keep insertion order
	got, err = s.ReorderLinks(ctx, uid, []collection.Move{
		{ID: links[0].ID, Order: 1},
		{ID: links[1].ID, Order: 1},
		{ID: links[2].ID, Order: 1},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, titles(got))

	listed, err := s.ListLinks(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, titles(got), titles(listed))
}

func TestReorderLinks_Empty(t *testing.T) {
	s, _, _, uid := newLinkFixture(t)
	got, err := s.ReorderLinks(context.Background(), uid, nil)
	require.NoError(t, err)
	assert.Empty(t, got)
}

func TestAddAfterReorder_UsesMaxPlusOne(t *testing.T) {
	s, _, _, uid := newLinkFixture(t)
	ctx := context.Background()
	links := addLinks(t, s, uid, "a", "b")

	_, err := s.ReorderLinks(ctx, uid, []collection.Move{{ID: links[0].ID, Order: 10}})
	require.NoError(t, err)

	got, err := s.AddLink(ctx, uid, LinkInput{Title: "c", URL: "c.com"})
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "a", "c"}, titles(got))
	assert.Equal(t, 11, got[2].Order)
}

func TestEditLink(t *testing.T) {
	s, users, fs, uid := newLinkFixture(t)
	ctx := context.Background()

	links, err := s.AddLink(ctx, uid, LinkInput{Title: "a", URL: "a.com", Icon: upload("old.png", "old")})
	require.NoError(t, err)
	oldIcon := links[0].Icon
	require.True(t, fs.has(oldIcon))

	title := "renamed"
	url := "b.com"
	off := false
	got, err := s.EditLink(ctx, uid, links[0].ID, LinkPatch{Title: &title, URL: &url, Active: &off, Icon: upload("new.png", "new")})
	require.NoError(t, err)
	assert.Equal(t, "renamed", got.Title)
	assert.Equal(t, "https://b.com", got.URL)
	assert.False(t, got.Active)
	assert.NotEqual(t, oldIcon, got.Icon)
	assert.True(t, fs.has(got.Icon))
	assert.False(t, fs.has(oldIcon), "replaced icon is released")

	stored := users.stored(uid).Links[0]
	assert.Equal(t, "renamed", stored.Title)
	assert.Equal(t, links[0].Order, stored.Order)
}

func TestEditLink_ClearSchedule(t *testing.T) {
	s, users, _, uid := newLinkFixture(t)
	ctx := context.Background()
	id := addLinks(t, s, uid, "blog")[0].ID

	start := time.Date(2025, 1, 1, 0, 0, 0, 0, time.UTC)
	end := start.Add(48 * time.Hour)
	_, err := s.EditLink(ctx, uid, id, LinkPatch{ScheduledStart: &start, ScheduledEnd: &end})
	require.NoError(t, err)

	// a later end alone keeps the start
	later := end.Add(time.Hour)
	l, err := s.EditLink(ctx, uid, id, LinkPatch{ScheduledEnd: &later})
	require.NoError(t, err)
	require.NotNil(t, l.ScheduledStart)
	assert.Equal(t, later, *l.ScheduledEnd)

	l, err = s.EditLink(ctx, uid, id, LinkPatch{ClearScheduledStart: true})
	require.NoError(t, err)
	assert.Nil(t, l.ScheduledStart)
	require.NotNil(t, l.ScheduledEnd)

	l, err = s.EditLink(ctx, uid, id, LinkPatch{ClearScheduledEnd: true})
	require.NoError(t, err)
	assert.Nil(t, l.ScheduledEnd)

	stored := users.stored(uid).Links[0]
	assert.Nil(t, stored.ScheduledStart)
	assert.Nil(t, stored.ScheduledEnd)
}

func TestEditLink_Errors(t *testing.T) {
	s, users, fs, uid := newLinkFixture(t)
	ctx := context.Background()
	links := addLinks(t, s, uid, "a")

	_, err := s.EditLink(ctx, uid, "nope", LinkPatch{})
	assert.True(t, errors.Is(err, common.ErrorNotFound))

	empty := "  "
	_, err = s.EditLink(ctx, uid, links[0].ID, LinkPatch{Title: &empty})
	assert.True(t, errors.Is(err, common.ErrorInvalidInput))

	users.saveLinksErr = errBoom
	_, err = s.EditLink(ctx, uid, links[0].ID, LinkPatch{Thumbnail: upload("t.png", "t")})
	require.ErrorIs(t, err, errBoom)
	assert.Empty(t, fs.files)
}

func TestDeleteLink(t *testing.T) {
	s, users, fs, uid := newLinkFixture(t)
	ctx := context.Background()

	links, err := s.AddLink(ctx, uid, LinkInput{Title: "a", URL: "a.com", Icon: upload("i.png", "i"), Thumbnail: upload("t.png", "t")})
	require.NoError(t, err)
	addLinks(t, s, uid, "b")

	id, err := s.DeleteLink(ctx, uid, links[0].ID)
	require.NoError(t, err)
	assert.Equal(t, links[0].ID, id)
	assert.Equal(t, []string{"b"}, titles(users.stored(uid).Links))
	assert.Empty(t, fs.files)

	_, err = s.DeleteLink(ctx, uid, links[0].ID)
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}

// Two editors start from the same snapshot. The later save wins and the
// earlier change is lost.
func TestLinks_LastWriteWins(t *testing.T) {
	s, users, _, uid := newLinkFixture(t)
	ctx := context.Background()
	addLinks(t, s, uid, "a")

	snapA, err := users.GetLinks(ctx, uid)
	require.NoError(t, err)
	snapB, err := users.GetLinks(ctx, uid)
	require.NoError(t, err)

	snapA[0].Title = "from-a"
	require.NoError(t, users.SaveLinks(ctx, uid, snapA))
	snapB[0].Title = "from-b"
	require.NoError(t, users.SaveLinks(ctx, uid, snapB))

	got, err := s.ListLinks(ctx, uid)
	require.NoError(t, err)
	assert.Equal(t, []string{"from-b"}, titles(got))
}

func TestSocialLinks(t *testing.T) {
	s, users, _, uid := newLinkFixture(t)
	ctx := context.Background()

	got, err := s.AddSocialLink(ctx, uid, SocialLinkInput{Title: "Instagram", URL: "https://instagram.com/a", Icon: "Instagram"})
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Equal(t, models.Platform("instagram"), got[0].Title)
	assert.Equal(t, "instagram", got[0].Icon)
	assert.True(t, got[0].Active)

	got, err = s.AddSocialLink(ctx, uid, SocialLinkInput{Title: "github", URL: "https://github.com/a", Icon: "github"})
	require.NoError(t, err)
	assert.Equal(t, 1, got[1].SocialOrder)

	_, err = s.AddSocialLink(ctx, uid, SocialLinkInput{Title: "myspace", URL: "x", Icon: "x"})
	assert.True(t, errors.Is(err, common.ErrorValidationFailed))

	_, err = s.AddSocialLink(ctx, uid, SocialLinkInput{Title: "github", URL: "", Icon: "github"})
	assert.True(t, errors.Is(err, common.ErrorInvalidInput))

	got, err = s.ReorderSocialLinks(ctx, uid, []collection.Move{{ID: got[0].ID, Order: 5}})
	require.NoError(t, err)
	assert.Equal(t, models.Platform("github"), got[0].Title)

	off := false
	edited, err := s.EditSocialLink(ctx, uid, got[0].ID, SocialLinkPatch{Active: &off})
	require.NoError(t, err)
	assert.False(t, edited.Active)

	id, err := s.DeleteSocialLink(ctx, uid, got[0].ID)
	require.NoError(t, err)
	assert.Equal(t, got[0].ID, id)

	listed, err := s.ListSocialLinks(ctx, uid)
	require.NoError(t, err)
	require.Len(t, listed, 1)
	assert.Equal(t, models.Platform("instagram"), listed[0].Title)
	assert.Len(t, users.stored(uid).SocialLinks, 1)

	_, err = s.EditSocialLink(ctx, uid, "nope", SocialLinkPatch{})
	assert.True(t, errors.Is(err, common.ErrorNotFound))
}
