package models

import (
	"crypto/rand"
	"sync"
	"time"

	"github.com/oklog/ulid/v2"
)

// MaxLinkTitleLength caps regular link titles.
const MaxLinkTitleLength = 100

// Link is an entry of the regular links collection.
type Link struct {
	ID             string     `json:"id"`
	Title          string     `json:"title"`
	URL            string     `json:"url"`
	Icon           string     `json:"icon,omitempty"`
	Order          int        `json:"order"`
	Clicks         int64      `json:"clicks"`
	Active         bool       `json:"active"`
	ScheduledStart *time.Time `json:"scheduledStart,omitempty"`
	ScheduledEnd   *time.Time `json:"scheduledEnd,omitempty"`
	Thumbnail      string     `json:"thumbnail,omitempty"`
	CreatedAt      time.Time  `json:"createdAt"`
	UpdatedAt      time.Time  `json:"updatedAt"`
}

func (l *Link) ItemID() string { return l.ID }
func (l *Link) Rank() int      { return l.Order }
func (l *Link) SetRank(o int)  { l.Order = o }

// VisibleAt reports whether the link is active and inside its schedule.
func (l *Link) VisibleAt(now time.Time) bool {
	if !l.Active {
		return false
	}
	if l.ScheduledStart != nil && now.Before(*l.ScheduledStart) {
		return false
	}
	if l.ScheduledEnd != nil && now.After(*l.ScheduledEnd) {
		return false
	}
	return true
}

// SocialLink is an entry of the social links collection. Title holds the
// platform tag.
type SocialLink struct {
	ID          string   `json:"id"`
	Title       Platform `json:"title"`
	URL         string   `json:"url"`
	Icon        string   `json:"icon"`
	SocialOrder int      `json:"socialOrder"`
	Active      bool     `json:"active"`
}

func (l *SocialLink) ItemID() string { return l.ID }
func (l *SocialLink) Rank() int      { return l.SocialOrder }
func (l *SocialLink) SetRank(o int)  { l.SocialOrder = o }

var (
	entropyMu sync.Mutex
	entropy   = ulid.Monotonic(rand.Reader, 0)
)

// NewItemID returns a time-ordered ULID for a collection item.
func NewItemID(now time.Time) string {
	entropyMu.Lock()
	defer entropyMu.Unlock()
	return ulid.MustNew(ulid.Timestamp(now), entropy).String()
}
