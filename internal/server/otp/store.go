package otp

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mymee/internal/server/kvstore"
)

// DefaultRetention keeps a challenge readable for a while after it expires
// so that verify can report it as expired and resend can revive it.
const DefaultRetention = time.Hour

// MinRetention is the floor for the retention. Without it the store would
// drop a challenge at its expiry instant and verify could never tell
// "expired" from "never sent".
const MinRetention = time.Minute

type Store struct {
	kv        kvstore.Store
	retention time.Duration
}

func NewStore(kv kvstore.Store, retention time.Duration) *Store {
	if retention < MinRetention {
		retention = MinRetention
	}
	return &Store{kv: kv, retention: retention}
}

func key(p Purpose, contact string) string {
	return "otp:" + string(p) + ":" + contact
}

// Save overwrites any challenge of the same purpose and contact.
func (s *Store) Save(ctx context.Context, c *Challenge) error {
	b, err := json.Marshal(c)
	if err != nil {
		return fmt.Errorf("encode challenge: %w", err)
	}
	return s.kv.Put(ctx, key(c.Purpose, c.Contact), b, c.Purpose.Window()+s.retention)
}

// Load returns common.ErrorNotFound when there is no challenge.
func (s *Store) Load(ctx context.Context, p Purpose, contact string) (*Challenge, error) {
	b, err := s.kv.Get(ctx, key(p, contact))
	if err != nil {
		return nil, err
	}
	var c Challenge
	if err := json.Unmarshal(b, &c); err != nil {
		return nil, fmt.Errorf("decode challenge: %w", err)
	}
	return &c, nil
}

func (s *Store) Delete(ctx context.Context, p Purpose, contact string) error {
	return s.kv.Delete(ctx, key(p, contact))
}
