// Package otp keeps one-time password challenges for signup and password
// reset. A contact has at most one live challenge per purpose.
package otp

import (
	"crypto/subtle"
	"fmt"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/shared"
)

// CodeLength is the number of digits in a code.
const CodeLength = 6

type Purpose string

const (
	PurposeSignup Purpose = "signup"
	PurposeReset  Purpose = "reset"
)

const (
	SignupWindow = 5 * time.Minute
	ResetWindow  = 10 * time.Minute
)

// Window is how long a freshly issued code stays valid.
func (p Purpose) Window() time.Duration {
	if p == PurposeReset {
		return ResetWindow
	}
	return SignupWindow
}

// Challenge is the state bound to one contact between send and completion.
// Signup challenges carry the invite token and, for WhatsApp signup, the
// pending account fields. Reset challenges carry the account id.
type Challenge struct {
	Purpose   Purpose        `json:"purpose"`
	Contact   string         `json:"contact"`
	Channel   models.Channel `json:"channel"`
	Code      string         `json:"code"`
	ExpiresAt time.Time      `json:"expiresAt"`

	InviteToken         string `json:"inviteToken,omitempty"`
	PendingUsername     string `json:"pendingUsername,omitempty"`
	PendingPasswordHash string `json:"pendingPasswordHash,omitempty"`

	UserID   string `json:"userId,omitempty"`
	Verified bool   `json:"verified,omitempty"`
}

// GenerateCode returns CodeLength uniformly random digits.
func GenerateCode() (string, error) {
	code, err := shared.RandomDigits(CodeLength)
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	return code, nil
}

// Renew sets a new code and restarts the validity window. The other
// associations are kept.
func (c *Challenge) Renew(code string, now time.Time) {
	c.Code = code
	c.ExpiresAt = now.Add(c.Purpose.Window())
	c.Verified = false
}

func (c *Challenge) Expired(now time.Time) bool {
	return now.After(c.ExpiresAt)
}

// Check tests expiry first, so a late but correct code still yields
// common.ErrorExpired.
func (c *Challenge) Check(now time.Time, code string) error {
	if c.Expired(now) {
		return common.ErrorExpired
	}
	if subtle.ConstantTimeCompare([]byte(c.Code), []byte(code)) != 1 {
		return common.ErrorMismatch
	}
	return nil
}
