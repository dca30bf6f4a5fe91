package models

import (
	"fmt"
	"regexp"
	"strings"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
)

// InviteCodeLength is the fixed length of an invite code.
const InviteCodeLength = 8

var inviteCodePattern = regexp.MustCompile(`^[A-Z0-9]{8}$`)

// InviteToken gates signup. It can be consumed exactly once.
type InviteToken struct {
	Code      string
	IsUsed    bool
	UsedBy    *string
	UsedAt    *time.Time
	CreatedAt time.Time
}

// ParseInviteCode uppercases s and checks the [A-Z0-9]{8} format.
func ParseInviteCode(s string) (string, error) {
	v := strings.ToUpper(strings.TrimSpace(s))
	if !inviteCodePattern.MatchString(v) {
		return "", fmt.Errorf("%w: invite token must be 8 letters or digits", common.ErrorInvalidInput)
	}
	return v, nil
}
