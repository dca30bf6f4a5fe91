package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/mymee/internal/common"
)

const (
	MinUsernameLength = 3
	MaxUsernameLength = 30
	MinPasswordLength = 6
)

var usernamePattern = regexp.MustCompile(`^[a-z0-9_]+$`)

// Username is a lowercase handle that already passed validation.
type Username string

func (u Username) String() string { return string(u) }

func ParseUsername(s string) (Username, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if len(v) < MinUsernameLength || len(v) > MaxUsernameLength {
		return "", fmt.Errorf("%w: username must be %d-%d characters", common.ErrorInvalidInput, MinUsernameLength, MaxUsernameLength)
	}
	if !usernamePattern.MatchString(v) {
		return "", fmt.Errorf("%w: username can only contain lowercase letters, numbers, and underscores", common.ErrorInvalidInput)
	}
	return Username(v), nil
}

// ValidatePassword enforces the minimum password length.
func ValidatePassword(p string) error {
	if len(p) < MinPasswordLength {
		return fmt.Errorf("%w: password must be at least %d characters", common.ErrorInvalidInput, MinPasswordLength)
	}
	return nil
}
