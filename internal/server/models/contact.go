package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/mymee/internal/common"
)

// Channel is the delivery route of an OTP.
type Channel string

const (
	ChannelEmail    Channel = "email"
	ChannelWhatsApp Channel = "whatsapp"
)

var (
	emailPattern = regexp.MustCompile(`^\S+@\S+\.\S+$`)
	phonePattern = regexp.MustCompile(`^\+?[1-9]\d{1,14}$`)
)

// ParseEmail lowercases and validates an email address.
func ParseEmail(s string) (string, error) {
	v := strings.ToLower(strings.TrimSpace(s))
	if !emailPattern.MatchString(v) {
		return "", fmt.Errorf("%w: invalid email format", common.ErrorInvalidInput)
	}
	return v, nil
}

// ParsePhone strips spaces and dashes and validates an E.164-like number.
func ParsePhone(s string) (string, error) {
	v := strings.NewReplacer(" ", "", "-", "", "(", "", ")", "").Replace(strings.TrimSpace(s))
	if !phonePattern.MatchString(v) {
		return "", fmt.Errorf("%w: invalid phone number format", common.ErrorInvalidInput)
	}
	return v, nil
}

// ParseContact validates contact according to the channel.
func ParseContact(ch Channel, s string) (string, error) {
	switch ch {
	case ChannelEmail:
		return ParseEmail(s)
	case ChannelWhatsApp:
		return ParsePhone(s)
	default:
		return "", fmt.Errorf("%w: unknown channel %q", common.ErrorInvalidInput, ch)
	}
}
