package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/dmitrijs2005/mymee/internal/common"
)

var schemePattern = regexp.MustCompile(`(?i)^https?://`)

// NormalizeURL trims s and prepends https:// unless it already starts with
// http:// or https://.
func NormalizeURL(s string) (string, error) {
	v := strings.TrimSpace(s)
	if v == "" {
		return "", fmt.Errorf("%w: url is required", common.ErrorInvalidInput)
	}
	if !schemePattern.MatchString(v) {
		v = "https://" + v
	}
	return v, nil
}

// NormalizeTitle trims s and cuts it to max runes.
func NormalizeTitle(s string, max int) string {
	v := strings.TrimSpace(s)
	r := []rune(v)
	if max > 0 && len(r) > max {
		v = strings.TrimSpace(string(r[:max]))
	}
	return v
}
