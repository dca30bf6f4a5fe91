package models

import (
	"fmt"
	"strings"

	"github.com/dmitrijs2005/mymee/internal/common"
)

// Platform is the closed set of social networks a social link may point to.
type Platform string

const (
	PlatformInstagram  Platform = "instagram"
	PlatformCall       Platform = "call"
	PlatformContact    Platform = "contact"
	PlatformFacebook   Platform = "facebook"
	PlatformTwitter    Platform = "twitter"
	PlatformYouTube    Platform = "youtube"
	PlatformLinkedIn   Platform = "linkedin"
	PlatformTikTok     Platform = "tiktok"
	PlatformSpotify    Platform = "spotify"
	PlatformGitHub     Platform = "github"
	PlatformBehance    Platform = "behance"
	PlatformDribbble   Platform = "dribbble"
	PlatformDiscord    Platform = "discord"
	PlatformReddit     Platform = "reddit"
	PlatformTelegram   Platform = "telegram"
	PlatformTwitch     Platform = "twitch"
	PlatformPinterest  Platform = "pinterest"
	PlatformWhatsApp   Platform = "whatsapp"
	PlatformSnapchat   Platform = "snapchat"
	PlatformClubhouse  Platform = "clubhouse"
	PlatformAmazon     Platform = "amazon"
	PlatformFlipkart   Platform = "flipkart"
	PlatformGooglePlay Platform = "googleplay"
	PlatformEmail      Platform = "email"
	PlatformMusic      Platform = "music"
	PlatformPodcast    Platform = "podcast"
)

var platforms = map[Platform]struct{}{
	PlatformInstagram: {}, PlatformCall: {}, PlatformContact: {}, PlatformFacebook: {},
	PlatformTwitter: {}, PlatformYouTube: {}, PlatformLinkedIn: {}, PlatformTikTok: {},
	PlatformSpotify: {}, PlatformGitHub: {}, PlatformBehance: {}, PlatformDribbble: {},
	PlatformDiscord: {}, PlatformReddit: {}, PlatformTelegram: {}, PlatformTwitch: {},
	PlatformPinterest: {}, PlatformWhatsApp: {}, PlatformSnapchat: {}, PlatformClubhouse: {},
	PlatformAmazon: {}, PlatformFlipkart: {}, PlatformGooglePlay: {}, PlatformEmail: {},
	PlatformMusic: {}, PlatformPodcast: {},
}

// ParsePlatform lowercases s and checks it against the known platforms.
func ParsePlatform(s string) (Platform, error) {
	p := Platform(strings.ToLower(strings.TrimSpace(s)))
	if _, ok := platforms[p]; !ok {
		return "", fmt.Errorf("%w: unknown social platform %q", common.ErrorValidationFailed, s)
	}
	return p, nil
}
