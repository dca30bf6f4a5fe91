// Package models holds the domain types of the profile service together
// with the value objects that enforce their invariants on construction.
package models

import "time"

// SocialPosition controls where social icons render on the public page.
type SocialPosition string

const (
	SocialPositionTop    SocialPosition = "top"
	SocialPositionBottom SocialPosition = "bottom"
)

// URLFormat controls how the public profile URL is built.
type URLFormat string

const (
	URLFormatSubdomain URLFormat = "subdomain"
	URLFormatPath      URLFormat = "path"
)

// Plan is stored but has no behavior attached.
type Plan string

const (
	PlanFree     Plan = "free"
	PlanPro      Plan = "pro"
	PlanBusiness Plan = "business"
)

const (
	MaxNameLength   = 20
	MaxBioLength    = 200
	MaxHeaderLength = 100
)

// Analytics are plain counters maintained on the account row.
type Analytics struct {
	TotalViews  int64      `json:"totalViews"`
	TotalClicks int64      `json:"totalClicks"`
	LastVisit   *time.Time `json:"lastVisit,omitempty"`
}

// User is an account together with the profile it owns.
type User struct {
	ID           string  `json:"id"`
	Username     string  `json:"username"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"phone,omitempty"`
	PasswordHash string  `json:"-"`

	Name         string `json:"name"`
	Bio          string `json:"bio"`
	Header       string `json:"header"`
	ProfileImage string `json:"profileImage"`

	Links       []*Link       `json:"links"`
	SocialLinks []*SocialLink `json:"socialLinks"`
	Theme       *Theme        `json:"theme,omitempty"`

	SocialPosition SocialPosition `json:"socialPosition"`
	URLFormat      URLFormat      `json:"urlFormat"`
	Plan           Plan           `json:"plan"`
	IsPublic       bool           `json:"isPublic"`
	IsActive       bool           `json:"isActive"`
	IsVerified     bool           `json:"isVerified"`

	Analytics Analytics  `json:"analytics"`
	LastLogin *time.Time `json:"lastLogin,omitempty"`
	CreatedAt time.Time  `json:"createdAt"`
	UpdatedAt time.Time  `json:"updatedAt"`
}

// Contact returns the identifier the account signed up with.
func (u *User) Contact() string {
	if u.Email != nil && *u.Email != "" {
		return *u.Email
	}
	if u.Phone != nil {
		return *u.Phone
	}
	return ""
}

// ProfileUpdate carries the editable profile fields. Nil means unchanged.
type ProfileUpdate struct {
	Name           *string
	Bio            *string
	ProfileImage   *string
	SocialPosition *SocialPosition
	IsPublic       *bool
}

// PublicUser is the account part of a public profile.
type PublicUser struct {
	Name         string `json:"name"`
	Username     string `json:"username"`
	ProfileImage string `json:"profileImage"`
	Bio          string `json:"bio"`
	Header       string `json:"header"`
}

// PublicProfile is what anonymous visitors receive.
type PublicProfile struct {
	User           PublicUser     `json:"user"`
	Links          []*Link        `json:"links"`
	SocialLinks    []*SocialLink  `json:"socialLinks"`
	Theme          *Theme         `json:"theme"`
	SocialPosition SocialPosition `json:"position"`
}
