package models

// ButtonStyle is one of fill, outline, shadow or soft.
type ButtonStyle string

// Theme is stored as a document on the account.
type Theme struct {
	Name        string      `json:"name" yaml:"name"`
	BgColor     string      `json:"bgColor" yaml:"bgColor"`
	BgImage     string      `json:"bgImage" yaml:"bgImage"`
	BgVideo     string      `json:"bgVideo" yaml:"bgVideo"`
	BgGradient  string      `json:"bgGradient" yaml:"bgGradient"`
	NameColor   string      `json:"nameColor" yaml:"nameColor"`
	BioColor    string      `json:"bioColor" yaml:"bioColor"`
	HeaderColor string      `json:"headerColor" yaml:"headerColor"`
	IconColor   string      `json:"iconColor" yaml:"iconColor"`
	IconBg      string      `json:"iconBg" yaml:"iconBg"`
	LinkColor   string      `json:"linkColor" yaml:"linkColor"`
	LinkBg      string      `json:"linkBg" yaml:"linkBg"`
	LinkRadius  string      `json:"linkRadius" yaml:"linkRadius"`
	LinkBorder  string      `json:"linkBorder" yaml:"linkBorder"`
	LinkShadow  string      `json:"linkShadow" yaml:"linkShadow"`
	FontStyle   string      `json:"fontStyle" yaml:"fontStyle"`
	FontSize    string      `json:"fontSize" yaml:"fontSize"`
	ButtonStyle ButtonStyle `json:"buttonStyle" yaml:"buttonStyle"`
	Animation   bool        `json:"animation" yaml:"animation"`
}

// DefaultTheme is served when an account has not picked a theme yet.
func DefaultTheme() *Theme {
	return &Theme{
		Name:        "custom",
		BgColor:     "#ffffff",
		NameColor:   "#000000",
		BioColor:    "rgba(0,0,0,0.40)",
		HeaderColor: "#000000",
		IconColor:   "#ffffff",
		IconBg:      "#00000032",
		LinkColor:   "#ffffff",
		LinkBg:      "#00000072",
		LinkRadius:  "24px",
		LinkBorder:  "none",
		LinkShadow:  "none",
		FontStyle:   "Arial, sans-serif",
		FontSize:    "16px",
		ButtonStyle: "fill",
		Animation:   true,
	}
}

// ValidButtonStyle reports whether s is an accepted button style.
func ValidButtonStyle(s ButtonStyle) bool {
	switch s {
	case "fill", "outline", "shadow", "soft":
		return true
	}
	return false
}
