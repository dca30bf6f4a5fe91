package httpapi

import (
	"net/http"

	"github.com/dmitrijs2005/mymee/internal/server/services"
	"github.com/gin-gonic/gin"
)

func (h *Handler) GetUser(c *gin.Context) {
	u, err := h.profiles.GetUser(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, u)
}

type profileForm struct {
	Name *string `json:"name" form:"name"`
	Bio  *string `json:"bio" form:"bio"`
}

func (h *Handler) UpdateProfile(c *gin.Context) {
	var req profileForm
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	files, closeFiles, ok := h.formFiles(c, "profileImage")
	if !ok {
		return
	}
	defer closeFiles()

	u, err := h.profiles.UpdateProfile(c.Request.Context(), session(c).UserID, services.ProfileInput{
		Name:  req.Name,
		Bio:   req.Bio,
		Image: files["profileImage"],
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Profile updated", "user": u})
}

type usernameRequest struct {
	Username  string `json:"username"`
	URLFormat string `json:"urlFormat"`
}

func (h *Handler) UpdateUsername(c *gin.Context) {
	var req usernameRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.profiles.UpdateUsername(c.Request.Context(), session(c).UserID, req.Username, req.URLFormat)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Username updated", "username": u.Username, "urlFormat": u.URLFormat})
}

type settingsRequest struct {
	SocialPosition *string `json:"socialPosition"`
	IsPublic       *bool   `json:"isPublic"`
}

func (h *Handler) UpdateSettings(c *gin.Context) {
	var req settingsRequest
	if !h.bind(c, &req) {
		return
	}
	u, err := h.profiles.UpdateSettings(c.Request.Context(), session(c).UserID, services.SettingsInput{
		SocialPosition: req.SocialPosition,
		IsPublic:       req.IsPublic,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Settings updated", "user": u})
}

type headerRequest struct {
	Header string `json:"header"`
}

func (h *Handler) SetHeader(c *gin.Context) {
	var req headerRequest
	if !h.bind(c, &req) {
		return
	}
	header, err := h.profiles.SetHeader(c.Request.Context(), session(c).UserID, req.Header)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Header updated", "header": header})
}

func (h *Handler) ClearHeader(c *gin.Context) {
	if err := h.profiles.ClearHeader(c.Request.Context(), session(c).UserID); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Header removed"})
}

func (h *Handler) GetTheme(c *gin.Context) {
	t, err := h.profiles.GetTheme(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"theme": t})
}

func (h *Handler) BuiltinThemes(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"themes": h.profiles.BuiltinThemes()})
}

type builtinThemeRequest struct {
	ThemeName string `json:"themeName"`
}

func (h *Handler) ApplyBuiltinTheme(c *gin.Context) {
	var req builtinThemeRequest
	if !h.bind(c, &req) {
		return
	}
	t, err := h.profiles.ApplyBuiltinTheme(c.Request.Context(), session(c).UserID, req.ThemeName)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Theme applied", "theme": t})
}

type customThemeForm struct {
	BgColor     string `json:"bgColor" form:"bgColor"`
	BgVideo     string `json:"bgVideo" form:"bgVideo"`
	NameColor   string `json:"nameColor" form:"nameColor"`
	BioColor    string `json:"bioColor" form:"bioColor"`
	HeaderColor string `json:"headerColor" form:"headerColor"`
	IconColor   string `json:"iconColor" form:"iconColor"`
	IconBg      string `json:"iconBg" form:"iconBg"`
	LinkColor   string `json:"linkColor" form:"linkColor"`
	LinkBg      string `json:"linkBg" form:"linkBg"`
	LinkRadius  string `json:"linkRadius" form:"linkRadius"`
	FontStyle   string `json:"fontStyle" form:"fontStyle"`
	ButtonStyle string `json:"buttonStyle" form:"buttonStyle"`
}

func (h *Handler) ApplyCustomTheme(c *gin.Context) {
	var req customThemeForm
	if err := c.ShouldBind(&req); err != nil {
		h.badRequest(c, "invalid request body")
		return
	}
	files, closeFiles, ok := h.formFiles(c, "themebg")
	if !ok {
		return
	}
	defer closeFiles()

	t, err := h.profiles.ApplyCustomTheme(c.Request.Context(), session(c).UserID, services.CustomTheme{
		BgColor:     req.BgColor,
		BgVideo:     req.BgVideo,
		NameColor:   req.NameColor,
		BioColor:    req.BioColor,
		HeaderColor: req.HeaderColor,
		IconColor:   req.IconColor,
		IconBg:      req.IconBg,
		LinkColor:   req.LinkColor,
		LinkBg:      req.LinkBg,
		LinkRadius:  req.LinkRadius,
		FontStyle:   req.FontStyle,
		ButtonStyle: req.ButtonStyle,
		Background:  files["themebg"],
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "Custom theme applied", "theme": t})
}

func (h *Handler) PublicProfile(c *gin.Context) {
	p, err := h.profiles.PublicProfile(c.Request.Context(), c.Param("username"))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, p)
}

func (h *Handler) RecordClick(c *gin.Context) {
	if err := h.profiles.RecordClick(c.Request.Context(), c.Param("username"), c.Param("id")); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"success": true})
}
