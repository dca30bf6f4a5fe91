package httpapi

import (
	"context"
	"net/http"

	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/collection"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/services"
	"github.com/gin-gonic/gin"
)

// Accounts is the account lifecycle used by the auth routes.
type Accounts interface {
	ValidateInviteToken(ctx context.Context, code string) (bool, error)
	CheckUsername(ctx context.Context, username string) (bool, error)
	CheckContact(ctx context.Context, ch models.Channel, contact string) (bool, error)
	SendSignupOTP(ctx context.Context, req services.SignupOTPRequest) (*services.OTPReceipt, error)
	ResendSignupOTP(ctx context.Context, ch models.Channel, contact string) (*services.OTPReceipt, error)
	VerifySignupOTP(ctx context.Context, ch models.Channel, contact, code string) error
	CompleteSignup(ctx context.Context, req services.CompleteSignupRequest) (*services.AuthResult, error)
	VerifyWhatsAppSignup(ctx context.Context, phone, code, inviteToken string) (*services.AuthResult, error)
	Login(ctx context.Context, username, password string) (*services.AuthResult, error)
	ForgotPassword(ctx context.Context, ch models.Channel, contact string) (*services.OTPReceipt, error)
	ResendResetOTP(ctx context.Context, identifier string) (*services.OTPReceipt, error)
	VerifyResetOTP(ctx context.Context, identifier, code string) error
	ResetPassword(ctx context.Context, identifier, code, newPassword string) (*services.AuthResult, error)
	Me(ctx context.Context, userID string) (*models.User, error)
}

// Links manages the two link collections of the signed-in user.
type Links interface {
	AddLink(ctx context.Context, userID string, in services.LinkInput) ([]*models.Link, error)
	ListLinks(ctx context.Context, userID string) ([]*models.Link, error)
	ReorderLinks(ctx context.Context, userID string, moves []collection.Move) ([]*models.Link, error)
	EditLink(ctx context.Context, userID, linkID string, p services.LinkPatch) (*models.Link, error)
	DeleteLink(ctx context.Context, userID, linkID string) (string, error)

	AddSocialLink(ctx context.Context, userID string, in services.SocialLinkInput) ([]*models.SocialLink, error)
	ListSocialLinks(ctx context.Context, userID string) ([]*models.SocialLink, error)
	ReorderSocialLinks(ctx context.Context, userID string, moves []collection.Move) ([]*models.SocialLink, error)
	EditSocialLink(ctx context.Context, userID, linkID string, p services.SocialLinkPatch) (*models.SocialLink, error)
	DeleteSocialLink(ctx context.Context, userID, linkID string) (string, error)
}

// Profiles covers profile settings, themes and the public page.
type Profiles interface {
	GetUser(ctx context.Context, userID string) (*models.User, error)
	UpdateProfile(ctx context.Context, userID string, in services.ProfileInput) (*models.User, error)
	UpdateUsername(ctx context.Context, userID, username, urlFormat string) (*models.User, error)
	SetHeader(ctx context.Context, userID, header string) (string, error)
	ClearHeader(ctx context.Context, userID string) error
	UpdateSettings(ctx context.Context, userID string, in services.SettingsInput) (*models.User, error)
	GetTheme(ctx context.Context, userID string) (*models.Theme, error)
	BuiltinThemes() map[string]*models.Theme
	ApplyBuiltinTheme(ctx context.Context, userID, name string) (*models.Theme, error)
	ApplyCustomTheme(ctx context.Context, userID string, in services.CustomTheme) (*models.Theme, error)
	PublicProfile(ctx context.Context, username string) (*models.PublicProfile, error)
	RecordClick(ctx context.Context, username, linkID string) error
}

// Options configures the router.
type Options struct {
	CORSOrigins []string
	// UploadDir is served under UploadPrefix when set.
	UploadDir    string
	UploadPrefix string
}

type Handler struct {
	accounts  Accounts
	links     Links
	profiles  Profiles
	logger    logging.Logger
	jwtSecret []byte
}

func NewHandler(a Accounts, l Links, p Profiles, secretKey string, logger logging.Logger) *Handler {
	return &Handler{
		accounts:  a,
		links:     l,
		profiles:  p,
		logger:    logger.With("module", "http_handler"),
		jwtSecret: []byte(secretKey),
	}
}

// NewRouter builds the gin engine with every route of the API.
func NewRouter(h *Handler, opts Options) *gin.Engine {
	r := gin.New()
	r.MaxMultipartMemory = 8 << 20
	r.Use(gin.Recovery(), accessLog(h.logger), corsPolicy(opts.CORSOrigins))

	r.GET("/healthz", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	})
	if opts.UploadDir != "" && opts.UploadPrefix != "" {
		r.Static(opts.UploadPrefix, opts.UploadDir)
	}

	a := r.Group("/api/auth")
	a.POST("/validate-invite-token", h.ValidateInviteToken)
	a.POST("/check-token", h.ValidateInviteToken)
	a.POST("/send-otp", h.SendOTP)
	a.POST("/resend-otp", h.ResendOTP)
	a.POST("/verify-otp", h.VerifyOTP)
	a.POST("/complete-signup", h.CompleteSignup)
	a.POST("/check-username", h.CheckUsername)
	a.POST("/check-whatsapp", h.CheckWhatsApp)
	a.POST("/whatsapp/send-otp", h.WhatsAppSendOTP)
	a.POST("/whatsapp/verify-otp", h.WhatsAppVerifyOTP)
	a.POST("/whatsapp/resend-otp", h.WhatsAppResendOTP)
	a.POST("/login", h.Login)
	a.POST("/forgot-password/email", h.ForgotPasswordEmail)
	a.POST("/forgot-password/whatsapp", h.ForgotPasswordWhatsApp)
	a.POST("/verify-reset-otp", h.VerifyResetOTP)
	a.POST("/resend-reset-otp", h.ResendResetOTP)
	a.POST("/reset-password", h.ResetPassword)
	a.GET("/me", h.requireSession, h.Me)

	api := r.Group("/api", h.requireSession)
	api.GET("/links", h.ListLinks)
	api.POST("/links", h.AddLink)
	api.PUT("/links/reorder", h.ReorderLinks)
	api.PUT("/links/:id", h.EditLink)
	api.DELETE("/links/:id", h.DeleteLink)

	api.GET("/social-links", h.ListSocialLinks)
	api.POST("/social-links", h.AddSocialLink)
	api.PUT("/social-links/reorder", h.ReorderSocialLinks)
	api.PUT("/social-links/:id", h.EditSocialLink)
	api.DELETE("/social-links/:id", h.DeleteSocialLink)

	api.GET("/user", h.GetUser)
	api.PUT("/profile", h.UpdateProfile)
	api.PUT("/username", h.UpdateUsername)
	api.PUT("/settings", h.UpdateSettings)
	api.PUT("/header", h.SetHeader)
	api.DELETE("/header", h.ClearHeader)
	api.GET("/theme", h.GetTheme)
	api.GET("/themes/builtin", h.BuiltinThemes)
	api.POST("/theme/builtin", h.ApplyBuiltinTheme)
	api.POST("/theme/custom", h.ApplyCustomTheme)

	pub := r.Group("/api/public")
	pub.GET("/:username", h.PublicProfile)
	pub.POST("/:username/links/:id/click", h.RecordClick)

	return r
}
