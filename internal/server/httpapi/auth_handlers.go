package httpapi

import (
	"errors"
	"net/http"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/services"
	"github.com/gin-gonic/gin"
)

const neutralResetMessage = "If an account exists, a reset code has been sent"

// userView is the account summary returned by the auth routes.
type userView struct {
	ID           string  `json:"id"`
	Name         string  `json:"name"`
	Username     string  `json:"username"`
	Email        *string `json:"email,omitempty"`
	Phone        *string `json:"whatsapp,omitempty"`
	ProfileImage string  `json:"profileImage"`
	Bio          string  `json:"bio"`
}

func newUserView(u *models.User) userView {
	return userView{
		ID:           u.ID,
		Name:         u.Name,
		Username:     u.Username,
		Email:        u.Email,
		Phone:        u.Phone,
		ProfileImage: u.ProfileImage,
		Bio:          u.Bio,
	}
}

func authResponse(message string, res *services.AuthResult) gin.H {
	return gin.H{"message": message, "token": res.Token, "user": newUserView(res.User)}
}

func otpResponse(message string, r *services.OTPReceipt) gin.H {
	out := gin.H{"message": message}
	if r != nil && r.DevCode != "" {
		out["devOtp"] = r.DevCode
	}
	return out
}

// bind decodes the JSON body and answers 400 on failure.
func (h *Handler) bind(c *gin.Context, dst any) bool {
	if err := c.ShouldBindJSON(dst); err != nil {
		h.badRequest(c, "invalid request body")
		return false
	}
	return true
}

// tokenRequest accepts the invite code as "token" or "code".
type tokenRequest struct {
	Token string `json:"token"`
	Code  string `json:"code"`
}

func (r tokenRequest) value() string {
	if r.Token != "" {
		return r.Token
	}
	return r.Code
}

func (h *Handler) ValidateInviteToken(c *gin.Context) {
	var req tokenRequest
	if !h.bind(c, &req) {
		return
	}

	ok, err := h.accounts.ValidateInviteToken(c.Request.Context(), req.value())
	if err != nil {
		if errors.Is(err, common.ErrorInvalidInput) {
			_, msg := errorResponse(err)
			c.JSON(http.StatusBadRequest, gin.H{"isValid": false, "valid": false, "message": msg})
			return
		}
		h.fail(c, err)
		return
	}

	msg := "Token is valid"
	if !ok {
		msg = "Invalid or already used token"
	}
	c.JSON(http.StatusOK, gin.H{"isValid": ok, "valid": ok, "message": msg})
}

type emailOTPRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	SignupToken string `json:"signupToken"`
}

func (h *Handler) SendOTP(c *gin.Context) {
	var req emailOTPRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.accounts.SendSignupOTP(c.Request.Context(), services.SignupOTPRequest{
		Channel:     models.ChannelEmail,
		Contact:     req.Email,
		InviteToken: req.SignupToken,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpResponse("OTP sent to your email", r))
}

func (h *Handler) ResendOTP(c *gin.Context) {
	var req emailOTPRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.accounts.ResendSignupOTP(c.Request.Context(), models.ChannelEmail, req.Email)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpResponse("OTP resent to your email", r))
}

func (h *Handler) VerifyOTP(c *gin.Context) {
	var req emailOTPRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.accounts.VerifySignupOTP(c.Request.Context(), models.ChannelEmail, req.Email, req.OTP); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified successfully"})
}

type completeSignupRequest struct {
	Email       string `json:"email"`
	OTP         string `json:"otp"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	SignupToken string `json:"signupToken"`
}

func (h *Handler) CompleteSignup(c *gin.Context) {
	var req completeSignupRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.accounts.CompleteSignup(c.Request.Context(), services.CompleteSignupRequest{
		Contact:     req.Email,
		Code:        req.OTP,
		Username:    req.Username,
		Password:    req.Password,
		InviteToken: req.SignupToken,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse("Account created successfully", res))
}

type availabilityRequest struct {
	Username string `json:"username"`
	WhatsApp string `json:"whatsapp"`
}

func (h *Handler) CheckUsername(c *gin.Context) {
	var req availabilityRequest
	if !h.bind(c, &req) {
		return
	}
	free, err := h.accounts.CheckUsername(c.Request.Context(), req.Username)
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := "Username is available"
	if !free {
		msg = "Username already taken"
	}
	c.JSON(http.StatusOK, gin.H{"available": free, "message": msg})
}

func (h *Handler) CheckWhatsApp(c *gin.Context) {
	var req availabilityRequest
	if !h.bind(c, &req) {
		return
	}
	free, err := h.accounts.CheckContact(c.Request.Context(), models.ChannelWhatsApp, req.WhatsApp)
	if err != nil {
		h.fail(c, err)
		return
	}
	msg := "WhatsApp number is available"
	if !free {
		msg = "WhatsApp number already registered"
	}
	c.JSON(http.StatusOK, gin.H{"available": free, "message": msg})
}

type whatsAppOTPRequest struct {
	WhatsApp    string `json:"whatsapp"`
	OTP         string `json:"otp"`
	Username    string `json:"username"`
	Password    string `json:"password"`
	SignupToken string `json:"signupToken"`
}

func (h *Handler) WhatsAppSendOTP(c *gin.Context) {
	var req whatsAppOTPRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.accounts.SendSignupOTP(c.Request.Context(), services.SignupOTPRequest{
		Channel:     models.ChannelWhatsApp,
		Contact:     req.WhatsApp,
		InviteToken: req.SignupToken,
		Username:    req.Username,
		Password:    req.Password,
	})
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpResponse("OTP sent to your WhatsApp", r))
}

func (h *Handler) WhatsAppVerifyOTP(c *gin.Context) {
	var req whatsAppOTPRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.accounts.VerifyWhatsAppSignup(c.Request.Context(), req.WhatsApp, req.OTP, req.SignupToken)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusCreated, authResponse("Account created successfully", res))
}

func (h *Handler) WhatsAppResendOTP(c *gin.Context) {
	var req whatsAppOTPRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.accounts.ResendSignupOTP(c.Request.Context(), models.ChannelWhatsApp, req.WhatsApp)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpResponse("OTP resent to your WhatsApp", r))
}

type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

func (h *Handler) Login(c *gin.Context) {
	var req loginRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.accounts.Login(c.Request.Context(), req.Username, req.Password)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse("Login successful", res))
}

type resetRequest struct {
	Email       string `json:"email"`
	WhatsApp    string `json:"whatsapp"`
	Identifier  string `json:"identifier"`
	Type        string `json:"type"`
	OTP         string `json:"otp"`
	NewPassword string `json:"newPassword"`
}

func (h *Handler) forgotPassword(c *gin.Context, ch models.Channel, contact func(resetRequest) string) {
	var req resetRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.accounts.ForgotPassword(c.Request.Context(), ch, contact(req))
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpResponse(neutralResetMessage, r))
}

func (h *Handler) ForgotPasswordEmail(c *gin.Context) {
	h.forgotPassword(c, models.ChannelEmail, func(r resetRequest) string { return r.Email })
}

func (h *Handler) ForgotPasswordWhatsApp(c *gin.Context) {
	h.forgotPassword(c, models.ChannelWhatsApp, func(r resetRequest) string { return r.WhatsApp })
}

func (h *Handler) VerifyResetOTP(c *gin.Context) {
	var req resetRequest
	if !h.bind(c, &req) {
		return
	}
	if err := h.accounts.VerifyResetOTP(c.Request.Context(), req.Identifier, req.OTP); err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"message": "OTP verified. You can now reset your password"})
}

// ResendResetOTP accepts the channel in "type" for compatibility; the
// identifier alone decides where the code goes.
func (h *Handler) ResendResetOTP(c *gin.Context) {
	var req resetRequest
	if !h.bind(c, &req) {
		return
	}
	r, err := h.accounts.ResendResetOTP(c.Request.Context(), req.Identifier)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, otpResponse("Reset code resent", r))
}

func (h *Handler) ResetPassword(c *gin.Context) {
	var req resetRequest
	if !h.bind(c, &req) {
		return
	}
	res, err := h.accounts.ResetPassword(c.Request.Context(), req.Identifier, req.OTP, req.NewPassword)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, authResponse("Password reset successfully", res))
}

func (h *Handler) Me(c *gin.Context) {
	u, err := h.accounts.Me(c.Request.Context(), session(c).UserID)
	if err != nil {
		h.fail(c, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"user": newUserView(u)})
}
