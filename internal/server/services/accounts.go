package services

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/dmitrijs2005/mymee/internal/common"
	"github.com/dmitrijs2005/mymee/internal/cryptox"
	"github.com/dmitrijs2005/mymee/internal/dbx"
	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/auth"
	"github.com/dmitrijs2005/mymee/internal/server/config"
	"github.com/dmitrijs2005/mymee/internal/server/delivery"
	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/otp"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/repomanager"
)

// AuthResult is returned by every operation that signs the user in.
type AuthResult struct {
	Token string
	User  *models.User
}

// OTPReceipt confirms a dispatched code. DevCode is filled only in
// development mode.
type OTPReceipt struct {
	DevCode string
}

// SignupOTPRequest starts a signup. Username and Password are used by the
// WhatsApp flow, where the account is created right after verification.
type SignupOTPRequest struct {
	Channel     models.Channel
	Contact     string
	InviteToken string
	Username    string
	Password    string
}

// CompleteSignupRequest finishes an email signup.
type CompleteSignupRequest struct {
	Contact     string
	Code        string
	Username    string
	Password    string
	InviteToken string
}

// AccountService drives invite validation, OTP signup, login and password
// reset.
type AccountService struct {
	db              *sql.DB
	repomanager     repomanager.RepositoryManager
	otps            *otp.Store
	senders         delivery.Senders
	logger          logging.Logger
	jwtSecret       []byte
	sessionValidity time.Duration
	devMode         bool
	hashCost        int
	now             func() time.Time

	dummyOnce sync.Once
	dummyHash string
}

func NewAccountService(db *sql.DB, m repomanager.RepositoryManager, otps *otp.Store, senders delivery.Senders,
	cfg *config.Config, logger logging.Logger) *AccountService {
	return &AccountService{
		db:              db,
		repomanager:     m,
		otps:            otps,
		senders:         senders,
		logger:          logger.With("module", "account_service"),
		jwtSecret:       []byte(cfg.SecretKey),
		sessionValidity: cfg.SessionTokenValidityDuration,
		devMode:         cfg.DevMode,
		hashCost:        cryptox.DefaultCost,
		now:             time.Now,
	}
}

// ValidateInviteToken reports whether code names an existing unused token.
func (s *AccountService) ValidateInviteToken(ctx context.Context, code string) (bool, error) {
	code, err := models.ParseInviteCode(code)
	if err != nil {
		return false, err
	}
	token, err := s.repomanager.InviteTokens(s.db).Find(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return false, nil
		}
		return false, fmt.Errorf("error searching invite token: %w", err)
	}
	return !token.IsUsed, nil
}

// CheckUsername reports whether username is free.
func (s *AccountService) CheckUsername(ctx context.Context, username string) (bool, error) {
	u, err := models.ParseUsername(username)
	if err != nil {
		return false, err
	}
	taken, err := s.repomanager.Users(s.db).UsernameTaken(ctx, u.String(), "")
	if err != nil {
		return false, err
	}
	return !taken, nil
}

// CheckContact reports whether no account uses the contact yet.
func (s *AccountService) CheckContact(ctx context.Context, ch models.Channel, contact string) (bool, error) {
	contact, err := models.ParseContact(ch, contact)
	if err != nil {
		return false, err
	}
	_, err = s.findByContact(ctx, ch, contact)
	switch {
	case err == nil:
		return false, nil
	case errors.Is(err, common.ErrorNotFound):
		return true, nil
	default:
		return false, err
	}
}

func (s *AccountService) findByContact(ctx context.Context, ch models.Channel, contact string) (*models.User, error) {
	repo := s.repomanager.Users(s.db)
	if ch == models.ChannelWhatsApp {
		return repo.GetByPhone(ctx, contact)
	}
	return repo.GetByEmail(ctx, contact)
}

func (s *AccountService) ensureContactFree(ctx context.Context, ch models.Channel, contact string) error {
	_, err := s.findByContact(ctx, ch, contact)
	switch {
	case err == nil:
		return fmt.Errorf("%w: account already exists", common.ErrorConflict)
	case errors.Is(err, common.ErrorNotFound):
		return nil
	default:
		return err
	}
}

func (s *AccountService) ensureUsernameFree(ctx context.Context, username string) error {
	taken, err := s.repomanager.Users(s.db).UsernameTaken(ctx, username, "")
	if err != nil {
		return err
	}
	if taken {
		return fmt.Errorf("%w: username already taken", common.ErrorConflict)
	}
	return nil
}

// ensureTokenUnused is the fast-path check. Consume inside the signup
// transaction is what actually guards the token.
func (s *AccountService) ensureTokenUnused(ctx context.Context, code string) error {
	token, err := s.repomanager.InviteTokens(s.db).Find(ctx, code)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return fmt.Errorf("%w: invalid invite token", common.ErrorInvalidInput)
		}
		return fmt.Errorf("error searching invite token: %w", err)
	}
	if token.IsUsed {
		return fmt.Errorf("%w: invite token already used", common.ErrorConflict)
	}
	return nil
}

// SendSignupOTP opens a signup challenge for the contact and sends the code.
func (s *AccountService) SendSignupOTP(ctx context.Context, req SignupOTPRequest) (*OTPReceipt, error) {
	contact, err := models.ParseContact(req.Channel, req.Contact)
	if err != nil {
		return nil, err
	}
	code, err := models.ParseInviteCode(req.InviteToken)
	if err != nil {
		return nil, err
	}

	c := &otp.Challenge{
		Purpose:     otp.PurposeSignup,
		Contact:     contact,
		Channel:     req.Channel,
		InviteToken: code,
	}

	if req.Channel == models.ChannelWhatsApp {
		username, err := models.ParseUsername(req.Username)
		if err != nil {
			return nil, err
		}
		if err := models.ValidatePassword(req.Password); err != nil {
			return nil, err
		}
		if err := s.ensureUsernameFree(ctx, username.String()); err != nil {
			return nil, err
		}
		hash, err := cryptox.HashPasswordWithCost(req.Password, s.hashCost)
		if err != nil {
			return nil, common.ErrorInternal
		}
		c.PendingUsername = username.String()
		c.PendingPasswordHash = hash
	}

	if err := s.ensureTokenUnused(ctx, code); err != nil {
		return nil, err
	}
	if err := s.ensureContactFree(ctx, req.Channel, contact); err != nil {
		return nil, err
	}

	return s.dispatch(ctx, c, true)
}

// ResendSignupOTP renews the code of an existing signup challenge, expired
// or not.
func (s *AccountService) ResendSignupOTP(ctx context.Context, ch models.Channel, contact string) (*OTPReceipt, error) {
	contact, err := models.ParseContact(ch, contact)
	if err != nil {
		return nil, err
	}
	c, err := s.loadChallenge(ctx, otp.PurposeSignup, contact)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, c, false)
}

// VerifySignupOTP checks the code without consuming the challenge.
func (s *AccountService) VerifySignupOTP(ctx context.Context, ch models.Channel, contact, code string) error {
	contact, err := models.ParseContact(ch, contact)
	if err != nil {
		return err
	}
	_, err = s.verify(ctx, otp.PurposeSignup, contact, code)
	return err
}

// CompleteSignup creates an email account. Account creation and invite
// consumption commit together or not at all.
func (s *AccountService) CompleteSignup(ctx context.Context, req CompleteSignupRequest) (*AuthResult, error) {
	if req.Contact == "" || req.Code == "" || req.Username == "" || req.Password == "" || req.InviteToken == "" {
		return nil, fmt.Errorf("%w: all fields are required", common.ErrorInvalidInput)
	}
	email, err := models.ParseEmail(req.Contact)
	if err != nil {
		return nil, err
	}

	c, err := s.verify(ctx, otp.PurposeSignup, email, req.Code)
	if err != nil {
		return nil, err
	}
	token, err := s.boundToken(c, req.InviteToken)
	if err != nil {
		return nil, err
	}

	username, err := models.ParseUsername(req.Username)
	if err != nil {
		return nil, err
	}
	if err := models.ValidatePassword(req.Password); err != nil {
		return nil, err
	}
	hash, err := cryptox.HashPasswordWithCost(req.Password, s.hashCost)
	if err != nil {
		return nil, common.ErrorInternal
	}

	user := &models.User{
		Username:     username.String(),
		Name:         models.NormalizeTitle(username.String(), models.MaxNameLength),
		Email:        &email,
		PasswordHash: hash,
		IsVerified:   true,
	}
	return s.finishSignup(ctx, c, token, user)
}

// VerifyWhatsAppSignup checks the code and creates the account from the
// fields stored when the code was sent.
func (s *AccountService) VerifyWhatsAppSignup(ctx context.Context, phone, code, inviteToken string) (*AuthResult, error) {
	if phone == "" || code == "" || inviteToken == "" {
		return nil, fmt.Errorf("%w: whatsapp number, otp and token are required", common.ErrorInvalidInput)
	}
	phone, err := models.ParsePhone(phone)
	if err != nil {
		return nil, err
	}

	c, err := s.verify(ctx, otp.PurposeSignup, phone, code)
	if err != nil {
		return nil, err
	}
	token, err := s.boundToken(c, inviteToken)
	if err != nil {
		return nil, err
	}
	if c.PendingUsername == "" || c.PendingPasswordHash == "" {
		return nil, fmt.Errorf("%w: signup data missing, restart signup", common.ErrorInvalidInput)
	}

	user := &models.User{
		Username:     c.PendingUsername,
		Name:         models.NormalizeTitle(c.PendingUsername, models.MaxNameLength),
		Phone:        &phone,
		PasswordHash: c.PendingPasswordHash,
		IsVerified:   true,
	}
	return s.finishSignup(ctx, c, token, user)
}

func (s *AccountService) boundToken(c *otp.Challenge, supplied string) (string, error) {
	token, err := models.ParseInviteCode(supplied)
	if err != nil {
		return "", err
	}
	if c.InviteToken != token {
		return "", fmt.Errorf("%w: token mismatch, restart signup", common.ErrorInvalidInput)
	}
	return token, nil
}

func (s *AccountService) finishSignup(ctx context.Context, c *otp.Challenge, token string, user *models.User) (*AuthResult, error) {
	if err := s.ensureTokenUnused(ctx, token); err != nil {
		return nil, err
	}
	if err := s.ensureUsernameFree(ctx, user.Username); err != nil {
		return nil, err
	}
	if err := s.ensureContactFree(ctx, c.Channel, c.Contact); err != nil {
		return nil, err
	}

	var created *models.User
	err := dbx.WithTx(ctx, s.db, nil, func(ctx context.Context, tx dbx.DBTX) error {
		u, err := s.repomanager.Users(tx).Create(ctx, user)
		if err != nil {
			return err
		}
		if err := s.repomanager.InviteTokens(tx).Consume(ctx, token, u.ID, s.now()); err != nil {
			return err
		}
		created = u
		return nil
	})
	if err != nil {
		return nil, err
	}

	s.dropChallenge(ctx, c.Purpose, c.Contact)
	s.logger.Info(ctx, "account created", "user_id", created.ID, "channel", string(c.Channel))

	return s.signIn(created)
}

// Login answers with the same error for an unknown username and a wrong
// password.
func (s *AccountService) Login(ctx context.Context, username, password string) (*AuthResult, error) {
	username = strings.TrimSpace(username)
	if username == "" || password == "" {
		return nil, fmt.Errorf("%w: username and password are required", common.ErrorInvalidInput)
	}

	user, err := s.repomanager.Users(s.db).GetByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			cryptox.CheckPassword(s.dummyPasswordHash(), password)
			return nil, common.ErrInvalidCredentials
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	if !cryptox.CheckPassword(user.PasswordHash, password) {
		return nil, common.ErrInvalidCredentials
	}

	now := s.now()
	if err := s.repomanager.Users(s.db).TouchLastLogin(ctx, user.ID, now); err != nil {
		s.logger.Warn(ctx, "failed to record last login", "user_id", user.ID, "error", err)
	} else {
		user.LastLogin = &now
	}

	return s.signIn(user)
}

// dummyPasswordHash keeps the unknown-user path as slow as a real compare.
func (s *AccountService) dummyPasswordHash() string {
	s.dummyOnce.Do(func() {
		s.dummyHash, _ = cryptox.HashPasswordWithCost("mymee-dummy-password", s.hashCost)
	})
	return s.dummyHash
}

// ForgotPassword sends a reset code when the contact belongs to an
// account. An unknown contact gets the same empty receipt and no
// challenge is created.
func (s *AccountService) ForgotPassword(ctx context.Context, ch models.Channel, contact string) (*OTPReceipt, error) {
	contact, err := models.ParseContact(ch, contact)
	if err != nil {
		return nil, err
	}

	user, err := s.findByContact(ctx, ch, contact)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			s.logger.Debug(ctx, "password reset for unknown contact", "channel", string(ch))
			return &OTPReceipt{}, nil
		}
		return nil, err
	}

	c := &otp.Challenge{
		Purpose: otp.PurposeReset,
		Contact: contact,
		Channel: ch,
		UserID:  user.ID,
	}
	return s.dispatch(ctx, c, true)
}

// ResendResetOTP renews the code of an existing reset challenge.
func (s *AccountService) ResendResetOTP(ctx context.Context, identifier string) (*OTPReceipt, error) {
	contact, _, err := parseIdentifier(identifier)
	if err != nil {
		return nil, err
	}
	c, err := s.loadChallenge(ctx, otp.PurposeReset, contact)
	if err != nil {
		return nil, err
	}
	return s.dispatch(ctx, c, false)
}

// VerifyResetOTP marks the reset challenge as verified and keeps it.
func (s *AccountService) VerifyResetOTP(ctx context.Context, identifier, code string) error {
	contact, _, err := parseIdentifier(identifier)
	if err != nil {
		return err
	}
	c, err := s.verify(ctx, otp.PurposeReset, contact, code)
	if err != nil {
		return err
	}
	c.Verified = true
	if err := s.otps.Save(ctx, c); err != nil {
		return fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return nil
}

// ResetPassword replaces the password of the account bound to a verified
// reset challenge.
func (s *AccountService) ResetPassword(ctx context.Context, identifier, code, newPassword string) (*AuthResult, error) {
	if identifier == "" || code == "" || newPassword == "" {
		return nil, fmt.Errorf("%w: all fields are required", common.ErrorInvalidInput)
	}
	if err := models.ValidatePassword(newPassword); err != nil {
		return nil, err
	}
	contact, _, err := parseIdentifier(identifier)
	if err != nil {
		return nil, err
	}

	c, err := s.loadChallenge(ctx, otp.PurposeReset, contact)
	if err != nil {
		return nil, err
	}
	if !c.Verified {
		return nil, fmt.Errorf("%w: reset code not verified", common.ErrorInvalidInput)
	}
	if err := s.check(ctx, c, code); err != nil {
		return nil, err
	}

	repo := s.repomanager.Users(s.db)
	user, err := repo.GetByID(ctx, c.UserID)
	if err != nil {
		return nil, err
	}
	hash, err := cryptox.HashPasswordWithCost(newPassword, s.hashCost)
	if err != nil {
		return nil, common.ErrorInternal
	}
	if err := repo.UpdatePassword(ctx, user.ID, hash); err != nil {
		return nil, err
	}
	user.PasswordHash = hash

	s.dropChallenge(ctx, c.Purpose, c.Contact)
	s.logger.Info(ctx, "password reset", "user_id", user.ID)

	return s.signIn(user)
}

// Me returns the account behind a session.
func (s *AccountService) Me(ctx context.Context, userID string) (*models.User, error) {
	return s.repomanager.Users(s.db).GetByID(ctx, userID)
}

// --- helpers below ---

func parseIdentifier(s string) (string, models.Channel, error) {
	if strings.Contains(s, "@") {
		v, err := models.ParseEmail(s)
		return v, models.ChannelEmail, err
	}
	v, err := models.ParsePhone(s)
	return v, models.ChannelWhatsApp, err
}

func (s *AccountService) loadChallenge(ctx context.Context, p otp.Purpose, contact string) (*otp.Challenge, error) {
	c, err := s.otps.Load(ctx, p, contact)
	if err != nil {
		if errors.Is(err, common.ErrorNotFound) {
			return nil, fmt.Errorf("%w: no pending otp for this contact", common.ErrorNotFound)
		}
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}
	return c, nil
}

// check drops an expired challenge before reporting it.
func (s *AccountService) check(ctx context.Context, c *otp.Challenge, code string) error {
	err := c.Check(s.now(), code)
	if errors.Is(err, common.ErrorExpired) {
		s.dropChallenge(ctx, c.Purpose, c.Contact)
	}
	return err
}

func (s *AccountService) verify(ctx context.Context, p otp.Purpose, contact, code string) (*otp.Challenge, error) {
	if code == "" {
		return nil, fmt.Errorf("%w: otp is required", common.ErrorInvalidInput)
	}
	c, err := s.loadChallenge(ctx, p, contact)
	if err != nil {
		return nil, err
	}
	if err := s.check(ctx, c, code); err != nil {
		return nil, err
	}
	return c, nil
}

// dispatch sets a fresh code on c, stores it and sends it. A fresh
// challenge that could not be delivered is removed again.
func (s *AccountService) dispatch(ctx context.Context, c *otp.Challenge, fresh bool) (*OTPReceipt, error) {
	code, err := otp.GenerateCode()
	if err != nil {
		return nil, common.ErrorInternal
	}
	c.Renew(code, s.now())

	if err := s.otps.Save(ctx, c); err != nil {
		return nil, fmt.Errorf("%w: %v", common.ErrorInternal, err)
	}

	kind := delivery.KindVerification
	if c.Purpose == otp.PurposeReset {
		kind = delivery.KindPasswordReset
	}

	sender, err := s.senders.For(c.Channel)
	if err == nil {
		err = sender.SendCode(ctx, c.Contact, kind, code)
	}
	if err != nil {
		s.logger.Error(ctx, "otp dispatch failed", "channel", string(c.Channel), "purpose", string(c.Purpose), "error", err)
		if fresh {
			s.dropChallenge(ctx, c.Purpose, c.Contact)
		}
		return nil, fmt.Errorf("%w: failed to send code, please try again", common.ErrorDeliveryFailure)
	}

	r := &OTPReceipt{}
	if s.devMode {
		r.DevCode = code
	}
	return r, nil
}

func (s *AccountService) dropChallenge(ctx context.Context, p otp.Purpose, contact string) {
	if err := s.otps.Delete(ctx, p, contact); err != nil {
		s.logger.Warn(ctx, "failed to delete otp challenge", "purpose", string(p), "error", err)
	}
}

func (s *AccountService) signIn(user *models.User) (*AuthResult, error) {
	token, err := auth.GenerateToken(user.ID, user.Username, s.jwtSecret, s.sessionValidity)
	if err != nil {
		return nil, common.ErrorInternal
	}
	return &AuthResult{Token: token, User: user}, nil
}
