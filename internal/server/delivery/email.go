package delivery

import (
	"bytes"
	"context"
	"crypto/tls"
	"fmt"
	"html/template"
	"net"
	"net/smtp"
	"strconv"
	"time"
)

var emailSubjects = map[Kind]string{
	KindVerification:  "Mymee.link - Email Verification",
	KindPasswordReset: "Mymee.link - Password Reset Code",
}

var emailTemplate = template.Must(template.New("otp").Parse(`<div style="font-family: Arial, sans-serif; max-width: 600px; margin: 0 auto;">
  <h2 style="color: #333;">{{.Heading}}</h2>
  <p style="font-size: 16px;">{{.Lead}}</p>
  <div style="background: #f4f4f4; padding: 20px; text-align: center; font-size: 32px; font-weight: bold; letter-spacing: 5px; margin: 20px 0;">{{.Code}}</div>
  <p style="color: #666;">This code will expire in {{.Minutes}} minutes.</p>
  <p style="color: #999; font-size: 12px;">{{.Footer}}</p>
</div>`))

type emailView struct {
	Heading, Lead, Code, Footer string
	Minutes                     int
}

func renderEmail(kind Kind, code string) (string, error) {
	v := emailView{
		Heading: "Verify Your Email",
		Lead:    "Your verification code is:",
		Code:    code,
		Minutes: 5,
		Footer:  "If you didn't request this code, please ignore this email.",
	}
	if kind == KindPasswordReset {
		v.Heading = "Reset Your Password"
		v.Lead = "You requested to reset your password. Use the code below:"
		v.Minutes = 10
		v.Footer = "If you didn't request this, please ignore this email and your password will remain unchanged."
	}

	var buf bytes.Buffer
	if err := emailTemplate.Execute(&buf, v); err != nil {
		return "", err
	}
	return buf.String(), nil
}

func buildMessage(from, to, subject, body string) []byte {
	return []byte(
		fmt.Sprintf("From: %s\r\n", from) +
			fmt.Sprintf("To: %s\r\n", to) +
			fmt.Sprintf("Subject: %s\r\n", subject) +
			"MIME-Version: 1.0\r\n" +
			"Content-Type: text/html; charset=\"utf-8\"\r\n" +
			"\r\n" +
			body,
	)
}

type SMTPConfig struct {
	Host     string
	Port     int
	Username string
	Password string
	From     string
}

// EmailSender talks SMTP. Port 465 uses implicit TLS, other ports go
// through smtp.SendMail which upgrades with STARTTLS when offered.
type EmailSender struct {
	cfg  SMTPConfig
	send func(ctx context.Context, to string, msg []byte) error
}

func NewEmailSender(cfg SMTPConfig) *EmailSender {
	e := &EmailSender{cfg: cfg}
	e.send = e.sendSMTP
	return e
}

func (e *EmailSender) SendCode(ctx context.Context, to string, kind Kind, code string) error {
	subject, ok := emailSubjects[kind]
	if !ok {
		return fmt.Errorf("unknown message kind %q", kind)
	}
	body, err := renderEmail(kind, code)
	if err != nil {
		return fmt.Errorf("render email: %w", err)
	}
	if err := e.send(ctx, to, buildMessage(e.cfg.From, to, subject, body)); err != nil {
		return fmt.Errorf("smtp send to %s: %w", to, err)
	}
	return nil
}

func (e *EmailSender) sendSMTP(ctx context.Context, to string, msg []byte) error {
	addr := net.JoinHostPort(e.cfg.Host, strconv.Itoa(e.cfg.Port))

	var auth smtp.Auth
	if e.cfg.Username != "" {
		auth = smtp.PlainAuth("", e.cfg.Username, e.cfg.Password, e.cfg.Host)
	}

	if e.cfg.Port != 465 {
		return smtp.SendMail(addr, auth, e.cfg.From, []string{to}, msg)
	}

	dialer := &tls.Dialer{
		NetDialer: &net.Dialer{Timeout: 10 * time.Second},
		Config:    &tls.Config{ServerName: e.cfg.Host},
	}
	conn, err := dialer.DialContext(ctx, "tcp", addr)
	if err != nil {
		return err
	}
	defer conn.Close()

	client, err := smtp.NewClient(conn, e.cfg.Host)
	if err != nil {
		return err
	}
	defer client.Quit()

	if auth != nil {
		if err := client.Auth(auth); err != nil {
			return err
		}
	}
	if err := client.Mail(e.cfg.From); err != nil {
		return err
	}
	if err := client.Rcpt(to); err != nil {
		return err
	}

	w, err := client.Data()
	if err != nil {
		return err
	}
	if _, err := w.Write(msg); err != nil {
		return err
	}
	return w.Close()
}
