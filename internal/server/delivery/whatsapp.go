package delivery

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/dmitrijs2005/mymee/internal/netx"
)

var whatsAppTexts = map[Kind]string{
	KindVerification:  "Your Mymee.link verification code is: %s. Valid for 5 minutes.",
	KindPasswordReset: "Your Mymee.link password reset code is: %s. Valid for 10 minutes. If you didn't request this, please ignore.",
}

type whatsAppMessage struct {
	To   string `json:"to"`
	Body string `json:"body"`
}

// WhatsAppSender posts messages to an HTTP messaging gateway.
type WhatsAppSender struct {
	url    string
	token  string
	client *http.Client
}

func NewWhatsAppSender(url, token string) *WhatsAppSender {
	return &WhatsAppSender{
		url:    url,
		token:  token,
		client: &http.Client{Timeout: 10 * time.Second},
	}
}

func (s *WhatsAppSender) SendCode(ctx context.Context, to string, kind Kind, code string) error {
	text, ok := whatsAppTexts[kind]
	if !ok {
		return fmt.Errorf("unknown message kind %q", kind)
	}
	msg := whatsAppMessage{To: "whatsapp:" + to, Body: fmt.Sprintf(text, code)}
	if err := netx.PostJSON(ctx, s.client, s.url, s.token, msg); err != nil {
		return fmt.Errorf("whatsapp send to %s: %w", to, err)
	}
	return nil
}
