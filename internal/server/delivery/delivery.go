// Package delivery dispatches one-time codes to users over email or
// WhatsApp.
package delivery

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mymee/internal/logging"
	"github.com/dmitrijs2005/mymee/internal/server/models"
)

// Kind selects the message template.
type Kind string

const (
	KindVerification  Kind = "verification"
	KindPasswordReset Kind = "password_reset"
)

// Sender delivers code to the contact address to.
type Sender interface {
	SendCode(ctx context.Context, to string, kind Kind, code string) error
}

// Senders routes by channel.
type Senders map[models.Channel]Sender

func (s Senders) For(ch models.Channel) (Sender, error) {
	sender, ok := s[ch]
	if !ok || sender == nil {
		return nil, fmt.Errorf("no sender for channel %q", ch)
	}
	return sender, nil
}

// LogSender writes codes to the log instead of sending them. Used in
// development when no provider is configured.
type LogSender struct {
	channel models.Channel
	logger  logging.Logger
}

func NewLogSender(ch models.Channel, logger logging.Logger) *LogSender {
	return &LogSender{channel: ch, logger: logger.With("module", "delivery", "channel", string(ch))}
}

func (s *LogSender) SendCode(ctx context.Context, to string, kind Kind, code string) error {
	s.logger.Info(ctx, "otp dispatched to log", "to", to, "kind", string(kind), "code", code)
	return nil
}
