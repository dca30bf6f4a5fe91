// Package logging is the logger every component receives. Services log
// through the Logger interface; main wires the slog JSON implementation.
package logging

import "context"

// Logger takes a message plus alternating key/value pairs:
//
//	logger.Info(ctx, "otp sent", "channel", "email", "contact", contact)
type Logger interface {
	Debug(ctx context.Context, msg string, args ...any)
	Info(ctx context.Context, msg string, args ...any)
	// Warn is for failures the request survives, such as a view counter
	// that did not update.
	Warn(ctx context.Context, msg string, args ...any)
	Error(ctx context.Context, msg string, args ...any)

	// With binds pairs to every later entry, e.g. With("module", "http_server").
	With(args ...any) Logger
}
