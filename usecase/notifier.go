package usecase

import "context"

// Notifier delivers account mail. Delivery failures are absorbed by the
// implementation so account flows never fail because mail is down.
type Notifier interface {
	// SendOTP mails a fresh one-time code to email and returns it.
	SendOTP(ctx context.Context, email string) (string, error)
	// SendResetCode mails a fresh password-reset code to email and returns it.
	SendResetCode(ctx context.Context, email string) (string, error)
	Send(ctx context.Context, email, subject, body string) error
}
