package mail

import (
	"context"
	"crypto/rand"
	"fmt"
	"math/big"

	"go.uber.org/zap"

	"github.com/fastygo/taskhub/usecase"
)

// Deliverer is implemented by Processor.
type Deliverer interface {
	Deliver(ctx context.Context, to, subject, body string) error
}

// Notifier renders account mail and hands it to a Deliverer.
type Notifier struct {
	deliverer Deliverer
	logger    *zap.Logger
	otp       func() (string, error)
}

var _ usecase.Notifier = (*Notifier)(nil)

func NewNotifier(d Deliverer, logger *zap.Logger) *Notifier {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Notifier{deliverer: d, logger: logger, otp: fourDigitCode}
}

func (n *Notifier) SendOTP(ctx context.Context, email string) (string, error) {
	code, err := n.otp()
	if err != nil {
		return "", fmt.Errorf("generate otp: %w", err)
	}
	_ = n.Send(ctx, email, "Your OTP Code", fmt.Sprintf("Your OTP code is %s", code))
	return code, nil
}

func (n *Notifier) SendResetCode(ctx context.Context, email string) (string, error) {
	code, err := n.otp()
	if err != nil {
		return "", fmt.Errorf("generate reset code: %w", err)
	}
	_ = n.Send(ctx, email, "Password Reset Request", fmt.Sprintf("Hello, use this code to reset your password %s .", code))
	return code, nil
}

// Send never fails the caller; undeliverable mail is only logged.
func (n *Notifier) Send(ctx context.Context, email, subject, body string) error {
	if n.deliverer == nil {
		return nil
	}
	if err := n.deliverer.Deliver(ctx, email, subject, body); err != nil {
		n.logger.Error("mail delivery failed", zap.String("to", email), zap.String("subject", subject), zap.Error(err))
	}
	return nil
}

// fourDigitCode returns a code in [1000, 9999].
func fourDigitCode() (string, error) {
	n, err := rand.Int(rand.Reader, big.NewInt(9000))
	if err != nil {
		return "", err
	}
	return fmt.Sprintf("%d", n.Int64()+1000), nil
}
