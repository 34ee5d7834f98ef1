package mail

import (
	"context"
	"errors"
	"net/smtp"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/fastygo/taskhub/internal/infrastructure/outbox"
)

type fakeSender struct {
	mu   sync.Mutex
	fail bool
	sent []outbox.Message
}

func (f *fakeSender) Send(_ context.Context, msg outbox.Message) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return errors.New("relay unavailable")
	}
	f.sent = append(f.sent, msg)
	return nil
}

func newProcessor(t *testing.T, sender Sender, retries int) *Processor {
	t.Helper()
	store, err := outbox.Open(filepath.Join(t.TempDir(), "outbox.db"), 0)
	require.NoError(t, err)
	t.Cleanup(func() { store.Close() })

	p, err := NewProcessor(store, sender, nil, ProcessorConfig{Interval: time.Minute, MaxRetries: retries})
	require.NoError(t, err)
	return p
}

func TestProcessor_DeliverImmediately(t *testing.T) {
	sender := &fakeSender{}
	p := newProcessor(t, sender, 3)

	require.NoError(t, p.Deliver(context.Background(), "ada@example.com", "Hi", "body"))
	assert.Len(t, sender.sent, 1)
	assert.Zero(t, p.Size())
}

func TestProcessor_QueuesAndRetries(t *testing.T) {
	sender := &fakeSender{fail: true}
	p := newProcessor(t, sender, 3)
	ctx := context.Background()

	require.NoError(t, p.Deliver(ctx, "ada@example.com", "Hi", "body"))
	assert.Equal(t, 1, p.Size())

	sender.fail = false
	require.NoError(t, p.Drain(ctx))
	assert.Zero(t, p.Size())
	require.Len(t, sender.sent, 1)
	assert.Equal(t, 1, sender.sent[0].Attempts)
}

func TestProcessor_DropsAfterMaxRetries(t *testing.T) {
	sender := &fakeSender{fail: true}
	p := newProcessor(t, sender, 3)
	ctx := context.Background()

	require.NoError(t, p.Deliver(ctx, "ada@example.com", "Hi", "body"))
	require.NoError(t, p.Drain(ctx))
	assert.Equal(t, 1, p.Size())
	require.NoError(t, p.Drain(ctx))
	assert.Zero(t, p.Size())
}

func TestProcessor_StartStop(t *testing.T) {
	p := newProcessor(t, &fakeSender{}, 3)
	p.Start()

	ctx, cancel := context.WithTimeout(context.Background(), time.Second)
	defer cancel()
	assert.NoError(t, p.Stop(ctx))
}

type recordingDeliverer struct {
	to, subject, body string
	err               error
}

func (r *recordingDeliverer) Deliver(_ context.Context, to, subject, body string) error {
	r.to, r.subject, r.body = to, subject, body
	return r.err
}

func TestNotifier_SendOTP(t *testing.T) {
	d := &recordingDeliverer{}
	n := NewNotifier(d, nil)

	code, err := n.SendOTP(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Len(t, code, 4)
	assert.Equal(t, "ada@example.com", d.to)
	assert.Equal(t, "Your OTP Code", d.subject)
	assert.Equal(t, "Your OTP code is "+code, d.body)
}

func TestNotifier_SendResetCode(t *testing.T) {
	d := &recordingDeliverer{}
	n := NewNotifier(d, nil)
	n.otp = func() (string, error) { return "4821", nil }

	code, err := n.SendResetCode(context.Background(), "ada@example.com")
	require.NoError(t, err)
	assert.Equal(t, "4821", code)
	assert.Equal(t, "Password Reset Request", d.subject)
	assert.Equal(t, "Hello, use this code to reset your password 4821 .", d.body)
}

func TestNotifier_DeliveryFailureIsAbsorbed(t *testing.T) {
	n := NewNotifier(&recordingDeliverer{err: errors.New("disk full")}, nil)

	_, err := n.SendOTP(context.Background(), "ada@example.com")
	assert.NoError(t, err)
	assert.NoError(t, n.Send(context.Background(), "ada@example.com", "s", "b"))
}

func TestFourDigitCode(t *testing.T) {
	for i := 0; i < 200; i++ {
		code, err := fourDigitCode()
		require.NoError(t, err)
		require.Len(t, code, 4)
		assert.NotEqual(t, byte('0'), code[0])
	}
}

func TestSMTPSender_RendersMessage(t *testing.T) {
	s := NewSMTPSender(SMTPConfig{Host: "smtp.example.com", Port: 2525, Username: "u", Password: "p", From: "no-reply@example.com"})
	var (
		gotAddr string
		gotTo   []string
		gotMsg  string
	)
	s.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotTo, gotMsg = addr, to, string(msg)
		assert.NotNil(t, a)
		assert.Equal(t, "no-reply@example.com", from)
		return nil
	}

	require.NoError(t, s.Send(context.Background(), outbox.Message{To: "ada@example.com", Subject: "Your OTP Code", Body: "Your OTP code is 1234"}))
	assert.Equal(t, "smtp.example.com:2525", gotAddr)
	assert.Equal(t, []string{"ada@example.com"}, gotTo)
	assert.True(t, strings.HasPrefix(gotMsg, "From: no-reply@example.com\r\n"))
	assert.Contains(t, gotMsg, "Subject: Your OTP Code\r\n")
	assert.True(t, strings.HasSuffix(gotMsg, "\r\n\r\nYour OTP code is 1234\r\n"))
}
