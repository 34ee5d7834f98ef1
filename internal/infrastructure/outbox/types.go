package outbox

import (
	"time"

	"github.com/google/uuid"
)

// Message is an e-mail waiting for a successful SMTP delivery.
type Message struct {
	ID        string    `json:"id"`
	To        string    `json:"to"`
	Subject   string    `json:"subject"`
	Body      string    `json:"body"`
	Attempts  int       `json:"attempts"`
	LastError string    `json:"last_error,omitempty"`
	Timestamp time.Time `json:"timestamp"`

	bucketKey []byte
}

func (m *Message) normalize() {
	if m.ID == "" {
		m.ID = uuid.NewString()
	}
	if m.Timestamp.IsZero() {
		m.Timestamp = time.Now()
	}
}
