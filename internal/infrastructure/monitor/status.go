package monitor

import "time"

// Status is the last observed state of the backing services.
type Status struct {
	Database   bool      `json:"database"`
	Redis      bool      `json:"redis"`
	Outbox     bool      `json:"outbox"`
	OutboxSize int       `json:"outbox_size"`
	LastCheck  time.Time `json:"last_check"`
}

// Healthy reports whether requests can be served. A broken outbox only degrades mail retries.
func (s Status) Healthy() bool {
	return s.Database && s.Redis
}
