package cache

import (
	"encoding/json"
	"time"

	"github.com/pkg/errors"
)

// Envelope is the persisted form of a cache entry.
// StoredAt is unix milliseconds, TTL is milliseconds.
type Envelope struct {
	Payload  json.RawMessage `json:"payload"`
	StoredAt int64           `json:"storedAt"`
	TTL      int64           `json:"ttl"`
}

// Expired reports whether now - storedAt > ttl.
func (e *Envelope) Expired(now time.Time) bool {
	return now.UnixMilli()-e.StoredAt > e.TTL
}

// ExpiresAt returns the first instant at which the entry is expired.
func (e *Envelope) ExpiresAt() time.Time {
	return time.UnixMilli(e.StoredAt + e.TTL + 1)
}

func encodeEnvelope(payload any, storedAt time.Time, ttl time.Duration) ([]byte, error) {
	raw, err := json.Marshal(payload)
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal payload")
	}
	data, err := json.Marshal(&Envelope{
		Payload:  raw,
		StoredAt: storedAt.UnixMilli(),
		TTL:      ttl.Milliseconds(),
	})
	if err != nil {
		return nil, errors.Wrap(err, "failed to marshal envelope")
	}
	return data, nil
}

func decodeEnvelope(data []byte) (*Envelope, error) {
	var env Envelope
	if err := json.Unmarshal(data, &env); err != nil {
		return nil, errors.Wrap(err, "failed to unmarshal envelope")
	}
	if len(env.Payload) == 0 {
		return nil, errors.New("envelope has no payload")
	}
	if env.TTL < 0 {
		return nil, errors.Errorf("envelope has negative ttl %d", env.TTL)
	}
	return &env, nil
}
