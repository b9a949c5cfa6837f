package chatapi

import (
	"bytes"
	"encoding/json"
	"errors"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// ErrEmptyReply is returned when a 2xx response carries no reply text.
var ErrEmptyReply = errors.New("chat service returned an empty response")

// StatusError reports a non-2xx response.
type StatusError struct {
	StatusCode int
	Body       string
}

func (e *StatusError) Error() string {
	body := strings.TrimSpace(e.Body)
	if len(body) > 200 {
		body = body[:200] + "..."
	}
	if body == "" {
		return fmt.Sprintf("chat service returned status %d", e.StatusCode)
	}
	return fmt.Sprintf("chat service returned status %d: %s", e.StatusCode, body)
}

// ChatRequest is the body of POST /chat. SessionID is nil on the first
// exchange so it encodes as JSON null.
type ChatRequest struct {
	Message   string  `json:"message"`
	SessionID *string `json:"session_id"`
}

type ChatResponse struct {
	Response  string    `json:"response"`
	SessionID string    `json:"session_id"`
	Timestamp Timestamp `json:"timestamp"`
}

// HealthResponse is the body of GET /health.
type HealthResponse struct {
	Status    string    `json:"status"`
	Timestamp Timestamp `json:"timestamp"`
}

// Timestamp accepts the service's timestamp as an ISO-8601 string (with or
// without zone; a missing zone means UTC) or as epoch seconds or
// milliseconds, given either as a number or a numeric string. Anything else
// decodes to the zero time.
type Timestamp struct {
	time.Time
}

// Values above this are epoch milliseconds; as seconds they would be past
// the year 33000.
const epochMillisThreshold = 1e12

var isoLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05.999999999",
	"2006-01-02 15:04:05.999999999Z07:00",
	"2006-01-02 15:04:05.999999999",
	"2006-01-02",
}

func (t *Timestamp) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	t.Time = time.Time{}

	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return nil
		}
		t.Time = parseTimestamp(s)
		return nil
	}

	t.Time = parseEpoch(string(data))
	return nil
}

func parseTimestamp(s string) time.Time {
	s = strings.TrimSpace(s)
	if s == "" {
		return time.Time{}
	}

	if epoch := parseEpoch(s); !epoch.IsZero() {
		return epoch
	}

	for _, layout := range isoLayouts {
		if parsed, err := time.Parse(layout, s); err == nil {
			return parsed
		}
	}
	return time.Time{}
}

func parseEpoch(s string) time.Time {
	v, err := strconv.ParseFloat(s, 64)
	if err != nil || v <= 0 {
		return time.Time{}
	}

	if v > epochMillisThreshold {
		return time.UnixMilli(int64(v)).UTC()
	}

	sec := int64(v)
	nsec := int64((v - float64(sec)) * float64(time.Second))
	return time.Unix(sec, nsec).UTC()
}
