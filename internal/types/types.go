package types

import (
	"fmt"
	"time"
)

// TimestampLayout is the text layout submission timestamps are persisted with.
const TimestampLayout = "2006-01-02 15:04:05.999999"

// Issue is one finding extracted from a scanner report. Its identity is its
// position in the parsed report.
type Issue struct {
	Description string `json:"description"`
	Severity    string `json:"severity"`
	Confidence  string `json:"confidence"`
	Location    string `json:"location"`
	CWE         string `json:"cwe,omitempty"`
	MoreInfo    string `json:"more_info,omitempty"`
}

// String renders the issue the way it is displayed next to its checkbox and
// handed to the model as a rewrite instruction.
func (i Issue) String() string {
	return fmt.Sprintf("Issue: %s\nSeverity: %s | Confidence: %s | Location: %s",
		i.Description, i.Severity, i.Confidence, i.Location)
}

// Submission is a persisted code submission. OutputCode is nil until the
// submission has been resolved.
type Submission struct {
	ID         int64     `json:"id"`
	UserID     int64     `json:"user_id"`
	Title      string    `json:"title"`
	Language   string    `json:"language"`
	InputCode  string    `json:"input_code"`
	OutputCode *string   `json:"output_code,omitempty"`
	CreatedAt  time.Time `json:"created_at"`
}

// Resolved reports whether the submission carries rewritten code.
func (s Submission) Resolved() bool {
	return s.OutputCode != nil
}

// User is an account owning submissions.
type User struct {
	ID           int64
	Username     string
	PasswordHash string
	CreatedAt    time.Time
}

// FormatTimestamp renders t in TimestampLayout.
func FormatTimestamp(t time.Time) string {
	return t.Format(TimestampLayout)
}

// ParseTimestamp parses a persisted timestamp. Fractional seconds are optional.
func ParseTimestamp(s string) (time.Time, error) {
	t, err := time.ParseInLocation(TimestampLayout, s, time.Local)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
