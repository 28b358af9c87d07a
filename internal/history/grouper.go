// Package history filters past submissions and groups them into relative
// time buckets for display.
package history

import (
	"strings"
	"time"

	"github.com/agusespa/securecode/internal/types"
)

const (
	LabelToday          = "Today"
	LabelYesterday      = "Yesterday"
	LabelPrevious7Days  = "Previous 7 Days"
	LabelPrevious30Days = "Previous 30 Days"
	LabelOlder          = "Older"
)

// Labels lists the bucket labels in display order.
var Labels = []string{LabelToday, LabelYesterday, LabelPrevious7Days, LabelPrevious30Days, LabelOlder}

// Filter narrows the submissions shown. Zero values disable each condition.
type Filter struct {
	Search string
	Start  *time.Time
	End    *time.Time
}

// Bucket holds the submissions falling into one relative time window.
type Bucket struct {
	Label       string
	Submissions []types.Submission
}

// Group filters subs and partitions the survivors into buckets relative to
// now's calendar date. Input order is kept inside each bucket and empty
// buckets are left out.
func Group(subs []types.Submission, f Filter, now time.Time) []Bucket {
	loc := now.Location()
	today := dateOf(now, loc)
	yesterday := today.AddDate(0, 0, -1)
	last7Days := today.AddDate(0, 0, -7)
	last30Days := today.AddDate(0, 0, -30)

	grouped := make(map[string][]types.Submission, len(Labels))

	for _, sub := range subs {
		if !f.Matches(sub, loc) {
			continue
		}

		day := dateOf(sub.CreatedAt, loc)

		var label string
		switch {
		case day.Equal(today):
			label = LabelToday
		case day.Equal(yesterday):
			label = LabelYesterday
		case !day.Before(last7Days) && day.Before(today):
			label = LabelPrevious7Days
		case !day.Before(last30Days) && day.Before(last7Days):
			label = LabelPrevious30Days
		default:
			label = LabelOlder
		}
		grouped[label] = append(grouped[label], sub)
	}

	buckets := []Bucket{}
	for _, label := range Labels {
		if subs := grouped[label]; len(subs) > 0 {
			buckets = append(buckets, Bucket{Label: label, Submissions: subs})
		}
	}
	return buckets
}

// Matches reports whether sub passes the text and date conditions. The
// submission's calendar date is taken in loc; the bounds keep their own
// calendar dates.
func (f Filter) Matches(sub types.Submission, loc *time.Location) bool {
	if f.Search != "" {
		q := strings.ToLower(f.Search)
		if !strings.Contains(strings.ToLower(sub.Title), q) && !strings.Contains(strings.ToLower(sub.InputCode), q) {
			return false
		}
	}

	day := dateOf(sub.CreatedAt, loc)
	if f.Start != nil && day.Before(boundOf(*f.Start, loc)) {
		return false
	}
	if f.End != nil && day.After(boundOf(*f.End, loc)) {
		return false
	}
	return true
}

// dateOf truncates t to midnight of its calendar day in loc.
func dateOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.In(loc).Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// boundOf moves the calendar date of a filter bound into loc.
func boundOf(t time.Time, loc *time.Location) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, loc)
}

// ParseDate parses a YYYY-MM-DD filter bound in loc. An empty string yields nil.
func ParseDate(s string, loc *time.Location) (*time.Time, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return nil, nil
	}
	t, err := time.ParseInLocation("2006-01-02", s, loc)
	if err != nil {
		return nil, err
	}
	return &t, nil
}
