package history

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/agusespa/securecode/internal/types"
)

var now = time.Date(2024, 6, 15, 14, 30, 0, 0, time.UTC)

func sub(title string, created time.Time) types.Submission {
	return types.Submission{Title: title, InputCode: "print('" + title + "')", CreatedAt: created}
}

func day(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 9, 0, 0, 0, time.UTC)
}

func labelsOf(buckets []Bucket) map[string][]string {
	out := make(map[string][]string)
	for _, b := range buckets {
		for _, s := range b.Submissions {
			out[b.Label] = append(out[b.Label], s.Title)
		}
	}
	return out
}

func TestGroup_Scenario(t *testing.T) {
	subs := []types.Submission{
		sub("today", day(2024, 6, 15)),
		sub("yesterday", day(2024, 6, 14)),
		sub("week", day(2024, 6, 10)),
		sub("month", day(2024, 5, 20)),
		sub("old", day(2024, 1, 1)),
	}

	buckets := Group(subs, Filter{}, now)

	require.Len(t, buckets, 5)
	for i, label := range Labels {
		assert.Equal(t, label, buckets[i].Label)
	}
	assert.Equal(t, map[string][]string{
		LabelToday:          {"today"},
		LabelYesterday:      {"yesterday"},
		LabelPrevious7Days:  {"week"},
		LabelPrevious30Days: {"month"},
		LabelOlder:          {"old"},
	}, labelsOf(buckets))
}

func TestGroup_BoundariesAreExclusive(t *testing.T) {
	today := time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC)
	tests := []struct {
		offset   int
		expected string
	}{
		{0, LabelToday},
		{1, LabelYesterday},
		{6, LabelPrevious7Days},
		{7, LabelPrevious7Days},
		{8, LabelPrevious30Days},
		{29, LabelPrevious30Days},
		{30, LabelPrevious30Days},
		{31, LabelOlder},
	}

	var subs []types.Submission
	for _, tt := range tests {
		created := today.AddDate(0, 0, -tt.offset).Add(23 * time.Hour)
		subs = append(subs, types.Submission{Title: created.Format("2006-01-02"), CreatedAt: created})
	}

	buckets := Group(subs, Filter{}, now)

	seen := make(map[string]string)
	for _, b := range buckets {
		for _, s := range b.Submissions {
			_, dup := seen[s.Title]
			assert.False(t, dup, "submission %s appears in two buckets", s.Title)
			seen[s.Title] = b.Label
		}
	}
	require.Len(t, seen, len(tests))

	for i, tt := range tests {
		assert.Equal(t, tt.expected, seen[subs[i].Title], "offset %d", tt.offset)
	}
}

func TestGroup_OmitsEmptyBuckets(t *testing.T) {
	buckets := Group([]types.Submission{sub("old", day(2020, 1, 1))}, Filter{}, now)

	require.Len(t, buckets, 1)
	assert.Equal(t, LabelOlder, buckets[0].Label)

	assert.Empty(t, Group(nil, Filter{}, now))
}

func TestGroup_IsStable(t *testing.T) {
	subs := []types.Submission{
		sub("c", day(2024, 6, 15).Add(3*time.Hour)),
		sub("a", day(2024, 6, 15).Add(1*time.Hour)),
		sub("x", day(2023, 6, 15)),
		sub("b", day(2024, 6, 15).Add(2*time.Hour)),
	}

	buckets := Group(subs, Filter{}, now)

	assert.Equal(t, []string{"c", "a", "b"}, labelsOf(buckets)[LabelToday])
}

func TestGroup_TextFilter(t *testing.T) {
	subs := []types.Submission{
		{Title: "Login Handler", InputCode: "def login(): pass", CreatedAt: day(2024, 6, 15)},
		{Title: "misc", InputCode: "import SUBPROCESS", CreatedAt: day(2024, 6, 15)},
		{Title: "other", InputCode: "x = 1", CreatedAt: day(2024, 6, 15)},
	}

	tests := []struct {
		name     string
		search   string
		expected []string
	}{
		{name: "empty search keeps all", search: "", expected: []string{"Login Handler", "misc", "other"}},
		{name: "title case insensitive", search: "login handler", expected: []string{"Login Handler"}},
		{name: "code case insensitive", search: "subprocess", expected: []string{"misc"}},
		{name: "matches title or code", search: "LOGIN", expected: []string{"Login Handler"}},
		{name: "no match", search: "nothing", expected: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buckets := Group(subs, Filter{Search: tt.search}, now)
			assert.Equal(t, tt.expected, labelsOf(buckets)[LabelToday])
		})
	}
}

func TestGroup_TextFilterWinsOverDateFilter(t *testing.T) {
	start := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)
	subs := []types.Submission{sub("inside range", day(2024, 6, 15))}

	buckets := Group(subs, Filter{Search: "absent", Start: &start}, now)

	assert.Empty(t, buckets)
}

func TestGroup_DateFilter(t *testing.T) {
	subs := []types.Submission{
		sub("jun10", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)),
		sub("jun11-late", time.Date(2024, 6, 11, 23, 59, 59, 999999000, time.UTC)),
		sub("jun12", time.Date(2024, 6, 12, 12, 0, 0, 0, time.UTC)),
		sub("jun13", time.Date(2024, 6, 13, 0, 0, 0, 1000, time.UTC)),
	}
	jun11 := time.Date(2024, 6, 11, 15, 0, 0, 0, time.UTC)
	jun12 := time.Date(2024, 6, 12, 0, 0, 0, 0, time.UTC)

	titles := func(f Filter) []string {
		var out []string
		for _, b := range Group(subs, f, now) {
			for _, s := range b.Submissions {
				out = append(out, s.Title)
			}
		}
		return out
	}

	assert.Equal(t, []string{"jun11-late", "jun12", "jun13"}, titles(Filter{Start: &jun11}))
	assert.Equal(t, []string{"jun10", "jun11-late"}, titles(Filter{End: &jun11}))
	assert.Equal(t, []string{"jun11-late", "jun12"}, titles(Filter{Start: &jun11, End: &jun12}))
	assert.Equal(t, []string{"jun12"}, titles(Filter{Start: &jun12, End: &jun12}))
}

func TestGroup_UsesNowLocation(t *testing.T) {
	loc := time.FixedZone("UTC-5", -5*60*60)
	localNow := time.Date(2024, 6, 15, 20, 0, 0, 0, loc)

	// 2024-06-16 00:30 UTC is still the 15th five hours west.
	created := time.Date(2024, 6, 16, 0, 30, 0, 0, time.UTC)

	buckets := Group([]types.Submission{sub("late", created)}, Filter{}, localNow)

	require.Len(t, buckets, 1)
	assert.Equal(t, LabelToday, buckets[0].Label)
}

func TestParseDate(t *testing.T) {
	got, err := ParseDate("2024-06-15", time.UTC)
	require.NoError(t, err)
	require.NotNil(t, got)
	assert.Equal(t, time.Date(2024, 6, 15, 0, 0, 0, 0, time.UTC), *got)

	got, err = ParseDate("  ", time.UTC)
	require.NoError(t, err)
	assert.Nil(t, got)

	_, err = ParseDate("15/06/2024", time.UTC)
	assert.Error(t, err)
}
