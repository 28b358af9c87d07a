package web

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"net/url"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"github.com/agusespa/securecode/internal/app"
	"github.com/agusespa/securecode/internal/auth"
	"github.com/agusespa/securecode/internal/llm"
	"github.com/agusespa/securecode/internal/rewrite"
	"github.com/agusespa/securecode/internal/session"
	"github.com/agusespa/securecode/internal/types"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	goleak.VerifyTestMain(m)
}

const banditReport = `>> Issue: [B602:subprocess_popen_with_shell_equals_true] subprocess call with shell=True identified, security issue.
   Severity: High   Confidence: High
   Location: submission.py:2
>> Issue: [B105:hardcoded_password_string] Possible hardcoded password: 'hunter2'
   Severity: Low   Confidence: Medium
   Location: submission.py:3
`

type fakeAuth struct{}

func (fakeAuth) Register(_ context.Context, username, password, confirm string) (int64, error) {
	switch {
	case username == "" || password == "":
		return 0, auth.ErrMissingCredentials
	case password != confirm:
		return 0, auth.ErrPasswordMismatch
	case username == "taken":
		return 0, auth.ErrUsernameTaken
	}
	return 2, nil
}

func (fakeAuth) Login(_ context.Context, username, password string) (*types.User, error) {
	if username == "alice" && password == "pw" {
		return &types.User{ID: 1, Username: "alice"}, nil
	}
	return nil, auth.ErrInvalidCredentials
}

type fakeScanner struct {
	err error
}

func (f *fakeScanner) DetectVulnerabilities(context.Context, string, string) (string, error) {
	return banditReport, f.err
}

type fakeRewriter struct {
	err error
}

func (f *fakeRewriter) Rewrite(context.Context, string, string, string) (*rewrite.Result, error) {
	if f.err != nil {
		return nil, f.err
	}
	return &rewrite.Result{Code: "subprocess.call(['ls'])", Diff: "--- a\n+++ b\n@@ -1 +1 @@\n-x\n+y\n"}, nil
}

type fakeCodes struct {
	subs []types.Submission
}

func (f *fakeCodes) SaveCode(_ context.Context, userID int64, title, language, input string, output *string) (int64, error) {
	f.subs = append([]types.Submission{{
		ID:         int64(len(f.subs) + 1),
		UserID:     userID,
		Title:      title,
		Language:   language,
		InputCode:  input,
		OutputCode: output,
		CreatedAt:  testNow.Add(-time.Minute),
	}}, f.subs...)
	return int64(len(f.subs)), nil
}

func (f *fakeCodes) GetRecentCodes(context.Context, int64, int) ([]types.Submission, error) {
	return f.subs, nil
}

var testNow = time.Date(2025, 3, 10, 12, 0, 0, 0, time.UTC)

type testClient struct {
	t       *testing.T
	handler http.Handler
	cookie  *http.Cookie
}

func (tc *testClient) do(method, target string, form url.Values) *httptest.ResponseRecorder {
	tc.t.Helper()
	var req *http.Request
	if form != nil {
		req = httptest.NewRequest(method, target, strings.NewReader(form.Encode()))
		req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	} else {
		req = httptest.NewRequest(method, target, nil)
	}
	if tc.cookie != nil {
		req.AddCookie(tc.cookie)
	}

	w := httptest.NewRecorder()
	tc.handler.ServeHTTP(w, req)

	for _, c := range w.Result().Cookies() {
		if c.Name == sessionCookie {
			tc.cookie = c
		}
	}
	return w
}

type fixture struct {
	client   *testClient
	scanner  *fakeScanner
	rewriter *fakeRewriter
	codes    *fakeCodes
	sessions *session.Store
}

func newFixture(t *testing.T) *fixture {
	t.Helper()
	f := &fixture{
		scanner:  &fakeScanner{},
		rewriter: &fakeRewriter{},
		codes:    &fakeCodes{},
		sessions: session.NewStore(),
	}
	svc := app.NewService(f.scanner, f.rewriter, f.codes, 0, nil)
	srv, err := NewServer(svc, fakeAuth{}, f.sessions, Options{Now: func() time.Time { return testNow }})
	require.NoError(t, err)

	f.client = &testClient{t: t, handler: srv.Handler()}
	return f
}

func (f *fixture) login(t *testing.T) {
	t.Helper()
	w := f.client.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"pw"}})
	require.Equal(t, http.StatusSeeOther, w.Code)
	require.Equal(t, "/", w.Header().Get("Location"))
}

func TestHealthz(t *testing.T) {
	f := newFixture(t)
	w := f.client.do(http.MethodGet, "/healthz", nil)
	assert.Equal(t, http.StatusOK, w.Code)
	assert.JSONEq(t, `{"status":"ok"}`, w.Body.String())
}

func TestHealthzReportsPingFailure(t *testing.T) {
	svc := app.NewService(&fakeScanner{}, &fakeRewriter{}, &fakeCodes{}, 0, nil)
	srv, err := NewServer(svc, fakeAuth{}, session.NewStore(), Options{
		Ping: func(context.Context) error { return errors.New("db down") },
	})
	require.NoError(t, err)

	w := httptest.NewRecorder()
	srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/healthz", nil))
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)
}

func TestUnauthenticatedRedirects(t *testing.T) {
	f := newFixture(t)
	for _, path := range []string{"/", "/history", "/report.md"} {
		w := f.client.do(http.MethodGet, path, nil)
		assert.Equal(t, http.StatusSeeOther, w.Code, path)
		assert.Equal(t, "/login", w.Header().Get("Location"), path)
	}

	cookie := f.client.cookie
	require.NotNil(t, cookie)
	assert.True(t, cookie.HttpOnly)
	assert.Equal(t, 1, f.sessions.Len())
}

func TestLoginFailureShowsFlash(t *testing.T) {
	f := newFixture(t)

	w := f.client.do(http.MethodPost, "/login", url.Values{"username": {"alice"}, "password": {"nope"}})
	assert.Equal(t, "/login", w.Header().Get("Location"))

	w = f.client.do(http.MethodGet, "/login", nil)
	assert.Contains(t, w.Body.String(), "Invalid login credentials.")

	w = f.client.do(http.MethodGet, "/login", nil)
	assert.NotContains(t, w.Body.String(), "Invalid login credentials.")
}

func TestRegister(t *testing.T) {
	tests := []struct {
		name     string
		form     url.Values
		location string
		flash    string
	}{
		{"success", url.Values{"username": {"bob"}, "password": {"a"}, "confirm_password": {"a"}}, "/login", "Registration successful! Please log in."},
		{"mismatch", url.Values{"username": {"bob"}, "password": {"a"}, "confirm_password": {"b"}}, "/register", "Passwords do not match."},
		{"taken", url.Values{"username": {"taken"}, "password": {"a"}, "confirm_password": {"a"}}, "/register", "Username already exists."},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			f := newFixture(t)
			w := f.client.do(http.MethodPost, "/register", tt.form)
			require.Equal(t, http.StatusSeeOther, w.Code)
			assert.Equal(t, tt.location, w.Header().Get("Location"))

			w = f.client.do(http.MethodGet, tt.location, nil)
			assert.Contains(t, w.Body.String(), tt.flash)
		})
	}
}

func TestScanSelectResolveFlow(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	w := f.client.do(http.MethodPost, "/scan", url.Values{
		"title":    {"demo"},
		"language": {"python"},
		"code":     {"import subprocess\nsubprocess.call(cmd, shell=True)"},
	})
	require.Equal(t, http.StatusSeeOther, w.Code)

	w = f.client.do(http.MethodGet, "/", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "Vulnerability Report")
	assert.Contains(t, body, `name="issue" value="0"`)
	assert.Contains(t, body, `name="issue" value="1"`)
	assert.NotContains(t, body, "Resolve Selected Issues")

	f.client.do(http.MethodPost, "/selection", url.Values{"issue": {"1"}})
	w = f.client.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), `value="1" checked`)
	assert.Contains(t, w.Body.String(), "Resolve Selected Issues")

	f.client.do(http.MethodPost, "/resolve", url.Values{})
	w = f.client.do(http.MethodGet, "/", nil)
	body = w.Body.String()
	assert.Contains(t, body, "Vulnerability-free code")
	assert.Contains(t, body, "subprocess.call([")
	assert.Len(t, f.codes.subs, 2)

	w = f.client.do(http.MethodGet, "/report.md", nil)
	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Header().Get("Content-Disposition"), "vulnerability-report.md")
	assert.Contains(t, w.Body.String(), "# Vulnerability Report: demo")
}

func TestSelectionRejectsUnknownIssue(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	f.client.do(http.MethodPost, "/scan", url.Values{"title": {"t"}, "code": {"x"}})

	f.client.do(http.MethodPost, "/selection", url.Values{"issue": {"9"}})
	w := f.client.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "not part of the current report")

	f.client.do(http.MethodPost, "/selection", url.Values{"issue": {"abc"}})
	w = f.client.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "not part of the current report")
}

func TestCollaboratorFailuresAreFlashed(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	f.scanner.err = errors.New("bandit exploded")
	f.client.do(http.MethodPost, "/scan", url.Values{"title": {"t"}, "code": {"x"}})
	w := f.client.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "An error occurred: bandit exploded")
	assert.NotContains(t, w.Body.String(), "Vulnerability Report")

	f.scanner.err = nil
	f.rewriter.err = errors.New("quota exceeded")
	f.client.do(http.MethodPost, "/scan", url.Values{"title": {"t"}, "code": {"x"}})
	f.client.do(http.MethodPost, "/selection", url.Values{"issue": {"0"}})
	f.client.do(http.MethodPost, "/resolve", url.Values{})
	w = f.client.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "quota exceeded")
	assert.NotContains(t, w.Body.String(), "Vulnerability-free code")

	f.client.do(http.MethodPost, "/scan", url.Values{"title": {""}, "code": {"x"}})
	w = f.client.do(http.MethodGet, "/", nil)
	assert.Contains(t, w.Body.String(), "Please enter a title and some code.")
}

func TestHistory(t *testing.T) {
	f := newFixture(t)
	f.login(t)

	fixed := "print('<b>safe</b>')"
	f.codes.subs = []types.Submission{
		{ID: 3, Title: "login form", Language: "python", InputCode: "eval(x)", OutputCode: &fixed, CreatedAt: testNow.Add(-time.Hour)},
		{ID: 2, Title: "parser", Language: "python", InputCode: "pickle.loads(x)", CreatedAt: testNow.AddDate(0, 0, -1)},
		{ID: 1, Title: "ancient", Language: "python", InputCode: "exec(x)", CreatedAt: testNow.AddDate(-1, 0, 0)},
	}

	w := f.client.do(http.MethodGet, "/history", nil)
	require.Equal(t, http.StatusOK, w.Code)
	body := w.Body.String()
	assert.Contains(t, body, "<h2>Today</h2>")
	assert.Contains(t, body, "<h2>Yesterday</h2>")
	assert.Contains(t, body, "<h2>Older</h2>")
	assert.NotContains(t, body, "Previous 7 Days")
	assert.Contains(t, body, "&lt;b&gt;safe&lt;/b&gt;")
	assert.NotContains(t, body, "<b>safe</b>")

	w = f.client.do(http.MethodGet, "/history?q=PICKLE", nil)
	body = w.Body.String()
	assert.Contains(t, body, "parser")
	assert.NotContains(t, body, "login form")

	w = f.client.do(http.MethodGet, "/history?start=2025-03-10&end=2025-03-10", nil)
	body = w.Body.String()
	assert.Contains(t, body, "login form")
	assert.NotContains(t, body, "ancient")

	w = f.client.do(http.MethodGet, "/history?start=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
	assert.Contains(t, w.Body.String(), "Invalid start date")
}

func TestLogout(t *testing.T) {
	f := newFixture(t)
	f.login(t)
	loggedIn := f.client.cookie.Value

	w := f.client.do(http.MethodPost, "/logout", url.Values{})
	assert.Equal(t, "/login", w.Header().Get("Location"))
	assert.Empty(t, f.client.cookie.Value)
	assert.Negative(t, f.client.cookie.MaxAge)

	_, ok := f.sessions.Get(loggedIn)
	assert.False(t, ok, "logged out session should be dropped")
	assert.Zero(t, f.sessions.Len())

	w = f.client.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
}

func TestLoginIssuesNewSession(t *testing.T) {
	f := newFixture(t)
	f.client.do(http.MethodGet, "/login", nil)
	require.NotNil(t, f.client.cookie)
	anonymous := f.client.cookie.Value

	f.login(t)
	fresh := f.client.cookie.Value
	assert.NotEqual(t, anonymous, fresh)

	_, ok := f.sessions.Get(anonymous)
	assert.False(t, ok)
	st, ok := f.sessions.Get(fresh)
	require.True(t, ok)
	assert.Equal(t, "alice", st.Username)
	assert.Equal(t, 1, f.sessions.Len())

	replay := &testClient{t: t, handler: f.client.handler, cookie: &http.Cookie{Name: sessionCookie, Value: anonymous}}
	w := replay.do(http.MethodGet, "/", nil)
	assert.Equal(t, http.StatusSeeOther, w.Code)
	assert.Equal(t, "/login", w.Header().Get("Location"))
}

func TestCookielessRequestsStayBounded(t *testing.T) {
	sessions := session.NewStore(session.WithMaxSessions(10))
	svc := app.NewService(&fakeScanner{}, &fakeRewriter{}, &fakeCodes{}, 0, nil)
	srv, err := NewServer(svc, fakeAuth{}, sessions, Options{})
	require.NoError(t, err)

	for i := 0; i < 1000; i++ {
		w := httptest.NewRecorder()
		srv.Handler().ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/login", nil))
		require.Equal(t, http.StatusOK, w.Code)
	}
	assert.LessOrEqual(t, sessions.Len(), 10)
}

func TestUserMessage(t *testing.T) {
	tests := []struct {
		name    string
		err     error
		want    string
		notWant string
	}{
		{
			name:    "provider status hides response body",
			err:     fmt.Errorf("rewrite: %w", &llm.StatusError{Provider: "OpenAI", StatusCode: 500, Body: `{"error":"internal trace sk-abc"}`}),
			want:    "The model request failed with status 500. Please try again.",
			notWant: "sk-abc",
		},
		{
			name: "sentinel",
			err:  fmt.Errorf("scan: %w", app.ErrMissingInput),
			want: "Please enter a title and some code.",
		},
		{
			name: "unknown",
			err:  errors.New("disk full"),
			want: "An error occurred: disk full",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := userMessage(tt.err)
			assert.Equal(t, tt.want, got)
			if tt.notWant != "" {
				assert.NotContains(t, got, tt.notWant)
			}
		})
	}
}

func TestRunShutsDownOnCancel(t *testing.T) {
	svc := app.NewService(&fakeScanner{}, &fakeRewriter{}, &fakeCodes{}, 0, nil)
	srv, err := NewServer(svc, fakeAuth{}, session.NewStore(), Options{})
	require.NoError(t, err)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan error, 1)
	go func() { done <- srv.Run(ctx, "127.0.0.1:0") }()

	time.Sleep(50 * time.Millisecond)
	cancel()

	select {
	case err := <-done:
		assert.NoError(t, err)
	case <-time.After(5 * time.Second):
		t.Fatal("server did not shut down")
	}
}
