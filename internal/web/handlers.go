package web

import (
	"errors"
	"fmt"
	"net/http"
	"strconv"
	"strings"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"

	"github.com/agusespa/securecode/internal/app"
	"github.com/agusespa/securecode/internal/auth"
	"github.com/agusespa/securecode/internal/history"
	"github.com/agusespa/securecode/internal/llm"
	"github.com/agusespa/securecode/internal/rewrite"
	"github.com/agusespa/securecode/internal/scanner"
	"github.com/agusespa/securecode/internal/session"
	"github.com/agusespa/securecode/internal/types"
)

type issueView struct {
	Index    int
	Issue    types.Issue
	Text     string
	Selected bool
}

type homeView struct {
	Username      string
	Flash         string
	Languages     []string
	Title         string
	Language      string
	Code          string
	ScanComplete  bool
	Report        string
	Issues        []issueView
	ShowResolve   bool
	IssueResolved bool
	FixedCode     string
	FixedDiff     string
	SyntaxErrors  []int
}

type historyView struct {
	Username string
	Flash    string
	Search   string
	Start    string
	End      string
	Buckets  []history.Bucket
}

type authView struct {
	Flash    string
	Register bool
}

func (s *Server) healthz(c *gin.Context) {
	if s.opts.Ping != nil {
		if err := s.opts.Ping(c.Request.Context()); err != nil {
			c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable", "error": err.Error()})
			return
		}
	}
	c.JSON(http.StatusOK, gin.H{"status": "ok"})
}

func (s *Server) loginPage(c *gin.Context) {
	st := stateOf(c)
	if st.LoggedIn() {
		c.Redirect(http.StatusSeeOther, "/")
		return
	}
	c.HTML(http.StatusOK, "login.html", authView{Flash: st.TakeFlash()})
}

func (s *Server) registerPage(c *gin.Context) {
	st := stateOf(c)
	c.HTML(http.StatusOK, "login.html", authView{Flash: st.TakeFlash(), Register: true})
}

func (s *Server) login(c *gin.Context) {
	st := stateOf(c)
	user, err := s.auth.Login(c.Request.Context(), c.PostForm("username"), c.PostForm("password"))
	if err != nil {
		s.fail(c, st, err)
		c.Redirect(http.StatusSeeOther, "/login")
		return
	}

	// A fresh id on login so an id planted before authentication is useless.
	s.sessions.Delete(st.ID)
	s.startSession(c).Login(user)
	s.logger.Info("user logged in", zap.Int64("user_id", user.ID))
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) register(c *gin.Context) {
	st := stateOf(c)
	_, err := s.auth.Register(c.Request.Context(),
		c.PostForm("username"), c.PostForm("password"), c.PostForm("confirm_password"))
	if err != nil {
		s.fail(c, st, err)
		c.Redirect(http.StatusSeeOther, "/register")
		return
	}

	st.SetFlash("Registration successful! Please log in.")
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) logout(c *gin.Context) {
	st := stateOf(c)
	st.Logout()
	s.sessions.Delete(st.ID)
	s.setSessionCookie(c, "", -1)
	c.Redirect(http.StatusSeeOther, "/login")
}

func (s *Server) home(c *gin.Context) {
	st := stateOf(c)

	view := homeView{
		Username:      st.Username,
		Flash:         st.TakeFlash(),
		Languages:     types.KnownLanguages(),
		Title:         st.Title,
		Language:      st.Language,
		Code:          st.Code,
		ScanComplete:  st.ScanComplete,
		Report:        st.Report,
		ShowResolve:   st.ShowResolve(),
		IssueResolved: st.IssueResolved,
		FixedCode:     st.FixedCode,
		FixedDiff:     st.FixedDiff,
		SyntaxErrors:  st.SyntaxErrors,
	}
	for i, issue := range st.Issues {
		view.Issues = append(view.Issues, issueView{
			Index:    i,
			Issue:    issue,
			Text:     issue.String(),
			Selected: st.Selection.Selected(i),
		})
	}

	c.HTML(http.StatusOK, "home.html", view)
}

func (s *Server) scan(c *gin.Context) {
	st := stateOf(c)
	err := s.svc.Scan(c.Request.Context(), st, c.PostForm("title"), c.PostForm("language"), c.PostForm("code"))
	if err != nil {
		s.fail(c, st, err)
	} else if len(st.Issues) == 0 {
		st.SetFlash("No issues found.")
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) selection(c *gin.Context) {
	st := stateOf(c)

	var indices []int
	for _, v := range c.PostFormArray("issue") {
		i, err := strconv.Atoi(v)
		if err != nil {
			s.fail(c, st, app.ErrUnknownIssue)
			c.Redirect(http.StatusSeeOther, "/")
			return
		}
		indices = append(indices, i)
	}

	if err := s.svc.SetSelection(st, indices); err != nil {
		s.fail(c, st, err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) resolve(c *gin.Context) {
	st := stateOf(c)
	if _, err := s.svc.Resolve(c.Request.Context(), st); err != nil {
		s.fail(c, st, err)
	}
	c.Redirect(http.StatusSeeOther, "/")
}

func (s *Server) history(c *gin.Context) {
	st := stateOf(c)
	now := s.opts.Now()

	view := historyView{
		Username: st.Username,
		Flash:    st.TakeFlash(),
		Search:   strings.TrimSpace(c.Query("q")),
		Start:    c.Query("start"),
		End:      c.Query("end"),
	}

	filter := history.Filter{Search: view.Search}
	var err error
	if filter.Start, err = history.ParseDate(view.Start, now.Location()); err != nil {
		view.Flash = "Invalid start date, expected YYYY-MM-DD."
		c.HTML(http.StatusBadRequest, "history.html", view)
		return
	}
	if filter.End, err = history.ParseDate(view.End, now.Location()); err != nil {
		view.Flash = "Invalid end date, expected YYYY-MM-DD."
		c.HTML(http.StatusBadRequest, "history.html", view)
		return
	}

	view.Buckets, err = s.svc.History(c.Request.Context(), st.UserID, filter, now)
	if err != nil {
		_ = c.Error(err)
		view.Flash = userMessage(err)
		c.HTML(http.StatusInternalServerError, "history.html", view)
		return
	}

	c.HTML(http.StatusOK, "history.html", view)
}

func (s *Server) reportMarkdown(c *gin.Context) {
	st := stateOf(c)
	md, err := s.svc.ReportMarkdown(st)
	if err != nil {
		s.fail(c, st, err)
		c.Redirect(http.StatusSeeOther, "/")
		return
	}

	c.Header("Content-Disposition", `attachment; filename="vulnerability-report.md"`)
	c.Data(http.StatusOK, "text/markdown; charset=utf-8", []byte(md))
}

// fail records err on the request and shows it to the user on the next page.
func (s *Server) fail(c *gin.Context, st *session.State, err error) {
	_ = c.Error(err)
	st.SetFlash(userMessage(err))
}

func userMessage(err error) string {
	var statusErr *llm.StatusError
	switch {
	case errors.Is(err, app.ErrMissingInput):
		return "Please enter a title and some code."
	case errors.Is(err, app.ErrNothingSelected):
		return "Select at least one issue to resolve."
	case errors.Is(err, app.ErrUnknownIssue):
		return "The selected issue is not part of the current report."
	case errors.Is(err, app.ErrNoReport):
		return "Scan some code first."
	case errors.Is(err, auth.ErrMissingCredentials):
		return "Please enter a username and password."
	case errors.Is(err, auth.ErrPasswordMismatch):
		return "Passwords do not match."
	case errors.Is(err, auth.ErrUsernameTaken):
		return "Username already exists. Please choose another one."
	case errors.Is(err, auth.ErrInvalidCredentials):
		return "Invalid login credentials."
	case errors.Is(err, scanner.ErrScannerUnavailable):
		return "The security scanner is not available on this server."
	case errors.Is(err, scanner.ErrUnsupportedLanguage):
		return "Scanning is not supported for this language."
	case errors.Is(err, rewrite.ErrEmptyResponse):
		return "The model did not return any code. Please try again."
	case errors.As(err, &statusErr):
		return fmt.Sprintf("The model request failed with status %d. Please try again.", statusErr.StatusCode)
	default:
		return "An error occurred: " + err.Error()
	}
}
