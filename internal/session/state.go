// Package session holds per-user interaction state: the current submission,
// its scan report, issue selections and the resolved code.
package session

import (
	"github.com/agusespa/securecode/internal/types"
)

// State is the explicit per-session state threaded through every handler.
// Nothing about an interaction survives between requests except through it.
type State struct {
	ID       string
	UserID   int64
	Username string

	Title    string
	Language string
	Code     string

	Report       string
	Issues       []types.Issue
	Selection    *Tracker
	ScanComplete bool

	FixedCode     string
	FixedDiff     string
	SyntaxErrors  []int
	IssueResolved bool

	flash string
}

func NewState(id string) *State {
	return &State{
		ID:        id,
		Language:  "python",
		Selection: NewTracker(),
	}
}

// LoggedIn reports whether a user is attached to the session.
func (s *State) LoggedIn() bool {
	return s.UserID != 0
}

// Login attaches a user. Any work from a previous user is discarded.
func (s *State) Login(user *types.User) {
	s.Logout()
	s.UserID = user.ID
	s.Username = user.Username
}

// Logout detaches the user and clears all submission state.
func (s *State) Logout() {
	s.UserID = 0
	s.Username = ""
	s.Title = ""
	s.Code = ""
	s.Language = "python"
	s.BeginScan()
}

// BeginScan clears the previous report, its selections and any resolution.
// It runs before the new report is produced.
func (s *State) BeginScan() {
	s.Report = ""
	s.Issues = nil
	s.ScanComplete = false
	s.FixedCode = ""
	s.FixedDiff = ""
	s.SyntaxErrors = nil
	s.IssueResolved = false
	if s.Selection == nil {
		s.Selection = NewTracker()
	}
	s.Selection.Reset()
}

// ShowResolve reports whether the resolve action is offered, which is exactly
// when at least one issue is selected.
func (s *State) ShowResolve() bool {
	return s.Selection.AnySelected()
}

// SetFlash stores a message shown on the next render.
func (s *State) SetFlash(msg string) {
	s.flash = msg
}

// TakeFlash returns the pending message and clears it.
func (s *State) TakeFlash() string {
	msg := s.flash
	s.flash = ""
	return msg
}
