package session

import (
	"time"

	"github.com/google/uuid"
)

// Screen identifies one renderable UI state.
type Screen string

const (
	ScreenLanding      Screen = "landing"
	ScreenSignupSignin Screen = "signup_signin"
	ScreenMainApp      Screen = "main_app"
)

var allScreens = []Screen{ScreenLanding, ScreenSignupSignin, ScreenMainApp}

func (s Screen) Valid() bool {
	for _, scr := range allScreens {
		if s == scr {
			return true
		}
	}
	return false
}

// PendingSignup holds in-flight signup data while a payment has been
// initiated but not yet confirmed.
type PendingSignup struct {
	SchoolName   string `json:"school_name"`
	Email        string `json:"email"`
	PasswordHash []byte `json:"password_hash"`
	IntentID     string `json:"intent_id"`
}

// AuthInfo holds the signed-in account's display data.
type AuthInfo struct {
	Email      string `json:"email"`
	SchoolName string `json:"school_name"`
}

// Session is the per-user transient state tracking the current screen and
// any in-flight signup. At most one payment intent is in flight per session.
type Session struct {
	ID        string         `json:"id"`
	Screen    Screen         `json:"screen"`
	Pending   *PendingSignup `json:"pending,omitempty"`
	Auth      *AuthInfo      `json:"auth,omitempty"`
	CreatedAt time.Time      `json:"created_at"` // UTC
	UpdatedAt time.Time      `json:"updated_at"` // UTC
}

// New returns a fresh Session on the Landing screen.
func New() *Session {
	now := time.Now().UTC()
	return &Session{
		ID:        uuid.New().String(),
		Screen:    ScreenLanding,
		CreatedAt: now,
		UpdatedAt: now,
	}
}

// CurrentScreen never returns an undefined value; a zero/corrupt session
// lands back on Landing.
func (s *Session) CurrentScreen() Screen {
	if !s.Screen.Valid() {
		return ScreenLanding
	}
	return s.Screen
}

// Reset clears all session data and returns to the Landing screen,
// keeping the session identifier.
func (s *Session) Reset() {
	s.Screen = ScreenLanding
	s.Pending = nil
	s.Auth = nil
	s.UpdatedAt = time.Now().UTC()
}
