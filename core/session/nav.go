package session

import (
	"errors"
	"time"
)

var (
	// ErrInvalidTransition is returned for a transition target that is not
	// a known screen.
	ErrInvalidTransition = errors.New("invalid screen transition")
)

// Transition moves the session to the target screen. The screen graph is
// cyclic (MainApp returns to Landing via logout); any known screen is a
// valid target. The session is only mutated, never persisted here.
func Transition(sess *Session, target Screen) error {
	if !target.Valid() {
		return ErrInvalidTransition
	}
	sess.Screen = target
	sess.UpdatedAt = time.Now().UTC()
	return nil
}
