// internal/domain/session/entity.go
package session

import (
	"errors"
	"strconv"
	"strings"
	"time"
)

var (
	ErrExpired = errors.New("session: expired")
	ErrDenied  = errors.New("session: access denied")
)

// Persisted keys inside a client scope.
const (
	KeyLoggedIn  = "adminLoggedIn"
	KeyLoginTime = "adminLoginTime"
)

// DefaultTimeout is the fixed elevated-access window.
const DefaultTimeout = 30 * time.Minute

// State of the elevated-access flag.
type State int

const (
	LoggedOut State = iota
	LoggedIn
)

func (s State) String() string {
	if s == LoggedIn {
		return "logged_in"
	}
	return "logged_out"
}

// Session is the elevated-access flag plus the time it was acquired.
type Session struct {
	State      State
	AcquiredAt time.Time
}

// Expired reports whether the window has elapsed at now.
// A LoggedOut session is never "expired"; it is simply not valid.
func (s Session) Expired(now time.Time, timeout time.Duration) bool {
	if s.State != LoggedIn {
		return false
	}
	return now.Sub(s.AcquiredAt) >= timeout
}

// Valid is LoggedIn and not expired.
func (s Session) Valid(now time.Time, timeout time.Duration) bool {
	return s.State == LoggedIn && !s.Expired(now, timeout)
}

// Encode returns the persisted values for both keys.
func (s Session) Encode() (loggedIn, loginTime string) {
	return "true", strconv.FormatInt(s.AcquiredAt.UnixMilli(), 10)
}

// Decode rebuilds a session from the persisted values.
// Anything other than flag "true" with a parseable timestamp is LoggedOut.
func Decode(loggedIn, loginTime string, flagOK, timeOK bool) Session {
	if !flagOK || strings.TrimSpace(loggedIn) != "true" {
		return Session{State: LoggedOut}
	}
	if !timeOK {
		return Session{State: LoggedOut}
	}
	ms, err := strconv.ParseInt(strings.TrimSpace(loginTime), 10, 64)
	if err != nil || ms <= 0 {
		return Session{State: LoggedOut}
	}
	return Session{State: LoggedIn, AcquiredAt: time.UnixMilli(ms)}
}
