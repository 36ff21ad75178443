// Package session owns the client's authentication state: a single Session
// that starts in Bootstrapping, settles exactly once to Authenticated or
// Unauthenticated, and afterwards only toggles through explicit operations.
//
// All state-changing operations are serialized; a logout supersedes any
// operation still in flight, whose result is then discarded.
package session

import "github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"

// Status is the lifecycle phase of the session.
type Status string

const (
	// StatusBootstrapping holds from process start until the stored token
	// has been resolved against the backend. Entered exactly once.
	StatusBootstrapping Status = "bootstrapping"

	StatusUnauthenticated Status = "unauthenticated"
	StatusAuthenticated   Status = "authenticated"
)

// Session is a point-in-time snapshot of the authentication state.
// User and Token are both present or both absent; Status never contradicts
// their presence.
type Session struct {
	Status Status
	User   *models.User
	Token  string
}

// Authenticated reports whether the snapshot carries an active session.
func (s Session) Authenticated() bool {
	return s.Status == StatusAuthenticated
}

// Keys under which the token and the profile snapshot are persisted.
// They are always written and cleared as a pair.
const (
	keyToken   = "auth_token"
	keyProfile = "profile"
)
