package session

import (
	"context"
	"encoding/json"
	"errors"
	"sync"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/api"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/notify"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/store"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/logging"
)

// SignupParams carries the signup form fields.
type SignupParams struct {
	Email           string
	Password        string
	ConfirmPassword string
	FirstName       string
	LastName        string
}

// Manager is the session state machine and the facade the rest of the
// application talks to.
//
// Concurrency rules:
//   - at most one state-changing operation is in flight; further callers
//     queue in arrival order,
//   - every operation waits for Bootstrap to settle first,
//   - Logout is synchronous and infallible; it bumps the session epoch so
//     results of operations it supersedes are discarded,
//   - snapshot reads never block on network I/O.
type Manager struct {
	api   api.Client
	store store.Store
	sink  notify.Sink
	log   logging.Logger

	// opMu serializes state-changing operations.
	opMu sync.Mutex

	// mu guards everything below.
	mu         sync.RWMutex
	session    Session
	epoch      uint64
	resetEmail string
	subs       map[int]func(Session)
	nextSub    int

	bootstrapped chan struct{}
	bootOnce     sync.Once
}

func NewManager(apiClient api.Client, st store.Store, sink notify.Sink, log logging.Logger) *Manager {
	if sink == nil {
		sink = notify.Discard
	}
	return &Manager{
		api:          apiClient,
		store:        st,
		sink:         sink,
		log:          log.With("component", "session"),
		session:      Session{Status: StatusBootstrapping},
		subs:         make(map[int]func(Session)),
		bootstrapped: make(chan struct{}),
	}
}

// ---- reads ----

// Current returns a copy of the session snapshot. Never blocks on I/O.
func (m *Manager) Current() Session {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s := m.session
	s.User = s.User.Clone()
	return s
}

func (m *Manager) IsAuthenticated() bool {
	return m.Current().Status == StatusAuthenticated
}

func (m *Manager) IsBootstrapping() bool {
	return m.Current().Status == StatusBootstrapping
}

// PendingResetEmail returns the email of the password-reset flow in
// progress, or "" when there is none.
func (m *Manager) PendingResetEmail() string {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.resetEmail
}

// Subscribe registers fn to be called with a snapshot after every
// transition. The returned function cancels the subscription.
func (m *Manager) Subscribe(fn func(Session)) (cancel func()) {
	m.mu.Lock()
	id := m.nextSub
	m.nextSub++
	m.subs[id] = fn
	m.mu.Unlock()
	return func() {
		m.mu.Lock()
		delete(m.subs, id)
		m.mu.Unlock()
	}
}

// ---- bootstrap ----

// Bootstrap resolves the stored session against the backend and settles the
// state exactly once. It must be called before operations are useful; calls
// after the first are no-ops. Operations issued concurrently wait until it
// settles.
func (m *Manager) Bootstrap(ctx context.Context) {
	m.bootOnce.Do(func() { m.bootstrap(ctx) })
}

func (m *Manager) bootstrap(ctx context.Context) {
	defer close(m.bootstrapped)

	epoch := m.currentEpoch()

	token := m.loadStored(ctx, keyToken)
	profile := m.loadStored(ctx, keyProfile)

	switch {
	case token == nil && profile == nil:
		m.commitUnauthenticated(ctx, epoch, false)
	case token == nil || profile == nil:
		// half a pair on disk: the presence invariant cannot hold, so heal
		// locally without consulting the backend
		m.log.Warn(ctx, "stored session is inconsistent, clearing", "err", ErrInvariantViolation)
		m.commitUnauthenticated(ctx, epoch, true)
	default:
		user, err := m.api.FetchProfile(ctx, string(token))
		if err != nil {
			m.log.Info(ctx, "stored session not usable, signing out", "err", err)
			m.commitUnauthenticated(ctx, epoch, true)
			return
		}
		if _, err := m.commitAuthenticated(ctx, epoch, string(token), user); err != nil {
			m.log.Error(ctx, "bootstrap produced an unusable session", "err", err)
		}
	}
}

func (m *Manager) loadStored(ctx context.Context, key string) []byte {
	value, err := m.store.Load(ctx, key)
	if err != nil {
		// read failures count as "absent"; fail open to unauthenticated
		m.log.Warn(ctx, "failed to read stored state", "key", key, "err", err)
		return nil
	}
	return value
}

// ---- operations ----

// Login exchanges credentials for an authenticated session.
func (m *Manager) Login(ctx context.Context, email, password string) error {
	if err := validateLogin(email, password); err != nil {
		return m.fail(ctx, "Login failed", err)
	}
	epoch, done, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	res, err := m.api.Authenticate(ctx, api.Credentials{Email: email, Password: password})
	if err != nil {
		return m.fail(ctx, "Login failed", err)
	}

	applied, err := m.commitAuthenticated(ctx, epoch, res.Token, res.User)
	if err != nil {
		return m.fail(ctx, "Login failed", err)
	}
	if applied {
		m.sink.Notify(ctx, notify.Notification{
			Kind:    notify.KindSuccess,
			Title:   "Welcome back",
			Message: "Signed in as " + res.User.Email + ".",
		})
	}
	return nil
}

// Signup creates an account. It never signs the user in; a successful
// signup is followed by an explicit Login.
func (m *Manager) Signup(ctx context.Context, p SignupParams) error {
	if err := validateSignup(p); err != nil {
		return m.fail(ctx, "Signup failed", err)
	}
	_, done, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	req := api.RegisterRequest{
		Email:     p.Email,
		Password:  p.Password,
		FirstName: p.FirstName,
		LastName:  p.LastName,
	}
	if err := m.api.Register(ctx, req); err != nil {
		return m.fail(ctx, "Signup failed", err)
	}

	m.sink.Notify(ctx, notify.Notification{
		Kind:    notify.KindSuccess,
		Title:   "Account created",
		Message: "Please sign in with your new credentials.",
	})
	return nil
}

// Logout ends the session unconditionally. It is synchronous, infallible
// and idempotent, and it supersedes any operation still in flight: a result
// arriving after Logout is discarded.
func (m *Manager) Logout() {
	ctx := context.Background()

	m.mu.Lock()
	m.epoch++
	m.clearStoredLocked(ctx)
	changed := m.session.Status != StatusUnauthenticated
	m.session = Session{Status: StatusUnauthenticated}
	var subs []func(Session)
	var snap Session
	if changed {
		subs, snap = m.subscribersLocked()
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	if changed {
		m.sink.Notify(ctx, notify.Notification{
			Kind:    notify.KindSuccess,
			Title:   "Signed out",
			Message: "You have been signed out.",
		})
	}
}

// UpdateProfile applies a partial update and replaces the session's profile
// with the server's canonical copy. A 401 means the token died server-side;
// the session is invalidated.
func (m *Manager) UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error {
	if err := validateProfileUpdate(upd); err != nil {
		return m.fail(ctx, "Update failed", err)
	}
	epoch, done, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	cur := m.Current()
	if !cur.Authenticated() {
		return m.fail(ctx, "Update failed", ErrNotAuthenticated)
	}

	user, err := m.api.UpdateProfile(ctx, cur.Token, upd)
	if err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			m.expireSession(ctx, epoch)
			return err
		}
		return m.fail(ctx, "Update failed", err)
	}

	applied, err := m.commitAuthenticated(ctx, epoch, cur.Token, user)
	if err != nil {
		return m.fail(ctx, "Update failed", err)
	}
	if applied {
		m.sink.Notify(ctx, notify.Notification{
			Kind:    notify.KindSuccess,
			Title:   "Profile updated",
			Message: "Your changes have been saved.",
		})
	}
	return nil
}

// ChangePassword replaces the password of the signed-in account. A wrong
// current password comes back as an ordinary rejection and leaves the
// session alone; only a 401 invalidates it.
func (m *Manager) ChangePassword(ctx context.Context, currentPassword, newPassword string) error {
	if err := validateChangePassword(currentPassword, newPassword); err != nil {
		return m.fail(ctx, "Password change failed", err)
	}
	epoch, done, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	cur := m.Current()
	if !cur.Authenticated() {
		return m.fail(ctx, "Password change failed", ErrNotAuthenticated)
	}

	if err := m.api.ChangePassword(ctx, cur.Token, currentPassword, newPassword); err != nil {
		if errors.Is(err, api.ErrUnauthorized) {
			m.expireSession(ctx, epoch)
			return err
		}
		return m.fail(ctx, "Password change failed", err)
	}

	m.sink.Notify(ctx, notify.Notification{
		Kind:    notify.KindSuccess,
		Title:   "Password changed",
		Message: "Your password has been successfully updated.",
	})
	return nil
}

// ForgotPassword starts (or restarts) the two-step reset flow. Session
// state is untouched in every outcome.
func (m *Manager) ForgotPassword(ctx context.Context, email string) error {
	if err := checkEmail(email); err != nil {
		return m.fail(ctx, "Reset request failed", err)
	}
	_, done, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := m.api.RequestPasswordReset(ctx, email); err != nil {
		return m.fail(ctx, "Reset request failed", err)
	}

	m.mu.Lock()
	m.resetEmail = email
	m.mu.Unlock()

	m.sink.Notify(ctx, notify.Notification{
		Kind:    notify.KindSuccess,
		Title:   "Reset email sent",
		Message: "Check your email for password reset instructions.",
	})
	return nil
}

// ResetPassword completes the reset flow with the mailed token. On success
// the flow state is discarded; the user signs in again with the new
// password.
func (m *Manager) ResetPassword(ctx context.Context, email, resetToken, newPassword string) error {
	if err := validateReset(email, resetToken, newPassword); err != nil {
		return m.fail(ctx, "Password reset failed", err)
	}
	_, done, err := m.begin(ctx)
	if err != nil {
		return err
	}
	defer done()

	if err := m.api.ConfirmPasswordReset(ctx, email, resetToken, newPassword); err != nil {
		return m.fail(ctx, "Password reset failed", err)
	}

	m.mu.Lock()
	m.resetEmail = ""
	m.mu.Unlock()

	m.sink.Notify(ctx, notify.Notification{
		Kind:    notify.KindSuccess,
		Title:   "Password reset",
		Message: "Sign in with your new password.",
	})
	return nil
}

// CancelPasswordReset discards the in-progress reset flow, if any.
func (m *Manager) CancelPasswordReset() {
	m.mu.Lock()
	m.resetEmail = ""
	m.mu.Unlock()
}

// ---- internals ----

// begin gates an operation: wait for bootstrap, take the operation mutex,
// capture the epoch the operation belongs to.
func (m *Manager) begin(ctx context.Context) (uint64, func(), error) {
	select {
	case <-m.bootstrapped:
	case <-ctx.Done():
		return 0, nil, ctx.Err()
	}
	m.opMu.Lock()
	return m.currentEpoch(), m.opMu.Unlock, nil
}

func (m *Manager) currentEpoch() uint64 {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.epoch
}

// commitAuthenticated installs an authenticated session and persists the
// token/profile pair, unless the operation's epoch has been superseded by a
// logout. A pair that cannot satisfy the presence invariant is refused and
// self-healed to Unauthenticated.
func (m *Manager) commitAuthenticated(ctx context.Context, epoch uint64, token string, user *models.User) (bool, error) {
	if token == "" || user == nil || user.ID == "" {
		m.log.Error(ctx, "refusing inconsistent session", "err", ErrInvariantViolation)
		m.commitUnauthenticated(ctx, epoch, true)
		return false, ErrInvariantViolation
	}

	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.log.Debug(ctx, "discarding superseded result")
		return false, nil
	}
	m.persistLocked(ctx, token, user)
	m.session = Session{Status: StatusAuthenticated, User: user.Clone(), Token: token}
	subs, snap := m.subscribersLocked()
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true, nil
}

// commitUnauthenticated resolves the session to Unauthenticated, clearing
// the stored pair when asked to. Subscribers fire only on an actual status
// change.
func (m *Manager) commitUnauthenticated(ctx context.Context, epoch uint64, clear bool) bool {
	m.mu.Lock()
	if m.epoch != epoch {
		m.mu.Unlock()
		m.log.Debug(ctx, "discarding superseded result")
		return false
	}
	if clear {
		m.clearStoredLocked(ctx)
	}
	changed := m.session.Status != StatusUnauthenticated
	m.session = Session{Status: StatusUnauthenticated}
	var subs []func(Session)
	var snap Session
	if changed {
		subs, snap = m.subscribersLocked()
	}
	m.mu.Unlock()

	for _, fn := range subs {
		fn(snap)
	}
	return true
}

// expireSession handles a 401 on an authenticated endpoint: the backend no
// longer honors the token, so the session is over.
func (m *Manager) expireSession(ctx context.Context, epoch uint64) {
	if m.commitUnauthenticated(ctx, epoch, true) {
		m.sink.Notify(ctx, notify.Notification{
			Kind:    notify.KindError,
			Title:   "Session expired",
			Message: "Please sign in again.",
		})
	}
}

// persistLocked writes the token/profile pair. m.mu must be held, which is
// what keeps store mutation serialized with state mutation. Failures are
// logged and tolerated: the session lives on in memory and the next
// bootstrap simply resolves unauthenticated.
func (m *Manager) persistLocked(ctx context.Context, token string, user *models.User) {
	raw, err := json.Marshal(user)
	if err != nil {
		m.log.Error(ctx, "failed to encode profile", "err", err)
		return
	}
	entries := map[string][]byte{keyToken: []byte(token), keyProfile: raw}

	if batch, ok := m.store.(store.BatchStore); ok {
		if err := batch.SaveAll(ctx, entries); err != nil {
			m.log.Warn(ctx, "failed to persist session", "err", err)
		}
		return
	}
	for key, value := range entries {
		if err := m.store.Save(ctx, key, value); err != nil {
			m.log.Warn(ctx, "failed to persist session", "key", key, "err", err)
		}
	}
}

// clearStoredLocked removes the token/profile pair. m.mu must be held.
func (m *Manager) clearStoredLocked(ctx context.Context) {
	if batch, ok := m.store.(store.BatchStore); ok {
		if err := batch.ClearAll(ctx, keyToken, keyProfile); err != nil {
			m.log.Warn(ctx, "failed to clear stored session", "err", err)
		}
		return
	}
	for _, key := range []string{keyToken, keyProfile} {
		if err := m.store.Clear(ctx, key); err != nil {
			m.log.Warn(ctx, "failed to clear stored session", "key", key, "err", err)
		}
	}
}

// subscribersLocked snapshots the subscriber list and the session for
// delivery outside the lock. m.mu must be held.
func (m *Manager) subscribersLocked() ([]func(Session), Session) {
	subs := make([]func(Session), 0, len(m.subs))
	for _, fn := range m.subs {
		subs = append(subs, fn)
	}
	snap := m.session
	snap.User = snap.User.Clone()
	return subs, snap
}

// fail reports an operation failure through the sink and returns err
// unchanged for callers that want to inspect the class.
func (m *Manager) fail(ctx context.Context, title string, err error) error {
	m.sink.Notify(ctx, notify.Notification{
		Kind:    notify.KindError,
		Title:   title,
		Message: failureMessage(err),
	})
	return err
}
