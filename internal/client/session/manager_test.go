package session

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/api"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/notify"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/store"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/logging"
)

// ---- fakes ----

type account struct {
	password string
	user     *models.User
}

// fakeAPI implements api.Client over an in-memory account table, speaking
// the same error classes as the real HTTP client.
type fakeAPI struct {
	mu          sync.Mutex
	accounts    map[string]*account // by email
	tokens      map[string]string   // token -> email
	resetTokens map[string]string   // email -> mailed token
	nextID      int
	nextToken   int

	failTransport bool // every call fails as a transport error

	// gates: when non-nil the corresponding call blocks until closed
	authenticateGate  chan struct{}
	updateProfileGate chan struct{}
	fetchProfileGate  chan struct{}

	registerCalls      int
	authenticateCalls  int
	fetchProfileCalls  int
	updateProfileCalls int
}

func newFakeAPI() *fakeAPI {
	return &fakeAPI{
		accounts:    make(map[string]*account),
		tokens:      make(map[string]string),
		resetTokens: make(map[string]string),
	}
}

func (f *fakeAPI) addAccount(email, password, first, last string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextID++
	f.accounts[email] = &account{
		password: password,
		user: &models.User{
			ID:        fmt.Sprintf("u%d", f.nextID),
			Email:     email,
			FirstName: first,
			LastName:  last,
		},
	}
}

func (f *fakeAPI) issueToken(email string) string {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.nextToken++
	token := fmt.Sprintf("tok-%d", f.nextToken)
	f.tokens[token] = email
	return token
}

func wait(gate chan struct{}) {
	if gate != nil {
		<-gate
	}
}

func reject(status int, reason string) *api.RejectionError {
	return &api.RejectionError{StatusCode: status, Reason: reason}
}

func (f *fakeAPI) transportFailure() error {
	if f.failTransport {
		return &api.TransportError{Err: fmt.Errorf("connection refused")}
	}
	return nil
}

func (f *fakeAPI) Register(_ context.Context, req api.RegisterRequest) error {
	f.mu.Lock()
	f.registerCalls++
	f.mu.Unlock()
	if err := f.transportFailure(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if _, exists := f.accounts[req.Email]; exists {
		return reject(http.StatusConflict, "Email already registered")
	}
	f.nextID++
	f.accounts[req.Email] = &account{
		password: req.Password,
		user: &models.User{
			ID:        fmt.Sprintf("u%d", f.nextID),
			Email:     req.Email,
			FirstName: req.FirstName,
			LastName:  req.LastName,
		},
	}
	return nil
}

func (f *fakeAPI) Authenticate(_ context.Context, creds api.Credentials) (*api.AuthResult, error) {
	f.mu.Lock()
	f.authenticateCalls++
	gate := f.authenticateGate
	f.mu.Unlock()
	wait(gate)
	if err := f.transportFailure(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	acc, ok := f.accounts[creds.Email]
	f.mu.Unlock()
	if !ok || acc.password != creds.Password {
		return nil, reject(http.StatusUnauthorized, "Invalid credentials")
	}
	token := f.issueToken(creds.Email)
	return &api.AuthResult{User: acc.user.Clone(), Token: token}, nil
}

func (f *fakeAPI) FetchProfile(_ context.Context, token string) (*models.User, error) {
	f.mu.Lock()
	f.fetchProfileCalls++
	gate := f.fetchProfileGate
	f.mu.Unlock()
	wait(gate)
	if err := f.transportFailure(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.tokens[token]
	if !ok {
		return nil, reject(http.StatusUnauthorized, "Unauthorized")
	}
	return f.accounts[email].user.Clone(), nil
}

func (f *fakeAPI) UpdateProfile(_ context.Context, token string, upd models.ProfileUpdate) (*models.User, error) {
	f.mu.Lock()
	f.updateProfileCalls++
	gate := f.updateProfileGate
	f.mu.Unlock()
	wait(gate)
	if err := f.transportFailure(); err != nil {
		return nil, err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.tokens[token]
	if !ok {
		return nil, reject(http.StatusUnauthorized, "Unauthorized")
	}
	user := f.accounts[email].user
	if upd.FirstName != nil {
		user.FirstName = *upd.FirstName
	}
	if upd.LastName != nil {
		user.LastName = *upd.LastName
	}
	if upd.AvatarURL != nil {
		user.AvatarURL = *upd.AvatarURL
	}
	return user.Clone(), nil
}

func (f *fakeAPI) ChangePassword(_ context.Context, token, currentPassword, newPassword string) error {
	if err := f.transportFailure(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	email, ok := f.tokens[token]
	if !ok {
		return reject(http.StatusUnauthorized, "Unauthorized")
	}
	acc := f.accounts[email]
	if acc.password != currentPassword {
		return reject(http.StatusBadRequest, "Current password is incorrect")
	}
	acc.password = newPassword
	return nil
}

func (f *fakeAPI) RequestPasswordReset(_ context.Context, email string) error {
	if err := f.transportFailure(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	// accepted regardless of whether the account exists
	if _, ok := f.accounts[email]; ok {
		f.resetTokens[email] = "reset-" + email
	}
	return nil
}

func (f *fakeAPI) ConfirmPasswordReset(_ context.Context, email, resetToken, newPassword string) error {
	if err := f.transportFailure(); err != nil {
		return err
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.resetTokens[email] != resetToken {
		return reject(http.StatusBadRequest, "Invalid or expired reset token")
	}
	delete(f.resetTokens, email)
	f.accounts[email].password = newPassword
	return nil
}

func (f *fakeAPI) Close() error { return nil }

// captureSink records every notification.
type captureSink struct {
	mu   sync.Mutex
	seen []notify.Notification
}

func (s *captureSink) Notify(_ context.Context, n notify.Notification) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.seen = append(s.seen, n)
}

func (s *captureSink) countTitle(title string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, seen := range s.seen {
		if seen.Title == title {
			n++
		}
	}
	return n
}

func (s *captureSink) last() (notify.Notification, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if len(s.seen) == 0 {
		return notify.Notification{}, false
	}
	return s.seen[len(s.seen)-1], true
}

// ---- helpers ----

func newManager(t *testing.T, f *fakeAPI) (*Manager, *store.Memory, *captureSink) {
	t.Helper()
	st := store.NewMemory()
	sink := &captureSink{}
	return NewManager(f, st, sink, logging.Discard()), st, sink
}

func bootstrapped(t *testing.T, f *fakeAPI) (*Manager, *store.Memory, *captureSink) {
	t.Helper()
	m, st, sink := newManager(t, f)
	m.Bootstrap(context.Background())
	return m, st, sink
}

// assertInvariant checks that user presence, token presence, and status
// always agree.
func assertInvariant(t *testing.T, s Session) {
	t.Helper()
	userPresent := s.User != nil
	tokenPresent := s.Token != ""
	authenticated := s.Status == StatusAuthenticated
	require.Equal(t, authenticated, userPresent, "user presence must track status")
	require.Equal(t, authenticated, tokenPresent, "token presence must track status")
}

func storedPair(t *testing.T, st *store.Memory) ([]byte, []byte) {
	t.Helper()
	tok, err := st.Load(context.Background(), "auth_token")
	require.NoError(t, err)
	prof, err := st.Load(context.Background(), "profile")
	require.NoError(t, err)
	return tok, prof
}

// ---- bootstrap ----

func TestBootstrap_NoStoredToken(t *testing.T) {
	f := newFakeAPI()
	m, _, _ := newManager(t, f)

	require.True(t, m.IsBootstrapping())
	m.Bootstrap(context.Background())

	s := m.Current()
	assert.Equal(t, StatusUnauthenticated, s.Status)
	assertInvariant(t, s)
	assert.Equal(t, 0, f.fetchProfileCalls)
}

func TestBootstrap_ValidStoredToken(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	token := f.issueToken("a@b.com")

	m, st, _ := newManager(t, f)
	require.NoError(t, st.Save(ctx, "auth_token", []byte(token)))
	require.NoError(t, st.Save(ctx, "profile", []byte(`{"id":"u1","email":"a@b.com"}`)))

	m.Bootstrap(ctx)

	s := m.Current()
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "a@b.com", s.User.Email)
	assertInvariant(t, s)
}

func TestBootstrap_RejectedTokenClearsStore(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()

	m, st, _ := newManager(t, f)
	require.NoError(t, st.Save(ctx, "auth_token", []byte("stale")))
	require.NoError(t, st.Save(ctx, "profile", []byte(`{"id":"u1"}`)))

	m.Bootstrap(ctx)

	assert.Equal(t, StatusUnauthenticated, m.Current().Status)
	tok, prof := storedPair(t, st)
	assert.Nil(t, tok)
	assert.Nil(t, prof)
}

func TestBootstrap_TransportFailureFailsOpen(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.failTransport = true

	m, st, _ := newManager(t, f)
	require.NoError(t, st.Save(ctx, "auth_token", []byte("tok")))
	require.NoError(t, st.Save(ctx, "profile", []byte(`{"id":"u1"}`)))

	m.Bootstrap(ctx)

	assert.Equal(t, StatusUnauthenticated, m.Current().Status)
	tok, _ := storedPair(t, st)
	assert.Nil(t, tok)
}

func TestBootstrap_HalfPairSelfHealsWithoutNetwork(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()

	m, st, _ := newManager(t, f)
	require.NoError(t, st.Save(ctx, "auth_token", []byte("tok")))
	// no profile alongside the token

	m.Bootstrap(ctx)

	assert.Equal(t, StatusUnauthenticated, m.Current().Status)
	assert.Equal(t, 0, f.fetchProfileCalls, "self-healing must not consult the backend")
	tok, _ := storedPair(t, st)
	assert.Nil(t, tok)
}

func TestBootstrap_SecondCallIsNoop(t *testing.T) {
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	m.Bootstrap(context.Background())
	assert.Equal(t, StatusUnauthenticated, m.Current().Status)
}

// ---- login / signup ----

func TestLogin_Success(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, st, sink := bootstrapped(t, f)

	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	s := m.Current()
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "a@b.com", s.User.Email)
	assertInvariant(t, s)

	tok, prof := storedPair(t, st)
	assert.NotNil(t, tok)
	assert.NotNil(t, prof)

	n, ok := sink.last()
	require.True(t, ok)
	assert.Equal(t, notify.KindSuccess, n.Kind)
}

func TestLogin_WrongPasswordIsRejectionNotTransport(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, sink := bootstrapped(t, f)

	// shorter than any signup would allow; it must still reach the backend
	err := m.Login(ctx, "a@b.com", "wrong")
	require.Error(t, err)

	var rej *api.RejectionError
	require.ErrorAs(t, err, &rej)
	var tr *api.TransportError
	require.False(t, errors.As(err, &tr))
	assert.Equal(t, 1, f.authenticateCalls)

	s := m.Current()
	assert.Equal(t, StatusUnauthenticated, s.Status)
	assertInvariant(t, s)

	n, _ := sink.last()
	assert.Equal(t, notify.KindError, n.Kind)
	assert.Equal(t, "Invalid credentials", n.Message)
}

func TestLogin_TransportFailureLeavesStateAlone(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.failTransport = true
	m, _, sink := bootstrapped(t, f)

	err := m.Login(ctx, "a@b.com", "abcdef")
	var tr *api.TransportError
	require.ErrorAs(t, err, &tr)

	assert.Equal(t, StatusUnauthenticated, m.Current().Status)
	n, _ := sink.last()
	assert.Equal(t, "Network error, please try again.", n.Message)
}

func TestLogin_ValidationNeverReachesBackend(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	err := m.Login(ctx, "not-an-email", "abcdef")
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "email", vErr.Field)
	assert.Equal(t, 0, f.authenticateCalls)
}

func TestSignup_NeverAutoAuthenticates(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, st, sink := bootstrapped(t, f)

	require.NoError(t, m.Signup(ctx, SignupParams{
		Email: "a@b.com", Password: "abcdef", ConfirmPassword: "abcdef",
		FirstName: "A", LastName: "B",
	}))

	s := m.Current()
	assert.Equal(t, StatusUnauthenticated, s.Status)
	assertInvariant(t, s)

	tok, _ := storedPair(t, st)
	assert.Nil(t, tok)

	n, _ := sink.last()
	assert.Equal(t, notify.KindSuccess, n.Kind)
	assert.Equal(t, "Account created", n.Title)
}

func TestSignupThenLogin_RoundTrip(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	require.NoError(t, m.Signup(ctx, SignupParams{
		Email: "a@b.com", Password: "abcdef", ConfirmPassword: "abcdef",
		FirstName: "A", LastName: "B",
	}))
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	s := m.Current()
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "a@b.com", s.User.Email)
}

func TestSignup_DuplicateEmail(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, sink := bootstrapped(t, f)

	err := m.Signup(ctx, SignupParams{
		Email: "a@b.com", Password: "abcdef", ConfirmPassword: "abcdef",
		FirstName: "A", LastName: "B",
	})
	var rej *api.RejectionError
	require.ErrorAs(t, err, &rej)

	n, _ := sink.last()
	assert.Equal(t, "Email already registered", n.Message)
}

func TestSignup_ShortPasswordIsValidationError(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	err := m.Signup(ctx, SignupParams{
		Email: "a@b.com", Password: "abc", ConfirmPassword: "abc",
		FirstName: "A", LastName: "B",
	})
	var vErr *ValidationError
	require.ErrorAs(t, err, &vErr)
	assert.Equal(t, "password", vErr.Field)
	assert.Equal(t, 0, f.registerCalls, "validation failures must not reach the backend")
}

// ---- logout / ordering ----

func TestLogout_Idempotent(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, st, _ := bootstrapped(t, f)

	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	m.Logout()
	s := m.Current()
	assert.Equal(t, StatusUnauthenticated, s.Status)
	assertInvariant(t, s)

	m.Logout()
	s = m.Current()
	assert.Equal(t, StatusUnauthenticated, s.Status)
	assertInvariant(t, s)

	tok, prof := storedPair(t, st)
	assert.Nil(t, tok)
	assert.Nil(t, prof)
}

func TestLogout_NoopStaysSilent(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, sink := bootstrapped(t, f)

	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	m.Logout()
	m.Logout()

	assert.Equal(t, 1, sink.countTitle("Signed out"), "a no-op logout must not toast")
}

func TestOrdering_UpdateResolvingAfterLogoutIsDiscarded(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, st, _ := bootstrapped(t, f)
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	gate := make(chan struct{})
	f.mu.Lock()
	f.updateProfileGate = gate
	f.mu.Unlock()

	done := make(chan struct{})
	go func() {
		defer close(done)
		first := "New"
		_ = m.UpdateProfile(ctx, models.ProfileUpdate{FirstName: &first})
	}()

	// let the update reach the blocked backend call, then log out under it
	require.Eventually(t, func() bool {
		f.mu.Lock()
		defer f.mu.Unlock()
		return f.updateProfileCalls > 0
	}, time.Second, time.Millisecond)

	m.Logout()
	close(gate)
	<-done

	s := m.Current()
	assert.Equal(t, StatusUnauthenticated, s.Status, "late update result must not resurrect the session")
	assertInvariant(t, s)

	tok, prof := storedPair(t, st)
	assert.Nil(t, tok)
	assert.Nil(t, prof)
}

func TestOrdering_OperationsQueueBehindBootstrap(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	token := f.issueToken("a@b.com")

	m, st, _ := newManager(t, f)
	require.NoError(t, st.Save(ctx, "auth_token", []byte(token)))
	require.NoError(t, st.Save(ctx, "profile", []byte(`{"id":"u1","email":"a@b.com"}`)))

	gate := make(chan struct{})
	f.mu.Lock()
	f.fetchProfileGate = gate
	f.mu.Unlock()

	bootDone := make(chan struct{})
	go func() {
		defer close(bootDone)
		m.Bootstrap(ctx)
	}()

	loginDone := make(chan struct{})
	go func() {
		defer close(loginDone)
		_ = m.Login(ctx, "a@b.com", "abcdef")
	}()

	// while bootstrap is blocked, the queued login must not have started
	time.Sleep(20 * time.Millisecond)
	f.mu.Lock()
	calls := f.authenticateCalls
	f.mu.Unlock()
	assert.Equal(t, 0, calls, "login must wait for bootstrap to settle")

	close(gate)
	<-bootDone
	<-loginDone

	s := m.Current()
	assert.Equal(t, StatusAuthenticated, s.Status)
	assertInvariant(t, s)
}

// ---- profile ----

func TestUpdateProfile_ReplacesWithCanonicalCopy(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, st, _ := bootstrapped(t, f)
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	first := "New"
	require.NoError(t, m.UpdateProfile(ctx, models.ProfileUpdate{FirstName: &first}))

	s := m.Current()
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "New", s.User.FirstName)
	assert.Equal(t, "B", s.User.LastName)

	_, prof := storedPair(t, st)
	assert.Contains(t, string(prof), `"first_name":"New"`)
}

func TestUpdateProfile_UnauthorizedInvalidatesSession(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, st, sink := bootstrapped(t, f)
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	// kill the token server-side
	f.mu.Lock()
	f.tokens = map[string]string{}
	f.mu.Unlock()

	first := "New"
	err := m.UpdateProfile(ctx, models.ProfileUpdate{FirstName: &first})
	require.ErrorIs(t, err, api.ErrUnauthorized)

	s := m.Current()
	assert.Equal(t, StatusUnauthenticated, s.Status)
	assertInvariant(t, s)

	tok, _ := storedPair(t, st)
	assert.Nil(t, tok)

	n, _ := sink.last()
	assert.Equal(t, "Session expired", n.Title)
}

func TestUpdateProfile_TransportFailureKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, _ := bootstrapped(t, f)
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	f.failTransport = true
	first := "New"
	err := m.UpdateProfile(ctx, models.ProfileUpdate{FirstName: &first})

	var tr *api.TransportError
	require.ErrorAs(t, err, &tr)

	s := m.Current()
	assert.Equal(t, StatusAuthenticated, s.Status)
	assert.Equal(t, "A", s.User.FirstName, "profile must be unchanged")
	assertInvariant(t, s)
}

func TestUpdateProfile_RequiresSession(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	first := "New"
	err := m.UpdateProfile(ctx, models.ProfileUpdate{FirstName: &first})
	require.ErrorIs(t, err, ErrNotAuthenticated)
}

// ---- change password ----

func TestChangePassword_Success(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, sink := bootstrapped(t, f)
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	require.NoError(t, m.ChangePassword(ctx, "abcdef", "newpass1"))
	assert.Equal(t, StatusAuthenticated, m.Current().Status)

	n, _ := sink.last()
	assert.Equal(t, "Password changed", n.Title)

	// new password works, old one does not
	m.Logout()
	require.Error(t, m.Login(ctx, "a@b.com", "abcdef"))
	require.NoError(t, m.Login(ctx, "a@b.com", "newpass1"))
}

func TestChangePassword_WrongCurrentKeepsSession(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, sink := bootstrapped(t, f)
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))

	err := m.ChangePassword(ctx, "wrongpw", "newpass1")
	var rej *api.RejectionError
	require.ErrorAs(t, err, &rej)

	assert.Equal(t, StatusAuthenticated, m.Current().Status, "a 400 must not end the session")

	n, _ := sink.last()
	assert.Equal(t, "Current password is incorrect", n.Message)
}

// ---- password reset flow ----

func TestResetFlow_EndToEnd(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, _ := bootstrapped(t, f)

	require.NoError(t, m.ForgotPassword(ctx, "a@b.com"))
	assert.Equal(t, "a@b.com", m.PendingResetEmail())

	require.NoError(t, m.ResetPassword(ctx, "a@b.com", "reset-a@b.com", "newpass1"))
	assert.Equal(t, "", m.PendingResetEmail(), "flow state is discarded on success")
	assert.Equal(t, StatusUnauthenticated, m.Current().Status, "reset never authenticates")

	// old password rejected, new one accepted
	require.Error(t, m.Login(ctx, "a@b.com", "abcdef"))
	require.NoError(t, m.Login(ctx, "a@b.com", "newpass1"))
	assert.Equal(t, "a@b.com", m.Current().User.Email)
}

func TestResetFlow_BadTokenIsRejection(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, sink := bootstrapped(t, f)

	require.NoError(t, m.ForgotPassword(ctx, "a@b.com"))
	err := m.ResetPassword(ctx, "a@b.com", "bogus", "newpass1")

	var rej *api.RejectionError
	require.ErrorAs(t, err, &rej)
	n, _ := sink.last()
	assert.Equal(t, "Invalid or expired reset token", n.Message)
}

func TestForgotPassword_UnknownEmailStillAccepted(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	require.NoError(t, m.ForgotPassword(ctx, "ghost@b.com"))
	assert.Equal(t, "ghost@b.com", m.PendingResetEmail())
}

func TestForgotPassword_SecondRequestReplacesFlow(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	require.NoError(t, m.ForgotPassword(ctx, "first@b.com"))
	require.NoError(t, m.ForgotPassword(ctx, "second@b.com"))
	assert.Equal(t, "second@b.com", m.PendingResetEmail())

	m.CancelPasswordReset()
	assert.Equal(t, "", m.PendingResetEmail())
}

// ---- subscriptions ----

func TestSubscribe_ReceivesTransitionsInOrder(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	f.addAccount("a@b.com", "abcdef", "A", "B")
	m, _, _ := newManager(t, f)

	var mu sync.Mutex
	var seen []Status
	cancel := m.Subscribe(func(s Session) {
		mu.Lock()
		seen = append(seen, s.Status)
		mu.Unlock()
	})

	m.Bootstrap(ctx)
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))
	m.Logout()

	mu.Lock()
	got := append([]Status(nil), seen...)
	mu.Unlock()
	assert.Equal(t, []Status{StatusUnauthenticated, StatusAuthenticated, StatusUnauthenticated}, got)

	cancel()
	require.NoError(t, m.Login(ctx, "a@b.com", "abcdef"))
	mu.Lock()
	assert.Len(t, seen, 3, "cancelled subscriber must not fire")
	mu.Unlock()
}

func TestSubscribe_FailedLoginDoesNotFire(t *testing.T) {
	ctx := context.Background()
	f := newFakeAPI()
	m, _, _ := bootstrapped(t, f)

	fired := 0
	m.Subscribe(func(Session) { fired++ })

	_ = m.Login(ctx, "a@b.com", "wrongpw")
	assert.Equal(t, 0, fired)
}
