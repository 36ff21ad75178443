package cli

import (
	"bufio"
	"context"
	"database/sql"
	"io"
	"os"

	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/api"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/config"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/models"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/session"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/client/store"
	"github.com/adeelbandesha/lumina-spark-ai-studio/internal/logging"
)

// Authenticator is the session surface the CLI drives. The session Manager
// satisfies it; tests provide a lightweight fake.
type Authenticator interface {
	Bootstrap(ctx context.Context)
	Current() session.Session
	IsAuthenticated() bool
	Login(ctx context.Context, email, password string) error
	Signup(ctx context.Context, p session.SignupParams) error
	Logout()
	UpdateProfile(ctx context.Context, upd models.ProfileUpdate) error
	ChangePassword(ctx context.Context, currentPassword, newPassword string) error
	ForgotPassword(ctx context.Context, email string) error
	ResetPassword(ctx context.Context, email, resetToken, newPassword string) error
	PendingResetEmail() string
}

type App struct {
	config *config.Config
	auth   Authenticator
	reader *bufio.Reader
	out    io.Writer
	log    logging.Logger

	db        *sql.DB
	apiClient api.Client
}

func NewApp(ctx context.Context, c *config.Config, log logging.Logger) (*App, error) {
	db, err := store.Open(ctx, c.DatabaseDSN)
	if err != nil {
		log.Error(ctx, "failed to open local state database", "err", err)
		return nil, err
	}

	apiClient := api.NewHTTPClient(c.ServerBaseURL, c.RequestTimeout, log)
	sink := newSink(os.Stdout, log)
	manager := session.NewManager(apiClient, store.NewSQLite(db), sink, log)

	return &App{
		config:    c,
		auth:      manager,
		reader:    bufio.NewReader(os.Stdin),
		out:       os.Stdout,
		log:       log,
		db:        db,
		apiClient: apiClient,
	}, nil
}

// Run bootstraps the stored session and hands control to the REPL. It blocks
// until the user exits.
func (a *App) Run(ctx context.Context) {
	defer a.Close()

	a.auth.Bootstrap(ctx)
	a.Root(ctx)
}

func (a *App) Close() {
	if a.apiClient != nil {
		if err := a.apiClient.Close(); err != nil {
			a.log.Warn(context.Background(), "failed to close api client", "err", err)
		}
	}
	if a.db != nil {
		if err := a.db.Close(); err != nil {
			a.log.Warn(context.Background(), "failed to close database", "err", err)
		}
	}
}
