package cli

import (
	"bufio"
	"context"
	"errors"
	"io"
	"log/slog"

	"github.com/dmitrijs2005/spendkeeper/internal/client/client"
	"github.com/dmitrijs2005/spendkeeper/internal/client/config"
	"github.com/dmitrijs2005/spendkeeper/internal/client/services"
	"github.com/dmitrijs2005/spendkeeper/internal/client/storage"
	"github.com/dmitrijs2005/spendkeeper/internal/common"
	"github.com/dmitrijs2005/spendkeeper/internal/idgen"
	"github.com/dmitrijs2005/spendkeeper/internal/logging"
)

// Streams are the terminal handles commands read from and write to.
type Streams struct {
	In  io.Reader
	Out io.Writer
	Err io.Writer
}

// App carries the wired services for one command invocation.
type App struct {
	cfg        *config.Config
	logger     logging.Logger
	stores     *storage.Manager
	api        *client.HTTPClient
	auth       *services.AuthService
	entries    *services.EntryService
	reconciler *services.Reconciler

	reader *bufio.Reader
	out    io.Writer
	errOut io.Writer
}

func newApp(s Streams) *App {
	reader, ok := s.In.(*bufio.Reader)
	if !ok {
		reader = bufio.NewReader(s.In)
	}
	return &App{reader: reader, out: s.Out, errOut: s.Err, logger: logging.Nop()}
}

// init wires the services once the configuration is known.
func (a *App) init(cfg *config.Config) {
	level := slog.LevelWarn
	if cfg.Verbose {
		level = slog.LevelDebug
	}

	a.cfg = cfg
	a.logger = logging.New(a.errOut, "text", level)
	a.stores = storage.NewManager(cfg.DataDir, a.logger)
	a.api = client.NewHTTPClient(cfg.ServerEndpointAddr, cfg.RequestTimeout)
	a.auth = services.NewAuthService(a.api, a.stores, a.logger)
	a.entries = services.NewEntryService(idgen.New(), a.logger)
	a.reconciler = services.NewReconciler(a.entries, a.api, a.logger)
}

// session resumes the remembered owner. A missing or expired token does not
// block local commands; server calls will report it.
func (a *App) session(ctx context.Context) (*storage.Session, error) {
	sess, err := a.auth.Resume(ctx)
	if err == nil {
		return sess, nil
	}
	if sess != nil && (errors.Is(err, common.ErrTokenExpired) || errors.Is(err, common.ErrorUnauthorized)) {
		a.logger.Warn(ctx, "stored token unusable, server calls will be refused", "error", err)
		return sess, nil
	}
	return nil, err
}

// withSession runs fn against the active owner's store and closes it after.
func (a *App) withSession(ctx context.Context, fn func(*storage.Session) error) error {
	sess, err := a.session(ctx)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.stores.Close(sess); err != nil {
			a.logger.Warn(ctx, "failed to close store", "error", err)
		}
	}()
	return fn(sess)
}

// confirmer asks on the terminal. Destructive commands take no flag to skip it.
func (a *App) confirmer() services.Confirmer {
	return promptConfirmer{reader: a.reader, w: a.out}
}
