package app

import (
	"context"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/Multiscale-Genomics/mg-dm-api/internal/config"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/dmp"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/model"
	"github.com/Multiscale-Genomics/mg-dm-api/internal/store"
)

// DMApp is the application layer between the CLI and the catalog
// service. It constructs all dependencies from config and manages the
// store lifecycle on Close.
type DMApp struct {
	cfg     *config.Config
	store   dmp.EntryStore
	service *dmp.Service
	logFile *os.File
}

// NewDMApp creates a fully wired DMApp from the given config.
// operation identifies the CLI command being run (e.g. "Register",
// "History"). A store that cannot be reached is fatal here: the app
// refuses to start against a half-initialised store.
func NewDMApp(ctx context.Context, cfg *config.Config, operation string) (*DMApp, error) {
	st, err := store.NewStoreFromConfig(ctx, cfg.Store)
	if err != nil {
		return nil, fmt.Errorf("creating entry store: %w", err)
	}

	if err := st.EnsureIndexes(ctx); err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("creating store indexes: %w", err)
	}

	opID := fmt.Sprintf("%s-%s", time.Now().UTC().Format("20060102T150405Z"), operation)
	logger, logFile, err := newLogger(cfg.DMP.LogDir, opID)
	if err != nil {
		_ = st.Close(ctx)
		return nil, fmt.Errorf("creating logger: %w", err)
	}

	svc := dmp.NewService(st, &slogAdapter{l: logger}, dmp.RealClock{}, cfg.Retention())

	return &DMApp{
		cfg:     cfg,
		store:   st,
		service: svc,
		logFile: logFile,
	}, nil
}

// Service exposes the catalog API.
func (a *DMApp) Service() *dmp.Service { return a.service }

// FileURL builds the public URL for a record from the configured ftp
// root: <ftp_root>/<file_id>/<last two path segments>. Returns an
// empty string when no ftp root is configured.
func (a *DMApp) FileURL(rec *model.FileRecord) string {
	if a.cfg.DMP.FTPRoot == "" || rec == nil {
		return ""
	}
	parts := strings.Split(rec.FilePath, "/")
	if len(parts) > 2 {
		parts = parts[len(parts)-2:]
	}
	segments := append([]string{strings.TrimRight(a.cfg.DMP.FTPRoot, "/"), rec.ID}, parts...)
	return strings.Join(segments, "/")
}

// Close releases the store connection and the log file.
func (a *DMApp) Close(ctx context.Context) error {
	var firstErr error
	if err := a.store.Close(ctx); err != nil {
		firstErr = fmt.Errorf("closing entry store: %w", err)
	}
	if a.logFile != nil {
		if err := a.logFile.Close(); err != nil && firstErr == nil {
			firstErr = fmt.Errorf("closing log file: %w", err)
		}
	}
	return firstErr
}
