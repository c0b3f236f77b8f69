package app

import (
	"context"
	"time"

	"github.com/rs/zerolog"

	"tidal-pipeline/internal/config"
	"tidal-pipeline/internal/ingest"
	"tidal-pipeline/internal/storage"
)

// App aggregates configuration and shared dependencies for the CLI commands.
type App struct {
	Config *config.Config
	Logger zerolog.Logger
}

// NewApp constructs a new application handle.
func NewApp(cfg *config.Config, logger zerolog.Logger) *App {
	return &App{Config: cfg, Logger: logger.With().Str("component", "app").Logger()}
}

func (a *App) newPipeline() *ingest.Pipeline {
	return ingest.NewPipeline(ingest.Options{
		HeaderLines: a.Config.Ingest.HeaderLines,
	}, a.Logger)
}

func (a *App) openStore(ctx context.Context) (*storage.Store, func(), error) {
	if a.Config.Database.DSN == "" {
		return nil, nil, nil
	}

	pool, err := storage.NewPool(ctx, a.Config.Database)
	if err != nil {
		return nil, nil, err
	}

	store := storage.NewStore(pool)
	closer := func() {
		store.Close()
	}
	return store, closer, nil
}

// AnalyzeOptions configure one pipeline invocation.
type AnalyzeOptions struct {
	Directory    string
	Year         int
	From         *time.Time
	To           *time.Time
	Constituents []string
}

// ExportOptions hold parameters for exporting the merged series. Directory
// and From/To are alternatives: a directory re-ingests station files, a
// time window reads the archive database.
type ExportOptions struct {
	Directory string
	From      *time.Time
	To        *time.Time
	PNGPath   string
	CSVPath   string
	MaxPoints int
}

// ShowOptions configure the show command.
type ShowOptions struct {
	Limit int
}
