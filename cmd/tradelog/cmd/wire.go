package cmd

import (
	"context"
	"fmt"
	"os"

	"github.com/google/uuid"
	"github.com/rs/zerolog"

	"github.com/rustyeddy/tradelog/config"
	"github.com/rustyeddy/tradelog/journal"
	"github.com/rustyeddy/tradelog/journal/postgres"
	"github.com/rustyeddy/tradelog/logger"
	"github.com/rustyeddy/tradelog/market"
	"github.com/rustyeddy/tradelog/risk"
	"github.com/rustyeddy/tradelog/screenshot"
	"github.com/rustyeddy/tradelog/tradebook"
)

// localUser owns CLI entries when no --user is given.
const localUser = "00000000-0000-0000-0000-000000000001"

// app is everything a command needs, built from one config.
type app struct {
	cfg   *config.Config
	log   zerolog.Logger
	store journal.Store
	svc   *tradebook.Service
}

func (a *app) Close() error { return a.store.Close() }

func loadApp(ctx context.Context) (*app, error) {
	cfg, err := config.Load(configPath)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	log := logger.New(logger.Config{Level: cfg.Log.Level, Pretty: cfg.Log.Pretty, Out: os.Stderr})
	logger.SetGlobalLogger(log)

	store, err := openStore(ctx, cfg.Journal)
	if err != nil {
		return nil, fmt.Errorf("open journal: %w", err)
	}
	up, err := openUploader(ctx, cfg.Screenshots)
	if err != nil {
		_ = store.Close()
		return nil, fmt.Errorf("screenshot storage: %w", err)
	}
	rates, err := cfg.ExchangeRates()
	if err != nil {
		_ = store.Close()
		return nil, err
	}

	accts := make([]tradebook.Account, 0, len(cfg.Accounts))
	for _, a := range cfg.Accounts {
		accts = append(accts, tradebook.Account{ID: a.ID, Name: a.Name, Currency: a.Currency, Capital: a.Capital})
	}
	svc, err := tradebook.New(tradebook.Options{
		Calculator:             risk.NewCalculator(market.DefaultRegistry(), rates),
		Store:                  store,
		Uploader:               up,
		Accounts:               accts,
		ReferenceCapital:       cfg.Stats.ReferenceCapital,
		RequireAfterScreenshot: cfg.Journal.RequireAfterScreenshot,
		Log:                    log,
	})
	if err != nil {
		_ = store.Close()
		return nil, err
	}
	return &app{cfg: cfg, log: log, store: store, svc: svc}, nil
}

func openStore(ctx context.Context, cfg config.JournalConfig) (journal.Store, error) {
	switch cfg.Type {
	case "memory":
		return journal.NewMemory(), nil
	case "postgres":
		return postgres.Open(ctx, cfg.DSN)
	default:
		return journal.NewSQLite(cfg.DBPath)
	}
}

// openUploader returns a nil Uploader when screenshots are disabled, which an
// empty type also means.
func openUploader(ctx context.Context, cfg config.ScreenshotConfig) (screenshot.Uploader, error) {
	switch cfg.Type {
	case "", "none":
		return nil, nil
	case "s3":
		return screenshot.NewS3(ctx, screenshot.S3Config{
			Bucket:          cfg.Bucket,
			Region:          cfg.Region,
			Endpoint:        cfg.Endpoint,
			Prefix:          cfg.Prefix,
			PublicBaseURL:   cfg.PublicBaseURL,
			AccessKeyID:     cfg.AccessKeyID,
			SecretAccessKey: cfg.SecretAccessKey,
		})
	default:
		return screenshot.NewDir(cfg.Dir, cfg.PublicBaseURL)
	}
}

func currentUser() (string, error) {
	id, err := uuid.Parse(cliUser)
	if err != nil {
		return "", fmt.Errorf("--user must be a UUID: %w", err)
	}
	return id.String(), nil
}
