package main

import (
	"context"
	"os"

	"github.com/cockroachdb/errors"
	"github.com/spf13/viper"
	"go.uber.org/zap"

	"shed/config"
	"shed/generate"
	"shed/lorebook"
	"shed/notify"
	"shed/shed"
	"shed/store"
	"shed/story"
)

// app is the wired service: storage, lorebook, story, generator and engine.
type app struct {
	cfg    *config.Config
	logger *zap.SugaredLogger
	stores *store.Opened
	book   *lorebook.Book
	doc    *story.Document
	hub    *notify.Hub
	engine *shed.Engine
}

func openApp(ctx context.Context, v *viper.Viper, logger *zap.SugaredLogger) (*app, error) {
	cfg, err := config.Load(v)
	if err != nil {
		return nil, err
	}
	if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
		return nil, errors.Wrapf(err, "create data dir %s", cfg.Data.Dir)
	}

	stores, err := store.Open(cfg.Data.Driver, cfg.Data.Dir, logger)
	if err != nil {
		return nil, err
	}
	book, err := lorebook.NewBook(ctx, stores.Lorebook)
	if err != nil {
		stores.Close()
		return nil, err
	}
	doc, err := story.NewDocument(ctx, stores.Document)
	if err != nil {
		stores.Close()
		return nil, err
	}
	gen, err := generate.New(ctx, generate.Config{
		Provider:          cfg.Generation.Provider,
		BaseURL:           cfg.Generation.BaseURL,
		APIKey:            cfg.Generation.APIKey,
		Timeout:           cfg.Generation.Timeout(),
		RequestsPerMinute: cfg.Generation.RequestsPerMinute,
	}, logger)
	if err != nil {
		stores.Close()
		return nil, err
	}

	hub := notify.NewHub()
	engine := shed.New(shed.Deps{
		Lorebook:  book,
		Document:  doc,
		Stores:    stores.Namespaces,
		Settings:  config.Settings(v),
		Generator: gen,
		Notifier:  hub,
		Logger:    logger,
	})

	logger.Infow("Shed ready",
		"data_dir", cfg.Data.Dir,
		"driver", cfg.Data.Driver,
		"provider", cfg.Generation.Provider,
		"entries", len(book.List()),
	)
	return &app{
		cfg:    cfg,
		logger: logger,
		stores: stores,
		book:   book,
		doc:    doc,
		hub:    hub,
		engine: engine,
	}, nil
}

func (a *app) Close() error {
	a.engine.Wait()
	a.hub.Close()
	return a.stores.Close()
}
