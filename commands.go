package main

import (
	"context"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"syscall"
	"time"

	"github.com/cockroachdb/errors"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"shed/api"
	"shed/config"
	"shed/logging"
	"shed/seed"
	"shed/shed"
	"shed/tui"
)

func newLogger() (*zap.SugaredLogger, error) {
	return logging.New(settings.GetString("log.level"), settings.GetBool("log.json"))
}

// withApp opens the service, runs fn and closes everything afterwards.
func withApp(ctx context.Context, logger *zap.SugaredLogger, fn func(*app) error) error {
	a, err := openApp(ctx, settings, logger)
	if err != nil {
		return err
	}
	defer func() {
		if err := a.Close(); err != nil {
			logger.Warnw("Close failed", "error", err)
		}
		_ = logger.Sync()
	}()
	return fn(a)
}

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API, toast stream and automatic molting",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		ctx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
		defer stop()

		return withApp(ctx, logger, func(a *app) error {
			watcher := shed.NewWatcher(a.engine, a.book, logger)
			a.doc.OnAppend(watcher.ParagraphsAdded)
			defer watcher.Close()

			srv := &http.Server{
				Addr: a.cfg.Server.Addr,
				Handler: api.RegisterRoutes(api.Deps{
					Book:   a.book,
					Story:  a.doc,
					Engine: a.engine,
					Hub:    a.hub,
					Logger: logger,
				}),
				ReadHeaderTimeout: 10 * time.Second,
			}

			errc := make(chan error, 1)
			go func() {
				logger.Infow("Shed listening", "addr", srv.Addr)
				errc <- srv.ListenAndServe()
			}()

			select {
			case err := <-errc:
				return errors.Wrap(err, "server error")
			case <-ctx.Done():
			}

			logger.Info("Shutting down")
			// Toast streams never finish on their own.
			a.hub.Close()
			shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
			defer cancel()
			if err := srv.Shutdown(shutdownCtx); err != nil {
				return errors.Wrap(err, "shutdown")
			}
			return nil
		})
	},
}

var moltCmd = &cobra.Command{
	Use:   "molt <entry-id>",
	Short: "Shed one entry now and print its new skin",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), logger, func(a *app) error {
			skin, err := a.engine.Molt(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), skin)
			return nil
		})
	},
}

var unshedCmd = &cobra.Command{
	Use:   "unshed <entry-id>",
	Short: "Restore an entry's original text and turn shedding off",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		logger, err := newLogger()
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), logger, func(a *app) error {
			if err := a.engine.Unshed(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "↩ %s reset to original\n", args[0])
			return nil
		})
	},
}

var tuiCmd = &cobra.Command{
	Use:   "tui",
	Short: "Open the terminal Shed panel",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(settings)
		if err != nil {
			return err
		}
		if err := os.MkdirAll(cfg.Data.Dir, 0o755); err != nil {
			return errors.Wrapf(err, "create data dir %s", cfg.Data.Dir)
		}
		logger, err := logging.NewFile(cfg.Log.Level, filepath.Join(cfg.Data.Dir, "shed.log"))
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), logger, func(a *app) error {
			return tui.Run(cmd.Context(), a.book, a.engine, a.hub)
		})
	},
}

var seedCmd = &cobra.Command{
	Use:   "seed <file.yaml>",
	Short: "Load lorebook entries and story paragraphs from YAML",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		f, err := seed.LoadFile(args[0])
		if err != nil {
			return err
		}
		logger, err := newLogger()
		if err != nil {
			return err
		}
		return withApp(cmd.Context(), logger, func(a *app) error {
			res, err := seed.Apply(cmd.Context(), f, a.book, a.doc, a.engine)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "🐍 seeded %d entries (%d skipped), %d paragraphs\n",
				len(res.Created), len(res.Skipped), res.Paragraphs)
			return nil
		})
	},
}
