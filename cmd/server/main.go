// Command server runs the attendance HTTP API.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/Natan-Asrat/digital-attendance-backend/internal/app"
	"github.com/Natan-Asrat/digital-attendance-backend/pkg/logger"
)

const (
	shutdownTimeout   = 15 * time.Second
	readHeaderTimeout = 10 * time.Second
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	err := run(ctx, os.Args[1:], os.Stdout)
	switch {
	case err == nil, errors.Is(err, flag.ErrHelp):
	default:
		fmt.Fprintln(os.Stderr, "attendance-server:", err)
		os.Exit(1)
	}
}

type options struct {
	configPath  string
	migrateOnly bool
}

func parseFlags(args []string, out io.Writer) (options, error) {
	var opts options
	fs := flag.NewFlagSet("attendance-server", flag.ContinueOnError)
	fs.SetOutput(out)
	fs.StringVar(&opts.configPath, "config", "", "configuration directory, or a config file inside it")
	fs.BoolVar(&opts.migrateOnly, "migrate", false, "apply schema migrations and exit")
	err := fs.Parse(args)
	return opts, err
}

func run(ctx context.Context, args []string, out io.Writer) error {
	opts, err := parseFlags(args, out)
	if err != nil {
		return err
	}

	cfg, err := loadApplicationConfig(opts.configPath)
	if err != nil {
		return err
	}
	generated, err := app.ApplyRuntimeDefaults(cfg)
	if err != nil {
		return err
	}
	if err := app.ConfigureLogging(cfg.Log); err != nil {
		return fmt.Errorf("configure logging: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	log := logger.WithModule("bootstrap")
	if opts.migrateOnly {
		db, err := initialiseDatabase(cfg)
		if err != nil {
			return err
		}
		log.Info("migrations applied")
		return closeDatabase(db)
	}

	for key := range generated {
		log.Warn("secret not configured, using a generated value kept in system settings", zap.String("key", key))
	}

	stack, err := bootstrapRuntime(ctx, cfg, generated, log)
	if err != nil {
		return err
	}
	defer func() {
		if err := stack.Shutdown(context.Background()); err != nil {
			log.Warn("runtime shutdown", zap.Error(err))
		}
	}()

	return serve(ctx, &http.Server{
		Addr:              ":" + strconv.Itoa(cfg.Server.Port),
		Handler:           stack.Router,
		ReadHeaderTimeout: readHeaderTimeout,
	}, log)
}

// serve runs srv until ctx is cancelled, then drains in-flight requests.
func serve(ctx context.Context, srv *http.Server, log *zap.Logger) error {
	g, gctx := errgroup.WithContext(ctx)

	g.Go(func() error {
		log.Info("server listening", zap.String("addr", srv.Addr))
		if err := srv.ListenAndServe(); !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		log.Info("shutting down")
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()
		if err := srv.Shutdown(shutdownCtx); err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	})

	if err := g.Wait(); err != nil {
		return err
	}
	log.Info("server stopped")
	return nil
}

// loadApplicationConfig accepts an empty path (search ./config), a directory or
// a file whose directory holds config.yaml.
func loadApplicationConfig(path string) (*app.Config, error) {
	if path == "" {
		return app.LoadConfig()
	}
	info, err := os.Stat(path)
	if err != nil {
		return nil, fmt.Errorf("config path %q: %w", path, err)
	}
	if !info.IsDir() {
		path = filepath.Dir(path)
	}
	return app.LoadConfig(path)
}
