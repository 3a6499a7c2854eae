// Command nmrserved serves the scan and document API over HTTP.
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
	"syscall"
	"time"

	"nmrcore/internal/adapters/api"
	"nmrcore/internal/blob"
	"nmrcore/internal/catalog"
	"nmrcore/internal/infra/persistence"
	"nmrcore/internal/scan"
	"nmrcore/internal/zaplog"
)

const shutdownTimeout = 10 * time.Second

var exitFunc = os.Exit

type options struct {
	listen      string
	catalogPath string
	storeDriver string
	storeDSN    string
	blobDriver  string
	blobRoot    string
	dev         bool
}

func main() {
	code := cli(os.Args[1:], os.Stdout, os.Stderr)
	exitFunc(code)
}

func cli(args []string, stdout, stderr io.Writer) int {
	fs := flag.NewFlagSet("nmrserved", flag.ContinueOnError)
	fs.SetOutput(stderr)

	var opts options
	fs.StringVar(&opts.listen, "listen", ":8080", "address to serve HTTP on")
	fs.StringVar(&opts.catalogPath, "catalog", "", "experiment catalog YAML (built-in catalog when empty)")
	fs.StringVar(&opts.storeDriver, "store-driver", "", "run registry backend: memory, sqlite or postgres")
	fs.StringVar(&opts.storeDSN, "store-dsn", "", "sqlite path or postgres DSN for the run registry")
	fs.StringVar(&opts.blobDriver, "blob-driver", "", "document store backend: fs, s3 or memory")
	fs.StringVar(&opts.blobRoot, "blob-root", "", "root directory for the fs document store")
	fs.BoolVar(&opts.dev, "dev", false, "console logging for local development")

	if err := fs.Parse(args); err != nil {
		return 2
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	if err := run(ctx, opts); err != nil {
		fmt.Fprintf(stderr, "nmrserved: %v\n", err)
		return 1
	}
	return 0
}

func run(ctx context.Context, opts options) error {
	logger, err := zaplog.New(opts.dev)
	if err != nil {
		return fmt.Errorf("build logger: %w", err)
	}
	defer func() { _ = logger.Sync() }()

	handler, cleanup, err := buildHandler(ctx, opts, logger)
	if err != nil {
		return err
	}
	defer cleanup()

	srv := &http.Server{
		Addr:         opts.listen,
		Handler:      handler,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	logger.Info("server listening", "addr", opts.listen)
	err = serve(ctx, srv)
	if err == nil {
		logger.Info("server stopped")
	}
	return err
}

// buildHandler wires the catalog, run registry, document store and metrics
// into the HTTP handler. The returned cleanup closes the registry.
func buildHandler(ctx context.Context, opts options, logger scan.Logger) (*api.Handler, func(), error) {
	cat, err := catalog.LoadOrDefault(opts.catalogPath)
	if err != nil {
		return nil, nil, err
	}

	store, err := persistence.Open(persistence.Driver(opts.storeDriver), opts.storeDSN)
	if err != nil {
		return nil, nil, err
	}

	var documents blob.Store
	if opts.blobDriver == "" && opts.blobRoot == "" {
		documents, err = blob.Open(ctx)
	} else {
		driver := blob.Driver(opts.blobDriver)
		if driver == "" {
			driver = blob.DriverFilesystem
		}
		documents, err = blob.OpenDriver(ctx, driver, opts.blobRoot)
	}
	if err != nil {
		_ = store.Close()
		return nil, nil, err
	}

	handler := api.NewHandler(cat, store)
	handler.Documents = documents
	handler.Metrics = api.NewPrometheusMetrics()
	handler.Logger = logger

	cleanup := func() { _ = store.Close() }
	return handler, cleanup, nil
}

// serve runs the server until the context is cancelled, then drains it. A
// listen failure is returned immediately.
func serve(ctx context.Context, srv *http.Server) error {
	errCh := make(chan error, 1)
	go func() {
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
