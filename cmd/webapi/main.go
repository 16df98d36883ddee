/*
Webapi is the executable for the main web server.
It wires the chapter management APIs found under `pkg` to an HTTP server.
Webapi connects to external resources (database, upload folders) and starts the API web server.

Usage:

	webapi [flags]

Flags and configurations are handled automatically by the code in `load-configuration.go`.

Return values (exit codes):

	0
		The program ended successfully (no errors, stopped by signal)

	> 0
		The program ended due to an error

Note that this program will apply the embedded database schema on startup, creating missing tables.
*/
package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/amicimag/chapterdesk/pkg/articles"
	"github.com/amicimag/chapterdesk/pkg/auth"
	"github.com/amicimag/chapterdesk/pkg/countries"
	"github.com/amicimag/chapterdesk/pkg/editions"
	"github.com/amicimag/chapterdesk/pkg/embassies"
	"github.com/amicimag/chapterdesk/pkg/events"
	"github.com/amicimag/chapterdesk/pkg/manuals"
	"github.com/amicimag/chapterdesk/pkg/rest"
	"github.com/amicimag/chapterdesk/pkg/storage/sqlite"
	"github.com/amicimag/chapterdesk/pkg/storage/uploads"
	"github.com/amicimag/chapterdesk/pkg/users"
	"github.com/ardanlabs/conf"
	_ "github.com/mattn/go-sqlite3"
	"github.com/sirupsen/logrus"
)

// main is the program entry point. The only purpose of this function is to call run() and set the exit code if there is
// any error
func main() {
	if err := run(); err != nil {
		_, _ = fmt.Fprintln(os.Stderr, "error: ", err)
		os.Exit(1)
	}
}

// run executes the program. The body of this function should perform the following steps:
// * reads the configuration
// * creates and configure the logger
// * connects to any external resources (like databases, upload folders, etc.)
// * registers the API handlers
// * starts the principal web server
// * waits for any termination event: SIGTERM signal (UNIX), non-recoverable server error, etc.
// * closes the principal web server
func run() error {
	// Load Configuration and defaults
	cfg, err := loadConfiguration()
	if err != nil {
		if errors.Is(err, conf.ErrHelpWanted) {
			return nil
		}
		return err
	}

	// Init logging
	logger := logrus.New()
	logger.SetOutput(os.Stdout)
	if cfg.Debug {
		logger.SetLevel(logrus.DebugLevel)
	} else {
		logger.SetLevel(logrus.InfoLevel)
	}

	logger.Infof("application initializing")

	// initialise database before registering handlers for an immediate exit in case of issues
	storage, err := sqlite.New(logger, cfg.DB.Filename)
	if err != nil {
		logger.WithError(err).Error("error initialising storage")
		return fmt.Errorf("error while initialising storage: %w", err)
	}
	defer storage.Close()

	// ensure upload folders exist before accepting requests
	uploadStore, err := uploads.New(logger, uploads.Folders{
		Articles:  cfg.Uploads.Articles,
		Manuals:   cfg.Uploads.Manuals,
		Embassies: cfg.Uploads.Embassies,
		Users:     cfg.Uploads.Users,
	})
	if err != nil {
		logger.WithError(err).Error("error initialising upload folders")
		return fmt.Errorf("error while initialising upload folders: %w", err)
	}

	// setup repositories
	var sessionsRepository = auth.NewSessionRepository(storage.Connection, cfg.Sessions.Duration)
	var usersRepository = users.NewRepository(storage.Connection)
	var countriesRepository = countries.NewRepository(storage.Connection)
	var editionsRepository = editions.NewRepository(storage.Connection)
	var articlesRepository = articles.NewRepository(storage.Connection)
	var eventsRepository = events.NewRepository(storage.Connection)
	var manualsRepository = manuals.NewRepository(storage.Connection)
	var embassiesRepository = embassies.NewRepository(storage.Connection)

	// seed the database with an initial administrator and countries on first run
	if cfg.Seed != "" {
		if err = applySeed(logger, cfg.Seed, usersRepository, countriesRepository); err != nil {
			logger.WithError(err).Error("error seeding database")
			return fmt.Errorf("seeding database: %w", err)
		}
	}

	// edition folders are provisioned remotely when a provider URL is configured
	var folderProvider editions.FolderProvider = editions.NullFolderProvider{}
	if cfg.Folders.URL != "" {
		folderProvider = editions.NewHTTPFolderProvider(cfg.Folders.URL, cfg.Folders.Timeout)
	}

	// Start (main) API server
	logger.Info("initializing API server")

	// Make a channel to listen for an interrupt or terminate signal from the OS.
	// Use a buffered channel because the signal package requires it.
	shutdown := make(chan os.Signal, 1)
	signal.Notify(shutdown, os.Interrupt, syscall.SIGTERM)

	// Make a channel to listen for errors coming from the listener. Use a
	// buffered channel so the goroutine can exit if we don't collect this error.
	serverErrors := make(chan error, 1)

	e, err := rest.New(rest.Config{
		Logger: logger,
	})
	if err != nil {
		logger.WithError(err).Error("error creating the API server instance")
		return fmt.Errorf("creating the API server instance: %w", err)
	}

	// tag each request with an identifier and log its outcome
	e.Use(rest.RequestLogger(logger))

	// setup handlers
	auth.RegisterHandlers(e, sessionsRepository)
	users.RegisterHandlers(e, usersRepository, sessionsRepository, uploadStore)
	countries.RegisterHandlers(e, countriesRepository, sessionsRepository)
	editions.RegisterHandlers(e, editionsRepository, folderProvider, sessionsRepository)
	articles.RegisterHandlers(e, articlesRepository, sessionsRepository, uploadStore)
	events.RegisterHandlers(e, eventsRepository, sessionsRepository)
	manuals.RegisterHandlers(e, manualsRepository, sessionsRepository, uploadStore)
	embassies.RegisterHandlers(e, embassiesRepository, sessionsRepository, uploadStore)

	// publicly reachable uploads; manuals are served through their role gated endpoint instead
	e.ServeFiles("/static/articles/*filepath", http.Dir(cfg.Uploads.Articles))
	e.ServeFiles("/static/embassies/*filepath", http.Dir(cfg.Uploads.Embassies))
	e.ServeFiles("/static/users/*filepath", http.Dir(cfg.Uploads.Users))

	// Apply CORS policy
	handler := applyCORSHandler(e.Handler(), cfg.Web.CORSOrigins)

	// create the API server
	server := http.Server{
		Addr:              cfg.Web.APIHost,
		Handler:           handler,
		ReadTimeout:       cfg.Web.ReadTimeout,
		ReadHeaderTimeout: cfg.Web.ReadTimeout,
		WriteTimeout:      cfg.Web.WriteTimeout,
	}

	// Start the service listening for requests in a separate goroutine
	go func() {
		logger.Infof("API listening on %s", server.Addr)
		serverErrors <- server.ListenAndServe()
		logger.Infof("stopping API server")
	}()

	// Waiting for shutdown signal or POSIX signals
	select {
	case err := <-serverErrors:
		// Non-recoverable server error
		return fmt.Errorf("server error: %w", err)

	case sig := <-shutdown:
		logger.Infof("signal %v received, start shutdown", sig)

		// Give outstanding requests a deadline for completion.
		ctx, cancel := context.WithTimeout(context.Background(), cfg.Web.ShutdownTimeout)
		defer cancel()

		// Asking listener to shut down and load shed.
		err = server.Shutdown(ctx)
		if err != nil {
			logger.WithError(err).Warning("error during graceful shutdown of HTTP server")
			err = server.Close()
		}

		if err != nil {
			return fmt.Errorf("could not stop server gracefully: %w", err)
		}
	}

	return nil
}
