package main

import (
	"context"
	"expvar"
	"fmt"
	"log"
	"net/http"
	_ "net/http/pprof"
	"os"
	"os/signal"
	"syscall"

	"golang.org/x/sync/errgroup"

	dig_container "github.com/trezcool/bursar/apps/api/di/dig"
	echoapi "github.com/trezcool/bursar/apps/api/echo"
	"github.com/trezcool/bursar/core"
	"github.com/trezcool/bursar/storage/database"
)

func main() {
	c := dig_container.New()
	if err := c.Invoke(run); err != nil {
		log.Fatal(err)
	}
}

func run(
	conf *core.Config,
	apiLogger core.Logger,
	repos *database.Repositories,
	closeEvents dig_container.EventsCloser,
	server *echoapi.Server,
) error {
	// =========================================================================
	// Initialize App

	apiLogger.Info(fmt.Sprintf("Application initializing : env %q, database %q", conf.Env, conf.Database.Engine))

	defer func() {
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()
		if err := repos.Close(ctx); err != nil {
			apiLogger.Error("closing database", err)
		}
		if err := closeEvents(); err != nil {
			apiLogger.Error("closing event publisher", err)
		}
		apiLogger.Info("Application stopped")
	}()

	signal.Notify(server.ShutdownSignal(), os.Interrupt, syscall.SIGTERM)
	g, gctx := errgroup.WithContext(context.Background())

	// =========================================================================
	// Start Debug Service
	//
	// /debug/pprof - Added to the default mux by importing the net/http/pprof package.
	// /debug/vars - Added to the default mux by importing the expvar package.

	// Expose important info under /debug/vars.
	expvar.NewString("env").Set(conf.Env)
	expvar.NewString("database").Set(conf.Database.Engine)

	debug := &http.Server{Addr: conf.Server.DebugAddress, Handler: http.DefaultServeMux}
	g.Go(func() error {
		if err := debug.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			apiLogger.Error(fmt.Sprintf("debug server closed: %v", err), err)
		}
		return nil
	})

	// =========================================================================
	// Start API Service

	g.Go(server.Start)

	// =========================================================================
	// Shutdown

	g.Go(func() error {
		select {
		case sig := <-server.ShutdownSignal():
			apiLogger.Info(fmt.Sprintf("%v: Start shutdown...", sig))
		case <-gctx.Done():
			apiLogger.Warn("API server stopped, shutting down...")
		}

		// give outstanding requests a deadline for completion
		ctx, cancel := context.WithTimeout(context.Background(), conf.Server.ShutdownTimeout)
		defer cancel()

		_ = debug.Shutdown(ctx)
		// asking listener to shut down and shed load
		if err := server.Shutdown(ctx); err != nil {
			apiLogger.Error(fmt.Sprintf("could not stop server gracefully: %v", err), err)
			if err = server.Close(); err != nil {
				return fmt.Errorf("could not force stop server: %w", err)
			}
		}
		return nil
	})

	return g.Wait()
}
