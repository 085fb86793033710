package main

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"golang.org/x/sync/errgroup"

	"github.com/vyrodovalexey/recommendations/internal/observability"
)

// auxShutdownTimeout bounds shutdown of the metrics server and tracer.
const auxShutdownTimeout = 5 * time.Second

// run starts the gRPC and metrics servers and blocks until ctx is done or a
// server fails, then shuts everything down. A clean drain returns nil.
func (a *application) run(ctx context.Context) error {
	if err := a.server.Start(ctx); err != nil {
		return fmt.Errorf("failed to start gRPC server: %w", err)
	}

	if err := a.startMetricsServer(); err != nil {
		_ = a.server.Shutdown(context.Background())
		return err
	}

	a.logger.Info("recommendations service started",
		observability.String("address", a.server.Addr().String()),
		observability.Int("workers", a.server.Workers()),
	)
	close(a.ready)

	g, gctx := errgroup.WithContext(ctx)

	if a.metricsServer != nil {
		g.Go(func() error {
			if err := a.metricsServer.Serve(a.metricsListener); err != nil && !errors.Is(err, http.ErrServerClosed) {
				return fmt.Errorf("metrics server: %w", err)
			}
			return nil
		})
	}

	g.Go(func() error {
		select {
		case <-gctx.Done():
		case <-a.server.Done():
		}

		if ctx.Err() != nil {
			a.logger.Info("received shutdown signal")
		}

		a.shutdown()

		if ctx.Err() == nil && gctx.Err() == nil {
			return errors.New("gRPC server stopped unexpectedly")
		}
		return nil
	})

	return g.Wait()
}

// shutdown drains the gRPC server and stops auxiliary components.
func (a *application) shutdown() {
	a.healthChecker.SetDraining(true)

	// The gRPC server bounds its own drain with the graceful stop timeout.
	if err := a.server.Shutdown(context.Background()); err != nil {
		a.logger.Error("failed to stop gRPC server", observability.Error(err))
	}

	auxCtx, cancel := context.WithTimeout(context.Background(), auxShutdownTimeout)
	defer cancel()

	if a.metricsServer != nil {
		a.logger.Info("stopping metrics server")
		if err := a.metricsServer.Shutdown(auxCtx); err != nil {
			a.logger.Error("failed to stop metrics server gracefully", observability.Error(err))
		}
	}

	if err := a.tracer.Shutdown(auxCtx); err != nil {
		a.logger.Error("failed to shutdown tracer", observability.Error(err))
	}

	a.logger.Info("recommendations service stopped")
}
