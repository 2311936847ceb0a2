package main

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"time"
)

const shutdownTimeout = 30 * time.Second

func (app *application) newServer() *http.Server {
	return &http.Server{
		Addr:         net.JoinHostPort("", app.config.Port),
		Handler:      app.routes(),
		ReadTimeout:  10 * time.Second,
		WriteTimeout: 30 * time.Second,
		IdleTimeout:  120 * time.Second,
		ErrorLog:     slog.NewLogLogger(app.logger.Handler(), slog.LevelError),
	}
}

func (app *application) listen(srv *http.Server) error {
	if app.config.Environment == "production" {
		return srv.ListenAndServeTLS(app.config.TLSCertFile, app.config.TLSKeyFile)
	}
	return srv.ListenAndServe()
}

// serve runs the API until ctx is done, then drains in-flight requests and
// stops the welcome mail consumer.
func (app *application) serve(ctx context.Context) error {
	srv := app.newServer()

	listenErr := make(chan error, 1)
	go func() {
		app.logger.Info("starting server", slog.String("addr", srv.Addr), slog.String("env", app.config.Environment), slog.Bool("rate_limit", app.limiter != nil))
		listenErr <- app.listen(srv)
	}()

	select {
	case err := <-listenErr:
		return err
	case <-ctx.Done():
	}

	app.logger.Info("shutting down server", slog.String("cause", context.Cause(ctx).Error()))

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	err := srv.Shutdown(shutdownCtx)
	if app.mailService != nil {
		app.mailService.Close()
	}
	if err != nil {
		return err
	}

	if err := <-listenErr; !errors.Is(err, http.ErrServerClosed) {
		return err
	}

	app.logger.Info("stopped server", slog.String("addr", srv.Addr))

	return nil
}
