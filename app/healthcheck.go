package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/sushihentaime/inkpost/internal/common"
)

const healthCheckTimeout = 2 * time.Second

// dependencyCheck reports whether one backing dependency of the API is reachable.
type dependencyCheck struct {
	name  string
	check func(ctx context.Context) error
}

func cacheCheck(c common.Cache) dependencyCheck {
	return dependencyCheck{
		name: "cache",
		check: func(ctx context.Context) error {
			_, err := c.Get(ctx, "healthcheck")
			if errors.Is(err, common.ErrCacheMiss) {
				return nil
			}
			return err
		},
	}
}

func (app *application) healthCheckHandler(w http.ResponseWriter, r *http.Request) {
	ctx, cancel := context.WithTimeout(r.Context(), healthCheckTimeout)
	defer cancel()

	status, code := "available", http.StatusOK
	dependencies := make(map[string]string, len(app.checks))
	for _, dep := range app.checks {
		if err := dep.check(ctx); err != nil {
			app.logger.Warn("dependency check failed", slog.String("dependency", dep.name), slog.String("error", err.Error()))
			dependencies[dep.name] = "unavailable"
			status, code = "degraded", http.StatusServiceUnavailable
			continue
		}
		dependencies[dep.name] = "ok"
	}

	env := envelope{
		"status": status,
		"system_info": map[string]string{
			"environment":   app.config.Environment,
			"version":       app.config.Version,
			"cache_backend": app.config.CacheBackend,
		},
		"dependencies": dependencies,
		"rate_limit":   app.limiter != nil,
	}

	err := app.writeJSON(w, code, env, nil)
	if err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
