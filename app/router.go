package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/sushihentaime/inkpost/internal/userservice"
)

var writers = []userservice.Role{userservice.RoleAdmin, userservice.RoleEditor}

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/v1/healthcheck", app.healthCheckHandler)
	router.Handler(http.MethodGet, "/metrics", promhttp.Handler())

	// user service
	router.HandlerFunc(http.MethodPost, "/v1/users/register", app.registerUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/login", app.loginUserHandler)
	router.HandlerFunc(http.MethodPost, "/v1/users/logout", app.requireAuthUser(app.logoutUserHandler))
	router.HandlerFunc(http.MethodGet, "/v1/users/me", app.requireAuthUser(app.currentUserHandler))

	// blog service
	router.HandlerFunc(http.MethodGet, "/v1/blogs", app.getBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/v1/blogs", app.requireRole(app.createBlogHandler, writers...))
	router.HandlerFunc(http.MethodGet, "/v1/blogs/:id", app.getBlogHandler)
	router.HandlerFunc(http.MethodPut, "/v1/blogs/:id", app.requireRole(app.updateBlogHandler, writers...))
	router.HandlerFunc(http.MethodDelete, "/v1/blogs/:id", app.requireRole(app.deleteBlogHandler, writers...))

	return app.recoverPanic(app.metrics(app.logRequest(app.authenticate(app.rateLimit(router)))))
}
