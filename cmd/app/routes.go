package main

import (
	"net/http"

	"github.com/julienschmidt/httprouter"
)

func (app *application) routes() http.Handler {
	router := httprouter.New()

	router.NotFound = http.HandlerFunc(app.notFoundErrorResponse)
	router.MethodNotAllowed = http.HandlerFunc(app.methodNotAllowedErrorResponse)

	router.HandlerFunc(http.MethodGet, "/api/v1/healthcheck", app.healthCheckHandler)

	// blog service
	router.HandlerFunc(http.MethodGet, "/api/v1/blogs", app.getAllBlogsHandler)
	router.HandlerFunc(http.MethodPost, "/api/v1/blogs/create", app.createBlogHandler)
	router.HandlerFunc(http.MethodPut, "/api/v1/blogs/update", app.updateBlogHandler)
	router.HandlerFunc(http.MethodDelete, "/api/v1/blogs/delete", app.deleteBlogHandler)
	router.HandlerFunc(http.MethodGet, "/api/v1/blogs/:slug", app.getBlogHandler)

	// review service
	router.HandlerFunc(http.MethodGet, "/api/v1/review", app.getAllReviewsHandler)
	router.HandlerFunc(http.MethodPost, "/api/v1/review/create", app.createReviewHandler)
	router.HandlerFunc(http.MethodPut, "/api/v1/review/update", app.updateReviewHandler)
	router.HandlerFunc(http.MethodDelete, "/api/v1/review/delete", app.deleteReviewHandler)
	router.HandlerFunc(http.MethodGet, "/api/v1/review/:id", app.getReviewHandler)

	// user service
	router.HandlerFunc(http.MethodGet, "/api/v1/users", app.getAllUsersHandler)
	router.HandlerFunc(http.MethodPost, "/api/v1/users/create", app.createUserHandler)
	router.HandlerFunc(http.MethodPut, "/api/v1/users/update", app.updateUserHandler)
	router.HandlerFunc(http.MethodPut, "/api/v1/users/password", app.changePasswordHandler)
	router.HandlerFunc(http.MethodDelete, "/api/v1/users/delete", app.deleteUserHandler)
	router.HandlerFunc(http.MethodGet, "/api/v1/users/:id", app.getUserHandler)

	router.ServeFiles("/public/*filepath", http.Dir(app.config.PublicDir))

	return app.recoverPanic(app.logRequest(app.enableCORS(app.rateLimit(router))))
}
