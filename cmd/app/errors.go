package main

import (
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/sushihentaime/nexus/internal/asset"
	"github.com/sushihentaime/nexus/internal/common"
	"github.com/sushihentaime/nexus/internal/entity"
	"github.com/sushihentaime/nexus/internal/userservice"
)

const fallbackMessage = "Oops!!! something went wrong. Try again"

func (app *application) logError(r *http.Request, err error) {
	var (
		method  = r.Method
		url     = r.URL.RequestURI()
		message = err.Error()
	)

	app.logger.Error(message, slog.String("method", method), slog.String("url", url))
}

func (app *application) writeErrorResponse(w http.ResponseWriter, r *http.Request, status int, message string, extra envelope) {
	env := envelope{"message": message}
	for k, v := range extra {
		env[k] = v
	}

	err := app.writeJSON(w, status, env, nil)
	if err != nil {
		app.logError(r, err)
		w.WriteHeader(http.StatusInternalServerError)
	}
}

// serviceErrorResponse maps an error returned by a service to its response.
func (app *application) serviceErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	var (
		validationErr common.ValidationError
		uploadErr     *asset.UploadError
		deleteErr     *asset.DeleteError
	)

	switch {
	case errors.As(err, &validationErr):
		app.failedValidationErrorResponse(w, r, validationErr)
	case errors.Is(err, entity.ErrConflict):
		app.writeErrorResponse(w, r, http.StatusConflict, err.Error(), nil)
	case errors.Is(err, entity.ErrNotFound):
		app.writeErrorResponse(w, r, http.StatusNotFound, err.Error(), nil)
	case errors.Is(err, userservice.ErrPasswordMismatch):
		app.writeErrorResponse(w, r, http.StatusUnauthorized, "Current password does not match", nil)
	case errors.Is(err, asset.ErrUnsupportedPayload):
		app.failedValidationErrorResponse(w, r, common.ValidationError{Errors: map[string]string{
			"image": "must be a base64 encoded image or data URI",
		}})
	case errors.As(err, &uploadErr), errors.As(err, &deleteErr):
		app.logError(r, err)
		app.writeErrorResponse(w, r, http.StatusBadGateway, err.Error(), nil)
	default:
		app.serverErrorResponse(w, r, err)
	}
}

func (app *application) serverErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.logError(r, err)

	message := fallbackMessage
	if err != nil && err.Error() != "" {
		message = err.Error()
	}
	app.writeErrorResponse(w, r, http.StatusInternalServerError, message, nil)
}

func (app *application) badRequestErrorResponse(w http.ResponseWriter, r *http.Request, err error) {
	app.writeErrorResponse(w, r, http.StatusBadRequest, err.Error(), nil)
}

func (app *application) failedValidationErrorResponse(w http.ResponseWriter, r *http.Request, err common.ValidationError) {
	message := "Invalid or missing fields: " + strings.Join(err.Fields(), ", ")
	app.writeErrorResponse(w, r, http.StatusBadRequest, message, envelope{"errors": err.Errors})
}

func (app *application) notFoundErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusNotFound, "resource not found", nil)
}

func (app *application) methodNotAllowedErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusMethodNotAllowed, "method not allowed", nil)
}

func (app *application) corsErrorResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusForbidden, "Not Allowed By CORS", nil)
}

func (app *application) rateLimitExceededResponse(w http.ResponseWriter, r *http.Request) {
	app.writeErrorResponse(w, r, http.StatusTooManyRequests, "rate limit exceeded", nil)
}
