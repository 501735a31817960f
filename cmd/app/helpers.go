package main

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"strings"

	"github.com/julienschmidt/httprouter"

	"github.com/sushihentaime/nexus/internal/entity"
)

type envelope map[string]any

func (app *application) writeJSON(w http.ResponseWriter, status int, data envelope, headers http.Header) error {
	js, err := json.MarshalIndent(data, "", "\t")
	if err != nil {
		return err
	}

	for key, values := range headers {
		for _, value := range values {
			w.Header().Add(key, value)
		}
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	w.Write(js)

	return nil
}

func (app *application) parseJSON(w http.ResponseWriter, r *http.Request, dst any) error {
	if ct := r.Header.Get("Content-Type"); ct != "" && !strings.HasPrefix(ct, "application/json") {
		return errors.New("request body must be application/json")
	}

	maxBytes := app.config.BodyLimit
	if maxBytes <= 0 {
		maxBytes = 1_048_576
	}
	r.Body = http.MaxBytesReader(w, r.Body, maxBytes)

	decoder := json.NewDecoder(r.Body)
	decoder.DisallowUnknownFields()

	err := decoder.Decode(dst)
	if err != nil {
		var syntaxError *json.SyntaxError
		var unmarshalTypeError *json.UnmarshalTypeError
		var invalidUnmarshalError *json.InvalidUnmarshalError
		var maxBytesError *http.MaxBytesError

		switch {
		case errors.As(err, &syntaxError):
			return fmt.Errorf("request body contains badly-formed JSON (at character %d)", syntaxError.Offset)
		case errors.Is(err, io.ErrUnexpectedEOF):
			return errors.New("request body contains badly-formed JSON")
		case errors.As(err, &unmarshalTypeError):
			if unmarshalTypeError.Field != "" {
				return fmt.Errorf("request body contains an invalid value for the %q field", unmarshalTypeError.Field)
			}
			return fmt.Errorf("request body contains incorrect JSON type (at character %d)", unmarshalTypeError.Offset)
		case errors.Is(err, io.EOF):
			return errors.New("request body must not be empty")
		case strings.HasPrefix(err.Error(), "json: unknown field "):
			fieldName := strings.TrimPrefix(err.Error(), "json: unknown field ")
			return fmt.Errorf("request body contains unknown field %s", fieldName)
		case errors.As(err, &maxBytesError):
			return fmt.Errorf("request body must not be larger than %d bytes", maxBytesError.Limit)
		case errors.As(err, &invalidUnmarshalError):
			panic(err)
		default:
			return err
		}
	}

	err = decoder.Decode(&struct{}{})
	if !errors.Is(err, io.EOF) {
		return errors.New("request body must only contain a single JSON value")
	}

	return nil
}

func (app *application) readParam(r *http.Request, key string) string {
	return httprouter.ParamsFromContext(r.Context()).ByName(key)
}

// readPagination parses the page and limit query parameters. Missing values fall back to
// page 1 and entity.DefaultLimit; limit is capped at entity.MaxLimit.
func (app *application) readPagination(r *http.Request) (int, int, error) {
	qs := r.URL.Query()

	page, limit := 1, entity.DefaultLimit

	if s := qs.Get("page"); s != "" {
		p, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, errors.New("page must be an integer")
		}
		page = max(p, 1)
	}

	if s := qs.Get("limit"); s != "" {
		l, err := strconv.Atoi(s)
		if err != nil {
			return 0, 0, errors.New("limit must be an integer")
		}
		if l > 0 {
			limit = min(l, entity.MaxLimit)
		}
	}

	return page, limit, nil
}

// writePage renders one page of a listing under plural ("blogs") with its totals, or 204
// when the page is empty.
func writePage[T any](app *application, w http.ResponseWriter, r *http.Request, plural string, p entity.Page[T]) {
	if len(p.Items) == 0 {
		w.WriteHeader(http.StatusNoContent)
		return
	}

	env := envelope{
		plural:        p.Items,
		"currentPage": p.CurrentPage,
		"totalPages":  p.TotalPages,
		"total" + strings.ToUpper(plural[:1]) + plural[1:]: p.Total,
	}

	if err := app.writeJSON(w, http.StatusOK, env, nil); err != nil {
		app.serverErrorResponse(w, r, err)
	}
}
