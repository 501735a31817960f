package asset

import (
	"context"
	"errors"
	"log/slog"
	"path"
	"time"

	"github.com/sony/gobreaker"
)

// Adapter turns a Backend into a Store: it prefixes keys with the configured folder, trips a
// circuit breaker after repeated host failures and reports failures as UploadError/DeleteError.
type Adapter struct {
	backend Backend
	folder  string
	cb      *gobreaker.CircuitBreaker
}

func NewAdapter(backend Backend, folder string, logger *slog.Logger) *Adapter {
	st := gobreaker.Settings{
		Name:        "AssetStore",
		MaxRequests: 1,
		Interval:    10 * time.Second,
		Timeout:     30 * time.Second,
		ReadyToTrip: func(counts gobreaker.Counts) bool {
			failureRatio := float64(counts.TotalFailures) / float64(counts.Requests)
			return counts.Requests >= 5 && failureRatio >= 0.5
		},
		// A payload the host cannot take says nothing about the host's health.
		IsSuccessful: func(err error) bool {
			return err == nil || errors.Is(err, ErrUnsupportedPayload)
		},
		OnStateChange: func(name string, from gobreaker.State, to gobreaker.State) {
			logger.Warn("circuit breaker state changed", slog.String("name", name), slog.String("from", from.String()), slog.String("to", to.String()))
		},
	}

	return &Adapter{
		backend: backend,
		folder:  folder,
		cb:      gobreaker.NewCircuitBreaker(st),
	}
}

func (a *Adapter) key(id string) string {
	if a.folder == "" {
		return id
	}
	return path.Join(a.folder, id)
}

// Upload stores payload under id and returns its public URL.
func (a *Adapter) Upload(ctx context.Context, payload, id string) (string, error) {
	url, err := a.cb.Execute(func() (interface{}, error) {
		return a.backend.Put(ctx, a.key(id), payload)
	})
	if err != nil {
		return "", &UploadError{ID: id, Err: err}
	}

	return url.(string), nil
}

// Delete removes the asset stored under id. Removing an unknown id succeeds.
func (a *Adapter) Delete(ctx context.Context, id string) error {
	_, err := a.cb.Execute(func() (interface{}, error) {
		return nil, a.backend.Remove(ctx, a.key(id))
	})
	if err != nil {
		return &DeleteError{ID: id, Err: err}
	}

	return nil
}
