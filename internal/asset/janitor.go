package asset

import (
	"context"
	"encoding/json"
	"log/slog"
	"time"

	"golang.org/x/exp/rand"

	"github.com/sushihentaime/nexus/internal/common"
)

// Releaser disposes of an asset an entity no longer references.
type Releaser interface {
	Release(ctx context.Context, id string) error
}

// DirectReleaser deletes released assets right away.
type DirectReleaser struct {
	Store Store
}

func (r DirectReleaser) Release(ctx context.Context, id string) error {
	return r.Store.Delete(ctx, id)
}

// released is the message body published for every released asset.
type released struct {
	PublicID string `json:"public_id"`
}

// BrokerReleaser hands released assets to the janitor through the message broker.
type BrokerReleaser struct {
	MB common.MessageProducer
}

func (r BrokerReleaser) Release(ctx context.Context, id string) error {
	body, err := json.Marshal(released{PublicID: id})
	if err != nil {
		return err
	}

	return r.MB.Publish(ctx, body, common.AssetReleasedKey, common.ContentExchange)
}

// Janitor consumes released assets and deletes them from the store, retrying with
// exponential backoff and jitter.
type Janitor struct {
	mb        common.MessageConsumer
	store     Store
	logger    *slog.Logger
	ctx       context.Context
	cancel    context.CancelFunc
	retries   int
	baseDelay time.Duration
}

func NewJanitor(mb common.MessageConsumer, store Store, logger *slog.Logger) *Janitor {
	ctx, cancel := context.WithCancel(context.Background())
	return &Janitor{
		mb:        mb,
		store:     store,
		logger:    logger,
		ctx:       ctx,
		cancel:    cancel,
		retries:   5,
		baseDelay: 500 * time.Millisecond,
	}
}

// Start begins consuming in a background goroutine until Close is called.
func (j *Janitor) Start() error {
	msgs, err := j.mb.Consume(common.AssetReleasedKey, common.ContentExchange, common.AssetReleasedQueue)
	if err != nil {
		return err
	}

	go func() {
		for {
			select {
			case msg, ok := <-msgs:
				if !ok {
					return
				}

				var data released
				if err := json.Unmarshal(msg.Body, &data); err != nil || data.PublicID == "" {
					j.logger.Error("could not unmarshal released asset", slog.Any("error", err))
					msg.Ack(false)
					continue
				}

				j.remove(data.PublicID)
				msg.Ack(false)

			case <-j.ctx.Done():
				j.logger.Info("stopping asset janitor due to context cancellation")
				return
			}
		}
	}()

	return nil
}

func (j *Janitor) remove(id string) {
	for attempt := 0; attempt < j.retries; attempt++ {
		err := j.store.Delete(j.ctx, id)
		if err == nil {
			j.logger.Info("released asset deleted", slog.String("public_id", id))
			return
		}

		delay := time.Duration(rand.Int63n(int64(j.baseDelay) << uint(attempt)))
		j.logger.Info("delaying asset delete", slog.String("public_id", id), slog.Int("attempt", attempt), slog.Duration("delay", delay), slog.String("error", err.Error()))

		select {
		case <-time.After(delay):
		case <-j.ctx.Done():
			return
		}
	}

	j.logger.Error("could not delete released asset", slog.String("public_id", id))
}

func (j *Janitor) Close() {
	j.cancel()
}
