package workers

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"

	"github.com/hibiken/asynq"

	"github.com/nikhilbhutani/notiflex/internal/item"
	"github.com/nikhilbhutani/notiflex/internal/queue"
	"github.com/nikhilbhutani/notiflex/internal/storage"
)

type Reextractor interface {
	Reextract(ctx context.Context, payload queue.ItemReextractPayload) error
}

type ReextractWorker struct {
	items Reextractor
}

func NewReextractWorker(items Reextractor) *ReextractWorker {
	return &ReextractWorker{items: items}
}

// ProcessTask runs OCR for one stored item. Payload errors and objects that
// no longer exist are not retried.
func (w *ReextractWorker) ProcessTask(ctx context.Context, t *asynq.Task) error {
	var payload queue.ItemReextractPayload
	if err := json.Unmarshal(t.Payload(), &payload); err != nil {
		return fmt.Errorf("unmarshal payload: %v: %w", err, asynq.SkipRetry)
	}

	slog.Info("re-extracting item", "item_detail_id", payload.ItemDetailID, "key", payload.StorageKey)

	err := w.items.Reextract(ctx, payload)
	switch {
	case err == nil:
		return nil
	case errors.Is(err, item.ErrValidation), errors.Is(err, storage.ErrNotFound):
		return fmt.Errorf("%v: %w", err, asynq.SkipRetry)
	default:
		return err
	}
}
