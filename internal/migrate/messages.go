package migrate

import (
	"context"
	"fmt"

	"github.com/giahuy0968/GrowNet-sub001/internal/data"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
)

// MessageSteps returns the message schema migration in the order it must
// run.
func MessageSteps() []Step {
	return []Step{BackfillReadBy{}, DefaultMessageType{}, BackfillTimestamps{}}
}

// BackfillReadBy marks legacy messages as read by their sender.
type BackfillReadBy struct{}

func (BackfillReadBy) Name() string { return "backfill-read-by" }

func (BackfillReadBy) Apply(ctx context.Context, c *db.Client) (Result, error) {
	store := data.NewMessagesStore(c.Messages())

	counts, err := store.BackfillReadBy(ctx)
	if err != nil {
		return Result{}, err
	}
	res := fromCounts(counts)

	if res.Skipped, err = store.CountUnattributed(ctx); err != nil {
		return res, err
	}
	if res.Skipped > 0 {
		res.Detail = fmt.Sprintf("%d messages have no senderId; readBy left absent", res.Skipped)
	}
	return res, nil
}

// DefaultMessageType types legacy messages as text.
type DefaultMessageType struct{}

func (DefaultMessageType) Name() string { return "default-message-type" }

func (DefaultMessageType) Apply(ctx context.Context, c *db.Client) (Result, error) {
	counts, err := data.NewMessagesStore(c.Messages()).DefaultType(ctx)
	if err != nil {
		return Result{}, err
	}
	return fromCounts(counts), nil
}

// BackfillTimestamps derives createdAt/updatedAt from the legacy sentAt.
// Messages carrying neither createdAt nor sentAt are left unchanged and
// reported as skipped: no timestamp can be inferred for them.
type BackfillTimestamps struct{}

func (BackfillTimestamps) Name() string { return "backfill-timestamps" }

func (BackfillTimestamps) Apply(ctx context.Context, c *db.Client) (Result, error) {
	store := data.NewMessagesStore(c.Messages())

	counts, err := store.BackfillTimestamps(ctx)
	if err != nil {
		return Result{}, err
	}
	res := fromCounts(counts)

	if res.Skipped, err = store.CountUndated(ctx); err != nil {
		return res, err
	}
	if res.Skipped > 0 {
		res.Detail = fmt.Sprintf("%d messages have neither createdAt nor sentAt; left undated", res.Skipped)
	}
	return res, nil
}
