package migrate

import (
	"context"
	"fmt"
	"strings"

	"github.com/giahuy0968/GrowNet-sub001/internal/data"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
)

// RepairParticipantsIndex replaces the unique participants index on chats
// with the non-unique (participants, updatedAt desc) compound index.
type RepairParticipantsIndex struct{}

func (RepairParticipantsIndex) Name() string { return "repair-participants-index" }

func (RepairParticipantsIndex) Apply(ctx context.Context, c *db.Client) (Result, error) {
	repair, err := data.NewChatsStore(c.Chats()).RepairParticipantsIndex(ctx)
	res := Result{Modified: int64(len(repair.Dropped))}
	if err != nil {
		return res, err
	}

	dropped := "none"
	if len(repair.Dropped) > 0 {
		dropped = strings.Join(repair.Dropped, ", ")
	}
	res.Detail = fmt.Sprintf("dropped: %s; ensured: %s", dropped, repair.Ensured)
	return res, nil
}

// EnsureIndexes creates the baseline users and messages indexes.
type EnsureIndexes struct{}

func (EnsureIndexes) Name() string { return "ensure-indexes" }

func (EnsureIndexes) Apply(ctx context.Context, c *db.Client) (Result, error) {
	if err := c.EnsureIndexes(ctx); err != nil {
		return Result{}, err
	}
	return Result{Detail: "users: email_1, username_1; messages: chatId_1_createdAt_-1"}, nil
}
