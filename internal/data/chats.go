package data

import (
	"context"
	"errors"
	"fmt"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

// ParticipantsIndexName is the name MongoDB derives for the
// (participants 1, updatedAt -1) index.
const ParticipantsIndexName = "participants_1_updatedAt_-1"

// Server error codes tolerated while repairing indexes.
const (
	codeNamespaceNotFound = 26
	codeIndexNotFound     = 27
)

// ChatsStore maintains the chats collection.
type ChatsStore struct {
	coll *mongo.Collection
}

// NewChatsStore returns a ChatsStore using the provided collection.
func NewChatsStore(coll *mongo.Collection) *ChatsStore {
	return &ChatsStore{coll: coll}
}

// IndexRepair describes what RepairParticipantsIndex changed.
type IndexRepair struct {
	Dropped []string
	Ensured string
}

// participantsIndex is the non-unique compound index chat listings rely on.
func participantsIndex() mongo.IndexModel {
	return mongo.IndexModel{
		Keys: bson.D{{Key: "participants", Value: 1}, {Key: "updatedAt", Value: -1}},
		Options: options.Index().
			SetName(ParticipantsIndexName),
	}
}

// isLegacyParticipantsIndex reports whether spec is a unique index on
// participants alone. Many chats share a participant, so such an index
// rejects valid documents.
func isLegacyParticipantsIndex(spec mongo.IndexSpecification) (bool, error) {
	if spec.Unique == nil || !*spec.Unique {
		return false, nil
	}
	var keys bson.D
	if err := bson.Unmarshal(spec.KeysDocument, &keys); err != nil {
		return false, fmt.Errorf("decode keys of index %s: %w", spec.Name, err)
	}
	return len(keys) == 1 && keys[0].Key == "participants", nil
}

func hasCode(err error, code int32) bool {
	var ce mongo.CommandError
	if errors.As(err, &ce) {
		return ce.Code == code
	}
	return false
}

// RepairParticipantsIndex drops any unique index on participants alone and
// ensures the compound index exists. Running it again changes nothing.
func (c *ChatsStore) RepairParticipantsIndex(ctx context.Context) (IndexRepair, error) {
	var repair IndexRepair

	specs, err := c.coll.Indexes().ListSpecifications(ctx)
	if err != nil && !hasCode(err, codeNamespaceNotFound) {
		return repair, fmt.Errorf("list chats indexes: %w", err)
	}

	for _, spec := range specs {
		legacy, err := isLegacyParticipantsIndex(spec)
		if err != nil {
			return repair, err
		}
		if !legacy {
			continue
		}
		// Someone else may have dropped it between list and drop
		if err := c.coll.Indexes().DropOne(ctx, spec.Name); err != nil && !hasCode(err, codeIndexNotFound) {
			return repair, fmt.Errorf("drop index %s: %w", spec.Name, err)
		}
		repair.Dropped = append(repair.Dropped, spec.Name)
	}

	name, err := c.coll.Indexes().CreateOne(ctx, participantsIndex())
	if err != nil {
		return repair, fmt.Errorf("create index %s: %w", ParticipantsIndexName, err)
	}
	repair.Ensured = name

	return repair, nil
}
