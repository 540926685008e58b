package data

import (
	"context"

	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
)

// MessagesStore runs the message schema backfills.
type MessagesStore struct {
	// coll is reference to "messages" collection in MongoDB
	coll *mongo.Collection
}

// NewMessagesStore returns a MessagesStore using given collection.
func NewMessagesStore(coll *mongo.Collection) *MessagesStore {
	return &MessagesStore{coll: coll}
}

// Filters select only documents still in the legacy shape, so a second run
// of each backfill matches nothing.

func missingReadByFilter() bson.D {
	return bson.D{
		{Key: "readBy", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "senderId", Value: bson.D{{Key: "$exists", Value: true}}},
	}
}

func unattributedFilter() bson.D {
	return bson.D{
		{Key: "readBy", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "senderId", Value: bson.D{{Key: "$exists", Value: false}}},
	}
}

func missingTypeFilter() bson.D {
	return bson.D{{Key: "type", Value: bson.D{{Key: "$exists", Value: false}}}}
}

func missingCreatedAtFilter() bson.D {
	return bson.D{
		{Key: "createdAt", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "sentAt", Value: bson.D{{Key: "$exists", Value: true}}},
	}
}

func undatedFilter() bson.D {
	return bson.D{
		{Key: "createdAt", Value: bson.D{{Key: "$exists", Value: false}}},
		{Key: "sentAt", Value: bson.D{{Key: "$exists", Value: false}}},
	}
}

// BackfillReadBy sets readBy to [senderId] on messages that have no readBy
// field. An explicit empty readBy is left alone.
func (m *MessagesStore) BackfillReadBy(ctx context.Context) (UpdateCounts, error) {
	// Pipeline update so the new value can reference the document's own senderId
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "readBy", Value: bson.A{"$senderId"}},
		}}},
	}
	return m.updateMany(ctx, missingReadByFilter(), update)
}

// CountUnattributed counts messages lacking both readBy and senderId; no
// reader can be inferred for them.
func (m *MessagesStore) CountUnattributed(ctx context.Context) (int64, error) {
	return m.coll.CountDocuments(ctx, unattributedFilter())
}

// DefaultType sets type to "text" on messages without a type.
func (m *MessagesStore) DefaultType(ctx context.Context) (UpdateCounts, error) {
	update := bson.D{{Key: "$set", Value: bson.D{{Key: "type", Value: MessageTypeText}}}}
	return m.updateMany(ctx, missingTypeFilter(), update)
}

// BackfillTimestamps copies the legacy sentAt into createdAt and updatedAt
// on messages without createdAt.
func (m *MessagesStore) BackfillTimestamps(ctx context.Context) (UpdateCounts, error) {
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "createdAt", Value: "$sentAt"},
			{Key: "updatedAt", Value: "$sentAt"},
		}}},
	}
	return m.updateMany(ctx, missingCreatedAtFilter(), update)
}

// CountUndated counts messages with neither createdAt nor sentAt.
func (m *MessagesStore) CountUndated(ctx context.Context) (int64, error) {
	return m.coll.CountDocuments(ctx, undatedFilter())
}

func (m *MessagesStore) updateMany(ctx context.Context, filter, update any) (UpdateCounts, error) {
	res, err := m.coll.UpdateMany(ctx, filter, update)
	if err != nil {
		return UpdateCounts{}, err
	}
	return UpdateCounts{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}
