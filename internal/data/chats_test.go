package data

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.mongodb.org/mongo-driver/v2/bson"
	"go.mongodb.org/mongo-driver/v2/mongo"
	"go.mongodb.org/mongo-driver/v2/mongo/options"
)

func indexSpec(t *testing.T, name string, unique bool, keys bson.D) mongo.IndexSpecification {
	raw, err := bson.Marshal(keys)
	require.NoError(t, err)
	return mongo.IndexSpecification{Name: name, KeysDocument: raw, Unique: &unique}
}

func TestIsLegacyParticipantsIndex(t *testing.T) {
	cases := []struct {
		spec mongo.IndexSpecification
		want bool
	}{
		{indexSpec(t, "participants_1", true, bson.D{{Key: "participants", Value: 1}}), true},
		{indexSpec(t, "custom", true, bson.D{{Key: "participants", Value: 1}}), true},
		{indexSpec(t, "participants_1", false, bson.D{{Key: "participants", Value: 1}}), false},
		{indexSpec(t, ParticipantsIndexName, false, bson.D{{Key: "participants", Value: 1}, {Key: "updatedAt", Value: -1}}), false},
		{indexSpec(t, "pair", true, bson.D{{Key: "participants", Value: 1}, {Key: "kind", Value: 1}}), false},
		{mongo.IndexSpecification{Name: "_id_"}, false},
	}
	for _, tc := range cases {
		got, err := isLegacyParticipantsIndex(tc.spec)
		require.NoError(t, err)
		assert.Equal(t, tc.want, got, tc.spec.Name)
	}
}

func TestRepairParticipantsIndex(t *testing.T) {
	c := setupDB(t)
	chats := NewChatsStore(c.Chats())
	ctx := context.Background()

	_, err := c.Chats().Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "participants", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	require.NoError(t, err)

	repair, err := chats.RepairParticipantsIndex(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"participants_1"}, repair.Dropped)
	assert.Equal(t, ParticipantsIndexName, repair.Ensured)

	// second run: nothing to drop, creation is idempotent
	repair, err = chats.RepairParticipantsIndex(ctx)
	require.NoError(t, err)
	assert.Empty(t, repair.Dropped)
	assert.Equal(t, ParticipantsIndexName, repair.Ensured)

	specs, err := c.Chats().Indexes().ListSpecifications(ctx)
	require.NoError(t, err)
	names := make([]string, 0, len(specs))
	for _, s := range specs {
		names = append(names, s.Name)
	}
	assert.ElementsMatch(t, []string{"_id_", ParticipantsIndexName}, names)

	// two chats sharing a participant are now accepted
	shared := bson.NewObjectID()
	_, err = c.Chats().InsertMany(ctx, []any{
		Chat{Participants: []bson.ObjectID{shared, bson.NewObjectID()}},
		Chat{Participants: []bson.ObjectID{shared, bson.NewObjectID()}},
	})
	assert.NoError(t, err)
}

func TestRepairParticipantsIndexMissingCollection(t *testing.T) {
	c := setupDB(t)
	chats := NewChatsStore(c.Chats())

	repair, err := chats.RepairParticipantsIndex(context.Background())
	require.NoError(t, err)
	assert.Empty(t, repair.Dropped)
	assert.Equal(t, ParticipantsIndexName, repair.Ensured)
}
