package cli

import (
	"bytes"
	"context"
	"errors"
	"log"
	"os"
	"testing"
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"

	"github.com/stretchr/testify/assert"
)

func TestRunMissingURI(t *testing.T) {
	for _, key := range config.URIKeys {
		t.Setenv(key, "")
	}
	called := false
	code := Run("test", func(*config.Config) ([]migrate.Step, error) {
		called = true
		return nil, nil
	})
	assert.Equal(t, 1, code)
	assert.False(t, called, "steps must not be built without configuration")
}

func TestExecuteBuildFailure(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{MongoURI: "mongodb://127.0.0.1:1", Database: "grownet_test"}

	code := execute(context.Background(), log.New(&buf, "", 0), cfg, func(*config.Config) ([]migrate.Step, error) {
		return nil, errors.New("export missing")
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "export missing")
	assert.NotContains(t, buf.String(), "connecting")
}

func TestExecuteUnreachable(t *testing.T) {
	var buf bytes.Buffer
	cfg := &config.Config{
		MongoURI:               "mongodb://127.0.0.1:1/?directConnection=true",
		Database:               "grownet_test",
		ServerSelectionTimeout: 200 * time.Millisecond,
	}

	code := execute(context.Background(), log.New(&buf, "", 0), cfg, func(*config.Config) ([]migrate.Step, error) {
		return []migrate.Step{migrate.EnsureIndexes{}}, nil
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), db.ErrConnection.Error())
}

// failingStep fails after the runner has started.
type failingStep struct{}

func (failingStep) Name() string { return "failing" }

func (failingStep) Apply(context.Context, *db.Client) (migrate.Result, error) {
	return migrate.Result{}, errors.New("boom")
}

func TestExecuteAgainstMongo(t *testing.T) {
	uri := os.Getenv("MONGODB_URI")
	if uri == "" {
		t.Skip("MONGODB_URI not set; skipping integration test")
	}
	cfg := &config.Config{MongoURI: uri, Database: "grownet_test"}

	var buf bytes.Buffer
	code := execute(context.Background(), log.New(&buf, "", 0), cfg, func(*config.Config) ([]migrate.Step, error) {
		return []migrate.Step{migrate.RepairParticipantsIndex{}}, nil
	})
	assert.Equal(t, 0, code)
	assert.Contains(t, buf.String(), "disconnected from MongoDB")

	buf.Reset()
	code = execute(context.Background(), log.New(&buf, "", 0), cfg, func(*config.Config) ([]migrate.Step, error) {
		return []migrate.Step{migrate.RepairParticipantsIndex{}, failingStep{}, migrate.EnsureIndexes{}}, nil
	})
	assert.Equal(t, 1, code)
	assert.Contains(t, buf.String(), "aborted after 2 of 3 steps")
	assert.Contains(t, buf.String(), "disconnected from MongoDB")
}
