// Package config loads maintenance-tool settings from the environment.
package config

import (
	"errors"
	"fmt"
	"log"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"go.mongodb.org/mongo-driver/v2/x/mongo/driver/connstring"
)

// ErrConfiguration marks fatal pre-flight problems: missing connection
// string, unreadable values, missing data files.
var ErrConfiguration = errors.New("configuration error")

// URIKeys are the accepted connection-string variables, in priority order.
var URIKeys = []string{"MONGODB_URI", "MONGO_URI"}

const (
	defaultDatabase               = "grownet"
	defaultRolesFile              = "data/users.json"
	defaultServerSelectionTimeout = 5 * time.Second
	defaultOperationTimeout       = 45 * time.Second
	defaultBcryptCost             = 10
)

// Config holds everything a maintenance command needs before connecting.
type Config struct {
	MongoURI string
	Database string

	// RolesFile is the JSON export consumed by the role synchronizer.
	RolesFile string

	ServerSelectionTimeout time.Duration
	OperationTimeout       time.Duration

	BcryptCost          int
	HashWritesPerSecond int
}

// Load seeds the environment from a .env file when one exists and reads
// the configuration.
func Load() (*Config, error) {
	if err := godotenv.Load(); err != nil {
		log.Println("no .env file found, using environment variables")
	}
	return FromEnv(os.LookupEnv)
}

// FromEnv builds a Config using lookup. Empty values count as absent.
func FromEnv(lookup func(string) (string, bool)) (*Config, error) {
	get := func(key string) string {
		v, _ := lookup(key)
		return strings.TrimSpace(v)
	}

	cfg := &Config{
		RolesFile:              defaultRolesFile,
		ServerSelectionTimeout: defaultServerSelectionTimeout,
		OperationTimeout:       defaultOperationTimeout,
		BcryptCost:             defaultBcryptCost,
	}

	for _, key := range URIKeys {
		if v := get(key); v != "" {
			cfg.MongoURI = v
			break
		}
	}
	if cfg.MongoURI == "" {
		return nil, fmt.Errorf("%w: one of %s must be set", ErrConfiguration, strings.Join(URIKeys, ", "))
	}

	cs, err := connstring.ParseAndValidate(cfg.MongoURI)
	if err != nil {
		return nil, fmt.Errorf("%w: invalid connection string: %v", ErrConfiguration, err)
	}

	cfg.Database = get("MONGODB_DB")
	if cfg.Database == "" {
		cfg.Database = cs.Database
	}
	if cfg.Database == "" {
		cfg.Database = defaultDatabase
	}

	if v := get("ROLES_EXPORT_FILE"); v != "" {
		cfg.RolesFile = v
	}

	if cfg.ServerSelectionTimeout, err = durationValue(get, "MONGODB_SERVER_SELECTION_TIMEOUT", cfg.ServerSelectionTimeout); err != nil {
		return nil, err
	}
	if cfg.OperationTimeout, err = durationValue(get, "MONGODB_OPERATION_TIMEOUT", cfg.OperationTimeout); err != nil {
		return nil, err
	}
	if cfg.BcryptCost, err = intValue(get, "BCRYPT_COST", cfg.BcryptCost); err != nil {
		return nil, err
	}
	if cfg.HashWritesPerSecond, err = intValue(get, "HASH_WRITES_PER_SECOND", cfg.HashWritesPerSecond); err != nil {
		return nil, err
	}

	return cfg, nil
}

func durationValue(get func(string) string, key string, def time.Duration) (time.Duration, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	d, err := time.ParseDuration(v)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("%w: %s must be a positive duration, got %q", ErrConfiguration, key, v)
	}
	return d, nil
}

func intValue(get func(string) string, key string, def int) (int, error) {
	v := get(key)
	if v == "" {
		return def, nil
	}
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrConfiguration, key, v)
	}
	return n, nil
}
