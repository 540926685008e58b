// Package db manages the MongoDB connection used by the maintenance commands.
package db

import (
	"context" // For connection timeout/cancellation
	"errors"  // Sentinel for connection failures
	"fmt"     // Error formatting
	"log"     // Connection state transitions
	"time"    // Duration for timeouts

	"go.mongodb.org/mongo-driver/v2/bson"           // Index keys
	"go.mongodb.org/mongo-driver/v2/mongo"          // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options"  // MongoDB options
	"go.mongodb.org/mongo-driver/v2/mongo/readpref" // MongoDB read preference
)

// ErrConnection is wrapped by every error returned from New.
var ErrConnection = errors.New("connection error")

// Collection names used by GrowNet.
const (
	UsersCollection    = "users"
	MessagesCollection = "messages"
	ChatsCollection    = "chats"
)

// Options configures New. Zero timeouts fall back to the defaults below.
type Options struct {
	URI      string
	Database string

	ServerSelectionTimeout time.Duration
	OperationTimeout       time.Duration

	// Logger receives connection state transitions; nil means log.Default().
	Logger *log.Logger
}

const (
	defaultConnectTimeout         = 10 * time.Second
	defaultServerSelectionTimeout = 5 * time.Second
	defaultOperationTimeout       = 45 * time.Second
)

// Client wraps mongo.Client and exposes collections.
type Client struct {
	// client is the underlying MongoDB connection (thread-safe, can be reused)
	client *mongo.Client

	// db is the GrowNet database; collections are accessed through it
	db *mongo.Database

	logger *log.Logger
}

// New connects to MongoDB and returns a Client. A failed ping disconnects
// the half-built client before returning.
func New(ctx context.Context, o Options) (*Client, error) {
	logger := o.Logger
	if logger == nil {
		logger = log.Default()
	}
	if o.URI == "" {
		return nil, fmt.Errorf("%w: empty connection string", ErrConnection)
	}
	if o.ServerSelectionTimeout <= 0 {
		o.ServerSelectionTimeout = defaultServerSelectionTimeout
	}
	if o.OperationTimeout <= 0 {
		o.OperationTimeout = defaultOperationTimeout
	}

	// SetServerSelectionTimeout: fail fast if no suitable server answers
	// SetTimeout: upper bound for each operation (legacy socket timeout)
	opts := options.Client().
		ApplyURI(o.URI).
		SetConnectTimeout(defaultConnectTimeout).
		SetServerSelectionTimeout(o.ServerSelectionTimeout).
		SetTimeout(o.OperationTimeout)

	logger.Printf("connecting to MongoDB database %q", o.Database)

	// This doesn't actually connect yet, just creates the client
	client, err := mongo.Connect(opts)
	if err != nil {
		return nil, fmt.Errorf("%w: failed to connect to MongoDB: %v", ErrConnection, err)
	}

	// Ping bounded by server selection timeout; this is the actual connection test
	pingCtx, cancel := context.WithTimeout(ctx, o.ServerSelectionTimeout)
	defer cancel()

	if err := client.Ping(pingCtx, readpref.Primary()); err != nil {
		_ = client.Disconnect(context.Background())
		return nil, fmt.Errorf("%w: failed to ping MongoDB: %v", ErrConnection, err)
	}

	logger.Printf("connected to MongoDB")

	return &Client{
		client: client,
		db:     client.Database(o.Database),
		logger: logger,
	}, nil
}

// Name returns the database name.
func (c *Client) Name() string {
	return c.db.Name()
}

// Users returns the users collection.
func (c *Client) Users() *mongo.Collection {
	return c.db.Collection(UsersCollection)
}

// Messages returns the messages collection.
func (c *Client) Messages() *mongo.Collection {
	return c.db.Collection(MessagesCollection)
}

// Chats returns the chats collection.
func (c *Client) Chats() *mongo.Collection {
	return c.db.Collection(ChatsCollection)
}

// Close disconnects from MongoDB. It is a no-op on a nil Client so callers
// can defer it right after New regardless of the outcome.
func (c *Client) Close(ctx context.Context) error {
	if c == nil || c.client == nil {
		return nil
	}
	err := c.client.Disconnect(ctx)
	if errors.Is(err, mongo.ErrClientDisconnected) {
		return nil
	}
	if err == nil {
		c.logger.Printf("disconnected from MongoDB")
	}
	return err
}

// EnsureIndexes creates the baseline users and messages indexes. Creating an
// index that already exists with the same spec is a no-op on the server.
func (c *Client) EnsureIndexes(ctx context.Context) error {
	// ===== USERS COLLECTION INDEXES =====
	// Login looks users up by email, profiles by username; both must be unique
	usersIndexes := []mongo.IndexModel{
		{
			Keys:    bson.D{{Key: "email", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
		{
			Keys:    bson.D{{Key: "username", Value: 1}},
			Options: options.Index().SetUnique(true),
		},
	}

	if _, err := c.Users().Indexes().CreateMany(ctx, usersIndexes); err != nil {
		return fmt.Errorf("failed to create users indexes: %w", err)
	}

	// ===== MESSAGES COLLECTION INDEX =====
	// Chat history: all messages of one chat, newest first
	messagesIndex := mongo.IndexModel{
		Keys: bson.D{{Key: "chatId", Value: 1}, {Key: "createdAt", Value: -1}},
	}

	if _, err := c.Messages().Indexes().CreateOne(ctx, messagesIndex); err != nil {
		return fmt.Errorf("failed to create messages index: %w", err)
	}

	return nil
}
