package mongodb

import (
	"context"
	"fmt"
	"time"

	"chatrelay-go/internal/constants"
	"chatrelay-go/internal/conversation"
	storagecommon "chatrelay-go/internal/storage/common"

	log "github.com/sirupsen/logrus"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	defaultDatabase   = "chatrelay"
	messageCollection = "messages"
)

// Storage keeps messages in a single collection keyed by message id.
type Storage struct {
	client     *mongo.Client
	collection *mongo.Collection
	uri        string
	dbName     string
}

// document mirrors the stored shape. Role and content stay loosely typed so
// malformed documents reach conversation.ParseMessage.
type document struct {
	ID       string  `bson:"_id"`
	ChatID   string  `bson:"chat_id"`
	Position int64   `bson:"position"`
	Role     string  `bson:"role"`
	Content  *string `bson:"content"`
}

func (d document) message() (conversation.Message, error) {
	return conversation.ParseMessage(d.ID, d.ChatID, d.Position, d.Role, d.Content)
}

func ensureMongoTimeout(ctx context.Context) (context.Context, context.CancelFunc) {
	return storagecommon.WithStorageTimeout(ctx, constants.StorageTimeout)
}

func New(uri, dbName string) *Storage {
	if dbName == "" {
		dbName = defaultDatabase
	}
	return &Storage{uri: uri, dbName: dbName}
}

// Initialize connects and ensures the (chat_id, position) index exists.
func (m *Storage) Initialize(ctx context.Context) error {
	ctx, cancel := ensureMongoTimeout(ctx)
	defer cancel()

	clientOptions := options.Client().ApplyURI(m.uri)
	clientOptions.SetMaxPoolSize(10)
	clientOptions.SetServerSelectionTimeout(5 * time.Second)

	client, err := mongo.Connect(ctx, clientOptions)
	if err != nil {
		return fmt.Errorf("failed to connect to MongoDB: %w", err)
	}
	if err := client.Ping(ctx, nil); err != nil {
		_ = client.Disconnect(context.Background())
		return fmt.Errorf("failed to ping MongoDB: %w", err)
	}

	m.client = client
	m.collection = client.Database(m.dbName).Collection(messageCollection)

	_, err = m.collection.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys:    bson.D{{Key: "chat_id", Value: 1}, {Key: "position", Value: 1}},
		Options: options.Index().SetUnique(true),
	})
	if err != nil {
		return fmt.Errorf("failed to create indexes: %w", err)
	}

	log.WithField("database", m.dbName).Info("Connected to MongoDB message store")
	return nil
}

func (m *Storage) Close() error {
	if m.client == nil {
		return nil
	}
	ctx, cancel := context.WithTimeout(context.Background(), constants.StorageTimeout)
	defer cancel()
	return m.client.Disconnect(ctx)
}

func (m *Storage) Health(ctx context.Context) error {
	if m.client == nil {
		return fmt.Errorf("mongodb storage not initialized")
	}
	ctx, cancel := ensureMongoTimeout(ctx)
	defer cancel()
	return m.client.Ping(ctx, nil)
}

func (m *Storage) GetMessage(ctx context.Context, id string) (*conversation.Message, error) {
	ctx, cancel := ensureMongoTimeout(ctx)
	defer cancel()

	var doc document
	if err := m.collection.FindOne(ctx, bson.M{"_id": id}).Decode(&doc); err != nil {
		return nil, storagecommon.MapMongoError(err, id)
	}
	msg, err := doc.message()
	if err != nil {
		return nil, err
	}
	return &msg, nil
}

func (m *Storage) ListHistory(ctx context.Context, chatID string, maxPosition int64) ([]conversation.Message, error) {
	ctx, cancel := ensureMongoTimeout(ctx)
	defer cancel()

	filter := bson.M{"chat_id": chatID, "position": bson.M{"$lte": maxPosition}}
	cursor, err := m.collection.Find(ctx, filter, options.Find().SetSort(bson.D{{Key: "position", Value: 1}}))
	if err != nil {
		return nil, fmt.Errorf("failed to list history for chat %s: %w", chatID, err)
	}
	defer cursor.Close(ctx)

	var out []conversation.Message
	for cursor.Next(ctx) {
		var doc document
		if err := cursor.Decode(&doc); err != nil {
			return nil, fmt.Errorf("decode message: %w", err)
		}
		msg, err := doc.message()
		if err != nil {
			return nil, err
		}
		out = append(out, msg)
	}
	if err := cursor.Err(); err != nil {
		return nil, fmt.Errorf("cursor iteration error: %w", err)
	}
	return out, nil
}

func (m *Storage) InsertMessage(ctx context.Context, msg conversation.Message) error {
	ctx, cancel := ensureMongoTimeout(ctx)
	defer cancel()

	content := msg.Content
	_, err := m.collection.InsertOne(ctx, document{
		ID:       msg.ID,
		ChatID:   msg.ChatID,
		Position: msg.Position,
		Role:     string(msg.Role),
		Content:  &content,
	})
	return storagecommon.MapMongoError(err, msg.ID)
}
