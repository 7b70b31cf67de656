// Package mongodb stores chat messages in MongoDB.
package mongodb

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/gdugdh24/matchmaker-backend/internal/domain"
	"github.com/gdugdh24/matchmaker-backend/internal/repository"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

const (
	messagesCollection = "messages"
	roomsCollection    = "rooms"
)

type messageRepository struct {
	messages *mongo.Collection
	rooms    *mongo.Collection
	now      func() time.Time
}

// NewMessageRepository prepares the collections and their indexes.
func NewMessageRepository(ctx context.Context, db *mongo.Database) (repository.MessageRepository, error) {
	repo := &messageRepository{
		messages: db.Collection(messagesCollection),
		rooms:    db.Collection(roomsCollection),
		now:      time.Now,
	}

	_, err := repo.messages.Indexes().CreateOne(ctx, mongo.IndexModel{
		Keys: bson.D{{Key: "room_id", Value: 1}, {Key: "sent_at", Value: -1}},
	})
	if err != nil {
		return nil, fmt.Errorf("failed to create message indexes: %w", classify(err))
	}
	return repo, nil
}

type roomClock struct {
	LastSentAt time.Time `bson:"last_sent_at"`
}

// nextSentAt advances the room clock in one atomic pipeline update:
// last_sent_at becomes max(now, last_sent_at + 1ms).
func (r *messageRepository) nextSentAt(ctx context.Context, roomID string) (time.Time, error) {
	now := r.now().UTC().Truncate(time.Millisecond)
	pipeline := mongo.Pipeline{
		{{Key: "$set", Value: bson.D{
			{Key: "last_sent_at", Value: bson.D{{Key: "$cond", Value: bson.A{
				bson.D{{Key: "$gt", Value: bson.A{now, "$last_sent_at"}}},
				now,
				bson.D{{Key: "$add", Value: bson.A{"$last_sent_at", 1}}},
			}}}},
		}}},
	}
	opts := options.FindOneAndUpdate().SetUpsert(true).SetReturnDocument(options.After)

	var clock roomClock
	err := r.rooms.FindOneAndUpdate(ctx, bson.M{"_id": roomID}, pipeline, opts).Decode(&clock)
	if err != nil {
		return time.Time{}, classify(err)
	}
	return clock.LastSentAt.UTC(), nil
}

func (r *messageRepository) Save(ctx context.Context, msg *domain.Message) error {
	sentAt, err := r.nextSentAt(ctx, msg.RoomID)
	if err != nil {
		return err
	}
	msg.SentAt = sentAt

	if _, err := r.messages.InsertOne(ctx, msg); err != nil {
		return classify(err)
	}
	return nil
}

func (r *messageRepository) ListByRoom(ctx context.Context, roomID string, before time.Time, limit int) ([]*domain.Message, error) {
	filter := bson.M{"room_id": roomID}
	if !before.IsZero() {
		filter["sent_at"] = bson.M{"$lt": before.UTC()}
	}
	opts := options.Find().SetSort(bson.D{{Key: "sent_at", Value: -1}})
	if limit > 0 {
		opts.SetLimit(int64(limit))
	}

	cur, err := r.messages.Find(ctx, filter, opts)
	if err != nil {
		return nil, classify(err)
	}
	defer cur.Close(ctx)

	messages := []*domain.Message{}
	if err := cur.All(ctx, &messages); err != nil {
		return nil, classify(err)
	}
	return messages, nil
}

func classify(err error) error {
	if err == nil {
		return nil
	}
	if errors.Is(err, context.DeadlineExceeded) || mongo.IsTimeout(err) || mongo.IsNetworkError(err) {
		return domain.Unavailable(err)
	}
	return err
}
