package mongo

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/fault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// EventRepository はイベント集約の Mongo 実装。
type EventRepository struct {
	collection *mongo.Collection
}

func NewEventRepository(db *mongo.Database, collection string) *EventRepository {
	return &EventRepository{collection: db.Collection(collection)}
}

// Create は新しいイベントを保存し、採番された ID を ev に書き戻す。
func (r *EventRepository) Create(ctx context.Context, ev *domain.Event) error {
	doc := newEventDocument(ev)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fault.Internal("failed to create event", err)
	}
	ev.ID = doc.ID.Hex()
	return nil
}

// List は作成日時の新しい順にイベントを返す。
func (r *EventRepository) List(ctx context.Context) ([]domain.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: -1}, {Key: "_id", Value: -1}})
	return r.find(ctx, bson.M{}, opts)
}

// FindByID は 16 進 ObjectID でイベントを取得する。形式不正・未存在はいずれも NotFound。
func (r *EventRepository) FindByID(ctx context.Context, id string) (*domain.Event, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return nil, fault.NotFound("event not found")
	}
	var doc EventDocument
	if err := r.collection.FindOne(ctx, bson.M{"_id": objectID}).Decode(&doc); err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, fault.NotFound("event not found")
		}
		return nil, fault.Internal("failed to load event", err)
	}
	ev := mapEvent(doc)
	return &ev, nil
}

// Delete はイベント本体のみを削除する。回答の削除は呼び出し側の責務。
func (r *EventRepository) Delete(ctx context.Context, id string) (bool, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
	if err != nil {
		return false, nil
	}
	result, err := r.collection.DeleteOne(ctx, bson.M{"_id": objectID})
	if err != nil {
		return false, fault.Internal("failed to delete event", err)
	}
	return result.DeletedCount > 0, nil
}

// FindExpiredBefore は expiresAt が cutoff 以前のイベントを返す。
func (r *EventRepository) FindExpiredBefore(ctx context.Context, cutoff time.Time) ([]domain.Event, error) {
	opts := options.Find().SetSort(bson.D{{Key: "expiresAt", Value: 1}})
	return r.find(ctx, bson.M{"expiresAt": bson.M{"$lte": cutoff.UTC()}}, opts)
}

func (r *EventRepository) find(ctx context.Context, filter bson.M, opts *options.FindOptions) ([]domain.Event, error) {
	cursor, err := r.collection.Find(ctx, filter, opts)
	if err != nil {
		return nil, fault.Internal("failed to list events", err)
	}
	defer cursor.Close(ctx)

	events := make([]domain.Event, 0)
	for cursor.Next(ctx) {
		var doc EventDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fault.Internal("failed to decode event", err)
		}
		events = append(events, mapEvent(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fault.Internal("failed to list events", err)
	}
	return events, nil
}
