package mongo

import (
	"context"
	"strings"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/fault"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/options"
)

// SubmissionRepository は回答コレクションの Mongo 実装。
type SubmissionRepository struct {
	collection *mongo.Collection
}

func NewSubmissionRepository(db *mongo.Database, collection string) *SubmissionRepository {
	return &SubmissionRepository{collection: db.Collection(collection)}
}

func (r *SubmissionRepository) Create(ctx context.Context, sub *domain.Submission) error {
	eventID, err := primitive.ObjectIDFromHex(sub.EventID)
	if err != nil {
		return fault.NotFound("event not found")
	}
	doc := newSubmissionDocument(eventID, sub)
	doc.ID = primitive.NewObjectID()
	if _, err := r.collection.InsertOne(ctx, doc); err != nil {
		return fault.Internal("failed to save submission", err)
	}
	sub.ID = doc.ID.Hex()
	return nil
}

// ListByEvent は到着順（createdAt 昇順、同時刻は _id 昇順）で回答を返す。
func (r *SubmissionRepository) ListByEvent(ctx context.Context, eventID string) ([]domain.Submission, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(eventID))
	if err != nil {
		return []domain.Submission{}, nil
	}

	opts := options.Find().SetSort(bson.D{{Key: "createdAt", Value: 1}, {Key: "_id", Value: 1}})
	cursor, err := r.collection.Find(ctx, bson.M{"eventId": objectID}, opts)
	if err != nil {
		return nil, fault.Internal("failed to list submissions", err)
	}
	defer cursor.Close(ctx)

	subs := make([]domain.Submission, 0)
	for cursor.Next(ctx) {
		var doc SubmissionDocument
		if err := cursor.Decode(&doc); err != nil {
			return nil, fault.Internal("failed to decode submission", err)
		}
		subs = append(subs, mapSubmission(doc))
	}
	if err := cursor.Err(); err != nil {
		return nil, fault.Internal("failed to list submissions", err)
	}
	return subs, nil
}

// CountByOrigin は同一イベント・同一送信元からの回答数を数える。
func (r *SubmissionRepository) CountByOrigin(ctx context.Context, eventID, origin string) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(eventID))
	if err != nil {
		return 0, nil
	}
	count, err := r.collection.CountDocuments(ctx, bson.M{"eventId": objectID, "ipAddress": origin})
	if err != nil {
		return 0, fault.Internal("failed to count submissions", err)
	}
	return count, nil
}

func (r *SubmissionRepository) DeleteByEvent(ctx context.Context, eventID string) (int64, error) {
	objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(eventID))
	if err != nil {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"eventId": objectID})
	if err != nil {
		return 0, fault.Internal("failed to delete submissions", err)
	}
	return result.DeletedCount, nil
}

// DeleteByIDs は形式不正な ID を無視し、残りをまとめて削除する。
func (r *SubmissionRepository) DeleteByIDs(ctx context.Context, ids []string) (int64, error) {
	objectIDs := make([]primitive.ObjectID, 0, len(ids))
	for _, id := range ids {
		objectID, err := primitive.ObjectIDFromHex(strings.TrimSpace(id))
		if err != nil {
			continue
		}
		objectIDs = append(objectIDs, objectID)
	}
	if len(objectIDs) == 0 {
		return 0, nil
	}
	result, err := r.collection.DeleteMany(ctx, bson.M{"_id": bson.M{"$in": objectIDs}})
	if err != nil {
		return 0, fault.Internal("failed to delete submissions", err)
	}
	return result.DeletedCount, nil
}
