package mongo

import (
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
)

// EventDocument は MongoDB 上でのイベント（フォーム定義）スキーマ。
type EventDocument struct {
	ID          primitive.ObjectID `bson:"_id,omitempty"`
	Name        string             `bson:"name"`
	Description string             `bson:"description,omitempty"`
	Fields      []FieldDocument    `bson:"fields"`
	ExpiresAt   time.Time          `bson:"expiresAt"`
	CreatedAt   time.Time          `bson:"createdAt"`
}

// FieldDocument はイベントに埋め込まれる入力項目定義。
type FieldDocument struct {
	Label   string   `bson:"label"`
	Type    string   `bson:"type"`
	Options []string `bson:"options,omitempty"`
}

// SubmissionDocument は回答 1 件分。data のキーは送信時点のラベル。
type SubmissionDocument struct {
	ID        primitive.ObjectID `bson:"_id,omitempty"`
	EventID   primitive.ObjectID `bson:"eventId"`
	Data      bson.M             `bson:"data"`
	IPAddress string             `bson:"ipAddress"`
	CreatedAt time.Time          `bson:"createdAt"`
}

func newEventDocument(ev *domain.Event) EventDocument {
	fields := make([]FieldDocument, 0, len(ev.Fields))
	for _, f := range ev.Fields {
		fields = append(fields, FieldDocument{Label: f.Label, Type: string(f.Type), Options: f.Options})
	}
	return EventDocument{
		Name:        ev.Name,
		Description: ev.Description,
		Fields:      fields,
		ExpiresAt:   ev.ExpiresAt.UTC(),
		CreatedAt:   ev.CreatedAt.UTC(),
	}
}

// mapEvent はドキュメントをドメインの Event に変換する。未知の型は text として扱う。
func mapEvent(doc EventDocument) domain.Event {
	fields := make([]domain.Field, 0, len(doc.Fields))
	for _, f := range doc.Fields {
		t, err := domain.ParseFieldType(f.Type)
		if err != nil {
			t = domain.FieldText
		}
		fields = append(fields, domain.Field{Label: f.Label, Type: t, Options: f.Options})
	}
	return domain.Event{
		ID:          doc.ID.Hex(),
		Name:        doc.Name,
		Description: doc.Description,
		Fields:      fields,
		ExpiresAt:   doc.ExpiresAt.UTC(),
		CreatedAt:   doc.CreatedAt.UTC(),
	}
}

func newSubmissionDocument(eventID primitive.ObjectID, sub *domain.Submission) SubmissionDocument {
	data := make(bson.M, len(sub.Data))
	for label, value := range sub.Data {
		data[label] = value.Raw()
	}
	return SubmissionDocument{
		EventID:   eventID,
		Data:      data,
		IPAddress: sub.OriginAddress,
		CreatedAt: sub.CreatedAt.UTC(),
	}
}

func mapSubmission(doc SubmissionDocument) domain.Submission {
	data := make(map[string]domain.Value, len(doc.Data))
	for label, raw := range doc.Data {
		data[label] = domain.ValueFromAny(raw)
	}
	return domain.Submission{
		ID:            doc.ID.Hex(),
		EventID:       doc.EventID.Hex(),
		Data:          data,
		OriginAddress: doc.IPAddress,
		CreatedAt:     doc.CreatedAt.UTC(),
	}
}
