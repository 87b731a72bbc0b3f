package application

import (
	"context"
	"hash/fnv"
	"net/mail"
	"strings"
	"sync"
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/fault"
)

const admissionStripes = 64

type submissionService struct {
	events      EventRepository
	submissions SubmissionRepository
	policy      AdmissionPolicy

	// (イベント, 送信元) ごとの件数確認と登録をこのプロセス内で直列化する。
	// ストアを共有する複数レプリカ間では上限を超えうる。
	stripes [admissionStripes]sync.Mutex
}

func NewSubmissionService(events EventRepository, submissions SubmissionRepository, policy AdmissionPolicy) SubmissionService {
	return &submissionService{events: events, submissions: submissions, policy: policy}
}

// Submit は受付判定を行う。イベントが存在し、期限内で、送信元が上限未満であること。
// 通過した回答は項目定義で検証し、サーバー側の時刻を付けて保存する。
func (s *submissionService) Submit(ctx context.Context, cmd SubmitCommand) (*domain.Submission, error) {
	event, err := s.events.FindByID(ctx, cmd.EventID)
	if err != nil {
		return nil, err
	}

	now := s.policy.now()
	if event.Expired(now) {
		return nil, fault.ErrExpired
	}

	origin := strings.TrimSpace(cmd.OriginAddress)
	lock := s.stripe(event.ID, origin)
	lock.Lock()
	defer lock.Unlock()

	if s.policy.Quota > 0 {
		count, err := s.submissions.CountByOrigin(ctx, event.ID, origin)
		if err != nil {
			return nil, err
		}
		if count >= int64(s.policy.Quota) {
			return nil, fault.ErrQuotaExceeded
		}
	}

	data, err := validateAnswers(*event, cmd.Answers)
	if err != nil {
		return nil, err
	}

	submission := &domain.Submission{
		EventID:       event.ID,
		Data:          data,
		OriginAddress: origin,
		CreatedAt:     now,
	}
	if err := s.submissions.Create(ctx, submission); err != nil {
		return nil, err
	}
	return submission, nil
}

func (s *submissionService) List(ctx context.Context, eventID string) ([]domain.Submission, error) {
	event, err := s.events.FindByID(ctx, eventID)
	if err != nil {
		return nil, err
	}
	return s.submissions.ListByEvent(ctx, event.ID)
}

func (s *submissionService) DeleteMany(ctx context.Context, ids []string) (int64, error) {
	cleaned := make([]string, 0, len(ids))
	for _, id := range ids {
		if id = strings.TrimSpace(id); id != "" {
			cleaned = append(cleaned, id)
		}
	}
	if len(cleaned) == 0 {
		return 0, fault.Invalid("submissionIds must not be empty")
	}
	return s.submissions.DeleteByIDs(ctx, cleaned)
}

func (s *submissionService) stripe(eventID, origin string) *sync.Mutex {
	h := fnv.New32a()
	h.Write([]byte(eventID))
	h.Write([]byte{0})
	h.Write([]byte(origin))
	return &s.stripes[h.Sum32()%admissionStripes]
}

// validateAnswers はイベントの項目名に一致する回答だけを残し、項目の型で検証する。
// 空の回答は空文字として保存する。
func validateAnswers(event domain.Event, answers map[string]any) (map[string]domain.Value, error) {
	data := make(map[string]domain.Value, len(answers))
	for label, raw := range answers {
		field, ok := event.Field(label)
		if !ok {
			continue
		}
		switch raw.(type) {
		case map[string]any, []any:
			return nil, fault.Invalidf("%s must be a single value", label)
		}

		value := domain.ValueFromAny(raw)
		if value.IsAbsent() {
			data[label] = domain.TextValue("")
			continue
		}
		if strings.TrimSpace(value.Display()) == "" {
			data[label] = value
			continue
		}
		if err := checkFieldValue(field, value); err != nil {
			return nil, err
		}
		data[label] = value
	}
	if len(data) == 0 {
		return nil, fault.Invalid("submission has no answers for this event")
	}
	return data, nil
}

func checkFieldValue(field domain.Field, value domain.Value) error {
	display := strings.TrimSpace(value.Display())
	switch field.Type {
	case domain.FieldNumber:
		if _, ok := value.Number(); !ok {
			return fault.Invalidf("%s must be a number", field.Label)
		}
	case domain.FieldEmail:
		if _, err := mail.ParseAddress(display); err != nil {
			return fault.Invalidf("%s must be an email address", field.Label)
		}
	case domain.FieldDate:
		if _, err := time.Parse("2006-01-02", display); err != nil {
			return fault.Invalidf("%s must be a date (YYYY-MM-DD)", field.Label)
		}
	case domain.FieldDropdown, domain.FieldRadio:
		if !field.HasOption(value.Display()) {
			return fault.Invalidf("%s must be one of the listed options", field.Label)
		}
	}
	return nil
}
