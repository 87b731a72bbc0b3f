package sweeper

import (
	"context"
	"io"
	"testing"
	"time"

	"github.com/formcollector/api/internal/collector/domain"
	"github.com/formcollector/api/internal/infrastructure/memory"
	"github.com/sirupsen/logrus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

var now = time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC)

func quietLogger() *logrus.Logger {
	logger := logrus.New()
	logger.Out = io.Discard
	return logger
}

func seed(t *testing.T, store *memory.Store, expiresAt time.Time, submissions int) string {
	t.Helper()
	ctx := context.Background()
	ev := &domain.Event{
		Name:      "ev",
		Fields:    []domain.Field{{Label: "Name", Type: domain.FieldText}},
		ExpiresAt: expiresAt,
		CreatedAt: expiresAt.Add(-24 * time.Hour),
	}
	require.NoError(t, store.Events().Create(ctx, ev))
	for i := 0; i < submissions; i++ {
		require.NoError(t, store.Submissions().Create(ctx, &domain.Submission{
			EventID:       ev.ID,
			Data:          map[string]domain.Value{"Name": domain.TextValue("x")},
			OriginAddress: "203.0.113.7",
			CreatedAt:     ev.CreatedAt,
		}))
	}
	return ev.ID
}

func TestSweepDeletesPastGrace(t *testing.T) {
	store := memory.NewStore()
	stale := seed(t, store, now.Add(-72*time.Hour), 3)
	boundary := seed(t, store, now.Add(-48*time.Hour), 1)
	recent := seed(t, store, now.Add(-24*time.Hour), 2)
	open := seed(t, store, now.Add(24*time.Hour), 1)

	s := New(Config{
		Events:      store.Events(),
		Submissions: store.Submissions(),
		Grace:       48 * time.Hour,
		Logger:      quietLogger(),
		Now:         func() time.Time { return now },
	})

	result, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{Events: 2, Submissions: 4}, result)

	ctx := context.Background()
	for _, id := range []string{stale, boundary} {
		_, err := store.Events().FindByID(ctx, id)
		assert.Error(t, err, id)
		subs, err := store.Submissions().ListByEvent(ctx, id)
		require.NoError(t, err)
		assert.Empty(t, subs)
	}
	for _, id := range []string{recent, open} {
		_, err := store.Events().FindByID(ctx, id)
		assert.NoError(t, err, id)
	}

	again, err := s.Sweep(context.Background())
	require.NoError(t, err)
	assert.Equal(t, Result{}, again)

	subs, err := store.Submissions().ListByEvent(ctx, recent)
	require.NoError(t, err)
	assert.Len(t, subs, 2)
}

func TestSchedule(t *testing.T) {
	store := memory.NewStore()
	s := New(Config{Events: store.Events(), Submissions: store.Submissions(), Grace: time.Hour, Logger: quietLogger()})

	c, err := s.Schedule("0 0 * * *", time.UTC, time.Minute)
	require.NoError(t, err)
	assert.Len(t, c.Entries(), 1)
	<-c.Stop().Done()

	_, err = s.Schedule("every day", time.UTC, time.Minute)
	assert.Error(t, err)
}
