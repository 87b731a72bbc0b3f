package main

import (
	"context"
	"math/rand"
	"testing"
	"time"

	"github.com/formcollector/api/internal/collector/application"
	"github.com/formcollector/api/internal/infrastructure/memory"
	"github.com/formcollector/api/internal/report"
	"github.com/formcollector/api/internal/server"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRunSeed(t *testing.T) {
	ctx := context.Background()
	now := func() time.Time { return time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC) }
	b := server.NewMemoryBackend(memory.NewStore())

	result, err := runSeed(ctx, b, seedOptions{events: 2, submissions: 5, expiresIn: time.Hour, randomSeed: 42}, now)
	require.NoError(t, err)
	assert.Len(t, result.EventIDs, 2)
	assert.Equal(t, 10, result.Submissions)

	reports := application.NewReportService(b.Events, b.Submissions, report.NewEngine(time.UTC, report.PolicyDeclared))
	rep, err := reports.Build(ctx, result.EventIDs[0])
	require.NoError(t, err)
	assert.Len(t, rep.Rows, 5)
	assert.Equal(t, []string{"Age", "Guests"}, rep.NumberFields)
}

func TestSeedAnswersAreDeterministic(t *testing.T) {
	at := time.Date(2024, 6, 1, 9, 0, 0, 0, time.UTC)
	a := seedAnswers(rand.New(rand.NewSource(7)), at)
	b := seedAnswers(rand.New(rand.NewSource(7)), at)
	assert.Equal(t, a, b)
}
