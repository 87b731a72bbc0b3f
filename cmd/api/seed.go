package main

import (
	"context"
	"fmt"
	"math/rand"
	"time"

	"github.com/formcollector/api/internal/collector/application"
	"github.com/formcollector/api/internal/server"
	"github.com/spf13/cobra"
)

type seedOptions struct {
	events      int
	submissions int
	expiresIn   time.Duration
	randomSeed  int64
}

var seedOpts seedOptions

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Insert demo events and submissions",
	Long: `Create demo events with randomly generated submissions. Data goes through
the same validation as the HTTP API, so the result can be inspected with the
live view and every export format.`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if seedOpts.events <= 0 {
			return fmt.Errorf("events は 1 以上を指定してください")
		}
		if seedOpts.submissions < 0 {
			seedOpts.submissions = 0
		}

		ctx, cancel := context.WithTimeout(cmd.Context(), 60*time.Second)
		defer cancel()

		result, err := runSeed(ctx, backend, seedOpts, time.Now)
		if err != nil {
			return err
		}
		cfg.ServerLog.Infof("Seed 完了: events=%d submissions=%d (seed=%d)", len(result.EventIDs), result.Submissions, seedOpts.randomSeed)
		for _, id := range result.EventIDs {
			fmt.Fprintln(cmd.OutOrStdout(), id)
		}
		return nil
	},
}

func init() {
	seedCmd.Flags().IntVar(&seedOpts.events, "events", 1, "生成するイベント数")
	seedCmd.Flags().IntVar(&seedOpts.submissions, "submissions", 25, "イベントごとの回答数")
	seedCmd.Flags().DurationVar(&seedOpts.expiresIn, "expires-in", 7*24*time.Hour, "イベントの有効期間")
	seedCmd.Flags().Int64Var(&seedOpts.randomSeed, "seed", time.Now().UnixNano(), "乱数シード（再現用）")
}

type seedResult struct {
	EventIDs    []string
	Submissions int
}

var (
	seedFirstNames = []string{"Aiko", "Ben", "Chen", "Dara", "Emil", "Fumiko", "Gus", "Hana", "Ivan", "Jun"}
	seedTeams      = []string{"Red", "Blue", "Green"}
	seedShirts     = []string{"S", "M", "L", "XL"}
)

// runSeed はサービス層を通してデモデータを投入する。回答ごとに別の送信元アドレスを使うので回答上限には掛からない。
func runSeed(ctx context.Context, b server.Backend, opts seedOptions, now func() time.Time) (seedResult, error) {
	events := application.NewEventService(b.Events, b.Submissions, now)
	submissions := application.NewSubmissionService(b.Events, b.Submissions, application.AdmissionPolicy{Now: now})
	rng := rand.New(rand.NewSource(opts.randomSeed))

	var result seedResult
	for i := 0; i < opts.events; i++ {
		event, err := events.Create(ctx, application.CreateEventCommand{
			Name:        fmt.Sprintf("Demo Registration #%d", i+1),
			Description: "Generated by the seed command",
			Fields: []application.FieldCommand{
				{Label: "Name", Type: "text"},
				{Label: "Email", Type: "email"},
				{Label: "Age", Type: "number"},
				{Label: "Team", Type: "dropdown", Options: seedTeams},
				{Label: "Shirt", Type: "radio", Options: seedShirts},
				{Label: "Guests", Type: "number"},
				{Label: "Arrival", Type: "date"},
			},
			ExpiresAt: now().UTC().Add(opts.expiresIn).Format(time.RFC3339),
		})
		if err != nil {
			return result, fmt.Errorf("イベント作成に失敗しました: %w", err)
		}
		result.EventIDs = append(result.EventIDs, event.ID)

		for j := 0; j < opts.submissions; j++ {
			_, err := submissions.Submit(ctx, application.SubmitCommand{
				EventID:       event.ID,
				OriginAddress: fmt.Sprintf("198.51.%d.%d", i%256, j%254+1),
				Answers:       seedAnswers(rng, now()),
			})
			if err != nil {
				return result, fmt.Errorf("回答の投入に失敗しました: %w", err)
			}
			result.Submissions++
		}
	}
	return result, nil
}

func seedAnswers(rng *rand.Rand, now time.Time) map[string]any {
	name := seedFirstNames[rng.Intn(len(seedFirstNames))]
	return map[string]any{
		"Name":    name,
		"Email":   fmt.Sprintf("%s%d@example.com", name, rng.Intn(1000)),
		"Age":     18 + rng.Intn(50),
		"Team":    seedTeams[rng.Intn(len(seedTeams))],
		"Shirt":   seedShirts[rng.Intn(len(seedShirts))],
		"Guests":  rng.Intn(4),
		"Arrival": now.AddDate(0, 0, rng.Intn(14)).Format("2006-01-02"),
	}
}
