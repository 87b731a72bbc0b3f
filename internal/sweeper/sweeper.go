// Package sweeper は猶予期間を過ぎた期限切れイベントを回答ごと削除する。
package sweeper

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/formcollector/api/internal/collector/application"
	"github.com/robfig/cron/v3"
	"github.com/sirupsen/logrus"
)

// Config は Sweeper の依存と設定。
type Config struct {
	Events      application.EventRepository
	Submissions application.SubmissionRepository
	Grace       time.Duration
	Logger      *logrus.Logger
	Now         func() time.Time
}

type Sweeper struct {
	events      application.EventRepository
	submissions application.SubmissionRepository
	grace       time.Duration
	logger      *logrus.Logger
	now         func() time.Time
}

// Result は 1 回の掃除の結果。
type Result struct {
	Events      int
	Submissions int64
}

func New(cfg Config) *Sweeper {
	now := cfg.Now
	if now == nil {
		now = time.Now
	}
	logger := cfg.Logger
	if logger == nil {
		logger = logrus.StandardLogger()
	}
	return &Sweeper{
		events:      cfg.Events,
		submissions: cfg.Submissions,
		grace:       cfg.Grace,
		logger:      logger,
		now:         now,
	}
}

// Sweep は expiresAt <= now - grace のイベントをすべて削除する。回答を先に消すので、
// 途中で落ちてもイベントが残り次回の実行で拾い直される。1 件の失敗で他は止めない。
func (s *Sweeper) Sweep(ctx context.Context) (Result, error) {
	cutoff := s.now().UTC().Add(-s.grace)
	expired, err := s.events.FindExpiredBefore(ctx, cutoff)
	if err != nil {
		return Result{}, fmt.Errorf("期限切れイベントの取得に失敗: %w", err)
	}

	var (
		result Result
		errs   []error
	)
	for _, ev := range expired {
		removed, err := s.submissions.DeleteByEvent(ctx, ev.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("イベント %s の回答削除に失敗: %w", ev.ID, err))
			continue
		}
		result.Submissions += removed

		deleted, err := s.events.Delete(ctx, ev.ID)
		if err != nil {
			errs = append(errs, fmt.Errorf("イベント %s の削除に失敗: %w", ev.ID, err))
			continue
		}
		if deleted {
			result.Events++
		}
		s.logger.WithFields(logrus.Fields{
			"event":       ev.ID,
			"expiresAt":   ev.ExpiresAt.Format(time.RFC3339),
			"submissions": removed,
		}).Info("期限切れイベントを削除")
	}

	return result, errors.Join(errs...)
}

// Schedule は loc で評価する cron 式に Sweep を登録してスケジューラーを起動する。
// 実行ごとにタイムアウトを設ける。停止時は返したスケジューラーを Stop すること。
func (s *Sweeper) Schedule(spec string, loc *time.Location, timeout time.Duration) (*cron.Cron, error) {
	if loc == nil {
		loc = time.UTC
	}
	logger := cron.PrintfLogger(s.logger)
	c := cron.New(
		cron.WithLocation(loc),
		cron.WithLogger(logger),
		cron.WithChain(cron.Recover(logger), cron.SkipIfStillRunning(logger)),
	)

	_, err := c.AddFunc(spec, func() {
		ctx, cancel := context.WithTimeout(context.Background(), timeout)
		defer cancel()

		result, err := s.Sweep(ctx)
		if err != nil {
			s.logger.WithError(err).Error("期限切れイベントの掃除に失敗")
		}
		s.logger.WithFields(logrus.Fields{
			"events":      result.Events,
			"submissions": result.Submissions,
		}).Info("期限切れイベントの掃除が完了")
	})
	if err != nil {
		return nil, fmt.Errorf("掃除スケジュール %q が不正です: %w", spec, err)
	}

	c.Start()
	return c, nil
}
