package server

import (
	"context"
	"fmt"

	"github.com/formcollector/api/internal/collector/application"
	"github.com/formcollector/api/internal/config"
	"github.com/formcollector/api/internal/infrastructure/memory"
	mongodoc "github.com/formcollector/api/internal/infrastructure/mongo"
	"go.mongodb.org/mongo-driver/mongo/readpref"
)

// Backend は 1 つのストアのリポジトリ群と、その疎通確認・切断処理をまとめたもの。
type Backend struct {
	Events      application.EventRepository
	Submissions application.SubmissionRepository
	Ping        func(ctx context.Context) error
	Close       func(ctx context.Context) error
}

// OpenBackend は設定に応じて MongoDB かインメモリのストアを用意する。
// MongoDB の場合は接続確認とインデックス作成まで行う。
func OpenBackend(ctx context.Context, cfg config.Config) (Backend, error) {
	if cfg.StoreBackend == config.BackendMemory {
		return NewMemoryBackend(memory.NewStore()), nil
	}

	client, err := mongodoc.Connect(ctx, cfg.MongoURI, cfg.Timeout)
	if err != nil {
		return Backend{}, fmt.Errorf("MongoDB への接続に失敗: %w", err)
	}
	db := client.Database(cfg.MongoDatabase)

	indexCtx, cancel := context.WithTimeout(ctx, cfg.Timeout)
	defer cancel()
	if err := mongodoc.EnsureIndexes(indexCtx, db, cfg.EventCollection, cfg.SubmissionCollection); err != nil {
		cfg.ServerLog.WithError(err).Warn("MongoDB のインデックス作成に失敗")
	}

	return Backend{
		Events:      mongodoc.NewEventRepository(db, cfg.EventCollection),
		Submissions: mongodoc.NewSubmissionRepository(db, cfg.SubmissionCollection),
		Ping: func(ctx context.Context) error {
			return client.Ping(ctx, readpref.Primary())
		},
		Close: client.Disconnect,
	}, nil
}

// NewMemoryBackend はインメモリストアを Backend として包む。
func NewMemoryBackend(store *memory.Store) Backend {
	return Backend{
		Events:      store.Events(),
		Submissions: store.Submissions(),
		Ping:        store.Ping,
		Close:       func(context.Context) error { return nil },
	}
}
