package database

import (
	"context"
	"fmt"

	"go.mongodb.org/mongo-driver/mongo/readpref"
	"go.uber.org/zap"

	"github.com/noah-isme/sma-registrar-api/pkg/config"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore/memstore"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore/mongostore"
	"github.com/noah-isme/sma-registrar-api/pkg/docstore/pgstore"
)

// StoreBackend is an opened document store with its health probe.
type StoreBackend struct {
	Store docstore.Store
	Ping  func(context.Context) error
	Close func()
}

// OpenStore connects the document store selected by cfg.Store.Driver.
func OpenStore(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*StoreBackend, error) {
	switch cfg.Store.Driver {
	case config.StoreMongo:
		client, err := NewMongo(ctx, cfg.Mongo)
		if err != nil {
			return nil, err
		}
		return &StoreBackend{
			Store: mongostore.New(client.Database(cfg.Mongo.Database)),
			Ping:  func(ctx context.Context) error { return client.Ping(ctx, readpref.Primary()) },
			Close: func() {
				if err := client.Disconnect(context.Background()); err != nil {
					logger.Warn("mongo disconnect failed", zap.Error(err))
				}
			},
		}, nil
	case config.StorePostgres:
		db, err := NewPostgres(ctx, cfg.Database)
		if err != nil {
			return nil, err
		}
		store := pgstore.New(db)
		if err := store.EnsureSchema(ctx); err != nil {
			_ = db.Close()
			return nil, err
		}
		return &StoreBackend{
			Store: store,
			Ping:  db.PingContext,
			Close: func() { _ = db.Close() },
		}, nil
	case config.StoreMemory, "":
		logger.Warn("using in-memory document store; data is lost on restart")
		return &StoreBackend{
			Store: memstore.New(),
			Ping:  func(context.Context) error { return nil },
			Close: func() {},
		}, nil
	default:
		return nil, fmt.Errorf("unsupported store driver %q", cfg.Store.Driver)
	}
}
