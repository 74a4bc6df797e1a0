package main

import (
	"context"
	"database/sql"
	"log/slog"
	"time"

	"altguard/internal/platform/config"
	"altguard/internal/platform/redis"
	"altguard/internal/verification/models"
	identitystore "altguard/internal/verification/store/identity"
	tokenstore "altguard/internal/verification/store/token"
	"altguard/pkg/platform/audit"
	auditmemory "altguard/pkg/platform/audit/store/memory"
	auditpostgres "altguard/pkg/platform/audit/store/postgres"
)

type tokenStore interface {
	Create(ctx context.Context, token *models.Token) error
	Consume(ctx context.Context, value string, now time.Time, ttl time.Duration) (*models.Token, error)
	DeleteCreatedBefore(ctx context.Context, cutoff time.Time) (int, error)
}

type identityStore interface {
	FindEarliestByFingerprint(ctx context.Context, fingerprint string) (*models.Identity, error)
	FindEarliestByAddress(ctx context.Context, address string) (*models.Identity, error)
	Create(ctx context.Context, identity *models.Identity) error
	RunInTx(ctx context.Context, fn func(ctx context.Context) error) error
	ListBySubjects(ctx context.Context, subjectIDs []string) ([]*models.Identity, error)
}

type stores struct {
	tokens     tokenStore
	identities identityStore
	audit      audit.Store
}

// newStores picks the persistence bindings. Redis, when configured, holds tokens
// regardless of the backend chosen for identities.
func newStores(cfg config.Config, db *sql.DB, redisClient *redis.Client, log *slog.Logger) stores {
	var st stores
	if db != nil {
		st = stores{
			tokens:     tokenstore.NewPostgres(db),
			identities: identitystore.NewPostgres(db),
			audit:      auditpostgres.New(db),
		}
	} else {
		st = stores{
			tokens:     tokenstore.New(),
			identities: identitystore.New(),
			audit:      auditmemory.NewInMemoryStore(),
		}
	}
	if redisClient != nil {
		st.tokens = tokenstore.NewRedis(redisClient.Client, cfg.Verification.TokenTTL,
			tokenstore.WithRetention(cfg.Redis.Retention))
		log.Info("using redis token store")
	}
	return st
}
