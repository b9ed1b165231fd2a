package postgres

import (
	"context"
	_ "embed"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/gosuda/cortex/internal/domain"
)

//go:embed schema.sql
var schemaSQL string

type Store struct {
	pool      *pgxpool.Pool
	documents *DocumentRepo
	rules     *RuleRepo
	audit     *AuditRepo
}

func New(ctx context.Context, dsn string, maxConns int32) (*Store, error) {
	cfg, err := pgxpool.ParseConfig(dsn)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: parse config: %w", err)
	}

	cfg.MaxConns = maxConns

	pool, err := pgxpool.NewWithConfig(ctx, cfg)
	if err != nil {
		return nil, fmt.Errorf("postgres.New: connect: %w", err)
	}

	err = pool.Ping(ctx)
	if err != nil {
		pool.Close()
		return nil, fmt.Errorf("postgres.New: ping: %w", err)
	}

	return &Store{
		pool:      pool,
		documents: NewDocumentRepo(pool),
		rules:     NewRuleRepo(pool),
		audit:     NewAuditRepo(pool),
	}, nil
}

// EnsureSchema creates the tables and indexes if they do not exist. The
// statements are idempotent, so running it on every startup is safe.
func (s *Store) EnsureSchema(ctx context.Context) error {
	if _, err := s.pool.Exec(ctx, schemaSQL); err != nil {
		return fmt.Errorf("postgres.Store.EnsureSchema: %w", err)
	}
	return nil
}

func (s *Store) Close() {
	s.pool.Close()
}

func (s *Store) Documents() domain.DocumentRepository { return s.documents }
func (s *Store) Rules() domain.RuleRepository         { return s.rules }
func (s *Store) Audit() domain.AuditRepository        { return s.audit }
