package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"

	"ossectail/internal/config"
	"ossectail/internal/model"
	"ossectail/internal/normalize"
)

// Store persists OSSEC rules and alerts. Every method is a single
// autocommitted statement or a short idempotent pair.
type Store interface {
	Init(ctx context.Context) error
	Ping(ctx context.Context) error
	Close() error
	LookupRule(ctx context.Context, number int) (int64, bool, error)
	// EnsureRule inserts the rule unless its number already exists and
	// returns the stored id. created reports whether this call inserted it.
	EnsureRule(ctx context.Context, rule model.Rule) (id int64, created bool, err error)
	LookupHost(ctx context.Context, name string) (int64, bool, error)
	SaveAlert(ctx context.Context, alert model.Alert) error
}

func NewStore(cfg config.StorageConfig) (Store, error) {
	switch strings.ToLower(cfg.Driver) {
	case "mysql":
		loc, err := normalize.LoadLocation(cfg.TimeZone)
		if err != nil {
			return nil, fmt.Errorf("storage.time_zone: %w", err)
		}
		return NewMySQL(cfg.DSN, loc)
	case "sqlite":
		return NewSQLite(cfg.DSN)
	case "postgres", "postgresql":
		return NewPostgres(cfg.DSN)
	default:
		return nil, fmt.Errorf("unsupported storage driver: %q", cfg.Driver)
	}
}

type queries struct {
	schema      []string
	lookupRule  string
	insertRule  string
	lookupHost  string
	insertAlert string
}

type baseStore struct {
	db *sql.DB
	q  queries
}

func openDB(driver, dsn string, q queries) (baseStore, error) {
	db, err := sql.Open(driver, dsn)
	if err != nil {
		return baseStore{}, fmt.Errorf("open %s: %w", driver, err)
	}
	// One long-lived connection per run cycle; statements autocommit.
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)
	return baseStore{db: db, q: q}, nil
}

func (b *baseStore) Init(ctx context.Context) error {
	for _, stmt := range b.q.schema {
		if _, err := b.db.ExecContext(ctx, stmt); err != nil {
			return fmt.Errorf("init schema: %w", err)
		}
	}
	return nil
}

func (b *baseStore) Ping(ctx context.Context) error {
	return b.db.PingContext(ctx)
}

func (b *baseStore) Close() error {
	if b.db != nil {
		return b.db.Close()
	}
	return nil
}

func (b *baseStore) LookupRule(ctx context.Context, number int) (int64, bool, error) {
	return b.lookupID(ctx, b.q.lookupRule, number)
}

func (b *baseStore) EnsureRule(ctx context.Context, rule model.Rule) (int64, bool, error) {
	res, err := b.db.ExecContext(ctx, b.q.insertRule, rule.Number, rule.Message, rule.Level)
	if err != nil {
		return 0, false, fmt.Errorf("insert rule %d: %w", rule.Number, err)
	}
	affected, _ := res.RowsAffected()
	id, ok, err := b.LookupRule(ctx, rule.Number)
	if err != nil {
		return 0, false, err
	}
	if !ok {
		return 0, false, fmt.Errorf("rule %d missing after insert", rule.Number)
	}
	return id, affected > 0, nil
}

func (b *baseStore) LookupHost(ctx context.Context, name string) (int64, bool, error) {
	if strings.TrimSpace(name) == "" {
		return 0, false, nil
	}
	return b.lookupID(ctx, b.q.lookupHost, name)
}

func (b *baseStore) SaveAlert(ctx context.Context, alert model.Alert) error {
	_, err := b.db.ExecContext(ctx, b.q.insertAlert,
		alert.Time.UTC(),
		alert.HostID,
		alert.LogDescriptor,
		alert.RuleID,
		alert.User,
		alert.Message,
		alert.SrcIP,
		int64(alert.SrcIPNumeric),
		alert.OSSECID,
	)
	if err != nil {
		return fmt.Errorf("insert alert %s: %w", alert.OSSECID, err)
	}
	return nil
}

func (b *baseStore) lookupID(ctx context.Context, query string, arg any) (int64, bool, error) {
	var id int64
	err := b.db.QueryRowContext(ctx, query, arg).Scan(&id)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, err
	}
	return id, true, nil
}
