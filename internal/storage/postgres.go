package storage

import (
	"strings"

	_ "github.com/jackc/pgx/v5/stdlib"
)

type postgresStore struct {
	baseStore
}

var postgresQueries = queries{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS ossec_rules (
			rule_id BIGSERIAL PRIMARY KEY,
			rule_number INTEGER NOT NULL UNIQUE,
			rule_message TEXT NOT NULL DEFAULT '',
			rule_level SMALLINT NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS ossec_alerts (
			alert_id BIGSERIAL PRIMARY KEY,
			alert_date TIMESTAMPTZ NOT NULL,
			host_id BIGINT NOT NULL DEFAULT 0,
			alert_log TEXT NOT NULL DEFAULT '',
			rule_id BIGINT NOT NULL DEFAULT 0,
			rule_user TEXT NOT NULL DEFAULT '',
			rule_log TEXT NOT NULL DEFAULT '',
			rule_src_ip TEXT NOT NULL DEFAULT '0.0.0.0',
			rule_src_ip_numeric BIGINT NOT NULL DEFAULT 0,
			alert_ossec_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ossec_alerts_date ON ossec_alerts(alert_date)`,
		`CREATE TABLE IF NOT EXISTS host (
			host_id BIGSERIAL PRIMARY KEY,
			host_name TEXT NOT NULL UNIQUE
		)`,
	},
	lookupRule: `SELECT rule_id FROM ossec_rules WHERE rule_number = $1`,
	insertRule: `INSERT INTO ossec_rules (rule_number, rule_message, rule_level) VALUES ($1, $2, $3)
		ON CONFLICT (rule_number) DO NOTHING`,
	lookupHost: `SELECT host_id FROM host WHERE host_name = $1`,
	insertAlert: `INSERT INTO ossec_alerts (alert_date, host_id, alert_log, rule_id, rule_user, rule_log, rule_src_ip, rule_src_ip_numeric, alert_ossec_id)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`,
}

func NewPostgres(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "postgres://localhost:5432/hector?sslmode=disable"
	}
	base, err := openDB("pgx", dsn, postgresQueries)
	if err != nil {
		return nil, err
	}
	return &postgresStore{base}, nil
}
