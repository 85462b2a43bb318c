package storage

import (
	"strings"

	_ "modernc.org/sqlite"
)

type sqliteStore struct {
	baseStore
}

var sqliteQueries = queries{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS ossec_rules (
			rule_id INTEGER PRIMARY KEY AUTOINCREMENT,
			rule_number INTEGER NOT NULL UNIQUE,
			rule_message TEXT NOT NULL DEFAULT '',
			rule_level INTEGER NOT NULL DEFAULT 0
		)`,
		`CREATE TABLE IF NOT EXISTS ossec_alerts (
			alert_id INTEGER PRIMARY KEY AUTOINCREMENT,
			alert_date TIMESTAMP NOT NULL,
			host_id INTEGER NOT NULL DEFAULT 0,
			alert_log TEXT NOT NULL DEFAULT '',
			rule_id INTEGER NOT NULL DEFAULT 0,
			rule_user TEXT NOT NULL DEFAULT '',
			rule_log TEXT NOT NULL DEFAULT '',
			rule_src_ip TEXT NOT NULL DEFAULT '0.0.0.0',
			rule_src_ip_numeric INTEGER NOT NULL DEFAULT 0,
			alert_ossec_id TEXT NOT NULL DEFAULT ''
		)`,
		`CREATE INDEX IF NOT EXISTS idx_ossec_alerts_date ON ossec_alerts(alert_date)`,
		`CREATE TABLE IF NOT EXISTS host (
			host_id INTEGER PRIMARY KEY AUTOINCREMENT,
			host_name TEXT NOT NULL UNIQUE
		)`,
	},
	lookupRule: `SELECT rule_id FROM ossec_rules WHERE rule_number = ?`,
	insertRule: `INSERT INTO ossec_rules (rule_number, rule_message, rule_level) VALUES (?, ?, ?)
		ON CONFLICT(rule_number) DO NOTHING`,
	lookupHost: `SELECT host_id FROM host WHERE host_name = ?`,
	insertAlert: `INSERT INTO ossec_alerts (alert_date, host_id, alert_log, rule_id, rule_user, rule_log, rule_src_ip, rule_src_ip_numeric, alert_ossec_id)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
}

func NewSQLite(dsn string) (Store, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "file:ossectail.db?_pragma=busy_timeout(5000)"
	}
	base, err := openDB("sqlite", dsn, sqliteQueries)
	if err != nil {
		return nil, err
	}
	return &sqliteStore{base}, nil
}
