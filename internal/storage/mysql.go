package storage

import (
	"fmt"
	"strings"
	"time"

	"github.com/go-sql-driver/mysql"
)

type mysqlStore struct {
	baseStore
}

// HECTOR's own tables; host is normally owned by the HECTOR web app and
// only created here for standalone installs.
var mysqlQueries = queries{
	schema: []string{
		`CREATE TABLE IF NOT EXISTS ossec_rules (
			rule_id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			rule_number INT NOT NULL,
			rule_message TEXT NOT NULL,
			rule_level SMALLINT NOT NULL DEFAULT 0,
			UNIQUE KEY uniq_rule_number (rule_number)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS ossec_alerts (
			alert_id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			alert_date DATETIME NOT NULL,
			host_id INT UNSIGNED NOT NULL DEFAULT 0,
			alert_log TEXT NOT NULL,
			rule_id INT UNSIGNED NOT NULL DEFAULT 0,
			rule_user TEXT NOT NULL,
			rule_log TEXT NOT NULL,
			rule_src_ip VARCHAR(45) NOT NULL DEFAULT '0.0.0.0',
			rule_src_ip_numeric INT UNSIGNED NOT NULL DEFAULT 0,
			alert_ossec_id VARCHAR(255) NOT NULL DEFAULT '',
			KEY idx_alert_date (alert_date)
		) ENGINE=InnoDB`,
		`CREATE TABLE IF NOT EXISTS host (
			host_id INT UNSIGNED NOT NULL AUTO_INCREMENT PRIMARY KEY,
			host_name VARCHAR(255) NOT NULL,
			UNIQUE KEY uniq_host_name (host_name)
		) ENGINE=InnoDB`,
	},
	lookupRule:  "SELECT rule_id FROM ossec_rules WHERE rule_number = ?",
	insertRule:  "INSERT IGNORE INTO ossec_rules (rule_number, rule_message, rule_level) VALUES (?, ?, ?)",
	lookupHost:  "SELECT host_id FROM host WHERE host_name = ?",
	insertAlert: "INSERT INTO ossec_alerts (alert_date, host_id, alert_log, rule_id, rule_user, rule_log, rule_src_ip, rule_src_ip_numeric, alert_ossec_id) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)",
}

// NewMySQL opens the HECTOR database. alert_date is a zoneless DATETIME, so
// the driver writes and reads it as wall time in loc.
func NewMySQL(dsn string, loc *time.Location) (Store, error) {
	formatted, err := mysqlDSN(dsn, loc)
	if err != nil {
		return nil, err
	}
	base, err := openDB("mysql", formatted, mysqlQueries)
	if err != nil {
		return nil, err
	}
	return &mysqlStore{base}, nil
}

func mysqlDSN(dsn string, loc *time.Location) (string, error) {
	if strings.TrimSpace(dsn) == "" {
		dsn = "root@tcp(localhost:3306)/hector"
	}
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return "", fmt.Errorf("parse mysql dsn: %w", err)
	}
	if loc == nil {
		loc = time.UTC
	}
	cfg.ParseTime = true
	cfg.Loc = loc
	return cfg.FormatDSN(), nil
}
