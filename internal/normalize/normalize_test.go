package normalize

import (
	"strings"
	"testing"
	"time"

	"ossectail/internal/model"
)

func TestParseTimestamp(t *testing.T) {
	ts, err := ParseTimestamp("2011 Feb 14 11:55:59", time.UTC)
	if err != nil {
		t.Fatalf("parse error: %v", err)
	}
	want := time.Date(2011, time.February, 14, 11, 55, 59, 0, time.UTC)
	if !ts.Equal(want) {
		t.Fatalf("got %s want %s", ts, want)
	}
	if _, err := ParseTimestamp("2011 Feb  3 01:02:03", time.UTC); err != nil {
		t.Fatalf("single digit day: %v", err)
	}
	if _, err := ParseTimestamp("yesterday", time.UTC); err == nil {
		t.Fatalf("expected error for garbage timestamp")
	}
}

func TestIPv4Numeric(t *testing.T) {
	if got := IPv4Numeric("128.91.34.6"); got != 2153456134 {
		t.Fatalf("unexpected encoding: %d", got)
	}
	if got := IPv4Numeric("127.0.0.1"); got != 2130706433 {
		t.Fatalf("unexpected loopback encoding: %d", got)
	}
	if got := IPv4Numeric("128.91"); got != 0 {
		t.Fatalf("partial address should encode as 0, got %d", got)
	}
}

func TestNormalizeDefaults(t *testing.T) {
	alert := Normalize(model.AlertRecord{ID: "1.2"}, time.UTC)
	if !alert.Time.Equal(DefaultTime) {
		t.Fatalf("expected default time, got %s", alert.Time)
	}
	if alert.HostID != 0 || alert.RuleID != 0 {
		t.Fatalf("expected zero references")
	}
	if alert.SrcIP != "0.0.0.0" || alert.SrcIPNumeric != 0 {
		t.Fatalf("unexpected ip defaults: %s %d", alert.SrcIP, alert.SrcIPNumeric)
	}
	if alert.OSSECID != "1.2" {
		t.Fatalf("ossec id: %s", alert.OSSECID)
	}
}

func TestNormalizeCarriesFields(t *testing.T) {
	rec := model.AlertRecord{
		ID:            "1297702559.16083181",
		Timestamp:     model.Some("2011 Feb 14 11:55:59"),
		HostID:        model.Some[int64](4),
		LogDescriptor: model.Some("(www.sas.upenn.edu) 128.91.55.19->/var/log/httpd/error_log"),
		RuleID:        model.Some[int64](9),
		SrcIP:         model.Some("(none)"),
		User:          model.Some("(none)"),
		Message:       model.Some("body"),
	}
	alert := Normalize(rec, time.UTC)
	if alert.SrcIP != "127.0.0.1" || alert.SrcIPNumeric != 2130706433 {
		t.Fatalf("expected loopback, got %s %d", alert.SrcIP, alert.SrcIPNumeric)
	}
	if alert.HostID != 4 || alert.RuleID != 9 || alert.User != "(none)" || alert.Message != "body" {
		t.Fatalf("fields not carried: %+v", alert)
	}
	if alert.Time.Year() != 2011 {
		t.Fatalf("time not parsed: %s", alert.Time)
	}
}

func TestNormalizeClampsSourceIP(t *testing.T) {
	raw := strings.Repeat("1234567890", 6)
	alert := Normalize(model.AlertRecord{ID: "1.3", SrcIP: model.Some(raw)}, time.UTC)
	if len(alert.SrcIP) != model.MaxSrcIPLen || alert.SrcIP != raw[:model.MaxSrcIPLen] {
		t.Fatalf("source ip not clamped: %q", alert.SrcIP)
	}
	if alert.SrcIPNumeric != 0 {
		t.Fatalf("non-IPv4 source should encode as 0, got %d", alert.SrcIPNumeric)
	}

	v6 := Normalize(model.AlertRecord{ID: "1.4", SrcIP: model.Some("80000000000000000204619")}, time.UTC)
	if v6.SrcIP != "80000000000000000204619" {
		t.Fatalf("short value must pass through: %q", v6.SrcIP)
	}
}
