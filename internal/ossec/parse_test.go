package ossec

import (
	"errors"
	"testing"
)

func TestParseAlertID(t *testing.T) {
	if got := ParseAlertID("** Alert 1297702559.16083181: - apache,"); got != "1297702559.16083181" {
		t.Fatalf("id: %q", got)
	}
	if got := ParseAlertID("** Alert"); got != "" {
		t.Fatalf("short boundary should yield empty id, got %q", got)
	}
}

func TestParseRuleLine(t *testing.T) {
	rule, err := ParseRuleLine("Rule: 5715 (level 3) -> 'SSHD authentication success.'")
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if rule.Number != 5715 || rule.Level != 3 || rule.Message != "SSHD authentication success." {
		t.Fatalf("rule: %+v", rule)
	}
}

func TestParseRuleLineMalformed(t *testing.T) {
	for _, line := range []string{
		"Rule: abc (level 3) -> 'x'",
		"Rule: 12",
		"Rule: 12 (level 3)",
		"Rule: 12 (level x) -> 'x'",
	} {
		if _, err := ParseRuleLine(line); !errors.Is(err, ErrRuleLine) {
			t.Fatalf("%q: expected ErrRuleLine, got %v", line, err)
		}
	}
}

func TestHostName(t *testing.T) {
	cases := map[string]string{
		"(www.sas.upenn.edu) 128.91.55.19->/var/log/httpd/error_log": "www.sas.upenn.edu",
		"ossec-server->/var/log/secure":                              "ossec-server",
		"":                                                           "",
	}
	for in, want := range cases {
		if got := HostName(in); got != want {
			t.Fatalf("%q: got %q want %q", in, got, want)
		}
	}
}

func TestParseDateLineKeepsDescriptorSpacing(t *testing.T) {
	ts, desc := ParseDateLine("2011 Feb 14 11:55:59 (web  01) 10.0.0.1->/var/log/a  b.log")
	if ts != "2011 Feb 14 11:55:59" {
		t.Fatalf("timestamp: %q", ts)
	}
	if desc != "(web  01) 10.0.0.1->/var/log/a  b.log" {
		t.Fatalf("descriptor: %q", desc)
	}

	ts, desc = ParseDateLine("2011 Feb  3 01:02:03 ossec-server->/var/log/secure")
	if ts != "2011 Feb 3 01:02:03" || desc != "ossec-server->/var/log/secure" {
		t.Fatalf("padded day: %q %q", ts, desc)
	}

	ts, desc = ParseDateLine("2011 Feb 14 11:55:59")
	if ts != "2011 Feb 14 11:55:59" || desc != "" {
		t.Fatalf("no descriptor: %q %q", ts, desc)
	}
}
