package ossec

import (
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"ossectail/internal/model"
)

const (
	alertPrefix = "** Alert"
	rulePrefix  = "Rule: "
	srcIPPrefix = "Src IP: "
	userPrefix  = "User: "
)

// 2011 Feb 14 11:55:59 (www.sas.upenn.edu) 128.91.55.19->/var/log/httpd/error_log
var reDateLine = regexp.MustCompile(`^\d{4} [A-Z][a-z]{2} \d{1,2} `)

var ErrRuleLine = errors.New("malformed rule line")

func IsBoundary(line string) bool {
	return strings.HasPrefix(line, alertPrefix)
}

// ParseAlertID extracts "1297702559.16083181" from
// "** Alert 1297702559.16083181: - apache,".
func ParseAlertID(line string) string {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return ""
	}
	return strings.TrimSuffix(fields[2], ":")
}

// ParseDateLine splits a date line into the timestamp (first four tokens)
// and the source-log descriptor, which is kept byte for byte after the
// single separating space.
func ParseDateLine(line string) (string, string) {
	rest := line
	date := make([]string, 0, 4)
	for len(date) < 4 && rest != "" {
		tok, tail, _ := strings.Cut(rest, " ")
		rest = tail
		if tok != "" {
			date = append(date, tok)
		}
	}
	return strings.Join(date, " "), rest
}

func ParseRuleNumber(line string) (int, error) {
	fields := strings.Fields(line)
	if len(fields) < 2 {
		return 0, fmt.Errorf("%w: %q", ErrRuleLine, line)
	}
	n, err := strconv.Atoi(fields[1])
	if err != nil {
		return 0, fmt.Errorf("%w: rule number %q", ErrRuleLine, fields[1])
	}
	return n, nil
}

// ParseRuleLine reads "Rule: 31410 (level 3) -> 'PHP Warning message.'".
func ParseRuleLine(line string) (model.Rule, error) {
	line = strings.TrimSpace(line)
	number, err := ParseRuleNumber(line)
	if err != nil {
		return model.Rule{}, err
	}
	fields := strings.Fields(line)
	if len(fields) < 4 {
		return model.Rule{}, fmt.Errorf("%w: missing level in %q", ErrRuleLine, line)
	}
	level, err := strconv.Atoi(strings.TrimRight(fields[3], ").,:;"))
	if err != nil {
		return model.Rule{}, fmt.Errorf("%w: level %q", ErrRuleLine, fields[3])
	}
	idx := strings.Index(line, "->")
	if idx < 0 {
		return model.Rule{}, fmt.Errorf("%w: missing message in %q", ErrRuleLine, line)
	}
	msg := strings.TrimSpace(line[idx+2:])
	msg = strings.TrimSuffix(strings.TrimPrefix(msg, "'"), "'")
	return model.Rule{Number: number, Message: msg, Level: level}, nil
}

// SanitizeIP keeps digits and dots. The literal "(none)" survives so the
// read-out can map it to loopback.
func SanitizeIP(raw string) string {
	v := strings.TrimSpace(raw)
	if v == model.NoneValue {
		return v
	}
	var b strings.Builder
	for _, ch := range v {
		if (ch >= '0' && ch <= '9') || ch == '.' {
			b.WriteRune(ch)
		}
	}
	if b.Len() == 0 {
		return model.DefaultSrcIP
	}
	return b.String()
}

// HostName picks the agent name out of a log descriptor:
// "(www.sas.upenn.edu) 128.91.55.19->/var/log/..." gives "www.sas.upenn.edu",
// "ossec-server->/var/log/secure" gives "ossec-server".
func HostName(descriptor string) string {
	d := strings.TrimSpace(descriptor)
	if strings.HasPrefix(d, "(") {
		if end := strings.Index(d, ")"); end > 1 {
			return d[1:end]
		}
	}
	if idx := strings.Index(d, "->"); idx > 0 {
		return strings.TrimSpace(d[:idx])
	}
	return ""
}
