package ossec

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"ossectail/internal/metrics"
	"ossectail/internal/model"
)

type RuleResolver interface {
	Resolve(ctx context.Context, number int) (int64, bool, error)
	Create(ctx context.Context, rule model.Rule) (int64, error)
}

type Options struct {
	// ConcatMessage joins every body line instead of keeping only the last.
	ConcatMessage bool
}

// Assembler folds alerts.log lines into AlertRecords. It holds no state
// between records beyond the one being built.
type Assembler struct {
	rules    RuleResolver
	opts     Options
	counters *metrics.Counters
	logger   *slog.Logger
	cur      model.AlertRecord
}

func NewAssembler(rules RuleResolver, opts Options, counters *metrics.Counters, logger *slog.Logger) *Assembler {
	return &Assembler{rules: rules, opts: opts, counters: counters, logger: logger}
}

// Process consumes one line. When the line opens a new alert and the
// previous record has an id, that record is returned with true.
func (a *Assembler) Process(ctx context.Context, line string) (model.AlertRecord, bool) {
	line = strings.TrimRight(line, "\r\n")
	switch {
	case IsBoundary(line):
		prev := a.cur
		a.cur = model.AlertRecord{ID: ParseAlertID(line)}
		return prev, !prev.Empty()
	case reDateLine.MatchString(line):
		if !a.cur.LogDescriptor.IsSet() {
			ts, desc := ParseDateLine(line)
			a.cur.Timestamp = model.Some(ts)
			a.cur.LogDescriptor = model.Some(desc)
		}
	case strings.HasPrefix(line, rulePrefix):
		a.resolveRule(ctx, line)
	case strings.HasPrefix(line, srcIPPrefix):
		a.cur.SrcIP = model.Some(SanitizeIP(line[len(srcIPPrefix):]))
	case strings.HasPrefix(line, userPrefix):
		a.cur.User = model.Some(strings.TrimSpace(line[len(userPrefix):]))
	default:
		msg := strings.TrimSpace(line)
		if msg == "" {
			break
		}
		if prev, ok := a.cur.Message.Get(); ok && a.opts.ConcatMessage {
			msg = prev + "\n" + msg
		}
		a.cur.Message = model.Some(msg)
	}
	return model.AlertRecord{}, false
}

// Flush hands back the record in progress at end of stream.
func (a *Assembler) Flush() (model.AlertRecord, bool) {
	prev := a.cur
	a.cur = model.AlertRecord{}
	return prev, !prev.Empty()
}

func (a *Assembler) Current() model.AlertRecord {
	return a.cur
}

func (a *Assembler) resolveRule(ctx context.Context, line string) {
	id, err := a.lookupOrCreate(ctx, line)
	if err != nil {
		a.counters.RuleFailed(err)
		if a.logger != nil {
			a.logger.Warn("rule resolution failed", "ossec_id", a.cur.ID, "line", line, "err", err)
		}
		return
	}
	a.cur.RuleID = model.Some(id)
}

func (a *Assembler) lookupOrCreate(ctx context.Context, line string) (int64, error) {
	if a.rules == nil {
		return 0, fmt.Errorf("no rule resolver")
	}
	number, err := ParseRuleNumber(line)
	if err != nil {
		return 0, err
	}
	if id, ok, err := a.rules.Resolve(ctx, number); err != nil {
		return 0, err
	} else if ok {
		return id, nil
	}
	rule, err := ParseRuleLine(line)
	if err != nil {
		return 0, err
	}
	if _, err := a.rules.Create(ctx, rule); err != nil {
		return 0, err
	}
	id, ok, err := a.rules.Resolve(ctx, number)
	if err != nil {
		return 0, err
	}
	if !ok {
		return 0, fmt.Errorf("rule %d not found after create", number)
	}
	return id, nil
}
