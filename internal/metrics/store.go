package metrics

import (
	"sync/atomic"
	"time"
)

// Counters tracks pipeline progress. Safe for concurrent readers; the
// pipeline goroutine is the only writer.
type Counters struct {
	started          time.Time
	linesRead        atomic.Int64
	recordsCompleted atomic.Int64
	alertsSaved      atomic.Int64
	alertsDropped    atomic.Int64
	rulesCreated     atomic.Int64
	ruleFailures     atomic.Int64
	publishFailures  atomic.Int64
	cycles           atomic.Int64
	lastSaved        atomic.Int64
	lastError        atomic.Value
}

type Snapshot struct {
	Started          time.Time  `json:"started"`
	LinesRead        int64      `json:"lines_read"`
	RecordsCompleted int64      `json:"records_completed"`
	AlertsSaved      int64      `json:"alerts_saved"`
	AlertsDropped    int64      `json:"alerts_dropped"`
	RulesCreated     int64      `json:"rules_created"`
	RuleFailures     int64      `json:"rule_failures"`
	PublishFailures  int64      `json:"publish_failures"`
	Cycles           int64      `json:"cycles"`
	LastSaved        *time.Time `json:"last_saved,omitempty"`
	LastError        string     `json:"last_error,omitempty"`
}

func NewCounters() *Counters {
	return &Counters{started: time.Now().UTC()}
}

func (c *Counters) LineRead() {
	if c != nil {
		c.linesRead.Add(1)
	}
}

func (c *Counters) RecordCompleted() {
	if c != nil {
		c.recordsCompleted.Add(1)
	}
}

func (c *Counters) AlertSaved() {
	if c != nil {
		c.alertsSaved.Add(1)
		c.lastSaved.Store(time.Now().UTC().UnixNano())
	}
}

func (c *Counters) AlertDropped(err error) {
	if c != nil {
		c.alertsDropped.Add(1)
		c.setError(err)
	}
}

func (c *Counters) RuleCreated() {
	if c != nil {
		c.rulesCreated.Add(1)
	}
}

func (c *Counters) RuleFailed(err error) {
	if c != nil {
		c.ruleFailures.Add(1)
		c.setError(err)
	}
}

func (c *Counters) PublishFailed(err error) {
	if c != nil {
		c.publishFailures.Add(1)
		c.setError(err)
	}
}

func (c *Counters) CycleStarted() {
	if c != nil {
		c.cycles.Add(1)
	}
}

func (c *Counters) CycleFailed(err error) {
	if c != nil {
		c.setError(err)
	}
}

func (c *Counters) setError(err error) {
	if err != nil {
		c.lastError.Store(err.Error())
	}
}

func (c *Counters) Snapshot() Snapshot {
	s := Snapshot{
		Started:          c.started,
		LinesRead:        c.linesRead.Load(),
		RecordsCompleted: c.recordsCompleted.Load(),
		AlertsSaved:      c.alertsSaved.Load(),
		AlertsDropped:    c.alertsDropped.Load(),
		RulesCreated:     c.rulesCreated.Load(),
		RuleFailures:     c.ruleFailures.Load(),
		PublishFailures:  c.publishFailures.Load(),
		Cycles:           c.cycles.Load(),
	}
	if ns := c.lastSaved.Load(); ns > 0 {
		ts := time.Unix(0, ns).UTC()
		s.LastSaved = &ts
	}
	if v, ok := c.lastError.Load().(string); ok {
		s.LastError = v
	}
	return s
}
