package metrics

import (
	"errors"
	"testing"
)

func TestCountersSnapshot(t *testing.T) {
	c := NewCounters()
	c.LineRead()
	c.LineRead()
	c.RecordCompleted()
	c.AlertSaved()
	c.AlertDropped(errors.New("db down"))
	c.RuleCreated()

	s := c.Snapshot()
	if s.LinesRead != 2 || s.RecordsCompleted != 1 || s.AlertsSaved != 1 || s.AlertsDropped != 1 || s.RulesCreated != 1 {
		t.Fatalf("unexpected snapshot: %+v", s)
	}
	if s.LastSaved == nil {
		t.Fatalf("expected last saved timestamp")
	}
	if s.LastError != "db down" {
		t.Fatalf("last error: %q", s.LastError)
	}
}

func TestNilCountersAreNoop(t *testing.T) {
	var c *Counters
	c.LineRead()
	c.AlertDropped(errors.New("ignored"))
}
