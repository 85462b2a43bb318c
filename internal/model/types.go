package model

import "time"

// Opt holds a value together with whether it was ever set, so that an
// explicit zero can be told apart from a field the log never mentioned.
type Opt[T any] struct {
	val T
	ok  bool
}

func Some[T any](v T) Opt[T] {
	return Opt[T]{val: v, ok: true}
}

func (o Opt[T]) Get() (T, bool) {
	return o.val, o.ok
}

func (o Opt[T]) IsSet() bool {
	return o.ok
}

func (o Opt[T]) Or(def T) T {
	if !o.ok {
		return def
	}
	return o.val
}

const (
	DefaultSrcIP  = "0.0.0.0"
	LoopbackSrcIP = "127.0.0.1"
	NoneValue     = "(none)"

	// MaxSrcIPLen is the longest textual IPv6 address and the width of the
	// rule_src_ip column.
	MaxSrcIPLen = 45
)

// AlertRecord is one OSSEC alert under assembly. A new value is built for
// every "** Alert" boundary line.
type AlertRecord struct {
	ID            string
	Timestamp     Opt[string]
	HostID        Opt[int64]
	LogDescriptor Opt[string]
	RuleID        Opt[int64]
	SrcIP         Opt[string]
	User          Opt[string]
	Message       Opt[string]
}

func (r AlertRecord) Empty() bool {
	return r.ID == ""
}

// SourceIP returns the address to persist. OSSEC writes "(none)" for
// locally generated alerts, which maps to loopback.
func (r AlertRecord) SourceIP() string {
	ip, ok := r.SrcIP.Get()
	switch {
	case !ok || ip == "":
		return DefaultSrcIP
	case ip == NoneValue:
		return LoopbackSrcIP
	default:
		return ip
	}
}

type Rule struct {
	ID      int64  `json:"id"`
	Number  int    `json:"number"`
	Message string `json:"message"`
	Level   int    `json:"level"`
}

// Alert is the persisted form of an AlertRecord with every unset field
// collapsed to its storage default.
type Alert struct {
	Time          time.Time `json:"time"`
	HostID        int64     `json:"host_id"`
	RuleID        int64     `json:"rule_id"`
	Message       string    `json:"message"`
	User          string    `json:"user"`
	LogDescriptor string    `json:"log"`
	SrcIP         string    `json:"src_ip"`
	SrcIPNumeric  uint32    `json:"src_ip_numeric"`
	OSSECID       string    `json:"ossec_id"`
}
