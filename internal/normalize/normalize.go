package normalize

import (
	"encoding/binary"
	"errors"
	"fmt"
	"net/netip"
	"strings"
	"time"

	"ossectail/internal/model"
)

// DefaultTime is written for alerts whose date line never arrived or
// could not be parsed.
var DefaultTime = time.Unix(0, 0).UTC()

// Normalize collapses the unset fields of a record to their storage
// defaults. Timestamps are interpreted in loc, the detector's zone.
func Normalize(rec model.AlertRecord, loc *time.Location) model.Alert {
	ts := DefaultTime
	if raw, ok := rec.Timestamp.Get(); ok {
		if parsed, err := ParseTimestamp(raw, loc); err == nil {
			ts = parsed.UTC()
		}
	}
	ip := rec.SourceIP()
	if len(ip) > model.MaxSrcIPLen {
		ip = ip[:model.MaxSrcIPLen]
	}
	return model.Alert{
		Time:          ts,
		HostID:        rec.HostID.Or(0),
		RuleID:        rec.RuleID.Or(0),
		Message:       rec.Message.Or(""),
		User:          rec.User.Or(""),
		LogDescriptor: rec.LogDescriptor.Or(""),
		SrcIP:         ip,
		SrcIPNumeric:  IPv4Numeric(ip),
		OSSECID:       rec.ID,
	}
}

var timestampLayouts = []string{
	"2006 Jan 2 15:04:05",
	"2006 Jan 02 15:04:05",
}

// ParseTimestamp parses OSSEC alert dates such as "2011 Feb 14 11:55:59".
func ParseTimestamp(value string, loc *time.Location) (time.Time, error) {
	value = strings.Join(strings.Fields(value), " ")
	if value == "" {
		return time.Time{}, errors.New("empty timestamp")
	}
	if loc == nil {
		loc = time.UTC
	}
	for _, layout := range timestampLayouts {
		if t, err := time.ParseInLocation(layout, value, loc); err == nil {
			return t, nil
		}
	}
	return time.Time{}, fmt.Errorf("unsupported timestamp format: %q", value)
}

// IPv4Numeric encodes a dotted quad the way MySQL INET_ATON does. Anything
// that is not a valid IPv4 literal encodes as 0.
func IPv4Numeric(ip string) uint32 {
	addr, err := netip.ParseAddr(strings.TrimSpace(ip))
	if err != nil || !addr.Is4() {
		return 0
	}
	b := addr.As4()
	return binary.BigEndian.Uint32(b[:])
}

// LoadLocation resolves a zone name, treating "" and "Local" as the host
// zone OSSEC writes its dates in.
func LoadLocation(name string) (*time.Location, error) {
	switch strings.TrimSpace(name) {
	case "", "Local", "local":
		return time.Local, nil
	}
	return time.LoadLocation(name)
}
