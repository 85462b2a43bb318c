package model

import "testing"

func TestSourceIPReadOut(t *testing.T) {
	cases := []struct {
		name string
		rec  AlertRecord
		want string
	}{
		{"unset", AlertRecord{}, "0.0.0.0"},
		{"empty", AlertRecord{SrcIP: Some("")}, "0.0.0.0"},
		{"none", AlertRecord{SrcIP: Some("(none)")}, "127.0.0.1"},
		{"address", AlertRecord{SrcIP: Some("128.91.34.6")}, "128.91.34.6"},
		{"explicit zero", AlertRecord{SrcIP: Some("0.0.0.0")}, "0.0.0.0"},
	}
	for _, tc := range cases {
		if got := tc.rec.SourceIP(); got != tc.want {
			t.Fatalf("%s: got %q want %q", tc.name, got, tc.want)
		}
	}
}

func TestOptDistinguishesZero(t *testing.T) {
	var unset Opt[int64]
	zero := Some[int64](0)
	if unset.IsSet() {
		t.Fatalf("zero value should be unset")
	}
	if !zero.IsSet() {
		t.Fatalf("explicit zero should be set")
	}
	if unset.Or(0) != zero.Or(7) {
		t.Fatalf("unset and explicit zero should collapse to the same default")
	}
}
