package session

import (
	"testing"
	"time"
)

func TestValidWindow(t *testing.T) {
	t0 := time.Date(2026, 1, 1, 12, 0, 0, 0, time.UTC)
	s := Session{State: LoggedIn, AcquiredAt: t0}

	if !s.Valid(t0.Add(29*time.Minute), DefaultTimeout) {
		t.Fatalf("29min should be valid")
	}
	if s.Valid(t0.Add(31*time.Minute), DefaultTimeout) {
		t.Fatalf("31min should be invalid")
	}
	if !s.Expired(t0.Add(30*time.Minute), DefaultTimeout) {
		t.Fatalf("exactly 30min should be expired")
	}

	out := Session{State: LoggedOut}
	if out.Valid(t0, DefaultTimeout) || out.Expired(t0.Add(time.Hour), DefaultTimeout) {
		t.Fatalf("logged out is neither valid nor expired")
	}
}

func TestEncodeDecode(t *testing.T) {
	t0 := time.UnixMilli(1767268800000)
	flag, ts := Session{State: LoggedIn, AcquiredAt: t0}.Encode()
	if flag != "true" || ts != "1767268800000" {
		t.Fatalf("Encode = %q %q", flag, ts)
	}

	got := Decode(flag, ts, true, true)
	if got.State != LoggedIn || !got.AcquiredAt.Equal(t0) {
		t.Fatalf("Decode = %+v", got)
	}

	cases := []struct {
		flag, ts       string
		flagOK, timeOK bool
	}{
		{"true", ts, false, true},
		{"false", ts, true, true},
		{"true", "", true, false},
		{"true", "abc", true, true},
	}
	for _, c := range cases {
		if s := Decode(c.flag, c.ts, c.flagOK, c.timeOK); s.State != LoggedOut {
			t.Errorf("Decode(%q,%q,%v,%v) = %v, want LoggedOut", c.flag, c.ts, c.flagOK, c.timeOK, s.State)
		}
	}
}
