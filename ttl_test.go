package chunkcache

import (
	"testing"
	"time"
)

func TestParseTTL(t *testing.T) {
	cases := []struct {
		in      string
		want    time.Duration
		wantErr bool
	}{
		{"", DefaultTTL, false},
		{"  ", DefaultTTL, false},
		{"0", NoExpiry, false},
		{"60", time.Minute, false},
		{" 1800 ", 30 * time.Minute, false},
		{"-5", 0, true},
		{"1.5", 0, true},
		{"ten", 0, true},
	}
	for _, tc := range cases {
		got, err := ParseTTL(tc.in)
		if (err != nil) != tc.wantErr {
			t.Fatalf("ParseTTL(%q) err=%v wantErr=%v", tc.in, err, tc.wantErr)
		}
		if !tc.wantErr && got != tc.want {
			t.Fatalf("ParseTTL(%q)=%v want %v", tc.in, got, tc.want)
		}
	}
}

func TestTTLFromEnvFallsBackOnGarbage(t *testing.T) {
	t.Setenv(EnvTTL, "forever")
	if got := TTLFromEnv(); got != DefaultTTL {
		t.Fatalf("got %v want %v", got, DefaultTTL)
	}
	t.Setenv(EnvTTL, "0")
	if got := TTLFromEnv(); got != NoExpiry {
		t.Fatalf("got %v want NoExpiry", got)
	}
}
