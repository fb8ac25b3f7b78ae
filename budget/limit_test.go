package budget

import (
	"errors"
	"testing"
)

func TestParseLimit(t *testing.T) {
	tests := []struct {
		name    string
		input   string
		want    Limit
		wantErr error
	}{
		{"raw bytes", "1048576", Bytes(1048576), nil},
		{"kilobytes", "512K", Bytes(512 * 1024), nil},
		{"megabytes", "256M", Bytes(268435456), nil},
		{"gigabytes", "2G", Bytes(2 * 1024 * 1024 * 1024), nil},
		{"lowercase suffix", "256m", Bytes(268435456), nil},
		{"trailing B", "64MB", Bytes(64 * 1024 * 1024), nil},
		{"surrounding space", "  128M  ", Bytes(DefaultLimit), nil},
		{"unlimited", "-1", Unlimited(), nil},
		{"zero", "0", Bytes(0), nil},
		{"empty", "", Limit{}, ErrEmptyLimit},
		{"whitespace only", "   ", Limit{}, ErrEmptyLimit},
		{"unknown suffix", "12T", Limit{}, ErrInvalidLimit},
		{"negative", "-2", Limit{}, ErrInvalidLimit},
		{"fraction", "1.5G", Limit{}, ErrInvalidLimit},
		{"garbage", "lots", Limit{}, ErrInvalidLimit},
		{"overflow", "99999999999999999999G", Limit{}, ErrInvalidLimit},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := ParseLimit(tt.input)
			if tt.wantErr != nil {
				if !errors.Is(err, tt.wantErr) {
					t.Fatalf("ParseLimit(%q) error = %v, want %v", tt.input, err, tt.wantErr)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseLimit(%q) error = %v", tt.input, err)
			}
			if got != tt.want {
				t.Errorf("ParseLimit(%q) = %+v, want %+v", tt.input, got, tt.want)
			}
		})
	}
}

func TestLimitFromString_DefaultsOnBadInput(t *testing.T) {
	for _, input := range []string{"", "nope", "1.5G", "12T"} {
		got := LimitFromString(input)
		if got.Unlimited || got.Bytes != 134217728 {
			t.Errorf("LimitFromString(%q) = %+v, want 134217728 bytes", input, got)
		}
	}
}

func TestLimitFromString_ParsesSuffix(t *testing.T) {
	if got := LimitFromString("256M"); got.Bytes != 268435456 {
		t.Errorf("LimitFromString(256M) = %d, want 268435456", got.Bytes)
	}
	if got := LimitFromString("-1"); !got.Unlimited {
		t.Errorf("LimitFromString(-1) should be unlimited, got %+v", got)
	}
}

func TestLimit_Allows(t *testing.T) {
	limit := Bytes(1000)

	if !limit.Allows(999) {
		t.Error("999 should be allowed under 1000")
	}
	if limit.Allows(1000) {
		t.Error("1000 should not be allowed under 1000 (strict)")
	}
	if limit.Allows(1001) {
		t.Error("1001 should not be allowed under 1000")
	}
	if !Unlimited().Allows(^uint64(0)) {
		t.Error("unlimited should allow any total")
	}
}

func TestLimit_AllowsMonotonic(t *testing.T) {
	limit := Bytes(1 << 20)
	denied := false
	for total := uint64(0); total < 2<<20; total += 4096 {
		allowed := limit.Allows(total)
		if denied && allowed {
			t.Fatalf("admission flipped from denied to allowed at total=%d", total)
		}
		if !allowed {
			denied = true
		}
	}
	if !denied {
		t.Fatal("expected some totals to be denied")
	}
}

func TestLimit_String(t *testing.T) {
	tests := []struct {
		limit Limit
		want  string
	}{
		{Unlimited(), "-1"},
		{Bytes(DefaultLimit), "128M"},
		{Bytes(2 * GiB), "2G"},
		{Bytes(3 * KiB), "3K"},
		{Bytes(1000), "1000"},
		{Bytes(0), "0"},
	}

	for _, tt := range tests {
		if got := tt.limit.String(); got != tt.want {
			t.Errorf("String() = %q, want %q", got, tt.want)
		}
		parsed, err := ParseLimit(tt.want)
		if err != nil {
			t.Fatalf("ParseLimit(%q) error = %v", tt.want, err)
		}
		if parsed != tt.limit {
			t.Errorf("ParseLimit(String()) = %+v, want %+v", parsed, tt.limit)
		}
	}
}
