package schedule

import "testing"

// TestNormalizeDate checks each rule of the date normalizer in order.
func TestNormalizeDate(t *testing.T) {
	tests := []struct {
		in     string
		want   string
		wantOK bool
	}{
		{"05.07.2026", "2026-07-05", true},
		{"5.7.2026", "2026-07-05", true},
		{"2026-07-05", "2026-07-05", true},
		{"2026-07-05 06:30:00", "2026-07-05", true},
		{"2026-07-05 10:00", "2026-07-05", true},
		{"7/5/2026", "2026-07-05", true},
		{"2026/07/05", "2026-07-05", true},
		{"July 5, 2026", "2026-07-05", true},
		{"5 July 2026", "2026-07-05", true},
		{"not-a-date", "", false},
		{"3:04PM", "", false},
		{"Jul 5 10:00:00", "", false},
		{"", "", false},
		{"31.02.2026", "", false},
		{"5.13.2026", "", false},
	}
	for _, tt := range tests {
		got, ok := NormalizeDate(tt.in)
		if ok != tt.wantOK || got != tt.want {
			t.Errorf("NormalizeDate(%q) = (%q, %v), want (%q, %v)", tt.in, got, ok, tt.want, tt.wantOK)
		}
	}
}
