package tui

import (
	"testing"
	"time"
)

func TestFormatUptime(t *testing.T) {
	now := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	tests := []struct {
		name    string
		elapsed time.Duration
		want    string
	}{
		{"seconds only", 42 * time.Second, "42s"},
		{"minutes", 3*time.Minute + 5*time.Second, "3m05s"},
		{"hours", 2*time.Hour + 7*time.Minute + 9*time.Second, "2h07m09s"},
		{"zero", 0, "0s"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := formatUptime(now.Add(-tt.elapsed), now)
			if got != tt.want {
				t.Errorf("formatUptime(%v) = %q, want %q", tt.elapsed, got, tt.want)
			}
		})
	}
}

func TestFormatUptimeZeroTime(t *testing.T) {
	if got := formatUptime(time.Time{}, time.Now()); got != "-" {
		t.Errorf("formatUptime(zero) = %q, want %q", got, "-")
	}
}

func TestTruncate(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  string
	}{
		{"fits", "hello", 10, "hello"},
		{"exact", "hello", 5, "hello"},
		{"truncated", "hello world", 8, "hello..."},
		{"tiny width", "hello", 2, "he"},
		{"zero width", "hello", 0, ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := truncate(tt.in, tt.width); got != tt.want {
				t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.width, got, tt.want)
			}
		})
	}
}

func TestTruncateWideRunes(t *testing.T) {
	// Each CJK rune occupies two cells; three cells fit only one rune.
	got := truncateToWidth("日本語", 3)
	if got != "日" {
		t.Errorf("truncateToWidth = %q, want %q", got, "日")
	}
}

func TestWrapText(t *testing.T) {
	tests := []struct {
		name  string
		in    string
		width int
		want  []string
	}{
		{"fits", "short line", 20, []string{"short line"}},
		{"wraps", "one two three four", 9, []string{"one two", "three", "four"}},
		{"empty", "", 10, []string{""}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := wrapText(tt.in, tt.width)
			if len(got) != len(tt.want) {
				t.Fatalf("wrapText(%q, %d) = %v, want %v", tt.in, tt.width, got, tt.want)
			}
			for i := range got {
				if got[i] != tt.want[i] {
					t.Errorf("line %d = %q, want %q", i, got[i], tt.want[i])
				}
			}
		})
	}
}

func TestPadToWidth(t *testing.T) {
	got := padToWidth("ab", 5)
	if got != "ab   " {
		t.Errorf("padToWidth = %q, want %q", got, "ab   ")
	}
	if got := padToWidth("abcdefgh", 5); got != "ab..." {
		t.Errorf("padToWidth = %q, want %q", got, "ab...")
	}
}

func TestRingBuffer(t *testing.T) {
	b := NewRingBuffer(3)
	for _, line := range []string{"a", "b", "c", "d"} {
		b.Append(line)
	}
	got := b.Lines()
	want := []string{"b", "c", "d"}
	if len(got) != len(want) {
		t.Fatalf("Lines() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("line %d = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestRingBufferDefaultCapacity(t *testing.T) {
	b := NewRingBuffer(0)
	b.Append("only")
	if lines := b.Lines(); len(lines) != 1 || lines[0] != "only" {
		t.Errorf("Lines() = %v, want [only]", lines)
	}
}
