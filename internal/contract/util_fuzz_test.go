package contract

import (
	"testing"
	"unicode/utf8"
)

// FuzzTruncatePath fuzzes TruncatePath with random keys and widths.
func FuzzTruncatePath(f *testing.F) {
	f.Add("GR-01-AUTH@NGI_GRNET", 10)
	f.Add("", 0)
	f.Add("é@ü", 4)
	f.Add("a@b", -1)

	f.Fuzz(func(t *testing.T, path string, maxWidth int) {
		out := TruncatePath(path, maxWidth)
		if maxWidth > 3 && utf8.RuneCountInString(path) > maxWidth && utf8.RuneCountInString(out) != maxWidth {
			t.Fatalf("TruncatePath(%q, %d) = %q, want %d runes", path, maxWidth, out, maxWidth)
		}
	})
}

// FuzzDateFormat fuzzes DateFormat with random days.
func FuzzDateFormat(f *testing.F) {
	f.Add(1)
	f.Add(9)
	f.Add(10)
	f.Add(31)

	f.Fuzz(func(t *testing.T, day int) {
		if day < 1 || day > 31 {
			return
		}
		if got := DateFormat("2023", "03", day); len(got) != len("2023-03-01") {
			t.Fatalf("DateFormat(%d) = %q", day, got)
		}
	})
}
