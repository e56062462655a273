package config

import "testing"

func TestParseBytes(t *testing.T) {
	cases := []struct {
		in   string
		want int64
	}{
		{"1024", 1024},
		{"1K", 1024},
		{"1KB", 1024},
		{"1KiB", 1024},
		{"384MiB", 384 * 1024 * 1024},
		{"256MB", 256 * 1024 * 1024},
		{"1G", 1 << 30},
		{"1.5G", 3 << 29},
		{"2TiB", 2 << 40},
		{"100B", 100},
		{" 64 MiB ", 64 * 1024 * 1024},
	}

	for _, tc := range cases {
		got, err := ParseBytes(tc.in)
		if err != nil {
			t.Errorf("ParseBytes(%q): %v", tc.in, err)
			continue
		}
		if got != tc.want {
			t.Errorf("ParseBytes(%q) = %d, want %d", tc.in, got, tc.want)
		}
	}
}

func TestParseBytes_Invalid(t *testing.T) {
	for _, in := range []string{"", "huge", "-1K", "12XB"} {
		if _, err := ParseBytes(in); err == nil {
			t.Errorf("ParseBytes(%q) should fail", in)
		}
	}
}

func TestFormatBytes(t *testing.T) {
	cases := []struct {
		in   int64
		want string
	}{
		{512, "512B"},
		{1024, "1.0KiB"},
		{384 * 1024 * 1024, "384.0MiB"},
		{3 << 29, "1.5GiB"},
	}

	for _, tc := range cases {
		if got := FormatBytes(tc.in); got != tc.want {
			t.Errorf("FormatBytes(%d) = %q, want %q", tc.in, got, tc.want)
		}
	}
}
