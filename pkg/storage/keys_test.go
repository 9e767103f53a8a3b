package storage

import (
	"testing"
)

func TestParseKey(t *testing.T) {
	t.Parallel()

	valid := []string{
		"zarr.json",
		"a",
		"group/array/c/0/0",
		"deeply/nested/path/with.many/segments",
		"with space",
	}
	for _, s := range valid {
		t.Run("valid/"+s, func(t *testing.T) {
			key, err := ParseKey(s)
			if err != nil {
				t.Fatalf("ParseKey(%q) failed: %v", s, err)
			}
			if key.String() != s {
				t.Errorf("round-trip mismatch: got %q, want %q", key.String(), s)
			}
		})
	}

	invalid := []string{
		"",
		"/leading",
		"trailing/",
		"double//slash",
		"dot/./segment",
		"dotdot/../segment",
		".",
		"..",
	}
	for _, s := range invalid {
		t.Run("invalid/"+s, func(t *testing.T) {
			if _, err := ParseKey(s); err == nil {
				t.Fatalf("ParseKey(%q) succeeded, want error", s)
			} else if !IsInvalidAddress(err) {
				t.Errorf("ParseKey(%q) error kind = %v, want invalid_address", s, ErrorKind(err))
			}
		})
	}
}

func TestParsePrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in    string
		valid bool
	}{
		{"", true},
		{"a/", true},
		{"a/b/", true},
		{"/a/", false},
		{"a", false},
		{"a//b/", false},
		{"../", false},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			p, err := ParsePrefix(tt.in)
			if tt.valid {
				if err != nil {
					t.Fatalf("ParsePrefix(%q) failed: %v", tt.in, err)
				}
				if p.String() != tt.in {
					t.Errorf("round-trip mismatch: got %q, want %q", p.String(), tt.in)
				}
			} else if err == nil {
				t.Fatalf("ParsePrefix(%q) succeeded, want error", tt.in)
			}
		})
	}
}

func TestPrefixMatches(t *testing.T) {
	t.Parallel()

	tests := []struct {
		prefix string
		key    string
		want   bool
	}{
		{"", "a", true},
		{"", "a/b/c", true},
		{"a/", "a/b", true},
		{"a/", "a/b/c", true},
		{"a/", "a", false},
		{"a/", "ab", false}, // shares characters but not a segment
		{"a/b/", "a/b/c", true},
		{"a/b/", "a/c", false},
	}
	for _, tt := range tests {
		t.Run(tt.prefix+"~"+tt.key, func(t *testing.T) {
			p := MustPrefix(tt.prefix)
			k := MustKey(tt.key)
			if got := p.Matches(k); got != tt.want {
				t.Errorf("Prefix(%q).Matches(%q) = %v, want %v", tt.prefix, tt.key, got, tt.want)
			}
		})
	}
}

func TestKeyPrefix(t *testing.T) {
	t.Parallel()

	tests := []struct {
		key  string
		want string
	}{
		{"a", ""},
		{"a/b", "a/"},
		{"a/b/c", "a/b/"},
	}
	for _, tt := range tests {
		if got := MustKey(tt.key).Prefix().String(); got != tt.want {
			t.Errorf("Key(%q).Prefix() = %q, want %q", tt.key, got, tt.want)
		}
	}
}

func TestPrefixChild(t *testing.T) {
	t.Parallel()

	child, err := RootPrefix().Child("group")
	if err != nil {
		t.Fatalf("Child failed: %v", err)
	}
	if child.String() != "group/" {
		t.Errorf("Child = %q, want %q", child.String(), "group/")
	}
	if _, err := RootPrefix().Child("no/slashes"); err == nil {
		t.Error("Child with embedded slash succeeded, want error")
	}
}
