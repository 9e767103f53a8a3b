package storage

import (
	"fmt"
	"strings"
)

// Key addresses a single stored object. A valid key is a non-empty, /-separated
// path with no leading or trailing slash and no empty, "." or ".." segments.
// The zero value is not a valid key; construct keys with ParseKey.
type Key struct {
	s string
}

// Prefix addresses a hierarchical scope. A valid prefix is either the root
// (the empty string), which matches every key, or a /-terminated path whose
// segments obey the same grammar as key segments.
type Prefix struct {
	s string
}

// ParseKey validates s against the namespace grammar and returns it as a Key.
func ParseKey(s string) (Key, error) {
	if s == "" {
		return Key{}, &Error{Kind: KindInvalidAddress, Op: "parse_key", Msg: "key must not be empty"}
	}
	if strings.HasPrefix(s, "/") {
		return Key{}, &Error{Kind: KindInvalidAddress, Op: "parse_key", Msg: fmt.Sprintf("key must not begin with a slash: %q", s)}
	}
	if strings.HasSuffix(s, "/") {
		return Key{}, &Error{Kind: KindInvalidAddress, Op: "parse_key", Msg: fmt.Sprintf("key must not end with a slash: %q", s)}
	}
	if err := validateSegments("parse_key", s); err != nil {
		return Key{}, err
	}
	return Key{s: s}, nil
}

// MustKey is ParseKey that panics on invalid input. For tests and literals.
func MustKey(s string) Key {
	k, err := ParseKey(s)
	if err != nil {
		panic(err)
	}
	return k
}

// String returns the key's address. Round-trips through ParseKey.
func (k Key) String() string { return k.s }

// Prefix returns the deepest prefix containing the key, i.e. everything up
// to and including the final slash. A top-level key yields the root prefix.
func (k Key) Prefix() Prefix {
	i := strings.LastIndexByte(k.s, '/')
	if i < 0 {
		return RootPrefix()
	}
	return Prefix{s: k.s[:i+1]}
}

// ParsePrefix validates s as a prefix. The empty string is the root prefix.
func ParsePrefix(s string) (Prefix, error) {
	if s == "" {
		return Prefix{}, nil
	}
	if strings.HasPrefix(s, "/") {
		return Prefix{}, &Error{Kind: KindInvalidAddress, Op: "parse_prefix", Msg: fmt.Sprintf("prefix must not begin with a slash: %q", s)}
	}
	if !strings.HasSuffix(s, "/") {
		return Prefix{}, &Error{Kind: KindInvalidAddress, Op: "parse_prefix", Msg: fmt.Sprintf("non-root prefix must end with a slash: %q", s)}
	}
	if err := validateSegments("parse_prefix", s[:len(s)-1]); err != nil {
		return Prefix{}, err
	}
	return Prefix{s: s}, nil
}

// MustPrefix is ParsePrefix that panics on invalid input.
func MustPrefix(s string) Prefix {
	p, err := ParsePrefix(s)
	if err != nil {
		panic(err)
	}
	return p
}

// RootPrefix returns the prefix that matches every key.
func RootPrefix() Prefix { return Prefix{} }

// String returns the prefix's address: "" for the root, otherwise a
// /-terminated path.
func (p Prefix) String() string { return p.s }

// IsRoot reports whether p is the root prefix.
func (p Prefix) IsRoot() bool { return p.s == "" }

// Matches reports whether key lies under p. The root prefix matches every
// key; a non-root prefix matches keys sharing its leading segments. Because
// non-root prefixes end with a slash the comparison is segment-aligned.
func (p Prefix) Matches(key Key) bool {
	if p.s == "" {
		return true
	}
	return strings.HasPrefix(key.s, p.s)
}

// Child returns the prefix one level deeper than p.
func (p Prefix) Child(segment string) (Prefix, error) {
	return ParsePrefix(p.s + segment + "/")
}

func validateSegments(op, path string) error {
	for _, seg := range strings.Split(path, "/") {
		switch seg {
		case "":
			return &Error{Kind: KindInvalidAddress, Op: op, Msg: fmt.Sprintf("empty path segment in %q", path)}
		case ".", "..":
			return &Error{Kind: KindInvalidAddress, Op: op, Msg: fmt.Sprintf("path segment %q not allowed in %q", seg, path)}
		}
	}
	return nil
}
