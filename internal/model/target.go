package model

import (
	"errors"
	"net/url"
	"path/filepath"
	"strings"
)

// Target errors.
var (
	// ErrEmptyTarget is returned when the target is empty.
	ErrEmptyTarget = errors.New("target cannot be empty")
	// ErrInvalidTarget is returned when the target cannot be parsed.
	ErrInvalidTarget = errors.New("invalid target")
	// ErrUnsupportedScheme is returned for schemes other than http, https and file.
	ErrUnsupportedScheme = errors.New("unsupported target scheme")
)

// TargetKind classifies where a page comes from.
type TargetKind int

const (
	// TargetKindUnknown indicates an unknown or invalid target.
	TargetKindUnknown TargetKind = iota
	// TargetKindWeb is a clearnet http or https page.
	TargetKindWeb
	// TargetKindOnion is a page on a Tor hidden service.
	TargetKindOnion
	// TargetKindFile is an HTML file on the local disk.
	TargetKindFile
)

const (
	// onionSuffix is the .onion TLD suffix.
	onionSuffix = ".onion"
	// v3AddressLength is the length of a v3 onion address (without .onion).
	v3AddressLength = 56
)

// String returns the string representation of the TargetKind.
func (k TargetKind) String() string {
	switch k {
	case TargetKindWeb:
		return "web"
	case TargetKindOnion:
		return "onion"
	case TargetKindFile:
		return "file"
	default:
		return variantUnknownStr
	}
}

// Target is an immutable value object representing a page to analyze.
type Target struct {
	raw  string
	url  *url.URL
	kind TargetKind
}

// NewTarget parses raw into a Target.
// A bare host name gets an https scheme (http for onion hosts), and a path
// that is not a URL is treated as a local file.
func NewTarget(raw string) (Target, error) {
	raw = strings.TrimSpace(raw)
	if raw == "" {
		return Target{}, ErrEmptyTarget
	}

	if isLocalPath(raw) {
		abs, err := filepath.Abs(raw)
		if err != nil {
			return Target{}, errors.Join(ErrInvalidTarget, err)
		}
		u := &url.URL{Scheme: "file", Path: filepath.ToSlash(abs)}
		return Target{raw: raw, url: u, kind: TargetKindFile}, nil
	}

	if !strings.Contains(raw, "://") {
		scheme := "https://"
		if strings.HasSuffix(hostOf(raw), onionSuffix) {
			scheme = "http://"
		}
		raw = scheme + raw
	}

	u, err := url.Parse(raw)
	if err != nil {
		return Target{}, errors.Join(ErrInvalidTarget, err)
	}

	switch strings.ToLower(u.Scheme) {
	case "http", "https":
	case "file":
		return Target{raw: raw, url: u, kind: TargetKindFile}, nil
	default:
		return Target{}, ErrUnsupportedScheme
	}

	if u.Hostname() == "" {
		return Target{}, ErrInvalidTarget
	}

	kind := TargetKindWeb
	if IsOnionHost(u.Hostname()) {
		kind = TargetKindOnion
	}
	return Target{raw: raw, url: u, kind: kind}, nil
}

// MustNewTarget creates a new Target or panics if invalid.
// Use only for known-valid targets in tests or initialization.
func MustNewTarget(raw string) Target {
	t, err := NewTarget(raw)
	if err != nil {
		panic(err)
	}
	return t
}

// String returns the absolute address of the target.
func (t Target) String() string {
	if t.url == nil {
		return ""
	}
	return t.url.String()
}

// URL returns a copy of the parsed address.
func (t Target) URL() *url.URL {
	if t.url == nil {
		return nil
	}
	u := *t.url
	return &u
}

// Kind returns the target classification.
func (t Target) Kind() TargetKind {
	return t.kind
}

// Host returns the host name, or "" for file targets.
func (t Target) Host() string {
	if t.url == nil || t.kind == TargetKindFile {
		return ""
	}
	return strings.ToLower(t.url.Hostname())
}

// Path returns the local file path of a file target.
func (t Target) Path() string {
	if t.url == nil || t.kind != TargetKindFile {
		return ""
	}
	return filepath.FromSlash(t.url.Path)
}

// IsOnion returns true for Tor hidden service targets.
func (t Target) IsOnion() bool {
	return t.kind == TargetKindOnion
}

// IsFile returns true for local file targets.
func (t Target) IsFile() bool {
	return t.kind == TargetKindFile
}

// IsZero returns true if the target is the zero value.
func (t Target) IsZero() bool {
	return t.url == nil
}

// IsOnionHost reports whether host looks like a v3 onion address.
// It checks only the shape; the checksum is verified by the tor package.
func IsOnionHost(host string) bool {
	host = strings.ToLower(host)
	if !strings.HasSuffix(host, onionSuffix) {
		return false
	}
	base := strings.TrimSuffix(host, onionSuffix)
	// Subdomains are allowed in front of the service address.
	if i := strings.LastIndex(base, "."); i >= 0 {
		base = base[i+1:]
	}
	return len(base) == v3AddressLength && isValidBase32(base)
}

// isValidBase32 checks if a string contains only valid base32 characters.
func isValidBase32(s string) bool {
	for _, c := range s {
		isLowerLetter := c >= 'a' && c <= 'z'
		isBase32Digit := c >= '2' && c <= '7'
		if !isLowerLetter && !isBase32Digit {
			return false
		}
	}
	return true
}

func isLocalPath(raw string) bool {
	if strings.Contains(raw, "://") {
		return false
	}
	if strings.HasPrefix(raw, "/") || strings.HasPrefix(raw, "./") ||
		strings.HasPrefix(raw, "../") {
		return true
	}
	if filepath.VolumeName(raw) != "" {
		return true
	}
	ext := strings.ToLower(filepath.Ext(raw))
	return (ext == ".html" || ext == ".htm") && !strings.Contains(raw, "/")
}

func hostOf(raw string) string {
	host, _, _ := strings.Cut(raw, "/")
	host, _, _ = strings.Cut(host, ":")
	return strings.ToLower(host)
}
