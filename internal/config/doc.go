// Package config provides configuration structures and utilities for
// brandsnap: the flat Config built from defaults and CLI flags, XDG
// directories, and the optional .brandsnap file with per-site overrides.
package config
