// Package probe resolves unknown image dimensions by reading image headers.
package probe
