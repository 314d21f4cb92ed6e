// Package urlnorm resolves image addresses against a page and reduces them to
// canonical keys so that resized or re-encoded variants of the same asset
// compare equal.
//
// The canonical key is used only for deduplication. Reports always carry the
// resolved address, never the key.
package urlnorm
