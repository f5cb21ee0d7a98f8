package oaipmh

import "strings"

// NativeIDFromWire maps a wire-form OAI identifier onto the native
// repository identifier used as the target store's cross-version key.
//
// Stripping rule: if the identifier starts with prefix, exactly that one
// leading occurrence is removed; otherwise the identifier is returned
// unchanged. No other normalization is applied.
func NativeIDFromWire(prefix, wire string) string {
	return strings.TrimPrefix(wire, prefix)
}
