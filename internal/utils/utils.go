// Package utils holds small, single-purpose helpers shared across internal
// packages.
package utils

import (
	"net/url"
	"strings"
)

// UriToPath converts a "file://" URI, as LSP document URIs arrive, to a
// filesystem path for logging and diagnostics.
func UriToPath(u string) string {
	if strings.HasPrefix(u, "file://") {
		uu, err := url.Parse(u)
		if err == nil {
			return uu.Path
		}
	}
	return u
}
