// Package media resolves stored media paths to absolute URLs and stores uploads on disk.
package media

import "strings"

// Resolver turns stored media paths into absolute URLs for one request.
type Resolver struct {
	base string
}

// NewResolver prefers publicBase; when empty the URLs are built from the
// request scheme and host.
func NewResolver(publicBase, scheme, host string) Resolver {
	base := strings.TrimRight(publicBase, "/")
	if base == "" && host != "" {
		if scheme == "" {
			scheme = "http"
		}
		base = scheme + "://" + host
	}
	return Resolver{base: base}
}

// Absolute returns path prefixed with the resolver base. Paths that are
// already absolute URLs are returned as is.
func (r Resolver) Absolute(path string) string {
	if strings.HasPrefix(path, "http://") || strings.HasPrefix(path, "https://") {
		return path
	}
	if !strings.HasPrefix(path, "/") {
		path = "/" + path
	}
	return r.base + path
}

// Picture resolves path, substituting fallback when path is empty.
func (r Resolver) Picture(path, fallback string) string {
	if path == "" {
		path = fallback
	}
	return r.Absolute(path)
}
