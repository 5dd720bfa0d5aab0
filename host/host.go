// Package host defines the navigation capability observed by navwatch and an
// in-memory implementation. Browser-backed and script-backed hosts live in
// the rodhost and jshost subpackages.
package host

import (
	"context"
	"net/url"

	"github.com/hazyhaar/navwatch/nav"
)

// Reading is one read of the host's navigation state.
type Reading struct {
	Location nav.Location
	State    any
}

// Host reads and writes navigation state owned by an environment outside
// the observer's control (a browser tab, a script runtime).
type Host interface {
	// Read returns the current pathname, search and history state.
	Read(ctx context.Context) (Reading, error)
	// PushState pushes a new history entry, mirroring history.pushState.
	PushState(ctx context.Context, state any, title, path string) error
}

// ResolvePath resolves a pushed path against the current location the way
// history.pushState resolves its url argument: "?q=1" keeps the pathname,
// "detail" replaces the last segment, "#x" and "" keep pathname and search.
// Scheme and host of an absolute URL are dropped. The fragment is dropped.
func ResolvePath(cur nav.Location, path string) nav.Location {
	ref, err := url.Parse(path)
	if err != nil {
		return cur
	}
	base, err := url.Parse(cur.String())
	if err != nil {
		base = &url.URL{Path: cur.Pathname}
	}
	u := base.ResolveReference(ref)

	loc := nav.Location{Pathname: u.EscapedPath()}
	if loc.Pathname == "" {
		loc.Pathname = "/"
	}
	if u.RawQuery != "" {
		loc.Search = "?" + u.RawQuery
	}
	return loc
}
