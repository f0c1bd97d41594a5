// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

// Package fetch retrieves candidate URLs and extracts lightweight page
// metadata (title, authors, year) for correspondence scoring. Targets on
// private, loopback, or link-local networks are refused before any
// connection is made.
package fetch

import (
	"context"
	"fmt"
	"io"
	"net"
	"net/http"
	"net/url"

	"github.com/pdiddy/citecheck/internal/httputil"
	"github.com/pdiddy/citecheck/internal/ratelimit"
	"github.com/pdiddy/citecheck/pkg/types"
)

// ErrorKind classifies a fetch failure. All kinds are recoverable: the
// caller treats them as "correspondence unknown", never as a crash.
type ErrorKind int

const (
	// Unreachable covers connection failures and timeouts.
	Unreachable ErrorKind = iota
	// NonSuccessStatus covers 4xx and 5xx responses.
	NonSuccessStatus
	// BlockedTarget covers targets refused by the private-network policy.
	BlockedTarget
)

func (k ErrorKind) String() string {
	switch k {
	case NonSuccessStatus:
		return "non-success status"
	case BlockedTarget:
		return "blocked target"
	default:
		return "unreachable"
	}
}

// Error is a classified fetch failure.
type Error struct {
	Kind ErrorKind
	URL  string
	Err  error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("fetching %s: %s: %v", e.URL, e.Kind, e.Err)
	}
	return fmt.Sprintf("fetching %s: %s", e.URL, e.Kind)
}

func (e *Error) Unwrap() error { return e.Err }

// rateLimitService is the limiter bucket name for page fetches.
const rateLimitService = "fetch"

// Fetcher performs bounded-time page retrievals.
type Fetcher struct {
	cfg     types.FetchConfig
	client  *http.Client
	limiter *ratelimit.Limiter
	retry   httputil.RetryPolicy
}

// New builds a Fetcher. The limiter gates every outbound request; pass the
// engine's shared instance.
func New(cfg types.FetchConfig, limiter *ratelimit.Limiter, retry httputil.RetryPolicy) *Fetcher {
	f := &Fetcher{cfg: cfg, limiter: limiter, retry: retry}
	f.client = &http.Client{
		Timeout: cfg.Timeout,
		CheckRedirect: func(req *http.Request, via []*http.Request) error {
			maxHops := cfg.MaxRedirects
			if maxHops <= 0 {
				maxHops = 3
			}
			if len(via) >= maxHops {
				return fmt.Errorf("stopped after %d redirects", maxHops)
			}
			// Every hop is re-validated: a public page must not bounce
			// the client onto an internal address.
			return f.checkTarget(req.URL)
		},
	}
	return f
}

// Fetch retrieves the URL and extracts page metadata. Failures come back as
// *Error with a kind the orchestrator can map to a zero-confidence
// correspondence.
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (types.FetchedPage, error) {
	u, err := url.Parse(rawURL)
	if err != nil {
		return types.FetchedPage{}, &Error{Kind: BlockedTarget, URL: rawURL, Err: err}
	}
	if err := f.checkTarget(u); err != nil {
		return types.FetchedPage{}, &Error{Kind: BlockedTarget, URL: rawURL, Err: err}
	}

	if err := f.limiter.Acquire(ctx, rateLimitService); err != nil {
		return types.FetchedPage{}, &Error{Kind: Unreachable, URL: rawURL, Err: err}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u.String(), nil)
	if err != nil {
		return types.FetchedPage{}, &Error{Kind: Unreachable, URL: rawURL, Err: err}
	}
	req.Header.Set("User-Agent", f.cfg.UserAgent)
	req.Header.Set("Accept", "text/html,application/xhtml+xml")

	resp, err := f.retry.Do(ctx, f.client, req)
	if err != nil {
		return types.FetchedPage{}, &Error{Kind: Unreachable, URL: rawURL, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		return types.FetchedPage{}, &Error{
			Kind: NonSuccessStatus,
			URL:  rawURL,
			Err:  fmt.Errorf("HTTP %d", resp.StatusCode),
		}
	}

	maxBody := f.cfg.MaxBodyBytes
	if maxBody <= 0 {
		maxBody = 1 << 20
	}
	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBody))
	if err != nil {
		return types.FetchedPage{}, &Error{Kind: Unreachable, URL: rawURL, Err: err}
	}

	finalURL := u
	if resp.Request != nil && resp.Request.URL != nil {
		finalURL = resp.Request.URL
	}
	return ExtractMetadata(body, finalURL), nil
}

// checkTarget rejects non-http(s) schemes and hosts that resolve to
// private, loopback, link-local, or unspecified addresses.
func (f *Fetcher) checkTarget(u *url.URL) error {
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("scheme %q not allowed", u.Scheme)
	}
	if u.Hostname() == "" {
		return fmt.Errorf("missing host")
	}
	if f.cfg.AllowPrivate {
		return nil
	}

	ips, err := net.LookupIP(u.Hostname())
	if err != nil {
		return fmt.Errorf("resolving %s: %w", u.Hostname(), err)
	}
	for _, ip := range ips {
		if isBlockedIP(ip) {
			return fmt.Errorf("host %s resolves to reserved address %s", u.Hostname(), ip)
		}
	}
	return nil
}

// isBlockedIP reports whether an address falls in a range the fetcher must
// never connect to.
func isBlockedIP(ip net.IP) bool {
	return ip.IsLoopback() ||
		ip.IsPrivate() ||
		ip.IsLinkLocalUnicast() ||
		ip.IsLinkLocalMulticast() ||
		ip.IsUnspecified()
}
