// Package session provides the authenticated identity used for calendar
// requests.
package session

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/zulandar/classlive/internal/models"
	"golang.org/x/time/rate"
)

// DefaultUserAgent is sent when Options.UserAgent is empty.
const DefaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/124.0 Safari/537.36"

// Session is an authenticated account able to issue GET requests.
// A Session is never mutated once built; Clone hands each worker its own copy.
type Session interface {
	UID() string
	Name() string
	Get(ctx context.Context, url string) (*http.Response, error)
	Clone() Session
}

// Source yields the sessions for a comma-separated uid list. An empty list
// selects every known account.
type Source func(ctx context.Context, uids string) ([]Session, error)

// Static returns a Source that always yields sessions, ignoring the list.
func Static(sessions ...Session) Source {
	return func(context.Context, string) ([]Session, error) { return sessions, nil }
}

// Options controls how cookie sessions talk to the network.
type Options struct {
	Client    *http.Client
	Limiter   *rate.Limiter // shared across sessions; nil means unlimited
	UserAgent string
}

// NewLimiter returns a limiter allowing perSecond requests with the given
// burst. A non-positive perSecond disables limiting.
func NewLimiter(perSecond float64, burst int) *rate.Limiter {
	if perSecond <= 0 {
		return nil
	}
	if burst <= 0 {
		burst = 1
	}
	return rate.NewLimiter(rate.Limit(perSecond), burst)
}

// NewClient returns an HTTP client with the given timeout.
func NewClient(timeout time.Duration) *http.Client {
	return &http.Client{Timeout: timeout}
}

// Cookie is a Session backed by a stored Cookie header.
type Cookie struct {
	uid    string
	name   string
	cookie string
	opts   Options
}

// NewCookie builds a Session from a stored account.
func NewCookie(acct models.Account, opts Options) *Cookie {
	if opts.Client == nil {
		opts.Client = http.DefaultClient
	}
	if opts.UserAgent == "" {
		opts.UserAgent = DefaultUserAgent
	}
	return &Cookie{uid: acct.UID, name: acct.Name, cookie: acct.Cookie, opts: opts}
}

// FromAccounts builds one Cookie session per account, preserving order.
func FromAccounts(accts []models.Account, opts Options) []Session {
	out := make([]Session, 0, len(accts))
	for _, a := range accts {
		out = append(out, NewCookie(a, opts))
	}
	return out
}

// UID returns the account id.
func (c *Cookie) UID() string { return c.uid }

// Name returns the display name.
func (c *Cookie) Name() string { return c.name }

// Clone returns a copy of c. The HTTP client and limiter stay shared.
func (c *Cookie) Clone() Session {
	cp := *c
	return &cp
}

// Get issues an authenticated GET, waiting on the rate limiter first.
func (c *Cookie) Get(ctx context.Context, url string) (*http.Response, error) {
	if c.opts.Limiter != nil {
		if err := c.opts.Limiter.Wait(ctx); err != nil {
			return nil, fmt.Errorf("session: rate limit: %w", err)
		}
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("session: build request: %w", err)
	}
	req.Header.Set("User-Agent", c.opts.UserAgent)
	if c.cookie != "" {
		req.Header.Set("Cookie", c.cookie)
	}
	resp, err := c.opts.Client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("session: get %s: %w", url, err)
	}
	return resp, nil
}
