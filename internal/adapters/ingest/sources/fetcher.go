package sources

import (
	"context"
	"crypto/tls"
	"errors"
	"io"
	"math/rand"
	"net"
	"net/http"
	"net/url"
	"strings"
	"time"

	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/platform/logger"

	"golang.org/x/net/proxy"
)

const (
	defaultTimeout   = 15 * time.Second
	defaultMaxBody   = 32 << 20
	defaultRetries   = 2
	defaultRetryBase = 500 * time.Millisecond
	maxAttempts      = 3
)

// Options configures the Fetcher
type Options struct {
	// Timeout bounds a single request
	Timeout   time.Duration
	UserAgent string
	// MaxBody caps a response body; larger bodies fail the attempt
	MaxBody int64

	// SOCKS5 routes every request through a proxy, "host:port" or
	// "user:pass@host:port". Empty means direct
	SOCKS5 string

	// Retries of 429 and 5xx inside one attempt
	Retries   int
	RetryBase time.Duration
}

// Blob is one downloaded body
type Blob struct {
	URL         string
	Data        []byte
	ContentType string
	// Attempt is 1 for a clean fetch, 2 when TLS verification was skipped and
	// 3 when the URL was downgraded to plain http
	Attempt int
	// Stale marks a body served from the cache after every attempt failed
	Stale     bool
	FetchedAt time.Time
}

// Source is anything that can produce a Blob for a URL
type Source interface {
	Fetch(ctx context.Context, rawURL string) (Blob, error)
}

var _ Source = (*Fetcher)(nil)

// Fetcher downloads source lists
type Fetcher struct {
	strict *http.Client
	loose  *http.Client
	opts   Options
	log    logger.Logger
	sleep  func(context.Context, time.Duration) error
}

// NewFetcher builds a fetcher with sane defaults
func NewFetcher(o Options) (*Fetcher, error) {
	if o.Timeout <= 0 {
		o.Timeout = defaultTimeout
	}
	if o.UserAgent == "" {
		o.UserAgent = ChromeUA
	}
	if o.MaxBody <= 0 {
		o.MaxBody = defaultMaxBody
	}
	if o.Retries < 0 {
		o.Retries = 0
	} else if o.Retries == 0 {
		o.Retries = defaultRetries
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultRetryBase
	}

	dial, err := dialer(o)
	if err != nil {
		return nil, err
	}
	return &Fetcher{
		strict: &http.Client{Timeout: o.Timeout, Transport: transport(dial, false)},
		loose:  &http.Client{Timeout: o.Timeout, Transport: transport(dial, true)},
		opts:   o,
		log:    *logger.Named("sources"),
		sleep:  sleepCtx,
	}, nil
}

type dialFunc func(ctx context.Context, network, addr string) (net.Conn, error)

func dialer(o Options) (dialFunc, error) {
	base := &net.Dialer{Timeout: o.Timeout, KeepAlive: 30 * time.Second}
	addr := strings.TrimSpace(o.SOCKS5)
	if addr == "" {
		return base.DialContext, nil
	}

	var auth *proxy.Auth
	if cred, host, ok := strings.Cut(addr, "@"); ok {
		user, pass, _ := strings.Cut(cred, ":")
		auth = &proxy.Auth{User: user, Password: pass}
		addr = host
	}
	d, err := proxy.SOCKS5("tcp", addr, auth, base)
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "socks5 %s", addr)
	}
	cd, ok := d.(proxy.ContextDialer)
	if !ok {
		return nil, perr.Newf(perr.ErrorCodeInvalidArgument, "socks5 dialer for %s has no context support", addr)
	}
	return cd.DialContext, nil
}

func transport(dial dialFunc, insecure bool) *http.Transport {
	return &http.Transport{
		Proxy:               nil,
		DialContext:         dial,
		TLSClientConfig:     &tls.Config{InsecureSkipVerify: insecure}, //nolint:gosec
		MaxIdleConnsPerHost: 4,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
	}
}

// Fetch downloads rawURL. Attempts escalate from a verified request to one
// without TLS verification and finally to plain http. The error of the last
// attempt is returned when all of them fail
func (f *Fetcher) Fetch(ctx context.Context, rawURL string) (Blob, error) {
	var last error
	for attempt := 1; attempt <= maxAttempts; attempt++ {
		target, client := f.plan(rawURL, attempt)
		data, ctype, err := f.get(ctx, client, target)
		if err == nil {
			return Blob{URL: rawURL, Data: data, ContentType: ctype, Attempt: attempt, FetchedAt: time.Now().UTC()}, nil
		}
		if ctx.Err() != nil {
			return Blob{}, perr.Wrapf(ctx.Err(), perr.ErrorCodeUnavailable, "fetch %s canceled", rawURL)
		}
		last = err
		f.log.Debug().Str("url", target).Int("attempt", attempt).Err(err).Msg("fetch attempt failed")
	}
	return Blob{}, perr.Wrapf(last, perr.CodeOf(last), "fetch %s", rawURL)
}

func (f *Fetcher) plan(rawURL string, attempt int) (string, *http.Client) {
	switch attempt {
	case 1:
		return rawURL, f.strict
	case 2:
		return rawURL, f.loose
	default:
		return downgrade(rawURL), f.loose
	}
}

// downgrade swaps https for http, anything else is returned as is
func downgrade(rawURL string) string {
	u, err := url.Parse(rawURL)
	if err != nil || !strings.EqualFold(u.Scheme, "https") {
		return rawURL
	}
	u.Scheme = "http"
	return u.String()
}

func (f *Fetcher) get(ctx context.Context, client *http.Client, target string) ([]byte, string, error) {
	for try := 0; ; try++ {
		req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
		if err != nil {
			return nil, "", perr.Wrapf(err, perr.ErrorCodeInvalidArgument, "bad source url")
		}
		req.Header.Set("User-Agent", f.opts.UserAgent)
		req.Header.Set("Accept", "text/plain, */*")

		resp, err := client.Do(req)
		if err != nil {
			return nil, "", perr.Wrapf(err, perr.ErrorCodeUnavailable, "get %s", target)
		}

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			data, rerr := readCapped(resp.Body, f.opts.MaxBody)
			_ = resp.Body.Close()
			if rerr != nil {
				return nil, "", rerr
			}
			return data, resp.Header.Get("Content-Type"), nil
		}

		code := perr.FromHTTPStatus(resp.StatusCode)
		_ = drainAndClose(resp.Body)
		if !retryableStatus(resp.StatusCode) || try >= f.opts.Retries {
			return nil, "", perr.Newf(code, "get %s: status %d", target, resp.StatusCode)
		}

		wait := retryAfter(resp.Header)
		if wait <= 0 {
			wait = f.backoff(try)
		}
		f.log.Debug().Str("url", target).Int("status", resp.StatusCode).Dur("retry_in", wait).Msg("transient status retrying")
		if err := f.sleep(ctx, wait); err != nil {
			return nil, "", err
		}
	}
}

// readCapped reads the whole body or fails when it exceeds max
func readCapped(r io.Reader, max int64) ([]byte, error) {
	data, err := io.ReadAll(io.LimitReader(r, max+1))
	if err != nil {
		return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "read body")
	}
	if int64(len(data)) > max {
		return nil, perr.Newf(perr.ErrorCodeUpstream, "body exceeds %d bytes", max)
	}
	return data, nil
}

func retryableStatus(status int) bool {
	switch status {
	case http.StatusTooManyRequests,
		http.StatusInternalServerError,
		http.StatusBadGateway,
		http.StatusServiceUnavailable,
		http.StatusGatewayTimeout:
		return true
	}
	return false
}

// backoff doubles from RetryBase with jitter in [d/2, d), capped at 10s
func (f *Fetcher) backoff(try int) time.Duration {
	d := min(f.opts.RetryBase<<try, 10*time.Second)
	if d < 2 {
		return d
	}
	return d/2 + time.Duration(rand.Int63n(int64(d/2)))
}

// retryAfter honors a Retry-After header in seconds, capped at 30s
func retryAfter(h http.Header) time.Duration {
	s := strings.TrimSpace(h.Get("Retry-After"))
	if s == "" {
		return 0
	}
	d, err := time.ParseDuration(s + "s")
	if err != nil || d < 0 {
		return 0
	}
	return min(d, 30*time.Second)
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}

func sleepCtx(ctx context.Context, d time.Duration) error {
	if d <= 0 {
		return nil
	}
	t := time.NewTimer(d)
	defer t.Stop()
	select {
	case <-ctx.Done():
		return ctx.Err()
	case <-t.C:
		return nil
	}
}

// IsCanceled reports whether err came from a canceled or expired context
func IsCanceled(err error) bool {
	return errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded)
}
