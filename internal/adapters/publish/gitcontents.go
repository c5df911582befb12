package publish

import (
	"bytes"
	"context"
	"encoding/base64"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/platform/logger"
	ptime "wlmerge/internal/platform/time"
)

const (
	gitHubAPI     = "https://api.github.com"
	gitVerseAPI   = "https://api.gitverse.ru"
	defaultGitTO  = 15 * time.Second
	defaultGitUA  = "wlmerge-publisher"
	defaultRetry  = 3
	defaultBackTo = 500 * time.Millisecond
	commitStamp   = "15:04 | 02.01.2006"
)

// GitOptions configures a contents API publisher
type GitOptions struct {
	// Name shows up in logs and run reports, e.g. "github"
	Name    string
	BaseURL string
	Owner   string
	Repo    string
	Branch  string
	Token   string

	// AuthScheme prefixes the token in the Authorization header
	AuthScheme string
	Accept     string
	UserAgent  string
	Timeout    time.Duration

	// CheckAuth calls GET /user once before the first write
	CheckAuth bool

	MaxRetries int
	RetryBase  time.Duration
}

// GitHubOptions returns options for api.github.com
func GitHubOptions(owner, repo, branch, token string) GitOptions {
	return GitOptions{
		Name:       "github",
		BaseURL:    gitHubAPI,
		Owner:      owner,
		Repo:       repo,
		Branch:     branch,
		Token:      token,
		AuthScheme: "token",
		Accept:     "application/vnd.github+json",
	}
}

// GitVerseOptions returns options for api.gitverse.ru
func GitVerseOptions(owner, repo, branch, token string) GitOptions {
	return GitOptions{
		Name:       "gitverse",
		BaseURL:    gitVerseAPI,
		Owner:      owner,
		Repo:       repo,
		Branch:     branch,
		Token:      token,
		AuthScheme: "Bearer",
		Accept:     "application/vnd.gitverse.object+json;version=1",
		CheckAuth:  true,
	}
}

// Git publishes through a GitHub style repository contents API
type Git struct {
	http    *http.Client
	opts    GitOptions
	log     logger.Logger
	sleep   func(time.Duration)
	now     func() time.Time
	checked bool
}

// NewGit creates a contents API publisher with sane defaults
func NewGit(o GitOptions) *Git {
	if o.Name == "" {
		o.Name = "git"
	}
	o.BaseURL = strings.TrimRight(o.BaseURL, "/")
	if o.UserAgent == "" {
		o.UserAgent = defaultGitUA
	}
	if o.Timeout <= 0 {
		o.Timeout = defaultGitTO
	}
	if o.MaxRetries <= 0 {
		o.MaxRetries = defaultRetry
	}
	if o.RetryBase <= 0 {
		o.RetryBase = defaultBackTo
	}
	if o.AuthScheme == "" {
		o.AuthScheme = "token"
	}
	if o.Accept == "" {
		o.Accept = "application/json"
	}
	return &Git{
		http:  &http.Client{Timeout: o.Timeout},
		opts:  o,
		log:   *logger.Named("publish." + o.Name),
		sleep: time.Sleep,
		now:   time.Now,
	}
}

// Name implements Publisher
func (g *Git) Name() string { return g.opts.Name }

// contentsDoc is the subset of a contents API file document we read
type contentsDoc struct {
	SHA      string `json:"sha"`
	Content  string `json:"content"`
	Encoding string `json:"encoding"`
}

type putBody struct {
	Message string `json:"message"`
	Content string `json:"content"`
	SHA     string `json:"sha,omitempty"`
	Branch  string `json:"branch,omitempty"`
}

// Publish reads the current file and writes content only when it differs.
// A missing file is created
func (g *Git) Publish(ctx context.Context, path string, content []byte) (Outcome, error) {
	if g.opts.Token == "" || g.opts.Owner == "" || g.opts.Repo == "" {
		return Skipped, nil
	}
	if g.opts.CheckAuth && !g.checked {
		if err := g.checkAuth(ctx); err != nil {
			return Skipped, err
		}
		g.checked = true
	}

	cur, found, err := g.get(ctx, path)
	if err != nil {
		return Skipped, err
	}
	if found && bytes.Equal(cur.decoded, content) {
		g.log.Debug().Str("path", path).Msg("contents unchanged")
		return Unchanged, nil
	}

	stamp := ptime.In(g.now(), "").Format(commitStamp)
	body := putBody{
		Content: base64.StdEncoding.EncodeToString(content),
		Branch:  g.opts.Branch,
	}
	outcome := Created
	if found {
		body.SHA = cur.sha
		body.Message = "Auto update: " + stamp
		outcome = Updated
	} else {
		body.Message = "Initial upload: " + stamp
	}
	if err := g.put(ctx, path, body); err != nil {
		return Skipped, err
	}
	g.log.Info().Str("path", path).Str("outcome", outcome.String()).Msg("contents written")
	return outcome, nil
}

type remoteFile struct {
	sha     string
	decoded []byte
}

func (g *Git) contentsPath(path string) string {
	p := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(g.opts.Owner), url.PathEscape(g.opts.Repo), escapePath(path))
	if g.opts.Branch != "" {
		p += "?ref=" + url.QueryEscape(g.opts.Branch)
	}
	return p
}

func (g *Git) get(ctx context.Context, path string) (remoteFile, bool, error) {
	resp, err := g.do(ctx, http.MethodGet, g.contentsPath(path), nil)
	if err != nil {
		if perr.IsCode(err, perr.ErrorCodeNotFound) {
			return remoteFile{}, false, nil
		}
		return remoteFile{}, false, err
	}
	defer func() { _ = resp.Body.Close() }()

	var doc contentsDoc
	if err := json.NewDecoder(io.LimitReader(resp.Body, 64<<20)).Decode(&doc); err != nil {
		return remoteFile{}, false, perr.Wrapf(err, perr.ErrorCodeUpstream, "%s decode contents", g.opts.Name)
	}
	rf := remoteFile{sha: doc.SHA}
	if doc.Encoding == "" || doc.Encoding == "base64" {
		// the API wraps base64 at 60 columns
		clean := strings.NewReplacer("\n", "", "\r", "").Replace(doc.Content)
		dec, derr := base64.StdEncoding.DecodeString(clean)
		if derr == nil {
			rf.decoded = dec
		}
	}
	return rf, true, nil
}

func (g *Git) put(ctx context.Context, path string, body putBody) error {
	b, err := json.Marshal(body)
	if err != nil {
		return perr.Wrapf(err, perr.ErrorCodeJSON, "encode put body")
	}
	p := fmt.Sprintf("/repos/%s/%s/contents/%s",
		url.PathEscape(g.opts.Owner), url.PathEscape(g.opts.Repo), escapePath(path))
	resp, err := g.do(ctx, http.MethodPut, p, b)
	if err != nil {
		return err
	}
	return drainAndClose(resp.Body)
}

func (g *Git) checkAuth(ctx context.Context) error {
	resp, err := g.do(ctx, http.MethodGet, "/user", nil)
	if err != nil {
		return perr.Wrapf(err, perr.CodeOf(err), "%s auth check", g.opts.Name)
	}
	return drainAndClose(resp.Body)
}

// do issues a request with auth headers and retries transient and rate
// limited responses. Non 2xx responses become perr errors
func (g *Git) do(ctx context.Context, method, path string, body []byte) (*http.Response, error) {
	u := g.opts.BaseURL + path
	for attempt := 0; ; attempt++ {
		select {
		case <-ctx.Done():
			return nil, ctx.Err()
		default:
		}

		var rdr io.Reader
		if body != nil {
			rdr = bytes.NewReader(body)
		}
		req, err := http.NewRequestWithContext(ctx, method, u, rdr)
		if err != nil {
			return nil, perr.Wrapf(err, perr.ErrorCodeUnknown, "%s new request failed", g.opts.Name)
		}
		req.Header.Set("User-Agent", g.opts.UserAgent)
		req.Header.Set("Accept", g.opts.Accept)
		req.Header.Set("Authorization", g.opts.AuthScheme+" "+g.opts.Token)
		if body != nil {
			req.Header.Set("Content-Type", "application/json")
		}

		resp, err := g.http.Do(req)
		if err != nil {
			if attempt >= g.opts.MaxRetries {
				return nil, perr.Wrapf(err, perr.ErrorCodeUnavailable, "%s %s failed", g.opts.Name, method)
			}
			g.wait(attempt, 0)
			continue
		}

		g.log.Debug().
			Str("method", method).
			Str("path", path).
			Int("status", resp.StatusCode).
			Int("attempt", attempt).
			Msg("contents api response")

		switch {
		case resp.StatusCode >= 200 && resp.StatusCode < 300:
			return resp, nil
		case resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500:
			if attempt >= g.opts.MaxRetries {
				_ = drainAndClose(resp.Body)
				return nil, perr.Newf(perr.FromHTTPStatus(resp.StatusCode), "%s %s status %d", g.opts.Name, method, resp.StatusCode)
			}
			ra, _ := strconv.Atoi(resp.Header.Get("Retry-After"))
			_ = drainAndClose(resp.Body)
			g.wait(attempt, time.Duration(ra)*time.Second)
			continue
		default:
			tail, _ := io.ReadAll(io.LimitReader(resp.Body, 2048))
			_ = resp.Body.Close()
			return nil, perr.Newf(perr.FromHTTPStatus(resp.StatusCode),
				"%s %s status %d body %s", g.opts.Name, method, resp.StatusCode, strings.TrimSpace(string(tail)))
		}
	}
}

func (g *Git) wait(attempt int, hint time.Duration) {
	d := hint
	if d <= 0 {
		d = min(g.opts.RetryBase<<uint(attempt), 30*time.Second)
	}
	g.log.Warn().Dur("retry_in", d).Int("attempt", attempt).Msg("contents api retrying")
	g.sleep(d)
}

// escapePath escapes each segment of a slash separated repository path
func escapePath(p string) string {
	parts := strings.Split(strings.TrimLeft(p, "/"), "/")
	for i, s := range parts {
		parts[i] = url.PathEscape(s)
	}
	return strings.Join(parts, "/")
}

func drainAndClose(rc io.ReadCloser) error {
	_, _ = io.Copy(io.Discard, io.LimitReader(rc, 512))
	return rc.Close()
}
