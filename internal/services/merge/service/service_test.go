// internal/services/merge/service/service_test.go
package service

import (
	"context"
	"errors"
	"net/netip"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"

	"wlmerge/internal/adapters/publish"
	"wlmerge/internal/core/artifact"
	"wlmerge/internal/core/exclude"
	"wlmerge/internal/core/merge"
	"wlmerge/internal/core/netrange"
	"wlmerge/internal/modkit/repokit"
	perr "wlmerge/internal/platform/errors"
	"wlmerge/internal/platform/store"
	kit "wlmerge/internal/platform/testkit"
	"wlmerge/internal/services/merge/domain"
	"wlmerge/internal/services/merge/guardrails"

	"github.com/jackc/pgx/v5/pgconn"
)

// mapSource serves fixed bodies per URL; unknown URLs fail
type mapSource struct {
	bodies map[string]string

	inflight atomic.Int32
	peak     atomic.Int32
	delay    time.Duration
}

func (m *mapSource) Fetch(ctx context.Context, u string) (domain.Blob, error) {
	n := m.inflight.Add(1)
	defer m.inflight.Add(-1)
	for {
		p := m.peak.Load()
		if n <= p || m.peak.CompareAndSwap(p, n) {
			break
		}
	}
	if m.delay > 0 {
		select {
		case <-time.After(m.delay):
		case <-ctx.Done():
			return domain.Blob{}, ctx.Err()
		}
	}
	b, ok := m.bodies[u]
	if !ok {
		return domain.Blob{}, perr.Newf(perr.ErrorCodeNotFound, "no body for %s", u)
	}
	return domain.Blob{URL: u, Data: []byte(b), ContentType: "text/plain", Attempt: 1}, nil
}

// fakeLedger records calls; it is shared by every Bind
type fakeLedger struct {
	mu       sync.Mutex
	started  []domain.Report
	finished []domain.Report
	sources  int
	excluded map[string]int
}

func (f *fakeLedger) EnsureSchema(context.Context) error { return nil }
func (f *fakeLedger) StartRun(_ context.Context, r domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.started = append(f.started, r)
	return nil
}
func (f *fakeLedger) FinishRun(_ context.Context, r domain.Report) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.finished = append(f.finished, r)
	return nil
}
func (f *fakeLedger) InsertSources(_ context.Context, _ string, s []domain.SourceResult) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sources += len(s)
	return nil
}
func (f *fakeLedger) InsertExcluded(_ context.Context, _ string, art string, rows []domain.ExcludedRow) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.excluded == nil {
		f.excluded = map[string]int{}
	}
	f.excluded[art] += len(rows)
	return nil
}
func (f *fakeLedger) RecentRuns(context.Context, int) ([]domain.RunSummary, error) { return nil, nil }

// fakeTx runs fn inline
type fakeTx struct{}

func (fakeTx) Exec(context.Context, string, ...any) (store.CommandTag, error) { return nil, nil }
func (fakeTx) Query(context.Context, string, ...any) (store.Rows, error) {
	return nil, errors.New("not implemented")
}
func (fakeTx) QueryRow(context.Context, string, ...any) store.Row { return nil }
func (t fakeTx) Tx(_ context.Context, fn func(q store.RowQuerier) error) error { return fn(t) }

type fakeObs struct{ rows []domain.Observation }

func (f *fakeObs) EnsureTable(context.Context) error { return nil }
func (f *fakeObs) Write(_ context.Context, obs []domain.Observation) error {
	f.rows = append(f.rows, obs...)
	return nil
}

type failingRemote struct{}

func (failingRemote) Name() string { return "github" }
func (failingRemote) Publish(context.Context, string, []byte) (publish.Outcome, error) {
	return publish.Skipped, perr.Newf(perr.ErrorCodeUnavailable, "github down")
}

const (
	lineA = "vless://u@1.2.3.4:443?sni=a.com#first"
	lineB = "vless://u@1.2.3.4:443?sni=a.com#second"
	lineC = "trojan://p@example.org:443#t"
	lineX = "vless://x@5.5.5.5:443#@01010101"
)

func testPipe() *merge.Pipeline {
	return &merge.Pipeline{
		Ranges:   netrange.New([]netrange.Range{{Prefix: netip.MustParsePrefix("1.2.3.0/24"), Label: "Lab"}}),
		Excluder: exclude.New(nil, false),
	}
}

type harness struct {
	svc    *Service
	root   string
	ledger *fakeLedger
	obs    *fakeObs
	src    *mapSource
}

func newHarness(t *testing.T, bodies map[string]string, urls []string, remote ...domain.Publisher) harness {
	t.Helper()
	h := harness{
		root:   t.TempDir(),
		ledger: &fakeLedger{},
		obs:    &fakeObs{},
		src:    &mapSource{bodies: bodies},
	}
	binder := repokit.BindFunc[domain.LedgerRepo](func(repokit.Queryer) domain.LedgerRepo { return h.ledger })
	h.svc = New(fakeTx{}, binder, h.obs, h.src, publish.NewDir(h.root), remote, testPipe(), Config{
		Sources:       urls,
		Workers:       2,
		OutputDir:     "confs",
		SaveExcluded:  true,
		Zone:          "UTC",
		RawBase:       "https://github.com/o/r/raw/main",
		ReadmeTargets: []string{"github"},
	}, nil)
	h.svc.now = func() time.Time { return time.Date(2026, 10, 16, 6, 5, 0, 0, time.UTC) }
	return h
}

func (h harness) read(t *testing.T, rel string) string {
	t.Helper()
	b, err := os.ReadFile(filepath.Join(h.root, rel))
	if err != nil {
		t.Fatalf("read %s: %v", rel, err)
	}
	return string(b)
}

func TestRun_EndToEnd(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{
		"https://a.example/list.txt": lineA + "\n" + lineB + "\n" + lineX + "\n",
		"https://c.example/list.txt": "# comment\n" + lineC + "\n",
	}, []string{"https://a.example/list.txt", "https://down.example/x.txt", "https://c.example/list.txt"})

	rep, err := h.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Status != domain.StatusOK || rep.RunID == "" {
		t.Fatalf("status %q id %q", rep.Status, rep.RunID)
	}
	if rep.FromURLs != 4 || rep.Duplicates != 1 || rep.Merged != 2 || rep.Whitelist != 1 || rep.Excluded() != 1 {
		t.Fatalf("report %+v", rep)
	}
	if rep.SourcesOK() != 2 || rep.Sources[1].Err == nil || rep.Sources[2].URL != "https://c.example/list.txt" {
		t.Fatalf("sources %+v", rep.Sources)
	}

	merged := h.read(t, "confs/merged.txt")
	kit.MustContain(t, merged, "#profile-title: "+artifact.TitleAll)
	kit.MustContain(t, merged, "# Обновлено: 06:05 | 16.10.2026")
	kit.MustContain(t, merged, "# Всего конфигов: 2")
	body := artifact.Body([]byte(merged))
	if !strings.HasPrefix(body[0], "vless://u@1.2.3.4:443?sni=a.com#") || !strings.HasPrefix(body[1], "trojan://") {
		t.Fatalf("merged body %q", body)
	}

	wl := h.read(t, "confs/wl.txt")
	kit.MustContain(t, wl, "#profile-title: "+artifact.TitleWhitelist)
	if got := artifact.Body([]byte(wl)); len(got) != 1 {
		t.Fatalf("wl body %q", got)
	}

	kit.MustContain(t, h.read(t, "confs/excluded_merged.txt"), lineX)
	if _, err := os.Stat(filepath.Join(h.root, "README.md")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("README must only go to git targets")
	}
	if _, err := os.Stat(filepath.Join(h.root, "confs/selected.txt")); !errors.Is(err, os.ErrNotExist) {
		t.Fatalf("no curated file must not create one")
	}

	if len(h.ledger.started) != 1 || len(h.ledger.finished) != 1 || h.ledger.finished[0].Status != domain.StatusOK {
		t.Fatalf("ledger %+v", h.ledger)
	}
	if h.ledger.sources != 3 || h.ledger.excluded[ArtifactMerged] != 1 {
		t.Fatalf("ledger sources=%d excluded=%v", h.ledger.sources, h.ledger.excluded)
	}
	if len(h.obs.rows) != 3 {
		t.Fatalf("observations %d", len(h.obs.rows))
	}
	if o := h.obs.rows[0]; o.Host != "1.2.3.4" || o.Port != 443 || o.Label != "Lab" || !o.Whitelisted || o.Ordinal != 1 {
		t.Fatalf("observation %+v", o)
	}
}

func TestRun_NoDescriptorsIsFatal(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"https://a.example/": "nothing useful here\n"},
		[]string{"https://a.example/", "https://b.example/"})

	rep, err := h.svc.Run(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeEmptyResult) {
		t.Fatalf("want empty result, got %v", err)
	}
	if rep.Status != domain.StatusEmpty {
		t.Fatalf("status %q", rep.Status)
	}
	entries, _ := os.ReadDir(h.root)
	if len(entries) != 0 {
		t.Fatalf("nothing may be written, found %d entries", len(entries))
	}
	if h.ledger.finished[0].Status != domain.StatusEmpty {
		t.Fatalf("ledger status %q", h.ledger.finished[0].Status)
	}
}

func TestRun_CuratedFileIsRewrittenAndMerged(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"https://a.example/": lineC + "\n"}, []string{"https://a.example/"})
	sel := "#profile-title: " + artifact.TitleSelected + "\n#profile-update-interval: 24\n\n" +
		"# handpicked\n\n\n" + lineA + "\n" + lineB + "\n"
	if err := os.MkdirAll(filepath.Join(h.root, "confs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.root, "confs/selected.txt"), []byte(sel), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := h.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if !rep.CuratedFound || rep.FromCurated != 1 || rep.CuratedDuplicates != 1 {
		t.Fatalf("curated counters %+v", rep)
	}
	if rep.Merged != 2 {
		t.Fatalf("curated line must join the merge, merged=%d", rep.Merged)
	}

	out := h.read(t, "confs/selected.txt")
	if strings.Count(out, "#profile-title:") != 1 {
		t.Fatalf("header duplicated:\n%s", out)
	}
	kit.MustContain(t, out, "# handpicked")
	if got := artifact.Body([]byte(out)); len(got) != 1 || !strings.HasPrefix(got[0], "vless://u@1.2.3.4:443?sni=a.com#1.") {
		t.Fatalf("curated body %q", got)
	}
}

func TestRun_CuratedOnlyWhenSourcesFail(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, []string{"https://down.example/x.txt"})
	sel := "#profile-title: " + artifact.TitleSelected + "\n\n" + lineA + "\n"
	if err := os.MkdirAll(filepath.Join(h.root, "confs"), 0o755); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(filepath.Join(h.root, "confs/selected.txt"), []byte(sel), 0o644); err != nil {
		t.Fatal(err)
	}

	rep, err := h.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("Run: %v", err)
	}
	if rep.Status != domain.StatusOK || rep.FromURLs != 0 || rep.FromCurated != 1 || rep.Merged != 1 {
		t.Fatalf("report %+v", rep)
	}
	body := artifact.Body([]byte(h.read(t, "confs/merged.txt")))
	if len(body) != 1 || !strings.HasPrefix(body[0], "vless://u@1.2.3.4:443?sni=a.com#") {
		t.Fatalf("merged body %q", body)
	}
}

func TestRun_RemoteFailureIsNotFatal(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"https://a.example/": lineA + "\n"}, []string{"https://a.example/"}, failingRemote{})
	rep, err := h.svc.Run(context.Background())
	if err != nil {
		t.Fatalf("remote failure must not fail the run: %v", err)
	}
	var remoteErrs, readme int
	for _, p := range rep.Published {
		if p.Target == "github" && p.Err != nil {
			remoteErrs++
		}
		if p.Path == "README.md" {
			readme++
		}
	}
	// merged, wl and README go to github; excluded files stay local
	if remoteErrs != 3 || readme != 1 {
		t.Fatalf("remote errors=%d readme=%d in %+v", remoteErrs, readme, rep.Published)
	}
	kit.MustContain(t, h.read(t, "confs/merged.txt"), "# Всего конфигов: 1")
}

func TestFetchAll_OrderAndBound(t *testing.T) {
	t.Parallel()

	bodies := map[string]string{}
	var urls []string
	for _, c := range "abcdef" {
		u := "https://" + string(c) + ".example/"
		urls = append(urls, u)
		bodies[u] = "vless://u@" + string(c) + ".example:443#x\n"
	}
	h := newHarness(t, bodies, urls)
	h.src.delay = 10 * time.Millisecond

	out := h.svc.fetchAll(context.Background(), urls)
	for i, r := range out {
		if r.URL != urls[i] || len(r.Lines) != 1 {
			t.Fatalf("slot %d = %+v", i, r)
		}
	}
	if p := h.src.peak.Load(); p > 2 {
		t.Fatalf("concurrency %d exceeds workers", p)
	}
}

func TestFetchAll_CanceledContext(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{}, nil)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	out := h.svc.fetchAll(ctx, []string{"https://a.example/", "https://b.example/", "https://c.example/"})
	if len(out) != 3 {
		t.Fatalf("results %d", len(out))
	}
	for _, r := range out {
		if r.Err == nil {
			t.Fatalf("canceled run must record an error per source: %+v", r)
		}
	}
}

func TestRun_LeaseHeld(t *testing.T) {
	t.Parallel()

	h := newHarness(t, map[string]string{"https://a.example/": lineA + "\n"}, []string{"https://a.example/"})
	h.svc.Lease = func(context.Context, func(context.Context) error) error { return guardrails.ErrLeaseHeld }
	_, err := h.svc.Run(context.Background())
	if !perr.IsCode(err, perr.ErrorCodeConflict) {
		t.Fatalf("want conflict, got %v", err)
	}
	if len(h.ledger.started) != 0 {
		t.Fatalf("held lease must not start a run")
	}
}

func TestMergeStats(t *testing.T) {
	t.Parallel()

	got := mergeStats(
		[]exclude.Stat{{Reason: "a", Count: 2}, {Reason: "b", Count: 1}},
		[]exclude.Stat{{Reason: "b", Count: 3}, {Reason: "c", Count: 1}},
	)
	if len(got) != 3 || got[0].Count != 2 || got[1].Count != 4 || got[2].Reason != "c" {
		t.Fatalf("mergeStats = %+v", got)
	}
}

// flakyTx fails the first n transactions with a serialization failure
type flakyTx struct {
	fakeTx
	fail  int
	calls int
}

func (f *flakyTx) Tx(ctx context.Context, fn func(q store.RowQuerier) error) error {
	f.calls++
	if f.calls <= f.fail {
		return &pgconn.PgError{Code: "40001"}
	}
	return f.fakeTx.Tx(ctx, fn)
}

func TestLedger_RetriesTransientOnce(t *testing.T) {
	t.Parallel()

	h := newHarness(t, nil, nil)
	tx := &flakyTx{fail: 1}
	h.svc.DB = tx

	var hit int
	h.svc.ledger(context.Background(), "probe", func(domain.LedgerRepo) error { hit++; return nil })
	if tx.calls != 2 || hit != 1 {
		t.Fatalf("calls=%d hit=%d", tx.calls, hit)
	}

	// two failures in a row are logged and dropped
	tx.calls, tx.fail = 0, 5
	h.svc.ledger(context.Background(), "probe", func(domain.LedgerRepo) error { hit++; return nil })
	if tx.calls != 2 || hit != 1 {
		t.Fatalf("calls=%d hit=%d", tx.calls, hit)
	}
}
