package module

import (
	"time"

	"wlmerge/internal/adapters/ingest/sources"
	"wlmerge/internal/core/artifact"
	"wlmerge/internal/core/merge"
	"wlmerge/internal/platform/config"
	ptime "wlmerge/internal/platform/time"
)

// Options holds configuration options for the merge module
type Options struct {
	Sources []string
	Workers int

	FetchTimeout  time.Duration
	SourceTimeout time.Duration
	RunTimeout    time.Duration
	PublishTO     time.Duration
	DBTimeout     time.Duration
	MaxBody       int64
	Retries       int
	RetryBase     time.Duration
	SOCKS5        string
	UserAgent     string

	CacheDir    string
	CacheMaxAge time.Duration

	OutputDir    string
	Root         string
	SaveExcluded bool

	RangesFile       string
	Exclude          []string
	CaseSensitive    bool
	ChannelTag       string
	PriorityMarker   string
	Zone             string
	Announce         string
	UpdateInterval   int
	ObservationChunk int

	Leases   bool
	LeaseTTL time.Duration

	Publish PublishOptions
}

// PublishOptions configures remote targets. A target without a token or
// credentials is skipped
type PublishOptions struct {
	GitHubToken  string
	GitHubRepo   string // owner/name
	GitHubBranch string

	GitVerseToken  string
	GitVerseRepo   string
	GitVerseBranch string
	GitVerseAPI    string

	S3Endpoint  string
	S3AccessKey string
	S3SecretKey string
	S3Bucket    string
	S3Region    string
	S3Prefix    string

	// RawBase prefixes README links, derived from GitHubRepo when empty
	RawBase string
	Readme  bool
}

// FromConfig reads the merge options with the CORE_MERGE_ and CORE_PUBLISH_ prefixes
func FromConfig(cfg config.Conf) Options {
	mc := cfg.Prefix("CORE_MERGE_")
	pc := cfg.Prefix("CORE_PUBLISH_")

	o := Options{
		Sources:       mc.MayCSV("SOURCES", sources.DefaultURLs),
		Workers:       mc.MayInt("WORKERS", 10),
		FetchTimeout:  mc.MayDuration("FETCH_TIMEOUT", 15*time.Second),
		SourceTimeout: mc.MayDuration("SOURCE_TIMEOUT", 30*time.Second),
		RunTimeout:    mc.MayDuration("RUN_TIMEOUT", 15*time.Minute),
		PublishTO:     mc.MayDuration("PUBLISH_TIMEOUT", 5*time.Minute),
		DBTimeout:     mc.MayDuration("DB_TIMEOUT", 30*time.Second),
		MaxBody:       mc.MaySize("MAX_BODY", 32<<20),
		Retries:       mc.MayInt("RETRIES", 2),
		RetryBase:     mc.MayDuration("RETRY_BASE", 500*time.Millisecond),
		SOCKS5:        mc.MayString("SOCKS5", ""),
		UserAgent:     mc.MayString("USER_AGENT", sources.ChromeUA),

		CacheDir:    mc.MayString("CACHE_DIR", ""),
		CacheMaxAge: mc.MayDuration("CACHE_MAX_AGE", 72*time.Hour),

		OutputDir:    mc.MayString("OUTPUT_DIR", "confs"),
		Root:         mc.MayString("ROOT", "."),
		SaveExcluded: mc.MayBool("SAVE_EXCLUDED", true),

		RangesFile:       mc.MayString("RANGES_FILE", ""),
		Exclude:          mc.MayCSV("EXCLUDE", nil),
		CaseSensitive:    mc.MayBool("EXCLUDE_CASE_SENSITIVE", false),
		ChannelTag:       mc.MayString("CHANNEL_TAG", ""),
		PriorityMarker:   mc.MayString("PRIORITY_MARKER", merge.DefaultPriorityMarker),
		Zone:             mc.MayString("ZONE", ptime.DefaultZone),
		Announce:         mc.MayString("ANNOUNCE", artifact.DefaultAnnounce),
		UpdateInterval:   mc.MayInt("UPDATE_INTERVAL", artifact.DefaultUpdateInterval),
		ObservationChunk: mc.MayInt("OBSERVATION_CHUNK", 5000),

		Leases:   mc.MayBool("LEASES", false),
		LeaseTTL: mc.MayDuration("LEASE_TTL", 30*time.Minute),

		Publish: PublishOptions{
			GitHubToken:    pc.MayString("GITHUB_TOKEN", ""),
			GitHubRepo:     pc.MayString("GITHUB_REPO", ""),
			GitHubBranch:   pc.MayString("GITHUB_BRANCH", "main"),
			GitVerseToken:  pc.MayString("GITVERSE_TOKEN", ""),
			GitVerseRepo:   pc.MayString("GITVERSE_REPO", ""),
			GitVerseBranch: pc.MayString("GITVERSE_BRANCH", "main"),
			GitVerseAPI:    pc.MayString("GITVERSE_API", ""),
			S3Endpoint:     pc.MayString("S3_ENDPOINT", ""),
			S3AccessKey:    pc.MayString("S3_ACCESS_KEY", ""),
			S3SecretKey:    pc.MayString("S3_SECRET_KEY", ""),
			S3Bucket:       pc.MayString("S3_BUCKET", ""),
			S3Region:       pc.MayString("S3_REGION", "ru-central-1"),
			S3Prefix:       pc.MayString("S3_PREFIX", ""),
			RawBase:        pc.MayString("RAW_BASE", ""),
			Readme:         pc.MayBool("README", true),
		},
	}
	if o.Publish.RawBase == "" && o.Publish.GitHubRepo != "" {
		o.Publish.RawBase = "https://github.com/" + o.Publish.GitHubRepo + "/raw/" + o.Publish.GitHubBranch
	}
	return o
}
