package instagram

import (
	"context"
	"fmt"
	"math/rand"
	"net"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"sync"
	"sync/atomic"
	"time"

	"github.com/go-rod/rod"
	"golang.org/x/net/proxy"
	"golang.org/x/sync/errgroup"
)

const defaultUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0.0.0 Safari/537.36"

const (
	// MaxReelsPerRequest caps how many reels one call may request. Anything
	// above it is silently clamped.
	MaxReelsPerRequest = 24

	// batchConcurrency bounds fan-out in GetReelsBatch. Kept small so a batch
	// does not look like a crawl.
	batchConcurrency = 3
)

// Scraper retrieves public Instagram reel metadata without authentication.
// It tries the structured web_profile_info / media-info endpoints first and
// falls back to a managed headless browser only when the endpoint is blocked
// or returns an unusable payload.
type Scraper struct {
	client     *http.Client
	proxy      string
	userAgent  string
	apiBaseURL string // defaults to "https://i.instagram.com"
	webBaseURL string // defaults to "https://www.instagram.com"

	// Shared headless browser, launched lazily on first fallback.
	browser   *rod.Browser
	browserMu sync.Mutex
	openPages atomic.Int32

	// Browser-fallback entry points. Replaceable for testing.
	browserReelsFunc func(ctx context.Context, username string, limit int) (*ReelsResult, error)
	browserReelFunc  func(ctx context.Context, shortcode string) (*Reel, error)

	// Per-operation rate limiting. Profile lookups: ~60/min → 1s min.
	profileDelay time.Duration
	mediaDelay   time.Duration
	lastProfile  time.Time
	lastMedia    time.Time
	profileMu    sync.Mutex
	mediaMu      sync.Mutex
}

// defaultTransport returns an http.Transport tuned for scraping: connection
// pooling, keep-alive, and TLS handshake caching.
func defaultTransport() *http.Transport {
	return &http.Transport{
		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		IdleConnTimeout:     90 * time.Second,
		TLSHandshakeTimeout: 10 * time.Second,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
	}
}

// New creates a Scraper with sensible defaults. The browser is not launched
// until a retrieval actually needs the fallback path.
func New() *Scraper {
	jar, _ := cookiejar.New(nil)
	s := &Scraper{
		client: &http.Client{
			Jar:       jar,
			Timeout:   15 * time.Second,
			Transport: defaultTransport(),
		},
		apiBaseURL:   "https://i.instagram.com",
		webBaseURL:   "https://www.instagram.com",
		userAgent:    defaultUserAgent,
		profileDelay: time.Second,
		mediaDelay:   time.Second,
	}
	s.browserReelsFunc = s.browserReels
	s.browserReelFunc = s.browserReel
	return s
}

// WithProfileDelay sets the minimum delay between profile endpoint requests.
func (s *Scraper) WithProfileDelay(d time.Duration) *Scraper {
	s.profileDelay = d
	return s
}

// WithMediaDelay sets the minimum delay between single-media endpoint requests.
func (s *Scraper) WithMediaDelay(d time.Duration) *Scraper {
	s.mediaDelay = d
	return s
}

// SetProxy configures an HTTP/HTTPS or SOCKS5 proxy for the HTTP client. The
// same proxy is handed to the browser when it launches. Connection pooling
// and keep-alive settings are preserved.
func (s *Scraper) SetProxy(proxyAddr string) error {
	if proxyAddr == "" {
		s.client.Transport = defaultTransport()
		s.proxy = ""
		return nil
	}

	u, err := url.Parse(proxyAddr)
	if err != nil {
		return fmt.Errorf("parse proxy url: %w", err)
	}

	base := defaultTransport()

	switch u.Scheme {
	case "http", "https":
		base.Proxy = http.ProxyURL(u)
		s.client.Transport = base
	case "socks5":
		var auth *proxy.Auth
		if u.User != nil {
			pass, _ := u.User.Password()
			auth = &proxy.Auth{User: u.User.Username(), Password: pass}
		}
		dialer, err := proxy.SOCKS5("tcp", u.Host, auth, proxy.Direct)
		if err != nil {
			return fmt.Errorf("socks5 proxy: %w", err)
		}
		dc, ok := dialer.(proxy.ContextDialer)
		if !ok {
			return fmt.Errorf("socks5: context dialer not supported")
		}
		base.DialContext = dc.DialContext
		s.client.Transport = base
	default:
		return fmt.Errorf("unsupported proxy scheme: %s", u.Scheme)
	}

	s.proxy = proxyAddr
	return nil
}

var contentURLRe = regexp.MustCompile(`instagram\.com/(?:reel|p)/([A-Za-z0-9_-]+)`)

// ExtractShortcode pulls the opaque shortcode out of a canonical reel or post
// URL. It is the only piece of a content URL the lower layers accept.
func ExtractShortcode(rawURL string) (string, error) {
	m := contentURLRe.FindStringSubmatch(rawURL)
	if m == nil {
		return "", fmt.Errorf("extract shortcode from %q: %w", rawURL, ErrInvalidInput)
	}
	return m[1], nil
}

// GetReelsByUsername retrieves a public profile and up to limit of its reels.
// The structured endpoint is tried first; NotFound and PrivateAccount are
// surfaced as-is, anything else falls back to the headless browser. The
// browser path yields the same result shape, possibly with degraded records.
func (s *Scraper) GetReelsByUsername(ctx context.Context, username string, limit int) (*ReelsResult, error) {
	if username == "" {
		return nil, fmt.Errorf("get reels: username is required: %w", ErrInvalidInput)
	}
	limit = clampLimit(limit)

	res, err := s.reelsFromEndpoint(ctx, username, limit)
	if err == nil {
		return res, nil
	}
	if Terminal(err) {
		return nil, fmt.Errorf("get reels %q: %w", username, err)
	}

	res, ferr := s.browserReelsFunc(ctx, username, limit)
	if ferr != nil {
		return nil, fmt.Errorf("get reels %q via browser: %w", username, ferr)
	}
	return res, nil
}

// GetReelByURL retrieves one reel identified by its canonical URL. The same
// endpoint-first, browser-second ladder applies.
func (s *Scraper) GetReelByURL(ctx context.Context, rawURL string) (*Reel, error) {
	shortcode, err := ExtractShortcode(rawURL)
	if err != nil {
		return nil, err
	}

	item, err := s.fetchMediaItem(ctx, shortcode)
	if err == nil {
		reel := parseMediaItem(*item)
		return &reel, nil
	}
	if Terminal(err) {
		return nil, fmt.Errorf("get reel %q: %w", shortcode, err)
	}

	reel, ferr := s.browserReelFunc(ctx, shortcode)
	if ferr != nil {
		return nil, fmt.Errorf("get reel %q via browser: %w", shortcode, ferr)
	}
	return reel, nil
}

// GetReelsBatch fans out independent GetReelsByUsername calls, at most
// batchConcurrency in flight, and reports each username's outcome on its own.
// One private or missing account never aborts the rest of the batch.
func (s *Scraper) GetReelsBatch(ctx context.Context, usernames []string, limit int) []BatchOutcome {
	outcomes := make([]BatchOutcome, len(usernames))

	var g errgroup.Group
	g.SetLimit(batchConcurrency)
	for i, username := range usernames {
		i, username := i, username
		g.Go(func() error {
			res, err := s.GetReelsByUsername(ctx, username, limit)
			outcomes[i] = BatchOutcome{Username: username, Result: res, Err: err}
			return nil
		})
	}
	g.Wait()

	return outcomes
}

// reelsFromEndpoint assembles a ReelsResult from the structured endpoint.
func (s *Scraper) reelsFromEndpoint(ctx context.Context, username string, limit int) (*ReelsResult, error) {
	user, err := s.fetchProfileWithMedia(ctx, username)
	if err != nil {
		return nil, err
	}

	profile := parseProfile(user)
	reels := assembleReels(user, profile.Username, limit)

	return &ReelsResult{
		Profile:    profile,
		Reels:      reels,
		Pagination: paginate(reels, limit),
	}, nil
}

// assembleReels filters a user's timeline media down to reels, up to limit.
func assembleReels(user *rawGraphUser, username string, limit int) []Reel {
	reels := make([]Reel, 0, limit)
	for _, edge := range user.EdgeOwnerToTimelineMedia.Edges {
		if len(reels) == limit {
			break
		}
		if !isReelNode(edge.Node) {
			continue
		}
		reel := parseGraphReel(edge.Node)
		reel.Username = username
		reels = append(reels, reel)
	}
	return reels
}

// paginate derives the pagination block: HasNext only when the page came back
// full, Cursor is the last reel's ID.
func paginate(reels []Reel, limit int) Pagination {
	p := Pagination{HasNext: limit > 0 && len(reels) == limit}
	if len(reels) > 0 {
		p.Cursor = reels[len(reels)-1].ID
	}
	return p
}

func clampLimit(limit int) int {
	if limit < 0 {
		return 0
	}
	if limit > MaxReelsPerRequest {
		return MaxReelsPerRequest
	}
	return limit
}

// waitForProfile enforces rate limiting for profile endpoint calls.
func (s *Scraper) waitForProfile() {
	s.profileMu.Lock()
	defer s.profileMu.Unlock()
	s.throttle(&s.lastProfile, s.profileDelay)
}

// waitForMedia enforces rate limiting for single-media endpoint calls.
func (s *Scraper) waitForMedia() {
	s.mediaMu.Lock()
	defer s.mediaMu.Unlock()
	s.throttle(&s.lastMedia, s.mediaDelay)
}

// throttle sleeps if needed to enforce min delay + jitter between requests.
func (s *Scraper) throttle(lastReq *time.Time, delay time.Duration) {
	if delay == 0 {
		return
	}
	elapsed := time.Since(*lastReq)
	jitter := time.Duration(rand.Int63n(int64(500 * time.Millisecond)))
	wait := delay + jitter - elapsed
	if wait > 0 {
		time.Sleep(wait)
	}
	*lastReq = time.Now()
}

// OpenPages reports how many browser pages are currently checked out. Zero
// once all in-flight retrievals have finished.
func (s *Scraper) OpenPages() int {
	return int(s.openPages.Load())
}

// Close releases the shared browser. Idempotent, safe with nothing launched,
// and the browser relaunches on the next fallback after a Close.
func (s *Scraper) Close() error {
	return s.closeBrowser()
}
