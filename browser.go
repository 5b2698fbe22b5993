//go:build !unittest

package instagram

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/go-rod/rod"
	"github.com/go-rod/rod/lib/launcher"
	"github.com/go-rod/rod/lib/proto"
	"github.com/go-rod/stealth"
)

const (
	navTimeout      = 30 * time.Second
	landmarkTimeout = 10 * time.Second
	evalTimeout     = 5 * time.Second
)

// launchBrowser starts the shared headless Chrome. Caller must hold browserMu.
// The browser is configured once and reused by every fallback retrieval until
// Close; pages are the per-call unit of work.
func (s *Scraper) launchBrowser() error {
	l := launcher.New().
		Headless(true).
		NoSandbox(true).
		Set("disable-blink-features", "AutomationControlled").
		Set("disable-gpu")
	if s.proxy != "" {
		l = l.Proxy(s.proxy)
	}

	controlURL, err := l.Launch()
	if err != nil {
		return fmt.Errorf("launch browser: %w", err)
	}

	browser := rod.New().ControlURL(controlURL)
	if err := browser.Connect(); err != nil {
		return fmt.Errorf("connect browser: %w", err)
	}

	s.browser = browser
	s.setupResourceBlocking()
	return nil
}

// setupResourceBlocking drops styling, fonts and media downloads. Metadata
// extraction only needs the document and its scripts.
func (s *Scraper) setupResourceBlocking() {
	router := s.browser.HijackRequests()
	blocked := []string{"*.css", "*.woff*", "*.mp4", "*.svg", "*analytics*"}
	for _, pattern := range blocked {
		router.MustAdd(pattern, func(ctx *rod.Hijack) {
			ctx.Response.Fail(proto.NetworkErrorReasonBlockedByClient)
		})
	}
	go router.Run()
}

// acquirePage hands out a fresh stealth page on the shared browser, launching
// the browser on first use. The mutex makes concurrent first calls serialize
// into a single launch instead of racing into two Chromes.
func (s *Scraper) acquirePage() (*rod.Page, error) {
	s.browserMu.Lock()
	defer s.browserMu.Unlock()

	if s.browser == nil {
		if err := s.launchBrowser(); err != nil {
			return nil, err
		}
	}

	page, err := stealth.Page(s.browser)
	if err != nil {
		return nil, fmt.Errorf("create stealth page: %w", err)
	}
	if err := s.preparePage(page); err != nil {
		_ = page.Close()
		return nil, err
	}

	s.openPages.Add(1)
	return page, nil
}

// releasePage closes a page checked out by acquirePage. Every code path that
// acquires must release, or pages pile up on the shared browser.
func (s *Scraper) releasePage(page *rod.Page) {
	_ = page.Close()
	s.openPages.Add(-1)
}

// preparePage pins the page to an ordinary desktop identity: fixed viewport,
// locale, timezone and browser-like headers.
func (s *Scraper) preparePage(page *rod.Page) error {
	if err := page.SetViewport(&proto.EmulationSetDeviceMetricsOverride{
		Width:             1920,
		Height:            1080,
		DeviceScaleFactor: 1,
		Mobile:            false,
	}); err != nil {
		return fmt.Errorf("set viewport: %w", err)
	}
	if err := (proto.EmulationSetLocaleOverride{Locale: "en-US"}).Call(page); err != nil {
		return fmt.Errorf("set locale: %w", err)
	}
	if err := (proto.EmulationSetTimezoneOverride{TimezoneID: "America/New_York"}).Call(page); err != nil {
		return fmt.Errorf("set timezone: %w", err)
	}
	if _, err := page.SetExtraHeaders([]string{
		"Accept-Language", "en-US,en;q=0.9",
		"Sec-Fetch-Site", "same-origin",
		"Sec-Fetch-Mode", "cors",
		"Sec-Fetch-Dest", "empty",
	}); err != nil {
		return fmt.Errorf("set extra headers: %w", err)
	}
	return nil
}

// browserReels is the fallback behind GetReelsByUsername: render the profile
// in the shared browser and extract whatever the page exposes.
func (s *Scraper) browserReels(ctx context.Context, username string, limit int) (*ReelsResult, error) {
	page, err := s.acquirePage()
	if err != nil {
		return nil, err
	}
	defer s.releasePage(page)

	return s.extractProfile(page.Context(ctx), username, limit)
}

// extractProfile renders the profile page and works down the extraction
// ladder: embedded script payloads first, DOM selectors as the last resort.
func (s *Scraper) extractProfile(page *rod.Page, username string, limit int) (*ReelsResult, error) {
	// Hitting the root first establishes baseline cookies; profile requests
	// from a cold session are flagged far more often.
	if err := page.Timeout(navTimeout).Navigate(s.webBaseURL + "/"); err != nil {
		return nil, fmt.Errorf("navigate to root: %w: %v", ErrBlocked, err)
	}
	_ = page.Timeout(evalTimeout).WaitStable(2 * time.Second)

	profileURL := s.webBaseURL + "/" + username + "/"
	if err := page.Timeout(navTimeout).Navigate(profileURL); err != nil {
		return nil, fmt.Errorf("navigate to profile: %w: %v", ErrBlocked, err)
	}
	if err := page.Timeout(navTimeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("load profile: %w: %v", ErrBlocked, err)
	}

	if err := s.classifyLanding(page, username); err != nil {
		return nil, err
	}

	if _, err := page.Timeout(landmarkTimeout).Element("main"); err != nil {
		return nil, fmt.Errorf("profile %q: content never appeared: %w", username, ErrBlocked)
	}

	user, _, found := findProfilePayload(pageScripts(page))

	var profile Profile
	degraded := false
	if found {
		profile = parseProfile(user)
	} else {
		profile = domProfile(page, username)
		degraded = true
	}
	if profile.Private {
		return nil, fmt.Errorf("profile %q: %w", username, ErrPrivateAccount)
	}

	var reels []Reel
	if found && len(user.EdgeOwnerToTimelineMedia.Edges) > 0 {
		reels = assembleReels(user, profile.Username, limit)
	} else {
		// Best effort: the dedicated listing page has more anchors, but if it
		// refuses to load we extract from whatever is already rendered.
		if err := page.Timeout(15 * time.Second).Navigate(s.webBaseURL + "/" + username + "/reels/"); err == nil {
			_ = page.Timeout(evalTimeout).WaitStable(3 * time.Second)
		}
		reels = s.collectReelAnchors(page, profile.Username, limit)
		degraded = true
	}

	return &ReelsResult{
		Profile:    profile,
		Reels:      reels,
		Pagination: paginate(reels, limit),
		Degraded:   degraded,
	}, nil
}

// classifyLanding turns the post-navigation page state into a terminal error
// before any extraction is attempted.
func (s *Scraper) classifyLanding(page *rod.Page, username string) error {
	info, err := page.Info()
	if err == nil && strings.Contains(info.URL, "/accounts/login") {
		return fmt.Errorf("profile %q: %w", username, ErrLoginRequired)
	}

	result, err := page.Timeout(evalTimeout).Eval(
		`() => document.body ? document.body.innerText.includes("Sorry, this page isn't available") : false`)
	if err == nil && result.Value.Bool() {
		return fmt.Errorf("profile %q: %w", username, ErrNotFound)
	}
	return nil
}

// pageScripts returns every script body on the page in one round trip.
func pageScripts(page *rod.Page) []string {
	result, err := page.Timeout(evalTimeout).Eval(
		`() => Array.from(document.querySelectorAll('script')).map(s => s.textContent || '')`)
	if err != nil {
		return nil
	}
	arr := result.Value.Arr()
	scripts := make([]string, 0, len(arr))
	for _, v := range arr {
		scripts = append(scripts, v.Str())
	}
	return scripts
}

// domProfile scrapes a minimal profile shape straight from the rendered DOM.
// Last resort: counters stay zero and most fields stay empty.
func domProfile(page *rod.Page, username string) Profile {
	p := Profile{Username: username}

	if has, el, err := page.Has("header section h1"); err == nil && has {
		if txt, err := el.Text(); err == nil {
			p.FullName = strings.TrimSpace(txt)
		}
	}
	if has, _, err := page.Has(`svg[aria-label="Verified"]`); err == nil && has {
		p.Verified = true
	}

	result, err := page.Timeout(evalTimeout).Eval(
		`() => document.body ? document.body.innerText.includes("This Account is Private") : false`)
	if err == nil && result.Value.Bool() {
		p.Private = true
	}
	return p
}

// collectReelAnchors walks rendered /reel/ and /p/ anchors, up to limit. The
// records are degraded: shortcode doubles as the ID, counts default to zero
// and the publish time stays unknown.
func (s *Scraper) collectReelAnchors(page *rod.Page, username string, limit int) []Reel {
	if limit == 0 {
		return nil
	}

	result, err := page.Timeout(evalTimeout).Eval(`(limit) => {
		const anchors = Array.from(document.querySelectorAll('a[href*="/reel/"], a[href*="/p/"]'));
		const out = [];
		for (const a of anchors.slice(0, limit * 2)) {
			const img = a.querySelector('img');
			out.push({
				href: a.getAttribute('href') || '',
				thumb: img ? img.src : '',
				alt: img ? (img.alt || '') : '',
			});
		}
		return out;
	}`, limit)
	if err != nil {
		return nil
	}

	var reels []Reel
	seen := make(map[string]bool)
	for _, v := range result.Value.Arr() {
		href := v.Get("href").Str()
		code, ok := shortcodeFromPath(href)
		if !ok || seen[code] {
			continue
		}
		seen[code] = true
		reels = append(reels, Reel{
			ID:           code,
			Shortcode:    code,
			URL:          s.webBaseURL + href,
			ThumbnailURL: v.Get("thumb").Str(),
			Caption:      v.Get("alt").Str(),
			Username:     username,
			IsVideo:      strings.Contains(href, "/reel/"),
		})
		if len(reels) == limit {
			break
		}
	}
	return reels
}

// browserReel is the fallback behind GetReelByURL.
func (s *Scraper) browserReel(ctx context.Context, shortcode string) (*Reel, error) {
	page, err := s.acquirePage()
	if err != nil {
		return nil, err
	}
	defer s.releasePage(page)

	return s.extractReel(page.Context(ctx), shortcode)
}

// extractReel renders one reel page. Embedded payload first, then the primary
// media element and the og:description meta as the degraded path.
func (s *Scraper) extractReel(page *rod.Page, shortcode string) (*Reel, error) {
	if err := page.Timeout(navTimeout).Navigate(reelURL(shortcode)); err != nil {
		return nil, fmt.Errorf("navigate to reel: %w: %v", ErrBlocked, err)
	}
	if err := page.Timeout(navTimeout).WaitLoad(); err != nil {
		return nil, fmt.Errorf("load reel: %w: %v", ErrBlocked, err)
	}

	info, err := page.Info()
	if err == nil && strings.Contains(info.URL, "/accounts/login") {
		return nil, fmt.Errorf("reel %q: %w", shortcode, ErrLoginRequired)
	}

	if media, _, ok := findReelPayload(pageScripts(page)); ok {
		reel := parseShortcodeMedia(media)
		return &reel, nil
	}

	reel := Reel{
		ID:        shortcode,
		Shortcode: shortcode,
		URL:       reelURL(shortcode),
		IsVideo:   true,
	}
	usable := false

	if has, el, err := page.Has("video"); err == nil && has {
		if src, err := el.Attribute("src"); err == nil && src != nil {
			reel.VideoURL = *src
			usable = true
		}
	}
	if has, el, err := page.Has("article img"); err == nil && has {
		if src, err := el.Attribute("src"); err == nil && src != nil {
			reel.ThumbnailURL = *src
			usable = true
		}
	}
	if has, el, err := page.Has(`meta[property="og:description"]`); err == nil && has {
		if content, err := el.Attribute("content"); err == nil && content != nil {
			reel.Caption = *content
			usable = true
		}
	}
	if has, el, err := page.Has("header a"); err == nil && has {
		if txt, err := el.Text(); err == nil {
			reel.Username = strings.TrimSpace(txt)
		}
	}

	if !usable {
		return nil, fmt.Errorf("reel %q: %w", shortcode, ErrExtractionFailed)
	}
	return &reel, nil
}

// closeBrowser tears the shared browser down. Idempotent and safe with
// nothing launched; the next fallback after a close relaunches.
func (s *Scraper) closeBrowser() error {
	s.browserMu.Lock()
	defer s.browserMu.Unlock()

	if s.browser == nil {
		return nil
	}
	if err := s.browser.Close(); err != nil {
		s.browser = nil
		return fmt.Errorf("close browser: %w", err)
	}
	s.browser = nil
	return nil
}
