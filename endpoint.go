package instagram

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
)

// igAppID is the application identifier Instagram's own web client sends.
// Requests without it get bounced to the login wall.
const igAppID = "936619743392459"

// doRequest builds and executes an HTTP request with the header set
// Instagram's web client uses. Status classification happens here so every
// endpoint sees the same taxonomy: 404 is NotFound, anything else non-200 is
// a blocked/transient failure that authorizes the browser fallback.
func (s *Scraper) doRequest(ctx context.Context, method, urlStr string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, method, urlStr, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}

	req.Header.Set("X-IG-App-ID", igAppID)
	req.Header.Set("User-Agent", s.userAgent)
	req.Header.Set("Accept", "*/*")
	req.Header.Set("Accept-Language", "en-US,en;q=0.9")
	req.Header.Set("Referer", "https://www.instagram.com/")
	req.Header.Set("X-Requested-With", "XMLHttpRequest")

	resp, err := s.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("do request: %w: %v", ErrBlocked, err)
	}

	switch {
	case resp.StatusCode == http.StatusNotFound:
		resp.Body.Close()
		return nil, ErrNotFound
	case resp.StatusCode != http.StatusOK:
		status := resp.StatusCode
		resp.Body.Close()
		return nil, fmt.Errorf("unexpected status %d: %w", status, ErrBlocked)
	}

	return resp, nil
}

// fetchProfileWithMedia hits web_profile_info, which returns the profile and
// its most recent timeline media in one payload. A missing user is NotFound;
// a private account is terminal because the rendered page is just as locked.
func (s *Scraper) fetchProfileWithMedia(ctx context.Context, username string) (*rawGraphUser, error) {
	s.waitForProfile()

	endpoint := s.apiBaseURL + "/api/v1/users/web_profile_info/?username=" + url.QueryEscape(username)
	resp, err := s.doRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch profile %q: %w", username, err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read profile %q: %w: %v", username, ErrBlocked, err)
	}

	var payload webProfileResponse
	if err := json.Unmarshal(body, &payload); err != nil {
		return nil, fmt.Errorf("parse profile %q: %w: %v", username, ErrBlocked, err)
	}
	if payload.Data.User == nil {
		return nil, fmt.Errorf("profile %q: %w", username, ErrNotFound)
	}
	if payload.Data.User.IsPrivate {
		return nil, fmt.Errorf("profile %q: %w", username, ErrPrivateAccount)
	}

	return payload.Data.User, nil
}

// fetchMediaItem hits the single-media endpoint for one shortcode.
func (s *Scraper) fetchMediaItem(ctx context.Context, shortcode string) (*rawMediaItem, error) {
	s.waitForMedia()

	endpoint := s.webBaseURL + "/p/" + url.PathEscape(shortcode) + "/?__a=1&__d=dis"
	resp, err := s.doRequest(ctx, http.MethodGet, endpoint)
	if err != nil {
		return nil, fmt.Errorf("fetch media %q: %w", shortcode, err)
	}
	defer resp.Body.Close()

	var payload mediaInfoResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, fmt.Errorf("parse media %q: %w: %v", shortcode, ErrBlocked, err)
	}
	if len(payload.Items) == 0 {
		return nil, fmt.Errorf("media %q: no items in payload: %w", shortcode, ErrBlocked)
	}

	return &payload.Items[0], nil
}
