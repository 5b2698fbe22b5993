package handler

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	instagram "github.com/RavensCloud/instagram-gofun"
)

const apiVersion = "1.0.0"

// Caps mirror the platform-friendly ceilings of the retrieval engine: 24
// reels per single request, 12 per username inside a batch, 3 usernames per
// batch.
const (
	maxLimit          = instagram.MaxReelsPerRequest
	maxBatchLimit     = 12
	maxBatchUsernames = 3
	defaultLimit      = 12
)

// ReelRetriever is the slice of the retrieval engine the handlers need.
type ReelRetriever interface {
	GetReelsByUsername(ctx context.Context, username string, limit int) (*instagram.ReelsResult, error)
	GetReelByURL(ctx context.Context, url string) (*instagram.Reel, error)
	GetReelsBatch(ctx context.Context, usernames []string, limit int) []instagram.BatchOutcome
}

// ReelsHandler handles reel retrieval HTTP requests.
type ReelsHandler struct {
	scraper ReelRetriever
	logger  *slog.Logger
}

// NewReelsHandler creates a new reels handler.
func NewReelsHandler(scraper ReelRetriever, logger *slog.Logger) *ReelsHandler {
	return &ReelsHandler{
		scraper: scraper,
		logger:  logger,
	}
}

// ---------------------------------------------------------------------------
// Wire shapes. The engine's types carry no JSON tags on purpose;
// serialization is this layer's job.
// ---------------------------------------------------------------------------

type profileJSON struct {
	ID               string `json:"id,omitempty"`
	Username         string `json:"username"`
	FullName         string `json:"full_name"`
	Bio              string `json:"bio"`
	ProfilePic       string `json:"profile_pic"`
	Followers        int    `json:"followers"`
	Following        int    `json:"following"`
	Posts            int    `json:"posts"`
	IsVerified       bool   `json:"is_verified"`
	IsPrivate        bool   `json:"is_private"`
	ExternalURL      string `json:"external_url,omitempty"`
	BusinessCategory string `json:"business_category,omitempty"`
}

type dimensionsJSON struct {
	Width  int `json:"width"`
	Height int `json:"height"`
}

type reelJSON struct {
	ID         string         `json:"id"`
	Shortcode  string         `json:"shortcode"`
	URL        string         `json:"url"`
	Thumbnail  string         `json:"thumbnail"`
	VideoURL   string         `json:"video_url,omitempty"`
	Caption    string         `json:"caption"`
	Username   string         `json:"username,omitempty"`
	Likes      int            `json:"likes"`
	Comments   int            `json:"comments"`
	Views      int            `json:"views"`
	Timestamp  string         `json:"timestamp,omitempty"` // ISO-8601, empty when unknown
	Dimensions dimensionsJSON `json:"dimensions"`
	IsVideo    bool           `json:"is_video"`
	Duration   float64        `json:"duration"`
}

type paginationJSON struct {
	HasNext bool   `json:"has_next"`
	Cursor  string `json:"cursor,omitempty"`
}

type metadataJSON struct {
	ScrapedAt        string `json:"scraped_at"`
	TotalReels       int    `json:"total_reels,omitempty"`
	ProcessingTimeMs int64  `json:"processing_time_ms"`
	RequestID        string `json:"request_id"`
	APIVersion       string `json:"api_version"`
	Degraded         bool   `json:"degraded,omitempty"`
}

type envelope struct {
	Success   bool   `json:"success"`
	Data      any    `json:"data,omitempty"`
	Error     string `json:"error,omitempty"`
	Details   string `json:"details,omitempty"`
	Timestamp string `json:"timestamp"`
}

func toProfileJSON(p instagram.Profile) profileJSON {
	return profileJSON{
		ID:               p.ID,
		Username:         p.Username,
		FullName:         p.FullName,
		Bio:              p.Bio,
		ProfilePic:       p.AvatarURL,
		Followers:        p.Followers,
		Following:        p.Following,
		Posts:            p.Posts,
		IsVerified:       p.Verified,
		IsPrivate:        p.Private,
		ExternalURL:      p.ExternalURL,
		BusinessCategory: p.BusinessCategory,
	}
}

func toReelJSON(r instagram.Reel) reelJSON {
	timestamp := ""
	if !r.TakenAt.IsZero() {
		timestamp = r.TakenAt.Format(time.RFC3339)
	}
	return reelJSON{
		ID:         r.ID,
		Shortcode:  r.Shortcode,
		URL:        r.URL,
		Thumbnail:  r.ThumbnailURL,
		VideoURL:   r.VideoURL,
		Caption:    r.Caption,
		Username:   r.Username,
		Likes:      r.Likes,
		Comments:   r.Comments,
		Views:      r.Views,
		Timestamp:  timestamp,
		Dimensions: dimensionsJSON{Width: r.Width, Height: r.Height},
		IsVideo:    r.IsVideo,
		Duration:   r.Duration,
	}
}

func toReelsJSON(reels []instagram.Reel) []reelJSON {
	out := make([]reelJSON, 0, len(reels))
	for _, r := range reels {
		out = append(out, toReelJSON(r))
	}
	return out
}

// ---------------------------------------------------------------------------
// Input validation. Invalid input never reaches the engine.
// ---------------------------------------------------------------------------

var (
	usernameRe = regexp.MustCompile(`^[a-zA-Z0-9._]{1,30}$`)
	reelURLRe  = regexp.MustCompile(`instagram\.com/(reel|p)/[A-Za-z0-9_-]+`)
)

// sanitizeUsername lowercases and validates an account handle.
func sanitizeUsername(username string) (string, bool) {
	username = strings.ToLower(strings.TrimSpace(username))
	if !usernameRe.MatchString(username) {
		return "", false
	}
	return username, true
}

func validReelURL(rawURL string) bool {
	return reelURLRe.MatchString(rawURL)
}

// ---------------------------------------------------------------------------
// Handlers
// ---------------------------------------------------------------------------

// ByUsername handles GET /api/reels/user/{username}.
func (h *ReelsHandler) ByUsername(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	username, ok := sanitizeUsername(chi.URLParam(r, "username"))
	if !ok {
		writeError(w, http.StatusBadRequest, "Invalid username",
			"Username must be 1-30 characters of letters, numbers, dots, and underscores")
		return
	}

	limit := defaultLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 0 {
			writeError(w, http.StatusBadRequest, "Invalid limit", "limit must be a non-negative integer")
			return
		}
		limit = min(n, maxLimit)
	}

	result, err := h.scraper.GetReelsByUsername(r.Context(), username, limit)
	if err != nil {
		h.logger.Warn("reels retrieval failed", "username", username, "error", err)
		writeRetrievalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]any{
			"username":   username,
			"profile":    toProfileJSON(result.Profile),
			"reels":      toReelsJSON(result.Reels),
			"pagination": paginationJSON{HasNext: result.Pagination.HasNext, Cursor: result.Pagination.Cursor},
			"metadata": metadataJSON{
				ScrapedAt:        time.Now().UTC().Format(time.RFC3339),
				TotalReels:       len(result.Reels),
				ProcessingTimeMs: time.Since(start).Milliseconds(),
				RequestID:        uuid.NewString(),
				APIVersion:       apiVersion,
				Degraded:         result.Degraded,
			},
		},
	})
}

type urlRequest struct {
	URL string `json:"url"`
}

// ByURL handles POST /api/reels/url.
func (h *ReelsHandler) ByURL(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req urlRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "Expected JSON with a url field")
		return
	}
	if req.URL == "" {
		writeError(w, http.StatusBadRequest, "Missing URL", "URL parameter is required")
		return
	}
	if !validReelURL(req.URL) {
		writeError(w, http.StatusBadRequest, "Invalid URL", "Must be an Instagram reel or post URL")
		return
	}

	reel, err := h.scraper.GetReelByURL(r.Context(), req.URL)
	if err != nil {
		h.logger.Warn("reel retrieval failed", "url", req.URL, "error", err)
		writeRetrievalError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]any{
			"reel": toReelJSON(*reel),
			"metadata": metadataJSON{
				ScrapedAt:        time.Now().UTC().Format(time.RFC3339),
				ProcessingTimeMs: time.Since(start).Milliseconds(),
				RequestID:        uuid.NewString(),
				APIVersion:       apiVersion,
			},
		},
	})
}

type batchRequest struct {
	Usernames []string `json:"usernames"`
	Limit     int      `json:"limit"`
}

type batchOutcomeJSON struct {
	Username string         `json:"username"`
	Status   string         `json:"status"`
	Data     map[string]any `json:"data,omitempty"`
	Error    string         `json:"error,omitempty"`
	Details  string         `json:"details,omitempty"`
}

// Batch handles POST /api/reels/batch.
func (h *ReelsHandler) Batch(w http.ResponseWriter, r *http.Request) {
	start := time.Now()

	var req batchRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeError(w, http.StatusBadRequest, "Invalid request body", "Expected JSON with a usernames array")
		return
	}
	if len(req.Usernames) == 0 {
		writeError(w, http.StatusBadRequest, "Invalid request", "usernames must be a non-empty array")
		return
	}
	if len(req.Usernames) > maxBatchUsernames {
		writeError(w, http.StatusBadRequest, "Batch limit exceeded",
			"Maximum 3 usernames allowed per batch request for stability")
		return
	}

	usernames := make([]string, 0, len(req.Usernames))
	for _, raw := range req.Usernames {
		username, ok := sanitizeUsername(raw)
		if !ok {
			writeError(w, http.StatusBadRequest, "Invalid username in batch", "Username "+strconv.Quote(raw)+" is not valid")
			return
		}
		usernames = append(usernames, username)
	}

	limit := req.Limit
	if limit <= 0 {
		limit = defaultLimit / 2
	}
	limit = min(limit, maxBatchLimit)

	outcomes := h.scraper.GetReelsBatch(r.Context(), usernames, limit)

	results := make([]batchOutcomeJSON, 0, len(outcomes))
	successful := 0
	for _, o := range outcomes {
		item := batchOutcomeJSON{Username: o.Username}
		if o.Err != nil {
			item.Status = "error"
			item.Error = errorKind(o.Err)
			item.Details = publicDetails(o.Err)
		} else {
			item.Status = "ok"
			successful++
			item.Data = map[string]any{
				"profile":    toProfileJSON(o.Result.Profile),
				"reels":      toReelsJSON(o.Result.Reels),
				"pagination": paginationJSON{HasNext: o.Result.Pagination.HasNext, Cursor: o.Result.Pagination.Cursor},
			}
		}
		results = append(results, item)
	}

	writeJSON(w, http.StatusOK, envelope{
		Success:   true,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
		Data: map[string]any{
			"batch_results": results,
			"metadata": map[string]any{
				"scraped_at":          time.Now().UTC().Format(time.RFC3339),
				"total_requests":      len(usernames),
				"successful_requests": successful,
				"failed_requests":     len(usernames) - successful,
				"processing_time_ms":  time.Since(start).Milliseconds(),
				"request_id":          uuid.NewString(),
				"api_version":         apiVersion,
			},
		},
	})
}

// ---------------------------------------------------------------------------
// Error mapping
// ---------------------------------------------------------------------------

// errorKind maps an engine error to a stable wire identifier.
func errorKind(err error) string {
	switch {
	case errors.Is(err, instagram.ErrNotFound):
		return "not_found"
	case errors.Is(err, instagram.ErrPrivateAccount):
		return "private_account"
	case errors.Is(err, instagram.ErrLoginRequired):
		return "login_required"
	case errors.Is(err, instagram.ErrInvalidInput):
		return "invalid_input"
	case errors.Is(err, instagram.ErrExtractionFailed):
		return "extraction_failed"
	default:
		return "blocked"
	}
}

// publicDetails returns a stable human-readable line per error kind. Raw
// error text stays in the logs.
func publicDetails(err error) string {
	switch {
	case errors.Is(err, instagram.ErrNotFound):
		return "User or content does not exist"
	case errors.Is(err, instagram.ErrPrivateAccount):
		return "Cannot retrieve reels from private accounts"
	case errors.Is(err, instagram.ErrLoginRequired):
		return "The platform requires login for this request"
	case errors.Is(err, instagram.ErrInvalidInput):
		return "Request input is malformed"
	case errors.Is(err, instagram.ErrExtractionFailed):
		return "Rendered page contained no usable data"
	default:
		return "Upstream request was blocked or failed transiently"
	}
}

func statusFor(err error) int {
	switch {
	case errors.Is(err, instagram.ErrInvalidInput):
		return http.StatusBadRequest
	case errors.Is(err, instagram.ErrNotFound):
		return http.StatusNotFound
	case errors.Is(err, instagram.ErrPrivateAccount), errors.Is(err, instagram.ErrLoginRequired):
		return http.StatusForbidden
	default:
		return http.StatusBadGateway
	}
}

func writeRetrievalError(w http.ResponseWriter, err error) {
	writeError(w, statusFor(err), errorKind(err), publicDetails(err))
}

func writeError(w http.ResponseWriter, status int, kind, details string) {
	writeJSON(w, status, envelope{
		Success:   false,
		Error:     kind,
		Details:   details,
		Timestamp: time.Now().UTC().Format(time.RFC3339),
	})
}

func writeJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
