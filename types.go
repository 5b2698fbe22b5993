package instagram

import "time"

// Profile represents a public Instagram account.
type Profile struct {
	ID               string
	Username         string
	FullName         string
	Bio              string
	AvatarURL        string
	Followers        int
	Following        int
	Posts            int
	Verified         bool
	Private          bool
	ExternalURL      string
	BusinessCategory string
}

// Reel represents one short-form video with its engagement metrics.
// Counters default to zero when the source did not expose them. TakenAt is
// the zero time when the publish timestamp is unknown; it is never
// substituted with the current clock.
type Reel struct {
	ID           string
	Shortcode    string
	URL          string
	ThumbnailURL string
	VideoURL     string // empty under degraded extraction
	Caption      string
	Username     string
	Likes        int
	Comments     int
	Views        int
	TakenAt      time.Time
	Width        int
	Height       int
	IsVideo      bool
	Duration     float64 // seconds, 0 when unknown or not a video
}

// Pagination describes whether more reels may exist beyond the returned page.
// HasNext is true only when the page came back full; Cursor is the ID of the
// last returned reel, or empty.
type Pagination struct {
	HasNext bool
	Cursor  string
}

// ReelsResult is the outcome of a successful profile retrieval. Degraded is
// set when the records came from the DOM-selector last resort and therefore
// carry defaults where the structured paths would carry real values. A
// private account never produces a ReelsResult; it surfaces as
// ErrPrivateAccount so an inaccessible reel list is distinguishable from an
// account that genuinely has none.
type ReelsResult struct {
	Profile    Profile
	Reels      []Reel
	Pagination Pagination
	Degraded   bool
}

// BatchOutcome is one username's independent result within a batch call.
type BatchOutcome struct {
	Username string
	Result   *ReelsResult
	Err      error
}
