package instagram

import "errors"

var (
	ErrNotFound         = errors.New("instagram: not found")
	ErrPrivateAccount   = errors.New("instagram: private account")
	ErrLoginRequired    = errors.New("instagram: login required")
	ErrInvalidInput     = errors.New("instagram: invalid input")
	ErrBlocked          = errors.New("instagram: blocked or transient failure")
	ErrExtractionFailed = errors.New("instagram: extraction produced no usable data")
	ErrBrowserNotReady  = errors.New("instagram: browser not initialized")
)

// Terminal reports whether err must be surfaced as-is instead of triggering
// the browser fallback. A private account stays private in a rendered page,
// so re-trying it through the browser only burns a session.
func Terminal(err error) bool {
	return errors.Is(err, ErrNotFound) ||
		errors.Is(err, ErrPrivateAccount) ||
		errors.Is(err, ErrLoginRequired) ||
		errors.Is(err, ErrInvalidInput)
}
