//go:build unittest

package instagram

import (
	"context"
	"fmt"
)

func (s *Scraper) browserReels(_ context.Context, _ string, _ int) (*ReelsResult, error) {
	return nil, fmt.Errorf("browser fallback: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (s *Scraper) browserReel(_ context.Context, _ string) (*Reel, error) {
	return nil, fmt.Errorf("browser fallback: %w (build tag: unittest)", ErrBrowserNotReady)
}

func (s *Scraper) closeBrowser() error {
	s.browserMu.Lock()
	defer s.browserMu.Unlock()
	s.browser = nil
	return nil
}
