package app

import "time"

// Settings is the process-wide aggregation configuration. Values are read
// through an immutable snapshot pointer so a reader never observes a
// half-applied update; UpdateSettings swaps in a whole new snapshot.
type Settings struct {
	// FeedChunk is the span of one feed window page.
	FeedChunk time.Duration
	// Overlap is the re-fetch safety margin added behind each window to
	// cover clock skew and late delivery.
	Overlap time.Duration
	// Autofollow is the maximum number of authors adopted from other
	// people's contact lists. Zero disables autofollow.
	Autofollow int
	// PendingTTL bounds how long a reference to an unseen target is held
	// before the eviction sweep drops it.
	PendingTTL time.Duration
	// DNSRecheckAfter is the age at which a DNS identity verification is
	// considered stale.
	DNSRecheckAfter time.Duration
}

const (
	DefaultFeedChunk       = 12 * time.Hour
	DefaultOverlap         = 5 * time.Minute
	DefaultPendingTTL      = time.Hour
	DefaultDNSRecheckAfter = 7 * 24 * time.Hour
)

func DefaultSettings() Settings {
	return Settings{
		FeedChunk:       DefaultFeedChunk,
		Overlap:         DefaultOverlap,
		Autofollow:      0,
		PendingTTL:      DefaultPendingTTL,
		DNSRecheckAfter: DefaultDNSRecheckAfter,
	}
}

// UpdateSettings replaces the aggregator's settings snapshot. Zero durations
// are filled from the defaults so a partial update cannot produce a window
// of zero width. Takes effect for subsequent queries only.
func (a *Aggregator) UpdateSettings(s Settings) {
	if s.FeedChunk <= 0 {
		s.FeedChunk = DefaultFeedChunk
	}
	if s.Overlap < 0 {
		s.Overlap = DefaultOverlap
	}
	if s.PendingTTL <= 0 {
		s.PendingTTL = DefaultPendingTTL
	}
	if s.DNSRecheckAfter <= 0 {
		s.DNSRecheckAfter = DefaultDNSRecheckAfter
	}
	if s.Autofollow < 0 {
		s.Autofollow = 0
	}
	a.settings.Store(&s)
	log.D.F("settings updated: chunk %v overlap %v autofollow %d",
		s.FeedChunk, s.Overlap, s.Autofollow)
}

// Settings returns the current settings snapshot.
func (a *Aggregator) Settings() Settings {
	return *a.settings.Load()
}
