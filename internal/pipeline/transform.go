package pipeline

import (
	"time"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/weather-daemon/internal/domain"
)

// DocumentNormalizer implements Normalizer using domain.Normalize, stamping
// documents with the clock's time rendered in the display location.
type DocumentNormalizer struct {
	target   domain.PollTarget
	clock    clockwork.Clock
	location *time.Location
}

// NewNormalizer creates a DocumentNormalizer. A nil location displays UTC.
func NewNormalizer(target domain.PollTarget, clock clockwork.Clock, location *time.Location) *DocumentNormalizer {
	if location == nil {
		location = time.UTC
	}
	return &DocumentNormalizer{
		target:   target,
		clock:    clock,
		location: location,
	}
}

func (n *DocumentNormalizer) Normalize(raw domain.RawFetchResult) domain.Document {
	return domain.Normalize(raw, n.target, n.clock.Now().In(n.location))
}
