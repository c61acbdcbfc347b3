package application

import (
	"time"

	"github.com/saransh1220/procurement-console/internal/modules/notification/domain"
)

// Metrics receives session events. Implementations must be safe for
// concurrent use.
type Metrics interface {
	ObserveState(from, to domain.ConnectionState)
	ObserveReconnectDelay(d time.Duration)
	ObserveDropped(reason string)
	ObserveApplied(source string, n int)
	ObserveHistory(err error)
}

const (
	SourceLive     = "live"
	SourceHistory  = "history"
	SourceCrossTab = "crosstab"

	DropMalformed = "malformed"
	DropType      = "unexpected_type"
	DropMissingID = "missing_id"
	DropDuplicate = "duplicate"
)

type nopMetrics struct{}

func (nopMetrics) ObserveState(domain.ConnectionState, domain.ConnectionState) {}
func (nopMetrics) ObserveReconnectDelay(time.Duration)                         {}
func (nopMetrics) ObserveDropped(string)                                       {}
func (nopMetrics) ObserveApplied(string, int)                                  {}
func (nopMetrics) ObserveHistory(error)                                        {}
