package publishers

import (
	"time"

	"github.com/Adda-Baaj/khobor-aggregator/internal/domain"
	"github.com/google/uuid"
)

// Event represents one aggregated article published downstream.
type Event struct {
	ID          string         `json:"id"`
	ProviderID  string         `json:"provider_id"`
	Source      string         `json:"source"`
	Category    string         `json:"category,omitempty"`
	Article     domain.Article `json:"article"`
	CollectedAt time.Time      `json:"collected_at"`
}

// NewEvent constructs an Event for an article collected from providerID.
func NewEvent(providerID, category string, article domain.Article, collectedAt time.Time) Event {
	if collectedAt.IsZero() {
		collectedAt = time.Now()
	}
	return Event{
		ID:          uuid.NewString(),
		ProviderID:  providerID,
		Source:      article.Source.String(),
		Category:    category,
		Article:     article,
		CollectedAt: collectedAt.UTC(),
	}
}

// attributes are the string headers attached by brokers that support them.
func (e Event) attributes() map[string]string {
	return map[string]string{
		"event_id":    e.ID,
		"provider_id": e.ProviderID,
		"source":      e.Source,
	}
}
