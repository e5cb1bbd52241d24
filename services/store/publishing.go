package store

import (
	"context"
	"encoding/json"

	"sjsage522/leadworker/internal/lead"
	"sjsage522/leadworker/logger"
	"sjsage522/leadworker/services/publisher"
)

// PublishKey is the stream field carrying a lead payload
const PublishKey = "lead"

// PublishingStore announces every successfully upserted lead on a stream
// for the enrichment pipeline. Publish failures are logged, not returned.
type PublishingStore struct {
	Store
	pub publisher.Publisher
	log *logger.Logger
}

// NewPublishingStore wraps next with a publisher
func NewPublishingStore(next Store, pub publisher.Publisher) *PublishingStore {
	return &PublishingStore{
		Store: next,
		pub:   pub,
		log:   logger.ForPublisher(),
	}
}

// UpsertDiscovered implements Store
func (p *PublishingStore) UpsertDiscovered(ctx context.Context, l lead.Lead) error {
	if err := p.Store.UpsertDiscovered(ctx, l); err != nil {
		return err
	}

	data, err := json.Marshal(l)
	if err != nil {
		p.log.Error().Err(err).Str("website", l.WebsiteURL).Msg("Failed to encode lead")
		return nil
	}
	if err := p.pub.Publish(ctx, PublishKey, data); err != nil {
		p.log.Warn().Err(err).Str("website", l.WebsiteURL).Msg("Failed to publish lead")
	}
	return nil
}
