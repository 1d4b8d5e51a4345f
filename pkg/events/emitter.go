// Package events handles event emission for reconciliation lifecycle changes
package events

import (
	"context"
	"encoding/json"

	"github.com/Gobusters/ectologger"

	"github.com/AngelMagaquian/laintapp-api/pkg/kafka"
	"github.com/AngelMagaquian/laintapp-api/pkg/models"
	"github.com/AngelMagaquian/laintapp-api/pkg/tracing"
)

// SchemaVersion is the current event schema version
const SchemaVersion = "1.0"

// Emitter publishes reconciliation lifecycle events. A nil Emitter is valid
// and drops every event, so callers never need to branch on whether Kafka is
// configured.
type Emitter struct {
	producer *kafka.Producer
	logger   ectologger.Logger
}

// NewEmitter creates a new event emitter
func NewEmitter(producer *kafka.Producer, logger ectologger.Logger) *Emitter {
	return &Emitter{
		producer: producer,
		logger:   logger,
	}
}

// EmitMatchingSaved emits an event after a matching pass is persisted
func (e *Emitter) EmitMatchingSaved(ctx context.Context, providerName, fileDate string, payload MatchingSavedPayload) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchingSaved")
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &kafka.ReconciliationEvent{
		EventType: string(EventTypeMatchingSaved),
		Provider:  providerName,
		FileDate:  fileDate,
		Payload:   data,
	}

	if err := e.producer.PublishEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit matching.saved event")
		return err
	}

	return nil
}

// EmitMatchingReviewed emits an event after a record review decision
func (e *Emitter) EmitMatchingReviewed(ctx context.Context, record *models.MatchingRecord) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitMatchingReviewed")
	defer span.End()

	payload := MatchingReviewedPayload{Status: string(record.Status)}
	if record.ReviewedBy != nil {
		payload.ReviewedBy = *record.ReviewedBy
	}
	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &kafka.ReconciliationEvent{
		EventType:  string(EventTypeMatchingReviewed),
		Provider:   record.ProviderName,
		ResourceID: record.ID,
		Payload:    data,
	}

	if err := e.producer.PublishEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit matching.reviewed event")
		return err
	}

	return nil
}

// EmitSettlementCompleted emits an event after a settlement pass finishes
func (e *Emitter) EmitSettlementCompleted(ctx context.Context, providerName string, payload SettlementCompletedPayload) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitSettlementCompleted")
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &kafka.ReconciliationEvent{
		EventType: string(EventTypeSettlementCompleted),
		Provider:  providerName,
		Payload:   data,
	}

	if err := e.producer.PublishEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit settlement.completed event")
		return err
	}

	return nil
}

// EmitTaxesAggregated emits an event after tax aggregate rows are appended
func (e *Emitter) EmitTaxesAggregated(ctx context.Context, providerName string, payload TaxesAggregatedPayload) error {
	if e == nil || e.producer == nil {
		return nil
	}
	ctx, span := tracing.StartSpan(ctx, "events.Emitter.EmitTaxesAggregated")
	defer span.End()

	data, err := json.Marshal(payload)
	if err != nil {
		return err
	}

	event := &kafka.ReconciliationEvent{
		EventType: string(EventTypeTaxesAggregated),
		Provider:  providerName,
		Payload:   data,
	}

	if err := e.producer.PublishEvent(ctx, event); err != nil {
		e.logger.WithContext(ctx).WithError(err).Error("Failed to emit taxes.aggregated event")
		return err
	}

	return nil
}
