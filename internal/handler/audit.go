package handler

import (
	"context"

	"github.com/patientdex/patient-dex/internal/queue"
	queue_publisher "github.com/patientdex/patient-dex/internal/service"
)

// AuditPublisher emits audit events for mutations. Publishing is
// best-effort everywhere: the primary store is the source of truth
// and a broker outage must never fail a user action.
type AuditPublisher interface {
	VisitRecorded(ctx context.Context, ev queue.VisitRecordedEvent) error
	StatusChanged(ctx context.Context, ev queue.StatusChangedEvent) error
}

// brokerPublisher sends events to RabbitMQ. It is the default
// publisher wired by the constructors; tests substitute fakes.
type brokerPublisher struct{}

func (brokerPublisher) VisitRecorded(ctx context.Context, ev queue.VisitRecordedEvent) error {
	return queue_publisher.PublishVisitRecorded(ctx, ev)
}

func (brokerPublisher) StatusChanged(ctx context.Context, ev queue.StatusChangedEvent) error {
	return queue_publisher.PublishStatusChanged(ctx, ev)
}
