package order

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/solatech/solar-commerce/internal/core/datamodel/order"
	"github.com/solatech/solar-commerce/internal/core/events"
)

// EventHandler settles orders from payment outcomes: a completed payment
// marks its order paid, a failed one marks it payment_failed.
type EventHandler struct {
	repo   Repository
	logger *slog.Logger
}

func NewEventHandler(repo Repository, logger *slog.Logger) *EventHandler {
	return &EventHandler{
		repo:   repo,
		logger: logger,
	}
}

func (h *EventHandler) HandlePaymentCompleted(ctx context.Context, event events.Event) error {
	completed, ok := event.(*events.PaymentCompletedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment completed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentCompletedEvent, got %T", event)
	}

	if completed.OrderID == nil {
		// Direct payments carry no order.
		return nil
	}

	h.logger.Info("marking order as paid",
		"order_id", *completed.OrderID,
		"transaction_id", completed.TransactionID,
		"event_id", completed.EventID())

	if err := h.repo.UpdateStatus(*completed.OrderID, order.StatusPaid); err != nil {
		h.logger.Error("failed to mark order as paid",
			"error", err,
			"order_id", *completed.OrderID,
			"event_id", completed.EventID())
		return fmt.Errorf("failed to mark order %d as paid: %w", *completed.OrderID, err)
	}

	return nil
}

func (h *EventHandler) HandlePaymentFailed(ctx context.Context, event events.Event) error {
	failed, ok := event.(*events.PaymentFailedEvent)
	if !ok {
		h.logger.Error("invalid event type for payment failed handler", "event_type", event.EventType())
		return fmt.Errorf("expected PaymentFailedEvent, got %T", event)
	}

	if failed.OrderID == nil {
		return nil
	}

	h.logger.Info("marking order as payment failed",
		"order_id", *failed.OrderID,
		"transaction_id", failed.TransactionID,
		"result_code", failed.ResultCode,
		"event_id", failed.EventID())

	if err := h.repo.UpdateStatus(*failed.OrderID, order.StatusPaymentFailed); err != nil {
		h.logger.Error("failed to mark order as payment failed",
			"error", err,
			"order_id", *failed.OrderID,
			"event_id", failed.EventID())
		return fmt.Errorf("failed to mark order %d as payment failed: %w", *failed.OrderID, err)
	}

	return nil
}

func (h *EventHandler) RegisterEventHandlers(eventBus *events.EventBus) {
	eventBus.Subscribe(events.EventTypePaymentCompleted, h.HandlePaymentCompleted)
	eventBus.Subscribe(events.EventTypePaymentFailed, h.HandlePaymentFailed)

	h.logger.Info("order event handlers registered",
		"handlers", []string{events.EventTypePaymentCompleted, events.EventTypePaymentFailed})
}
