package retryworker

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	amqp "github.com/rabbitmq/amqp091-go"
)

// retryDelivery pairs a parsed retry message with its AMQP delivery so
// the worker pool can ack or nack it.
type retryDelivery struct {
	SubmissionID int64
	NotBefore    time.Time
	delivery     amqp.Delivery
}

func (m *retryDelivery) ack(log *slog.Logger) {
	if err := m.delivery.Ack(false); err != nil {
		log.Error("Failed to ACK message", slog.String("error", err.Error()))
	}
}

func (m *retryDelivery) nack(requeue bool, log *slog.Logger) {
	if err := m.delivery.Nack(false, requeue); err != nil {
		log.Error("Failed to NACK message", slog.String("error", err.Error()))
	}
}

// setupConsumer configures QoS and starts consuming from the retry queue.
func (w *Worker) setupConsumer() (<-chan amqp.Delivery, error) {
	channel := w.rabbitClient.GetChannel()
	if channel == nil {
		return nil, fmt.Errorf("rabbitmq channel is nil")
	}

	// Bound unacknowledged messages per consumer so slow retries do not
	// hoard the queue.
	if err := channel.Qos(w.prefetchCount, 0, false); err != nil {
		return nil, fmt.Errorf("failed to set QoS: %w", err)
	}

	deliveries, err := w.rabbitClient.Consume(w.workerID)
	if err != nil {
		return nil, fmt.Errorf("failed to start consuming: %w", err)
	}

	w.logger.Info("RabbitMQ consumer started",
		slog.String("consumer_tag", w.workerID),
		slog.Int("prefetch_count", w.prefetchCount),
	)

	return deliveries, nil
}

// dispatch reads deliveries, parses them, and hands them to the pool.
func (w *Worker) dispatch(ctx context.Context, deliveries <-chan amqp.Delivery) {
	for {
		select {
		case <-ctx.Done():
			w.logger.Info("Message dispatcher stopped - context canceled")
			return

		case delivery, ok := <-deliveries:
			if !ok {
				w.logger.Warn("RabbitMQ delivery channel closed")
				return
			}

			var msg retryMessage
			if err := json.Unmarshal(delivery.Body, &msg); err != nil {
				w.logger.Error("Failed to parse retry message",
					slog.String("error", err.Error()),
					slog.String("body", string(delivery.Body)),
				)
				// Malformed messages are dropped, not requeued.
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK malformed message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			if msg.SubmissionID <= 0 {
				w.logger.Error("Retry message missing submission_id",
					slog.String("body", string(delivery.Body)),
				)
				if nackErr := delivery.Nack(false, false); nackErr != nil {
					w.logger.Error("Failed to NACK invalid message",
						slog.String("error", nackErr.Error()),
					)
				}
				continue
			}

			select {
			case w.msgsChan <- &retryDelivery{
				SubmissionID: msg.SubmissionID,
				NotBefore:    msg.NotBefore,
				delivery:     delivery,
			}:
			case <-ctx.Done():
				w.logger.Info("Message dispatcher stopped while dispatching")
				if nackErr := delivery.Nack(false, true); nackErr != nil {
					w.logger.Error("Failed to NACK message on shutdown",
						slog.String("error", nackErr.Error()),
					)
				}
				return
			}
		}
	}
}
