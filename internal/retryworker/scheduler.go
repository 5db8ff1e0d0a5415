// Package retryworker reschedules failed submissions. The API publishes
// a retry message for every failure with remaining budget; this package
// consumes those messages and also sweeps the database for failed rows
// the queue may have missed.
package retryworker

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	"github.com/listforge/listforge-be/shared/rabbitmq"
)

// retryMessage is the wire format for a scheduled retry.
type retryMessage struct {
	SubmissionID int64     `json:"submission_id"`
	NotBefore    time.Time `json:"not_before"`
}

// Scheduler publishes retry messages to RabbitMQ. It satisfies the
// engine's RetryScheduler.
type Scheduler struct {
	rabbitClient *rabbitmq.Client
}

func NewScheduler(rabbitClient *rabbitmq.Client) *Scheduler {
	return &Scheduler{rabbitClient: rabbitClient}
}

// ScheduleRetry queues a retry for the submission, to be attempted no
// earlier than notBefore.
func (s *Scheduler) ScheduleRetry(ctx context.Context, submissionID int64, notBefore time.Time) error {
	body, err := json.Marshal(retryMessage{
		SubmissionID: submissionID,
		NotBefore:    notBefore,
	})
	if err != nil {
		return fmt.Errorf("failed to encode retry message: %w", err)
	}

	if err := s.rabbitClient.PublishWithRetry(ctx, body, "application/json"); err != nil {
		return fmt.Errorf("failed to publish retry message: %w", err)
	}

	return nil
}
