package jobs

import (
	"context"
	"encoding/json"
	"time"

	"gstvault/internal/models"

	"github.com/hibiken/asynq"
)

// Task type definitions
const (
	TypeOcrProcess = "ocr:process"

	// Retry policy: bounded attempts with exponential backoff. Exhausted
	// tasks land in the asynq archive and the job row stays FAILED.
	ocrMaxRetry = 3
)

// NewOcrProcessTask creates the queue task for one OCR job.
func NewOcrProcessTask(payload models.OcrQueuePayload) (*asynq.Task, error) {
	data, err := json.Marshal(payload)
	if err != nil {
		return nil, err
	}
	return asynq.NewTask(TypeOcrProcess, data), nil
}

// OcrRetryDelay implements the 1s/2s/4s exponential backoff schedule.
func OcrRetryDelay(n int, _ error, _ *asynq.Task) time.Duration {
	return time.Duration(1<<n) * time.Second
}

// AsynqEnqueuer adapts an asynq client to the services.OcrEnqueuer contract.
type AsynqEnqueuer struct {
	client *asynq.Client
}

func NewAsynqEnqueuer(client *asynq.Client) *AsynqEnqueuer {
	return &AsynqEnqueuer{client: client}
}

func (e *AsynqEnqueuer) EnqueueOcr(ctx context.Context, payload models.OcrQueuePayload) error {
	task, err := NewOcrProcessTask(payload)
	if err != nil {
		return err
	}
	_, err = e.client.EnqueueContext(ctx, task, asynq.MaxRetry(ocrMaxRetry), asynq.Timeout(5*time.Minute))
	return err
}
