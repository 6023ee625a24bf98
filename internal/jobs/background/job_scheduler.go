package background

import (
	"context"
	"log"
	"time"

	"gstvault/internal/models"
	"gstvault/internal/repositories"
	"gstvault/internal/services"

	"github.com/go-co-op/gocron/v2"
)

const stuckJobThreshold = 10 * time.Minute

// JobScheduler runs the reconciliation sweeps: re-enqueue zombie OCR jobs,
// purge expired idempotency keys, purge expired OTP rows.
type JobScheduler struct {
	scheduler       gocron.Scheduler
	jobRepo         repositories.OcrJobRepository
	idempotencyRepo repositories.IdempotencyRepository
	otpRepo         repositories.OtpRepository
	enqueuer        services.OcrEnqueuer
}

func NewJobScheduler(jobRepo repositories.OcrJobRepository, idempotencyRepo repositories.IdempotencyRepository, otpRepo repositories.OtpRepository, enqueuer services.OcrEnqueuer) *JobScheduler {
	scheduler, err := gocron.NewScheduler()
	if err != nil {
		log.Fatalf("Failed to create scheduler: %v", err)
	}

	js := &JobScheduler{
		scheduler:       scheduler,
		jobRepo:         jobRepo,
		idempotencyRepo: idempotencyRepo,
		otpRepo:         otpRepo,
		enqueuer:        enqueuer,
	}
	js.registerJobs()
	return js
}

func (js *JobScheduler) Start() {
	log.Printf("Starting background job scheduler")
	js.scheduler.Start()
}

func (js *JobScheduler) Stop() error {
	log.Printf("Stopping background job scheduler")
	return js.scheduler.Shutdown()
}

func (js *JobScheduler) registerJobs() {
	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(5*time.Minute),
		gocron.NewTask(js.requeueStuckJobs, context.Background()),
		gocron.WithName("ocr-zombie-job-requeue"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		log.Printf("Failed to create zombie job sweep: %v", err)
	}

	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(js.purgeExpiredIdempotencyKeys, context.Background()),
		gocron.WithName("idempotency-key-ttl-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		log.Printf("Failed to create idempotency purge: %v", err)
	}

	if _, err := js.scheduler.NewJob(
		gocron.DurationJob(time.Hour),
		gocron.NewTask(js.purgeExpiredOtps, context.Background()),
		gocron.WithName("otp-expiry-purge"),
		gocron.WithSingletonMode(gocron.LimitModeReschedule),
	); err != nil {
		log.Printf("Failed to create otp purge: %v", err)
	}
}

// requeueStuckJobs re-enqueues jobs whose DB row says QUEUED past the
// threshold. These are zombie jobs: the row committed but the enqueue never
// reached the queue. Re-enqueueing is safe because the worker's completed
// guard makes redelivery a no-op.
func (js *JobScheduler) requeueStuckJobs(ctx context.Context) {
	jobs, err := js.jobRepo.StuckQueued(ctx, stuckJobThreshold)
	if err != nil {
		log.Printf("zombie job sweep query failed: %v", err)
		return
	}
	for _, job := range jobs {
		payload := models.OcrQueuePayload{
			JobID:      job.ID.String(),
			InvoiceID:  job.InvoiceID.String(),
			FilePath:   job.FilePath,
			BusinessID: job.BusinessID.String(),
			RequestID:  "reconciliation-sweep",
		}
		if err := js.enqueuer.EnqueueOcr(ctx, payload); err != nil {
			log.Printf("zombie job re-enqueue failed jobId=%s: %v", job.ID, err)
			continue
		}
		log.Printf("re-enqueued stuck job %s for invoice %s", job.ID, job.InvoiceID)
	}
}

func (js *JobScheduler) purgeExpiredIdempotencyKeys(ctx context.Context) {
	purged, err := js.idempotencyRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("idempotency key purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("purged %d expired idempotency keys", purged)
	}
}

func (js *JobScheduler) purgeExpiredOtps(ctx context.Context) {
	purged, err := js.otpRepo.DeleteExpired(ctx)
	if err != nil {
		log.Printf("otp purge failed: %v", err)
		return
	}
	if purged > 0 {
		log.Printf("purged %d expired otps", purged)
	}
}
