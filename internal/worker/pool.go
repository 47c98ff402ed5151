package worker

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log"
	"time"

	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"

	"scriptforge-backend/internal/models"
	"scriptforge-backend/internal/repository"
	"scriptforge-backend/internal/services"
)

const extractionQueue = "queue:dna-extraction"

type Pool struct {
	redis       *redis.Client
	dna         *services.DNAService
	feed        *services.ChangeFeed
	userRepo    *repository.UserRepo
	projectRepo *repository.ProjectRepo
	dnaRepo     *repository.DNARepo
	jobRepo     *repository.JobRepo
	workerCount int
	stopChan    chan struct{}
}

func NewPool(
	redisClient *redis.Client,
	dna *services.DNAService,
	feed *services.ChangeFeed,
	userRepo *repository.UserRepo,
	projectRepo *repository.ProjectRepo,
	dnaRepo *repository.DNARepo,
	jobRepo *repository.JobRepo,
	workerCount int,
) *Pool {
	return &Pool{
		redis:       redisClient,
		dna:         dna,
		feed:        feed,
		userRepo:    userRepo,
		projectRepo: projectRepo,
		dnaRepo:     dnaRepo,
		jobRepo:     jobRepo,
		workerCount: workerCount,
		stopChan:    make(chan struct{}),
	}
}

func (p *Pool) Start() {
	for i := 0; i < p.workerCount; i++ {
		go p.worker(i)
	}

	log.Printf("Started %d worker goroutines", p.workerCount)
}

func (p *Pool) Stop() {
	close(p.stopChan)
}

func (p *Pool) worker(id int) {
	for {
		select {
		case <-p.stopChan:
			log.Printf("Worker %d shutting down", id)
			return
		default:
		}

		ctx := context.Background()

		// BLPOP with 30s timeout
		result, err := p.redis.BLPop(ctx, 30*time.Second, extractionQueue).Result()
		if err != nil {
			continue // Timeout or error, retry
		}

		if len(result) < 2 {
			continue
		}

		var job models.Job
		if err := json.Unmarshal([]byte(result[1]), &job); err != nil {
			log.Printf("Worker %d: failed to parse job: %v", id, err)
			continue
		}

		// Try to acquire lock
		lockKey := fmt.Sprintf("job_lock:%s", job.ID.String())
		locked, err := p.redis.SetNX(ctx, lockKey, "1", 10*time.Minute).Result()
		if err != nil || !locked {
			continue // Another worker has this job
		}

		log.Printf("Worker %d: processing job %s (type: %s)", id, job.ID, job.Type)

		p.jobRepo.UpdateStatus(ctx, job.ID, "processing")

		var processErr error
		var resultID uuid.UUID
		switch job.Type {
		case "dna-extraction":
			resultID, processErr = p.processExtraction(ctx, &job)
		default:
			processErr = fmt.Errorf("unknown job type: %s", job.Type)
		}

		if processErr != nil {
			p.handleFailure(ctx, &job, processErr)
		} else {
			p.handleSuccess(ctx, &job, resultID)
		}

		p.redis.Del(ctx, lockKey)
	}
}

// processExtraction runs the full extraction pipeline for one job:
// resolve the caller's key and base profile, extract, save the profile
// to the user's library and into the originating project.
func (p *Pool) processExtraction(ctx context.Context, job *models.Job) (uuid.UUID, error) {
	var config models.ExtractionJobConfig
	if err := json.Unmarshal(job.ConfigJSON, &config); err != nil {
		return uuid.Nil, fmt.Errorf("failed to parse job config: %w", err)
	}

	user, err := p.userRepo.GetByID(ctx, job.UserID)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to load user: %w", err)
	}

	apiKey := ""
	if user.OpenRouterAPIKey != nil {
		apiKey = *user.OpenRouterAPIKey
	}

	base := config.BaseDNA
	if base == nil && config.BaseDNAID != nil {
		baseID, parseErr := uuid.Parse(*config.BaseDNAID)
		if parseErr != nil {
			return uuid.Nil, fmt.Errorf("invalid base profile id %q: %w", *config.BaseDNAID, parseErr)
		}
		saved, getErr := p.dnaRepo.GetByID(ctx, baseID)
		if getErr != nil {
			return uuid.Nil, fmt.Errorf("failed to load base profile: %w", getErr)
		}
		base = &saved.DNA
	}

	dna, err := p.dna.Extract(ctx, services.ExtractOptions{
		Virals:       config.Virals,
		Flops:        config.Flops,
		UserNotes:    config.UserNotes,
		BaseDNA:      base,
		Platform:     config.Platform,
		TargetLength: config.TargetLength,
		Name:         config.Name,
		Model:        config.Model,
		APIKey:       apiKey,
		OnProgress: func(current, total int) {
			p.feed.PublishEvent(ctx, job.UserID, "progress", models.ProgressUpdate{
				JobID:   job.ID,
				Current: current,
				Total:   total,
				Stage:   fmt.Sprintf("Analyzing batch %d of %d", current, total),
			})
		},
	})
	if err != nil {
		return uuid.Nil, err
	}

	rowID, err := p.dnaRepo.Create(ctx, job.UserID, dna)
	if err != nil {
		return uuid.Nil, fmt.Errorf("failed to save extracted profile: %w", err)
	}
	p.feed.Publish(ctx, job.UserID, "dnas", "insert", rowID)

	// Fold the result into the originating project so the next page
	// load already has it selected.
	project, err := p.projectRepo.GetByID(ctx, config.ProjectID)
	if err != nil {
		log.Printf("Worker: extracted profile %s saved but project %s not found: %v", rowID, config.ProjectID, err)
		return rowID, nil
	}

	project.Data.AvailableDNAs = append(project.Data.AvailableDNAs, *dna)
	project.Data.SelectedDNA = dna
	if project.Data.Step == models.StepInput {
		project.Data.Step = models.StepDNASelection
	}
	project.UpdatedAt = time.Now()

	if err := p.projectRepo.Update(ctx, project); err != nil {
		log.Printf("Worker: failed to store extracted profile on project %s: %v", project.ID, err)
		return rowID, nil
	}
	p.feed.Publish(ctx, job.UserID, "projects", "update", project.ID)

	return rowID, nil
}

func (p *Pool) handleSuccess(ctx context.Context, job *models.Job, resultID uuid.UUID) {
	p.jobRepo.UpdateStatus(ctx, job.ID, "completed")

	p.feed.PublishEvent(ctx, job.UserID, "completed", models.CompletedEvent{
		JobID:      job.ID,
		ResultID:   resultID,
		ResultType: "dna",
	})

	log.Printf("Job %s completed successfully", job.ID)
}

func (p *Pool) handleFailure(ctx context.Context, job *models.Job, err error) {
	job.RetryCount++
	errMsg := err.Error()

	if retryable(err) && job.RetryCount < 3 {
		log.Printf("Job %s failed (attempt %d): %s, retrying", job.ID, job.RetryCount, errMsg)
		p.jobRepo.UpdateStatus(ctx, job.ID, "pending")
		p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

		// Re-queue after backoff
		jobBytes, _ := json.Marshal(job)
		backoff := time.Duration(1<<uint(job.RetryCount)) * time.Second
		time.AfterFunc(backoff, func() {
			p.redis.LPush(context.Background(), extractionQueue, string(jobBytes))
		})
		return
	}

	log.Printf("Job %s failed permanently: %s", job.ID, errMsg)
	p.jobRepo.UpdateStatus(ctx, job.ID, "failed")
	p.jobRepo.UpdateError(ctx, job.ID, errMsg, job.RetryCount)

	p.feed.PublishEvent(ctx, job.UserID, "error", models.ErrorEvent{
		JobID:        job.ID,
		ErrorCode:    errorCode(err),
		ErrorMessage: errMsg,
	})
}

// retryable reports whether re-running the job could plausibly help.
// A missing or rejected key fails the same way every time. Extraction
// wraps its errors with batch context, so match through the chain.
func retryable(err error) bool {
	var authErr *services.AuthError
	var valErr *services.ValidationError
	return !errors.As(err, &authErr) && !errors.As(err, &valErr)
}

func errorCode(err error) string {
	var (
		authErr      *services.AuthError
		transportErr *services.TransportError
		malformedErr *services.MalformedResponseError
		emptyErr     *services.EmptyResponseError
	)
	switch {
	case errors.As(err, &authErr):
		return "UPSTREAM_AUTH"
	case errors.As(err, &transportErr):
		return "UPSTREAM_UNAVAILABLE"
	case errors.As(err, &malformedErr):
		return "MALFORMED_RESPONSE"
	case errors.As(err, &emptyErr):
		return "EMPTY_RESPONSE"
	default:
		return "JOB_FAILED"
	}
}
