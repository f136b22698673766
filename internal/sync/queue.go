package sync

import (
	"context"
	"errors"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"

	"wpm/internal/logger"
	"wpm/internal/models"
)

// ErrShopNotFound marks a job whose target shop disappeared before the
// worker picked it up.
var ErrShopNotFound = errors.New("sync: shop not found")

// Runner is the reconciliation entry point the queue drives.
type Runner interface {
	Run(ctx context.Context, shop *models.Shop, report ProgressFunc) (*Summary, error)
}

// Queue is a single-worker FIFO of sync jobs. Enqueue never blocks; at
// most one job runs at a time, so one shop's sync finishes before the
// next begins. Jobs live in memory for the process lifetime.
type Queue struct {
	mu       sync.Mutex
	jobs     map[string]*Job
	order    []string
	pending  []string
	draining bool
	stopped  bool
	idle     sync.WaitGroup

	db     *gorm.DB
	runner Runner
	logger *logger.Logger
}

func NewQueue(db *gorm.DB, runner Runner, log *logger.Logger) *Queue {
	return &Queue{
		jobs:   make(map[string]*Job),
		db:     db,
		runner: runner,
		logger: log,
	}
}

// Enqueue appends a queued job and kicks the drain loop if idle.
func (q *Queue) Enqueue(shopID string) *Job {
	job := &Job{
		ID:         uuid.New().String(),
		ShopID:     shopID,
		Status:     StatusQueued,
		EnqueuedAt: time.Now(),
	}

	q.mu.Lock()
	q.jobs[job.ID] = job
	q.order = append(q.order, job.ID)
	q.pending = append(q.pending, job.ID)
	start := !q.draining && !q.stopped
	if start {
		q.draining = true
		q.idle.Add(1)
	}
	snapshot := job.clone()
	q.mu.Unlock()

	if start {
		go q.drain()
	}
	return snapshot
}

func (q *Queue) Get(id string) (*Job, bool) {
	q.mu.Lock()
	defer q.mu.Unlock()
	job, ok := q.jobs[id]
	if !ok {
		return nil, false
	}
	return job.clone(), true
}

// List returns all jobs ordered by enqueue time.
func (q *Queue) List() []*Job {
	q.mu.Lock()
	defer q.mu.Unlock()
	jobs := make([]*Job, 0, len(q.order))
	for _, id := range q.order {
		jobs = append(jobs, q.jobs[id].clone())
	}
	sort.SliceStable(jobs, func(i, j int) bool {
		return jobs[i].EnqueuedAt.Before(jobs[j].EnqueuedAt)
	})
	return jobs
}

// Stop prevents new drains and waits for the in-flight job to finish.
// Queued jobs that never ran stay queued; they are lost with the process.
func (q *Queue) Stop() {
	q.mu.Lock()
	q.stopped = true
	q.mu.Unlock()
	q.idle.Wait()
}

func (q *Queue) drain() {
	defer q.idle.Done()
	for {
		q.mu.Lock()
		if q.stopped || len(q.pending) == 0 {
			q.draining = false
			q.mu.Unlock()
			return
		}
		jobID := q.pending[0]
		q.pending = q.pending[1:]
		q.mu.Unlock()

		q.process(jobID)
	}
}

func (q *Queue) process(jobID string) {
	now := time.Now()
	q.update(jobID, func(job *Job) {
		job.Status = StatusRunning
		job.StartedAt = &now
	})

	var shop models.Shop
	err := q.db.First(&shop, "id = ?", q.shopID(jobID)).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		q.fail(jobID, ErrShopNotFound.Error())
		return
	}
	if err != nil {
		q.fail(jobID, "failed to load shop: "+err.Error())
		return
	}

	report := func(progress Progress) {
		q.update(jobID, func(job *Job) {
			job.Progress = append(job.Progress, progress)
		})
	}

	summary, err := q.runner.Run(context.Background(), &shop, report)
	if err != nil {
		q.logger.Error("Sync job %s failed: %v", jobID, err)
		q.fail(jobID, err.Error())
		return
	}

	finished := time.Now()
	q.update(jobID, func(job *Job) {
		job.Status = StatusCompleted
		job.FinishedAt = &finished
		job.Summary = summary
		job.Message = summaryMessage(summary)
	})
	q.logger.Info("Sync job %s completed: %s", jobID, summaryMessage(summary))
}

func (q *Queue) fail(jobID, message string) {
	finished := time.Now()
	q.update(jobID, func(job *Job) {
		job.Status = StatusFailed
		job.FinishedAt = &finished
		job.Error = message
	})
}

func (q *Queue) update(jobID string, mutate func(*Job)) {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[jobID]; ok {
		mutate(job)
	}
}

func (q *Queue) shopID(jobID string) string {
	q.mu.Lock()
	defer q.mu.Unlock()
	if job, ok := q.jobs[jobID]; ok {
		return job.ShopID
	}
	return ""
}
