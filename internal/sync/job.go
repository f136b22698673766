package sync

import (
	"time"
)

type Stage string

const (
	StageFetchingCategories Stage = "fetching_categories"
	StageFetchingBrands     Stage = "fetching_brands"
	StageFetchingProducts   Stage = "fetching_products"
	StageSyncingVariants    Stage = "syncing_variants"
	StageCompleted          Stage = "completed"
)

type Status string

const (
	StatusQueued    Status = "queued"
	StatusRunning   Status = "running"
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Progress is one entry in a job's progress log, appended after each
// page or item batch.
type Progress struct {
	Stage   Stage     `json:"stage"`
	Current int       `json:"current"`
	Total   int       `json:"total"`
	Message string    `json:"message"`
	At      time.Time `json:"at"`
}

// ProgressFunc receives progress updates during a reconciliation run.
// The reconciler guards every invocation; a panicking callback cannot
// abort a sync.
type ProgressFunc func(Progress)

// Summary holds the per-entity counts of a completed run.
type Summary struct {
	CategoriesCreated int `json:"categories_created"`
	CategoriesUpdated int `json:"categories_updated"`
	BrandsCreated     int `json:"brands_created"`
	BrandsUpdated     int `json:"brands_updated"`
	ProductsCreated   int `json:"products_created"`
	ProductsUpdated   int `json:"products_updated"`
	VariantsCreated   int `json:"variants_created"`
	VariantsUpdated   int `json:"variants_updated"`
}

// Job is an in-memory sync task record. Jobs are not persisted; a
// process restart forgets them.
type Job struct {
	ID         string     `json:"id"`
	ShopID     string     `json:"shop_id"`
	Status     Status     `json:"status"`
	EnqueuedAt time.Time  `json:"enqueued_at"`
	StartedAt  *time.Time `json:"started_at,omitempty"`
	FinishedAt *time.Time `json:"finished_at,omitempty"`
	Progress   []Progress `json:"progress"`
	Summary    *Summary   `json:"summary,omitempty"`
	Message    string     `json:"message,omitempty"`
	Error      string     `json:"error,omitempty"`
}

func (j *Job) clone() *Job {
	copied := *j
	copied.Progress = append([]Progress(nil), j.Progress...)
	if j.Summary != nil {
		s := *j.Summary
		copied.Summary = &s
	}
	return &copied
}
