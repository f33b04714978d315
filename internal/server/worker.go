package server

import (
	"context"
	"fmt"
	"log"
	"sync"
	"time"

	"github.com/user/ppkconvert/internal/storage"
)

type WorkerPool struct {
	workers    int
	jobQueue   chan *ConversionJob
	wg         sync.WaitGroup
	ctx        context.Context
	cancel     context.CancelFunc
	jobStore   *JobStore
	store      *storage.ConversionStore
	activeJobs map[string]context.CancelFunc
	mu         sync.Mutex
}

func NewWorkerPool(numWorkers int, jobStore *JobStore, store *storage.ConversionStore) *WorkerPool {
	if numWorkers < 1 {
		numWorkers = 1
	}

	ctx, cancel := context.WithCancel(context.Background())

	return &WorkerPool{
		workers:    numWorkers,
		jobQueue:   make(chan *ConversionJob, numWorkers*2),
		ctx:        ctx,
		cancel:     cancel,
		jobStore:   jobStore,
		store:      store,
		activeJobs: make(map[string]context.CancelFunc),
	}
}

func (wp *WorkerPool) Start() {
	log.Printf("starting worker pool with %d workers", wp.workers)

	for i := 0; i < wp.workers; i++ {
		wp.wg.Add(1)
		go wp.worker(i)
	}
}

func (wp *WorkerPool) Stop() {
	wp.cancel()
	close(wp.jobQueue)
	wp.wg.Wait()
}

func (wp *WorkerPool) Submit(job *ConversionJob) error {
	select {
	case wp.jobQueue <- job:
		return nil
	case <-wp.ctx.Done():
		return fmt.Errorf("worker pool is shutting down")
	default:
		return fmt.Errorf("job queue is full")
	}
}

// TerminateJob cancels the job's context if it is currently being processed.
// Queued jobs are caught by the status check when a worker picks them up.
func (wp *WorkerPool) TerminateJob(jobID string) {
	wp.mu.Lock()
	if cancel, exists := wp.activeJobs[jobID]; exists {
		cancel()
		delete(wp.activeJobs, jobID)
	}
	wp.mu.Unlock()
}

func (wp *WorkerPool) worker(id int) {
	defer wp.wg.Done()

	for {
		select {
		case job, ok := <-wp.jobQueue:
			if !ok {
				return
			}
			log.Printf("worker %d processing job %s (%d keys)", id, job.ID, job.Total)
			wp.processJob(job)

		case <-wp.ctx.Done():
			return
		}
	}
}

func (wp *WorkerPool) processJob(job *ConversionJob) {
	// The job was terminated while still queued.
	if wp.jobStore.Status(job.ID) == "terminated" {
		close(job.Progress)
		log.Printf("job %s terminated before it started", job.ID)
		return
	}

	jobCtx, jobCancel := context.WithCancel(wp.ctx)

	wp.mu.Lock()
	wp.activeJobs[job.ID] = jobCancel
	wp.mu.Unlock()

	defer func() {
		wp.mu.Lock()
		delete(wp.activeJobs, job.ID)
		wp.mu.Unlock()
		jobCancel()
	}()

	wp.jobStore.UpdateStatus(job.ID, "running")

	results := make([]KeyResult, 0, len(job.request.Keys))
	for i, input := range job.request.Keys {
		select {
		case <-jobCtx.Done():
			wp.jobStore.TerminateJob(job.ID, results)
			close(job.Progress)
			log.Printf("job %s terminated after %d of %d keys", job.ID, len(results), job.Total)
			return
		default:
		}

		result := KeyResult{Name: input.Name}

		stored, err := convertInput(wp.store, input, job.ID)
		if err != nil {
			result.Error = err.Error()
		} else {
			result.KeyID = stored.ID
			result.Algorithm = stored.Algorithm
			result.Fingerprint = stored.Fingerprint
		}
		results = append(results, result)

		select {
		case job.Progress <- ProgressUpdate{
			Current:    i + 1,
			Total:      job.Total,
			Percentage: float64(i+1) / float64(job.Total) * 100,
			Name:       input.Name,
		}:
		default:
		}
	}

	wp.jobStore.CompleteJob(job.ID, results)
	close(job.Progress)
	log.Printf("job %s completed with %d results", job.ID, len(results))
}

func (js *JobStore) Status(jobID string) string {
	js.mu.RLock()
	defer js.mu.RUnlock()

	if job, exists := js.jobs[jobID]; exists {
		return job.Status
	}
	return ""
}

func (js *JobStore) UpdateStatus(jobID, status string) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[jobID]; exists {
		job.Status = status
		job.UpdatedAt = time.Now()
	}
}

func (js *JobStore) CompleteJob(jobID string, results []KeyResult) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[jobID]; exists {
		completedAt := time.Now()
		job.CompletedAt = &completedAt
		job.UpdatedAt = completedAt
		job.Status = "completed"
		job.Results = results
	}
}

// TerminateJob records the partial results of a cancelled job. The status was
// already set to "terminated" by the handler that requested it.
func (js *JobStore) TerminateJob(jobID string, results []KeyResult) {
	js.mu.Lock()
	defer js.mu.Unlock()

	if job, exists := js.jobs[jobID]; exists {
		completedAt := time.Now()
		job.CompletedAt = &completedAt
		job.UpdatedAt = completedAt
		job.Status = "terminated"
		job.Results = results
	}
}
