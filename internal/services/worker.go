package services

import (
	"context"
	"errors"
	"sync"

	"go.uber.org/zap"

	"alfredoptarigan/smart-ats/internal/logger"
)

var (
	ErrQueueFull     = errors.New("screening queue is full")
	ErrWorkerStopped = errors.New("screening worker stopped")
)

// BatchProcessor runs queued batches. Abandon is called for a job the worker
// accepted but will never run.
type BatchProcessor interface {
	Process(ctx context.Context, job *BatchJob) (*BatchOutcome, error)
	Abandon(job *BatchJob, cause error)
}

type Worker interface {
	Start(ctx context.Context)
	Stop()
	EnqueueJob(job *BatchJob) error
}

type worker struct {
	processor   BatchProcessor
	jobQueue    chan *BatchJob
	concurrency int
	logger      *zap.Logger

	mu       sync.RWMutex
	stopped  bool
	wg       sync.WaitGroup
	stopChan chan struct{}
}

// NewWorker runs up to concurrency batches at once. Each batch is handled by
// one goroutine from start to finish, so its resumes stay in upload order.
func NewWorker(processor BatchProcessor, concurrency, queueSize int, log *zap.Logger) Worker {
	if concurrency < 1 {
		concurrency = 1
	}
	if queueSize < 1 {
		queueSize = 1
	}
	return &worker{
		processor:   processor,
		jobQueue:    make(chan *BatchJob, queueSize),
		concurrency: concurrency,
		logger:      logger.OrNop(log),
		stopChan:    make(chan struct{}),
	}
}

// Start implements Worker.
func (w *worker) Start(ctx context.Context) {
	for i := 0; i < w.concurrency; i++ {
		w.wg.Add(1)
		go w.processJobs(ctx, i+1)
	}

	w.logger.Info("screening worker started", zap.Int("concurrency", w.concurrency), zap.Int("queue_size", cap(w.jobQueue)))
}

// Stop waits for running batches to finish. Jobs still queued are abandoned.
func (w *worker) Stop() {
	w.mu.Lock()
	if w.stopped {
		w.mu.Unlock()
		return
	}
	w.stopped = true
	close(w.stopChan)
	w.mu.Unlock()

	w.wg.Wait()

	for {
		select {
		case job := <-w.jobQueue:
			w.logger.Warn("abandoning queued batch", zap.String(logger.FieldBatchID, job.BatchID.String()))
			w.processor.Abandon(job, ErrWorkerStopped)
		default:
			w.logger.Info("screening worker stopped")
			return
		}
	}
}

// EnqueueJob never blocks. It returns ErrQueueFull when every slot is taken
// and ErrWorkerStopped after Stop.
func (w *worker) EnqueueJob(job *BatchJob) error {
	w.mu.RLock()
	defer w.mu.RUnlock()

	if w.stopped {
		return ErrWorkerStopped
	}

	select {
	case w.jobQueue <- job:
		w.logger.Debug("batch enqueued", zap.String(logger.FieldBatchID, job.BatchID.String()))
		return nil
	default:
		return ErrQueueFull
	}
}

func (w *worker) processJobs(ctx context.Context, workerID int) {
	defer w.wg.Done()

	for {
		select {
		case <-w.stopChan:
			return
		case job := <-w.jobQueue:
			log := w.logger.With(zap.Int("worker", workerID), zap.String(logger.FieldBatchID, job.BatchID.String()))
			if _, err := w.processor.Process(ctx, job); err != nil {
				log.Warn("batch finished with error", zap.Error(err))
				continue
			}
			log.Info("batch finished")
		}
	}
}
