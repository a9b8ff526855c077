// Package reconcile runs the cross-question pass: after one question is
// fully answered, other open questions the same answer covers are resolved
// in the background.
package reconcile

import (
	"context"
	"sync"
	"time"

	"go.uber.org/zap"

	"github.com/inkwell-hq/formfill/internal/answer"
	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/resilience"
	"github.com/inkwell-hq/formfill/internal/store"
	"github.com/inkwell-hq/formfill/pkg/reasoning"
)

// Job is one fire-and-forget reconciliation request. The question and answer
// are snapshots taken at enqueue time: later edits to the source question do
// not affect a queued job.
type Job struct {
	DocumentID     string
	SourceQuestion model.Question
	SourceAnswer   string
}

// Worker drains a buffered job queue with a fixed goroutine pool. Per-item
// failures go to the dead letter queue and never abort the batch.
type Worker struct {
	store    store.Store
	reasoner reasoning.Reasoner
	answers  *answer.Engine
	cfg      config.ReconcileConfig

	jobs chan Job
	wg   sync.WaitGroup
	stop sync.Once
}

// NewWorker creates a reconciliation worker. Call Start before enqueueing.
func NewWorker(st store.Store, reasoner reasoning.Reasoner, answers *answer.Engine, cfg config.ReconcileConfig) *Worker {
	if cfg.Workers <= 0 {
		cfg.Workers = 2
	}
	if cfg.QueueSize <= 0 {
		cfg.QueueSize = 64
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	return &Worker{
		store:    st,
		reasoner: reasoner,
		answers:  answers,
		cfg:      cfg,
		jobs:     make(chan Job, cfg.QueueSize),
	}
}

// Start launches the worker pool.
func (w *Worker) Start() {
	for i := 0; i < w.cfg.Workers; i++ {
		w.wg.Add(1)
		go func() {
			defer w.wg.Done()
			for job := range w.jobs {
				w.process(job)
			}
		}()
	}
}

// Enqueue submits a job without blocking. A full queue drops the job: the
// pass is opportunistic, so a drop costs nothing but a missed auto-answer.
func (w *Worker) Enqueue(job Job) bool {
	select {
	case w.jobs <- job:
		return true
	default:
		zap.L().Warn("reconcile: queue full, job dropped",
			zap.String("document_id", job.DocumentID),
			zap.String("question_id", job.SourceQuestion.ID))
		return false
	}
}

// Stop closes the queue and waits for in-flight jobs to drain.
func (w *Worker) Stop() {
	w.stop.Do(func() {
		close(w.jobs)
	})
	w.wg.Wait()
}

func (w *Worker) process(job Job) {
	ctx, cancel := context.WithTimeout(context.Background(), w.cfg.Timeout)
	defer cancel()

	log := zap.L().With(
		zap.String("document_id", job.DocumentID),
		zap.String("source_question_id", job.SourceQuestion.ID))

	candidates, err := w.loadCandidates(ctx, job)
	if err != nil {
		log.Warn("reconcile: load candidates failed", zap.Error(err))
		w.deadLetter(ctx, job, job.SourceQuestion.ID, err)
		return
	}
	if len(candidates) == 0 {
		return
	}

	answers, err := w.reasoner.ReconcileQuestions(ctx, reasoning.ReconcileRequest{
		SourceQuestion: job.SourceQuestion,
		SourceAnswer:   job.SourceAnswer,
		Candidates:     candidates,
	})
	if err != nil {
		log.Warn("reconcile: batch call failed", zap.Error(err))
		w.deadLetter(ctx, job, job.SourceQuestion.ID, err)
		return
	}

	for _, a := range answers {
		// Each auto-answer runs through the full distribution policy, so
		// partial and low-confidence outcomes behave exactly as they would
		// for a manual answer. Last write wins against concurrent edits.
		outcome, err := w.answers.Distribute(ctx, a.QuestionID, answer.Request{Answer: a.Answer})
		if err != nil {
			log.Warn("reconcile: item failed",
				zap.String("question_id", a.QuestionID),
				zap.Error(err))
			w.deadLetter(ctx, job, a.QuestionID, err)
			continue
		}
		log.Info("reconcile: question auto-answered",
			zap.String("question_id", a.QuestionID),
			zap.Bool("answered", outcome.Answered),
			zap.Bool("partial", outcome.Partial),
			zap.String("reasoning", a.Reasoning))
	}
}

// loadCandidates returns every visible question except the source, paired
// with its live fields.
func (w *Worker) loadCandidates(ctx context.Context, job Job) ([]reasoning.CandidateQuestion, error) {
	questions, err := w.store.ListQuestions(ctx, job.DocumentID, model.QuestionVisible)
	if err != nil {
		return nil, err
	}
	fields, err := w.store.ListFields(ctx, job.DocumentID)
	if err != nil {
		return nil, err
	}
	byID := make(map[string]model.Field, len(fields))
	for _, f := range fields {
		byID[f.ID] = f
	}

	var candidates []reasoning.CandidateQuestion
	for _, q := range questions {
		if q.ID == job.SourceQuestion.ID {
			continue
		}
		c := reasoning.CandidateQuestion{Question: q}
		for _, id := range q.FieldIDs {
			if f, ok := byID[id]; ok {
				c.Fields = append(c.Fields, f)
			}
		}
		if len(c.Fields) > 0 {
			candidates = append(candidates, c)
		}
	}
	return candidates, nil
}

func (w *Worker) deadLetter(ctx context.Context, job Job, questionID string, cause error) {
	entry := resilience.DeadLetter{
		DocumentID: job.DocumentID,
		QuestionID: questionID,
		Answer:     job.SourceAnswer,
		Error:      cause.Error(),
		ErrorType:  resilience.ClassifyError(cause),
	}
	if err := w.store.AddDeadLetter(ctx, entry); err != nil {
		zap.L().Error("reconcile: dead letter write failed",
			zap.String("question_id", questionID),
			zap.Error(err))
	}
}
