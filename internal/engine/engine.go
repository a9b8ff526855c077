// Package engine is the caller-facing surface: it ties the stores, the
// answer distribution policy, the merge pass and the reconciliation worker
// together behind three operations.
package engine

import (
	"context"

	"go.uber.org/zap"

	"github.com/inkwell-hq/formfill/internal/answer"
	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/merge"
	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/qc"
	"github.com/inkwell-hq/formfill/internal/reconcile"
	"github.com/inkwell-hq/formfill/internal/store"
)

// JobQueue accepts fire-and-forget reconciliation jobs.
type JobQueue interface {
	Enqueue(job reconcile.Job) bool
}

// Engine orchestrates the three public operations. The reconciliation queue
// is optional: without one, full answers simply skip the background pass.
type Engine struct {
	store   store.Store
	answers *answer.Engine
	merger  *merge.Engine
	queue   JobQueue
	qcCfg   config.QCConfig
}

// New creates the orchestrator.
func New(st store.Store, answers *answer.Engine, merger *merge.Engine, queue JobQueue, qcCfg config.QCConfig) *Engine {
	return &Engine{
		store:   st,
		answers: answers,
		merger:  merger,
		queue:   queue,
		qcCfg:   qcCfg,
	}
}

// AnswerQuestion applies one answer to a question scoped to a document. A
// fully answered question additionally fires a reconciliation job for the
// document's remaining open questions.
func (e *Engine) AnswerQuestion(ctx context.Context, documentID, questionID string, req answer.Request) (*answer.Outcome, error) {
	question, err := e.store.GetQuestion(ctx, questionID)
	if err != nil {
		return nil, err
	}
	if question.DocumentID != documentID {
		return nil, store.ErrNotFound
	}

	outcome, err := e.answers.Distribute(ctx, questionID, req)
	if err != nil {
		return nil, err
	}

	if outcome.Answered && e.queue != nil {
		sourceAnswer := req.Answer
		if req.MemoryChoice != nil {
			sourceAnswer = req.MemoryChoice.Label
		}
		e.queue.Enqueue(reconcile.Job{
			DocumentID:     documentID,
			SourceQuestion: *outcome.Question,
			SourceAnswer:   sourceAnswer,
		})
	}
	return outcome, nil
}

// RunMerge reconciles a second detection pass over the given pages.
func (e *Engine) RunMerge(ctx context.Context, documentID string, pages []merge.PageImage) (model.MergeReport, error) {
	return e.merger.Run(ctx, documentID, pages)
}

// DecideQC evaluates the merge trigger policy over a document's live fields.
func (e *Engine) DecideQC(ctx context.Context, documentID string) (qc.Decision, error) {
	if documentID == "" {
		return qc.Decision{}, model.Validationf("qc: document_id is required")
	}
	fields, err := e.store.ListFields(ctx, documentID)
	if err != nil {
		return qc.Decision{}, err
	}
	decision := qc.Decide(fields, e.qcCfg)
	zap.L().Info("qc decision",
		zap.String("document_id", documentID),
		zap.Bool("should_run", decision.ShouldRun),
		zap.String("reason", decision.Reason))
	return decision, nil
}
