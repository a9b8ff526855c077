package merge

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/inkwell-hq/formfill/internal/config"
	"github.com/inkwell-hq/formfill/internal/model"
	"github.com/inkwell-hq/formfill/internal/resilience"
	"github.com/inkwell-hq/formfill/internal/store"
	"github.com/inkwell-hq/formfill/pkg/reasoning"
)

// PageImage is one rendered page handed to the merge pass.
type PageImage struct {
	PageNumber int
	Image      reasoning.Image
}

// Engine runs the second-pass reconciliation: detect fields per page, plan
// decisions against the stored set, and apply each page as one transaction.
type Engine struct {
	store    store.Store
	detector reasoning.Detector
	breaker  *resilience.Breaker
	cfg      config.MergeConfig
}

// New creates a merge Engine. The circuit breaker stops a run from burning a
// detector timeout per page once the service is clearly down.
func New(st store.Store, detector reasoning.Detector, cfg config.MergeConfig) *Engine {
	if cfg.OverlapThreshold <= 0 {
		cfg.OverlapThreshold = 0.5
	}
	if cfg.CoordTolerance <= 0 {
		cfg.CoordTolerance = 3.0
	}
	if cfg.PageConcurrency <= 0 {
		cfg.PageConcurrency = 4
	}
	return &Engine{
		store:    st,
		detector: detector,
		breaker:  resilience.NewBreaker(3, 30*time.Second),
		cfg:      cfg,
	}
}

type pagePlan struct {
	page      int
	decisions []model.MergeDecision
}

// errDetection marks a page whose detection call failed. Only these failures
// skip the page; store errors abort the whole run.
var errDetection = eris.New("field detection failed")

// Run merges the given pages. Detection failures skip the page and are
// reported in the result; only store failures abort the run. Drops are scoped
// to the examined pages: fields on pages not in the input are never touched.
func (e *Engine) Run(ctx context.Context, documentID string, pages []PageImage) (model.MergeReport, error) {
	var report model.MergeReport
	if documentID == "" {
		return report, model.Validationf("merge: document_id is required")
	}
	if len(pages) == 0 {
		return report, nil
	}

	log := zap.L().With(zap.String("document_id", documentID))

	var mu sync.Mutex
	var plans []pagePlan

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(e.cfg.PageConcurrency)
	for _, page := range pages {
		g.Go(func() error {
			decisions, err := e.planPage(gctx, documentID, page)
			mu.Lock()
			defer mu.Unlock()
			if err != nil {
				if !eris.Is(err, errDetection) && !eris.Is(err, resilience.ErrCircuitOpen) {
					return err
				}
				log.Warn("merge: page skipped",
					zap.Int("page", page.PageNumber),
					zap.Error(err))
				report.PagesSkipped = append(report.PagesSkipped, page.PageNumber)
				return nil
			}
			plans = append(plans, pagePlan{page: page.PageNumber, decisions: decisions})
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return report, eris.Wrap(err, "merge: plan pages")
	}

	// Apply sequentially in page order so the report and any failure point
	// are deterministic.
	sort.Slice(plans, func(i, j int) bool { return plans[i].page < plans[j].page })
	sort.Ints(report.PagesSkipped)

	for _, p := range plans {
		pageReport, err := e.store.ApplyMergeBatch(ctx, documentID, p.page, p.decisions)
		if err != nil {
			return report, eris.Wrapf(err, "merge: apply page %d", p.page)
		}
		report.Merge(pageReport)
		log.Info("merge: page applied",
			zap.Int("page", p.page),
			zap.Int("adjusted", pageReport.FieldsAdjusted),
			zap.Int("added", pageReport.FieldsAdded),
			zap.Int("removed", pageReport.FieldsRemoved))
	}

	return report, nil
}

func (e *Engine) planPage(ctx context.Context, documentID string, page PageImage) ([]model.MergeDecision, error) {
	if !e.breaker.Allow() {
		return nil, resilience.ErrCircuitOpen
	}

	existing, err := e.store.ListFields(ctx, documentID, page.PageNumber)
	if err != nil {
		return nil, eris.Wrapf(err, "merge: list fields page %d", page.PageNumber)
	}

	candidates, err := e.detector.DetectFields(ctx, reasoning.DetectRequest{
		PageNumber: page.PageNumber,
		Image:      page.Image,
		Existing:   existing,
	})
	e.breaker.Record(err)
	if err != nil {
		return nil, eris.Wrapf(errDetection, "page %d: %v", page.PageNumber, err)
	}

	return Plan(existing, candidates, e.cfg), nil
}
