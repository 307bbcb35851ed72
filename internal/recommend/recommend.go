// Package recommend orchestrates one recommendation request: normalize the
// reference data, classify the product, score every supplier through a
// bounded worker pool, rank, and explain.
package recommend

import (
	"context"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rotisserie/eris"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/sells-group/supplier-cli/internal/classify"
	"github.com/sells-group/supplier-cli/internal/complaint"
	"github.com/sells-group/supplier-cli/internal/config"
	"github.com/sells-group/supplier-cli/internal/dataset"
	"github.com/sells-group/supplier-cli/internal/explain"
	"github.com/sells-group/supplier-cli/internal/factor"
	"github.com/sells-group/supplier-cli/internal/metrics"
	"github.com/sells-group/supplier-cli/internal/model"
	"github.com/sells-group/supplier-cli/internal/normalize"
	"github.com/sells-group/supplier-cli/internal/scorer"
	"github.com/sells-group/supplier-cli/pkg/geocode"
)

var (
	// ErrInvalidRequest marks requests rejected before any computation.
	ErrInvalidRequest = eris.New("recommend: invalid request")
	// ErrEmptyDataset means no supplier could be normalized from the dataset.
	ErrEmptyDataset = eris.New("recommend: reference dataset has no suppliers")
)

// Request is one recommendation request.
type Request struct {
	Category       string `json:"category"`
	ProductName    string `json:"product_name"`
	SourceLocation string `json:"source_location,omitempty"`
}

// Validate rejects requests missing required fields.
func (r Request) Validate() error {
	var missing []string
	if strings.TrimSpace(r.ProductName) == "" {
		missing = append(missing, "product name")
	}
	if strings.TrimSpace(r.Category) == "" {
		missing = append(missing, "category")
	}
	if len(missing) > 0 {
		return eris.Wrapf(ErrInvalidRequest, "missing %s", strings.Join(missing, " and "))
	}
	return nil
}

// Defaults for Engine options.
const (
	DefaultWorkers        = 8
	DefaultRequestTimeout = 120 * time.Second
	DefaultExplainTimeout = 60 * time.Second
	DefaultLocateTimeout  = 5 * time.Second
)

// Engine runs recommendation requests. It is safe for concurrent use; the
// dataset passed to Recommend is only read.
type Engine struct {
	calc       *factor.Calculator
	classifier *classify.Classifier
	scoring    config.ScoringConfig
	explainer  explain.Explainer
	locator    geocode.Locator
	metrics    *metrics.Metrics

	workers        int
	topK           int
	seed           int64
	requestTimeout time.Duration
	explainTimeout time.Duration
}

// Option configures an Engine.
type Option func(*Engine)

// WithExplainer sets the explanation collaborator. Default: explain.SummaryExplainer.
func WithExplainer(x explain.Explainer) Option { return func(e *Engine) { e.explainer = x } }

// WithLocator enables source location detection for requests without one.
func WithLocator(l geocode.Locator) Option { return func(e *Engine) { e.locator = l } }

// WithMetrics records engine metrics.
func WithMetrics(m *metrics.Metrics) Option { return func(e *Engine) { e.metrics = m } }

// WithWorkers bounds concurrent per-supplier pipelines.
func WithWorkers(n int) Option { return func(e *Engine) { e.workers = n } }

// WithTopK sets how many suppliers are returned.
func WithTopK(k int) Option { return func(e *Engine) { e.topK = k } }

// WithTiebreakSeed makes tiebreaks reproducible. 0 seeds randomly per request.
func WithTiebreakSeed(seed int64) Option { return func(e *Engine) { e.seed = seed } }

// WithRequestTimeout bounds scoring. Adapters still outstanding at the
// deadline resolve as Unavailable.
func WithRequestTimeout(d time.Duration) Option { return func(e *Engine) { e.requestTimeout = d } }

// WithExplainTimeout bounds the explanation call.
func WithExplainTimeout(d time.Duration) Option { return func(e *Engine) { e.explainTimeout = d } }

// NewEngine creates an Engine.
func NewEngine(calc *factor.Calculator, classifier *classify.Classifier, scoring config.ScoringConfig, opts ...Option) *Engine {
	e := &Engine{
		calc:           calc,
		classifier:     classifier,
		scoring:        scoring,
		explainer:      explain.SummaryExplainer{},
		workers:        DefaultWorkers,
		topK:           scorer.DefaultTopK,
		requestTimeout: DefaultRequestTimeout,
		explainTimeout: DefaultExplainTimeout,
	}
	for _, o := range opts {
		o(e)
	}
	if e.workers < 1 {
		e.workers = 1
	}
	if e.classifier == nil {
		e.classifier = classify.NewClassifier(nil, nil, 0, e.metrics)
	}
	return e
}

// Recommend ranks the suppliers in ds for req. It fails only on an invalid
// request (ErrInvalidRequest) or an empty dataset (ErrEmptyDataset); every
// external failure degrades to documented factor defaults.
func (e *Engine) Recommend(ctx context.Context, ds *dataset.Dataset, req Request) (*model.Recommendation, error) {
	start := time.Now()
	requestID := uuid.NewString()
	log := zap.L().With(zap.String("request_id", requestID))

	if err := req.Validate(); err != nil {
		e.metrics.ObserveRecommendation(metrics.StatusInvalid, 0, 0)
		return nil, err
	}

	suppliers := normalize.Suppliers(ds)
	if len(suppliers) == 0 {
		e.metrics.ObserveRecommendation(metrics.StatusFailure, 0, 0)
		return nil, eris.Wrap(ErrEmptyDataset, "normalize")
	}
	var ledger *complaint.Ledger
	if ds != nil {
		ledger = complaint.NewLedger(ds.Complaints)
	}

	source := strings.TrimSpace(req.SourceLocation)
	if source == "" {
		source = e.detectSource(ctx, log)
	}

	log.Info("recommendation started",
		zap.String("category", req.Category),
		zap.String("product", req.ProductName),
		zap.String("source", source),
		zap.Int("suppliers", len(suppliers)),
		zap.Int("complaint_companies", ledger.Len()),
	)

	scoreCtx := ctx
	if e.requestTimeout > 0 {
		var cancel context.CancelFunc
		scoreCtx, cancel = context.WithTimeout(ctx, e.requestTimeout)
		defer cancel()
	}

	class := e.classifier.Classify(scoreCtx, req.ProductName, req.Category)
	product := model.ProductInfo{
		Category:           req.Category,
		Name:               req.ProductName,
		SourceLocation:     source,
		ClassificationCode: class.Code,
		ClassificationFrom: class.Source,
	}

	scored := e.scoreAll(scoreCtx, suppliers, ledger, product)
	top := scorer.TopK(scored, e.topK)

	explanation := e.explain(ctx, log, product, top)

	elapsed := time.Since(start)
	e.metrics.ObserveRecommendation(metrics.StatusSuccess, elapsed.Seconds(), len(scored))
	log.Info("recommendation complete",
		zap.Int("scored", len(scored)),
		zap.Int("returned", len(top)),
		zap.String("hs_code", class.Code),
		zap.Duration("elapsed", elapsed),
	)

	return &model.Recommendation{
		RequestID:      requestID,
		Product:        product,
		TopSuppliers:   top,
		Explanation:    explanation,
		SuppliersTotal: len(scored),
		GeneratedAt:    time.Now().UTC(),
	}, nil
}

// scoreAll runs the per-supplier pipeline through a bounded pool. Each
// worker writes only its own slot. Tiebreaks are drawn in supplier order
// before the pool starts so a fixed seed maps to the same supplier every run.
func (e *Engine) scoreAll(ctx context.Context, suppliers []model.SupplierRecord, ledger *complaint.Ledger, product model.ProductInfo) []model.ScoredSupplier {
	composer := scorer.NewComposer(e.scoring, e.seed)
	tiebreaks := composer.Tiebreaks(len(suppliers))
	scored := make([]model.ScoredSupplier, len(suppliers))

	var g errgroup.Group
	g.SetLimit(e.workers)
	for i, rec := range suppliers {
		g.Go(func() error {
			stats := ledger.Aggregate(rec.Name)
			res := e.calc.Compute(ctx, factor.Input{
				Supplier:       rec,
				Complaints:     stats,
				Category:       product.Category,
				ProductCode:    product.ClassificationCode,
				SourceLocation: product.SourceLocation,
			})
			scored[i] = composer.Compose(rec, res.Factors, stats.Count, res.Location.Query, tiebreaks[i])
			return nil
		})
	}
	_ = g.Wait() // workers never return errors
	return scored
}

func (e *Engine) detectSource(ctx context.Context, log *zap.Logger) string {
	if e.locator == nil {
		return ""
	}
	lctx, cancel := context.WithTimeout(ctx, DefaultLocateTimeout)
	defer cancel()
	loc, err := e.locator.Locate(lctx)
	if err != nil {
		log.Warn("source location detection failed", zap.Error(err))
		return ""
	}
	log.Debug("source location detected", zap.String("location", loc))
	return loc
}

func (e *Engine) explain(ctx context.Context, log *zap.Logger, product model.ProductInfo, top []model.ScoredSupplier) string {
	ec := explain.BuildContext(product, top)
	if e.explainTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, e.explainTimeout)
		defer cancel()
	}
	text, err := e.explainer.Explain(ctx, ec)
	if err != nil {
		log.Warn("explanation failed, using summary", zap.Error(err))
		return explain.Summary(ec)
	}
	return text
}
