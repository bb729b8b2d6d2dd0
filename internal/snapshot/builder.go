// Package snapshot assembles the per-symbol analytics into one published
// cross-sectional document.
package snapshot

import (
	"context"
	"errors"
	"fmt"
	"slices"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"golang.org/x/sync/errgroup"

	"MarketSnapshot/internal/calculator"
	"MarketSnapshot/internal/collector"
	"MarketSnapshot/internal/fundamentals"
	"MarketSnapshot/internal/ivhistory"
	"MarketSnapshot/internal/logger"
	"MarketSnapshot/internal/metrics"
	"MarketSnapshot/internal/model"
	"MarketSnapshot/internal/options"
	"MarketSnapshot/internal/recorder"
	"MarketSnapshot/internal/series"
)

// UnknownSector is published when no sector is known for a symbol.
const UnknownSector = "—"

const progressEvery = 10

// Options parameterize a build.
type Options struct {
	Interval string
	Period   string
	// HistMax caps the bars embedded per row; 0 leaves hist out.
	HistMax int
	// IVEnable turns on options lookups; at most IVMax symbols get an IV30.
	IVEnable        bool
	IVMax           int
	HistoryCapacity int
	Concurrency     int
	Analytics       calculator.Config
	IV              options.Config
}

// Builder runs the snapshot pipeline.
type Builder struct {
	opts      Options
	fetcher   collector.Fetcher
	collector *collector.Collector
	extractor *options.Extractor
	history   ivhistory.Backend
	recorder  recorder.Recorder
	writers   []Writer
	now       func() time.Time
	log       *logger.Entry
}

// NewBuilder creates a Builder reading market data from fetcher. history
// may be nil, in which case IV ranks are computed against this run only.
func NewBuilder(fetcher collector.Fetcher, history ivhistory.Backend, opts Options) *Builder {
	if opts.Concurrency < 1 {
		opts.Concurrency = 1
	}
	if opts.HistoryCapacity <= 0 {
		opts.HistoryCapacity = ivhistory.Capacity
	}
	return &Builder{
		opts:      opts,
		fetcher:   fetcher,
		collector: collector.NewCollector(fetcher, opts.Interval, opts.Period),
		extractor: options.NewExtractor(fetcher, opts.IV),
		history:   history,
		recorder:  recorder.NewNoopRecorder(),
		now:       time.Now,
		log:       logger.GetLogger().WithComponent("snapshot"),
	}
}

// WithRecorder stores every finished snapshot in r.
func (b *Builder) WithRecorder(r recorder.Recorder) *Builder {
	if r != nil {
		b.recorder = r
	}
	return b
}

// WithWriters publishes every finished snapshot through w.
func (b *Builder) WithWriters(w ...Writer) *Builder {
	b.writers = append(b.writers, w...)
	return b
}

// WithClock overrides the clock for timestamps and days to expiry.
func (b *Builder) WithClock(now func() time.Time) *Builder {
	b.now = now
	b.extractor.WithClock(now)
	return b
}

type symbolResult struct {
	series  series.Series
	metrics *model.MetricRecord
}

// Build computes the snapshot for symbols, in their given order, then
// persists IV history and publishes it. Symbols without data are skipped.
// A non-nil snapshot may be returned together with a publishing error.
func (b *Builder) Build(ctx context.Context, symbols []string) (*model.Snapshot, error) {
	start := time.Now()
	runID := uuid.NewString()
	log := b.log.WithFields(logger.Fields{"run_id": runID})
	log.WithFields(logger.Fields{
		"symbols":  len(symbols),
		"interval": b.opts.Interval,
		"period":   b.opts.Period,
	}).Info("start fetch")

	store := b.loadHistory(log)

	results, err := b.fetchAll(ctx, log, symbols, start)
	if err != nil {
		metrics.ObserveRun("cancelled", time.Since(start))
		return nil, err
	}

	rows := make([]model.SnapshotRow, 0, len(symbols))
	ivCount := 0
	for i, sym := range symbols {
		if err := ctx.Err(); err != nil {
			metrics.ObserveRun("cancelled", time.Since(start))
			return nil, err
		}
		if res := results[i]; res != nil {
			row := b.assemble(ctx, sym, res, store, &ivCount)
			log.WithFields(logger.Fields{
				"symbol": sym,
				"price":  deref(row.Price),
				"rsi":    deref(row.RSI14),
				"vol_z":  deref(row.VolZ),
				"sharpe": deref(row.Sharpe),
				"iv30":   deref(row.IV30),
			}).Debug("symbol ok")
			rows = append(rows, row)
		}
		if n := i + 1; n%progressEvery == 0 || n == len(symbols) {
			logProgress(log, "assemble", n, len(symbols), len(rows), start)
		}
	}

	var errs []error
	if b.opts.IVEnable && b.history != nil {
		if err := b.history.Save(store.Snapshot()); err != nil {
			log.WithError(err).Error("save iv history")
			errs = append(errs, fmt.Errorf("save iv history: %w", err))
		}
	}

	snap := &model.Snapshot{
		RunID:    runID,
		AsOfUTC:  b.now().UTC().Format("2006-01-02T15:04:05Z"),
		Interval: b.opts.Interval,
		Period:   b.opts.Period,
		RiskFree: b.opts.Analytics.RiskFree,
		Count:    len(rows),
		Data:     rows,
	}
	took := time.Since(start)

	for _, w := range b.writers {
		if err := w.Write(snap); err != nil {
			log.WithError(err).WithFields(logger.Fields{"writer": w.Name()}).Error("publish snapshot")
			errs = append(errs, fmt.Errorf("%s: %w", w.Name(), err))
			continue
		}
		log.WithFields(logger.Fields{"writer": w.Name()}).Info("snapshot saved")
	}
	if err := b.recorder.RecordSnapshot(snap, took); err != nil {
		log.WithError(err).Error("record snapshot")
		errs = append(errs, fmt.Errorf("record snapshot: %w", err))
	}

	status := "ok"
	if len(errs) > 0 {
		status = "error"
	}
	metrics.ObserveRun(status, took)
	if len(rows) > 0 {
		metrics.SetIVCoverage(float64(ivCount) / float64(len(rows)))
	}
	log.WithFields(logger.Fields{"rows": len(rows), "iv": ivCount, "elapsed": took.Round(time.Millisecond).String()}).Info("done build")
	return snap, errors.Join(errs...)
}

func (b *Builder) loadHistory(log *logger.Entry) *ivhistory.MemoryStore {
	if !b.opts.IVEnable || b.history == nil {
		return ivhistory.NewMemoryStore(nil, b.opts.HistoryCapacity)
	}
	hist, err := b.history.Load()
	if err != nil {
		log.WithError(err).WithFields(logger.Fields{"backend": b.history.Name()}).Warn("iv history unreadable, starting empty")
		hist = nil
	}
	return ivhistory.NewMemoryStore(hist, b.opts.HistoryCapacity)
}

// fetchAll downloads and scores every symbol with bounded concurrency.
// The result slice is aligned with symbols; skipped symbols are nil.
func (b *Builder) fetchAll(ctx context.Context, log *logger.Entry, symbols []string, start time.Time) ([]*symbolResult, error) {
	results := make([]*symbolResult, len(symbols))
	var done, kept atomic.Int32

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(b.opts.Concurrency)
	for i, sym := range symbols {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			res, err := b.computeSymbol(gctx, sym)
			if err != nil {
				metrics.IncrementSymbol("skipped")
				log.WithError(err).WithFields(logger.Fields{"symbol": sym}).Warn("no data, skipped")
			} else {
				results[i] = res
				kept.Add(1)
				metrics.IncrementSymbol("ok")
			}
			if n := int(done.Add(1)); n%progressEvery == 0 || n == len(symbols) {
				logProgress(log, "fetch", n, len(symbols), int(kept.Load()), start)
			}
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return results, ctx.Err()
}

func (b *Builder) computeSymbol(ctx context.Context, symbol string) (*symbolResult, error) {
	s, err := b.collector.Collect(ctx, symbol)
	if err != nil {
		return nil, err
	}
	rec, err := calculator.ComputeMetrics(s, symbol, b.opts.Analytics)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", symbol, err)
	}
	return &symbolResult{series: s, metrics: rec}, nil
}

// assemble runs the sequential part for one symbol: fundamentals, IV30
// and the IV history update. History is only ever mutated here.
func (b *Builder) assemble(ctx context.Context, sym string, res *symbolResult, store ivhistory.Store, ivCount *int) model.SnapshotRow {
	rec := res.metrics
	row := model.SnapshotRow{
		Symbol:  sym,
		Name:    sym,
		Sector:  UnknownSector,
		Price:   rec.Price,
		Ret1:    rec.Ret1,
		Ret5:    rec.Ret5,
		RSI14:   rec.RSI14,
		VolZ:    rec.VolZ,
		Sharpe:  rec.Sharpe,
		Spark30: rec.Spark30,
		Hist:    HistPayload(res.series, b.opts.Interval, b.opts.HistMax),
	}

	if b.hasFundamentals(sym) {
		p, err := b.fetcher.Fundamentals(ctx, sym)
		if err != nil {
			b.log.WithError(err).WithFields(logger.Fields{"symbol": sym}).Debug("fundamentals unavailable")
		} else if p != nil {
			if p.Name != "" {
				row.Name = p.Name
			}
			if p.Sector != "" {
				row.Sector = p.Sector
			}
			row.Fundamentals = fundamentals.Resolve(p.Sources)
		}
	}

	if b.opts.IVEnable && *ivCount < b.opts.IVMax && rec.Price != nil {
		if iv, ok := b.extractor.IV30(ctx, sym, *rec.Price); ok {
			ivr := ivhistory.Update(store, sym, iv)
			if ivr.IV30 != nil {
				*ivCount++
				metrics.IncrementSymbol("iv")
				row.IV30, row.IVRank, row.IVPercentile = ivr.IV30, ivr.IVRank, ivr.IVPercentile
			}
		}
	}
	return row
}

// hasFundamentals is false for volatility indices and crypto pairs.
func (b *Builder) hasFundamentals(sym string) bool {
	return !slices.Contains(b.opts.IV.VolIndexSymbols, sym) &&
		!slices.Contains(b.opts.IV.NonOptionSymbols, sym) &&
		!b.opts.Analytics.IsCrypto(sym)
}

func logProgress(log *logger.Entry, phase string, n, total, kept int, start time.Time) {
	elapsed := time.Since(start)
	eta := time.Duration(0)
	if n > 0 {
		eta = elapsed / time.Duration(n) * time.Duration(total-n)
	}
	log.WithFields(logger.Fields{
		"phase":   phase,
		"done":    n,
		"total":   total,
		"kept":    kept,
		"elapsed": elapsed.Round(100 * time.Millisecond).String(),
		"eta":     eta.Round(100 * time.Millisecond).String(),
	}).Info("progress")
}

func deref(p *float64) any {
	if p == nil {
		return nil
	}
	return *p
}
