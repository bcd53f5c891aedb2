package stockbalance

import (
	"stockbalance/internal/core/entity"
	"stockbalance/internal/core/types"
)

// Options configure one engine run.
type Options struct {
	Period    Period
	Precision int32
	Currency  string

	WithAgeing       bool
	IncludeZeroStock bool
}

// Input is everything the engine consumes, read up front by the caller.
type Input struct {
	Ledger     []entity.StockLedgerEntry
	POSSales   []entity.POSInvoiceLine
	POSReturns []entity.POSInvoiceLine
	Opening    *Opening
	// Rates resolves POS valuation rates. When nil an index over Ledger is used.
	Rates RateLookup
}

// Engine runs the normalize, accumulate, age and finalize pipeline.
type Engine struct {
	keys KeyBuilder
	opts Options
}

// NewEngine validates opts and returns an engine.
func NewEngine(keys KeyBuilder, opts Options) (*Engine, error) {
	if err := opts.Period.Validate(); err != nil {
		return nil, err
	}
	if opts.Precision <= 0 {
		opts.Precision = types.DefaultPrecision
	}
	return &Engine{keys: keys, opts: opts}, nil
}

// Keys returns the key builder used by the engine.
func (e *Engine) Keys() KeyBuilder {
	return e.keys
}

// Computation is the result of a run before enrichment.
type Computation struct {
	// Records are the finalized, filtered balances in emission order.
	Records     []*BalanceRecord
	Diagnostics *Diagnostics

	period Period
	ageing *AgeingCalculator
}

// Compute runs the pipeline over in.
func (e *Engine) Compute(in Input) *Computation {
	diags := &Diagnostics{}

	rates := in.Rates
	if rates == nil {
		rates = NewLedgerRateIndex(in.Ledger)
	}
	events := NewNormalizer(e.keys, rates, diags).Normalize(in.Ledger, in.POSSales, in.POSReturns)

	acc := NewAccumulator(e.opts.Period, e.opts.Precision, e.opts.Currency, in.Opening, diags)
	var ageing *AgeingCalculator
	if e.opts.WithAgeing {
		ageing = NewAgeingCalculator(in.Opening, diags)
	}

	for _, ev := range events {
		applied := acc.Apply(ev)
		if ageing != nil {
			ageing.Apply(applied)
		}
	}

	return &Computation{
		Records: Finalize(acc.Records(), FilterOptions{
			Precision:        e.opts.Precision,
			IncludeZeroStock: e.opts.IncludeZeroStock,
		}),
		Diagnostics: diags,
		period:      e.opts.Period,
		ageing:      ageing,
	}
}

// Rows merges enrichment and, when enabled, ageing statistics as of the
// period end into the output rows.
func (c *Computation) Rows(enr Enrichment) []Row {
	var ageing func(GroupingKey) AgeingStats
	if c.ageing != nil {
		asOf := types.DateOnly(c.period.To)
		ageing = func(k GroupingKey) AgeingStats { return c.ageing.Stats(k, asOf) }
	}
	return Enrich(c.Records, enr, ageing)
}
