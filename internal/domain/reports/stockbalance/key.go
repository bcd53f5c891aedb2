// Package stockbalance computes per item/warehouse stock balances over a
// reporting window from ledger and point-of-sale movements, seeded from the
// latest closing snapshot, with optional FIFO ageing.
//
// The package does no I/O except through the OpeningSource interface used by
// OpeningResolver. Everything else is a single-pass, single-goroutine batch
// computation over values handed in by the caller.
package stockbalance

import (
	"slices"
	"strings"
)

const (
	dimensionSep = "\x1f"
	dimensionKV  = "\x1e"
)

// GroupingKey identifies one balance line: company, item, warehouse and the
// active inventory dimensions. It is comparable and safe to use as a map key.
type GroupingKey struct {
	Company   string
	ItemCode  string
	Warehouse string
	// Dimensions is the canonical encoding of active dimension values,
	// sorted by dimension name. Empty when no dimension is active.
	Dimensions string
}

// DimensionValues decodes the dimension part of the key.
func (k GroupingKey) DimensionValues() map[string]string {
	if k.Dimensions == "" {
		return nil
	}
	out := make(map[string]string)
	for _, pair := range strings.Split(k.Dimensions, dimensionSep) {
		name, value, ok := strings.Cut(pair, dimensionKV)
		if ok {
			out[name] = value
		}
	}
	return out
}

// ItemWarehouse returns the (item, warehouse) pair used by enrichment lookups.
func (k GroupingKey) ItemWarehouse() ItemWarehouse {
	return ItemWarehouse{ItemCode: k.ItemCode, Warehouse: k.Warehouse}
}

// String renders the key for logs.
func (k GroupingKey) String() string {
	s := k.Company + "/" + k.ItemCode + "/" + k.Warehouse
	if k.Dimensions != "" {
		s += "/" + strings.NewReplacer(dimensionSep, ",", dimensionKV, "=").Replace(k.Dimensions)
	}
	return s
}

// ItemWarehouse is an (item, warehouse) pair.
type ItemWarehouse struct {
	ItemCode  string
	Warehouse string
}

// KeyBuilder derives grouping keys from records.
// A configured dimension takes part in the key only when the report filters
// on it or when dimension-wise breakdown is requested.
type KeyBuilder struct {
	dimensions []string
}

// NewKeyBuilder returns a builder for the given configured dimension fields.
func NewKeyBuilder(configured []string, filtered map[string][]string, dimensionWise bool) KeyBuilder {
	var active []string
	for _, name := range configured {
		if name == "" {
			continue
		}
		if dimensionWise || len(filtered[name]) > 0 {
			active = append(active, name)
		}
	}
	slices.Sort(active)
	return KeyBuilder{dimensions: slices.Compact(active)}
}

// ActiveDimensions returns the dimension names that take part in keys.
func (b KeyBuilder) ActiveDimensions() []string {
	return slices.Clone(b.dimensions)
}

// Key builds the grouping key. Empty dimension values are skipped, so a row
// without a project groups with other rows without a project.
func (b KeyBuilder) Key(company, itemCode, warehouse string, dims map[string]string) GroupingKey {
	k := GroupingKey{Company: company, ItemCode: itemCode, Warehouse: warehouse}
	if len(b.dimensions) == 0 || len(dims) == 0 {
		return k
	}

	parts := make([]string, 0, len(b.dimensions))
	for _, name := range b.dimensions {
		if v := dims[name]; v != "" {
			parts = append(parts, name+dimensionKV+v)
		}
	}
	k.Dimensions = strings.Join(parts, dimensionSep)
	return k
}
