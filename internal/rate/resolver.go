package rate

import (
	"github.com/shopspring/decimal"

	"github.com/OceanLab-Technology/masterJGS/internal/model"
)

// Source identifies which level of the rate hierarchy a resolution came from.
type Source string

const (
	SourceScript  Source = "script"
	SourceSegment Source = "segment"
	SourceGlobal  Source = "global"
	SourceDefault Source = "default"
)

// Resolution is the outcome of resolving the governing rate for one
// transaction: the winning entry (synthesized when falling back to a master
// catalog default), its effective total, and where it came from. Override is
// false when no client-specific entry existed, so callers can distinguish
// "default rate" from "client-specific rate".
type Resolution struct {
	Entry    model.RateEntry `json:"entry"`
	Total    decimal.Decimal `json:"total"`
	Source   Source          `json:"source"`
	Override bool            `json:"override"`
}

// Resolve selects the single rate entry that governs a transaction for the
// given client, segment, and (optionally) script.
//
// Precedence, most specific first:
//
//  1. entry scoped to the exact script, owned by the client
//  2. entry scoped to the segment, owned by the client
//  3. the client's global entry
//  4. the script or segment master catalog default (no client override)
//
// When multiple entries exist at the same level — a data-integrity anomaly
// upstream systems should prevent — the most recently created one (highest
// id) wins. That leniency is deliberate: resolution never errors on
// duplicates. Inputs are never mutated.
func Resolve(
	clientID, segment, script string,
	entries []model.RateEntry,
	segments []model.Segment,
	scripts []model.Script,
) (Resolution, error) {
	if script != "" {
		if e, ok := bestAt(entries, clientID, func(e model.RateEntry) bool {
			return e.ApplicationType == model.ScopeScript && e.ScriptName == script
		}); ok {
			return resolution(e, SourceScript), nil
		}
	}

	if e, ok := bestAt(entries, clientID, func(e model.RateEntry) bool {
		return e.ApplicationType == model.ScopeSegment && e.Segment == segment
	}); ok {
		return resolution(e, SourceSegment), nil
	}

	if e, ok := bestAt(entries, clientID, func(e model.RateEntry) bool {
		return e.ApplicationType == model.ScopeGlobal
	}); ok {
		return resolution(e, SourceGlobal), nil
	}

	// No client override: fall back to the master catalogs, script default
	// before segment default.
	if script != "" {
		for _, sc := range scripts {
			if sc.Symbol == script {
				return Resolution{
					Entry:  synthesized(clientID, model.ScopeScript, segment, script, sc.Rate()),
					Total:  sc.Rate().Total(),
					Source: SourceDefault,
				}, nil
			}
		}
	}
	for _, sg := range segments {
		if sg.Title == segment {
			return Resolution{
				Entry:  synthesized(clientID, model.ScopeSegment, segment, "", sg.Rate()),
				Total:  sg.Rate().Total(),
				Source: SourceDefault,
			}, nil
		}
	}

	return Resolution{}, model.ErrNotFound
}

// bestAt returns the highest-id entry owned by clientID that matches the
// level predicate.
func bestAt(entries []model.RateEntry, clientID string, match func(model.RateEntry) bool) (model.RateEntry, bool) {
	var best model.RateEntry
	found := false
	for _, e := range entries {
		if e.ClientID != clientID || !match(e) {
			continue
		}
		if !found || e.ID > best.ID {
			best = e
			found = true
		}
	}
	return best, found
}

func resolution(e model.RateEntry, src Source) Resolution {
	return Resolution{Entry: e, Total: e.Rate().Total(), Source: src, Override: true}
}

// synthesized builds a read-only pseudo entry carrying a catalog default so
// the caller always receives a uniform shape.
func synthesized(clientID string, scope model.ScopeKind, segment, script string, v model.RateValue) model.RateEntry {
	return model.RateEntry{
		ClientID:        clientID,
		ApplicationType: scope,
		Segment:         segment,
		ScriptName:      script,
		BrokerageType:   v.Kind,
		AdminValue:      v.AdminValue,
		MasterValue:     v.MasterValue,
	}
}
