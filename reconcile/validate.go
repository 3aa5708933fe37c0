// Package reconcile matches extracted color tokens against variable store and
// creates or updates store entries.
package reconcile

import (
	"okvars/css"
	"okvars/oklch"
)

// Status of a candidate in validation report.
type Status string

const (
	StatusCreate  Status = "create"
	StatusUpdate  Status = "update"
	StatusInvalid Status = "invalid"
)

const (
	msgWillUpdate = "Will update existing variable"
	msgWillCreate = "Will create new variable"
)

// Item is a candidate with successfully parsed parameters, ready for creation pass.
type Item struct {
	Variable    string      `yaml:"variable" json:"variable"`
	OKLCH       oklch.Value `yaml:"oklch" json:"oklch"`
	OKLCHString string      `yaml:"oklch_string" json:"oklch_string"`
	Exists      bool        `yaml:"exists" json:"exists"` // store already has variable with this name
}

// Invalid is a candidate which parameters could not be parsed.
type Invalid struct {
	Variable    string `yaml:"variable" json:"variable"`
	OKLCHString string `yaml:"oklch_string" json:"oklch_string"`
	Error       string `yaml:"error" json:"error"`
}

// Detail is a human readable line of validation report.
type Detail struct {
	Status   Status `yaml:"status" json:"status"`
	Variable string `yaml:"variable" json:"variable"`
	Message  string `yaml:"message" json:"message"`
}

// Validation is the dry run report. Details follow candidates order.
type Validation struct {
	TotalFound int       `yaml:"total_found" json:"total_found"`
	Valid      []Item    `yaml:"valid" json:"valid"`
	Invalid    []Invalid `yaml:"invalid" json:"invalid"`
	Details    []Detail  `yaml:"details" json:"details"`
}

// Validate partitions candidates and marks valid ones which would update
// existing entries. It does not touch the store.
func Validate(candidates []css.Candidate, existing map[string]bool) *Validation {
	res := &Validation{
		TotalFound: len(candidates),
		Valid:      []Item{},
		Invalid:    []Invalid{},
		Details:    make([]Detail, 0, len(candidates)),
	}

	for i := range candidates {
		c := &candidates[i]
		if !c.Valid() {
			res.Invalid = append(res.Invalid, Invalid{Variable: c.Variable, OKLCHString: c.OKLCHString(), Error: c.Error})
			res.Details = append(res.Details, Detail{Status: StatusInvalid, Variable: c.Variable, Message: c.Error})
			continue
		}

		item := Item{Variable: c.Variable, OKLCH: *c.OKLCH, OKLCHString: c.OKLCHString(), Exists: existing[c.Variable]}
		res.Valid = append(res.Valid, item)

		if item.Exists {
			res.Details = append(res.Details, Detail{Status: StatusUpdate, Variable: c.Variable, Message: msgWillUpdate})
		} else {
			res.Details = append(res.Details, Detail{Status: StatusCreate, Variable: c.Variable, Message: msgWillCreate})
		}
	}
	return res
}

// Select keeps items whose variable names are listed, preserving order. Empty
// names selects everything.
func Select(items []Item, names []string) []Item {
	if len(names) == 0 {
		return items
	}
	keep := make(map[string]bool, len(names))
	for _, n := range names {
		keep[n] = true
	}
	out := make([]Item, 0, len(names))
	for _, it := range items {
		if keep[it.Variable] {
			out = append(out, it)
		}
	}
	return out
}
