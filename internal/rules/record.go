// Package rules defines the persisted rule record and the in-memory
// registry the match service reads from. The registry is an explicit,
// passed-in object with a load-or-reload lifecycle; nothing in this
// package keeps package-level state.
package rules

import (
	"encoding/json"
	"fmt"
	"strings"

	"bazi-backend/internal/condition"
)

// TypeFormula is the rule type this service stores and serves.
const TypeFormula = "formula"

// DefaultPriority applies to imported rows that state no priority.
const DefaultPriority = 100

// Record is one compiled rule as persisted. Records are never mutated
// after import; retiring a rule means disabling it, not deleting it.
type Record struct {
	ID          int64          `json:"id"`
	Code        string         `json:"code"`
	Name        string         `json:"name"`
	Type        string         `json:"type"`
	Category    string         `json:"category"`
	Priority    int            `json:"priority"`
	Conditions  condition.Node `json:"conditions"`
	Content     string         `json:"content,omitempty"`
	Description string         `json:"description,omitempty"`
	Source      string         `json:"source,omitempty"`
	Enabled     bool           `json:"enabled"`
}

// UnmarshalJSON routes the conditions tree through the condition codec;
// the interface field cannot decode itself.
func (r *Record) UnmarshalJSON(data []byte) error {
	type plain Record
	var aux struct {
		plain
		Conditions json.RawMessage `json:"conditions"`
	}
	if err := json.Unmarshal(data, &aux); err != nil {
		return err
	}
	*r = Record(aux.plain)
	if len(aux.Conditions) > 0 && string(aux.Conditions) != "null" {
		node, err := condition.Unmarshal(aux.Conditions)
		if err != nil {
			return err
		}
		r.Conditions = node
	}
	return nil
}

// Code derives the deterministic upsert key for a row: re-importing the
// same source row always lands on the same record.
func Code(category string, id int64) string {
	return fmt.Sprintf("FORMULA_%s_%d", strings.ToUpper(category), id)
}
