package grid

import (
	"encoding/json"
	"fmt"
	"os"
	"sort"

	"github.com/d5/tengo/v2"
	"github.com/d5/tengo/v2/stdlib"
)

// DisplayRules maps a listing to its derived columns and the tengo script computing each.
// A script reads the current row from `row` and assigns its result to `value`.
type DisplayRules map[string]map[string]string

const ListingMachines = "vending-machines"

const statusDotScript = `
text := import("text")
status := is_string(row.status) ? text.to_lower(row.status) : ""
stock := row.stockLevel
if status == "inactive" || status == "faulty" {
	value = "red"
} else if !(is_int(stock) || is_float(stock)) {
	value = "grey"
} else if stock <= 0.0 {
	value = "red"
} else if stock < 20.0 {
	value = "amber"
} else {
	value = "green"
}
`

const allocatedScript = `
value = !is_undefined(row.schoolId) && row.schoolId != ""
`

// DefaultDisplayRules returns a fresh copy of the built-in rules.
func DefaultDisplayRules() DisplayRules {
	return DisplayRules{
		ListingMachines: {
			"statusDot": statusDotScript,
			"allocated": allocatedScript,
		},
	}
}

// LoadDisplayRules overlays the JSON file at path onto the built-in rules. An empty path
// returns the defaults.
func LoadDisplayRules(path string) (DisplayRules, error) {
	rules := DefaultDisplayRules()
	if path == "" {
		return rules, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read display rules: %w", err)
	}
	var overlay DisplayRules
	if err := json.Unmarshal(raw, &overlay); err != nil {
		return nil, fmt.Errorf("parse display rules: %w", err)
	}
	for listing, cols := range overlay {
		if rules[listing] == nil {
			rules[listing] = map[string]string{}
		}
		for key, script := range cols {
			rules[listing][key] = script
		}
	}
	return rules, nil
}

type derivedColumn struct {
	key      string
	compiled *tengo.Compiled
}

// Deriver computes derived display columns. Scripts are compiled once; every row runs on
// a clone of the compiled program.
type Deriver struct {
	columns []derivedColumn
}

func NewDeriver(scripts map[string]string) (*Deriver, error) {
	keys := make([]string, 0, len(scripts))
	for k := range scripts {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	d := &Deriver{}
	for _, key := range keys {
		script := tengo.NewScript([]byte(scripts[key]))
		script.SetImports(stdlib.GetModuleMap("text"))
		if err := script.Add("row", map[string]interface{}{}); err != nil {
			return nil, err
		}
		if err := script.Add("value", nil); err != nil {
			return nil, err
		}
		compiled, err := script.Compile()
		if err != nil {
			return nil, fmt.Errorf("compile derived column %s: %w", key, err)
		}
		d.columns = append(d.columns, derivedColumn{key: key, compiled: compiled})
	}
	return d, nil
}

// Keys lists the derived column keys in evaluation order.
func (d *Deriver) Keys() []string {
	keys := make([]string, len(d.columns))
	for i, col := range d.columns {
		keys[i] = col.key
	}
	return keys
}

// Apply adds every derived column to each row in place.
func (d *Deriver) Apply(rows []map[string]any) error {
	if d == nil {
		return nil
	}
	for i, row := range rows {
		for _, col := range d.columns {
			c := col.compiled.Clone()
			if err := c.Set("row", row); err != nil {
				return fmt.Errorf("row %d: %w", i, err)
			}
			if err := c.Run(); err != nil {
				return fmt.Errorf("derived column %s, row %d: %w", col.key, i, err)
			}
			row[col.key] = c.Get("value").Value()
		}
	}
	return nil
}
