package table

import (
	"math"
	"strconv"
	"strings"
)

// naValues are the cell spellings read as missing, the same defaults pandas
// uses when it loads a CSV.
var naValues = map[string]struct{}{
	"":         {},
	"#N/A":     {},
	"#N/A N/A": {},
	"#NA":      {},
	"-1.#IND":  {},
	"-1.#QNAN": {},
	"-NaN":     {},
	"-nan":     {},
	"1.#IND":   {},
	"1.#QNAN":  {},
	"<NA>":     {},
	"N/A":      {},
	"NA":       {},
	"NULL":     {},
	"NaN":      {},
	"None":     {},
	"n/a":      {},
	"nan":      {},
	"null":     {},
}

// IsNull reports whether a raw CSV cell denotes a missing value.
func IsNull(cell string) bool {
	_, ok := naValues[cell]
	return ok
}

// Value is a single cell. The zero Value is null.
type Value struct {
	s     string
	valid bool
}

// String returns a non-null Value holding s, even when s is empty.
func String(s string) Value {
	return Value{s: s, valid: true}
}

// Null returns a missing Value.
func Null() Value {
	return Value{}
}

// Parse converts a raw CSV cell, mapping NA spellings to Null.
func Parse(cell string) Value {
	if IsNull(cell) {
		return Null()
	}
	return String(cell)
}

func (v Value) IsNull() bool {
	return !v.valid
}

// String returns the cell text; null cells are rendered empty.
func (v Value) String() string {
	return v.s
}

// Float parses the cell as a number. Null and non-numeric cells return false.
func (v Value) Float() (float64, bool) {
	if !v.valid {
		return 0, false
	}
	f, err := strconv.ParseFloat(strings.TrimSpace(v.s), 64)
	if err != nil || math.IsNaN(f) {
		return 0, false
	}
	return f, true
}
