// Package refdata holds the immutable lookup tables shared by every dossier.
package refdata

import (
	"fmt"

	"dossier-engine/internal/model"
)

// DefaultRates mirrors the agency's fixed NBS table used until a live feed exists.
var DefaultRates = map[model.Currency]float64{
	model.CurrencyEUR: 117.00,
	model.CurrencyUSD: 108.00,
	model.CurrencyRSD: 1.00,
}

// Rates is a read-only currency -> RSD exchange table.
type Rates struct {
	table map[model.Currency]float64
}

func NewRates(table map[model.Currency]float64) (Rates, error) {
	t := make(map[model.Currency]float64, len(table)+1)
	for c, r := range table {
		if !c.Valid() {
			return Rates{}, fmt.Errorf("unknown currency %q in rate table", c)
		}
		if r <= 0 {
			return Rates{}, fmt.Errorf("rate for %s must be positive, got %v", c, r)
		}
		t[c] = r
	}
	if _, ok := t[model.CurrencyRSD]; !ok {
		t[model.CurrencyRSD] = 1
	}
	return Rates{table: t}, nil
}

// Rate returns the RSD rate for c, or 1 when the currency is not in the table.
func (r Rates) Rate(c model.Currency) float64 {
	if v, ok := r.table[c]; ok {
		return v
	}
	return 1
}

func (r Rates) ToRSD(amount float64, c model.Currency) float64 {
	return amount * r.Rate(c)
}
