package aggregate

import (
	"sort"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"gonum.org/v1/gonum/floats"
)

// amounts holds the addends of one total. The sum is taken over the sorted
// values, so it is the same whatever order the plans arrived in.
type amounts []float64

func (a amounts) sum() float64 {
	return sumSorted(a)
}

func sumSorted(values []float64) float64 {
	if len(values) == 0 {
		return 0
	}
	sorted := append([]float64(nil), values...)
	sort.Float64s(sorted)
	return floats.Sum(sorted)
}

// ledger collects amounts per key until the totals are read.
type ledger[K comparable] map[K]amounts

func (l ledger[K]) add(key K, amount float64) {
	l[key] = append(l[key], amount)
}

func (l ledger[K]) totals() map[K]float64 {
	out := make(map[K]float64, len(l))
	for k, a := range l {
		out[k] = a.sum()
	}
	return out
}

// yearAreaLedger splits area amounts by year.
type yearAreaLedger map[int]ledger[string]

func (l yearAreaLedger) add(year int, area string, amount float64) {
	byArea, ok := l[year]
	if !ok {
		byArea = ledger[string]{}
		l[year] = byArea
	}
	byArea.add(area, amount)
}

func (l yearAreaLedger) totals() map[int]types.AreaTotals {
	out := make(map[int]types.AreaTotals, len(l))
	for year, byArea := range l {
		out[year] = types.AreaTotals(byArea.totals())
	}
	return out
}

// SumYears adds the yearly amounts in ascending year order.
func SumYears(y types.YearTotals) float64 {
	if len(y) == 0 {
		return 0
	}
	years := make([]int, 0, len(y))
	for year := range y {
		years = append(years, year)
	}
	sort.Ints(years)

	values := make([]float64, len(years))
	for i, year := range years {
		values[i] = y[year]
	}
	return floats.Sum(values)
}
