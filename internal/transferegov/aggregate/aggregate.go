// Package aggregate groups normalized plans by entity, legislator, year and
// policy area, keeping committed and disbursed totals side by side.
package aggregate

import (
	"sort"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/logger"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/normalize"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
)

type Aggregator struct {
	entities           *orderedMap[string, *types.Entity]
	legislators        *orderedMap[string, *types.Legislator]
	legislatorEntities map[string]map[string]struct{}

	// Amounts are kept per key and summed in Snapshot.
	entityYears              map[string]ledger[int]
	entityYearsDisbursed     map[string]ledger[int]
	legislatorYears          map[string]ledger[int]
	legislatorYearsDisbursed map[string]ledger[int]
	legislatorTotal          ledger[string]
	legislatorDisbursed      ledger[string]

	byYear                        ledger[int]
	byYearState                   ledger[int]
	byYearMunicipalities          ledger[int]
	byYearDisbursed               ledger[int]
	byYearStateDisbursed          ledger[int]
	byYearMunicipalitiesDisbursed ledger[int]

	byArea                ledger[string]
	byAreaByYear          yearAreaLedger
	byAreaDisbursed       ledger[string]
	byAreaByYearDisbursed yearAreaLedger

	stats types.Stats
	log   *logger.Logger
}

func New(log *logger.Logger) *Aggregator {
	if log == nil {
		log = logger.Nop()
	}
	return &Aggregator{
		entities:                      newOrderedMap[string, *types.Entity](),
		legislators:                   newOrderedMap[string, *types.Legislator](),
		legislatorEntities:            make(map[string]map[string]struct{}),
		entityYears:                   make(map[string]ledger[int]),
		entityYearsDisbursed:          make(map[string]ledger[int]),
		legislatorYears:               make(map[string]ledger[int]),
		legislatorYearsDisbursed:      make(map[string]ledger[int]),
		legislatorTotal:               ledger[string]{},
		legislatorDisbursed:           ledger[string]{},
		byYear:                        ledger[int]{},
		byYearState:                   ledger[int]{},
		byYearMunicipalities:          ledger[int]{},
		byYearDisbursed:               ledger[int]{},
		byYearStateDisbursed:          ledger[int]{},
		byYearMunicipalitiesDisbursed: ledger[int]{},
		byArea:                        ledger[string]{},
		byAreaByYear:                  yearAreaLedger{},
		byAreaDisbursed:               ledger[string]{},
		byAreaByYearDisbursed:         yearAreaLedger{},
		log:                           log,
	}
}

// Add folds one plan into every grouping. Plans without a beneficiary CNPJ
// are counted but contribute to no total; Add reports whether p was used.
func (a *Aggregator) Add(p *types.Plan) bool {
	const component = "Aggregator"

	a.stats.Plans++
	if p.DisbursedTotal > 0 {
		a.stats.PlansWithPaymentOrder++
	}
	a.stats.Executors += len(p.Executors)
	for _, e := range p.Executors {
		a.stats.Goals += len(e.Goals)
	}

	if p.BeneficiaryCNPJ == "" {
		a.log.Debug(component, "Plan skipped, missing beneficiary CNPJ: plan=%s", p.ID)
		return false
	}

	committed, disbursed := p.CommittedTotal, p.DisbursedTotal
	year := p.Year
	area := p.PolicyArea
	if area == "" {
		area = normalize.OtherArea
	}

	entity := a.entities.upsert(p.BeneficiaryCNPJ, func() *types.Entity {
		name := p.BeneficiaryName
		if name == "" {
			name = normalize.NotInformed
		}
		a.entityYears[p.BeneficiaryCNPJ] = ledger[int]{}
		a.entityYearsDisbursed[p.BeneficiaryCNPJ] = ledger[int]{}
		return &types.Entity{
			ID:             p.BeneficiaryCNPJ,
			CNPJ:           p.BeneficiaryCNPJ,
			Name:           name,
			Type:           normalize.Jurisdiction(name),
			Years:          types.YearTotals{},
			YearsDisbursed: types.YearTotals{},
			Plans:          []*types.Plan{},
		}
	})
	a.entityYears[entity.CNPJ].add(year, committed)
	a.entityYearsDisbursed[entity.CNPJ].add(year, disbursed)
	entity.Plans = append(entity.Plans, p)

	if p.Legislator != "" && p.Legislator != normalize.NotInformed {
		leg := a.legislators.upsert(p.Legislator, func() *types.Legislator {
			a.legislatorEntities[p.Legislator] = make(map[string]struct{})
			a.legislatorYears[p.Legislator] = ledger[int]{}
			a.legislatorYearsDisbursed[p.Legislator] = ledger[int]{}
			return &types.Legislator{
				Name:           p.Legislator,
				Plans:          []*types.Plan{},
				Entities:       []string{},
				Years:          types.YearTotals{},
				YearsDisbursed: types.YearTotals{},
			}
		})
		leg.Plans = append(leg.Plans, p)
		a.legislatorTotal.add(leg.Name, committed)
		a.legislatorDisbursed.add(leg.Name, disbursed)
		a.legislatorYears[leg.Name].add(year, committed)
		a.legislatorYearsDisbursed[leg.Name].add(year, disbursed)

		seen := a.legislatorEntities[p.Legislator]
		if _, ok := seen[p.BeneficiaryName]; !ok {
			seen[p.BeneficiaryName] = struct{}{}
			leg.Entities = append(leg.Entities, p.BeneficiaryName)
		}
	}

	a.byYear.add(year, committed)
	a.byYearDisbursed.add(year, disbursed)
	if entity.Type == types.JurisdictionState {
		a.byYearState.add(year, committed)
		a.byYearStateDisbursed.add(year, disbursed)
	} else {
		a.byYearMunicipalities.add(year, committed)
		a.byYearMunicipalitiesDisbursed.add(year, disbursed)
	}

	a.byArea.add(area, committed)
	a.byAreaDisbursed.add(area, disbursed)
	a.byAreaByYear.add(year, area, committed)
	a.byAreaByYearDisbursed.add(year, area, disbursed)

	return true
}

// Snapshot assembles the published view. The first state-typed entity is
// the state; further state-typed entities are logged and left out.
func (a *Aggregator) Snapshot(now time.Time) *types.Snapshot {
	const component = "Aggregator"

	for _, e := range a.entities.list() {
		e.Years = types.YearTotals(a.entityYears[e.CNPJ].totals())
		e.YearsDisbursed = types.YearTotals(a.entityYearsDisbursed[e.CNPJ].totals())
	}
	for _, l := range a.legislators.list() {
		l.Total = a.legislatorTotal[l.Name].sum()
		l.TotalDisbursed = a.legislatorDisbursed[l.Name].sum()
		l.Years = types.YearTotals(a.legislatorYears[l.Name].totals())
		l.YearsDisbursed = types.YearTotals(a.legislatorYearsDisbursed[l.Name].totals())
	}

	var state *types.Entity
	municipalities := []*types.Entity{}
	for _, e := range a.entities.list() {
		switch {
		case e.Type == types.JurisdictionMunicipality:
			municipalities = append(municipalities, e)
		case state == nil:
			state = e
		default:
			a.log.Warn(component, "Extra state-typed entity left out: cnpj=%s name=%s kept=%s", e.CNPJ, e.Name, state.CNPJ)
		}
	}

	committedByCNPJ := make(map[string]float64, len(municipalities))
	for _, m := range municipalities {
		committedByCNPJ[m.CNPJ] = SumYears(m.Years)
	}
	sort.SliceStable(municipalities, func(i, j int) bool {
		return committedByCNPJ[municipalities[i].CNPJ] > committedByCNPJ[municipalities[j].CNPJ]
	})

	legislators := a.legislators.list()
	sort.SliceStable(legislators, func(i, j int) bool {
		return legislators[i].Total > legislators[j].Total
	})

	s := &types.Snapshot{
		GeneratedAt:    now.UTC(),
		State:          state,
		Municipalities: municipalities,
		Legislators:    legislators,

		ByYear:                        types.YearTotals(a.byYear.totals()),
		ByYearState:                   types.YearTotals(a.byYearState.totals()),
		ByYearMunicipalities:          types.YearTotals(a.byYearMunicipalities.totals()),
		ByYearDisbursed:               types.YearTotals(a.byYearDisbursed.totals()),
		ByYearStateDisbursed:          types.YearTotals(a.byYearStateDisbursed.totals()),
		ByYearMunicipalitiesDisbursed: types.YearTotals(a.byYearMunicipalitiesDisbursed.totals()),

		ByPolicyArea:                types.AreaTotals(a.byArea.totals()),
		ByPolicyAreaByYear:          a.byAreaByYear.totals(),
		ByPolicyAreaDisbursed:       types.AreaTotals(a.byAreaDisbursed.totals()),
		ByPolicyAreaByYearDisbursed: a.byAreaByYearDisbursed.totals(),
	}

	if state != nil {
		s.TotalState = SumYears(state.Years)
		s.TotalStateDisbursed = SumYears(state.YearsDisbursed)
	}

	committed := make([]float64, len(municipalities))
	disbursed := make([]float64, len(municipalities))
	for i, m := range municipalities {
		committed[i] = committedByCNPJ[m.CNPJ]
		disbursed[i] = SumYears(m.YearsDisbursed)
	}
	s.TotalMunicipalities = sumSorted(committed)
	s.TotalMunicipalitiesDisbursed = sumSorted(disbursed)
	s.TotalOverall = s.TotalState + s.TotalMunicipalities
	s.TotalOverallDisbursed = s.TotalStateDisbursed + s.TotalMunicipalitiesDisbursed

	s.Stats = a.stats
	s.Stats.Entities = a.entities.len()
	s.Stats.Municipalities = len(municipalities)
	s.Stats.Legislators = len(legislators)
	if state != nil {
		s.Stats.States = 1
	}

	return s
}
