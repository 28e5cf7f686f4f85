package types

import "time"

// YearTotals maps a budget year to an amount.
type YearTotals map[int]float64

// AreaTotals maps a policy area label to an amount.
type AreaTotals map[string]float64

// Entity is a beneficiary jurisdiction keyed by CNPJ.
type Entity struct {
	ID             string           `json:"id"`
	CNPJ           string           `json:"cnpj"`
	Name           string           `json:"name"`
	Type           JurisdictionType `json:"type"`
	Years          YearTotals       `json:"years"`
	YearsDisbursed YearTotals       `json:"yearsDisbursed"`
	Plans          []*Plan          `json:"plans"`
}

// Legislator groups the plans sponsored by one legislator name.
type Legislator struct {
	Name           string     `json:"name"`
	Total          float64    `json:"total"`
	TotalDisbursed float64    `json:"totalDisbursed"`
	Plans          []*Plan    `json:"plans"`
	Entities       []string   `json:"entities"`
	Years          YearTotals `json:"years"`
	YearsDisbursed YearTotals `json:"yearsDisbursed"`
}

type Stats struct {
	Entities              int `json:"entities"`
	States                int `json:"states"`
	Municipalities        int `json:"municipalities"`
	Legislators           int `json:"legislators"`
	Plans                 int `json:"plans"`
	PlansWithPaymentOrder int `json:"plansWithPaymentOrder"`
	Executors             int `json:"executors"`
	Goals                 int `json:"goals"`
}

// Snapshot is the artifact published after one ingestion pass.
type Snapshot struct {
	GeneratedAt time.Time `json:"generatedAt"`

	State          *Entity       `json:"state"`
	Municipalities []*Entity     `json:"municipalities"`
	Legislators    []*Legislator `json:"legislators"`

	ByYear                        YearTotals `json:"byYear"`
	ByYearState                   YearTotals `json:"byYearState"`
	ByYearMunicipalities          YearTotals `json:"byYearMunicipalities"`
	ByYearDisbursed               YearTotals `json:"byYearDisbursed"`
	ByYearStateDisbursed          YearTotals `json:"byYearStateDisbursed"`
	ByYearMunicipalitiesDisbursed YearTotals `json:"byYearMunicipalitiesDisbursed"`

	ByPolicyArea                AreaTotals         `json:"byPolicyArea"`
	ByPolicyAreaByYear          map[int]AreaTotals `json:"byPolicyAreaByYear"`
	ByPolicyAreaDisbursed       AreaTotals         `json:"byPolicyAreaDisbursed"`
	ByPolicyAreaByYearDisbursed map[int]AreaTotals `json:"byPolicyAreaByYearDisbursed"`

	TotalState                   float64 `json:"totalState"`
	TotalMunicipalities          float64 `json:"totalMunicipalities"`
	TotalOverall                 float64 `json:"totalOverall"`
	TotalStateDisbursed          float64 `json:"totalStateDisbursed"`
	TotalMunicipalitiesDisbursed float64 `json:"totalMunicipalitiesDisbursed"`
	TotalOverallDisbursed        float64 `json:"totalOverallDisbursed"`

	Stats Stats `json:"stats"`
}

// Entities lists the state (when present) followed by the municipalities.
func (s *Snapshot) Entities() []*Entity {
	out := make([]*Entity, 0, len(s.Municipalities)+1)
	if s.State != nil {
		out = append(out, s.State)
	}
	return append(out, s.Municipalities...)
}

// FindEntity looks an entity up by CNPJ.
func (s *Snapshot) FindEntity(cnpj string) (*Entity, bool) {
	for _, e := range s.Entities() {
		if e.CNPJ == cnpj {
			return e, true
		}
	}
	return nil, false
}
