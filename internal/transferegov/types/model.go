package types

// PlanStatus is the normalized lifecycle of a plan of action.
type PlanStatus string

const (
	StatusAwaitingAcknowledgment PlanStatus = "awaiting-acknowledgment"
	StatusAcknowledged           PlanStatus = "acknowledged"
	StatusBlocked                PlanStatus = "blocked"
	StatusCanceled               PlanStatus = "canceled"
	StatusOther                  PlanStatus = "other"
)

// JurisdictionType tells the state apart from its municipalities.
type JurisdictionType string

const (
	JurisdictionState        JurisdictionType = "estado"
	JurisdictionMunicipality JurisdictionType = "municipio"
)

type Plan struct {
	ID                  string           `json:"id"`
	Code                string           `json:"code"`
	Year                int              `json:"year"`
	Status              PlanStatus       `json:"status"`
	StatusCode          string           `json:"statusCode"`
	Legislator          string           `json:"legislator"`
	AmendmentNumber     string           `json:"amendmentNumber"`
	PolicyArea          string           `json:"policyArea"`
	CommittedCost       float64          `json:"committedCost"`
	CommittedInvestment float64          `json:"committedInvestment"`
	CommittedTotal      float64          `json:"committedTotal"`
	DisbursedTotal      float64          `json:"disbursedTotal"`
	BeneficiaryCNPJ     string           `json:"beneficiaryCnpj"`
	BeneficiaryName     string           `json:"beneficiaryName"`
	BeneficiaryType     string           `json:"beneficiaryType"`
	Jurisdiction        JurisdictionType `json:"jurisdiction"`
	Bank                string           `json:"bank,omitempty"`
	Agency              string           `json:"agency,omitempty"`
	Account             string           `json:"account,omitempty"`
	AccountStatus       string           `json:"accountStatus"`
	ResourceReceived    bool             `json:"resourceReceived"`
	WorkPlanStatus      string           `json:"workPlanStatus,omitempty"`
	PortalURL           string           `json:"portalUrl"`
	Executors           []*Executor      `json:"executors"`
}

// Ref returns the summary executors keep of their plan.
func (p *Plan) Ref() PlanRef {
	return PlanRef{
		ID:               p.ID,
		Code:             p.Code,
		Status:           p.Status,
		StatusCode:       p.StatusCode,
		Legislator:       p.Legislator,
		AmendmentNumber:  p.AmendmentNumber,
		PolicyArea:       p.PolicyArea,
		ResourceReceived: p.ResourceReceived,
	}
}

// PlanRef is a non-owning copy of the plan fields an executor view needs.
type PlanRef struct {
	ID               string     `json:"id"`
	Code             string     `json:"code"`
	Status           PlanStatus `json:"status"`
	StatusCode       string     `json:"statusCode"`
	Legislator       string     `json:"legislator"`
	AmendmentNumber  string     `json:"amendmentNumber"`
	PolicyArea       string     `json:"policyArea"`
	ResourceReceived bool       `json:"resourceReceived"`
}

type Executor struct {
	ID                  string  `json:"id"`
	CNPJ                string  `json:"cnpj"`
	Name                string  `json:"name"`
	Object              string  `json:"object"`
	ObjectDetail        string  `json:"objectDetail"`
	WorkPlanStatus      string  `json:"workPlanStatus"`
	WorkPlanNumber      string  `json:"workPlanNumber"`
	CommittedCost       float64 `json:"committedCost"`
	CommittedInvestment float64 `json:"committedInvestment"`
	Bank                string  `json:"bank,omitempty"`
	Agency              string  `json:"agency,omitempty"`
	Account             string  `json:"account,omitempty"`
	AccountStatus       string  `json:"accountStatus"`
	Plan                PlanRef `json:"plan"`
	Goals               []Goal  `json:"goals"`
}

type Goal struct {
	ID                string  `json:"id"`
	Sequence          int     `json:"sequence"`
	Name              string  `json:"name"`
	Description       string  `json:"description"`
	Unit              string  `json:"unit"`
	Quantity          float64 `json:"quantity"`
	EarmarkCost       float64 `json:"earmarkCost"`
	EarmarkInvestment float64 `json:"earmarkInvestment"`
	OwnCost           float64 `json:"ownCost"`
	OwnInvestment     float64 `json:"ownInvestment"`
	Months            int     `json:"months"`
}
