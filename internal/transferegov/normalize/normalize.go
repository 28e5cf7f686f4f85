// Package normalize maps raw TransfereGov rows into the canonical model.
// Every function here is pure: missing fields become defaults, never errors.
package normalize

import (
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/utils"
)

func Plan(raw types.RawPlan) *types.Plan {
	cost := raw.CostAmount.Float()
	investment := raw.InvestmentAmount.Float()

	statusCode := orDefault(raw.Status.String(), DefaultStatusCode)
	name := orDefault(raw.BeneficiaryName.String(), NotInformed)
	code := raw.Code.String()

	return &types.Plan{
		ID:                  raw.ID.String(),
		Code:                code,
		Year:                int(raw.Year.Float()),
		Status:              Status(statusCode),
		StatusCode:          statusCode,
		Legislator:          orDefault(raw.Legislator.String(), NotInformed),
		AmendmentNumber:     raw.AmendmentNumber.String(),
		PolicyArea:          PolicyArea(raw.PolicyAreas.String()),
		CommittedCost:       cost,
		CommittedInvestment: investment,
		CommittedTotal:      cost + investment,
		BeneficiaryCNPJ:     raw.BeneficiaryCNPJ.String(),
		BeneficiaryName:     name,
		BeneficiaryType:     raw.BeneficiaryType.String(),
		Jurisdiction:        Jurisdiction(name),
		Bank:                raw.BankName.String(),
		Agency:              utils.WithCheckDigit(raw.AgencyNumber.String(), raw.AgencyDV.String()),
		Account:             utils.WithCheckDigit(raw.AccountNumber.String(), raw.AccountDV.String()),
		AccountStatus:       DefaultAccount,
		ResourceReceived:    ResourceReceived(raw.Status.String()),
		PortalURL:           PortalURL(code),
		Executors:           []*types.Executor{},
	}
}

// Executor maps one executor row. workPlanStatus is the raw code of the
// plan's work plan, empty when none was found.
func Executor(raw types.RawExecutor, plan types.PlanRef, workPlanStatus string) *types.Executor {
	return &types.Executor{
		ID:                  raw.ID.String(),
		CNPJ:                raw.CNPJ.String(),
		Name:                orDefault(raw.Name.String(), ExecutorNotInformed),
		Object:              raw.Object.String(),
		ObjectDetail:        raw.Object.String(),
		WorkPlanStatus:      WorkPlanStatusLabel(workPlanStatus),
		CommittedCost:       raw.CostAmount.Float(),
		CommittedInvestment: raw.InvestmentAmount.Float(),
		Bank:                raw.BankName.String(),
		Agency:              utils.WithCheckDigit(raw.AgencyNumber.String(), raw.AgencyDV.String()),
		Account:             utils.WithCheckDigit(raw.AccountNumber.String(), raw.AccountDV.String()),
		AccountStatus:       orDefault(raw.AccountStatus.String(), DefaultAccount),
		Plan:                plan,
		Goals:               []types.Goal{},
	}
}

func Goal(raw types.RawGoal) types.Goal {
	seq := int(raw.Sequence.Float())
	if seq == 0 {
		seq = 1
	}
	months := int(raw.Months.Float())
	if months == 0 {
		months = DefaultMonths
	}

	return types.Goal{
		ID:                raw.ID.String(),
		Sequence:          seq,
		Name:              raw.Name.String(),
		Description:       raw.Description.String(),
		Unit:              orDefault(raw.Unit.String(), DefaultUnit),
		Quantity:          raw.Quantity.Float(),
		EarmarkCost:       raw.EarmarkCost.Float(),
		EarmarkInvestment: raw.EarmarkInvestment.Float(),
		OwnCost:           raw.OwnCost.Float(),
		OwnInvestment:     raw.OwnInvestment.Float(),
		Months:            months,
	}
}

func orDefault(s, fallback string) string {
	if s == "" {
		return fallback
	}
	return s
}
