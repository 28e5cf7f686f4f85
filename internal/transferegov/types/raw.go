package types

import (
	"bytes"
	"encoding/json"
	"strconv"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/utils"
)

// Number decodes JSON numbers, numeric strings (plain or "1.234,56") and null.
// Anything it cannot read becomes 0 instead of failing the whole page.
type Number float64

func (n *Number) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*n = 0
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			*n = 0
			return nil
		}
		*n = Number(utils.ParseFloat(s))
		return nil
	}

	f, err := strconv.ParseFloat(string(data), 64)
	if err != nil {
		*n = 0
		return nil
	}
	*n = Number(f)
	return nil
}

func (n Number) Float() float64 { return float64(n) }

// Text decodes strings, numbers and booleans into their textual form; null is "".
// Upstream ids and bank numbers arrive as either numbers or strings.
type Text string

func (t *Text) UnmarshalJSON(data []byte) error {
	data = bytes.TrimSpace(data)
	if len(data) == 0 || bytes.Equal(data, []byte("null")) {
		*t = ""
		return nil
	}

	if data[0] == '"' {
		var s string
		if err := json.Unmarshal(data, &s); err != nil {
			return err
		}
		*t = Text(s)
		return nil
	}

	if data[0] == '{' || data[0] == '[' {
		*t = ""
		return nil
	}

	*t = Text(data)
	return nil
}

func (t Text) String() string { return string(t) }

// RawPlan is one row of plano_acao_especial.
type RawPlan struct {
	ID               Text   `json:"id_plano_acao"`
	Code             Text   `json:"codigo_plano_acao"`
	Year             Number `json:"ano_plano_acao"`
	Status           Text   `json:"situacao_plano_acao"`
	Legislator       Text   `json:"nome_parlamentar_emenda_plano_acao"`
	AmendmentNumber  Text   `json:"numero_emenda_parlamentar_plano_acao"`
	PolicyAreas      Text   `json:"codigo_descricao_areas_politicas_publicas_plano_acao"`
	CostAmount       Number `json:"valor_custeio_plano_acao"`
	InvestmentAmount Number `json:"valor_investimento_plano_acao"`
	BankName         Text   `json:"nome_banco_plano_acao"`
	AgencyNumber     Text   `json:"numero_agencia_plano_acao"`
	AgencyDV         Text   `json:"dv_agencia_plano_acao"`
	AccountNumber    Text   `json:"numero_conta_plano_acao"`
	AccountDV        Text   `json:"dv_conta_plano_acao"`
	BeneficiaryCNPJ  Text   `json:"cnpj_beneficiario_plano_acao"`
	BeneficiaryName  Text   `json:"nome_beneficiario_plano_acao"`
	BeneficiaryType  Text   `json:"tipo_beneficiario_plano_acao"`
	BeneficiaryUF    Text   `json:"uf_beneficiario_plano_acao"`
}

// RawCommitment is one row of empenho_especial.
type RawCommitment struct {
	ID     Text `json:"id_empenho"`
	PlanID Text `json:"id_plano_acao"`
}

// RawSettlementDocument is one row of documento_habil_especial.
type RawSettlementDocument struct {
	ID           Text   `json:"id_dh"`
	CommitmentID Text   `json:"id_empenho"`
	Amount       Number `json:"valor_dh"`
}

// RawPaymentOrder is one row of ordem_pagamento_ordem_bancaria_especial.
type RawPaymentOrder struct {
	DocumentID  Text `json:"id_dh"`
	OrderNumber Text `json:"numero_ordem_bancaria"`
}

// RawExecutor is one row of executor_especial.
type RawExecutor struct {
	ID               Text   `json:"id_executor"`
	PlanID           Text   `json:"id_plano_acao"`
	CNPJ             Text   `json:"cnpj_executor"`
	Name             Text   `json:"nome_executor"`
	Object           Text   `json:"objeto_executor"`
	CostAmount       Number `json:"vl_custeio_executor"`
	InvestmentAmount Number `json:"vl_investimento_executor"`
	BankName         Text   `json:"nome_banco_executor"`
	AgencyNumber     Text   `json:"numero_agencia_executor"`
	AgencyDV         Text   `json:"dv_agencia_executor"`
	AccountNumber    Text   `json:"numero_conta_executor"`
	AccountDV        Text   `json:"dv_conta_executor"`
	AccountStatus    Text   `json:"descricao_situacao_dado_bancario_executor"`
}

// RawWorkPlan is one row of plano_trabalho_especial.
type RawWorkPlan struct {
	PlanID Text `json:"id_plano_acao"`
	Status Text `json:"situacao_plano_trabalho"`
}

// RawGoal is one row of meta_especial.
type RawGoal struct {
	ID                Text   `json:"id_meta"`
	ExecutorID        Text   `json:"id_executor"`
	Sequence          Number `json:"sequencial_meta"`
	Name              Text   `json:"nome_meta"`
	Description       Text   `json:"desc_meta"`
	Unit              Text   `json:"un_medida_meta"`
	Quantity          Number `json:"qt_uniade_meta"`
	EarmarkCost       Number `json:"vl_custeio_emenda_especial_meta"`
	EarmarkInvestment Number `json:"vl_investimento_emenda_especial_meta"`
	OwnCost           Number `json:"vl_custeio_recursos_proprios_meta"`
	OwnInvestment     Number `json:"vl_investimento_recursos_proprios_meta"`
	Months            Number `json:"qt_meses_meta"`
}
