package types

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNumberUnmarshal(t *testing.T) {
	cases := map[string]float64{
		`150`:        150,
		`150.5`:      150.5,
		`"150.5"`:    150.5,
		`"1.234,56"`: 1234.56,
		`null`:       0,
		`"n/a"`:      0,
		`""`:         0,
		`{"x":1}`:    0,
	}
	for in, want := range cases {
		var n Number
		require.NoError(t, json.Unmarshal([]byte(in), &n), in)
		assert.Equal(t, want, n.Float(), in)
	}
}

func TestTextUnmarshal(t *testing.T) {
	cases := map[string]string{
		`"abc"`:  "abc",
		`12345`:  "12345",
		`null`:   "",
		`true`:   "true",
		`[1, 2]`: "",
	}
	for in, want := range cases {
		var s Text
		require.NoError(t, json.Unmarshal([]byte(in), &s), in)
		assert.Equal(t, want, s.String(), in)
	}
}

func TestRawPlanDecodesMixedShapes(t *testing.T) {
	payload := `{
		"id_plano_acao": 98765,
		"codigo_plano_acao": "09032023-98765",
		"ano_plano_acao": "2023",
		"valor_custeio_plano_acao": "100",
		"valor_investimento_plano_acao": 50,
		"numero_agencia_plano_acao": 1234,
		"cnpj_beneficiario_plano_acao": null
	}`

	var p RawPlan
	require.NoError(t, json.Unmarshal([]byte(payload), &p))

	assert.Equal(t, Text("98765"), p.ID)
	assert.Equal(t, 2023.0, p.Year.Float())
	assert.Equal(t, 100.0, p.CostAmount.Float())
	assert.Equal(t, 50.0, p.InvestmentAmount.Float())
	assert.Equal(t, Text("1234"), p.AgencyNumber)
	assert.Empty(t, p.BeneficiaryCNPJ)
}

func TestSnapshotFindEntity(t *testing.T) {
	s := &Snapshot{
		State:          &Entity{CNPJ: "1"},
		Municipalities: []*Entity{{CNPJ: "2"}, {CNPJ: "3"}},
	}

	assert.Len(t, s.Entities(), 3)

	e, ok := s.FindEntity("3")
	require.True(t, ok)
	assert.Equal(t, "3", e.CNPJ)

	_, ok = s.FindEntity("4")
	assert.False(t, ok)
}
