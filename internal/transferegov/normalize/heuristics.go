package normalize

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"golang.org/x/text/cases"
	"golang.org/x/text/language"
)

const (
	NotInformed         = "Não informado"
	ExecutorNotInformed = "Executor não informado"
	OtherArea           = "Outros"
	DefaultStatusCode   = "AGUARDANDO_CIENCIA"
	DefaultAccount      = "Conta Ativa"
	DefaultUnit         = "Unidade"
	DefaultMonths       = 12
	NotRegistered       = "Não Cadastrado"

	portalDetailURL = "https://especiais.transferegov.sistema.gov.br/transferencia-especial/plano-acao/detalhe/%s/dados-basicos"
	portalSearchURL = "https://especiais.transferegov.sistema.gov.br/transferencia-especial/plano-acao/consulta"
)

var areaPattern = regexp.MustCompile(`^\d+-([^/]+)`)

var workPlanLabels = map[string]string{
	"APROVADO":         "Aprovado",
	"EM_ELABORACAO":    "Em Elaboração",
	"ENVIADO_ANALISE":  "Enviado para Análise",
	"EM_ANALISE":       "Em Análise",
	"CONCLUIDO_NT_TCU": "Legado ADPF 854 STF / NT-TCU",
	"LEGADO_ADPF":      "Legado ADPF 854 STF / NT-TCU",
	"NAO_CADASTRADO":   NotRegistered,
	"IMPEDIDO":         "Impedido",
	"CANCELADO":        "Cancelado",
}

var planStatuses = map[string]types.PlanStatus{
	"AGUARDANDO_CIENCIA": types.StatusAwaitingAcknowledgment,
	"CIENTE":             types.StatusAcknowledged,
	"IMPEDIDO":           types.StatusBlocked,
	"CANCELADO":          types.StatusCanceled,
}

// PolicyArea extracts the main area name from a compound field such as
// "15-Urbanismo / 451-Infraestrutura Urbana, 10-Saúde".
func PolicyArea(text string) string {
	if text == "" {
		return OtherArea
	}
	first, _, _ := strings.Cut(text, ",")
	m := areaPattern.FindStringSubmatch(strings.TrimSpace(first))
	if m == nil {
		return OtherArea
	}
	if area := strings.TrimSpace(m[1]); area != "" {
		return area
	}
	return OtherArea
}

func WorkPlanStatusLabel(code string) string {
	if code == "" {
		return NotRegistered
	}
	if label, ok := workPlanLabels[upper(code)]; ok {
		return label
	}
	return strings.ReplaceAll(code, "_", " ")
}

// Jurisdiction classifies a beneficiary by its display name. Names without
// "ESTADO" are municipalities, even when the entity is in fact the state.
func Jurisdiction(name string) types.JurisdictionType {
	n := upper(name)
	if strings.Contains(n, "ESTADO") || strings.Contains(n, "GOVERNO DO ESTADO") {
		return types.JurisdictionState
	}
	return types.JurisdictionMunicipality
}

func Status(code string) types.PlanStatus {
	if code == "" {
		return types.StatusAwaitingAcknowledgment
	}
	if s, ok := planStatuses[upper(code)]; ok {
		return s
	}
	return types.StatusOther
}

func ResourceReceived(code string) bool {
	return strings.Contains(upper(code), "CIENTE")
}

// PortalURL links a plan code like "09032023-98765" to its detail page.
func PortalURL(code string) string {
	parts := strings.Split(code, "-")
	if code == "" || len(parts) < 2 || parts[1] == "" {
		return portalSearchURL
	}
	return fmt.Sprintf(portalDetailURL, parts[1])
}

// cases.Caser keeps state, so one is built per call.
func upper(s string) string {
	return cases.Upper(language.BrazilianPortuguese).String(s)
}
