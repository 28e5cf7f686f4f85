package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"

	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"github.com/go-gota/gota/dataframe"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/charmap"
)

// planRow is one CSV line. Column names follow the Portal da Transparência
// spreadsheets the dashboard users already know.
type planRow struct {
	ID                  string  `dataframe:"ID Plano de Ação,string"`
	Code                string  `dataframe:"Código Plano de Ação,string"`
	Year                int     `dataframe:"Ano,int"`
	StatusCode          string  `dataframe:"Situação,string"`
	BeneficiaryCNPJ     string  `dataframe:"CNPJ Beneficiário,string"`
	BeneficiaryName     string  `dataframe:"Nome Beneficiário,string"`
	Jurisdiction        string  `dataframe:"Tipo Ente,string"`
	Legislator          string  `dataframe:"Parlamentar,string"`
	AmendmentNumber     string  `dataframe:"Número Emenda,string"`
	PolicyArea          string  `dataframe:"Área Política,string"`
	CommittedCost       float64 `dataframe:"Valor Custeio,float"`
	CommittedInvestment float64 `dataframe:"Valor Investimento,float"`
	CommittedTotal      float64 `dataframe:"Valor Total,float"`
	DisbursedTotal      float64 `dataframe:"Valor Efetivado,float"`
	WorkPlanStatus      string  `dataframe:"Situação Plano de Trabalho,string"`
	Executors           int     `dataframe:"Executores,int"`
	PortalURL           string  `dataframe:"Link TransfereGov,string"`
}

var planColumns = []string{
	"ID Plano de Ação", "Código Plano de Ação", "Ano", "Situação",
	"CNPJ Beneficiário", "Nome Beneficiário", "Tipo Ente", "Parlamentar",
	"Número Emenda", "Área Política", "Valor Custeio", "Valor Investimento",
	"Valor Total", "Valor Efetivado", "Situação Plano de Trabalho",
	"Executores", "Link TransfereGov",
}

// PlansFrame flattens the snapshot's plans, state first, into a dataframe.
func PlansFrame(s *types.Snapshot) dataframe.DataFrame {
	var rows []planRow
	for _, e := range s.Entities() {
		for _, p := range e.Plans {
			rows = append(rows, planRow{
				ID:                  p.ID,
				Code:                p.Code,
				Year:                p.Year,
				StatusCode:          p.StatusCode,
				BeneficiaryCNPJ:     p.BeneficiaryCNPJ,
				BeneficiaryName:     p.BeneficiaryName,
				Jurisdiction:        string(e.Type),
				Legislator:          p.Legislator,
				AmendmentNumber:     p.AmendmentNumber,
				PolicyArea:          p.PolicyArea,
				CommittedCost:       p.CommittedCost,
				CommittedInvestment: p.CommittedInvestment,
				CommittedTotal:      p.CommittedTotal,
				DisbursedTotal:      p.DisbursedTotal,
				WorkPlanStatus:      p.WorkPlanStatus,
				Executors:           len(p.Executors),
				PortalURL:           p.PortalURL,
			})
		}
	}
	if len(rows) == 0 {
		return dataframe.DataFrame{}
	}
	return dataframe.LoadStructs(rows)
}

// WritePlansCSV writes the flattened plans as ';'-separated Windows-1252 text
// and returns the number of data rows.
func WritePlansCSV(path string, s *types.Snapshot) (int, error) {
	df := PlansFrame(s)
	if err := df.Error(); err != nil {
		return 0, fmt.Errorf("building plans dataframe: %w", err)
	}

	records := [][]string{planColumns}
	if df.Nrow() > 0 {
		records = df.Records()
	}

	_, err := writeAtomic(path, func(w io.Writer) error {
		tw := encoding.ReplaceUnsupported(charmap.Windows1252.NewEncoder()).Writer(w)
		cw := csv.NewWriter(tw)
		cw.Comma = ';'
		if err := cw.WriteAll(records); err != nil {
			return err
		}
		if c, ok := tw.(io.Closer); ok {
			return c.Close()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return len(records) - 1, nil
}

// ReadPlansCSV loads a file written by WritePlansCSV. Every column is read
// as text so CNPJs keep their leading zeros.
func ReadPlansCSV(path string) (dataframe.DataFrame, error) {
	file, err := os.Open(path)
	if err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("failed to open file %s: %v", path, err)
	}
	defer file.Close()

	decoded := charmap.Windows1252.NewDecoder().Reader(file)
	df := dataframe.ReadCSV(decoded,
		dataframe.WithDelimiter(';'),
		dataframe.WithLazyQuotes(true),
		dataframe.DetectTypes(false),
	)
	return df, df.Error()
}
