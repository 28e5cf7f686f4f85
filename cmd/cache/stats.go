package main

import (
	"io"
	"time"

	"github.com/farxc/envelopa-transferencias/internal/transferegov"
	"github.com/farxc/envelopa-transferencias/internal/transferegov/types"
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// printStats writes the end-of-run summary with Brazilian number formatting.
func printStats(w io.Writer, s *types.Snapshot, r *transferegov.Report, peak ProfilerStats) {
	p := message.NewPrinter(language.BrazilianPortuguese)

	percent := 0.0
	if s.TotalOverall > 0 {
		percent = s.TotalOverallDisbursed / s.TotalOverall * 100
	}

	p.Fprintf(w, "\nEstatísticas\n")
	p.Fprintf(w, "  Entes: %d (estado: %d, municípios: %d)\n", s.Stats.Entities, s.Stats.States, s.Stats.Municipalities)
	p.Fprintf(w, "  Parlamentares: %d\n", s.Stats.Legislators)
	p.Fprintf(w, "  Planos: %d (com ordem bancária: %d)\n", s.Stats.Plans, s.Stats.PlansWithPaymentOrder)
	p.Fprintf(w, "  Executores: %d\n", s.Stats.Executors)
	p.Fprintf(w, "  Metas: %d\n", s.Stats.Goals)
	p.Fprintf(w, "  Empenhado: R$ %.2f\n", s.TotalOverall)
	p.Fprintf(w, "  Transferido: R$ %.2f (%.1f%%)\n", s.TotalOverallDisbursed, percent)
	if len(r.FailedYears) > 0 {
		p.Fprintf(w, "  Anos com falha: %v\n", r.FailedYears)
	}
	if r.ArtifactBytes > 0 {
		p.Fprintf(w, "  Arquivo: %.1f KB\n", float64(r.ArtifactBytes)/1024)
	}
	if r.CSVRows > 0 {
		p.Fprintf(w, "  Linhas CSV: %d\n", r.CSVRows)
	}
	p.Fprintf(w, "  Duração: %s\n", r.Duration.Round(time.Millisecond))
	p.Fprintf(w, "  Pico: goroutines=%d memória=%d MB\n", peak.PeakGoroutines, peak.PeakMemoryMB)
}
