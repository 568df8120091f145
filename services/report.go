package services

import (
	"fmt"
	"io"
	"os"
	"strings"

	"property-analyser/models"
)

// ReportPrinter renders suburb reports as a terminal summary.
type ReportPrinter struct {
	out io.Writer
}

// NewReportPrinter creates a ReportPrinter writing to out, or stdout when out is nil.
func NewReportPrinter(out io.Writer) *ReportPrinter {
	if out == nil {
		out = os.Stdout
	}
	return &ReportPrinter{out: out}
}

func (p *ReportPrinter) Print(reports []models.SuburbReport) {
	sep := strings.Repeat("═", 78)
	thin := strings.Repeat("─", 78)
	w := p.out

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n", sep)
	fmt.Fprintf(w, "\033[1;35m  🏘  TOP SUBURBS BY RENTAL YIELD (> %.1f%%)\033[0m\n", YieldThreshold)
	fmt.Fprintf(w, "\033[1;35m%s\033[0m\n\n", sep)

	if len(reports) == 0 {
		fmt.Fprintf(w, "  No suburb has a listing above the yield threshold\n")
		fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
		return
	}

	fmt.Fprintf(w, "  %-3s %-24s %6s %9s %9s %13s %13s\n",
		"#", "Suburb", "Count", "Yield %", "StdDev", "Avg R/m²", "Median R/m²")
	fmt.Fprintf(w, "  %s\n", thin)
	for i, r := range reports {
		fmt.Fprintf(w, "  \033[1m%-3d\033[0m %-24s %6d \033[1;32m%9.2f\033[0m %9.2f %13.2f %13.2f\n",
			i+1, truncate(r.Name, 24), r.PropertyCount, r.AverageYield,
			r.StdDevYield, r.AveragePricePerSqM, r.MedianPricePerSqM)
	}

	fmt.Fprintf(w, "\n\033[1;35m%s\033[0m\n\n", sep)
}

func truncate(s string, max int) string {
	r := []rune(s)
	if len(r) <= max {
		return s
	}
	return string(r[:max-3]) + "..."
}
