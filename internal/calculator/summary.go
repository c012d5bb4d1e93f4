package calculator

import (
	"fmt"
	"strings"
)

// DefaultPractitioner names the practice in summary titles when no profile
// is configured.
const DefaultPractitioner = "Dr. J Ayisha"

// SummaryTitle returns the first line of the copied summary.
func SummaryTitle(practitioner string) string {
	if strings.TrimSpace(practitioner) == "" {
		practitioner = DefaultPractitioner
	}
	return practitioner + " • Cost Summary"
}

// SummaryLines returns the six lines of the plain-text cost summary. Every
// amount is currency formatted, zero included.
func SummaryLines(practitioner string, in Inputs, a Amounts, f Formatter) []string {
	return []string{
		SummaryTitle(practitioner),
		fmt.Sprintf("Medicine: %s", f.Format(a.Medicine)),
		fmt.Sprintf("Fees: %s", f.Format(a.Fees)),
		fmt.Sprintf("Preparation (%s of Fees): %s", Percent(in.PreparationPercent), f.Format(a.Preparation)),
		fmt.Sprintf("Transport & Packaging (%s of Fees): %s", Percent(in.TransportPercent), f.Format(a.Transport)),
		fmt.Sprintf("Total: %s", f.Format(a.Total)),
	}
}

// Summary joins SummaryLines with newlines.
func Summary(practitioner string, in Inputs, a Amounts, f Formatter) string {
	return strings.Join(SummaryLines(practitioner, in, a, f), "\n")
}
