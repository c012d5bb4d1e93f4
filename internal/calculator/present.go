package calculator

import (
	"math"
	"strconv"
	"strings"
)

// Placeholder is shown in place of a value that has not been entered yet.
const Placeholder = "—"

// Formatter renders an amount as currency text.
type Formatter interface {
	Format(amount float64) string
}

// Display is the rendered text of every display region.
type Display struct {
	Medicine           string `json:"medicine"`
	Fees               string `json:"fees"`
	Preparation        string `json:"preparation"`
	Transport          string `json:"transport"`
	PreparationPercent string `json:"prepPercent"`
	TransportPercent   string `json:"transportPercent"`
	Total              string `json:"total"`
}

// Present formats inputs and derived amounts for display. A value renders as
// currency when strictly positive and as Placeholder otherwise, with two
// exceptions: the total is always formatted, and a charge whose percentage is
// zero still renders as zero currency once fees are positive.
func Present(in Inputs, a Amounts, f Formatter) Display {
	return Display{
		Medicine:           positiveOrPlaceholder(a.Medicine, f),
		Fees:               positiveOrPlaceholder(a.Fees, f),
		Preparation:        charge(a.Preparation, a.Fees, f),
		Transport:          charge(a.Transport, a.Fees, f),
		PreparationPercent: percentOrPlaceholder(in.PreparationPercent),
		TransportPercent:   percentOrPlaceholder(in.TransportPercent),
		Total:              f.Format(a.Total),
	}
}

func positiveOrPlaceholder(amount float64, f Formatter) string {
	if amount > 0 {
		return f.Format(amount)
	}
	return Placeholder
}

func charge(amount, fees float64, f Formatter) string {
	if amount > 0 {
		return f.Format(amount)
	}
	if fees > 0 {
		return f.Format(0)
	}
	return Placeholder
}

func percentOrPlaceholder(pct float64) string {
	if pct > 0 {
		return Percent(pct)
	}
	return Placeholder
}

// Percent renders pct followed by a percent sign, using the shortest text
// that round-trips the value ("10%", "12.5%").
func Percent(pct float64) string {
	return NumberText(pct) + "%"
}

// NumberText renders n the way a browser stringifies a number: plain decimal
// notation between 1e-6 and 1e21, exponent notation outside that range.
func NumberText(n float64) string {
	if n == 0 {
		return "0"
	}
	abs := math.Abs(n)
	if abs < 1e-6 || abs >= 1e21 {
		s := strconv.FormatFloat(n, 'e', -1, 64)
		mantissa, exp, _ := strings.Cut(s, "e")
		sign := exp[:1]
		digits := strings.TrimLeft(exp[1:], "0")
		return mantissa + "e" + sign + digits
	}
	return strconv.FormatFloat(n, 'f', -1, 64)
}
