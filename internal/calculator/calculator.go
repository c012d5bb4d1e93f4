// Package calculator derives the medicine cost breakdown from the four form
// inputs and renders it for display.
package calculator

// RawInputs holds the untrusted text of the four form fields. It is the
// payload of every input-changed event.
type RawInputs struct {
	Medicine           string `json:"medicine"`
	Fees               string `json:"fees"`
	PreparationPercent string `json:"prepPercent"`
	TransportPercent   string `json:"transportPercent"`
}

// Inputs are the normalized form values.
type Inputs struct {
	Medicine           float64 `json:"medicine"`
	Fees               float64 `json:"fees"`
	PreparationPercent float64 `json:"prepPercent"`
	TransportPercent   float64 `json:"transportPercent"`
}

// Amounts contains the derived line items and the grand total.
type Amounts struct {
	Medicine    float64 `json:"medicine"`
	Fees        float64 `json:"fees"`
	Preparation float64 `json:"preparation"`
	Transport   float64 `json:"transport"`
	Total       float64 `json:"total"`
}

// Result groups one full pass of the pipeline.
type Result struct {
	Inputs  Inputs  `json:"inputs"`
	Amounts Amounts `json:"amounts"`
	Display Display `json:"display"`
}

// Normalize converts every raw field with Normalize.
func (r RawInputs) Normalize() Inputs {
	return Inputs{
		Medicine:           Normalize(r.Medicine),
		Fees:               Normalize(r.Fees),
		PreparationPercent: Normalize(r.PreparationPercent),
		TransportPercent:   Normalize(r.TransportPercent),
	}
}

// Derive computes the percentage-of-fees charges and the total. Values are
// not rounded or bounded; negative inputs propagate arithmetically.
func Derive(in Inputs) Amounts {
	preparation := (in.PreparationPercent / 100.0) * in.Fees
	transport := (in.TransportPercent / 100.0) * in.Fees
	total := in.Medicine + in.Fees + preparation + transport

	return Amounts{
		Medicine:    in.Medicine,
		Fees:        in.Fees,
		Preparation: preparation,
		Transport:   transport,
		Total:       total,
	}
}

// Compute runs normalize, derive and present for one set of raw inputs.
func Compute(raw RawInputs, f Formatter) Result {
	in := raw.Normalize()
	amounts := Derive(in)
	return Result{
		Inputs:  in,
		Amounts: amounts,
		Display: Present(in, amounts, f),
	}
}
