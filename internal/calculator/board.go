package calculator

import (
	"errors"
	"fmt"
	"sync"
)

// Field names of the four form inputs.
const (
	FieldMedicine           = "medicine"
	FieldFees               = "fees"
	FieldPreparationPercent = "prepPercent"
	FieldTransportPercent   = "transportPercent"
)

// Region names of the display regions.
const (
	RegionMedicine           = "medicineOut"
	RegionFees               = "feesOut"
	RegionPreparation        = "prepOut"
	RegionTransport          = "transOut"
	RegionPreparationPercent = "prepPctOut"
	RegionTransportPercent   = "transPctOut"
	RegionTotal              = "totalOut"
	RegionStatus             = "copyStatus"
)

// ErrUnknownField is returned by Board.Set for a name that is not a form field.
var ErrUnknownField = errors.New("unknown field")

// Board is an in-memory calculator surface: it holds the raw form text,
// records what was written to each display region and emits input-changed
// events on every edit. It backs the terminal session and tests.
type Board struct {
	mu        sync.Mutex
	inputs    RawInputs
	text      map[string]string
	listeners []func(RawInputs)
}

// NewBoard returns an empty Board.
func NewBoard() *Board {
	return &Board{text: make(map[string]string)}
}

// Values returns the current raw form text.
func (b *Board) Values() RawInputs {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.inputs
}

// Clear empties every form field without emitting an event.
func (b *Board) Clear() {
	b.mu.Lock()
	b.inputs = RawInputs{}
	b.mu.Unlock()
}

// OnChange registers handler for input-changed events.
func (b *Board) OnChange(handler func(RawInputs)) {
	b.mu.Lock()
	b.listeners = append(b.listeners, handler)
	b.mu.Unlock()
}

// Set edits one form field and notifies listeners with the new values.
func (b *Board) Set(field, value string) error {
	b.mu.Lock()
	switch field {
	case FieldMedicine:
		b.inputs.Medicine = value
	case FieldFees:
		b.inputs.Fees = value
	case FieldPreparationPercent:
		b.inputs.PreparationPercent = value
	case FieldTransportPercent:
		b.inputs.TransportPercent = value
	default:
		b.mu.Unlock()
		return fmt.Errorf("%w: %q", ErrUnknownField, field)
	}
	raw := b.inputs
	listeners := append([]func(RawInputs){}, b.listeners...)
	b.mu.Unlock()

	for _, l := range listeners {
		l(raw)
	}
	return nil
}

// Sinks returns sinks that record into the board's display regions.
func (b *Board) Sinks() Sinks {
	return Sinks{
		Medicine:           b.sink(RegionMedicine),
		Fees:               b.sink(RegionFees),
		Preparation:        b.sink(RegionPreparation),
		Transport:          b.sink(RegionTransport),
		PreparationPercent: b.sink(RegionPreparationPercent),
		TransportPercent:   b.sink(RegionTransportPercent),
		Total:              b.sink(RegionTotal),
		Status:             b.sink(RegionStatus),
	}
}

func (b *Board) sink(region string) Sink {
	return SinkFunc(func(text string) {
		b.mu.Lock()
		b.text[region] = text
		b.mu.Unlock()
	})
}

// Text returns what was last written to region.
func (b *Board) Text(region string) string {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.text[region]
}
