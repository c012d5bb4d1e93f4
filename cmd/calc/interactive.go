package main

import (
	"bufio"
	"fmt"
	"io"
	"strings"
	"sync"

	"github.com/urfave/cli/v2"

	"github.com/Simplici0/costcalc/internal/calculator"
)

const interactiveHelp = `Commands:
  medicine=<v> fees=<v> prep=<v> transport=<v>   edit a field (several per line allowed)
  show      print the breakdown
  summary   print the summary text
  copy      copy the summary to the clipboard
  reset     clear every field
  quit      leave`

var fieldAliases = map[string]string{
	"medicine":         calculator.FieldMedicine,
	"m":                calculator.FieldMedicine,
	"fees":             calculator.FieldFees,
	"f":                calculator.FieldFees,
	"prep":             calculator.FieldPreparationPercent,
	"p":                calculator.FieldPreparationPercent,
	"prepPercent":      calculator.FieldPreparationPercent,
	"transport":        calculator.FieldTransportPercent,
	"t":                calculator.FieldTransportPercent,
	"transportPercent": calculator.FieldTransportPercent,
}

// lockedWriter serializes writes from the session loop and the status timer.
type lockedWriter struct {
	mu sync.Mutex
	w  io.Writer
}

func (lw *lockedWriter) Write(p []byte) (int, error) {
	lw.mu.Lock()
	defer lw.mu.Unlock()
	return lw.w.Write(p)
}

func runInteractive(c *cli.Context, clip calculator.Clipboard) error {
	f, err := formatterFromFlags(c)
	if err != nil {
		return err
	}
	out := &lockedWriter{w: c.App.Writer}

	board := calculator.NewBoard()
	sinks := board.Sinks()
	boardStatus := sinks.Status
	sinks.Status = calculator.SinkFunc(func(text string) {
		boardStatus.SetText(text)
		if text != "" {
			fmt.Fprintf(out, "» %s\n", text)
		}
	})

	calc := calculator.New(board, sinks, f,
		calculator.WithClipboard(clip),
		calculator.WithPractitioner(c.String("practitioner")),
	)
	defer calc.Close()
	calc.Bind(board)
	calc.Calculate()

	fmt.Fprintln(out, interactiveHelp)
	scanner := bufio.NewScanner(c.App.Reader)
	for {
		fmt.Fprint(out, "> ")
		if !scanner.Scan() {
			fmt.Fprintln(out)
			return scanner.Err()
		}

		line := strings.TrimSpace(scanner.Text())
		switch line {
		case "":
			continue
		case "quit", "exit":
			return nil
		case "help", "?":
			fmt.Fprintln(out, interactiveHelp)
		case "show":
			_ = writeBreakdown(out, boardDisplay(board))
		case "summary":
			fmt.Fprintln(out, calc.SummaryText())
		case "copy":
			_ = calc.CopySummary(c.Context)
		case "reset":
			calc.Reset()
			_ = writeBreakdown(out, boardDisplay(board))
		default:
			if err := applyEdits(board, line); err != nil {
				fmt.Fprintf(out, "error: %v\n", err)
				continue
			}
			_ = writeBreakdown(out, boardDisplay(board))
		}
	}
}

// applyEdits parses "name=value" pairs separated by spaces.
func applyEdits(board *calculator.Board, line string) error {
	for _, pair := range strings.Fields(line) {
		name, value, ok := strings.Cut(pair, "=")
		if !ok {
			return fmt.Errorf("unknown command %q, type help", pair)
		}
		field, known := fieldAliases[name]
		if !known {
			return fmt.Errorf("%w: %q", calculator.ErrUnknownField, name)
		}
		if err := board.Set(field, value); err != nil {
			return err
		}
	}
	return nil
}

func boardDisplay(b *calculator.Board) calculator.Display {
	return calculator.Display{
		Medicine:           b.Text(calculator.RegionMedicine),
		Fees:               b.Text(calculator.RegionFees),
		Preparation:        b.Text(calculator.RegionPreparation),
		Transport:          b.Text(calculator.RegionTransport),
		PreparationPercent: b.Text(calculator.RegionPreparationPercent),
		TransportPercent:   b.Text(calculator.RegionTransportPercent),
		Total:              b.Text(calculator.RegionTotal),
	}
}
