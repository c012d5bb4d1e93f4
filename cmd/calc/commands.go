package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"text/tabwriter"

	"github.com/urfave/cli/v2"

	"github.com/Simplici0/costcalc/internal/calculator"
	"github.com/Simplici0/costcalc/internal/money"
	"github.com/Simplici0/costcalc/internal/profile"
	"github.com/Simplici0/costcalc/internal/qr"
)

func newApp(in io.Reader, out, errOut io.Writer, clip calculator.Clipboard) *cli.App {
	return &cli.App{
		Name:      "calc",
		Usage:     "medicine cost calculator",
		Reader:    in,
		Writer:    out,
		ErrWriter: errOut,
		Flags: []cli.Flag{
			&cli.StringFlag{Name: "locale", Value: money.DefaultLocale, EnvVars: []string{"LOCALE"}, Usage: "currency locale"},
			&cli.StringFlag{Name: "currency", Value: money.DefaultCurrency, EnvVars: []string{"CURRENCY"}, Usage: "ISO 4217 currency code"},
			&cli.StringFlag{Name: "practitioner", Value: calculator.DefaultPractitioner, EnvVars: []string{"PRACTITIONER_NAME"}, Usage: "name in the summary title"},
		},
		Commands: []*cli.Command{
			{
				Name:   "total",
				Usage:  "print the cost breakdown",
				Flags:  append(inputFlags(), &cli.BoolFlag{Name: "json", Usage: "print the full result as JSON"}),
				Action: runTotal,
			},
			{
				Name:  "summary",
				Usage: "print the six-line cost summary",
				Flags: append(inputFlags(), &cli.BoolFlag{Name: "copy", Usage: "also copy the summary to the clipboard"}),
				Action: func(c *cli.Context) error {
					return runSummary(c, clip)
				},
			},
			{
				Name:  "qr",
				Usage: "render the QR code of a page address",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: "url", Required: true, Usage: "page address to encode"},
					&cli.IntFlag{Name: "size", Value: qr.DefaultSize, Usage: "image edge in pixels"},
					&cli.StringFlag{Name: "out", Usage: "write a PNG to this path"},
					&cli.StringFlag{Name: "pdf", Usage: "write a printable PDF to this path"},
					&cli.BoolFlag{Name: "remote", Usage: "print the service image address instead"},
				},
				Action: runQR,
			},
			{
				Name:  "interactive",
				Usage: "edit the fields in a terminal session",
				Action: func(c *cli.Context) error {
					return runInteractive(c, clip)
				},
			},
		},
	}
}

func inputFlags() []cli.Flag {
	return []cli.Flag{
		&cli.StringFlag{Name: "medicine", Aliases: []string{"m"}, Usage: "medicine cost"},
		&cli.StringFlag{Name: "fees", Aliases: []string{"f"}, Usage: "fees"},
		&cli.StringFlag{Name: "prep", Aliases: []string{"p"}, Usage: "preparation percent of fees"},
		&cli.StringFlag{Name: "transport", Aliases: []string{"t"}, Usage: "transport and packaging percent of fees"},
	}
}

func rawFromFlags(c *cli.Context) calculator.RawInputs {
	return calculator.RawInputs{
		Medicine:           c.String("medicine"),
		Fees:               c.String("fees"),
		PreparationPercent: c.String("prep"),
		TransportPercent:   c.String("transport"),
	}
}

func formatterFromFlags(c *cli.Context) (*money.Formatter, error) {
	f, err := money.NewFormatter(c.String("locale"), c.String("currency"))
	if err != nil {
		return nil, cli.Exit(err.Error(), 2)
	}
	return f, nil
}

func runTotal(c *cli.Context) error {
	f, err := formatterFromFlags(c)
	if err != nil {
		return err
	}
	res := calculator.Compute(rawFromFlags(c), f)

	if c.Bool("json") {
		enc := json.NewEncoder(c.App.Writer)
		enc.SetIndent("", "  ")
		return enc.Encode(res)
	}
	return writeBreakdown(c.App.Writer, res.Display)
}

func writeBreakdown(w io.Writer, d calculator.Display) error {
	tw := tabwriter.NewWriter(w, 0, 0, 2, ' ', 0)
	fmt.Fprintf(tw, "Medicine\t%s\n", d.Medicine)
	fmt.Fprintf(tw, "Fees\t%s\n", d.Fees)
	fmt.Fprintf(tw, "Preparation (%s)\t%s\n", d.PreparationPercent, d.Preparation)
	fmt.Fprintf(tw, "Transport & Packaging (%s)\t%s\n", d.TransportPercent, d.Transport)
	fmt.Fprintf(tw, "Total\t%s\n", d.Total)
	return tw.Flush()
}

func runSummary(c *cli.Context, clip calculator.Clipboard) error {
	f, err := formatterFromFlags(c)
	if err != nil {
		return err
	}

	board := calculator.NewBoard()
	for field, value := range map[string]string{
		calculator.FieldMedicine:           c.String("medicine"),
		calculator.FieldFees:               c.String("fees"),
		calculator.FieldPreparationPercent: c.String("prep"),
		calculator.FieldTransportPercent:   c.String("transport"),
	} {
		if err := board.Set(field, value); err != nil {
			return err
		}
	}

	calc := calculator.New(board, board.Sinks(), f,
		calculator.WithClipboard(clip),
		calculator.WithPractitioner(c.String("practitioner")),
	)
	defer calc.Close()

	fmt.Fprintln(c.App.Writer, calc.SummaryText())
	if !c.Bool("copy") {
		return nil
	}

	// The status region is the user-facing outcome; the error is not fatal.
	_ = calc.CopySummary(c.Context)
	fmt.Fprintln(c.App.ErrWriter, board.Text(calculator.RegionStatus))
	return nil
}

func runQR(c *cli.Context) error {
	pageURL := c.String("url")
	size := c.Int("size")

	if c.Bool("remote") {
		fmt.Fprintln(c.App.Writer, qr.ServiceURL(pageURL, size))
		return nil
	}

	outPath, pdfPath := c.String("out"), c.String("pdf")
	if outPath == "" && pdfPath == "" {
		art, err := qr.Terminal(pageURL)
		if err != nil {
			return err
		}
		fmt.Fprint(c.App.Writer, art)
		fmt.Fprintln(c.App.Writer, qr.Caption(pageURL))
		return nil
	}

	png, err := qr.PNG(pageURL, size)
	if err != nil {
		return err
	}
	if outPath != "" {
		if err := os.WriteFile(outPath, png, 0o644); err != nil {
			return fmt.Errorf("write %s: %w", outPath, err)
		}
		fmt.Fprintf(c.App.Writer, "wrote %s\n", outPath)
	}
	if pdfPath != "" {
		if err := writePDFFile(pdfPath, png, profile.Profile{PractitionerName: c.String("practitioner")}.PrintTitle(), pageURL); err != nil {
			return err
		}
		fmt.Fprintf(c.App.Writer, "wrote %s\n", pdfPath)
	}
	return nil
}

func writePDFFile(path string, png []byte, title, pageURL string) (err error) {
	f, err := os.Create(path)
	if err != nil {
		return fmt.Errorf("create %s: %w", path, err)
	}
	defer func() {
		if closeErr := f.Close(); err == nil && closeErr != nil {
			err = fmt.Errorf("close %s: %w", path, closeErr)
		}
	}()
	return qr.WritePDF(f, png, title, pageURL)
}
