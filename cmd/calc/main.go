// Command calc runs the medicine cost calculator in a terminal.
package main

import (
	"context"
	"os"

	"github.com/atotto/clipboard"

	"github.com/Simplici0/costcalc/internal/calculator"
	"github.com/Simplici0/costcalc/internal/logging"
)

func main() {
	app := newApp(os.Stdin, os.Stdout, os.Stderr, systemClipboard())
	if err := app.Run(os.Args); err != nil {
		logger := logging.New(os.Stderr, "console", "error")
		logger.Fatal().Err(err).Msg("calc failed")
	}
}

// systemClipboard returns the OS clipboard, or nil when the platform has no
// clipboard utility.
func systemClipboard() calculator.Clipboard {
	if clipboard.Unsupported {
		return nil
	}
	return calculator.ClipboardFunc(func(_ context.Context, text string) error {
		return clipboard.WriteAll(text)
	})
}
