// Package printing hands single-page PDFs to the host print system.
package printing

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"strings"
)

// Printer renders one page worth of PDF bytes onto a named printer.
// An empty printerName means the system default.
type Printer interface {
	Print(ctx context.Context, pdfBytes []byte, printerName string) (string, error)
}

// LPPrinter prints through the CUPS spooler (lpr). It covers Linux and
// macOS stations; print-less deployments use Noop instead.
type LPPrinter struct {
	logger *slog.Logger
}

func NewLPPrinter(logger *slog.Logger) *LPPrinter {
	if logger == nil {
		logger = slog.Default()
	}
	return &LPPrinter{logger: logger}
}

func (p *LPPrinter) Print(ctx context.Context, pdfBytes []byte, printerName string) (string, error) {
	tmp, err := os.CreateTemp("", "label-*.pdf")
	if err != nil {
		return "", fmt.Errorf("create spool file: %w", err)
	}
	defer os.Remove(tmp.Name())

	if _, err := tmp.Write(pdfBytes); err != nil {
		tmp.Close()
		return "", fmt.Errorf("write spool file: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return "", fmt.Errorf("close spool file: %w", err)
	}

	args := []string{}
	if printerName != "" {
		args = append(args, "-P", printerName)
	}
	args = append(args, tmp.Name())

	p.logger.Info("sending page to printer", "printer", printerName, "spool", tmp.Name())
	out, err := exec.CommandContext(ctx, "lpr", args...).CombinedOutput()
	if err != nil {
		return "", fmt.Errorf("lpr failed: %v: %s", err, strings.TrimSpace(string(out)))
	}

	if printerName == "" {
		return "sent to default printer", nil
	}
	return "sent to " + printerName, nil
}

// Noop records jobs without touching hardware. Used in tests and on
// stations that only preview.
type Noop struct{}

func (Noop) Print(context.Context, []byte, string) (string, error) {
	return "printing disabled", nil
}

// ListPrinters returns the system printer names and the default printer
// by parsing lpstat output. Hosts without CUPS return an empty list, not
// an error.
func ListPrinters(ctx context.Context) (printers []string, defaultPrinter string, err error) {
	out, err := exec.CommandContext(ctx, "lpstat", "-p").Output()
	if err != nil {
		return nil, "", nil
	}
	printers = parsePrinterList(string(out))

	if out, err := exec.CommandContext(ctx, "lpstat", "-d").Output(); err == nil {
		defaultPrinter = parseDefaultPrinter(string(out))
	}
	return printers, defaultPrinter, nil
}

// parsePrinterList reads "lpstat -p" output, one "printer <name> ..."
// line per queue.
func parsePrinterList(out string) []string {
	var printers []string
	for _, line := range strings.Split(strings.TrimSpace(out), "\n") {
		if !strings.HasPrefix(line, "printer") {
			continue
		}
		fields := strings.Fields(line)
		if len(fields) >= 2 {
			printers = append(printers, fields[1])
		}
	}
	return printers
}

// parseDefaultPrinter reads "lpstat -d" output, which is either
// "system default destination: <name>" or a no-default notice.
func parseDefaultPrinter(out string) string {
	if i := strings.LastIndex(out, ":"); i >= 0 {
		return strings.TrimSpace(out[i+1:])
	}
	return ""
}
