// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package office

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	goruntime "runtime"
	"strings"

	"github.com/sirupsen/logrus"

	"github.com/pdiddy/deck-converter/internal/sysexec"
)

// ppSaveAsPDF is PowerPoint's PpSaveAsFileType value for PDF.
const ppSaveAsPDF = 32

// goos is overridden in tests.
var goos = goruntime.GOOS

// PowerPoint exports presentations to PDF through PowerPoint's COM
// automation object. It only works on Windows hosts with PowerPoint
// installed.
type PowerPoint struct {
	exec sysexec.Executor
	log  logrus.FieldLogger
}

// NewPowerPoint returns a PowerPoint driver using exec to start PowerShell.
func NewPowerPoint(exec sysexec.Executor, log logrus.FieldLogger) *PowerPoint {
	return &PowerPoint{exec: exec, log: log}
}

// Available reports whether this host can run PowerPoint automation.
func (p *PowerPoint) Available() bool {
	if goos != "windows" {
		return false
	}
	_, err := p.exec.LookPath("powershell")
	return err == nil
}

// ExportPDF opens inputPath read-only and saves it as a PDF at outputPath.
func (p *PowerPoint) ExportPDF(ctx context.Context, inputPath, outputPath string) error {
	if !p.Available() {
		return fmt.Errorf("powerpoint automation is not available on %s", goos)
	}

	in, err := filepath.Abs(inputPath)
	if err != nil {
		return err
	}
	out, err := filepath.Abs(outputPath)
	if err != nil {
		return err
	}

	script := exportScript(in, out)
	p.log.WithFields(logrus.Fields{"input": in, "output": out}).Debug("Running PowerPoint export.")

	if _, err := p.exec.RunCombined(ctx, "powershell",
		"-NoProfile", "-NonInteractive", "-ExecutionPolicy", "Bypass", "-Command", script,
	); err != nil {
		return fmt.Errorf("powerpoint export of %s: %w", filepath.Base(in), err)
	}

	if info, err := os.Stat(out); err != nil || info.Size() == 0 {
		return fmt.Errorf("powerpoint produced no output for %s", filepath.Base(in))
	}
	return nil
}

func exportScript(in, out string) string {
	var b strings.Builder
	b.WriteString("$ErrorActionPreference = 'Stop'\n")
	b.WriteString("$app = New-Object -ComObject PowerPoint.Application\n")
	b.WriteString("try {\n")
	// Open(FileName, ReadOnly=msoTrue, Untitled=msoFalse, WithWindow=msoFalse)
	fmt.Fprintf(&b, "  $deck = $app.Presentations.Open(%s, -1, 0, 0)\n", psQuote(in))
	fmt.Fprintf(&b, "  try { $deck.SaveAs(%s, %d) } finally { $deck.Close() }\n", psQuote(out), ppSaveAsPDF)
	b.WriteString("} finally {\n  $app.Quit()\n}\n")
	return b.String()
}

// psQuote renders s as a single-quoted PowerShell literal.
func psQuote(s string) string {
	return "'" + strings.ReplaceAll(s, "'", "''") + "'"
}
