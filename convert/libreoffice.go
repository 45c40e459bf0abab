package convert

import (
	"bytes"
	"context"
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"strings"
	"time"
)

// candidate soffice locations checked after PATH
var libreOfficePaths = []string{
	"/usr/bin/soffice",
	"/usr/lib/libreoffice/program/soffice",
	"/opt/libreoffice/program/soffice",
	"/Applications/LibreOffice.app/Contents/MacOS/soffice",
	`C:\Program Files\LibreOffice\program\soffice.exe`,
	`C:\Program Files (x86)\LibreOffice\program\soffice.exe`,
}

// LibreOffice converts with soffice --headless --convert-to pdf.
type LibreOffice struct {
	Binary  string        // empty: search PATH and the usual install dirs
	OutDir  string        // empty: next to the docx
	Timeout time.Duration // zero: 30s
}

func (l *LibreOffice) Name() string { return "libreoffice" }

// Available reports whether a soffice binary can be found.
func (l *LibreOffice) Available() bool {
	_, err := l.binary()
	return err == nil
}

func (l *LibreOffice) binary() (string, error) {
	if l.Binary != "" {
		if p, err := exec.LookPath(l.Binary); err == nil {
			return p, nil
		}
		return "", fmt.Errorf("%w: %s not found", ErrConverterMissing, l.Binary)
	}
	for _, name := range []string{"libreoffice", "soffice"} {
		if p, err := exec.LookPath(name); err == nil {
			return p, nil
		}
	}
	for _, p := range libreOfficePaths {
		if fi, err := os.Stat(p); err == nil && !fi.IsDir() {
			return p, nil
		}
	}
	return "", fmt.Errorf("%w: libreoffice not installed", ErrConverterMissing)
}

// Convert runs one headless conversion.
func (l *LibreOffice) Convert(ctx context.Context, docxPath string) (string, error) {
	bin, err := l.binary()
	if err != nil {
		return "", err
	}

	timeout := l.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	out := pdfPathFor(docxPath, l.OutDir)
	outDir := filepath.Dir(out)

	var stderr bytes.Buffer
	cmd := exec.CommandContext(ctx, bin, "--headless", "--convert-to", "pdf", "--outdir", outDir, docxPath)
	cmd.Stderr = &stderr
	if err := cmd.Run(); err != nil {
		if ctx.Err() != nil {
			return "", fmt.Errorf("libreoffice timed out after %s: %w", timeout, ctx.Err())
		}
		return "", fmt.Errorf("libreoffice: %w: %s", err, strings.TrimSpace(stderr.String()))
	}
	if _, err := os.Stat(out); err != nil {
		return "", fmt.Errorf("libreoffice produced no %s: %w", out, err)
	}
	return out, nil
}
