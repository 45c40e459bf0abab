// Package convert turns generated docx files into PDF.
package convert

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
)

var (
	// ErrConversionFailed wraps every converter failure.
	ErrConversionFailed = errors.New("pdf conversion failed")
	// ErrConverterMissing - the converter's external program is not installed.
	ErrConverterMissing = errors.New("pdf converter not available")
)

// Converter - docx path in, pdf path out.
type Converter interface {
	Name() string
	Convert(ctx context.Context, docxPath string) (string, error)
}

// Chain tries converters in order and returns the first success.
type Chain []Converter

func (c Chain) Name() string {
	names := make([]string, 0, len(c))
	for _, conv := range c {
		names = append(names, conv.Name())
	}
	return strings.Join(names, ",")
}

// Convert - first converter that succeeds wins; all failures are joined.
func (c Chain) Convert(ctx context.Context, docxPath string) (string, error) {
	if len(c) == 0 {
		return "", fmt.Errorf("%w: %w: none configured", ErrConversionFailed, ErrConverterMissing)
	}
	var errs []error
	for _, conv := range c {
		if err := ctx.Err(); err != nil {
			errs = append(errs, err)
			break
		}
		out, err := conv.Convert(ctx, docxPath)
		if err == nil {
			return out, nil
		}
		errs = append(errs, fmt.Errorf("%s: %w", conv.Name(), err))
	}
	return "", fmt.Errorf("%w: %w", ErrConversionFailed, errors.Join(errs...))
}

// pdfPathFor - the pdf written next to (or into outDir for) a docx.
func pdfPathFor(docxPath, outDir string) string {
	base := strings.TrimSuffix(filepath.Base(docxPath), filepath.Ext(docxPath)) + ".pdf"
	if outDir == "" {
		outDir = filepath.Dir(docxPath)
	}
	return filepath.Join(outDir, base)
}
