package convert

import (
	"context"
	"fmt"
	"os"
	"os/exec"
	"time"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"

	"suratgen"
)

// Chrome renders the letter's simplified HTML in headless Chrome and prints
// it to A4. Layout is approximate; it is the fallback when LibreOffice is
// not installed.
type Chrome struct {
	ExecPath string        // empty: chromedp's own lookup
	OutDir   string        // empty: next to the docx
	Timeout  time.Duration // zero: 30s
}

func (c *Chrome) Name() string { return "chrome" }

// Available reports whether a Chrome binary can be found.
func (c *Chrome) Available() bool {
	if c.ExecPath != "" {
		_, err := exec.LookPath(c.ExecPath)
		return err == nil
	}
	for _, name := range []string{"google-chrome", "chromium", "chromium-browser", "headless-shell"} {
		if _, err := exec.LookPath(name); err == nil {
			return true
		}
	}
	return false
}

// Convert renders docxPath and writes the pdf.
func (c *Chrome) Convert(ctx context.Context, docxPath string) (string, error) {
	if !c.Available() {
		return "", fmt.Errorf("%w: chrome not installed", ErrConverterMissing)
	}

	doc, err := suratgen.Open(docxPath)
	if err != nil {
		return "", err
	}
	pdf, err := c.Render(ctx, doc.HTML())
	if err != nil {
		return "", err
	}

	out := pdfPathFor(docxPath, c.OutDir)
	if err := os.WriteFile(out, pdf, 0644); err != nil {
		return "", fmt.Errorf("write pdf: %w", err)
	}
	return out, nil
}

// Render prints an HTML document to PDF bytes.
func (c *Chrome) Render(ctx context.Context, htmlContent string) ([]byte, error) {
	timeout := c.Timeout
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	ctx, cancel := context.WithTimeout(ctx, timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.NoSandbox,
		chromedp.DisableGPU,
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if c.ExecPath != "" {
		opts = append(opts, chromedp.ExecPath(c.ExecPath))
	}

	allocCtx, allocCancel := chromedp.NewExecAllocator(ctx, opts...)
	defer allocCancel()

	taskCtx, taskCancel := chromedp.NewContext(allocCtx)
	defer taskCancel()

	var pdfBuf []byte
	err := chromedp.Run(taskCtx,
		chromedp.Navigate("about:blank"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			frameTree, err := page.GetFrameTree().Do(ctx)
			if err != nil {
				return err
			}
			return page.SetDocumentContent(frameTree.Frame.ID, htmlContent).Do(ctx)
		}),
		chromedp.WaitReady("body"),
		chromedp.ActionFunc(func(ctx context.Context) error {
			buf, _, err := page.PrintToPDF().
				WithPaperWidth(8.27).
				WithPaperHeight(11.69).
				WithMarginTop(0.98).
				WithMarginBottom(0.98).
				WithMarginLeft(0.98).
				WithMarginRight(0.98).
				WithPrintBackground(true).
				WithPreferCSSPageSize(true).
				Do(ctx)
			if err != nil {
				return err
			}
			pdfBuf = buf
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("chrome pdf generation failed: %w", err)
	}
	return pdfBuf, nil
}
