// Package browser provides headless Chrome management for exporting the
// complaint report as PDF.
//
// This package handles Chrome/Chromium lifecycle using ChromeDP: creating an
// allocator with headless flags, opening a tab, and printing a page.
package browser

import (
	"context"
	"fmt"

	"github.com/chromedp/cdproto/page"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"
)

// NewContext creates a headless Chrome browser context.
//
// execPath selects the browser binary; empty lets chromedp search the usual
// locations. The returned cancel function closes the tab and stops the
// browser process.
func NewContext(parent context.Context, execPath string, logger *zap.Logger) (context.Context, context.CancelFunc) {
	if logger == nil {
		logger = zap.NewNop()
	}

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.DisableGPU,
		chromedp.NoSandbox,
		chromedp.Flag("hide-scrollbars", true),
	)
	if execPath != "" {
		opts = append(opts, chromedp.ExecPath(execPath))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(parent, opts...)
	sugar := logger.Sugar()
	ctx, cancelCtx := chromedp.NewContext(allocCtx,
		chromedp.WithLogf(sugar.Debugf),
		chromedp.WithErrorf(sugar.Errorf),
	)

	logger.Debug("browser context created", zap.String("exec_path", execPath))
	return ctx, func() {
		cancelCtx()
		cancelAlloc()
	}
}

// PrintToPDF navigates to url and prints it in landscape with backgrounds,
// so the green table header survives.
func PrintToPDF(ctx context.Context, url string) ([]byte, error) {
	var buf []byte
	err := chromedp.Run(ctx,
		chromedp.Navigate(url),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.ActionFunc(func(ctx context.Context) error {
			data, _, err := page.PrintToPDF().
				WithLandscape(true).
				WithPrintBackground(true).
				Do(ctx)
			if err != nil {
				return err
			}
			buf = data
			return nil
		}),
	)
	if err != nil {
		return nil, fmt.Errorf("failed to print %s: %w", url, err)
	}
	return buf, nil
}
