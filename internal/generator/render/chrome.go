package render

import (
	"context"
	"encoding/base64"
	"fmt"
	"time"

	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"constellar/internal/generator/models"
)

// ============================================================
// Headless Chrome rasterizer
// ============================================================

const defaultChromeTimeout = 30 * time.Second

// Chrome открывает SVG сцены как data URI в headless Chrome и снимает скриншот элемента svg.
type Chrome struct {
	renderer *Renderer
	timeout  time.Duration
	logger   *zap.Logger
}

func NewChrome(renderer *Renderer, timeout time.Duration, logger *zap.Logger) *Chrome {
	if timeout <= 0 {
		timeout = defaultChromeTimeout
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Chrome{renderer: renderer, timeout: timeout, logger: logger.Named("chrome")}
}

func (c *Chrome) PNG(ctx context.Context, scene *models.Scene) ([]byte, error) {
	svg, err := c.renderer.SVG(scene)
	if err != nil {
		return nil, fmt.Errorf("failed to generate intermediate SVG: %w", err)
	}
	dataURI := "data:image/svg+xml;base64," + base64.StdEncoding.EncodeToString([]byte(svg))

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	opts := append(chromedp.DefaultExecAllocatorOptions[:], chromedp.Headless, chromedp.DisableGPU)
	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx)
	defer cancelBrowser()

	var screenshot []byte
	tasks := chromedp.Tasks{
		chromedp.Navigate(dataURI),
		chromedp.WaitVisible(`svg`, chromedp.ByQuery),
		chromedp.Screenshot(`svg`, &screenshot, chromedp.ByQuery),
	}

	start := time.Now()
	if err := chromedp.Run(browserCtx, tasks); err != nil {
		return nil, fmt.Errorf("chromedp execution failed: %w", err)
	}
	if len(screenshot) == 0 {
		return nil, fmt.Errorf("screenshot buffer is empty")
	}

	c.logger.Debug("scene rasterized",
		zap.Int("elements", len(scene.Elements)),
		zap.Int("bytes", len(screenshot)),
		zap.Duration("took", time.Since(start)),
	)
	return screenshot, nil
}
