package proxy

import (
	"bytes"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/gofiber/fiber/v3"
	"go.uber.org/zap"

	"constellar/internal/common/httperr"
	"constellar/internal/common/middleware"
)

// ============================================================
// Proxy Handler
// ============================================================

const defaultTimeout = 60 * time.Second

// Заголовки запроса, которые уходят в апстрим.
var forwardedHeaders = []string{
	fiber.HeaderContentType,
	fiber.HeaderAccept,
	fiber.HeaderAuthorization,
	fiber.HeaderXRequestID,
	middleware.UserIDHeader,
}

// Заголовки ответа, которые fiber выставляет сам.
var skippedHeaders = map[string]bool{
	fiber.HeaderContentLength:    true,
	fiber.HeaderConnection:       true,
	fiber.HeaderTransferEncoding: true,
}

type Proxy struct {
	client *http.Client
	logger *zap.Logger
}

func New(client *http.Client, logger *zap.Logger) *Proxy {
	if client == nil {
		client = &http.Client{Timeout: defaultTimeout}
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Proxy{client: client, logger: logger.Named("proxy")}
}

// StripTo проксирует запрос в baseURL, отрезая prefix от пути. Query string сохраняется.
func (p *Proxy) StripTo(prefix, baseURL string) fiber.Handler {
	base := strings.TrimRight(baseURL, "/")
	return func(c fiber.Ctx) error {
		target := base + strings.TrimPrefix(c.Path(), prefix)
		if query := c.Request().URI().QueryString(); len(query) > 0 {
			target += "?" + string(query)
		}
		return p.Forward(c, target)
	}
}

// Forward проксирует запрос по переданному URL с исходными методом и телом.
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	start := time.Now()

	req, err := http.NewRequestWithContext(c.Context(), c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		p.logger.Error("build request", zap.String("target", targetURL), zap.Error(err))
		return httperr.Internal(c, err)
	}
	for _, key := range forwardedHeaders {
		if value := c.Get(key); value != "" {
			req.Header.Set(key, value)
		}
	}

	resp, err := p.client.Do(req)
	if err != nil {
		p.logger.Warn("upstream unreachable", zap.String("target", targetURL), zap.Error(err))
		return httperr.BadGateway(c, "failed to reach upstream service")
	}
	defer resp.Body.Close()

	data, err := io.ReadAll(resp.Body)
	if err != nil {
		p.logger.Warn("read upstream response", zap.String("target", targetURL), zap.Error(err))
		return httperr.BadGateway(c, "invalid upstream response")
	}

	for key, values := range resp.Header {
		if len(values) > 0 && !skippedHeaders[key] {
			c.Set(key, values[0])
		}
	}

	p.logger.Debug("forwarded",
		zap.String("method", c.Method()),
		zap.String("target", targetURL),
		zap.Int("status", resp.StatusCode),
		zap.Int("bytes", len(data)),
		zap.Duration("took", time.Since(start)),
	)

	c.Status(resp.StatusCode)
	return c.Send(data)
}
