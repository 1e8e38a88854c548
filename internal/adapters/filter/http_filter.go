package filter

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/gofiber/fiber/v2"
	"github.com/google/uuid"
	"github.com/mikey/url-guard/internal/core"
	"github.com/mikey/url-guard/internal/ports"
	"github.com/mikey/url-guard/internal/utils"
	"go.uber.org/zap"
)

const requestIDHeader = "X-Request-ID"

// classifyRequest is the body of a batch classification
type classifyRequest struct {
	URLs []string `json:"urls"`
}

// classifyResult is one entry of a batch response
type classifyResult struct {
	URL     string        `json:"url"`
	Verdict *core.Verdict `json:"verdict,omitempty"`
	Error   string        `json:"error,omitempty"`
}

// HTTPFilter serves verdicts over a JSON API
type HTTPFilter struct {
	service       ports.Classifier
	logger        *zap.Logger
	textProcessor *utils.TextProcessor
	listenAddr    string
	maxURLs       int
	app           *fiber.App
}

// NewHTTPFilter creates the HTTP verdict API
func NewHTTPFilter(
	service ports.Classifier,
	logger *zap.Logger,
	textProcessor *utils.TextProcessor,
	listenAddr string,
	maxURLs int,
	readTimeout time.Duration,
) *HTTPFilter {
	f := &HTTPFilter{
		service:       service,
		logger:        logger,
		textProcessor: textProcessor,
		listenAddr:    listenAddr,
		maxURLs:       maxURLs,
	}

	f.app = fiber.New(fiber.Config{
		AppName:               "url-guard",
		DisableStartupMessage: true,
		Immutable:             true,
		ReadTimeout:           readTimeout,
		ErrorHandler:          f.handleError,
	})
	f.app.Use(f.requestID)
	f.app.Get("/health", f.handleHealth)
	f.app.Get("/v1/classify", f.handleClassify)
	f.app.Post("/v1/classify", f.handleClassifyBatch)

	return f
}

// App exposes the fiber application, mainly for tests
func (f *HTTPFilter) App() *fiber.App {
	return f.app
}

// Start starts listening in the background
func (f *HTTPFilter) Start() error {
	f.logger.Info("HTTP filter starting", zap.String("address", f.listenAddr))

	go func() {
		if err := f.app.Listen(f.listenAddr); err != nil {
			f.logger.Error("HTTP server error", zap.Error(err))
		}
	}()

	return nil
}

// Stop shuts the server down
func (f *HTTPFilter) Stop() error {
	return f.app.ShutdownWithTimeout(5 * time.Second)
}

// ProcessURL classifies a single URL
func (f *HTTPFilter) ProcessURL(ctx context.Context, url string) (*core.Verdict, error) {
	return f.service.Classify(ctx, url)
}

func (f *HTTPFilter) requestID(c *fiber.Ctx) error {
	id := c.Get(requestIDHeader)
	if id == "" {
		id = uuid.NewString()
	}
	c.Locals("request_id", id)
	c.Set(requestIDHeader, id)
	return c.Next()
}

func (f *HTTPFilter) handleHealth(c *fiber.Ctx) error {
	return c.JSON(fiber.Map{"status": "ok"})
}

func (f *HTTPFilter) handleClassify(c *fiber.Ctx) error {
	url := f.textProcessor.SanitizeUTF8(strings.Clone(c.Query("url")))
	if url == "" {
		return fiber.NewError(fiber.StatusBadRequest, "missing url parameter")
	}

	verdict, err := f.service.Classify(c.UserContext(), url)
	if err != nil {
		return err
	}

	f.logVerdict(c, verdict)
	return c.JSON(verdict)
}

func (f *HTTPFilter) handleClassifyBatch(c *fiber.Ctx) error {
	var req classifyRequest
	if err := c.BodyParser(&req); err != nil {
		return fiber.NewError(fiber.StatusBadRequest, "invalid request body")
	}
	if len(req.URLs) == 0 {
		return fiber.NewError(fiber.StatusBadRequest, "no urls provided")
	}
	if f.maxURLs > 0 && len(req.URLs) > f.maxURLs {
		return fiber.NewError(fiber.StatusBadRequest, "too many urls")
	}

	for i, u := range req.URLs {
		req.URLs[i] = f.textProcessor.SanitizeUTF8(u)
	}

	batch := f.service.ClassifyAll(c.UserContext(), req.URLs)
	results := make([]classifyResult, len(batch))
	for i, r := range batch {
		results[i] = classifyResult{URL: r.URL, Verdict: r.Verdict}
		if r.Err != nil {
			results[i].Error = r.Err.Error()
			continue
		}
		f.logVerdict(c, r.Verdict)
	}

	return c.JSON(fiber.Map{"results": results})
}

func (f *HTTPFilter) handleError(c *fiber.Ctx, err error) error {
	status := fiber.StatusInternalServerError
	var fe *fiber.Error
	if errors.As(err, &fe) {
		status = fe.Code
	}

	requestID, _ := c.Locals("request_id").(string)
	if status >= fiber.StatusInternalServerError {
		f.logger.Error("Request failed",
			zap.String("request_id", requestID),
			zap.String("path", c.Path()),
			zap.Error(err))
	}

	return c.Status(status).JSON(fiber.Map{"error": err.Error()})
}

func (f *HTTPFilter) logVerdict(c *fiber.Ctx, v *core.Verdict) {
	requestID, _ := c.Locals("request_id").(string)
	f.logger.Info("Classified URL",
		zap.String("request_id", requestID),
		zap.String("domain", v.Domain),
		zap.String("label", string(v.Label)),
		zap.String("reason", string(v.Reason)),
		zap.Float64("score", v.ScoreValue()))
}
