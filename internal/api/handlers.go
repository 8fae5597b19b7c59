// handlers.go - HTTP handlers for dekont analysis

package api

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/stajtakip/dekont_verifier/internal/common"
	"github.com/stajtakip/dekont_verifier/internal/processor"
	"github.com/stajtakip/dekont_verifier/internal/storage"
)

// ExpectedSource loads the payment record a dekont belongs to
type ExpectedSource interface {
	GetPaymentRecord(ctx context.Context, paymentID string) (*storage.PaymentRecord, error)
}

// HealthChecker reports whether a dependency is reachable
type HealthChecker interface {
	Ping(ctx context.Context) error
}

var errLookupDisabled = errors.New("payment lookup is not configured")

// Options configures a Handler
type Options struct {
	Payments     ExpectedSource // nil disables payment_id lookups
	Health       HealthChecker  // optional
	Timeout      time.Duration
	MaxBatchSize int
	Workers      int
	AllowDebug   bool // honour ?debug=true
}

// Handler serves the analysis endpoints
type Handler struct {
	analyzer *processor.Analyzer
	opts     Options
}

// NewHandler creates a handler around analyzer
func NewHandler(analyzer *processor.Analyzer, opts Options) *Handler {
	if opts.Timeout <= 0 {
		opts.Timeout = 30 * time.Second
	}
	if opts.MaxBatchSize <= 0 {
		opts.MaxBatchSize = 100
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Handler{analyzer: analyzer, opts: opts}
}

// ExpectedRequest is the expected metadata as sent by the client
type ExpectedRequest struct {
	StudentName string  `json:"student_name"`
	CompanyName string  `json:"company_name"`
	Amount      float64 `json:"amount" binding:"gte=0"`
	Month       int     `json:"month" binding:"gte=0,lte=12"`
	Year        int     `json:"year" binding:"gte=0"`
}

func (e *ExpectedRequest) metadata() processor.ExpectedMetadata {
	return processor.ExpectedMetadata{
		StudentName: e.StudentName,
		CompanyName: e.CompanyName,
		Amount:      e.Amount,
		Month:       e.Month,
		Year:        e.Year,
	}
}

// AnalyzeRequest is the body of POST /api/v1/analyze-dekont
type AnalyzeRequest struct {
	RawText   string           `json:"raw_text"`
	Expected  *ExpectedRequest `json:"expected"`
	PaymentID string           `json:"payment_id"`
}

// BatchItemRequest is one entry of a batch request
type BatchItemRequest struct {
	ID        string           `json:"id" binding:"required"`
	RawText   string           `json:"raw_text"`
	Expected  *ExpectedRequest `json:"expected"`
	PaymentID string           `json:"payment_id"`
}

// BatchRequest is the body of POST /api/v1/analyze-dekont/batch
type BatchRequest struct {
	Items []BatchItemRequest `json:"items" binding:"required,min=1,dive"`
}

// BatchItemResponse is one entry of the batch response
type BatchItemResponse struct {
	ID       string                   `json:"id"`
	Analysis processor.AnalysisResult `json:"analysis"`
	Error    string                   `json:"error,omitempty"`
}

// AnalyzeDekontHandler analyzes a single dekont
func (h *Handler) AnalyzeDekontHandler(c *gin.Context) {
	// Step 1: Parse JSON request body
	var req AnalyzeRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":   "error",
			"error":    "Invalid request format",
			"details":  err.Error(),
			"expected": "JSON with raw_text and expected or payment_id",
		})
		return
	}

	// Create request context for tracking
	reqCtx := common.NewRequestContext("analyze-dekont")

	// Step 2: Resolve the expected metadata
	expected, err := h.resolveExpected(c.Request.Context(), reqCtx, req.Expected, req.PaymentID)
	if err != nil {
		c.JSON(lookupStatus(err), gin.H{
			"status":     "error",
			"error":      "Failed to load payment record",
			"details":    err.Error(),
			"request_id": reqCtx.RequestID,
		})
		return
	}

	// Step 3: Analyze under the request timeout
	var result processor.AnalysisResult
	err = h.runWithTimeout(c.Request.Context(), func() {
		result = h.analyzer.Analyze(processor.AnalysisInput{RawText: req.RawText, Expected: expected}, reqCtx)
	})
	if err != nil {
		h.timeoutResponse(c, reqCtx)
		return
	}

	summary := reqCtx.GetSummary()
	response := gin.H{
		"status":   "success",
		"analysis": result,
		"metadata": gin.H{
			"request_id":   reqCtx.RequestID,
			"processed_at": time.Now().Format(time.RFC3339),
			"duration_ms":  summary["total_duration_ms"],
		},
	}
	if h.debugRequested(c) {
		response["debug_data"] = gin.H{"steps": reqCtx.Steps, "summary": summary}
	}
	c.JSON(http.StatusOK, response)
}

// AnalyzeBatchHandler analyzes several dekonts, preserving order and ids
func (h *Handler) AnalyzeBatchHandler(c *gin.Context) {
	var req BatchRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{
			"status":   "error",
			"error":    "Invalid request format",
			"details":  err.Error(),
			"expected": "JSON with a non-empty items array, every item with an id",
		})
		return
	}
	if len(req.Items) > h.opts.MaxBatchSize {
		c.JSON(http.StatusBadRequest, gin.H{
			"status": "error",
			"error":  fmt.Sprintf("batch too large: %d items, maximum is %d", len(req.Items), h.opts.MaxBatchSize),
		})
		return
	}

	reqCtx := common.NewRequestContext("analyze-dekont-batch")
	reqCtx.LogInfo("batch received | items: %d", len(req.Items))

	// A failed lookup degrades its own item only
	items := make([]processor.BatchItem, len(req.Items))
	lookupErrors := make([]string, len(req.Items))
	for i, it := range req.Items {
		expected, err := h.resolveExpected(c.Request.Context(), reqCtx, it.Expected, it.PaymentID)
		if err != nil {
			lookupErrors[i] = err.Error()
			reqCtx.LogWarning("item %s: %v", it.ID, err)
		}
		items[i] = processor.BatchItem{ID: it.ID, RawText: it.RawText, Expected: expected}
	}

	var results []processor.BatchResult
	err := h.runWithTimeout(c.Request.Context(), func() {
		results = h.analyzer.AnalyzeBatch(items, h.opts.Workers, reqCtx)
	})
	if err != nil {
		h.timeoutResponse(c, reqCtx)
		return
	}

	out := make([]BatchItemResponse, len(results))
	for i, r := range results {
		out[i] = BatchItemResponse{ID: r.ID, Analysis: r.Analysis, Error: lookupErrors[i]}
	}

	summary := reqCtx.GetSummary()
	c.JSON(http.StatusOK, gin.H{
		"status":  "success",
		"results": out,
		"metadata": gin.H{
			"request_id":   reqCtx.RequestID,
			"processed_at": time.Now().Format(time.RFC3339),
			"duration_ms":  summary["total_duration_ms"],
			"items":        len(out),
		},
	})
}

// HealthHandler reports service and payment store status
func (h *Handler) HealthHandler(c *gin.Context) {
	status, code := "ok", http.StatusOK
	lookup := "disabled"

	if h.opts.Payments != nil {
		lookup = "enabled"
	}
	if h.opts.Health != nil {
		if err := h.opts.Health.Ping(c.Request.Context()); err != nil {
			lookup = "unreachable"
			status, code = "degraded", http.StatusServiceUnavailable
		}
	}

	cfg := h.analyzer.Config()
	c.JSON(code, gin.H{
		"status":         status,
		"service":        "dekont-verifier",
		"version":        "1.0.0",
		"payment_lookup": lookup,
		"thresholds": gin.H{
			"reject_flag_count":       cfg.RejectFlagCount,
			"reject_reliability":      cfg.RejectReliability,
			"review_flag_count":       cfg.ReviewFlagCount,
			"review_warning_count":    cfg.ReviewWarningCount,
			"approve_min_reliability": cfg.ApproveMinReliability,
		},
	})
}

// resolveExpected returns explicit metadata when given, otherwise loads it by payment id
func (h *Handler) resolveExpected(ctx context.Context, reqCtx *common.RequestContext, explicit *ExpectedRequest, paymentID string) (processor.ExpectedMetadata, error) {
	if explicit != nil {
		return explicit.metadata(), nil
	}
	if paymentID == "" {
		return processor.ExpectedMetadata{}, nil
	}
	if h.opts.Payments == nil {
		return processor.ExpectedMetadata{}, errLookupDisabled
	}

	reqCtx.StartStep("load_expected")
	record, err := h.opts.Payments.GetPaymentRecord(ctx, paymentID)
	if err != nil {
		reqCtx.EndStep("failed", paymentID, err)
		return processor.ExpectedMetadata{}, err
	}
	reqCtx.EndStep("success", paymentID, nil)
	return record.Expected(), nil
}

func lookupStatus(err error) int {
	switch {
	case errors.Is(err, storage.ErrPaymentNotFound):
		return http.StatusNotFound
	case errors.Is(err, errLookupDisabled):
		return http.StatusServiceUnavailable
	default:
		return http.StatusBadGateway
	}
}

// runWithTimeout runs fn and stops waiting once the analysis timeout or the
// request context expires
func (h *Handler) runWithTimeout(ctx context.Context, fn func()) error {
	ctx, cancel := context.WithTimeout(ctx, h.opts.Timeout)
	defer cancel()

	done := make(chan struct{})
	go func() {
		defer close(done)
		fn()
	}()

	select {
	case <-done:
		return nil
	case <-ctx.Done():
		return ctx.Err()
	}
}

func (h *Handler) timeoutResponse(c *gin.Context, reqCtx *common.RequestContext) {
	reqCtx.LogError("⚠️  Request timeout after %s", h.opts.Timeout)
	c.JSON(http.StatusRequestTimeout, gin.H{
		"status":     "error",
		"error":      "Processing timeout",
		"message":    fmt.Sprintf("Analysis exceeded %s", h.opts.Timeout),
		"request_id": reqCtx.RequestID,
	})
}

func (h *Handler) debugRequested(c *gin.Context) bool {
	return h.opts.AllowDebug && c.Query("debug") == "true"
}
