// request_context.go - Request tracking and logging system

package common

import (
	"fmt"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

var (
	baseLogger   = zap.NewNop()
	baseLoggerMu sync.RWMutex
)

// NewLogger builds the process logger. level is one of debug, info, warn, error.
func NewLogger(level string) (*zap.Logger, error) {
	lvl, err := zapcore.ParseLevel(strings.ToLower(strings.TrimSpace(level)))
	if err != nil {
		return nil, fmt.Errorf("invalid log level %q: %w", level, err)
	}

	cfg := zap.NewProductionConfig()
	cfg.Level = zap.NewAtomicLevelAt(lvl)
	cfg.Encoding = "console"
	cfg.EncoderConfig.EncodeTime = zapcore.TimeEncoderOfLayout("15:04:05.000")
	cfg.EncoderConfig.EncodeLevel = zapcore.CapitalLevelEncoder
	cfg.DisableStacktrace = true

	logger, err := cfg.Build()
	if err != nil {
		return nil, fmt.Errorf("failed to build logger: %w", err)
	}
	return logger, nil
}

// SetLogger replaces the logger used by new request contexts
func SetLogger(logger *zap.Logger) {
	if logger == nil {
		logger = zap.NewNop()
	}
	baseLoggerMu.Lock()
	baseLogger = logger
	baseLoggerMu.Unlock()
}

// Logger returns the process logger
func Logger() *zap.Logger {
	baseLoggerMu.RLock()
	defer baseLoggerMu.RUnlock()
	return baseLogger
}

// RequestContext tracks the entire request lifecycle with timing.
// A nil *RequestContext is valid and silently discards everything.
type RequestContext struct {
	RequestID        string
	Source           string
	StartTime        time.Time
	Steps            []StepLog
	CurrentStep      string
	CurrentStepStart time.Time

	log *zap.SugaredLogger
}

// StepLog represents a single processing step
type StepLog struct {
	Name      string    `json:"name"`
	StartTime time.Time `json:"start_time"`
	Duration  int64     `json:"duration_us"`
	Status    string    `json:"status"` // "success", "failed", "skipped"
	Details   string    `json:"details,omitempty"`
	Error     string    `json:"error,omitempty"`
}

// NewRequestContext creates a new request tracking context
func NewRequestContext(source string) *RequestContext {
	reqID := uuid.New().String()
	now := time.Now()

	rc := &RequestContext{
		RequestID: reqID,
		Source:    source,
		StartTime: now,
		Steps:     []StepLog{},
		log:       Logger().Sugar().With("request_id", reqID),
	}
	rc.log.Infof("🚀 new request | source: %s", source)
	return rc
}

// ForItem derives a context for one item of a batch. Each child owns its
// own step state, so children can be used from different goroutines.
func (rc *RequestContext) ForItem(itemID string) *RequestContext {
	if rc == nil {
		return nil
	}
	return &RequestContext{
		RequestID: rc.RequestID,
		Source:    rc.Source,
		StartTime: time.Now(),
		Steps:     []StepLog{},
		log:       rc.log.With("item_id", itemID),
	}
}

// StartStep begins tracking a new processing step
func (rc *RequestContext) StartStep(stepName string) {
	if rc == nil {
		return
	}
	rc.CurrentStep = stepName
	rc.CurrentStepStart = time.Now()

	// Map step names to readable descriptions
	stepDescriptions := map[string]string{
		"sanitize_input":      "🧹 sanitize input",
		"field_extraction":    "🔍 field extraction",
		"name_matching":       "👤 student name matching",
		"company_matching":    "🏢 company name matching",
		"financial_check":     "💰 financial validation",
		"security_assessment": "🛡️ security assessment",
		"structural_analysis": "📐 structural analysis",
		"date_analysis":       "📅 date/period analysis",
		"decision":            "⚖️ decision",
		"load_expected":       "📊 load payment record",
	}

	desc := stepDescriptions[stepName]
	if desc == "" {
		desc = stepName
	}
	rc.log.Debugf("┌── %s", desc)
}

// EndStep completes the current step and records timing
func (rc *RequestContext) EndStep(status string, details string, err error) {
	if rc == nil || rc.CurrentStep == "" {
		return
	}
	duration := time.Since(rc.CurrentStepStart)

	stepLog := StepLog{
		Name:      rc.CurrentStep,
		StartTime: rc.CurrentStepStart,
		Duration:  duration.Microseconds(),
		Status:    status,
		Details:   details,
	}

	if err != nil {
		stepLog.Error = err.Error()
		rc.log.Errorf("❌ FAILED - %s (%s) - Error: %v", rc.CurrentStep, duration, err)
	} else if details != "" {
		rc.log.Debugf("└── ✅ %s (%s) | %s", rc.CurrentStep, duration, details)
	} else {
		rc.log.Debugf("└── ✅ %s (%s)", rc.CurrentStep, duration)
	}

	rc.Steps = append(rc.Steps, stepLog)
	rc.CurrentStep = ""
}

// GetSummary returns a final summary of the entire request
func (rc *RequestContext) GetSummary() map[string]interface{} {
	if rc == nil {
		return map[string]interface{}{}
	}
	totalDuration := time.Since(rc.StartTime)

	stepBreakdown := make(map[string]int64)
	failed := 0
	for _, step := range rc.Steps {
		stepBreakdown[step.Name] += step.Duration
		if step.Status == "failed" {
			failed++
		}
	}

	summary := map[string]interface{}{
		"request_id":        rc.RequestID,
		"source":            rc.Source,
		"total_duration_ms": totalDuration.Milliseconds(),
		"step_breakdown_us": stepBreakdown,
		"total_steps":       len(rc.Steps),
		"failed_steps":      failed,
	}

	rc.log.Infof("🎯 done | %s | steps: %d (failed: %d)", totalDuration, len(rc.Steps), failed)
	return summary
}

// LogInfo logs info-level message with request ID
func (rc *RequestContext) LogInfo(format string, args ...interface{}) {
	if rc == nil {
		return
	}
	rc.log.Infof("ℹ️  "+format, args...)
}

// LogWarning logs warning-level message with request ID
func (rc *RequestContext) LogWarning(format string, args ...interface{}) {
	if rc == nil {
		return
	}
	rc.log.Warnf("⚠️  "+format, args...)
}

// LogError logs error-level message with request ID
func (rc *RequestContext) LogError(format string, args ...interface{}) {
	if rc == nil {
		return
	}
	rc.log.Errorf("❌ "+format, args...)
}
