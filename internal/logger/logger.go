// Package logger provides the process-wide structured logger used by the
// scheduler, subprocess runner, and facade. Output is advisory only:
// nothing in the scheduling path ever branches on whether a log write
// succeeded.
package logger

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/contrib/bridges/otelzerolog"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/exporters/otlp/otlplog/otlploghttp"
	sdklog "go.opentelemetry.io/otel/sdk/log"
	"gopkg.in/natefinch/lumberjack.v2"
)

var (
	// Log is the global logger instance (file-only; nop before Init/NewLogger).
	Log zerolog.Logger

	fileWriter     *lumberjack.Logger
	loggerProvider *sdklog.LoggerProvider

	runCtx   runContext
	runCtxMu sync.RWMutex
)

// runContext holds optional scene/task context attached to every log entry.
type runContext struct {
	Scene string
	Task  string
	RunID string
}

// SetContext sets scene/task/run_id context for all subsequent log entries.
// Pass empty strings to clear a field. Thread-safe.
func SetContext(scene, task, runID string) {
	runCtxMu.Lock()
	defer runCtxMu.Unlock()
	runCtx = runContext{Scene: scene, Task: task, RunID: runID}
}

// ClearContext clears the scene/task/run_id context.
func ClearContext() {
	SetContext("", "", "")
}

func getContext() runContext {
	runCtxMu.RLock()
	defer runCtxMu.RUnlock()
	return runCtx
}

func addContext(event *zerolog.Event) *zerolog.Event {
	ctx := getContext()
	if ctx.Scene != "" {
		event = event.Str("scene", ctx.Scene)
	}
	if ctx.Task != "" {
		event = event.Str("task", ctx.Task)
	}
	if ctx.RunID != "" {
		event = event.Str("run_id", ctx.RunID)
	}
	return event
}

// LoggingConfig holds configuration for file-based logging. It is kept
// separate from internal/config's settings types to avoid a circular
// import between logger and config.
type LoggingConfig struct {
	FileEnabled *bool `mapstructure:"file_enabled" yaml:"file_enabled,omitempty"`
	MaxSizeMB   int   `mapstructure:"max_size_mb" yaml:"max_size_mb"`
	MaxAgeDays  int   `mapstructure:"max_age_days" yaml:"max_age_days"`
	MaxBackups  int   `mapstructure:"max_backups" yaml:"max_backups"`
	Compress    *bool `mapstructure:"compress" yaml:"compress,omitempty"`
}

// IsFileEnabled defaults to true if not explicitly set.
func (c *LoggingConfig) IsFileEnabled() bool {
	if c.FileEnabled == nil {
		return true
	}
	return *c.FileEnabled
}

// IsCompressEnabled defaults to true if not explicitly set.
func (c *LoggingConfig) IsCompressEnabled() bool {
	if c.Compress == nil {
		return true
	}
	return *c.Compress
}

// GetMaxSizeMB defaults to 50 if not set.
func (c *LoggingConfig) GetMaxSizeMB() int {
	if c.MaxSizeMB <= 0 {
		return 50
	}
	return c.MaxSizeMB
}

// GetMaxAgeDays defaults to 7 if not set.
func (c *LoggingConfig) GetMaxAgeDays() int {
	if c.MaxAgeDays <= 0 {
		return 7
	}
	return c.MaxAgeDays
}

// GetMaxBackups defaults to 3 if not set.
func (c *LoggingConfig) GetMaxBackups() int {
	if c.MaxBackups <= 0 {
		return 3
	}
	return c.MaxBackups
}

// OtelLogConfig configures the OTEL zerolog bridge.
type OtelLogConfig struct {
	Endpoint       string
	Insecure       bool
	Timeout        time.Duration
	MaxQueueSize   int
	ExportInterval time.Duration
}

// Options configures the logger via NewLogger.
type Options struct {
	LogsDir    string
	FileConfig *LoggingConfig
	OtelConfig *OtelLogConfig // nil = file-only, no OTEL bridge
}

// Init initializes the global logger as a nop logger. All output is
// discarded until NewLogger is called.
func Init() {
	Log = zerolog.Nop()
}

// NewLogger initializes the global logger with file output and an optional
// OTEL bridge.
func NewLogger(opts *Options) error {
	if opts == nil || opts.LogsDir == "" || opts.FileConfig == nil || !opts.FileConfig.IsFileEnabled() {
		Log = zerolog.Nop()
		return nil
	}

	if err := os.MkdirAll(opts.LogsDir, 0o755); err != nil {
		return fmt.Errorf("failed to create logs directory: %w", err)
	}

	logPath := filepath.Join(opts.LogsDir, "compilerd.log")

	fileWriter = &lumberjack.Logger{
		Filename:   logPath,
		MaxSize:    opts.FileConfig.GetMaxSizeMB(),
		MaxAge:     opts.FileConfig.GetMaxAgeDays(),
		MaxBackups: opts.FileConfig.GetMaxBackups(),
		LocalTime:  true,
		Compress:   opts.FileConfig.IsCompressEnabled(),
	}

	logger := zerolog.New(fileWriter).
		Level(zerolog.DebugLevel).
		With().
		Timestamp().
		Logger()

	if opts.OtelConfig != nil {
		provider, err := createOtelProvider(opts.OtelConfig)
		if err != nil {
			logger.Warn().Err(err).Msg("OTEL bridge unavailable, continuing with file-only logging")
		} else {
			loggerProvider = provider
			hook := otelzerolog.NewHook("compilerd", otelzerolog.WithLoggerProvider(provider))
			logger = logger.Hook(hook)
		}
	}

	Log = logger
	return nil
}

func createOtelProvider(cfg *OtelLogConfig) (*sdklog.LoggerProvider, error) {
	otel.SetErrorHandler(otel.ErrorHandlerFunc(func(err error) {
		Log.Warn().Err(err).Msg("otel sdk error")
	}))

	ctx := context.Background()

	exporterOpts := []otlploghttp.Option{
		otlploghttp.WithEndpoint(cfg.Endpoint),
	}
	if cfg.Insecure {
		exporterOpts = append(exporterOpts, otlploghttp.WithInsecure())
	}
	if cfg.Timeout > 0 {
		exporterOpts = append(exporterOpts, otlploghttp.WithTimeout(cfg.Timeout))
	}

	exporter, err := otlploghttp.New(ctx, exporterOpts...)
	if err != nil {
		return nil, fmt.Errorf("failed to create OTLP log exporter: %w", err)
	}

	var processorOpts []sdklog.BatchProcessorOption
	if cfg.MaxQueueSize > 0 {
		processorOpts = append(processorOpts, sdklog.WithMaxQueueSize(cfg.MaxQueueSize))
	}
	if cfg.ExportInterval > 0 {
		processorOpts = append(processorOpts, sdklog.WithExportInterval(cfg.ExportInterval))
	}

	processor := sdklog.NewBatchProcessor(exporter, processorOpts...)
	return sdklog.NewLoggerProvider(sdklog.WithProcessor(processor)), nil
}

// Close shuts down the logger, flushing any pending OTEL logs and closing
// the file writer. Call on process shutdown.
func Close() error {
	var firstErr error

	if loggerProvider != nil {
		ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
		defer cancel()
		if err := loggerProvider.Shutdown(ctx); err != nil {
			firstErr = fmt.Errorf("failed to shutdown OTEL provider: %w", err)
		}
		loggerProvider = nil
	}

	if fileWriter != nil {
		if err := fileWriter.Close(); err != nil && firstErr == nil {
			firstErr = err
		}
		fileWriter = nil
	}

	return firstErr
}

// GetLogFilePath returns the path to the current log file, or "" if file
// logging is disabled.
func GetLogFilePath() string {
	if fileWriter != nil {
		return fileWriter.Filename
	}
	return ""
}

func Debug() *zerolog.Event { return addContext(Log.Debug()) }
func Info() *zerolog.Event  { return addContext(Log.Info()) }
func Warn() *zerolog.Event  { return addContext(Log.Warn()) }
func Error() *zerolog.Event { return addContext(Log.Error()) }

func init() {
	Init()
}
