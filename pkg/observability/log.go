package observability

import (
	"context"
	"time"

	"github.com/charmbracelet/log"
)

// LogHooks logs every event at debug level, and failures at warn level.
type LogHooks struct {
	logger *log.Logger
}

// NewLogHooks returns hooks writing to l, prefixed with "events".
func NewLogHooks(l *log.Logger) *LogHooks {
	return &LogHooks{logger: l.WithPrefix("events")}
}

func (h *LogHooks) done(msg string, err error, kv ...any) {
	if err != nil {
		h.logger.Warn(msg, append(kv, "error", err)...)
		return
	}
	h.logger.Debug(msg, kv...)
}

func (h *LogHooks) OnCompileStart(_ context.Context, sourceSize int) {
	h.logger.Debug("compile started", "bytes", sourceSize)
}

func (h *LogHooks) OnCompileComplete(_ context.Context, nodeCount int, d time.Duration, err error) {
	h.done("compile finished", err, "stitches", nodeCount, "took", d)
}

func (h *LogHooks) OnRelaxStart(_ context.Context, nodeCount int) {
	h.logger.Debug("relax started", "stitches", nodeCount)
}

func (h *LogHooks) OnRelaxComplete(_ context.Context, steps int, d time.Duration, err error) {
	h.done("relax finished", err, "steps", steps, "took", d)
}

func (h *LogHooks) OnExportStart(_ context.Context, formats []string) {
	h.logger.Debug("export started", "formats", formats)
}

func (h *LogHooks) OnExportComplete(_ context.Context, formats []string, d time.Duration, err error) {
	h.done("export finished", err, "formats", formats, "took", d)
}

func (h *LogHooks) OnCacheHit(_ context.Context, keyType string) {
	h.logger.Debug("cache hit", "kind", keyType)
}

func (h *LogHooks) OnCacheMiss(_ context.Context, keyType string) {
	h.logger.Debug("cache miss", "kind", keyType)
}

func (h *LogHooks) OnCacheSet(_ context.Context, keyType string, size int) {
	h.logger.Debug("cache set", "kind", keyType, "bytes", size)
}

func (h *LogHooks) OnSessionStart(_ context.Context, id string) {
	h.logger.Info("session opened", "session", id)
}

func (h *LogHooks) OnCommand(_ context.Context, id, command string, err error) {
	h.done("command", err, "session", id, "command", command)
}

func (h *LogHooks) OnSessionEnd(_ context.Context, id string, steps int, err error) {
	h.logger.Info("session closed", "session", id, "steps", steps, "error", err)
}
