package report

import (
	"os"
	"path/filepath"

	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// RunLogger appends JSON lines describing one pipeline run to a file.
type RunLogger struct {
	*zap.Logger
	file *os.File
}

func NewRunLogger(path string) (*RunLogger, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil && dir != "." {
		return nil, err
	}
	f, err := os.OpenFile(path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o644)
	if err != nil {
		return nil, err
	}
	enc := zap.NewProductionEncoderConfig()
	enc.TimeKey = "timestamp"
	enc.MessageKey = "event"
	enc.EncodeTime = zapcore.RFC3339NanoTimeEncoder
	enc.EncodeLevel = zapcore.CapitalLevelEncoder
	core := zapcore.NewCore(zapcore.NewJSONEncoder(enc), zapcore.AddSync(f), zapcore.DebugLevel)
	return &RunLogger{Logger: zap.New(core), file: f}, nil
}

func (l *RunLogger) Close() {
	if l == nil || l.file == nil {
		return
	}
	_ = l.Logger.Sync()
	_ = l.file.Close()
}
