package cockpit

import (
	"go.uber.org/zap"

	enginereport "github.com/solardome/strategy-cockpit/internal/report"
)

// runLog is a nil-safe wrapper so the pipeline keeps going without a log file.
type runLog struct {
	delegate *enginereport.RunLogger
}

func newRunLog(path string) (*runLog, error) {
	l, err := enginereport.NewRunLogger(path)
	if err != nil {
		return &runLog{}, err
	}
	return &runLog{delegate: l}, nil
}

func (l *runLog) close() {
	if l == nil || l.delegate == nil {
		return
	}
	l.delegate.Close()
}

func (l *runLog) info(event string, fields ...zap.Field) {
	if l == nil || l.delegate == nil {
		return
	}
	l.delegate.Info(event, fields...)
}

func (l *runLog) warn(event string, fields ...zap.Field) {
	if l == nil || l.delegate == nil {
		return
	}
	l.delegate.Warn(event, fields...)
}
