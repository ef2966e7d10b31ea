package opmode

import (
	"log/slog"

	"github.com/standalonetc/teleop/pkg/log"
)

// EventLog is the event sink configured by Config.EventLog.
type EventLog struct {
	log.Logger
	file *log.FileLogger
}

// OpenEventLog builds the event sink for cfg. Events always reach logger
// at debug level; a CBOR file is added when cfg.EventLog is set.
func OpenEventLog(cfg Config, logger *slog.Logger) (*EventLog, error) {
	adapter := log.NewSlogAdapter(logger)
	if cfg.EventLog == "" {
		return &EventLog{Logger: adapter}, nil
	}
	file, err := log.NewFileLogger(cfg.EventLog)
	if err != nil {
		return nil, err
	}
	return &EventLog{Logger: log.NewMultiLogger(file, adapter), file: file}, nil
}

// Close flushes and closes the event file, if any.
func (l *EventLog) Close() error {
	if l.file == nil {
		return nil
	}
	return l.file.Close()
}
