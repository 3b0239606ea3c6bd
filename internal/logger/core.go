package logger

import (
	"go.uber.org/zap/zapcore"
)

// DBCore is a zap core that forwards warn+ entries to the DB writer and then to the wrapped core.
type DBCore struct {
	zapcore.Core
	writer *DBLogWriter
}

func NewDBCore(baseCore zapcore.Core, writer *DBLogWriter) zapcore.Core {
	return &DBCore{
		Core:   baseCore,
		writer: writer,
	}
}

func (c *DBCore) With(fields []zapcore.Field) zapcore.Core {
	return &DBCore{Core: c.Core.With(fields), writer: c.writer}
}

// Write is called for every log entry
func (c *DBCore) Write(entry zapcore.Entry, fields []zapcore.Field) error {
	if entry.Level >= zapcore.WarnLevel {
		var sessionID, username string
		for _, f := range fields {
			switch f.Key {
			case "session_id":
				sessionID = f.String
			case "username":
				username = f.String
			}
		}

		// Function is only populated when the logger was built with AddCaller.
		c.writer.AddLog(LogEntry{
			Level:     entry.Level,
			Message:   entry.Message,
			SessionID: sessionID,
			Username:  username,
			Caller:    entry.Caller.Function,
		})
	}

	return c.Core.Write(entry, fields)
}

// Check decides if we should log this level
func (c *DBCore) Check(ent zapcore.Entry, ce *zapcore.CheckedEntry) *zapcore.CheckedEntry {
	if c.Enabled(ent.Level) {
		return ce.AddCore(ent, c)
	}
	return ce
}
