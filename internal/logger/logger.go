package logger

import (
	"padtracker-console/internal/config"
	"padtracker-console/internal/database"

	"go.uber.org/zap"
)

// NewLogger builds the console logger. When a database is configured, warn and above are
// also persisted through the async DB writer.
func NewLogger(cfg *config.Config, mongodb *database.MongodbDB) (*zap.Logger, error) {
	var zapConfig zap.Config
	if cfg.IsProduction() {
		zapConfig = zap.NewProductionConfig()
	} else {
		zapConfig = zap.NewDevelopmentConfig()
	}

	// Important: Enable Caller to get Function Name
	zapConfig.EncoderConfig.FunctionKey = "func"

	baseLogger, err := zapConfig.Build()
	if err != nil {
		return nil, err
	}
	baseLogger = baseLogger.With(zap.String("app", cfg.AppId))

	if !mongodb.Enabled() {
		return baseLogger, nil
	}

	dbWriter := NewDBLogWriter(mongodb, cfg)

	// Tee: console keeps everything, the DB core only sees what it is enabled for.
	finalCore := NewDBCore(baseLogger.Core(), dbWriter)

	return zap.New(finalCore, zap.AddCaller()), nil
}
