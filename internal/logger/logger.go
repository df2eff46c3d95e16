// Package logger builds the zap logger shared by the server, the workflow
// and the event consumer.
package logger

import (
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// New returns a JSON production logger for APP_ENV=prod and a colored
// console logger otherwise.
func New(env string) *zap.Logger {
	var cfg zap.Config
	if env == "prod" || env == "production" {
		cfg = zap.NewProductionConfig()
	} else {
		cfg = zap.NewDevelopmentConfig()
		cfg.EncoderConfig.EncodeLevel = zapcore.CapitalColorLevelEncoder
	}
	cfg.OutputPaths = []string{"stdout"}

	l, err := cfg.Build()
	if err != nil {
		panic("failed to create logger: " + err.Error())
	}
	return l
}
