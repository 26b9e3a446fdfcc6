// Package log builds the zap logger shared by the service, scheduler and CLI.
package log

import (
	"fmt"

	"go.uber.org/zap"
)

// New returns a sugared logger; debug selects zap's development config.
func New(debug bool) (*zap.SugaredLogger, error) {
	var (
		zapLogger *zap.Logger
		err       error
	)

	if debug {
		zapLogger, err = zap.NewDevelopment()
	} else {
		zapLogger, err = zap.NewProduction()
	}
	if err != nil {
		return nil, fmt.Errorf("can't initialize zap logger: %v", err)
	}
	return zapLogger.Sugar(), nil
}
