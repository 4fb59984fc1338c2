package sms

import (
	"context"
	"fmt"
	"time"

	"github.com/sirupsen/logrus"
)

// LogGateway writes messages to the log instead of sending them (SMS_MODE=dev)
type LogGateway struct {
	logger *logrus.Logger
}

// NewLogGateway creates a development SMS gateway
func NewLogGateway(logger *logrus.Logger) *LogGateway {
	return &LogGateway{logger: logger}
}

// Send logs the message
func (g *LogGateway) Send(ctx context.Context, phone, message string) (string, error) {
	ref := fmt.Sprintf("dev-%d", time.Now().UnixNano())
	g.logger.WithFields(logrus.Fields{
		"phone":   phone,
		"message": message,
		"ref":     ref,
	}).Info("SMS (dev mode, not sent)")
	return ref, nil
}

// GetName returns the name of this SMS gateway
func (g *LogGateway) GetName() string {
	return "Log Gateway"
}
