// SPDX-License-Identifier: MIT
package transport

import (
	"encoding/json"
	"sync/atomic"
)

// LoggingTransport writes each message as JSON at debug level.
type LoggingTransport struct {
	sent atomic.Uint64
}

func NewLoggingTransport() *LoggingTransport {
	logger.Infof("Using LoggingTransport")
	return &LoggingTransport{}
}

// Send logs data. A value that cannot be marshalled is logged with %+v;
// logging never fails.
func (lt *LoggingTransport) Send(data any) error {
	n := lt.sent.Add(1)
	jsonData, err := json.Marshal(data)
	if err != nil {
		logger.Debugf("#%d (%T): %+v (JSON marshal error: %v)", n, data, data, err)
		return nil
	}
	logger.Debugf("#%d (%T): %s", n, data, jsonData)
	return nil
}

// Sent returns the number of messages logged.
func (lt *LoggingTransport) Sent() uint64 { return lt.sent.Load() }

func (lt *LoggingTransport) Close() error {
	logger.Debugf("LoggingTransport closed after %d messages", lt.sent.Load())
	return nil
}

var _ Transport = (*LoggingTransport)(nil)
