// File: doc.go
// Title: Structured Logging Package
// Author: msto63
// Version: v0.2.0
// Created: 2025-01-24
// Modified: 2026-10-17

/*
Package log provides structured logging for lexana.

Loggers are immutable: WithField, WithFields, WithRequestID and friends return
a copy, so a component can derive its own logger once and share it between
goroutines.

	logger := mdwlog.GetDefault().WithField("component", "expr-parser")
	logger.Debug("production entered", mdwlog.Fields{"symbol": "E'"})

	timer := logger.StartTimer("analysis")
	defer timer.Stop()
*/
package log
