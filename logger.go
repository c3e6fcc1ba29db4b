// Copyright (c) DiamondGnom
// SPDX-License-Identifier: MPL-2.0

package insight

// logger is an interface that defines the logging functions that are
// used by the engine. It is satisfied by [log/slog.Logger].
type logger interface {
	Debug(msg string, keysAndValues ...interface{})
	Info(msg string, keysAndValues ...interface{})
	Warn(msg string, keysAndValues ...interface{})
	Error(msg string, keysAndValues ...interface{})
}
