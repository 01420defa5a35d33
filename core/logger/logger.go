// Package logger declares the logging interface shared by every component.
package logger

// Logger exposes leveled printf-style logging plus structured variants for
// request-scoped fields.
type Logger interface {
	Debugf(format string, args ...any)
	Infof(format string, args ...any)
	Warnf(format string, args ...any)
	Errorf(format string, args ...any)

	// Debugw, Infow and Errorw attach fields to a single entry.
	Debugw(msg string, fields map[string]any)
	Infow(msg string, fields map[string]any)
	Errorw(msg string, fields map[string]any)
}
