// Package monitoring declares error reporting used for failures that are
// answered to the caller but still deserve operator attention.
package monitoring

import "time"

// Monitor reports errors to an external tracker.
type Monitor interface {
	CaptureException(err error, tags map[string]string)
	Flush(timeout time.Duration)
}

// NopMonitor drops every report.
type NopMonitor struct{}

func (NopMonitor) CaptureException(error, map[string]string) {}
func (NopMonitor) Flush(time.Duration)                       {}

// Recorder keeps reported errors in memory.
type Recorder struct {
	Errors []error
	Tags   []map[string]string
}

func (r *Recorder) CaptureException(err error, tags map[string]string) {
	r.Errors = append(r.Errors, err)
	r.Tags = append(r.Tags, tags)
}

func (r *Recorder) Flush(time.Duration) {}
