// Package prediction orchestrates a forecast request: validate the well
// features, obtain P50 from the external predictor or the local baseline,
// build the P10/P90 band and report the outcome to metrics sinks and the
// event bus.
package prediction
