// Package features defines the well-feature schema accepted by the forecast
// endpoint and validates raw JSON payloads against it. Validation is pure: it
// performs no I/O and the same payload always yields the same WellFeatures.
package features
