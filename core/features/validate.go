package features

import (
	"bytes"
	"encoding/json"
	"errors"
	"math"

	"github.com/kilianp07/wellcast/core/model"
)

var errNotObject = errors.New("payload must be a JSON object")

// ParseObject decodes raw into its top-level members. Anything other than a
// JSON object is a MalformedPayloadError.
func ParseObject(raw []byte) (map[string]json.RawMessage, error) {
	var obj map[string]json.RawMessage
	if err := json.Unmarshal(raw, &obj); err != nil {
		return nil, &model.MalformedPayloadError{Err: err}
	}
	if obj == nil {
		return nil, &model.MalformedPayloadError{Err: errNotObject}
	}
	return obj, nil
}

// Validate parses raw and checks it against Schema. It returns a
// *model.MalformedPayloadError for unparseable input and a
// *model.ValidationError listing every violation otherwise. Unknown keys are
// ignored.
func Validate(raw []byte) (model.WellFeatures, error) {
	obj, err := ParseObject(raw)
	if err != nil {
		return model.WellFeatures{}, err
	}
	return ValidateObject(obj)
}

// ValidateObject validates an already decoded payload.
func ValidateObject(obj map[string]json.RawMessage) (model.WellFeatures, error) {
	var (
		out        model.WellFeatures
		violations []model.FieldViolation
	)
	for _, field := range Schema {
		rawVal, ok := obj[field.Name]
		if !ok || isNull(rawVal) {
			if field.Required {
				violations = append(violations, model.FieldViolation{Field: field.Name, Constraint: "is required"})
			}
			continue
		}
		v, constraint := decode(field, rawVal)
		if constraint != "" {
			violations = append(violations, model.FieldViolation{Field: field.Name, Constraint: constraint})
			continue
		}
		field.assign(&out, v)
	}
	if len(violations) > 0 {
		return model.WellFeatures{}, &model.ValidationError{Violations: violations}
	}
	return out, nil
}

func isNull(raw json.RawMessage) bool {
	return bytes.Equal(bytes.TrimSpace(raw), []byte("null"))
}

// decode converts the raw value to the Go type expected by field and returns
// the violated constraint, if any.
func decode(field Field, raw json.RawMessage) (any, string) {
	switch field.Type {
	case TypeString:
		var s string
		if err := json.Unmarshal(raw, &s); err != nil {
			return nil, "must be a string"
		}
		if field.NonEmpty && s == "" {
			return nil, "must not be empty"
		}
		return s, ""
	case TypeBool:
		var b bool
		if err := json.Unmarshal(raw, &b); err != nil {
			return nil, "must be a bool"
		}
		return b, ""
	case TypeNumber, TypeInteger:
		var n float64
		if err := json.Unmarshal(raw, &n); err != nil {
			return nil, "must be a number"
		}
		if field.Type == TypeInteger && n != math.Trunc(n) {
			return nil, "must be an integer"
		}
		if !field.Bounds.contains(n) {
			return nil, field.Bounds.describe()
		}
		return n, ""
	default:
		return nil, "has an unsupported type"
	}
}
