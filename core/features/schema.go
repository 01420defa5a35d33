package features

import (
	"fmt"

	"github.com/kilianp07/wellcast/core/model"
)

// ValueType is the JSON type a field must carry.
type ValueType int

const (
	TypeString ValueType = iota
	TypeNumber
	TypeInteger
	TypeBool
)

func (t ValueType) String() string {
	switch t {
	case TypeString:
		return "string"
	case TypeNumber:
		return "number"
	case TypeInteger:
		return "integer"
	case TypeBool:
		return "bool"
	default:
		return "unknown"
	}
}

// Bounds is an inclusive numeric range. A nil pointer leaves that side open.
type Bounds struct {
	Min *float64
	Max *float64
}

func (b Bounds) contains(v float64) bool {
	if b.Min != nil && v < *b.Min {
		return false
	}
	if b.Max != nil && v > *b.Max {
		return false
	}
	return true
}

func (b Bounds) describe() string {
	switch {
	case b.Min != nil && b.Max != nil:
		return fmt.Sprintf("must be within [%g, %g]", *b.Min, *b.Max)
	case b.Min != nil:
		return fmt.Sprintf("must be >= %g", *b.Min)
	case b.Max != nil:
		return fmt.Sprintf("must be <= %g", *b.Max)
	default:
		return ""
	}
}

// Field describes one key of the payload.
type Field struct {
	Name     string
	Type     ValueType
	Required bool
	NonEmpty bool
	Bounds   Bounds

	assign func(f *model.WellFeatures, v any)
}

func bound(v float64) *float64 { return &v }

// Schema lists the payload fields in validation order. measured and true
// vertical depth are checked independently; md < tvd is not a schema error.
var Schema = []Field{
	{
		Name: "primary_formation", Type: TypeString, Required: true, NonEmpty: true,
		assign: func(f *model.WellFeatures, v any) { f.PrimaryFormation = v.(string) },
	},
	{
		Name: "md_m", Type: TypeNumber, Required: true, Bounds: Bounds{Min: bound(0)},
		assign: func(f *model.WellFeatures, v any) { f.MeasuredDepthM = v.(float64) },
	},
	{
		Name: "tvd_m", Type: TypeNumber, Required: true, Bounds: Bounds{Min: bound(0)},
		assign: func(f *model.WellFeatures, v any) { f.TrueVerticalDepthM = v.(float64) },
	},
	{
		Name: "surface_lat", Type: TypeNumber, Required: true, Bounds: Bounds{Min: bound(-90), Max: bound(90)},
		assign: func(f *model.WellFeatures, v any) { f.SurfaceLat = v.(float64) },
	},
	{
		Name: "surface_lon", Type: TypeNumber, Required: true, Bounds: Bounds{Min: bound(-180), Max: bound(180)},
		assign: func(f *model.WellFeatures, v any) { f.SurfaceLon = v.(float64) },
	},
	{
		Name: "operator", Type: TypeString, Required: true,
		assign: func(f *model.WellFeatures, v any) { f.Operator = v.(string) },
	},
	{
		Name: "spud_month", Type: TypeInteger, Required: true, Bounds: Bounds{Min: bound(1), Max: bound(12)},
		assign: func(f *model.WellFeatures, v any) { f.SpudMonth = int(v.(float64)) },
	},
	{
		Name: "proppant_tonnes", Type: TypeNumber, Required: true, Bounds: Bounds{Min: bound(0)},
		assign: func(f *model.WellFeatures, v any) { f.ProppantTonnes = v.(float64) },
	},
	{
		Name: "horizontal_flag", Type: TypeBool, Required: true,
		assign: func(f *model.WellFeatures, v any) { f.HorizontalFlag = v.(bool) },
	},
	{
		Name: "field", Type: TypeString,
		assign: func(f *model.WellFeatures, v any) { f.Field = v.(string) },
	},
}

// RequiredFields returns the names of all mandatory fields in schema order.
func RequiredFields() []string {
	var out []string
	for _, f := range Schema {
		if f.Required {
			out = append(out, f.Name)
		}
	}
	return out
}
