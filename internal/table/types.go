package table

import (
	"math"
	"strconv"
	"strings"
)

// OptionalFloat is a CSV marshalable float64 value where an empty cell
// means missing. Missing is held as NaN.
type OptionalFloat float64

// Missing reports whether the cell was empty.
func (f OptionalFloat) Missing() bool {
	return math.IsNaN(float64(f))
}

// Ptr returns nil for a missing value.
func (f OptionalFloat) Ptr() *float64 {
	if f.Missing() {
		return nil
	}
	v := float64(f)
	return &v
}

// optional converts a possibly nil value.
func optional(v *float64) OptionalFloat {
	if v == nil {
		return OptionalFloat(math.NaN())
	}
	return OptionalFloat(*v)
}

// String formats the value, or returns "" when it is missing.
func (f OptionalFloat) String() string {
	if f.Missing() {
		return ""
	}
	return formatFloat(float64(f))
}

// MarshalCSV marshals the value into a string format
func (f OptionalFloat) MarshalCSV() (string, error) {
	return f.String(), nil
}

// UnmarshalCSV takes the string representation from a CSV file and attempts to convert it to a float64.
func (f *OptionalFloat) UnmarshalCSV(csv string) error {
	csv = strings.TrimSpace(csv)
	if csv == "" || strings.EqualFold(csv, "nan") {
		*f = OptionalFloat(math.NaN())
		return nil
	}

	val, err := strconv.ParseFloat(csv, 64)
	if err != nil {
		return err
	}

	*f = OptionalFloat(val)
	return nil
}

func formatFloat(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}
