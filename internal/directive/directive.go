// Package directive parses the key=value micro-language carried in image
// titles, e.g. ![](figure.png "scale=0.5,rotate=90").
package directive

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"
)

// Sentinel errors describing why a clause was rejected.
var (
	ErrMissingValue = errors.New("clause is not of the form key=value")
	ErrInvalidValue = errors.New("invalid value")
)

// Recognized keys.
const (
	KeyScale  = "scale"
	KeyScaleX = "scale-x"
	KeyScaleY = "scale-y"
	KeyRotate = "rotate"
)

// Transform holds the image transform requested by a caption.
// Rotation is clockwise, in degrees.
type Transform struct {
	ScaleX   float64
	ScaleY   float64
	Rotation float64
}

// Identity returns the transform used when a caption sets nothing.
func Identity() Transform {
	return Transform{ScaleX: 1, ScaleY: 1}
}

// Warning reports a clause that was skipped.
type Warning struct {
	Clause string
	Err    error
}

func (w Warning) Error() string {
	return fmt.Sprintf("%q: %v", w.Clause, w.Err)
}

func (w Warning) Unwrap() error {
	return w.Err
}

// Parse reads every clause of caption. A rejected clause leaves the fields
// it would have set untouched and produces a warning; parsing goes on with
// the next clause. Unknown keys are ignored.
func Parse(caption string) (Transform, []Warning) {
	t := Identity()
	var warnings []Warning

	for _, clause := range strings.Split(caption, ",") {
		clause = strings.TrimSpace(clause)
		if clause == "" {
			continue
		}

		key, value, ok := strings.Cut(clause, "=")
		if !ok {
			warnings = append(warnings, Warning{Clause: clause, Err: ErrMissingValue})
			continue
		}
		key = strings.TrimSpace(key)

		switch key {
		case KeyScale, KeyScaleX, KeyScaleY, KeyRotate:
		default:
			continue
		}

		v, err := parseValue(key, value)
		if err != nil {
			warnings = append(warnings, Warning{Clause: clause, Err: err})
			continue
		}

		switch key {
		case KeyScale:
			t.ScaleX, t.ScaleY = v, v
		case KeyScaleX:
			t.ScaleX = v
		case KeyScaleY:
			t.ScaleY = v
		case KeyRotate:
			t.Rotation = v
		}
	}

	return t, warnings
}

// parseValue parses a numeric value; scales must be strictly positive.
func parseValue(key, value string) (float64, error) {
	value = strings.TrimSpace(value)
	v, err := strconv.ParseFloat(value, 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) {
		return 0, fmt.Errorf("%w: %s %q is not a number", ErrInvalidValue, key, value)
	}
	if key != KeyRotate && v <= 0 {
		return 0, fmt.Errorf("%w: %s must be positive, got %v", ErrInvalidValue, key, v)
	}
	return v, nil
}
