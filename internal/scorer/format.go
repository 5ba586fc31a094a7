package scorer

import (
	"math"
	"path"
	"strconv"
	"strings"
)

// ScoredResult pairs a record identifier with its prediction
type ScoredResult struct {
	ID         string
	Prediction float64
}

// String renders the result as "<basename>: <prediction>"
func (r ScoredResult) String() string {
	return Basename(r.ID) + ": " + FormatPrediction(r.Prediction)
}

// Basename strips any directory prefix from id, accepting both / and \ separators
func Basename(id string) string {
	return path.Base(strings.ReplaceAll(id, `\`, "/"))
}

// FormatPrediction renders v in the default float text form used by the
// scoring scripts this service replaces: shortest round-trip digits, a ".0"
// suffix for integral values, and exponent notation outside [1e-4, 1e16).
func FormatPrediction(v float64) string {
	switch {
	case math.IsNaN(v):
		return "nan"
	case math.IsInf(v, 1):
		return "inf"
	case math.IsInf(v, -1):
		return "-inf"
	}

	sci := strconv.FormatFloat(v, 'e', -1, 64)
	exp, err := strconv.Atoi(sci[strings.IndexByte(sci, 'e')+1:])
	if err == nil && (exp < -4 || exp >= 16) {
		return sci
	}

	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s
}
