package scorer

import (
	"errors"
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/SyedDaiam9101/batch-score-service/internal/inference"
)

// RecordSource is one raw input row and the identifier it came from
type RecordSource struct {
	ID      string
	Content string
}

// RecordParseError reports content that is not a single all-numeric comma-separated row.
// Field is the zero-based field index, or -1 when the row as a whole is malformed.
type RecordParseError struct {
	ID    string
	Field int
	Value string
	Err   error
}

func (e *RecordParseError) Error() string {
	if e.Field < 0 {
		return fmt.Sprintf("record %s: %v", e.ID, e.Err)
	}
	return fmt.Sprintf("record %s: field %d %q: %v", e.ID, e.Field, e.Value, e.Err)
}

func (e *RecordParseError) Unwrap() error {
	return e.Err
}

// FeatureShapeError reports a row whose width differs from the model's feature count
type FeatureShapeError struct {
	ID   string
	Got  int
	Want int
}

func (e *FeatureShapeError) Error() string {
	return fmt.Sprintf("record %s: got %d features, model expects %d", e.ID, e.Got, e.Want)
}

var (
	errEmptyRecord  = errors.New("empty record")
	errMultipleRows = errors.New("expected a single row")
	errNotDecimal   = errors.New("not a decimal number")
	errNonFinite    = errors.New("not a finite number")
	errEmptyField   = errors.New("empty field")
)

// ParseRecord converts the content of src into a feature vector.
// Blank lines are ignored; exactly one row of finite decimal fields is accepted.
func ParseRecord(src RecordSource) (inference.FeatureVector, error) {
	var row string
	rows := 0
	for _, line := range strings.Split(src.Content, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}
		row = line
		rows++
	}
	switch {
	case rows == 0:
		return nil, &RecordParseError{ID: src.ID, Field: -1, Err: errEmptyRecord}
	case rows > 1:
		return nil, &RecordParseError{ID: src.ID, Field: -1, Err: fmt.Errorf("%w, found %d", errMultipleRows, rows)}
	}

	fields := strings.Split(row, ",")
	vec := make(inference.FeatureVector, len(fields))
	for i, f := range fields {
		v, err := parseField(strings.TrimSpace(f))
		if err != nil {
			return nil, &RecordParseError{ID: src.ID, Field: i, Value: f, Err: err}
		}
		vec[i] = v
	}
	return vec, nil
}

func parseField(s string) (float64, error) {
	if s == "" {
		return 0, errEmptyField
	}
	// ParseFloat also accepts hex floats, underscores, inf and nan
	for _, r := range s {
		if !strings.ContainsRune("0123456789+-.eE", r) {
			return 0, errNotDecimal
		}
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		var numErr *strconv.NumError
		if errors.As(err, &numErr) && errors.Is(numErr.Err, strconv.ErrRange) {
			return 0, errNonFinite
		}
		return 0, errNotDecimal
	}
	if math.IsInf(v, 0) || math.IsNaN(v) {
		return 0, errNonFinite
	}
	return v, nil
}
