package rcv

import (
	"errors"
	"fmt"
	"regexp"
	"strings"
)

// ErrInvalidPeriod marks a missing or malformed periodo.
var ErrInvalidPeriod = errors.New("periodo inválido")

var periodPattern = regexp.MustCompile(`^\d{4}-\d{2}$`)

// Period is a tax month. Year and Month keep the caller's digits as sent;
// the month is not bounds-checked before it reaches SimpleAPI.
type Period struct {
	Year  string
	Month string
}

// ParsePeriod validates "YYYY-MM" and splits it on "-".
func ParsePeriod(value string) (Period, error) {
	if value == "" {
		return Period{}, fmt.Errorf("%w: periodo es requerido", ErrInvalidPeriod)
	}
	if !periodPattern.MatchString(value) {
		return Period{}, fmt.Errorf("%w: %q no tiene formato YYYY-MM", ErrInvalidPeriod, value)
	}

	year, month, _ := strings.Cut(value, "-")
	return Period{Year: year, Month: month}, nil
}

func (p Period) String() string {
	return p.Year + "-" + p.Month
}
