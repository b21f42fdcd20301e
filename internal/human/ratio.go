package human

import (
	"fmt"
	"io"
	"strconv"
	"strings"
)

// Ratio is a fraction printed as a percentage, 0.25 formats as "25%".
type Ratio float64

func ParseRatio(s string) (Ratio, error) {
	s = strings.TrimSpace(s)
	k := 1.0
	if strings.HasSuffix(s, "%") {
		k = 100
		s = strings.TrimSpace(s[:len(s)-1])
	}
	f, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed ratio: %q: %w", s, err)
	}
	return Ratio(f / k), nil
}

func (r Ratio) String() string { return r.Text(1) }

// Text formats the percentage with at most precision decimals.
func (r Ratio) Text(precision int) string {
	return trimZeros(strconv.FormatFloat(100*float64(r), 'f', precision, 64)) + "%"
}

func (r Ratio) Format(w fmt.State, v rune) {
	var s string
	switch v {
	case 's', 'v':
		p, ok := w.Precision()
		if !ok {
			p = 1
		}
		s = r.Text(p)
	case 'f', 'g', 'e':
		s = strconv.FormatFloat(float64(r), byte(v), -1, 64)
	default:
		s = printError(v, r, float64(r))
	}
	_, _ = io.WriteString(w, s)
}

func (r *Ratio) Set(s string) error {
	p, err := ParseRatio(s)
	if err != nil {
		return err
	}
	*r = p
	return nil
}

// RatioOf returns n/total, or zero when the total is unknown.
func RatioOf(n, total int64) Ratio {
	if total <= 0 {
		return 0
	}
	return Ratio(float64(n) / float64(total))
}
