package human

import (
	"encoding"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	yaml "gopkg.in/yaml.v3"
)

const (
	Nanosecond  Duration = 1
	Microsecond Duration = 1000 * Nanosecond
	Millisecond Duration = 1000 * Microsecond
	Second      Duration = 1000 * Millisecond
	Minute      Duration = 60 * Second
	Hour        Duration = 60 * Minute
	Day         Duration = 24 * Hour
	Week        Duration = 7 * Day
)

// Duration is a time.Duration which also parses day and week units and long
// unit names, for example "1d12h", "2 weeks" or "1.5 minutes".
type Duration time.Duration

func ParseDuration(s string) (Duration, error) {
	input := strings.TrimSpace(s)
	if input == "0" {
		return 0, nil
	}
	if input == "" {
		return 0, fmt.Errorf("malformed duration: empty string")
	}

	var d Duration
	for s = input; s != ""; {
		number, rest := splitNumber(s)
		n, err := strconv.ParseFloat(number, 64)
		if err != nil {
			return 0, fmt.Errorf("malformed duration: %q: %w", input, err)
		}
		unit, rest := splitDurationUnit(rest)
		if unit == "" {
			return 0, fmt.Errorf("malformed duration: %q: missing unit after %v", input, n)
		}
		scale, ok := durationUnit(unit)
		if !ok {
			return 0, fmt.Errorf("malformed duration: %q: unknown unit %q", input, unit)
		}
		d += Duration(n * float64(scale))
		s = rest
	}
	return d, nil
}

func splitDurationUnit(s string) (unit, rest string) {
	i := strings.IndexFunc(s, func(r rune) bool {
		return isDigit(r) || isSign(r) || r == ' ' || r == '.'
	})
	if i < 0 {
		return s, ""
	}
	return s[:i], strings.TrimLeft(s[i:], " ")
}

func durationUnit(s string) (Duration, bool) {
	switch s {
	case "ns":
		return Nanosecond, true
	case "us", "µs":
		return Microsecond, true
	case "ms":
		return Millisecond, true
	}
	switch {
	case match(s, "weeks"):
		return Week, true
	case match(s, "days"):
		return Day, true
	case match(s, "hours"):
		return Hour, true
	case match(s, "minutes"):
		return Minute, true
	case match(s, "seconds"):
		return Second, true
	case match(s, "milliseconds"):
		return Millisecond, true
	case match(s, "microseconds"):
		return Microsecond, true
	case match(s, "nanoseconds"):
		return Nanosecond, true
	}
	return 0, false
}

func (d Duration) String() string {
	if d < 0 {
		return "-" + (-d).String()
	}
	if d < Day {
		return trimDuration(time.Duration(d).String())
	}
	s := strconv.FormatInt(int64(d/Day), 10) + "d"
	if rest := d % Day; rest != 0 {
		s += trimDuration(time.Duration(rest).String())
	}
	return s
}

// trimDuration removes the zero minutes and seconds that time.Duration prints
// after larger units.
func trimDuration(s string) string {
	if strings.HasSuffix(s, "m0s") {
		s = s[:len(s)-2]
	}
	if strings.HasSuffix(s, "h0m") {
		s = s[:len(s)-2]
	}
	return s
}

func (d Duration) GoString() string {
	return fmt.Sprintf("human.Duration(%d)", int64(d))
}

func (d Duration) Format(w fmt.State, v rune) {
	var s string
	switch v {
	case 'd':
		s = strconv.FormatInt(int64(d), 10)
	case 'v':
		if w.Flag('#') {
			s = d.GoString()
			break
		}
		s = d.String()
	case 's':
		s = d.String()
	default:
		s = printError(v, d, int64(d))
	}
	_, _ = io.WriteString(w, s)
}

func (d Duration) Get() any { return time.Duration(d) }

func (d *Duration) Set(s string) error {
	p, err := ParseDuration(s)
	if err != nil {
		return err
	}
	*d = p
	return nil
}

func (d Duration) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Duration) UnmarshalJSON(b []byte) error {
	var s string
	if err := json.Unmarshal(b, &s); err != nil {
		return err
	}
	return d.Set(s)
}

func (d Duration) MarshalYAML() (any, error) {
	return d.String(), nil
}

func (d *Duration) UnmarshalYAML(y *yaml.Node) error {
	var s string
	if err := y.Decode(&s); err != nil {
		return err
	}
	return d.Set(s)
}

func (d Duration) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

func (d *Duration) UnmarshalText(b []byte) error {
	return d.Set(string(b))
}

var (
	_ fmt.Formatter  = Duration(0)
	_ fmt.GoStringer = Duration(0)

	_ json.Marshaler   = Duration(0)
	_ json.Unmarshaler = (*Duration)(nil)

	_ yaml.Marshaler   = Duration(0)
	_ yaml.Unmarshaler = (*Duration)(nil)

	_ encoding.TextMarshaler   = Duration(0)
	_ encoding.TextUnmarshaler = (*Duration)(nil)

	_ flag.Getter = (*Duration)(nil)
)
