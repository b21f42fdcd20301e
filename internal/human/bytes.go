package human

import (
	"encoding"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"math"
	"strconv"

	yaml "gopkg.in/yaml.v3"
)

// Bytes is a number of bytes. Values parse from representations like "64KiB",
// "1.5 MB" or "4096" and always format with factors of 1024.
type Bytes uint64

const (
	B Bytes = 1

	KB Bytes = 1000 * B
	MB Bytes = 1000 * KB
	GB Bytes = 1000 * MB
	TB Bytes = 1000 * GB

	KiB Bytes = 1024 * B
	MiB Bytes = 1024 * KiB
	GiB Bytes = 1024 * MiB
	TiB Bytes = 1024 * GiB
)

type byteUnit struct {
	scale Bytes
	name  string
}

var byteUnits = [...]byteUnit{
	{B, "B"},
	{KiB, "KiB"},
	{MiB, "MiB"},
	{GiB, "GiB"},
	{TiB, "TiB"},
}

func ParseBytes(s string) (Bytes, error) {
	f, err := parseBytes(s)
	if err != nil {
		return 0, err
	}
	if f < 0 {
		return 0, fmt.Errorf("negative byte count: %q", s)
	}
	return Bytes(math.Floor(f)), nil
}

func parseBytes(s string) (float64, error) {
	value, unit := splitUnit(s)

	var scale Bytes
	switch {
	case unit == "", match(unit, "B"):
		scale = B
	case match(unit, "KB"):
		scale = KB
	case match(unit, "MB"):
		scale = MB
	case match(unit, "GB"):
		scale = GB
	case match(unit, "TB"):
		scale = TB
	case match(unit, "KiB"):
		scale = KiB
	case match(unit, "MiB"):
		scale = MiB
	case match(unit, "GiB"):
		scale = GiB
	case match(unit, "TiB"):
		scale = TiB
	default:
		return 0, fmt.Errorf("malformed byte count: %q: unknown unit %q", s, unit)
	}

	f, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed byte count: %q: %w", s, err)
	}
	return f * float64(scale), nil
}

func (b Bytes) String() string {
	unit := byteUnits[0]
	for i := len(byteUnits) - 1; i > 0; i-- {
		if b >= byteUnits[i].scale {
			unit = byteUnits[i]
			break
		}
	}
	s := ftoa(float64(b), float64(unit.scale))
	if unit.scale == B {
		return s
	}
	return s + " " + unit.name
}

func (b Bytes) GoString() string {
	return fmt.Sprintf("human.Bytes(%d)", uint64(b))
}

// Format satisfies fmt.Formatter. The 'd' verb prints the plain count, 's' and
// 'v' print the value with a unit.
func (b Bytes) Format(w fmt.State, v rune) {
	var s string
	switch v {
	case 'd':
		s = strconv.FormatUint(uint64(b), 10)
	case 'v':
		if w.Flag('#') {
			s = b.GoString()
			break
		}
		s = b.String()
	case 's':
		s = b.String()
	default:
		s = printError(v, b, uint64(b))
	}
	_, _ = io.WriteString(w, s)
}

func (b Bytes) Get() any { return uint64(b) }

func (b *Bytes) Set(s string) error {
	p, err := ParseBytes(s)
	if err != nil {
		return err
	}
	*b = p
	return nil
}

func (b Bytes) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(b))
}

func (b *Bytes) UnmarshalJSON(j []byte) error {
	var s string
	if json.Unmarshal(j, &s) == nil {
		return b.Set(s)
	}
	return json.Unmarshal(j, (*uint64)(b))
}

func (b Bytes) MarshalYAML() (any, error) {
	return b.String(), nil
}

func (b *Bytes) UnmarshalYAML(y *yaml.Node) error {
	var s string
	if err := y.Decode(&s); err != nil {
		return err
	}
	return b.Set(s)
}

func (b Bytes) MarshalText() ([]byte, error) {
	return []byte(b.String()), nil
}

func (b *Bytes) UnmarshalText(t []byte) error {
	return b.Set(string(t))
}

var (
	_ fmt.Formatter  = Bytes(0)
	_ fmt.GoStringer = Bytes(0)

	_ json.Marshaler   = Bytes(0)
	_ json.Unmarshaler = (*Bytes)(nil)

	_ yaml.Marshaler   = Bytes(0)
	_ yaml.Unmarshaler = (*Bytes)(nil)

	_ encoding.TextMarshaler   = Bytes(0)
	_ encoding.TextUnmarshaler = (*Bytes)(nil)

	_ flag.Getter = (*Bytes)(nil)
)
