package human

import (
	"encoding"
	"encoding/json"
	"flag"
	"fmt"
	"io"
	"strings"
	"unicode"

	yaml "gopkg.in/yaml.v3"
)

// Bandwidth is a transfer rate in bytes per second. Values parse from
// representations like "100KB/s", "1 MiB/s" or "4096", and format as a byte
// count followed by "/s".
//
// The zero value means no limit when used as a cap.
type Bandwidth uint64

func ParseBandwidth(s string) (Bandwidth, error) {
	count, per, hasPer := strings.Cut(s, "/")
	if hasPer {
		per = strings.TrimSpace(per)
		if per == "" || !match(per, "second") && per != "sec" {
			return 0, fmt.Errorf("malformed bandwidth: %q: only per-second rates are supported", s)
		}
	} else {
		count = strings.TrimSuffix(strings.TrimRightFunc(s, unicode.IsSpace), "ps")
	}
	b, err := ParseBytes(strings.TrimSpace(count))
	if err != nil {
		return 0, fmt.Errorf("malformed bandwidth: %q: %w", s, err)
	}
	return Bandwidth(b), nil
}

func (r Bandwidth) String() string {
	return Bytes(r).String() + "/s"
}

func (r Bandwidth) GoString() string {
	return fmt.Sprintf("human.Bandwidth(%d)", uint64(r))
}

func (r Bandwidth) Format(w fmt.State, v rune) {
	var s string
	switch v {
	case 'd':
		s = fmt.Sprint(uint64(r))
	case 'v':
		if w.Flag('#') {
			s = r.GoString()
			break
		}
		s = r.String()
	case 's':
		s = r.String()
	default:
		s = printError(v, r, uint64(r))
	}
	_, _ = io.WriteString(w, s)
}

func (r Bandwidth) Get() any { return uint64(r) }

func (r *Bandwidth) Set(s string) error {
	p, err := ParseBandwidth(s)
	if err != nil {
		return err
	}
	*r = p
	return nil
}

func (r Bandwidth) MarshalJSON() ([]byte, error) {
	return json.Marshal(uint64(r))
}

func (r *Bandwidth) UnmarshalJSON(j []byte) error {
	var s string
	if json.Unmarshal(j, &s) == nil {
		return r.Set(s)
	}
	return json.Unmarshal(j, (*uint64)(r))
}

func (r Bandwidth) MarshalYAML() (any, error) {
	return r.String(), nil
}

func (r *Bandwidth) UnmarshalYAML(y *yaml.Node) error {
	var s string
	if err := y.Decode(&s); err != nil {
		return err
	}
	return r.Set(s)
}

func (r Bandwidth) MarshalText() ([]byte, error) {
	return []byte(r.String()), nil
}

func (r *Bandwidth) UnmarshalText(t []byte) error {
	return r.Set(string(t))
}

var (
	_ fmt.Formatter = Bandwidth(0)

	_ json.Marshaler   = Bandwidth(0)
	_ json.Unmarshaler = (*Bandwidth)(nil)

	_ yaml.Marshaler   = Bandwidth(0)
	_ yaml.Unmarshaler = (*Bandwidth)(nil)

	_ encoding.TextMarshaler   = Bandwidth(0)
	_ encoding.TextUnmarshaler = (*Bandwidth)(nil)

	_ flag.Getter = (*Bandwidth)(nil)
)
