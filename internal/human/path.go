package human

import (
	"encoding"
	"flag"
	"os"
	"path/filepath"
	"strings"
)

// Path is a file system path in which a leading "~" stands for the home
// directory of the user.
type Path string

func (p Path) String() string { return string(p) }

// Expand returns the path with the home directory prefix resolved.
func (p Path) Expand() (string, error) {
	s := string(p)
	if s != "~" && !strings.HasPrefix(s, "~"+string(os.PathSeparator)) {
		return s, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", err
	}
	return filepath.Join(home, s[1:]), nil
}

func (p *Path) Set(s string) error {
	*p = Path(s)
	return nil
}

func (p *Path) UnmarshalText(b []byte) error {
	return p.Set(string(b))
}

var (
	_ encoding.TextUnmarshaler = (*Path)(nil)
	_ flag.Value               = (*Path)(nil)
)
