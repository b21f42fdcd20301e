package human_test

import (
	"fmt"
	"os"
	"path/filepath"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
	. "github.com/stealthrocket/httpoll/internal/human"
)

func TestRatio(t *testing.T) {
	r, err := ParseRatio("25%")
	assert.OK(t, err)
	assert.Equal(t, r, Ratio(0.25))

	r, err = ParseRatio("0.5")
	assert.OK(t, err)
	assert.Equal(t, r, Ratio(0.5))

	_, err = ParseRatio("half")
	assert.True(t, err != nil, "expected an error parsing a word")

	assert.Equal(t, fmt.Sprint(Ratio(0.25)), "25%")
	assert.Equal(t, fmt.Sprintf("%.2s", Ratio(1.0/3)), "33.33%")
	assert.Equal(t, RatioOf(307, 1000).String(), "30.7%")
	assert.Equal(t, RatioOf(10, 0), Ratio(0))
}

func TestPathExpand(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip(err)
	}

	p, err := Path("~/.httpoll/config.yaml").Expand()
	assert.OK(t, err)
	assert.Equal(t, p, filepath.Join(home, ".httpoll", "config.yaml"))

	p, err = Path("/etc/httpoll.yaml").Expand()
	assert.OK(t, err)
	assert.Equal(t, p, "/etc/httpoll.yaml")

	p, err = Path("~user/file").Expand()
	assert.OK(t, err)
	assert.Equal(t, p, "~user/file")
}
