package human_test

import (
	"encoding/json"
	"fmt"
	"testing"

	"github.com/stealthrocket/httpoll/internal/assert"
	. "github.com/stealthrocket/httpoll/internal/human"
	yaml "gopkg.in/yaml.v3"
)

func TestParseBytes(t *testing.T) {
	for _, test := range []struct {
		in  string
		out Bytes
	}{
		{in: "0", out: 0},
		{in: "4096", out: 4096},
		{in: "2B", out: 2},
		{in: "2K", out: 2 * KB},
		{in: "2kb", out: 2 * KB},
		{in: "3 MB", out: 3 * MB},
		{in: "64KiB", out: 64 * KiB},
		{in: "64 Ki", out: 64 * KiB},
		{in: "1.5 MiB", out: MiB + 512*KiB},
		{in: "1.234 K", out: 1234},
		{in: "2 GiB", out: 2 * GiB},
	} {
		t.Run(test.in, func(t *testing.T) {
			b, err := ParseBytes(test.in)
			assert.OK(t, err)
			assert.Equal(t, b, test.out)
		})
	}
}

func TestParseBytesError(t *testing.T) {
	for _, in := range []string{"", "KB", "-1", "12 parsecs", "1..5K"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseBytes(in)
			assert.True(t, err != nil, "expected an error parsing "+in)
		})
	}
}

func TestBytesFormat(t *testing.T) {
	for _, test := range []struct {
		in  Bytes
		fmt string
		out string
	}{
		{in: 0, fmt: "%v", out: "0"},
		{in: 2, fmt: "%v", out: "2"},
		{in: 1023, fmt: "%s", out: "1023"},
		{in: KiB, fmt: "%v", out: "1 KiB"},
		{in: 2 * KB, fmt: "%v", out: "1.95 KiB"},
		{in: 40 * MiB, fmt: "%s", out: "40 MiB"},
		{in: 123 * GiB, fmt: "%s", out: "123 GiB"},
		{in: 2 * KB, fmt: "%d", out: "2000"},
		{in: 42, fmt: "%#v", out: "human.Bytes(42)"},
		{in: 42, fmt: "%x", out: "%!x(human.Bytes=42)"},
	} {
		t.Run(test.out, func(t *testing.T) {
			assert.Equal(t, fmt.Sprintf(test.fmt, test.in), test.out)
		})
	}
}

func TestBytesCodecs(t *testing.T) {
	var config struct {
		Size Bytes `json:"size" yaml:"size"`
	}

	assert.OK(t, yaml.Unmarshal([]byte("size: 16KiB\n"), &config))
	assert.Equal(t, config.Size, 16*KiB)

	out, err := yaml.Marshal(&config)
	assert.OK(t, err)
	assert.Equal(t, string(out), "size: 16 KiB\n")

	assert.OK(t, json.Unmarshal([]byte(`{"size":"1MB"}`), &config))
	assert.Equal(t, config.Size, MB)

	assert.OK(t, json.Unmarshal([]byte(`{"size":512}`), &config))
	assert.Equal(t, config.Size, 512*B)

	j, err := json.Marshal(&config)
	assert.OK(t, err)
	assert.Equal(t, string(j), `{"size":512}`)
}
