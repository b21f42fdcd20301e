package human_test

import (
	"encoding/json"
	"fmt"
	"testing"
	"time"

	"github.com/stealthrocket/httpoll/internal/assert"
	. "github.com/stealthrocket/httpoll/internal/human"
)

func TestParseDuration(t *testing.T) {
	for _, test := range []struct {
		in  string
		out Duration
	}{
		{in: "0", out: 0},
		{in: "5s", out: 5 * Second},
		{in: "100ms", out: 100 * Millisecond},
		{in: "5m30s", out: 5*Minute + 30*Second},
		{in: "1d12h", out: Day + 12*Hour},
		{in: "2 weeks", out: 2 * Week},
		{in: "1.5 minutes", out: 90 * Second},
		{in: "1 hour 30 minutes", out: 90 * Minute},
		{in: "250us", out: 250 * Microsecond},
		{in: "-2s", out: -2 * Second},
	} {
		t.Run(test.in, func(t *testing.T) {
			d, err := ParseDuration(test.in)
			assert.OK(t, err)
			assert.Equal(t, d, test.out)
		})
	}
}

func TestParseDurationError(t *testing.T) {
	for _, in := range []string{"", "5", "ten seconds", "3 fortnights"} {
		t.Run(in, func(t *testing.T) {
			_, err := ParseDuration(in)
			assert.True(t, err != nil, "expected an error parsing "+in)
		})
	}
}

func TestDurationFormat(t *testing.T) {
	for _, test := range []struct {
		in  Duration
		out string
	}{
		{in: 0, out: "0s"},
		{in: 50 * Millisecond, out: "50ms"},
		{in: 5 * Second, out: "5s"},
		{in: Minute, out: "1m"},
		{in: 90 * Minute, out: "1h30m"},
		{in: Hour, out: "1h"},
		{in: Day, out: "1d"},
		{in: Day + 12*Hour, out: "1d12h"},
		{in: -5 * Second, out: "-5s"},
	} {
		t.Run(test.out, func(t *testing.T) {
			assert.Equal(t, fmt.Sprint(test.in), test.out)
		})
	}
}

func TestDurationJSON(t *testing.T) {
	var config struct {
		Timeout Duration `json:"timeout"`
	}
	assert.OK(t, json.Unmarshal([]byte(`{"timeout":"1m"}`), &config))
	assert.Equal(t, time.Duration(config.Timeout), time.Minute)

	b, err := json.Marshal(config)
	assert.OK(t, err)
	assert.Equal(t, string(b), `{"timeout":"1m"}`)
}
