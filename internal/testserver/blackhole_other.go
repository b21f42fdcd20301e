//go:build !linux

package testserver

import "testing"

func Blackhole(t testing.TB) string {
	t.Skip("blackhole listeners are only supported on linux")
	return ""
}
