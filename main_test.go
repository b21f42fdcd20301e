package main

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"golang.org/x/exp/maps"
	"golang.org/x/exp/slices"
)

func TestHttpoll(t *testing.T) {
	t.Run("config", configTests.run)
	t.Run("download", downloadTests.run)
	t.Run("get", getTests.run)
	t.Run("help", helpTests.run)
	t.Run("post", postTests.run)
	t.Run("root", rootTests.run)
	t.Run("unknown", unknownTests.run)
	t.Run("upload", uploadTests.run)
	t.Run("version", versionTests.run)
}

const testConfig = `client:
  pollInterval: 10ms
  drainTimeout: 100ms
`

type tests map[string]func(*testing.T)

func (suite tests) run(t *testing.T) {
	names := maps.Keys(suite)
	slices.Sort(names)

	for _, name := range names {
		test := suite[name]
		t.Run(name, func(t *testing.T) {
			configPath := filepath.Join(t.TempDir(), "config.yaml")
			if err := os.WriteFile(configPath, []byte(testConfig), 0666); err != nil {
				t.Fatal("writing httpoll configuration:", err)
			}
			t.Setenv("HTTPOLLCONFIG", configPath)
			test(t)
		})
	}
}

// execute runs the program with args, capturing what it writes to stdout and
// stderr.
func execute(t *testing.T, args ...string) (stdout, stderr string, exitCode int) {
	t.Helper()
	dir := t.TempDir()

	outFile, err := os.Create(filepath.Join(dir, "stdout"))
	if err != nil {
		t.Fatal(err)
	}
	defer outFile.Close()

	errFile, err := os.Create(filepath.Join(dir, "stderr"))
	if err != nil {
		t.Fatal(err)
	}
	defer errFile.Close()

	savedStdout, savedStderr := os.Stdout, os.Stderr
	os.Stdout, os.Stderr = outFile, errFile
	func() {
		defer func() { os.Stdout, os.Stderr = savedStdout, savedStderr }()
		exitCode = root(context.Background(), args...)
	}()

	return readFile(t, outFile.Name()), readFile(t, errFile.Name()), exitCode
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	b, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	return string(b)
}
