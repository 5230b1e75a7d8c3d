//go:build basic || database

package integration

import (
	"fmt"
	"os"
	"os/exec"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"
)

var (
	// sharedBinaryPath holds the path to a shared cecompare binary built once for all tests.
	sharedBinaryPath string

	// buildOnce ensures we only build the binary once.
	buildOnce sync.Once

	// buildMutex protects the shared binary path.
	buildMutex sync.Mutex

	// tempDir holds the temp directory for cleanup.
	tempDir string
)

const (
	prodBody = `{"results":[{"name":"NGI_GRNET","type":"NGI","endpoints":[` +
		`{"name":"GR-01-AUTH","type":"SERVICEGROUPS","results":[{"timestamp":"2023-03-01","availability":"100","reliability":"-1"}]},` +
		`{"name":"HG-03-AUTH","type":"SERVICEGROUPS","results":[{"timestamp":"2023-03-01","availability":"95","reliability":"90"}]},` +
		`{"name":"ONLY-PROD","type":"SERVICEGROUPS","results":[{"timestamp":"2023-03-01","availability":"50","reliability":"50"}]}]}]}`
	develBody = `{"results":[{"name":"NGI_GRNET","type":"NGI","endpoints":[` +
		`{"name":"GR-01-AUTH","type":"SERVICEGROUPS","results":[{"timestamp":"2023-03-01","availability":"98","reliability":"100"}]},` +
		`{"name":"HG-03-AUTH","type":"SERVICEGROUPS","results":[{"timestamp":"2023-03-01","availability":"95","reliability":"90"}]}]}]}`
)

// TestMain handles setup and cleanup for all integration tests.
func TestMain(m *testing.M) {
	// Run all tests
	code := m.Run()

	// Cleanup the shared binary after all tests
	if tempDir != "" {
		_ = os.RemoveAll(tempDir)
	}

	os.Exit(code)
}

// getBinary returns the path to the cecompare binary, building it once if needed.
func getBinary() string {
	buildMutex.Lock()
	defer buildMutex.Unlock()

	buildOnce.Do(func() {
		// Create a temp directory for the binary
		var err error
		tempDir, err = os.MkdirTemp("", "cecompare-integration-*")
		if err != nil {
			panic(fmt.Sprintf("failed to create temp dir: %v", err))
		}

		binaryPath := filepath.Join(tempDir, "cecompare")
		buildCmd := exec.Command("go", "build", "-o", binaryPath, ".")
		buildCmd.Dir = ".." // Build from parent directory (project root)
		if err := buildCmd.Run(); err != nil {
			panic(fmt.Sprintf("failed to build cecompare: %v", err))
		}

		sharedBinaryPath = binaryPath
	})

	return sharedBinaryPath
}

// writeFixtures lays out saved engine responses for --from-dir:
// 2023-03-01 exists on both engines, 2023-03-02 only on prod.
func writeFixtures(t *testing.T, dir string) {
	t.Helper()
	files := map[string]string{
		filepath.Join(dir, "prod", "2023-03-01.json"):  prodBody,
		filepath.Join(dir, "devel", "2023-03-01.json"): develBody,
		filepath.Join(dir, "prod", "2023-03-02.json"):  prodBody,
	}
	for path, body := range files {
		require.NoError(t, os.MkdirAll(filepath.Dir(path), 0o755))
		require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	}
}

// runCecompare runs the binary in dir with extra environment variables and returns its combined output.
func runCecompare(t *testing.T, dir string, env []string, args ...string) (string, error) {
	t.Helper()
	cmd := exec.Command(getBinary(), args...)
	cmd.Dir = dir
	cmd.Env = append(os.Environ(), env...)
	output, err := cmd.CombinedOutput()
	if err != nil {
		t.Logf("Command failed: %s\nOutput: %s", cmd.String(), string(output))
	}
	return string(output), err
}
