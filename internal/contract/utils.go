package contract

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/fatih/color"
	"go.uber.org/zap"
)

// Color variables for console output.
var (
	AvailabilityColor = color.New(color.FgCyan)              // availability exceedances
	ReliabilityColor  = color.New(color.FgYellow)            // reliability exceedances
	MissingColor      = color.New(color.FgMagenta)           // endpoints reported by one engine only
	SkippedColor      = color.New(color.FgRed, color.Bold)   // dates that could not be compared
	HeaderColor       = color.New(color.FgGreen, color.Bold) // section headers
)

// SelectOutputFile returns the appropriate file handle for output, based on the provided
// file path. An empty path means stdout.
func SelectOutputFile(filePath string) (*os.File, error) {
	if filePath == "" {
		return os.Stdout, nil
	}
	if dir := filepath.Dir(filePath); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return nil, fmt.Errorf("create directory %s: %w", dir, err)
		}
	}
	return os.Create(filePath)
}

// LogFatal logs an error and exits the program.
func LogFatal(msg string, err error) {
	zap.L().Error(msg, zap.Error(err))
	_ = zap.L().Sync()
	_, _ = fmt.Fprintf(os.Stderr, "Fatal %s: %v\n", msg, err)
	os.Exit(1)
}

// LogWarn logs a warning message.
func LogWarn(msg string, err error) {
	zap.L().Warn(msg, zap.Error(err))
}

// GetArchiveDBFilePath returns the path to the SQLite DB file for the report archive.
func GetArchiveDBFilePath() string {
	homeDir, err := os.UserHomeDir()
	if err != nil {
		return ".cecompare_archive.db"
	}
	return filepath.Join(homeDir, ".cecompare_archive.db")
}

// TruncatePath truncates an endpoint key to a maximum width with ellipsis prefix.
// Requires maxWidth > 3 to ensure there's space for both the "..." prefix and at least one character of content.
func TruncatePath(path string, maxWidth int) string {
	runes := []rune(path)
	if len(runes) > maxWidth && maxWidth > 3 {
		return "..." + string(runes[len(runes)-maxWidth+3:])
	}
	return path
}

// ParseBoolString parses a string value into a boolean.
// Accepts "yes", "no", "true", "false", "1", "0" (case-insensitive).
// Returns an error for invalid values.
func ParseBoolString(s string) (bool, error) {
	switch strings.ToLower(s) {
	case "yes", "true", "1":
		return true, nil
	case "no", "false", "0":
		return false, nil
	default:
		return false, fmt.Errorf("invalid boolean string: %s (expected yes/no/true/false/1/0)", s)
	}
}
