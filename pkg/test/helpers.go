package test

import (
	"bytes"
	"path/filepath"
	"testing"

	"fedora-updater/pkg/console"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"
)

// SetupMockFilesystem creates an in-memory filesystem for testing.
// The caller is responsible for setting system.AppFs if needed.
func SetupMockFilesystem(t *testing.T) afero.Fs {
	return afero.NewMemMapFs()
}

// CreateTestFile creates a file with content in the test filesystem.
func CreateTestFile(t *testing.T, fs afero.Fs, path, content string) {
	err := fs.MkdirAll(filepath.Dir(path), 0755)
	require.NoError(t, err)
	err = afero.WriteFile(fs, path, []byte(content), 0644)
	require.NoError(t, err)
}

// NewTestConsole returns an uncolored console writing both channels to one buffer.
func NewTestConsole() (*console.Console, *bytes.Buffer) {
	buf := &bytes.Buffer{}
	return console.New(buf, buf, true), buf
}

// AssertCommandExecuted checks that a command was executed by the mock runner.
func AssertCommandExecuted(t *testing.T, runner *MockCommandRunner, command string) {
	require.Contains(t, runner.Executed(), command, "Command should have been executed: %s", command)
}

// AssertCommandNotExecuted checks that a command was not executed.
func AssertCommandNotExecuted(t *testing.T, runner *MockCommandRunner, command string) {
	require.NotContains(t, runner.Executed(), command, "Command should not have been executed: %s", command)
}

// AssertLogContains checks that the logger captured a message containing the substring.
func AssertLogContains(t *testing.T, logger *MockLogger, substring string) {
	require.True(t, logger.HasMessage(substring), "Log should contain: %s", substring)
}

// FedoraOSRelease is a trimmed /etc/os-release from Fedora Workstation.
const FedoraOSRelease = `NAME="Fedora Linux"
VERSION="41 (Workstation Edition)"
ID=fedora
VERSION_ID=41
PRETTY_NAME="Fedora Linux 41 (Workstation Edition)"
`

// SetupOSRelease writes a Fedora os-release into fs.
func SetupOSRelease(t *testing.T, fs afero.Fs) {
	CreateTestFile(t, fs, "/etc/os-release", FedoraOSRelease)
}
