package system

import (
	"bufio"
	"bytes"
	"context"
	"os/exec"
	"strings"
	"sync"

	"fedora-updater/pkg/runner"

	"github.com/spf13/afero"
)

// AppFs is the filesystem used for every file read, so tests can swap in afero.NewMemMapFs.
var AppFs = afero.NewOsFs()

const (
	osReleasePath = "/etc/os-release"
	unknown       = "unknown"
)

// Info is the system banner printed before updating.
type Info struct {
	Distribution string
	Kernel       string
	Tools        []ToolVersion
}

// Tool is a backend tool to report on: its display name and the binary that
// answers --version.
type Tool struct {
	Name   string
	Binary string
}

// ToolVersion is the version string reported by one installed backend tool.
type ToolVersion struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// GatherInfo collects distribution, kernel and tool versions. Every lookup
// degrades to "unknown" instead of failing; tools that are not installed are
// left out.
func GatherInfo(ctx context.Context, cmdRunner CommandRunner, locator Locator, tools []Tool) Info {
	info := Info{
		Distribution: DistributionName(),
		Kernel:       KernelRelease(),
	}

	for _, tool := range tools {
		if !locator.IsInstalled(tool.Binary) {
			continue
		}
		info.Tools = append(info.Tools, ToolVersion{
			Name:    tool.Name,
			Version: toolVersion(ctx, cmdRunner, tool.Binary),
		})
	}

	return info
}

// DistributionName returns PRETTY_NAME from /etc/os-release.
func DistributionName() string {
	content, err := afero.ReadFile(AppFs, osReleasePath)
	if err != nil {
		return unknown
	}

	scanner := bufio.NewScanner(bytes.NewReader(content))
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		value, ok := strings.CutPrefix(line, "PRETTY_NAME=")
		if !ok {
			continue
		}
		value = strings.Trim(value, `"'`)
		if value == "" {
			return unknown
		}
		return value
	}

	return unknown
}

// KernelRelease returns the running kernel release, as `uname -r` prints it.
func KernelRelease() string {
	release, err := kernelRelease()
	if err != nil || release == "" {
		return unknown
	}
	return release
}

func toolVersion(ctx context.Context, cmdRunner CommandRunner, tool string) string {
	output, err := cmdRunner.Output(ctx, runner.NewCommandSpec(tool, "--version"))
	if err != nil {
		return unknown
	}

	first, _, _ := strings.Cut(strings.TrimSpace(string(output)), "\n")
	if first = strings.TrimSpace(first); first == "" {
		return unknown
	}
	return first
}

// Locator reports whether a backend tool is installed.
type Locator interface {
	IsInstalled(name string) bool
}

// ToolLocator answers "is this executable on PATH", remembering each answer
// for the rest of the run.
type ToolLocator struct {
	mu       sync.Mutex
	lookPath func(string) (string, error)
	cache    map[string]bool
}

func NewToolLocator() *ToolLocator {
	return NewToolLocatorWith(exec.LookPath)
}

// NewToolLocatorWith uses lookPath instead of exec.LookPath.
func NewToolLocatorWith(lookPath func(string) (string, error)) *ToolLocator {
	return &ToolLocator{
		lookPath: lookPath,
		cache:    make(map[string]bool),
	}
}

func (l *ToolLocator) IsInstalled(name string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	if installed, ok := l.cache[name]; ok {
		return installed
	}

	_, err := l.lookPath(name)
	l.cache[name] = err == nil
	return err == nil
}
