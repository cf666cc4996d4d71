// Copyright (c) 2024-2025 Jesse Morgan / Morgan Forge
// SPDX-License-Identifier: AGPL-3.0-or-later

package detect

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"log"
	"os"
	"os/exec"
	"runtime"
	"strconv"
	"strings"
	"sync"
	"time"
)

// ProbeTimeout bounds each external version probe.
const ProbeTimeout = 5 * time.Second

// ErrProbeFailed is returned when a probe command exits unsuccessfully or
// prints nothing.
var ErrProbeFailed = errors.New("probe failed")

// =============================================================================
// HOST INFO
// =============================================================================

// HostInfo describes the machine a benchmark ran on. Every field is
// best-effort; a failed probe leaves its field empty.
type HostInfo struct {
	OS        string
	OSVersion string
	Platform  string
	Machine   string
	Processor string
	CPUs      int
	GoVersion string
	Hostname  string
	// Toolchains maps a metadata key (e.g. "rust_version") to the first
	// line of the tool's version output.
	Toolchains map[string]string
}

// Toolchain is an external tool whose version is recorded.
type Toolchain struct {
	Key     string
	Command string
	Args    []string
}

// DefaultToolchains are the tools probed by Collect. Backends written in
// Rust are the common case.
func DefaultToolchains() []Toolchain {
	return []Toolchain{
		{Key: "rust_version", Command: "rustc", Args: []string{"--version"}},
		{Key: "cargo_version", Command: "cargo", Args: []string{"--version"}},
	}
}

// Map flattens the info into the key/value form stored with results.
func (h *HostInfo) Map() map[string]string {
	m := map[string]string{
		"os":         h.OS,
		"os_version": h.OSVersion,
		"platform":   h.Platform,
		"machine":    h.Machine,
		"processor":  h.Processor,
		"go_version": h.GoVersion,
	}
	if h.CPUs > 0 {
		m["cpus"] = strconv.Itoa(h.CPUs)
	}
	if h.Hostname != "" {
		m["hostname"] = h.Hostname
	}
	for k, v := range h.Toolchains {
		m[k] = v
	}
	return m
}

// String returns a one-line description.
func (h *HostInfo) String() string {
	s := fmt.Sprintf("%s %s (%s, %d CPUs)", h.OS, h.Machine, h.Processor, h.CPUs)
	if h.OSVersion != "" {
		s += " " + h.OSVersion
	}
	return s
}

// =============================================================================
// COLLECTION
// =============================================================================

// Collect gathers host metadata and probes the default toolchains. It never
// fails; problems are logged and the affected fields left empty.
func Collect(ctx context.Context) *HostInfo {
	return CollectWith(ctx, DefaultToolchains())
}

// CollectWith is Collect with an explicit toolchain list.
func CollectWith(ctx context.Context, toolchains []Toolchain) *HostInfo {
	u := uname()
	h := &HostInfo{
		OS:         osName(),
		OSVersion:  u.version,
		Machine:    u.machine,
		CPUs:       runtime.NumCPU(),
		GoVersion:  runtime.Version(),
		Toolchains: make(map[string]string),
	}
	if h.Machine == "" {
		h.Machine = runtime.GOARCH
	}
	h.Platform = platformString(h.OS, u.release, h.Machine)
	h.Processor = processorName(ctx)

	if name, err := os.Hostname(); err == nil {
		h.Hostname = name
	}

	for _, tc := range toolchains {
		v, err := Probe(ctx, tc.Command, tc.Args...)
		if err != nil {
			log.Printf("detect: %s not available: %v", tc.Command, err)
			continue
		}
		h.Toolchains[tc.Key] = v
	}
	return h
}

var (
	hostCacheMu sync.Mutex
	hostCache   *HostInfo
)

// CollectCached returns the first Collect result of the process. The watch
// mode reruns the suite many times; host metadata does not change between
// runs.
func CollectCached(ctx context.Context) *HostInfo {
	hostCacheMu.Lock()
	defer hostCacheMu.Unlock()
	if hostCache == nil {
		hostCache = Collect(ctx)
	}
	return hostCache
}

// ClearCache forces the next CollectCached to probe again.
func ClearCache() {
	hostCacheMu.Lock()
	defer hostCacheMu.Unlock()
	hostCache = nil
}

// Probe runs command with args under ProbeTimeout and returns the first
// non-empty line of its standard output.
func Probe(ctx context.Context, command string, args ...string) (string, error) {
	if _, hasDeadline := ctx.Deadline(); !hasDeadline {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, ProbeTimeout)
		defer cancel()
	}

	out, err := exec.CommandContext(ctx, command, args...).Output()
	if err != nil {
		return "", err
	}
	line := firstLine(string(out))
	if line == "" {
		return "", fmt.Errorf("%w: %s printed nothing", ErrProbeFailed, command)
	}
	return line, nil
}

// =============================================================================
// PLATFORM HELPERS
// =============================================================================

// unameInfo holds the uname(2) fields that are used.
type unameInfo struct {
	release string
	version string
	machine string
}

func osName() string {
	switch runtime.GOOS {
	case "linux":
		return "Linux"
	case "darwin":
		return "Darwin"
	case "windows":
		return "Windows"
	case "freebsd":
		return "FreeBSD"
	}
	return runtime.GOOS
}

// platformString mirrors the "<os>-<release>-<machine>" form.
func platformString(osName, release, machine string) string {
	parts := []string{osName}
	if release != "" {
		parts = append(parts, release)
	}
	parts = append(parts, machine)
	return strings.Join(parts, "-")
}

// processorName returns the CPU model name, or the architecture when the
// model cannot be determined.
func processorName(ctx context.Context) string {
	switch runtime.GOOS {
	case "linux":
		if name := cpuinfoModel("/proc/cpuinfo"); name != "" {
			return name
		}
	case "darwin":
		if name, err := Probe(ctx, "sysctl", "-n", "machdep.cpu.brand_string"); err == nil {
			return name
		}
	case "windows":
		if name := os.Getenv("PROCESSOR_IDENTIFIER"); name != "" {
			return name
		}
	}
	return runtime.GOARCH
}

// cpuinfoModel reads the first "model name" entry of a /proc/cpuinfo file.
func cpuinfoModel(path string) string {
	f, err := os.Open(path)
	if err != nil {
		return ""
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		key, value, ok := strings.Cut(scanner.Text(), ":")
		if !ok {
			continue
		}
		switch strings.TrimSpace(key) {
		case "model name", "Processor", "cpu model":
			if v := strings.TrimSpace(value); v != "" {
				return v
			}
		}
	}
	return ""
}

func firstLine(s string) string {
	for _, line := range strings.Split(s, "\n") {
		if line = strings.TrimSpace(line); line != "" {
			return line
		}
	}
	return ""
}
