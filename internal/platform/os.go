// Package platform describes the machine the chat runs on, for use in
// system prompts.
package platform

import (
	"os"
	"os/exec"
	"runtime"
	"strings"
)

// Info names the operating system and architecture
type Info struct {
	Name    string
	Version string
	Arch    string
}

func (i Info) String() string {
	if i.Version == "" {
		return i.Name + "/" + i.Arch
	}
	return i.Name + " " + i.Version + " (" + i.Arch + ")"
}

// Detect returns information about the current platform
func Detect() Info {
	return Info{
		Name:    runtime.GOOS,
		Version: osVersion(runtime.GOOS),
		Arch:    runtime.GOARCH,
	}
}

func osVersion(osName string) string {
	switch osName {
	case "darwin":
		out, err := exec.Command("sw_vers", "-productVersion").Output()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))

	case "windows":
		out, err := exec.Command("cmd", "/c", "ver").Output()
		if err != nil {
			return ""
		}
		return strings.TrimSpace(string(out))

	case "linux":
		content, err := os.ReadFile("/etc/os-release")
		if err != nil {
			return ""
		}
		return parseOSRelease(string(content))
	}
	return ""
}

// parseOSRelease prefers PRETTY_NAME, falling back to NAME and VERSION_ID
func parseOSRelease(content string) string {
	fields := map[string]string{}
	for _, line := range strings.Split(content, "\n") {
		key, value, ok := strings.Cut(strings.TrimSpace(line), "=")
		if !ok {
			continue
		}
		fields[key] = strings.Trim(value, `"'`)
	}

	if pretty := fields["PRETTY_NAME"]; pretty != "" {
		return pretty
	}
	name, version := fields["NAME"], fields["VERSION_ID"]
	if name != "" && version != "" {
		return name + " " + version
	}
	return name
}
