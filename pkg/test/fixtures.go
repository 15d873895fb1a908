package test

// SampleConfigYAML returns a configuration that sets every field.
func SampleConfigYAML() string {
	return `elevation: doas
timeout: 45m
default-mode: offline
backends:
  flatpak:
    enabled: false
    binary: /usr/bin/flatpak
  dnf5:
    enabled: true
    binary: /usr/bin/dnf5
    refresh: false
`
}

// PartialConfigYAML only overrides the DNF5 binary; everything else keeps its default.
func PartialConfigYAML() string {
	return `backends:
  dnf5:
    binary: /opt/dnf5/bin/dnf5
`
}

// InvalidConfigYAML returns YAML that parses but fails validation.
func InvalidConfigYAML() string {
	return `elevation: "sudo -n"
timeout: -5s
default-mode: tomorrow
backends:
  dnf5:
    binary: ""
`
}

// MalformedConfigYAML returns YAML with a syntax error.
func MalformedConfigYAML() string {
	return `backends:
  dnf5: [binary
`
}
