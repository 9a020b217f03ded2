package compose

import (
	"fmt"
	"os"
	"sort"

	"gopkg.in/yaml.v3"
)

// ServiceConfig holds the per-service attributes we care about from the
// compose file. Restart is empty when the service declares no restart policy.
type ServiceConfig struct {
	Restart string
}

type serviceDef struct {
	Restart any `yaml:"restart"`
}

type composeDocument struct {
	Services map[string]serviceDef `yaml:"services"`
}

// readComposeFile parses the compose file's services section. The file is
// re-read on every call: it is externally managed and may change between
// calls, so nothing is cached.
func readComposeFile(path string) (map[string]ServiceConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, &ConfigurationError{Path: path, Reason: "cannot read compose file", Err: err}
	}

	var doc composeDocument
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, &ConfigurationError{Path: path, Reason: "cannot parse compose file", Err: err}
	}

	if doc.Services == nil {
		return nil, &ConfigurationError{Path: path, Reason: "compose file has no services section"}
	}

	services := make(map[string]ServiceConfig, len(doc.Services))
	for name, def := range doc.Services {
		services[name] = ServiceConfig{Restart: restartToken(def.Restart)}
	}
	return services, nil
}

// restartToken normalizes the yaml value of a restart field. Compose files in
// the wild write `restart: "no"` as well as the unquoted `restart: false`,
// which yaml decodes as a bool.
func restartToken(v any) string {
	switch t := v.(type) {
	case string:
		return t
	case bool:
		return fmt.Sprintf("%t", t)
	default:
		return ""
	}
}

// serviceNames returns the sorted names of all declared services.
func serviceNames(services map[string]ServiceConfig) []string {
	names := make([]string, 0, len(services))
	for name := range services {
		names = append(names, name)
	}
	sort.Strings(names)
	return names
}
