package compose

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
)

// ServiceStatus is the lifecycle state of a service, derived per call from
// runtime inspection and never persisted.
type ServiceStatus string

const (
	StatusRunning ServiceStatus = "running"
	StatusStopped ServiceStatus = "stopped"
	StatusUnknown ServiceStatus = "unknown"
)

// ServiceInfo is a point-in-time snapshot of one service.
type ServiceInfo struct {
	Name   string
	Status ServiceStatus
	Image  string
	Ports  []string
}

// psEntry mirrors one JSON line of `compose ps --format json`.
type psEntry struct {
	Service    string `json:"Service"`
	State      string `json:"State"`
	Image      string `json:"Image"`
	Publishers []struct {
		URL           string `json:"URL"`
		TargetPort    int    `json:"TargetPort"`
		PublishedPort int    `json:"PublishedPort"`
		Protocol      string `json:"Protocol"`
	} `json:"Publishers"`
}

// GetServicesStatus reports the current state of every declared service.
// Services with no container yet are reported as stopped; runtime state
// strings outside the known set map to unknown, never to an error.
func (m *Manager) GetServicesStatus(ctx context.Context) ([]ServiceInfo, error) {
	if err := m.CheckPrerequisites(ctx); err != nil {
		return nil, err
	}

	declared, err := m.ComposeServiceNames()
	if err != nil {
		return nil, err
	}

	res, err := m.RunComposeCommand(ctx, "ps", "-a", "--format", "json")
	if err != nil {
		return nil, err
	}
	if res.ExitCode != 0 {
		return nil, &CommandExecutionError{Command: "compose ps", ExitCode: res.ExitCode, Stderr: res.Stderr}
	}

	byService := make(map[string]ServiceInfo)
	for _, line := range strings.Split(res.Stdout, "\n") {
		line = strings.TrimSpace(line)
		if line == "" {
			continue
		}

		var entry psEntry
		if err := json.Unmarshal([]byte(line), &entry); err != nil {
			return nil, &ParsingError{Reason: "compose ps produced a line that is not valid JSON", Output: res.Stdout}
		}

		info := ServiceInfo{
			Name:   entry.Service,
			Status: mapContainerState(entry.State),
			Image:  entry.Image,
		}
		for _, pub := range entry.Publishers {
			if pub.PublishedPort == 0 {
				continue
			}
			info.Ports = append(info.Ports,
				fmt.Sprintf("%s:%d->%d/%s", pub.URL, pub.PublishedPort, pub.TargetPort, pub.Protocol))
		}
		byService[entry.Service] = info
	}

	infos := make([]ServiceInfo, 0, len(declared))
	for _, name := range declared {
		if info, ok := byService[name]; ok {
			infos = append(infos, info)
			continue
		}
		infos = append(infos, ServiceInfo{Name: name, Status: StatusStopped})
	}
	return infos, nil
}

func mapContainerState(state string) ServiceStatus {
	switch strings.ToLower(state) {
	case "running":
		return StatusRunning
	case "exited", "stopped", "created", "dead", "paused":
		return StatusStopped
	default:
		return StatusUnknown
	}
}
