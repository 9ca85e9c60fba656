package stage

import (
	"fmt"
	"strings"

	"airwaves/internal/deps"
)

// Health is a lane's readiness as shown by status and the API.
type Health struct {
	Name   string `json:"name"`
	Ready  bool   `json:"ready"`
	Detail string `json:"detail,omitempty"`
}

func Healthy(name string) Health { return Health{Name: name, Ready: true} }

func Unhealthy(name, detail string) Health {
	return Health{Name: name, Detail: detail}
}

// requirementsHealth is ready when every required binary resolves. Missing
// optional binaries are noted in Detail without failing the lane.
func requirementsHealth(name string, reqs ...deps.Requirement) Health {
	var missing, notes []string
	for _, status := range deps.CheckBinaries(reqs) {
		if status.Available {
			continue
		}
		entry := fmt.Sprintf("%s: %s", status.Name, status.Detail)
		if status.Optional {
			notes = append(notes, entry)
			continue
		}
		missing = append(missing, entry)
	}
	if len(missing) > 0 {
		return Unhealthy(name, strings.Join(missing, "; "))
	}
	health := Healthy(name)
	health.Detail = strings.Join(notes, "; ")
	return health
}
