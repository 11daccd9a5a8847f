// pkg/registry/schema.go
package registry

// AgentRegistry is the machine-readable catalog of the agents this process
// can host.
type AgentRegistry struct {
	Version     string  `json:"version"`
	LastUpdated string  `json:"lastUpdated"`
	Agents      []Agent `json:"agents"`
}

type Agent struct {
	ID           string   `json:"id"`
	DisplayName  string   `json:"displayName"`
	Description  string   `json:"description"`
	Category     string   `json:"category"`
	MessageTypes []string `json:"messageTypes"`
	ErrorCodes   []string `json:"errorCodes"`
	Timeout      string   `json:"timeout"`
	Retries      int      `json:"retries"`
	Tags         []string `json:"tags"`
}

// Find returns the entry with the given id, if present.
func (r *AgentRegistry) Find(id string) (Agent, bool) {
	for _, agent := range r.Agents {
		if agent.ID == id {
			return agent, true
		}
	}
	return Agent{}, false
}
