package types

// Config is the Beam client configuration, merged from config files and
// environment overrides.
type Config struct {
	Schema            string `json:"$schema,omitempty"`
	APIURL            string `json:"apiUrl,omitempty"`
	AutoApplyChanges  bool   `json:"autoApplyChanges,omitempty"`
	ShowConfidence    bool   `json:"showConfidence,omitempty"`
	MaxMessageHistory int    `json:"maxMessageHistory,omitempty"`
	LogLevel          string `json:"logLevel,omitempty"`
	Port              int    `json:"port,omitempty"`
}

// DefaultAPIURL is used when no apiUrl is configured.
const DefaultAPIURL = "http://localhost:8000"
