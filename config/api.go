package config

// APIConfig configures the HTTP API served by the serve command.
type APIConfig struct {
	Addr string `json:"addr"`
	// Token enables bearer token checks when not empty.
	Token string `json:"token"`
}

// SetDefaults applies sane defaults.
func (c *APIConfig) SetDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
}
