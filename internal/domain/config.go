package domain

// Config is the node-level configuration handed to services and
// handlers. Address is derived from the private key at load time.
type Config struct {
	FQDN        string `yaml:"fqdn"`
	URL         string `yaml:"url"`
	PrivateKey  string `yaml:"privatekey"`
	TokenSecret string `yaml:"tokenSecret"`
	Title       string `yaml:"title"`
	Description string `yaml:"description"`

	// ---
	Address string
}
