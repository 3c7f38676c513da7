package shipmentmentor

// Environment selects which Shipment Mentor deployment the client talks to.
type Environment string

const (
	EnvProduction Environment = "production"
	EnvSandbox    Environment = "sandbox"
)

const (
	productionBaseURL = "https://api.shipmentmentor.com"
	sandboxBaseURL    = "https://devapi.shipmentmentor.com"
)

// ResolveEnvironment maps "sandbox" to EnvSandbox and every other value to EnvProduction.
func ResolveEnvironment(env string) Environment {
	if env == string(EnvSandbox) {
		return EnvSandbox
	}
	return EnvProduction
}

// BaseURL returns the API endpoint for the environment.
func (e Environment) BaseURL() string {
	if e == EnvSandbox {
		return sandboxBaseURL
	}
	return productionBaseURL
}
