package config

import "os"

// BrokerCredentials holds the broker connection settings, sourced entirely
// from the environment per the telemetry processor's external interface.
type BrokerCredentials struct {
	URL      string
	Username string
	Password string
}

// LoadBrokerCredentials reads the broker URL and credentials from the
// environment. URL is required; username/password may be empty for brokers
// configured without auth.
func LoadBrokerCredentials() (BrokerCredentials, error) {
	url := os.Getenv("ROV_BROKER_URL")
	if url == "" {
		return BrokerCredentials{}, errMissingBrokerURL
	}
	return BrokerCredentials{
		URL:      url,
		Username: os.Getenv("ROV_BROKER_USERNAME"),
		Password: os.Getenv("ROV_BROKER_PASSWORD"),
	}, nil
}

var errMissingBrokerURL = missingEnvError("ROV_BROKER_URL")

type missingEnvError string

func (e missingEnvError) Error() string {
	return "missing required environment variable: " + string(e)
}
