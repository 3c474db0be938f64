package config

import (
	"os"

	"github.com/joho/godotenv"
)

// Credentials holds secrets that never live in the YAML file.
type Credentials struct {
	PushoverToken string
	PushoverUser  string
}

// HasPushover reports whether both pushover credentials are set.
func (c Credentials) HasPushover() bool {
	return c.PushoverToken != "" && c.PushoverUser != ""
}

// LoadCredentials reads credentials from the environment, after loading the
// given .env files if they exist. It reports whether a .env file was loaded.
func LoadCredentials(envFiles ...string) (Credentials, bool) {
	loaded := godotenv.Load(envFiles...) == nil

	return Credentials{
		PushoverToken: os.Getenv("PUSHOVER_TOKEN"),
		PushoverUser:  os.Getenv("PUSHOVER_USER"),
	}, loaded
}
