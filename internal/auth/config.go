package auth

import "os"

// Config holds auth configuration
type Config struct {
	Issuer string
	Secret string
}

// DefaultIssuer is used when AUTH_ISSUER is not set.
const DefaultIssuer = "caremeds-medication-service"

// LoadConfig reads config from env. Tokens are signed with the shared
// AUTH_SECRET; an empty secret disables authentication entirely (dev mode).
func LoadConfig() Config {
	issuer := os.Getenv("AUTH_ISSUER")
	if issuer == "" {
		issuer = DefaultIssuer
	}
	return Config{
		Issuer: issuer,
		Secret: os.Getenv("AUTH_SECRET"),
	}
}
