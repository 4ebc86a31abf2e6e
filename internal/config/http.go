package config

import "time"

type HTTP struct {
	Port           uint32        `env:"HTTP_PORT" envDefault:"8000"`
	Swagger        bool          `env:"HTTP_SWAGGER" envDefault:"true"`
	AllowedOrigins []string      `env:"HTTP_ALLOWED_ORIGINS" envSeparator:"," envDefault:"*"`
	WriteTimeout   time.Duration `env:"HTTP_WRITE_TIMEOUT" envDefault:"30s"`
	// ValidateRequests checks request bodies and params against the embedded OpenAPI contract.
	ValidateRequests bool `env:"HTTP_VALIDATE_REQUESTS" envDefault:"true"`
}
