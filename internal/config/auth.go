package config

import (
	"fmt"
	"strconv"
	"time"

	"golang.org/x/crypto/bcrypt"
)

type Auth struct {
	SessionTTL     time.Duration `env:"AUTH_SESSION_TTL" envDefault:"12h"`
	PresenceWindow time.Duration `env:"AUTH_PRESENCE_WINDOW" envDefault:"2m"`
	SweepInterval  time.Duration `env:"AUTH_SWEEP_INTERVAL" envDefault:"5m"`
	BcryptCost     BcryptCost    `env:"AUTH_BCRYPT_COST" envDefault:"10"`

	BootstrapEmail    string `env:"AUTH_BOOTSTRAP_EMAIL"`
	BootstrapPassword string `env:"AUTH_BOOTSTRAP_PASSWORD"`
}

// BcryptCost is a password hashing cost within bcrypt's accepted range.
type BcryptCost int

// UnmarshalText implements [encoding.TextUnmarshaler].
func (c *BcryptCost) UnmarshalText(text []byte) error {
	n, err := strconv.Atoi(string(text))
	if err != nil {
		return fmt.Errorf("invalid bcrypt cost %q: %w", text, err)
	}
	if n < bcrypt.MinCost || n > bcrypt.MaxCost {
		return fmt.Errorf("bcrypt cost %d outside [%d, %d]", n, bcrypt.MinCost, bcrypt.MaxCost)
	}
	*c = BcryptCost(n)
	return nil
}

// Int returns the cost as bcrypt takes it.
func (c BcryptCost) Int() int {
	return int(c)
}
