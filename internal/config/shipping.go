package config

import "time"

type Shipping struct {
	Timeout time.Duration `env:"SHIPPING_TIMEOUT" envDefault:"15s"`
	// AutoDispatch ships confirmed orders from the order.confirmed event.
	AutoDispatch bool `env:"SHIPPING_AUTO_DISPATCH" envDefault:"false"`
}
