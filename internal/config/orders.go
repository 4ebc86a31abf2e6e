package config

import "time"

type Orders struct {
	DuplicateWindow   time.Duration `env:"ORDERS_DUPLICATE_WINDOW" envDefault:"72h"`
	LowStockThreshold int           `env:"ORDERS_LOW_STOCK_THRESHOLD" envDefault:"5"`
}
