package auth

import (
	"fmt"
	"slices"
)

// Permission is a capability key granted to roles.
type Permission string

const (
	PermOrdersRead     Permission = "orders.read"
	PermOrdersWrite    Permission = "orders.write"
	PermOrdersStatus   Permission = "orders.status"
	PermOrdersShip     Permission = "orders.ship"
	PermProductsRead   Permission = "products.read"
	PermProductsWrite  Permission = "products.write"
	PermStockWrite     Permission = "stock.write"
	PermDeliveryWrite  Permission = "delivery.write"
	PermShippingAdmin  Permission = "shipping.admin"
	PermImportsRun     Permission = "imports.run"
	PermUsersAdmin     Permission = "users.admin"
	PermReportsRead    Permission = "reports.read"
	PermLocationsWrite Permission = "locations.write"
)

// AdminRole holds every permission regardless of its stored grants.
const AdminRole = "admin"

var AllPermissions = []Permission{
	PermOrdersRead,
	PermOrdersWrite,
	PermOrdersStatus,
	PermOrdersShip,
	PermProductsRead,
	PermProductsWrite,
	PermStockWrite,
	PermDeliveryWrite,
	PermShippingAdmin,
	PermImportsRun,
	PermUsersAdmin,
	PermReportsRead,
	PermLocationsWrite,
}

func (p Permission) Validate() error {
	if slices.Contains(AllPermissions, p) {
		return nil
	}
	return fmt.Errorf("unknown permission: %s", p)
}
