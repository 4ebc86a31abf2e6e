package apperr

import "github.com/tuanvumaihuynh/orderdesk/pkg/zerror"

const (
	ValidationErrorCode = "VALIDATION_FAILED"
)

var (
	ValidationErr = zerror.NewValidationFailed(ValidationErrorCode, "validation error")
	UnhealthyErr  = zerror.NewServiceUnavailable("UNHEALTHY", "database unavailable")

	// auth
	UnauthenticatedErr    = zerror.NewUnauthorized("UNAUTHENTICATED", "authentication required")
	InvalidCredentialsErr = zerror.NewUnauthorized("INVALID_CREDENTIALS", "invalid email or password")
	PermissionDeniedErr   = zerror.NewForbidden("PERMISSION_DENIED", "permission denied")

	// users and roles
	UserNotFoundErr     = zerror.NewNotFound("USER_NOT_FOUND", "user not found")
	UserEmailConflict   = zerror.NewConflict("USER_EMAIL_CONFLICT", "email already in use")
	RoleNotFoundErr     = zerror.NewNotFound("ROLE_NOT_FOUND", "role not found")
	RoleNameConflictErr = zerror.NewConflict("ROLE_NAME_CONFLICT", "role name already in use")

	// locations and pricing
	WilayaNotFoundErr        = zerror.NewNotFound("WILAYA_NOT_FOUND", "wilaya not found")
	BaladiaNotFoundErr       = zerror.NewNotFound("BALADIA_NOT_FOUND", "baladia not found")
	DeliveryPriceNotFoundErr = zerror.NewNotFound("DELIVERY_PRICE_NOT_FOUND", "no delivery price for destination")
	StopDeskUnavailableErr   = zerror.NewUnprocessableEntity("STOP_DESK_UNAVAILABLE", "stop desk delivery unavailable for this commune")

	// products and stock
	ProductNotFoundErr    = zerror.NewNotFound("PRODUCT_NOT_FOUND", "product not found")
	ProductSKUConflictErr = zerror.NewConflict("PRODUCT_SKU_CONFLICT", "sku already in use")
	ProductInactiveErr    = zerror.NewUnprocessableEntity("PRODUCT_INACTIVE", "product is not active")
	InsufficientStockErr  = zerror.NewConflict("INSUFFICIENT_STOCK", "insufficient stock")
	InvalidMovementErr    = zerror.NewBadRequest("INVALID_STOCK_MOVEMENT", "invalid stock movement")

	// orders
	OrderNotFoundErr            = zerror.NewNotFound("ORDER_NOT_FOUND", "order not found")
	InvalidPhoneErr             = zerror.NewValidationFailed("INVALID_PHONE", "invalid phone number")
	InvalidStatusTransitionErr  = zerror.NewUnprocessableEntity("INVALID_STATUS_TRANSITION", "invalid order status transition")
	OrderNotEditableErr         = zerror.NewUnprocessableEntity("ORDER_NOT_EDITABLE", "order can no longer be edited")
	OrderExternalRefConflictErr = zerror.NewConflict("ORDER_EXTERNAL_REF_CONFLICT", "order already imported")
	OrderNotShippableErr        = zerror.NewUnprocessableEntity("ORDER_NOT_SHIPPABLE", "order must be confirmed before shipping")
	OrderNotTrackedErr          = zerror.NewUnprocessableEntity("ORDER_NOT_TRACKED", "order has no tracking number")

	// shipping
	ShippingAccountNotFoundErr     = zerror.NewNotFound("SHIPPING_ACCOUNT_NOT_FOUND", "shipping account not found")
	ShippingAccountNameConflictErr = zerror.NewConflict("SHIPPING_ACCOUNT_NAME_CONFLICT", "shipping account name already in use")
	ShippingAccountInUseErr        = zerror.NewConflict("SHIPPING_ACCOUNT_IN_USE", "shipping account is referenced by orders")
	NoShippingAccountErr           = zerror.NewUnprocessableEntity("NO_SHIPPING_ACCOUNT", "no enabled shipping account")
	ShippingRejectedErr            = zerror.NewUnprocessableEntity("SHIPPING_REJECTED", "shipping provider rejected the order")
	ShippingFailedErr              = zerror.NewBadGateway("SHIPPING_FAILED", "every shipping account failed")

	// imports
	SheetFetchErr  = zerror.NewBadGateway("SHEET_FETCH_FAILED", "could not fetch sheet")
	SheetFormatErr = zerror.NewUnprocessableEntity("SHEET_FORMAT_INVALID", "sheet format not recognised")
)
