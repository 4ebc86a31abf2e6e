// Package shipping talks to the last-mile delivery providers and spreads
// shipment creation over every configured account.
package shipping

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/go-resty/resty/v2"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

type ShipmentRequest struct {
	Reference    string
	CustomerName string
	Phone        string
	Phone2       string
	Address      string
	WilayaID     int
	Commune      string
	Amount       decimal.Decimal
	Products     string
	Notes        string
	StopDesk     bool
}

type Shipment struct {
	Tracking    string    `json:"tracking"`
	AccountID   uuid.UUID `json:"account_id"`
	AccountName string    `json:"account_name"`
}

type TrackingEvent struct {
	Status string    `json:"status"`
	At     time.Time `json:"at"`
	Detail string    `json:"detail,omitempty"`
}

type TrackingInfo struct {
	Tracking string          `json:"tracking"`
	Status   string          `json:"status"`
	Events   []TrackingEvent `json:"events"`
}

type Provider interface {
	CreateShipment(ctx context.Context, account model.ShippingAccount, req ShipmentRequest) (string, error)
	Tracking(ctx context.Context, account model.ShippingAccount, tracking string) (TrackingInfo, error)
}

// ErrorKind separates failures tied to one account from failures of the
// request itself.
type ErrorKind int

const (
	// KindAccount failures let the dispatcher move on to the next account.
	KindAccount ErrorKind = iota
	// KindRequest failures would repeat on every account.
	KindRequest
)

type Error struct {
	Kind       ErrorKind
	Account    string
	StatusCode int
	Message    string
	Err        error
}

func (e *Error) Error() string {
	switch {
	case e.Err != nil:
		return fmt.Sprintf("account %s: %v", e.Account, e.Err)
	case e.StatusCode != 0:
		return fmt.Sprintf("account %s: status %d: %s", e.Account, e.StatusCode, e.Message)
	default:
		return fmt.Sprintf("account %s: %s", e.Account, e.Message)
	}
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsRequestError reports whether err is a provider rejection of the request
// content rather than of the account.
func IsRequestError(err error) bool {
	var e *Error
	return errors.As(err, &e) && e.Kind == KindRequest
}

// classify turns a provider response into an *Error, or nil when the call
// succeeded.
func classify(account model.ShippingAccount, resp *resty.Response, err error, body apiResponse) error {
	if err != nil {
		return &Error{Kind: KindAccount, Account: account.Name, Err: err}
	}

	status := resp.StatusCode()
	switch {
	case status == http.StatusBadRequest || status == http.StatusUnprocessableEntity:
		return &Error{Kind: KindRequest, Account: account.Name, StatusCode: status, Message: body.message()}
	case resp.IsError():
		return &Error{Kind: KindAccount, Account: account.Name, StatusCode: status, Message: body.message()}
	case !body.Success:
		kind := KindAccount
		if len(body.Errors) > 0 {
			kind = KindRequest
		}
		return &Error{Kind: kind, Account: account.Name, StatusCode: status, Message: body.message()}
	case body.Tracking == "":
		return &Error{Kind: KindAccount, Account: account.Name, StatusCode: status, Message: "response carries no tracking number"}
	}

	return nil
}

// apiResponse is the creation envelope shared by both providers.
type apiResponse struct {
	Success  bool                `json:"success"`
	Tracking string              `json:"tracking"`
	Message  string              `json:"message"`
	Errors   map[string][]string `json:"errors"`
}

func (r apiResponse) message() string {
	if r.Message != "" {
		return r.Message
	}
	for field, msgs := range r.Errors {
		if len(msgs) > 0 {
			return field + ": " + msgs[0]
		}
	}
	return "request not accepted"
}

func newRestyClient(cfg config.Shipping) *resty.Client {
	return resty.New().
		SetTimeout(cfg.Timeout).
		SetHeader("Accept", "application/json")
}

func boolFlag(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
