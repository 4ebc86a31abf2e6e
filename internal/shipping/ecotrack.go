package shipping

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/go-resty/resty/v2"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

const (
	ecoTrackCreatePath   = "/api/v1/create/order"
	ecoTrackTrackingPath = "/api/v1/get/tracking/info"
	// type 1 is a plain delivery, as opposed to exchange or pickup.
	ecoTrackDeliveryType = "1"
)

var _ Provider = (*EcoTrack)(nil)

type EcoTrack struct {
	client *resty.Client
}

func NewEcoTrack(cfg config.Shipping) *EcoTrack {
	return &EcoTrack{client: newRestyClient(cfg)}
}

func (p *EcoTrack) CreateShipment(ctx context.Context, account model.ShippingAccount, req ShipmentRequest) (string, error) {
	var body apiResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(account.APIToken).
		SetFormData(map[string]string{
			"reference":   req.Reference,
			"nom_client":  req.CustomerName,
			"telephone":   req.Phone,
			"telephone_2": req.Phone2,
			"adresse":     req.Address,
			"code_wilaya": strconv.Itoa(req.WilayaID),
			"commune":     req.Commune,
			"montant":     req.Amount.StringFixed(2),
			"remarque":    req.Notes,
			"produit":     req.Products,
			"type":        ecoTrackDeliveryType,
			"stop_desk":   boolFlag(req.StopDesk),
		}).
		SetResult(&body).
		SetError(&body).
		Post(endpoint(account.BaseURL, ecoTrackCreatePath))

	if err := classify(account, resp, err, body); err != nil {
		return "", err
	}

	return body.Tracking, nil
}

type ecoTrackTracking struct {
	Activity []struct {
		Status string `json:"status"`
		Event  string `json:"event"`
		Date   string `json:"date"`
	} `json:"activity"`
}

func (p *EcoTrack) Tracking(ctx context.Context, account model.ShippingAccount, tracking string) (TrackingInfo, error) {
	var body ecoTrackTracking
	resp, err := p.client.R().
		SetContext(ctx).
		SetAuthToken(account.APIToken).
		SetQueryParam("tracking", tracking).
		SetResult(&body).
		Get(endpoint(account.BaseURL, ecoTrackTrackingPath))
	if err != nil {
		return TrackingInfo{}, &Error{Kind: KindAccount, Account: account.Name, Err: err}
	}
	if resp.IsError() {
		return TrackingInfo{}, &Error{
			Kind:       KindAccount,
			Account:    account.Name,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("tracking %s unavailable", tracking),
		}
	}

	info := TrackingInfo{Tracking: tracking, Events: make([]TrackingEvent, 0, len(body.Activity))}
	for _, a := range body.Activity {
		info.Events = append(info.Events, TrackingEvent{
			Status: a.Status,
			At:     parseProviderTime(a.Date),
			Detail: a.Event,
		})
	}
	if n := len(info.Events); n > 0 {
		info.Status = info.Events[n-1].Status
	}

	return info, nil
}

func endpoint(baseURL, path string) string {
	return strings.TrimRight(baseURL, "/") + path
}

var providerTimeLayouts = []string{time.RFC3339, "2006-01-02 15:04:05", "2006-01-02"}

// parseProviderTime returns the zero time for dates in an unknown layout.
func parseProviderTime(s string) time.Time {
	for _, layout := range providerTimeLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return t
		}
	}
	return time.Time{}
}
