package shipping

import (
	"context"
	"fmt"
	"sort"

	"github.com/go-resty/resty/v2"

	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

const (
	noestCreatePath   = "/api/public/create/order"
	noestTrackingPath = "/api/public/get/trackings/info"
	noestDeliveryType = 1
	noestWeightKg     = 1
)

var _ Provider = (*Noest)(nil)

type Noest struct {
	client *resty.Client
}

func NewNoest(cfg config.Shipping) *Noest {
	return &Noest{client: newRestyClient(cfg)}
}

type noestCreateRequest struct {
	APIToken  string `json:"api_token"`
	UserGUID  string `json:"user_guid"`
	Reference string `json:"reference"`
	Client    string `json:"client"`
	Phone     string `json:"phone"`
	Phone2    string `json:"phone_2,omitempty"`
	Address   string `json:"adresse"`
	WilayaID  int    `json:"wilaya_id"`
	Commune   string `json:"commune"`
	Amount    string `json:"montant"`
	Notes     string `json:"remarque"`
	Products  string `json:"produit"`
	TypeID    int    `json:"type_id"`
	Weight    int    `json:"poids"`
	StopDesk  int    `json:"stop_desk"`
}

func (p *Noest) CreateShipment(ctx context.Context, account model.ShippingAccount, req ShipmentRequest) (string, error) {
	stopDesk := 0
	if req.StopDesk {
		stopDesk = 1
	}

	var body apiResponse
	resp, err := p.client.R().
		SetContext(ctx).
		SetBody(noestCreateRequest{
			APIToken:  account.APIToken,
			UserGUID:  account.UserGUID,
			Reference: req.Reference,
			Client:    req.CustomerName,
			Phone:     req.Phone,
			Phone2:    req.Phone2,
			Address:   req.Address,
			WilayaID:  req.WilayaID,
			Commune:   req.Commune,
			Amount:    req.Amount.StringFixed(2),
			Notes:     req.Notes,
			Products:  req.Products,
			TypeID:    noestDeliveryType,
			Weight:    noestWeightKg,
			StopDesk:  stopDesk,
		}).
		SetResult(&body).
		SetError(&body).
		Post(endpoint(account.BaseURL, noestCreatePath))

	if err := classify(account, resp, err, body); err != nil {
		return "", err
	}

	return body.Tracking, nil
}

type noestActivity struct {
	Event    string `json:"event"`
	EventKey string `json:"event_key"`
	Date     string `json:"date"`
}

type noestTracking map[string]struct {
	Activity []noestActivity `json:"activity"`
}

func (p *Noest) Tracking(ctx context.Context, account model.ShippingAccount, tracking string) (TrackingInfo, error) {
	var body noestTracking
	resp, err := p.client.R().
		SetContext(ctx).
		SetQueryParams(map[string]string{
			"api_token":   account.APIToken,
			"user_guid":   account.UserGUID,
			"trackings[]": tracking,
		}).
		SetResult(&body).
		Get(endpoint(account.BaseURL, noestTrackingPath))
	if err != nil {
		return TrackingInfo{}, &Error{Kind: KindAccount, Account: account.Name, Err: err}
	}

	entry, ok := body[tracking]
	if resp.IsError() || !ok {
		return TrackingInfo{}, &Error{
			Kind:       KindAccount,
			Account:    account.Name,
			StatusCode: resp.StatusCode(),
			Message:    fmt.Sprintf("tracking %s unavailable", tracking),
		}
	}

	info := TrackingInfo{Tracking: tracking, Events: make([]TrackingEvent, 0, len(entry.Activity))}
	for _, a := range entry.Activity {
		info.Events = append(info.Events, TrackingEvent{
			Status: a.EventKey,
			At:     parseProviderTime(a.Date),
			Detail: a.Event,
		})
	}
	sort.SliceStable(info.Events, func(i, j int) bool {
		return info.Events[i].At.Before(info.Events[j].At)
	})
	if n := len(info.Events); n > 0 {
		info.Status = info.Events[n-1].Status
	}

	return info, nil
}
