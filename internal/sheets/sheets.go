// Package sheets downloads order spreadsheets as CSV and maps their loosely
// named columns onto import rows.
package sheets

import (
	"bytes"
	"context"
	"fmt"
	"strings"

	"github.com/go-resty/resty/v2"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
)

// Source identifies one tab of a spreadsheet.
type Source struct {
	SheetID string `json:"sheet_id" validate:"required"`
	GID     string `json:"gid"`
}

// ParseSource reads "sheetID" or "sheetID:gid".
func ParseSource(s string) (Source, error) {
	id, gid, _ := strings.Cut(strings.TrimSpace(s), ":")
	if id == "" {
		return Source{}, fmt.Errorf("invalid sheet source %q", s)
	}
	if gid == "" {
		gid = "0"
	}
	return Source{SheetID: id, GID: gid}, nil
}

func (s Source) String() string {
	return s.SheetID + ":" + s.GID
}

// ExternalRef is the idempotency key of an imported row.
func (s Source) ExternalRef(line int) string {
	return fmt.Sprintf("sheet:%s:%s:%d", s.SheetID, s.GID, line)
}

type Client struct {
	client *resty.Client
}

func NewClient(cfg config.Sheets) *Client {
	return &Client{
		client: resty.New().
			SetBaseURL(strings.TrimRight(cfg.ExportBaseURL, "/")).
			SetTimeout(cfg.Timeout),
	}
}

// Fetch exports the tab as CSV and parses it.
func (c *Client) Fetch(ctx context.Context, src Source) ([]Row, error) {
	resp, err := c.client.R().
		SetContext(ctx).
		SetPathParam("sheetID", src.SheetID).
		SetQueryParams(map[string]string{
			"format": "csv",
			"gid":    src.GID,
		}).
		Get("/spreadsheets/d/{sheetID}/export")
	if err != nil {
		return nil, apperr.SheetFetchErr.WrapParent(err)
	}
	if resp.IsError() {
		return nil, apperr.SheetFetchErr.WithMsg("sheet export returned status %d", resp.StatusCode())
	}

	return Parse(bytes.NewReader(resp.Body()))
}
