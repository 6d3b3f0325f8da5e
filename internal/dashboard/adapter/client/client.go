// Package client is a thin read client for the order and billing HTTP
// APIs. It only fetches; mutations go through the services directly.
package client

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"restobill/internal/dashboard/app/core"
	"restobill/pkg/models"
)

const requestTimeout = 5 * time.Second

type Client struct {
	orderAPI   string
	billingAPI string
	hotelID    string
	http       *http.Client
}

func New(orderAPI, billingAPI, hotelID string) *Client {
	return &Client{
		orderAPI:   orderAPI,
		billingAPI: billingAPI,
		hotelID:    hotelID,
		http:       &http.Client{Timeout: requestTimeout},
	}
}

func (c *Client) Order(ctx context.Context, id int64) (models.Order, error) {
	var order models.Order
	url := fmt.Sprintf("%s/orders/%s/%d", c.orderAPI, c.hotelID, id)
	if err := c.get(ctx, url, &order); err != nil {
		return models.Order{}, err
	}
	return order, nil
}

func (c *Client) Orders(ctx context.Context, hotelID string) ([]models.Order, error) {
	var orders []models.Order
	url := fmt.Sprintf("%s/orders/%s", c.orderAPI, hotelID)
	if err := c.get(ctx, url, &orders); err != nil {
		return nil, err
	}
	return orders, nil
}

func (c *Client) Bills(ctx context.Context, hotelID string) ([]models.Bill, error) {
	var bills []models.Bill
	url := fmt.Sprintf("%s/bills/%s", c.billingAPI, hotelID)
	if err := c.get(ctx, url, &bills); err != nil {
		return nil, err
	}
	return bills, nil
}

func (c *Client) RecycleBin(ctx context.Context, hotelID string) ([]models.RecycleBinEntry, error) {
	var entries []models.RecycleBinEntry
	url := fmt.Sprintf("%s/recycle-bin/%s", c.billingAPI, hotelID)
	if err := c.get(ctx, url, &entries); err != nil {
		return nil, err
	}
	return entries, nil
}

func (c *Client) get(ctx context.Context, url string, out any) error {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return err
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusNotFound {
		return core.ErrNotFound
	}
	if resp.StatusCode != http.StatusOK {
		return fmt.Errorf("GET %s: unexpected status %d", url, resp.StatusCode)
	}
	return json.NewDecoder(resp.Body).Decode(out)
}
