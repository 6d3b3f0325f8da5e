// Package printer talks to the external receipt printer. Only the
// success/failure contract matters to billing; the driver lives behind
// the HTTP endpoint.
package printer

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"restobill/pkg/models"
)

type HTTPPrinter struct {
	url    string
	client *http.Client
}

func NewHTTPPrinter(url string) *HTTPPrinter {
	return &HTTPPrinter{
		url:    url,
		client: &http.Client{Timeout: 5 * time.Second},
	}
}

func (p *HTTPPrinter) PrintReceipt(ctx context.Context, bill models.Bill) error {
	body, err := json.Marshal(bill)
	if err != nil {
		return fmt.Errorf("encode receipt: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, p.url, bytes.NewReader(body))
	if err != nil {
		return fmt.Errorf("build print request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := p.client.Do(req)
	if err != nil {
		return fmt.Errorf("print receipt: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return fmt.Errorf("printer rejected receipt: %s", resp.Status)
	}
	return nil
}

// Noop is used when no printer is configured.
type Noop struct{}

func (Noop) PrintReceipt(ctx context.Context, bill models.Bill) error {
	return nil
}
