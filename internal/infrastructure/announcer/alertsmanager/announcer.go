package alertsmanager

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"math/big"
	"net/http"
	"strings"
	"time"

	"github.com/arkade-os/marketd/internal/core/ports"
	"github.com/shopspring/decimal"
)

const (
	serviceName = "marketd"
	severity    = "info"
	alertName   = "service_listed"

	solDecimals = 9

	maxRetries = 5
)

type Alert struct {
	Labels      map[string]string `json:"labels"`
	Annotations map[string]string `json:"annotations"`
	StartsAt    time.Time         `json:"startsAt"`
}

type announcer struct {
	baseUrl    string
	httpClient *http.Client
}

// NewAnnouncer returns an announcer pushing an alert to the given
// Alertmanager endpoint for every listed service.
func NewAnnouncer(alertManagerURL string) ports.Announcer {
	return &announcer{
		baseUrl: alertManagerURL,
		httpClient: &http.Client{
			Timeout: 10 * time.Second,
		},
	}
}

func (a *announcer) AnnounceService(
	ctx context.Context, announcement ports.ServiceAnnouncement,
) error {
	svc := announcement.Service
	alert := Alert{
		Labels: map[string]string{
			"alertname":   alertName,
			"service":     serviceName,
			"severity":    severity,
			"marketplace": svc.Marketplace,
			"listing":     svc.Address,
		},
		Annotations: map[string]string{
			"firing_title": fmt.Sprintf("🛒 %s listed", announcement.Name),
			"description":  formatServiceListedAlert(announcement),
		},
		StartsAt: time.Unix(svc.CreatedAt, 0),
	}

	if err := a.sendAlert(ctx, alert); err != nil {
		return fmt.Errorf("failed to send alert to AlertManager: %w", err)
	}
	return nil
}

func (a *announcer) Close() {
	a.httpClient.CloseIdleConnections()
}

func (a *announcer) sendAlert(ctx context.Context, alert Alert) error {
	payload, err := json.Marshal([]Alert{alert})
	if err != nil {
		return fmt.Errorf("failed to marshal alerts: %w", err)
	}

	baseDelay := 100 * time.Millisecond

	for attempt := range maxRetries {
		req, err := http.NewRequestWithContext(ctx, "POST", a.baseUrl, bytes.NewReader(payload))
		if err != nil {
			return fmt.Errorf("failed to create request: %w", err)
		}
		req.Header.Set("Content-Type", "application/json")

		resp, err := a.httpClient.Do(req)
		if err != nil {
			if attempt < maxRetries-1 {
				// 100ms, 200ms, 400ms, 800ms
				delay := baseDelay * time.Duration(1<<uint(attempt))

				select {
				case <-time.After(delay):
					continue
				case <-ctx.Done():
					return ctx.Err()
				}
			}
			return fmt.Errorf("failed to send alert after %d attempts: %w", maxRetries, err)
		}
		_ = resp.Body.Close()

		if resp.StatusCode >= 200 && resp.StatusCode < 300 {
			return nil
		}

		// Client errors are not retried.
		if resp.StatusCode >= 500 && attempt < maxRetries-1 {
			delay := baseDelay * time.Duration(1<<uint(attempt))

			select {
			case <-time.After(delay):
				continue
			case <-ctx.Done():
				return ctx.Err()
			}
		}

		return fmt.Errorf(
			"failed to send alert to AlertManager with status %d after %d attempts",
			resp.StatusCode, attempt+1,
		)
	}

	return fmt.Errorf("failed to send alert after %d attempts", maxRetries)
}

func formatServiceListedAlert(a ports.ServiceAnnouncement) string {
	svc := a.Service
	lines := make([]string, 0)
	lines = append(lines, a.URI)
	lines = append(lines, fmt.Sprintf("\n*Service:* `%s`", svc.Address))
	lines = append(lines, fmt.Sprintf("*Marketplace:* `%s`", svc.Marketplace))

	lines = append(lines, "\n*Listing:*")
	lines = append(lines, fmt.Sprintf("• Price: %s", formatSOL(svc.Price)))
	lines = append(lines, fmt.Sprintf("• Creator: %s", svc.Creator))
	lines = append(lines, fmt.Sprintf("• Asset: %s", svc.Asset))
	lines = append(lines, fmt.Sprintf("• Soulbound: %t", svc.IsSoulbound))
	lines = append(lines, fmt.Sprintf("• Royalties: %d bps", a.RoyaltyBps))

	if a.Hours != "" || a.Terms != "" {
		lines = append(lines, "\n*Terms:*")
		lines = append(lines, fmt.Sprintf("• Hours: %s", a.Hours))
		lines = append(lines, fmt.Sprintf("• Terms: %s", a.Terms))
	}
	return strings.Join(lines, "\n")
}

func formatSOL(lamports uint64) string {
	amount := decimal.NewFromBigInt(new(big.Int).SetUint64(lamports), -solDecimals)
	return fmt.Sprintf("%s SOL", amount.String())
}
