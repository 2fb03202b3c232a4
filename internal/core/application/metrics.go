package application

import (
	"context"
	"math"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const meterName = "github.com/arkade-os/marketd"

type marketMetrics struct {
	marketplaces    metric.Int64Counter
	listings        metric.Int64Counter
	purchases       metric.Int64Counter
	failedPurchases metric.Int64Counter
	volume          metric.Int64Counter
}

func newMarketMetrics() (*marketMetrics, error) {
	meter := otel.Meter(meterName)

	marketplaces, err := meter.Int64Counter(
		"marketd.marketplaces", metric.WithDescription("marketplaces initialized"),
	)
	if err != nil {
		return nil, err
	}
	listings, err := meter.Int64Counter(
		"marketd.listings", metric.WithDescription("services listed"),
	)
	if err != nil {
		return nil, err
	}
	purchases, err := meter.Int64Counter(
		"marketd.purchases", metric.WithDescription("services purchased"),
	)
	if err != nil {
		return nil, err
	}
	failedPurchases, err := meter.Int64Counter(
		"marketd.purchases.failed", metric.WithDescription("rejected purchases by reason"),
	)
	if err != nil {
		return nil, err
	}
	volume, err := meter.Int64Counter(
		"marketd.volume", metric.WithDescription("lamports paid to creators"),
		metric.WithUnit("lamports"),
	)
	if err != nil {
		return nil, err
	}

	return &marketMetrics{
		marketplaces:    marketplaces,
		listings:        listings,
		purchases:       purchases,
		failedPurchases: failedPurchases,
		volume:          volume,
	}, nil
}

func (m *marketMetrics) listed(ctx context.Context, soulbound bool) {
	m.listings.Add(ctx, 1, metric.WithAttributes(attribute.Bool("soulbound", soulbound)))
}

func (m *marketMetrics) purchased(ctx context.Context, price uint64) {
	m.purchases.Add(ctx, 1)
	if price > math.MaxInt64 {
		price = math.MaxInt64
	}
	m.volume.Add(ctx, int64(price))
}

func (m *marketMetrics) purchaseFailed(ctx context.Context, reason string) {
	m.failedPurchases.Add(ctx, 1, metric.WithAttributes(attribute.String("reason", reason)))
}
