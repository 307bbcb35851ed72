package signal

import (
	"context"
	"strings"

	"github.com/sells-group/supplier-cli/pkg/wto"
)

// HighDutyThreshold is the duty rate (percent) above which a line counts as
// high duty.
const HighDutyThreshold = 10.0

// TariffSummary is the normalized in-force tariff picture for one product.
type TariffSummary struct {
	HighDuty    bool    `json:"high_duty"`
	MaxDutyRate float64 `json:"max_duty_rate"`
	Lines       int     `json:"lines"`
}

// SummarizeTariff reduces in-force lines to a TariffSummary.
func SummarizeTariff(items []wto.Item) TariffSummary {
	out := TariffSummary{Lines: len(items)}
	for _, it := range items {
		if it.DutyRate > out.MaxDutyRate {
			out.MaxDutyRate = it.DutyRate
		}
		if it.DutyRate > HighDutyThreshold {
			out.HighDuty = true
		}
	}
	return out
}

// TariffAdapter implements TariffProvider over the WTO QRS API.
type TariffAdapter struct {
	client wto.Client
	opts   Options
}

// NewTariffAdapter wraps client.
func NewTariffAdapter(client wto.Client, opts Options) *TariffAdapter {
	return &TariffAdapter{client: client, opts: opts}
}

// Tariff implements TariffProvider.
func (a *TariffAdapter) Tariff(ctx context.Context, tradeCode, productCode string) Signal[TariffSummary] {
	tradeCode, productCode = strings.TrimSpace(tradeCode), strings.TrimSpace(productCode)
	if tradeCode == "" || productCode == "" {
		return Unavailable[TariffSummary]("missing trade or product code")
	}
	if a == nil || a.client == nil {
		return Unavailable[TariffSummary]("tariff provider not configured")
	}
	return lookup(ctx, NameTariff, a.opts, func(ctx context.Context) (TariffSummary, error) {
		resp, err := a.client.Restrictions(ctx, tradeCode, productCode)
		if err != nil {
			return TariffSummary{}, err
		}
		return SummarizeTariff(resp.Items), nil
	})
}
