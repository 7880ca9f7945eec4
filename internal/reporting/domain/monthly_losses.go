package reporting

import (
	"fmt"

	"github.com/shopspring/decimal"

	clients "energy-accounting/internal/clients/domain"
	metering "energy-accounting/internal/metering/domain"
)

// MeterUsage records which ABT meter fed a figure.
type MeterUsage struct {
	MeterNumber    string `json:"meter_number"`
	UsedCheckMeter bool   `json:"used_check_meter"`
}

// MonthlyLossesInput is the monthly energy of a main client and its sub clients in kWh.
type MonthlyLossesInput struct {
	Main       ClientSnapshot
	MainMeter  MeterUsage
	MainEnergy metering.Energy
	Subs       []SubMonthlyInput
}

// SubMonthlyInput is one sub client with its part clients.
type SubMonthlyInput struct {
	Client ClientSnapshot
	Meter  MeterUsage
	Energy metering.Energy
	Parts  []clients.PartClient
}

// MainLosses is the main-level gross energy.
type MainLosses struct {
	Client            ClientSnapshot  `json:"client"`
	Meter             MeterUsage      `json:"meter"`
	GrossInjectionMWh decimal.Decimal `json:"gross_injection_mwh"`
	GrossDrawlMWh     decimal.Decimal `json:"gross_drawl_mwh"`
}

// SubLosses is one sub client's share of the losses.
type SubLosses struct {
	Client                    ClientSnapshot  `json:"client"`
	Meter                     MeterUsage      `json:"meter"`
	GrossInjectionMWh         decimal.Decimal `json:"gross_injection_mwh"`
	GrossDrawlMWh             decimal.Decimal `json:"gross_drawl_mwh"`
	InjectionWeightagePercent decimal.Decimal `json:"injection_weightage_percent"`
	DrawlWeightagePercent     decimal.Decimal `json:"drawl_weightage_percent"`
	InjectionLossShareMWh     decimal.Decimal `json:"injection_loss_share_mwh"`
	DrawlLossShareMWh         decimal.Decimal `json:"drawl_loss_share_mwh"`
	InjectionLossPercent      decimal.Decimal `json:"injection_loss_percent"`
	DrawlLossPercent          decimal.Decimal `json:"drawl_loss_percent"`
	NetInjectionMWh           decimal.Decimal `json:"net_injection_mwh"`
	NetDrawlMWh               decimal.Decimal `json:"net_drawl_mwh"`
	Parts                     []PartShare     `json:"parts,omitempty"`
	UnallocatedSharingPercent decimal.Decimal `json:"unallocated_sharing_percent"`
}

// PartShare is a part client's proportional slice of its sub client's net energy.
type PartShare struct {
	Client            ClientSnapshot  `json:"client"`
	SharingPercentage decimal.Decimal `json:"sharing_percentage"`
	NetInjectionMWh   decimal.Decimal `json:"net_injection_mwh"`
	NetDrawlMWh       decimal.Decimal `json:"net_drawl_mwh"`
}

// LossSummary holds the overall and difference figures for the month.
// InjectionLoss = sum(sub injection) - main injection; DrawlLoss = main drawl - sum(sub drawl).
// Positive values are losses, negative values gains.
type LossSummary struct {
	MainInjectionMWh     decimal.Decimal `json:"main_injection_mwh"`
	MainDrawlMWh         decimal.Decimal `json:"main_drawl_mwh"`
	TotalSubInjectionMWh decimal.Decimal `json:"total_sub_injection_mwh"`
	TotalSubDrawlMWh     decimal.Decimal `json:"total_sub_drawl_mwh"`
	InjectionLossMWh     decimal.Decimal `json:"injection_loss_mwh"`
	InjectionLossPercent decimal.Decimal `json:"injection_loss_percent"`
	DrawlLossMWh         decimal.Decimal `json:"drawl_loss_mwh"`
	DrawlLossPercent     decimal.Decimal `json:"drawl_loss_percent"`
	NetInjectionMWh      decimal.Decimal `json:"net_injection_mwh"`
	NetDrawlMWh          decimal.Decimal `json:"net_drawl_mwh"`
}

// MonthlyLosses is the computed distribution for one main client and month.
type MonthlyLosses struct {
	Main     MainLosses  `json:"main"`
	Subs     []SubLosses `json:"subs"`
	Summary  LossSummary `json:"summary"`
	Warnings []string    `json:"warnings,omitempty"`
}

// ComputeMonthlyLosses distributes the month's losses across sub clients by weightage
// and splits each sub client's net energy across its part clients by sharing percentage.
// Net injection and net drawl over all sub clients add up to the main client's figures
// whenever the sub totals are non-zero.
func ComputeMonthlyLosses(in MonthlyLossesInput) MonthlyLosses {
	out := MonthlyLosses{
		Main: MainLosses{
			Client:            in.Main,
			Meter:             in.MainMeter,
			GrossInjectionMWh: kwhToMWh(in.MainEnergy.Export),
			GrossDrawlMWh:     kwhToMWh(in.MainEnergy.Import),
		},
		Subs: make([]SubLosses, 0, len(in.Subs)),
	}

	totalInjection := decimal.Zero
	totalDrawl := decimal.Zero
	for _, sub := range in.Subs {
		totalInjection = totalInjection.Add(kwhToMWh(sub.Energy.Export))
		totalDrawl = totalDrawl.Add(kwhToMWh(sub.Energy.Import))
	}

	summary := LossSummary{
		MainInjectionMWh:     out.Main.GrossInjectionMWh,
		MainDrawlMWh:         out.Main.GrossDrawlMWh,
		TotalSubInjectionMWh: totalInjection,
		TotalSubDrawlMWh:     totalDrawl,
		InjectionLossMWh:     totalInjection.Sub(out.Main.GrossInjectionMWh),
		DrawlLossMWh:         out.Main.GrossDrawlMWh.Sub(totalDrawl),
		NetInjectionMWh:      decimal.Zero,
		NetDrawlMWh:          decimal.Zero,
	}
	summary.InjectionLossPercent = Percent(summary.InjectionLossMWh, totalInjection)
	summary.DrawlLossPercent = Percent(summary.DrawlLossMWh, out.Main.GrossDrawlMWh)

	for _, sub := range in.Subs {
		gross := kwhToMWh(sub.Energy.Export)
		grossDrawl := kwhToMWh(sub.Energy.Import)
		injShare := shareOf(summary.InjectionLossMWh, gross, totalInjection)
		drawlShare := shareOf(summary.DrawlLossMWh, grossDrawl, totalDrawl)

		entry := SubLosses{
			Client:                    sub.Client,
			Meter:                     sub.Meter,
			GrossInjectionMWh:         gross,
			GrossDrawlMWh:             grossDrawl,
			InjectionWeightagePercent: Percent(gross, totalInjection),
			DrawlWeightagePercent:     Percent(grossDrawl, totalDrawl),
			InjectionLossShareMWh:     injShare,
			DrawlLossShareMWh:         drawlShare,
			InjectionLossPercent:      Percent(injShare, gross),
			DrawlLossPercent:          Percent(drawlShare, grossDrawl),
			NetInjectionMWh:           gross.Sub(injShare),
			NetDrawlMWh:               grossDrawl.Add(drawlShare),
			UnallocatedSharingPercent: decimal.Zero,
		}
		if len(sub.Parts) > 0 {
			allocated := decimal.Zero
			for _, part := range sub.Parts {
				if !part.SharingInRange() {
					out.Warnings = append(out.Warnings, fmt.Sprintf("part client %s of sub client %s: sharing percentage %v out of range, skipped", part.ID, sub.Client.ID, part.SharingPercentage))
					continue
				}
				pct := decimal.NewFromFloat(part.SharingPercentage)
				allocated = allocated.Add(pct)
				entry.Parts = append(entry.Parts, PartShare{
					Client:            SnapshotOf(part),
					SharingPercentage: pct,
					NetInjectionMWh:   entry.NetInjectionMWh.Mul(pct).Div(hundred),
					NetDrawlMWh:       entry.NetDrawlMWh.Mul(pct).Div(hundred),
				})
			}
			entry.UnallocatedSharingPercent = hundred.Sub(allocated)
		}
		summary.NetInjectionMWh = summary.NetInjectionMWh.Add(entry.NetInjectionMWh)
		summary.NetDrawlMWh = summary.NetDrawlMWh.Add(entry.NetDrawlMWh)
		out.Subs = append(out.Subs, entry)
	}
	out.Summary = summary
	return out
}

// shareOf returns loss * part / whole, zero when whole is zero.
func shareOf(loss, part, whole decimal.Decimal) decimal.Decimal {
	if whole.IsZero() {
		return decimal.Zero
	}
	return loss.Mul(part).Div(whole)
}
