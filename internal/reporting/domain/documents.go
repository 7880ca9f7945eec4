package reporting

import (
	"time"

	metering "energy-accounting/internal/metering/domain"
)

// DocumentKind distinguishes persisted report documents.
type DocumentKind string

const (
	KindDailyReport   DocumentKind = "daily_report"
	KindMonthlyLosses DocumentKind = "monthly_losses"
)

// ClientSeries is one client's daily figures within a daily report.
type ClientSeries struct {
	Client        ClientSnapshot `json:"client"`
	Meter         MeterUsage     `json:"meter"`
	CapacityBasis CapacityBasis  `json:"capacity_basis"`
	Days          []DailyFigure  `json:"days"`
	Totals        SeriesTotals   `json:"totals"`
}

func (s ClientSeries) clone() ClientSeries {
	s.Days = append([]DailyFigure(nil), s.Days...)
	return s
}

// DailyReportDocument is the persisted daily rollup for one main client and month.
// SubClientIDs is the requested key set used for cache matching.
type DailyReportDocument struct {
	ID                     string                 `json:"id"`
	MainClientID           string                 `json:"main_client_id"`
	Period                 metering.BillingPeriod `json:"period"`
	SubClientIDs           []string               `json:"sub_client_ids"`
	Main                   ClientSeries           `json:"main"`
	Subs                   []ClientSeries         `json:"subs"`
	LineLoss               LineLossSeries         `json:"line_loss"`
	ClientsUsingCheckMeter []string               `json:"clients_using_check_meter"`
	ClientsWithoutMeters   []string               `json:"clients_without_meters"`
	Warnings               []string               `json:"warnings,omitempty"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// MatchesKey reports whether the document was generated for exactly this sub client set.
func (d *DailyReportDocument) MatchesKey(subClientIDs []string) bool {
	if d == nil {
		return false
	}
	return sameKeySet(d.SubClientIDs, subClientIDs)
}

// Clone returns a copy that shares no slices with d.
func (d *DailyReportDocument) Clone() *DailyReportDocument {
	if d == nil {
		return nil
	}
	c := *d
	c.SubClientIDs = append([]string(nil), d.SubClientIDs...)
	c.Main = d.Main.clone()
	c.Subs = make([]ClientSeries, len(d.Subs))
	for i, s := range d.Subs {
		c.Subs[i] = s.clone()
	}
	c.LineLoss.Days = append([]LineLossFigure(nil), d.LineLoss.Days...)
	c.ClientsUsingCheckMeter = append([]string(nil), d.ClientsUsingCheckMeter...)
	c.ClientsWithoutMeters = append([]string(nil), d.ClientsWithoutMeters...)
	c.Warnings = append([]string(nil), d.Warnings...)
	return &c
}

// MonthlyLossesDocument is the persisted losses distribution for one main client and month.
type MonthlyLossesDocument struct {
	ID                     string                 `json:"id"`
	MainClientID           string                 `json:"main_client_id"`
	Period                 metering.BillingPeriod `json:"period"`
	SubClientIDs           []string               `json:"sub_client_ids"`
	Main                   MainLosses             `json:"main"`
	Subs                   []SubLosses            `json:"subs"`
	Summary                LossSummary            `json:"summary"`
	ClientsUsingCheckMeter []string               `json:"clients_using_check_meter"`
	ClientsWithoutMeters   []string               `json:"clients_without_meters"`
	Warnings               []string               `json:"warnings,omitempty"`
	CreatedAt              time.Time              `json:"created_at"`
	UpdatedAt              time.Time              `json:"updated_at"`
}

// MatchesKey reports whether the document was generated for exactly this sub client set.
func (d *MonthlyLossesDocument) MatchesKey(subClientIDs []string) bool {
	if d == nil {
		return false
	}
	return sameKeySet(d.SubClientIDs, subClientIDs)
}

// SubByID finds a sub entry.
func (d *MonthlyLossesDocument) SubByID(id string) (SubLosses, bool) {
	if d == nil {
		return SubLosses{}, false
	}
	for _, sub := range d.Subs {
		if sub.Client.ID == id {
			return sub, true
		}
	}
	return SubLosses{}, false
}

// Clone returns a copy that shares no slices with d.
func (d *MonthlyLossesDocument) Clone() *MonthlyLossesDocument {
	if d == nil {
		return nil
	}
	c := *d
	c.SubClientIDs = append([]string(nil), d.SubClientIDs...)
	c.Subs = make([]SubLosses, len(d.Subs))
	for i, s := range d.Subs {
		s.Parts = append([]PartShare(nil), s.Parts...)
		c.Subs[i] = s
	}
	c.ClientsUsingCheckMeter = append([]string(nil), d.ClientsUsingCheckMeter...)
	c.ClientsWithoutMeters = append([]string(nil), d.ClientsWithoutMeters...)
	c.Warnings = append([]string(nil), d.Warnings...)
	return &c
}
