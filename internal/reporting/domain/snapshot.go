package reporting

import (
	"sort"

	clients "energy-accounting/internal/clients/domain"
)

// ClientSnapshot copies the client fields a renderer needs, so documents are
// self-contained.
type ClientSnapshot struct {
	ID                string           `json:"id"`
	Kind              clients.Kind     `json:"kind"`
	Name              string           `json:"name"`
	ParentID          string           `json:"parent_id,omitempty"`
	MF                float64          `json:"mf"`
	PN                clients.Polarity `json:"pn"`
	DCCapacityKWp     clients.Capacity `json:"dc_capacity_kwp"`
	ACCapacityKW      clients.Capacity `json:"ac_capacity_kw"`
	MainMeterNumber   string           `json:"abt_main_meter,omitempty"`
	CheckMeterNumber  string           `json:"abt_check_meter,omitempty"`
	SharingPercentage *float64         `json:"sharing_percentage,omitempty"`
}

// SnapshotOf captures an entity.
func SnapshotOf(entity clients.Entity) ClientSnapshot {
	if entity == nil {
		return ClientSnapshot{}
	}
	profile := entity.Profile()
	snap := ClientSnapshot{
		ID:               entity.ClientID(),
		Kind:             entity.ClientKind(),
		Name:             entity.DisplayName(),
		MF:               profile.MF,
		PN:               profile.PN,
		DCCapacityKWp:    profile.DCCapacityKWp,
		ACCapacityKW:     profile.ACCapacityKW,
		MainMeterNumber:  profile.MainMeter.MeterNumber,
		CheckMeterNumber: profile.CheckMeter.MeterNumber,
	}
	switch c := entity.(type) {
	case clients.SubClient:
		snap.ParentID = c.MainClientID
	case *clients.SubClient:
		snap.ParentID = c.MainClientID
	case clients.PartClient:
		snap.ParentID = c.SubClientID
		share := c.SharingPercentage
		snap.SharingPercentage = &share
	case *clients.PartClient:
		snap.ParentID = c.SubClientID
		share := c.SharingPercentage
		snap.SharingPercentage = &share
	}
	return snap
}

// NormalizeKeySet sorts and de-duplicates client ids.
func NormalizeKeySet(ids []string) []string {
	if len(ids) == 0 {
		return []string{}
	}
	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" {
			continue
		}
		if _, ok := seen[id]; ok {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}

func sameKeySet(a, b []string) bool {
	a = NormalizeKeySet(a)
	b = NormalizeKeySet(b)
	if len(a) != len(b) {
		return false
	}
	for i := range a {
		if a[i] != b[i] {
			return false
		}
	}
	return true
}
