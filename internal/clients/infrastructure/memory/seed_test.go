package memory

import (
	"context"
	"strings"
	"testing"

	clients "energy-accounting/internal/clients/domain"
)

const seedYAML = `
main_clients:
  - id: main-1
    name: Solar Park
    dc_capacity_kwp: "1,000"
    abt_main_meter: M-MAIN
    abt_check_meter: M-CHECK
    sub_clients:
      - id: sub-a
        name: Block A
        pn: 1
        mf: 2.5
        abt_main_meter: A-MAIN
        part_clients:
          - id: part-1
            sharing_percentage: 60
          - id: part-2
            sharing_percentage: 40
`

func TestLoadSeed(t *testing.T) {
	ctx := context.Background()
	repo := NewClientRepository()
	n, err := repo.LoadSeed(ctx, strings.NewReader(seedYAML))
	if err != nil {
		t.Fatalf("load seed: %v", err)
	}
	if n != 4 {
		t.Fatalf("expected 4 clients stored, got %d", n)
	}
	h, err := clients.LoadHierarchy(ctx, repo, "main-1", nil)
	if err != nil {
		t.Fatalf("hierarchy: %v", err)
	}
	if v, ok := h.Main.Energy.DCCapacityKWp.Value(); !ok || v.String() != "1000" {
		t.Fatalf("expected dc capacity 1000, got %v %v", v, ok)
	}
	if h.Main.Energy.PN != clients.PolarityDirect || h.Main.Energy.MF != 1 {
		t.Fatalf("expected defaults on main profile, got %+v", h.Main.Energy)
	}
	if len(h.Subs) != 1 {
		t.Fatalf("expected one sub branch, got %d", len(h.Subs))
	}
	sub := h.Subs[0].Sub
	if sub.Energy.PN != clients.PolarityReversed || sub.Energy.MF != 2.5 {
		t.Fatalf("unexpected sub profile %+v", sub.Energy)
	}
	if len(h.Subs[0].Parts) != 2 {
		t.Fatalf("expected two part clients, got %d", len(h.Subs[0].Parts))
	}
}

func TestLoadSeedRejectsBadPolarity(t *testing.T) {
	repo := NewClientRepository()
	_, err := repo.LoadSeed(context.Background(), strings.NewReader("main_clients:\n  - id: m\n    pn: 3\n"))
	if err == nil {
		t.Fatalf("expected polarity error")
	}
}
