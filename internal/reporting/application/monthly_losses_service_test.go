package application

import (
	"context"
	"testing"

	"github.com/shopspring/decimal"
)

func TestMonthlyLossesGenerate(t *testing.T) {
	f := newFixture(t)
	svc := f.lossesService(t)
	ctx := context.Background()

	res, err := svc.Generate(ctx, MonthlyLossesRequest{MainClientID: "main-1", Period: march})
	if err != nil {
		t.Fatalf("generate: %v", err)
	}
	doc := res.Document
	if !doc.Main.GrossInjectionMWh.Equal(decimal.RequireFromString("1.8")) {
		t.Fatalf("unexpected main injection %s", doc.Main.GrossInjectionMWh)
	}
	if len(doc.Subs) != 2 {
		t.Fatalf("expected sub-c excluded, got %d subs", len(doc.Subs))
	}
	if !doc.Summary.TotalSubInjectionMWh.Equal(decimal.RequireFromString("1.48")) {
		t.Fatalf("unexpected sub total %s", doc.Summary.TotalSubInjectionMWh)
	}
	if !doc.Summary.InjectionLossMWh.Equal(decimal.RequireFromString("-0.32")) {
		t.Fatalf("unexpected injection loss %s", doc.Summary.InjectionLossMWh)
	}
	diff := doc.Summary.NetInjectionMWh.Sub(doc.Main.GrossInjectionMWh).Abs()
	if diff.GreaterThan(decimal.RequireFromString("0.000000001")) {
		t.Fatalf("net injection %s does not reconcile to main %s", doc.Summary.NetInjectionMWh, doc.Main.GrossInjectionMWh)
	}
	subA := doc.Subs[0]
	if len(subA.Parts) != 2 || subA.Parts[0].Client.ID != "part-1" {
		t.Fatalf("unexpected parts %+v", subA.Parts)
	}
	partSum := subA.Parts[0].NetInjectionMWh.Add(subA.Parts[1].NetInjectionMWh)
	if partSum.Sub(subA.NetInjectionMWh).Abs().GreaterThan(decimal.RequireFromString("0.000000001")) {
		t.Fatalf("parts %s do not add up to sub net %s", partSum, subA.NetInjectionMWh)
	}
	if len(doc.ClientsWithoutMeters) != 1 || len(doc.ClientsUsingCheckMeter) != 1 {
		t.Fatalf("unexpected notes without=%v check=%v", doc.ClientsWithoutMeters, doc.ClientsUsingCheckMeter)
	}

	again, err := svc.Generate(ctx, MonthlyLossesRequest{MainClientID: "main-1", Period: march})
	if err != nil {
		t.Fatalf("regenerate: %v", err)
	}
	if !again.CacheHit || again.Document.ID != doc.ID {
		t.Fatalf("expected cache hit on the same document")
	}
	if !again.Document.Summary.InjectionLossMWh.Equal(doc.Summary.InjectionLossMWh) {
		t.Fatalf("figures changed on cache hit")
	}

	stored, err := svc.Get(ctx, "main-1", march)
	if err != nil || stored.ID != doc.ID {
		t.Fatalf("get: %v", err)
	}
}
