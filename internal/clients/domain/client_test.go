package clients_test

import (
	"context"
	"errors"
	"testing"

	clients "energy-accounting/internal/clients/domain"
	"energy-accounting/internal/clients/infrastructure/memory"
)

func TestParsePolarity(t *testing.T) {
	for _, value := range []int{1, -1} {
		if _, err := clients.ParsePolarity(value); err != nil {
			t.Fatalf("pn=%d: unexpected error %v", value, err)
		}
	}
	for _, value := range []int{0, 2, -2} {
		if _, err := clients.ParsePolarity(value); !errors.Is(err, clients.ErrInvalidPolarity) {
			t.Fatalf("pn=%d: expected ErrInvalidPolarity, got %v", value, err)
		}
	}
}

func TestEnergyProfileValidate(t *testing.T) {
	profile := clients.EnergyProfile{MF: 0, PN: clients.PolarityDirect}
	if !errors.Is(profile.Validate(), clients.ErrInvalidMultiplyingFactor) {
		t.Fatalf("expected mf error")
	}
	profile.MF = 2
	profile.PN = 3
	if !errors.Is(profile.Validate(), clients.ErrInvalidPolarity) {
		t.Fatalf("expected pn error")
	}
}

func TestLoadHierarchy(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo(t)

	h, err := clients.LoadHierarchy(ctx, repo, "main-1", nil)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	ids := h.SubClientIDs()
	if len(ids) != 2 || ids[0] != "sub-a" || ids[1] != "sub-b" {
		t.Fatalf("unexpected subs %v", ids)
	}
	if len(h.Subs[0].Parts) != 2 || h.Subs[0].Parts[0].ID != "part-1" {
		t.Fatalf("unexpected parts %+v", h.Subs[0].Parts)
	}

	h, err = clients.LoadHierarchy(ctx, repo, "main-1", []string{"sub-b", "sub-b"})
	if err != nil {
		t.Fatalf("load selected: %v", err)
	}
	if len(h.Subs) != 1 || h.Subs[0].Sub.ID != "sub-b" {
		t.Fatalf("unexpected selection %+v", h.Subs)
	}
}

func TestLoadHierarchyErrors(t *testing.T) {
	ctx := context.Background()
	repo := seedRepo(t)

	if _, err := clients.LoadHierarchy(ctx, repo, "missing", nil); !errors.Is(err, clients.ErrClientNotFound) {
		t.Fatalf("expected not found, got %v", err)
	}
	if _, err := clients.LoadHierarchy(ctx, repo, "main-1", []string{"sub-x"}); !errors.Is(err, clients.ErrClientNotFound) {
		t.Fatalf("expected sub not found, got %v", err)
	}
	if _, err := clients.LoadHierarchy(ctx, repo, "main-1", []string{"sub-other"}); !errors.Is(err, clients.ErrForeignSubClient) {
		t.Fatalf("expected foreign sub error, got %v", err)
	}
}

func seedRepo(t *testing.T) *memory.ClientRepository {
	t.Helper()
	ctx := context.Background()
	repo := memory.NewClientRepository()
	profile := clients.EnergyProfile{MF: 1, PN: clients.PolarityDirect}
	mustSave(t, repo.SaveMain(ctx, clients.MainClient{ID: "main-1", Name: "Main One", Energy: profile}))
	mustSave(t, repo.SaveMain(ctx, clients.MainClient{ID: "main-2", Name: "Main Two", Energy: profile}))
	mustSave(t, repo.SaveSub(ctx, clients.SubClient{ID: "sub-b", MainClientID: "main-1", Energy: profile}))
	mustSave(t, repo.SaveSub(ctx, clients.SubClient{ID: "sub-a", MainClientID: "main-1", Energy: profile}))
	mustSave(t, repo.SaveSub(ctx, clients.SubClient{ID: "sub-other", MainClientID: "main-2", Energy: profile}))
	mustSave(t, repo.SavePart(ctx, clients.PartClient{ID: "part-2", SubClientID: "sub-a", SharingPercentage: 40}))
	mustSave(t, repo.SavePart(ctx, clients.PartClient{ID: "part-1", SubClientID: "sub-a", SharingPercentage: 60}))
	return repo
}

func mustSave(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatalf("save: %v", err)
	}
}
