package clients

import (
	"context"
	"fmt"
	"sort"
)

// Repository reads the client hierarchy. Missing clients are returned as nil, nil.
type Repository interface {
	GetMain(ctx context.Context, id string) (*MainClient, error)
	GetSub(ctx context.Context, id string) (*SubClient, error)
	ListSubClients(ctx context.Context, mainClientID string) ([]SubClient, error)
	ListPartClients(ctx context.Context, subClientID string) ([]PartClient, error)
}

// SubBranch is a sub client with its part clients.
type SubBranch struct {
	Sub   SubClient
	Parts []PartClient
}

// Hierarchy is a main client with the selected sub branches.
type Hierarchy struct {
	Main MainClient
	Subs []SubBranch
}

// SubClientIDs returns the sorted ids of the selected sub clients.
func (h *Hierarchy) SubClientIDs() []string {
	if h == nil {
		return nil
	}
	ids := make([]string, 0, len(h.Subs))
	for _, branch := range h.Subs {
		ids = append(ids, branch.Sub.ID)
	}
	sort.Strings(ids)
	return ids
}

// LoadHierarchy walks main -> subs -> parts. An empty subIDs selects every sub client of the main client.
func LoadHierarchy(ctx context.Context, repo Repository, mainClientID string, subIDs []string) (*Hierarchy, error) {
	if repo == nil {
		return nil, fmt.Errorf("clients: nil repository")
	}
	if mainClientID == "" {
		return nil, ErrEmptyID
	}
	mainClient, err := repo.GetMain(ctx, mainClientID)
	if err != nil {
		return nil, err
	}
	if mainClient == nil {
		return nil, fmt.Errorf("main client %s: %w", mainClientID, ErrClientNotFound)
	}

	var subs []SubClient
	if len(subIDs) == 0 {
		subs, err = repo.ListSubClients(ctx, mainClientID)
		if err != nil {
			return nil, err
		}
	} else {
		seen := make(map[string]struct{}, len(subIDs))
		for _, id := range subIDs {
			if _, dup := seen[id]; dup {
				continue
			}
			seen[id] = struct{}{}
			sub, err := repo.GetSub(ctx, id)
			if err != nil {
				return nil, err
			}
			if sub == nil {
				return nil, fmt.Errorf("sub client %s: %w", id, ErrClientNotFound)
			}
			if sub.MainClientID != mainClientID {
				return nil, fmt.Errorf("sub client %s: %w", id, ErrForeignSubClient)
			}
			subs = append(subs, *sub)
		}
	}
	sort.Slice(subs, func(i, j int) bool { return subs[i].ID < subs[j].ID })

	h := &Hierarchy{Main: *mainClient, Subs: make([]SubBranch, 0, len(subs))}
	for _, sub := range subs {
		parts, err := repo.ListPartClients(ctx, sub.ID)
		if err != nil {
			return nil, err
		}
		sort.Slice(parts, func(i, j int) bool { return parts[i].ID < parts[j].ID })
		h.Subs = append(h.Subs, SubBranch{Sub: sub, Parts: parts})
	}
	return h, nil
}
