package memory

import (
	"context"
	"fmt"
	"io"
	"os"

	"gopkg.in/yaml.v3"

	clients "energy-accounting/internal/clients/domain"
)

type seedProfile struct {
	MF            float64 `yaml:"mf"`
	PN            int     `yaml:"pn"`
	DCCapacityKWp string  `yaml:"dc_capacity_kwp"`
	ACCapacityKW  string  `yaml:"ac_capacity_kw"`
	MainMeter     string  `yaml:"abt_main_meter"`
	CheckMeter    string  `yaml:"abt_check_meter"`
}

func (p seedProfile) profile() clients.EnergyProfile {
	mf := p.MF
	if mf == 0 {
		mf = 1
	}
	pn := clients.Polarity(p.PN)
	if p.PN == 0 {
		pn = clients.PolarityDirect
	}
	return clients.EnergyProfile{
		MF:            mf,
		PN:            pn,
		DCCapacityKWp: clients.ParseCapacity(p.DCCapacityKWp),
		ACCapacityKW:  clients.ParseCapacity(p.ACCapacityKW),
		MainMeter:     clients.MeterSlot{MeterNumber: p.MainMeter},
		CheckMeter:    clients.MeterSlot{MeterNumber: p.CheckMeter},
	}
}

type seedPart struct {
	ID                string      `yaml:"id"`
	Name              string      `yaml:"name"`
	SharingPercentage float64     `yaml:"sharing_percentage"`
	Energy            seedProfile `yaml:",inline"`
}

type seedSub struct {
	ID          string      `yaml:"id"`
	Name        string      `yaml:"name"`
	PartClients []seedPart  `yaml:"part_clients"`
	Energy      seedProfile `yaml:",inline"`
}

type seedMain struct {
	ID         string      `yaml:"id"`
	Name       string      `yaml:"name"`
	SubClients []seedSub   `yaml:"sub_clients"`
	Energy     seedProfile `yaml:",inline"`
}

type seedFile struct {
	MainClients []seedMain `yaml:"main_clients"`
}

// LoadSeedFile reads a YAML client hierarchy into the repository.
func (r *ClientRepository) LoadSeedFile(ctx context.Context, path string) (int, error) {
	f, err := os.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()
	return r.LoadSeed(ctx, f)
}

// LoadSeed reads a YAML client hierarchy and returns the number of clients stored.
// A zero mf defaults to 1 and a zero pn to direct polarity.
func (r *ClientRepository) LoadSeed(ctx context.Context, src io.Reader) (int, error) {
	var file seedFile
	if err := yaml.NewDecoder(src).Decode(&file); err != nil && err != io.EOF {
		return 0, fmt.Errorf("client seed: decode: %w", err)
	}
	stored := 0
	for _, m := range file.MainClients {
		main := clients.MainClient{ID: m.ID, Name: m.Name, Energy: m.Energy.profile()}
		if err := r.SaveMain(ctx, main); err != nil {
			return stored, fmt.Errorf("client seed: main %s: %w", m.ID, err)
		}
		stored++
		for _, s := range m.SubClients {
			sub := clients.SubClient{ID: s.ID, MainClientID: m.ID, Name: s.Name, Energy: s.Energy.profile()}
			if err := r.SaveSub(ctx, sub); err != nil {
				return stored, fmt.Errorf("client seed: sub %s: %w", s.ID, err)
			}
			stored++
			for _, p := range s.PartClients {
				part := clients.PartClient{ID: p.ID, SubClientID: s.ID, Name: p.Name, SharingPercentage: p.SharingPercentage, Energy: p.Energy.profile()}
				if err := r.SavePart(ctx, part); err != nil {
					return stored, fmt.Errorf("client seed: part %s: %w", p.ID, err)
				}
				stored++
			}
		}
	}
	return stored, nil
}
