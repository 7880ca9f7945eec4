package clients

import (
	"math"
	"strconv"
	"time"
)

// Kind identifies the hierarchy level of a client.
type Kind string

const (
	KindMain Kind = "main"
	KindSub  Kind = "sub"
	KindPart Kind = "part"
)

// Polarity corrects for meters wired with a reversed export/import convention.
type Polarity int

const (
	// PolarityDirect reads export from Active(E) and import from Active(I).
	PolarityDirect Polarity = -1
	// PolarityReversed swaps the two registers.
	PolarityReversed Polarity = 1
)

// ParsePolarity validates a raw pn value.
func ParsePolarity(value int) (Polarity, error) {
	p := Polarity(value)
	if err := p.Validate(); err != nil {
		return 0, err
	}
	return p, nil
}

// Validate rejects anything other than +1 and -1.
func (p Polarity) Validate() error {
	if p != PolarityDirect && p != PolarityReversed {
		return ErrInvalidPolarity
	}
	return nil
}

func (p Polarity) String() string {
	return strconv.Itoa(int(p))
}

// MeterSlot names the physical meter bound to a slot.
type MeterSlot struct {
	MeterNumber string `json:"meter_number"`
}

// Empty reports whether no meter is bound.
func (m MeterSlot) Empty() bool { return m.MeterNumber == "" }

// EnergyProfile is the energy-accounting trait shared by every client level.
type EnergyProfile struct {
	MF            float64   `json:"mf"`
	PN            Polarity  `json:"pn"`
	DCCapacityKWp Capacity  `json:"dc_capacity_kwp"`
	ACCapacityKW  Capacity  `json:"ac_capacity_kw"`
	MainMeter     MeterSlot `json:"abt_main_meter"`
	CheckMeter    MeterSlot `json:"abt_check_meter"`
}

// Validate checks mf and pn.
func (p EnergyProfile) Validate() error {
	if math.IsNaN(p.MF) || math.IsInf(p.MF, 0) || p.MF <= 0 {
		return ErrInvalidMultiplyingFactor
	}
	return p.PN.Validate()
}

// HasMeters reports whether at least one ABT meter slot is bound.
func (p EnergyProfile) HasMeters() bool {
	return !p.MainMeter.Empty() || !p.CheckMeter.Empty()
}

// Entity is any client in the hierarchy.
type Entity interface {
	ClientID() string
	ClientKind() Kind
	DisplayName() string
	Profile() EnergyProfile
}

// MainClient is the generator at the root of the hierarchy.
type MainClient struct {
	ID        string        `json:"id"`
	Name      string        `json:"name"`
	Energy    EnergyProfile `json:"energy"`
	CreatedAt time.Time     `json:"created_at"`
	UpdatedAt time.Time     `json:"updated_at"`
}

func (c MainClient) ClientID() string       { return c.ID }
func (c MainClient) ClientKind() Kind       { return KindMain }
func (c MainClient) DisplayName() string    { return c.Name }
func (c MainClient) Profile() EnergyProfile { return c.Energy }

// Validate checks main client invariants.
func (c MainClient) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	return c.Energy.Validate()
}

// SubClient is owned by exactly one main client.
type SubClient struct {
	ID           string        `json:"id"`
	MainClientID string        `json:"main_client_id"`
	Name         string        `json:"name"`
	Energy       EnergyProfile `json:"energy"`
	CreatedAt    time.Time     `json:"created_at"`
	UpdatedAt    time.Time     `json:"updated_at"`
}

func (c SubClient) ClientID() string       { return c.ID }
func (c SubClient) ClientKind() Kind       { return KindSub }
func (c SubClient) DisplayName() string    { return c.Name }
func (c SubClient) Profile() EnergyProfile { return c.Energy }

// Validate checks sub client invariants.
func (c SubClient) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.MainClientID == "" {
		return ErrEmptyParent
	}
	return c.Energy.Validate()
}

// PartClient receives a share of a sub client's net energy.
type PartClient struct {
	ID                string        `json:"id"`
	SubClientID       string        `json:"sub_client_id"`
	Name              string        `json:"name"`
	SharingPercentage float64       `json:"sharing_percentage"`
	Energy            EnergyProfile `json:"energy"`
	CreatedAt         time.Time     `json:"created_at"`
	UpdatedAt         time.Time     `json:"updated_at"`
}

func (c PartClient) ClientID() string       { return c.ID }
func (c PartClient) ClientKind() Kind       { return KindPart }
func (c PartClient) DisplayName() string    { return c.Name }
func (c PartClient) Profile() EnergyProfile { return c.Energy }

// Validate checks part client invariants. Sharing percentages are not checked here.
func (c PartClient) Validate() error {
	if c.ID == "" {
		return ErrEmptyID
	}
	if c.SubClientID == "" {
		return ErrEmptyParent
	}
	return nil
}

// SharingInRange reports whether the sharing percentage lies in [0, 100].
func (c PartClient) SharingInRange() bool {
	return !math.IsNaN(c.SharingPercentage) && c.SharingPercentage >= 0 && c.SharingPercentage <= 100
}
