package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	clients "energy-accounting/internal/clients/domain"
)

const (
	defaultMainTable = "main_clients"
	defaultSubTable  = "sub_clients"
	defaultPartTable = "part_clients"
)

// ClientRepository is a Postgres implementation of the client hierarchy.
type ClientRepository struct {
	db        DBTX
	mainTable string
	subTable  string
	partTable string
}

// ClientOption configures the repository.
type ClientOption func(*ClientRepository)

// WithTables overrides the default table names. Empty names keep the default.
func WithTables(mainTable, subTable, partTable string) ClientOption {
	return func(repo *ClientRepository) {
		if mainTable != "" {
			repo.mainTable = mainTable
		}
		if subTable != "" {
			repo.subTable = subTable
		}
		if partTable != "" {
			repo.partTable = partTable
		}
	}
}

// NewClientRepository constructs a repository.
func NewClientRepository(db DBTX, opts ...ClientOption) *ClientRepository {
	repo := &ClientRepository{
		db:        db,
		mainTable: defaultMainTable,
		subTable:  defaultSubTable,
		partTable: defaultPartTable,
	}
	for _, opt := range opts {
		opt(repo)
	}
	return repo
}

const profileColumns = `mf, pn, dc_capacity_kwp, ac_capacity_kw, abt_main_meter, abt_check_meter`

// GetMain loads a main client by id.
func (r *ClientRepository) GetMain(ctx context.Context, id string) (*clients.MainClient, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("client repo: nil db")
	}
	if id == "" {
		return nil, clients.ErrEmptyID
	}
	query := fmt.Sprintf(`
SELECT id, name, %s, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, profileColumns, r.mainTable)

	var client clients.MainClient
	var p profileRow
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&client.ID,
		&client.Name,
		&p.mf, &p.pn, &p.dc, &p.ac, &p.mainMeter, &p.checkMeter,
		&client.CreatedAt,
		&client.UpdatedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	client.Energy = p.profile()
	client.CreatedAt = client.CreatedAt.UTC()
	client.UpdatedAt = client.UpdatedAt.UTC()
	return &client, nil
}

// GetSub loads a sub client by id.
func (r *ClientRepository) GetSub(ctx context.Context, id string) (*clients.SubClient, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("client repo: nil db")
	}
	if id == "" {
		return nil, clients.ErrEmptyID
	}
	query := fmt.Sprintf(`
SELECT id, main_client_id, name, %s, created_at, updated_at
FROM %s
WHERE id = $1
LIMIT 1`, profileColumns, r.subTable)
	sub, err := scanSub(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, nil
		}
		return nil, err
	}
	return sub, nil
}

// ListSubClients lists sub clients of a main client ordered by id.
func (r *ClientRepository) ListSubClients(ctx context.Context, mainClientID string) ([]clients.SubClient, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("client repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, main_client_id, name, %s, created_at, updated_at
FROM %s
WHERE main_client_id = $1
ORDER BY id ASC`, profileColumns, r.subTable)
	rows, err := r.db.QueryContext(ctx, query, mainClientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clients.SubClient
	for rows.Next() {
		sub, err := scanSub(rows)
		if err != nil {
			return nil, err
		}
		result = append(result, *sub)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// ListPartClients lists part clients of a sub client ordered by id.
func (r *ClientRepository) ListPartClients(ctx context.Context, subClientID string) ([]clients.PartClient, error) {
	if r == nil || r.db == nil {
		return nil, errors.New("client repo: nil db")
	}
	query := fmt.Sprintf(`
SELECT id, sub_client_id, name, sharing_percentage, %s, created_at, updated_at
FROM %s
WHERE sub_client_id = $1
ORDER BY id ASC`, profileColumns, r.partTable)
	rows, err := r.db.QueryContext(ctx, query, subClientID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var result []clients.PartClient
	for rows.Next() {
		var part clients.PartClient
		var p profileRow
		if err := rows.Scan(
			&part.ID,
			&part.SubClientID,
			&part.Name,
			&part.SharingPercentage,
			&p.mf, &p.pn, &p.dc, &p.ac, &p.mainMeter, &p.checkMeter,
			&part.CreatedAt,
			&part.UpdatedAt,
		); err != nil {
			return nil, err
		}
		part.Energy = p.profile()
		part.CreatedAt = part.CreatedAt.UTC()
		part.UpdatedAt = part.UpdatedAt.UTC()
		result = append(result, part)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return result, nil
}

// SaveMain upserts a main client.
func (r *ClientRepository) SaveMain(ctx context.Context, client clients.MainClient) error {
	if r == nil || r.db == nil {
		return errors.New("client repo: nil db")
	}
	if err := client.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, name, %s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8)
ON CONFLICT (id)
DO UPDATE SET
	name = EXCLUDED.name,
	mf = EXCLUDED.mf,
	pn = EXCLUDED.pn,
	dc_capacity_kwp = EXCLUDED.dc_capacity_kwp,
	ac_capacity_kw = EXCLUDED.ac_capacity_kw,
	abt_main_meter = EXCLUDED.abt_main_meter,
	abt_check_meter = EXCLUDED.abt_check_meter,
	updated_at = NOW()`, r.mainTable, profileColumns)
	args := append([]any{client.ID, client.Name}, profileArgs(client.Energy)...)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// SaveSub upserts a sub client.
func (r *ClientRepository) SaveSub(ctx context.Context, client clients.SubClient) error {
	if r == nil || r.db == nil {
		return errors.New("client repo: nil db")
	}
	if err := client.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, main_client_id, name, %s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
ON CONFLICT (id)
DO UPDATE SET
	main_client_id = EXCLUDED.main_client_id,
	name = EXCLUDED.name,
	mf = EXCLUDED.mf,
	pn = EXCLUDED.pn,
	dc_capacity_kwp = EXCLUDED.dc_capacity_kwp,
	ac_capacity_kw = EXCLUDED.ac_capacity_kw,
	abt_main_meter = EXCLUDED.abt_main_meter,
	abt_check_meter = EXCLUDED.abt_check_meter,
	updated_at = NOW()`, r.subTable, profileColumns)
	args := append([]any{client.ID, client.MainClientID, client.Name}, profileArgs(client.Energy)...)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

// SavePart upserts a part client.
func (r *ClientRepository) SavePart(ctx context.Context, client clients.PartClient) error {
	if r == nil || r.db == nil {
		return errors.New("client repo: nil db")
	}
	if err := client.Validate(); err != nil {
		return err
	}
	query := fmt.Sprintf(`
INSERT INTO %s (id, sub_client_id, name, sharing_percentage, %s)
VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10)
ON CONFLICT (id)
DO UPDATE SET
	sub_client_id = EXCLUDED.sub_client_id,
	name = EXCLUDED.name,
	sharing_percentage = EXCLUDED.sharing_percentage,
	mf = EXCLUDED.mf,
	pn = EXCLUDED.pn,
	dc_capacity_kwp = EXCLUDED.dc_capacity_kwp,
	ac_capacity_kw = EXCLUDED.ac_capacity_kw,
	abt_main_meter = EXCLUDED.abt_main_meter,
	abt_check_meter = EXCLUDED.abt_check_meter,
	updated_at = NOW()`, r.partTable, profileColumns)
	args := append([]any{client.ID, client.SubClientID, client.Name, client.SharingPercentage}, profileArgs(client.Energy)...)
	_, err := r.db.ExecContext(ctx, query, args...)
	return err
}

type rowScanner interface {
	Scan(dest ...any) error
}

type profileRow struct {
	mf         float64
	pn         int
	dc         sql.NullString
	ac         sql.NullString
	mainMeter  sql.NullString
	checkMeter sql.NullString
}

// profile does not validate pn; callers surface ErrInvalidPolarity when they extract energy.
func (p profileRow) profile() clients.EnergyProfile {
	return clients.EnergyProfile{
		MF:            p.mf,
		PN:            clients.Polarity(p.pn),
		DCCapacityKWp: clients.ParseCapacity(p.dc.String),
		ACCapacityKW:  clients.ParseCapacity(p.ac.String),
		MainMeter:     clients.MeterSlot{MeterNumber: p.mainMeter.String},
		CheckMeter:    clients.MeterSlot{MeterNumber: p.checkMeter.String},
	}
}

func profileArgs(p clients.EnergyProfile) []any {
	return []any{
		p.MF,
		int(p.PN),
		nullString(p.DCCapacityKWp.String()),
		nullString(p.ACCapacityKW.String()),
		nullString(p.MainMeter.MeterNumber),
		nullString(p.CheckMeter.MeterNumber),
	}
}

func nullString(value string) sql.NullString {
	return sql.NullString{String: value, Valid: value != ""}
}

func scanSub(row rowScanner) (*clients.SubClient, error) {
	var sub clients.SubClient
	var p profileRow
	if err := row.Scan(
		&sub.ID,
		&sub.MainClientID,
		&sub.Name,
		&p.mf, &p.pn, &p.dc, &p.ac, &p.mainMeter, &p.checkMeter,
		&sub.CreatedAt,
		&sub.UpdatedAt,
	); err != nil {
		return nil, err
	}
	sub.Energy = p.profile()
	sub.CreatedAt = sub.CreatedAt.UTC()
	sub.UpdatedAt = sub.UpdatedAt.UTC()
	return &sub, nil
}
