package repository

import (
	"database/sql"
	"fmt"

	"github.com/fleetdesk/fuelrecon/internal/domain"
)

// VehicleRepo is the read side of the fleet registry plus the seeding used
// by the server and tests.
type VehicleRepo struct {
	db *sql.DB
}

func NewVehicleRepo(db *sql.DB) *VehicleRepo {
	return &VehicleRepo{db: db}
}

func (r *VehicleRepo) Upsert(vehicles []domain.Vehicle) (int, error) {
	tx, err := r.db.Begin()
	if err != nil {
		return 0, fmt.Errorf("begin: %w", err)
	}
	defer tx.Rollback()

	stmt, err := tx.Prepare(
		`INSERT INTO vehicles (id, company_id, registration_number) VALUES (?,?,?)
		ON CONFLICT(id) DO UPDATE SET company_id = excluded.company_id,
			registration_number = excluded.registration_number`,
	)
	if err != nil {
		return 0, fmt.Errorf("prepare: %w", err)
	}
	defer stmt.Close()

	n := 0
	for _, v := range vehicles {
		if _, err := stmt.Exec(v.ID, v.CompanyID, v.RegistrationNumber); err != nil {
			return 0, fmt.Errorf("upsert vehicle %s: %w", v.ID, err)
		}
		n++
	}
	if err := tx.Commit(); err != nil {
		return 0, fmt.Errorf("commit: %w", err)
	}
	return n, nil
}

// ListByCompany returns the registry snapshot for one company.
func (r *VehicleRepo) ListByCompany(companyID string) ([]domain.Vehicle, error) {
	rows, err := r.db.Query(
		"SELECT id, company_id, registration_number FROM vehicles WHERE company_id = ? ORDER BY registration_number, id",
		companyID,
	)
	if err != nil {
		return nil, fmt.Errorf("query vehicles: %w", err)
	}
	defer rows.Close()

	var out []domain.Vehicle
	for rows.Next() {
		var v domain.Vehicle
		if err := rows.Scan(&v.ID, &v.CompanyID, &v.RegistrationNumber); err != nil {
			return nil, fmt.Errorf("scan: %w", err)
		}
		out = append(out, v)
	}
	return out, rows.Err()
}

func (r *VehicleRepo) Exists(companyID, id string) (bool, error) {
	var n int
	err := r.db.QueryRow("SELECT COUNT(*) FROM vehicles WHERE company_id = ? AND id = ?", companyID, id).Scan(&n)
	return n > 0, err
}
