package postgresql

import (
	"context"
	"errors"
	"fmt"

	"github.com/jackc/pgx/v5"

	"github.com/pontoweb/ponto-backend-go/internal/domain/compliance"
	"github.com/pontoweb/ponto-backend-go/internal/pkg/database"
)

// employeeDirectory resolves the CPF carried by AFD records to an employee
// id. Employee records themselves are owned by an external system; the
// engine only reads this mapping.
type employeeDirectory struct {
	db *database.DB
}

func NewEmployeeDirectory(db *database.DB) compliance.EmployeeResolver {
	return &employeeDirectory{db: db}
}

// ByCPF implements compliance.EmployeeResolver.
func (d *employeeDirectory) ByCPF(ctx context.Context, cpf string) (string, error) {
	q := GetQuerier(ctx, d.db)

	var id string
	err := q.QueryRow(ctx, `SELECT id FROM employees WHERE cpf = $1`, cpf).Scan(&id)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return "", compliance.ErrUnknownEmployee
		}
		return "", fmt.Errorf("failed to resolve employee by CPF: %w", err)
	}
	return id, nil
}
