package storage

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
)

// SaveProject inserts or replaces a project directory entry.
func (s *SQLiteStorage) SaveProject(ctx context.Context, project *model.Project) error {
	if err := validateContext(ctx); err != nil {
		return err
	}
	if project == nil {
		return fmt.Errorf("project cannot be nil")
	}
	if err := validateString(project.ID, "project.ID"); err != nil {
		return err
	}
	if err := validateString(project.Name, "project.Name"); err != nil {
		return err
	}

	_, err := s.db.ExecContext(ctx, `
		INSERT INTO projects (id, company_id, name, code, is_active)
		VALUES (?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			company_id = excluded.company_id,
			name = excluded.name,
			code = excluded.code,
			is_active = excluded.is_active
	`, project.ID, project.CompanyID, project.Name, project.Code, project.IsActive)
	if err != nil {
		return fmt.Errorf("failed to save project: %w", err)
	}

	return nil
}

// GetProjectByCode retrieves an active project by its exact code.
func (s *SQLiteStorage) GetProjectByCode(ctx context.Context, code string) (*model.Project, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(code, "code"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, code, is_active, created_at
		FROM projects WHERE code = ? AND is_active = 1
	`, code)

	return scanProject(row)
}

// GetProjectByName retrieves an active project by name, case-insensitively.
func (s *SQLiteStorage) GetProjectByName(ctx context.Context, name string) (*model.Project, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(name, "name"); err != nil {
		return nil, err
	}

	row := s.db.QueryRowContext(ctx, `
		SELECT id, company_id, name, code, is_active, created_at
		FROM projects WHERE name = ? COLLATE NOCASE AND is_active = 1
	`, name)

	return scanProject(row)
}

// ListProjects retrieves the active projects for a company.
func (s *SQLiteStorage) ListProjects(ctx context.Context, companyID string) ([]model.Project, error) {
	if err := validateContext(ctx); err != nil {
		return nil, err
	}
	if err := validateString(companyID, "companyID"); err != nil {
		return nil, err
	}

	rows, err := s.db.QueryContext(ctx, `
		SELECT id, company_id, name, code, is_active, created_at
		FROM projects WHERE company_id = ? AND is_active = 1
		ORDER BY name ASC
	`, companyID)
	if err != nil {
		return nil, fmt.Errorf("failed to list projects: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var projects []model.Project
	for rows.Next() {
		project, err := scanProject(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan project: %w", err)
		}
		projects = append(projects, *project)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("error iterating projects: %w", err)
	}

	return projects, nil
}

func scanProject(row scanner) (*model.Project, error) {
	var project model.Project
	var code sql.NullString
	err := row.Scan(&project.ID, &project.CompanyID, &project.Name, &code, &project.IsActive, &project.CreatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, common.ErrProjectNotFound
		}
		return nil, fmt.Errorf("failed to scan project: %w", err)
	}
	project.Code = code.String
	return &project, nil
}
