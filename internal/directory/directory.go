// Package directory implements the project directory the matcher and scorer
// consult: code/name resolution and candidate listing, with bounded lookups.
package directory

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/buildledger/ledgerroute/internal/common"
	"github.com/buildledger/ledgerroute/internal/model"
)

// projectReader is the slice of the persistence layer the directory needs.
type projectReader interface {
	GetProjectByCode(ctx context.Context, code string) (*model.Project, error)
	GetProjectByName(ctx context.Context, name string) (*model.Project, error)
	ListProjects(ctx context.Context, companyID string) ([]model.Project, error)
}

// Directory resolves project codes and names against the persistence layer.
type Directory struct {
	store   projectReader
	timeout time.Duration
}

// New creates a project directory with the given lookup timeout.
func New(store projectReader, timeout time.Duration) *Directory {
	if timeout <= 0 {
		timeout = 3 * time.Second
	}
	return &Directory{store: store, timeout: timeout}
}

// Lookup resolves a project code or name to a project id. Exact code match
// takes precedence over case-insensitive name match. Lookups are bounded by
// the directory timeout; an expired lookup reports as not found so the caller
// treats the rule as unresolved rather than retrying indefinitely.
func (d *Directory) Lookup(ctx context.Context, codeOrName string) (string, error) {
	if codeOrName == "" {
		return "", common.ErrProjectNotFound
	}

	lookupCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	project, err := d.store.GetProjectByCode(lookupCtx, codeOrName)
	if err == nil {
		return project.ID, nil
	}
	if !errors.Is(err, common.ErrProjectNotFound) {
		return "", fmt.Errorf("project lookup by code failed: %w", err)
	}

	project, err = d.store.GetProjectByName(lookupCtx, codeOrName)
	if err != nil {
		if errors.Is(err, common.ErrProjectNotFound) {
			return "", common.ErrProjectNotFound
		}
		return "", fmt.Errorf("project lookup by name failed: %w", err)
	}

	return project.ID, nil
}

// ListCandidates returns the active projects for a company, used by the
// confidence scorer.
func (d *Directory) ListCandidates(ctx context.Context, companyID string) ([]model.Project, error) {
	lookupCtx, cancel := context.WithTimeout(ctx, d.timeout)
	defer cancel()

	return d.store.ListProjects(lookupCtx, companyID)
}
