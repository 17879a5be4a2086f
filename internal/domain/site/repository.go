package site

import "context"

// SiteRepository is the read-only site/shift catalog collaborator.
type SiteRepository interface {
	// GetByID retrieves a site with its weekly schedule and shifts.
	GetByID(ctx context.Context, id string) (Site, error)

	// GetByIDs retrieves the given sites in catalog order.
	GetByIDs(ctx context.Context, ids []string) ([]Site, error)

	// List retrieves all sites in catalog order.
	List(ctx context.Context) ([]Site, error)
}
