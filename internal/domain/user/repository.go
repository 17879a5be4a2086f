package user

import "context"

// UserRepository is the identity collaborator: role, allowed sites, offsite
// flag. The engine never writes users.
type UserRepository interface {
	GetByID(ctx context.Context, id string) (User, error)
	GetByEmail(ctx context.Context, email string) (User, error)

	// ListActiveIDs returns ids of all active users, for batch operations.
	ListActiveIDs(ctx context.Context) ([]string, error)
}
