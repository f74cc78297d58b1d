package instance

import "context"

type Repository interface {
	Create(ctx context.Context, inst *Instance) error
	GetByID(ctx context.Context, id uint) (*Instance, error)
	GetByIID(ctx context.Context, iid string) (*Instance, error)
	// GetByIDForUpdate loads the instance under a row lock inside the
	// current transaction.
	GetByIDForUpdate(ctx context.Context, id uint) (*Instance, error)
	Update(ctx context.Context, inst *Instance) error
	// Delete removes the record. Only draft instances may be deleted; the
	// caller must have passed the consistency guard's deletion check first.
	Delete(ctx context.Context, id uint) error

	ExistsBySubdomain(ctx context.Context, subdomain string) (bool, error)
}
