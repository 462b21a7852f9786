package admins

import (
	"context"

	"github.com/smartscan/admingate/internal/server/models"
)

// Repository is the credential store for administrators.
type Repository interface {
	FindByEmail(ctx context.Context, email string) (*models.Admin, error)
	FindByID(ctx context.Context, id int64) (*models.Admin, error)
	TouchLogin(ctx context.Context, id int64) error
	Create(ctx context.Context, admin *models.Admin) (*models.Admin, error)
}
