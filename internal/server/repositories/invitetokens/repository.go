package invitetokens

import (
	"context"
	"time"

	"github.com/dmitrijs2005/mymee/internal/server/models"
)

type Repository interface {
	Find(ctx context.Context, code string) (*models.InviteToken, error)
	// Consume flips an unused token to used in a single conditional update.
	Consume(ctx context.Context, code, userID string, at time.Time) error
	Create(ctx context.Context, code string) (bool, error)
	List(ctx context.Context, onlyUnused bool) ([]*models.InviteToken, error)
}
