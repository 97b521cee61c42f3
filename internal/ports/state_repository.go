package ports

import (
	"context"

	"github.com/bnema/planctl/internal/domain"
)

// StateRepository persists the whole state document. Load returns an empty
// document when nothing has been saved yet.
type StateRepository interface {
	Load(ctx context.Context) (domain.State, error)
	Save(ctx context.Context, state domain.State) error
}
