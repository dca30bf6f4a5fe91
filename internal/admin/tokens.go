// Package admin holds the out-of-band maintenance commands: running
// migrations and managing invite tokens.
package admin

import (
	"context"
	"fmt"

	"github.com/dmitrijs2005/mymee/internal/server/models"
	"github.com/dmitrijs2005/mymee/internal/server/repositories/invitetokens"
	"github.com/dmitrijs2005/mymee/internal/shared"
)

// DefaultSeedCount is how many tokens seed-tokens creates when not told.
const DefaultSeedCount = 100

// maxAttemptsPerToken bounds retries on code collisions.
const maxAttemptsPerToken = 10

// SeedTokens inserts n fresh unique invite codes and returns them.
func SeedTokens(ctx context.Context, repo invitetokens.Repository, n int) ([]string, error) {
	if n <= 0 {
		return nil, fmt.Errorf("count must be positive, got %d", n)
	}

	codes := make([]string, 0, n)
	attempts := 0
	for len(codes) < n {
		if attempts >= n*maxAttemptsPerToken {
			return codes, fmt.Errorf("gave up after %d attempts, %d tokens created", attempts, len(codes))
		}
		attempts++

		code, err := shared.RandomString(models.InviteCodeLength, shared.InviteAlphabet)
		if err != nil {
			return codes, err
		}
		created, err := repo.Create(ctx, code)
		if err != nil {
			return codes, err
		}
		if created {
			codes = append(codes, code)
		}
	}
	return codes, nil
}
