package alerts

import (
	"context"
	"fmt"

	followerRepo "orgalerts/database/repository/follower"
)

// FollowerResolver lists the users an organization's alert fans out to.
type FollowerResolver struct {
	repo followerRepo.FollowerRepository
}

func NewFollowerResolver(repo followerRepo.FollowerRepository) *FollowerResolver {
	return &FollowerResolver{repo: repo}
}

// Resolve returns follower ids of orgID without excludedUserID. An organization
// without followers yields an empty slice and no error.
func (r *FollowerResolver) Resolve(ctx context.Context, orgID, excludedUserID string) ([]string, error) {
	ids, err := r.repo.ListFollowerIDs(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("resolve followers of %s: %w", orgID, err)
	}

	seen := make(map[string]struct{}, len(ids))
	out := make([]string, 0, len(ids))
	for _, id := range ids {
		if id == "" || id == excludedUserID {
			continue
		}
		if _, dup := seen[id]; dup {
			continue
		}
		seen[id] = struct{}{}
		out = append(out, id)
	}
	return out, nil
}
