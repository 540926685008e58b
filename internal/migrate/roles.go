package migrate

import (
	"context"
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/data"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
)

// AssignUserRoles gives every user without a valid role one: a mis-cased
// valid role is lower-cased, otherwise users with experience become mentors
// and the rest mentees.
type AssignUserRoles struct{}

func (AssignUserRoles) Name() string { return "assign-user-roles" }

func (AssignUserRoles) Apply(ctx context.Context, c *db.Client) (Result, error) {
	counts, err := data.NewUsersStore(c.Users()).AssignMissingRoles(ctx, time.Now().UTC())
	if err != nil {
		return Result{}, err
	}
	return fromCounts(counts), nil
}
