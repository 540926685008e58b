package migrate

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/auth"
	"github.com/giahuy0968/GrowNet-sub001/internal/data"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
	"github.com/giahuy0968/GrowNet-sub001/internal/throttle"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// passwordStore is the subset of data.UsersStore the hashing step uses.
type passwordStore interface {
	ListLegacyPasswords(ctx context.Context) ([]data.LegacyPassword, error)
	CountEmptyPasswords(ctx context.Context) (int64, error)
	ReplacePassword(ctx context.Context, id bson.ObjectID, plaintext, hash string, now time.Time) (bool, error)
}

// HashLegacyPasswords replaces plaintext passwords with bcrypt hashes. The
// plaintext is not kept anywhere.
//
// Records are processed independently: a user whose password cannot be
// hashed or written is counted in Failed and the batch moves on. The step
// returns an error after the batch when any record failed.
type HashLegacyPasswords struct {
	Cost    int
	Limiter *throttle.Limiter

	hash func(password string, cost int) (string, error)
	now  func() time.Time
}

// NewHashLegacyPasswords returns the step with the given bcrypt cost and
// optional write limiter.
func NewHashLegacyPasswords(cost int, limiter *throttle.Limiter) *HashLegacyPasswords {
	return &HashLegacyPasswords{Cost: cost, Limiter: limiter}
}

func (s *HashLegacyPasswords) Name() string { return "hash-legacy-passwords" }

func (s *HashLegacyPasswords) Apply(ctx context.Context, c *db.Client) (Result, error) {
	return s.run(ctx, data.NewUsersStore(c.Users()))
}

func (s *HashLegacyPasswords) run(ctx context.Context, store passwordStore) (Result, error) {
	hash := s.hash
	if hash == nil {
		hash = auth.HashPassword
	}
	now := s.now
	if now == nil {
		now = time.Now
	}

	var res Result

	empty, err := store.CountEmptyPasswords(ctx)
	if err != nil {
		return res, err
	}
	res.Skipped = empty

	legacy, err := store.ListLegacyPasswords(ctx)
	if err != nil {
		return res, err
	}
	res.Matched = int64(len(legacy))

	var failures []error
	for _, u := range legacy {
		// Cancellation stops the batch; every other error stays with its record
		if err := s.Limiter.Wait(ctx); err != nil {
			return res, err
		}

		hashed, err := hash(u.Password, s.Cost)
		if err != nil {
			res.Failed++
			failures = append(failures, fmt.Errorf("user %s: hash: %w", u.ID.Hex(), err))
			continue
		}

		written, err := store.ReplacePassword(ctx, u.ID, u.Password, hashed, now().UTC())
		if err != nil {
			if ctxErr := ctx.Err(); ctxErr != nil {
				return res, ctxErr
			}
			res.Failed++
			failures = append(failures, fmt.Errorf("user %s: write: %w", u.ID.Hex(), err))
			continue
		}
		if !written {
			// password changed since it was listed
			res.Skipped++
			continue
		}
		res.Modified++
	}

	if empty > 0 {
		res.Detail = fmt.Sprintf("%d users have an empty password; left unhashed", empty)
	}
	if len(failures) > 0 {
		return res, fmt.Errorf("%d of %d passwords not hashed: %w", res.Failed, res.Matched, errors.Join(failures...))
	}
	return res, nil
}
