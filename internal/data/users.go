// Package data provides DB models and the stores behind each migration.
package data

import (
	"context" // Used for cancellation and timeouts
	"errors"  // Error handling
	"time"    // Timestamps

	"github.com/giahuy0968/GrowNet-sub001/internal/auth"
	"github.com/giahuy0968/GrowNet-sub001/internal/normalize"

	"go.mongodb.org/mongo-driver/v2/bson"          // MongoDB document queries
	"go.mongodb.org/mongo-driver/v2/mongo"         // MongoDB driver
	"go.mongodb.org/mongo-driver/v2/mongo/options" // Find projection, bulk options
)

// UsersStore performs user DB operations.
type UsersStore struct {
	// coll is reference to "users" collection in MongoDB
	coll *mongo.Collection
}

// NewUsersStore returns a UsersStore using the provided collection.
func NewUsersStore(coll *mongo.Collection) *UsersStore {
	return &UsersStore{coll: coll}
}

// LegacyPassword is a user whose stored password is not yet a hash.
type LegacyPassword struct {
	ID       bson.ObjectID `bson:"_id"`
	Password string        `bson:"password"`
}

// RoleAssignment is one authoritative email -> role pair.
type RoleAssignment struct {
	Email string
	Role  Role
}

// CreateUser inserts a user document. Email is stored normalized.
func (u *UsersStore) CreateUser(ctx context.Context, user *User) (*User, error) {
	now := time.Now().UTC()
	user.Email = normalize.Email(user.Email)
	if user.CreatedAt.IsZero() {
		user.CreatedAt = now
	}
	if user.UpdatedAt.IsZero() {
		user.UpdatedAt = user.CreatedAt
	}

	result, err := u.coll.InsertOne(ctx, user)
	if err != nil {
		// Unique index on email or username
		if mongo.IsDuplicateKeyError(err) {
			return nil, errors.New("user already exists")
		}
		return nil, err
	}

	user.ID = result.InsertedID.(bson.ObjectID)
	return user, nil
}

// GetUserByEmail finds a user by email.
func (u *UsersStore) GetUserByEmail(ctx context.Context, email string) (*User, error) {
	var user User

	err := u.coll.FindOne(ctx, bson.M{"email": normalize.Email(email)}).Decode(&user)
	if err != nil {
		if errors.Is(err, mongo.ErrNoDocuments) {
			return nil, errors.New("user not found")
		}
		return nil, err
	}
	return &user, nil
}

// legacyPasswordFilter matches non-empty string passwords without a bcrypt
// prefix. Already hashed users never match, which keeps the hashing step
// idempotent.
func legacyPasswordFilter() bson.D {
	return bson.D{{Key: "password", Value: bson.D{
		{Key: "$type", Value: "string"},
		{Key: "$ne", Value: ""},
		{Key: "$not", Value: bson.Regex{Pattern: auth.HashedPattern}},
	}}}
}

// ListLegacyPasswords returns every user still holding a plaintext password.
func (u *UsersStore) ListLegacyPasswords(ctx context.Context) ([]LegacyPassword, error) {
	opts := options.Find().
		SetProjection(bson.D{{Key: "_id", Value: 1}, {Key: "password", Value: 1}}).
		SetSort(bson.D{{Key: "_id", Value: 1}})

	cursor, err := u.coll.Find(ctx, legacyPasswordFilter(), opts)
	if err != nil {
		return nil, err
	}
	defer cursor.Close(ctx)

	var out []LegacyPassword
	if err := cursor.All(ctx, &out); err != nil {
		return nil, err
	}
	return out, nil
}

// CountEmptyPasswords counts users whose password is an empty string. They
// are never hashed: an empty plaintext would become a valid credential.
func (u *UsersStore) CountEmptyPasswords(ctx context.Context) (int64, error) {
	return u.coll.CountDocuments(ctx, bson.D{{Key: "password", Value: ""}})
}

// ReplacePassword swaps plaintext for hash only if the stored value is still
// plaintext, and reports whether the document was written.
func (u *UsersStore) ReplacePassword(ctx context.Context, id bson.ObjectID, plaintext, hash string, now time.Time) (bool, error) {
	filter := bson.D{{Key: "_id", Value: id}, {Key: "password", Value: plaintext}}
	update := bson.D{{Key: "$set", Value: bson.D{
		{Key: "password", Value: hash},
		{Key: "updatedAt", Value: now},
	}}}

	res, err := u.coll.UpdateOne(ctx, filter, update)
	if err != nil {
		return false, err
	}
	return res.ModifiedCount == 1, nil
}

func roleNames() bson.A {
	names := bson.A{}
	for _, r := range Roles {
		names = append(names, string(r))
	}
	return names
}

// invalidRoleFilter matches users with an absent or unrecognized role.
func invalidRoleFilter() bson.D {
	return bson.D{{Key: "role", Value: bson.D{{Key: "$nin", Value: roleNames()}}}}
}

// assignRoleExpr keeps a valid role that is only mis-cased or padded,
// otherwise makes users with experience mentors and everyone else mentees.
func assignRoleExpr() bson.D {
	byExperience := bson.D{{Key: "$cond", Value: bson.A{
		bson.D{{Key: "$gt", Value: bson.A{bson.D{{Key: "$ifNull", Value: bson.A{"$experienceYears", 0}}}, 0}}},
		string(RoleMentor),
		string(RoleMentee),
	}}}

	return bson.D{{Key: "$let", Value: bson.D{
		{Key: "vars", Value: bson.D{{Key: "r", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$eq", Value: bson.A{bson.D{{Key: "$type", Value: "$role"}}, "string"}}},
			bson.D{{Key: "$toLower", Value: bson.D{{Key: "$trim", Value: bson.D{{Key: "input", Value: "$role"}}}}}},
			"",
		}}}}}},
		{Key: "in", Value: bson.D{{Key: "$cond", Value: bson.A{
			bson.D{{Key: "$in", Value: bson.A{"$$r", roleNames()}}},
			"$$r",
			byExperience,
		}}}},
	}}}
}

// AssignMissingRoles gives every user without a valid role one.
func (u *UsersStore) AssignMissingRoles(ctx context.Context, now time.Time) (UpdateCounts, error) {
	update := mongo.Pipeline{
		bson.D{{Key: "$set", Value: bson.D{
			{Key: "role", Value: assignRoleExpr()},
			{Key: "updatedAt", Value: now},
		}}},
	}

	res, err := u.coll.UpdateMany(ctx, invalidRoleFilter(), update)
	if err != nil {
		return UpdateCounts{}, err
	}
	return UpdateCounts{Matched: res.MatchedCount, Modified: res.ModifiedCount}, nil
}

// roleSyncModels builds one update per assignment. Users already holding the
// role are excluded by the filter, and nothing is inserted: accounts only
// come from signup.
func roleSyncModels(assignments []RoleAssignment, now time.Time) []mongo.WriteModel {
	models := make([]mongo.WriteModel, 0, len(assignments))
	for _, a := range assignments {
		models = append(models, mongo.NewUpdateOneModel().
			SetFilter(bson.D{
				{Key: "email", Value: normalize.Email(a.Email)},
				{Key: "role", Value: bson.D{{Key: "$ne", Value: string(a.Role)}}},
			}).
			SetUpdate(bson.D{{Key: "$set", Value: bson.D{
				{Key: "role", Value: string(a.Role)},
				{Key: "updatedAt", Value: now},
			}}}).
			SetUpsert(false))
	}
	return models
}

// SyncRoles applies assignments as a single unordered bulk write so one
// failing update does not block the rest. On a partial failure the counts
// of the successful writes are returned together with the error.
func (u *UsersStore) SyncRoles(ctx context.Context, assignments []RoleAssignment, now time.Time) (UpdateCounts, error) {
	if len(assignments) == 0 {
		return UpdateCounts{}, nil
	}

	res, err := u.coll.BulkWrite(ctx, roleSyncModels(assignments, now), options.BulkWrite().SetOrdered(false))

	var counts UpdateCounts
	if res != nil {
		counts = UpdateCounts{Matched: res.MatchedCount, Modified: res.ModifiedCount}
	}
	return counts, err
}

// CountByEmails counts users whose email is in emails.
func (u *UsersStore) CountByEmails(ctx context.Context, emails []string) (int64, error) {
	if len(emails) == 0 {
		return 0, nil
	}
	return u.coll.CountDocuments(ctx, bson.D{{Key: "email", Value: bson.D{{Key: "$in", Value: emails}}}})
}
