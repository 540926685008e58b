// Package rolesync reconciles user roles with an authoritative JSON export
// of the users collection.
package rolesync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"slices"
	"strings"
	"time"

	"github.com/giahuy0968/GrowNet-sub001/internal/config"
	"github.com/giahuy0968/GrowNet-sub001/internal/data"
	"github.com/giahuy0968/GrowNet-sub001/internal/db"
	"github.com/giahuy0968/GrowNet-sub001/internal/migrate"
	"github.com/giahuy0968/GrowNet-sub001/internal/normalize"

	"go.mongodb.org/mongo-driver/v2/bson"
)

// ErrDataSource is wrapped by every error caused by the export file.
var ErrDataSource = errors.New("data source error")

// ExportedUser is one record of the export, written by mongoexport or
// Compass in extended JSON (`"_id": {"$oid": "..."}`).
type ExportedUser struct {
	ID              bson.ObjectID `bson:"_id"`
	Email           string        `bson:"email"`
	Role            string        `bson:"role,omitempty"`
	ExperienceYears *float64      `bson:"experienceYears,omitempty"`
}

// LoadFile reads and parses the export at path. A missing file is both a
// data source and a configuration problem.
func LoadFile(path string) ([]ExportedUser, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%w: %w: roles export %s not found", ErrDataSource, config.ErrConfiguration, path)
		}
		return nil, fmt.Errorf("%w: read %s: %v", ErrDataSource, path, err)
	}
	users, err := Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("%s: %w", path, err)
	}
	return users, nil
}

// Parse decodes a JSON array of extended-JSON user documents.
func Parse(raw []byte) ([]ExportedUser, error) {
	var docs []json.RawMessage
	if err := json.Unmarshal(raw, &docs); err != nil {
		return nil, fmt.Errorf("%w: export is not a JSON array: %v", ErrDataSource, err)
	}
	if docs == nil {
		return nil, fmt.Errorf("%w: export is not a JSON array: got null", ErrDataSource)
	}

	users := make([]ExportedUser, 0, len(docs))
	for i, doc := range docs {
		var u ExportedUser
		if err := bson.UnmarshalExtJSON(doc, false, &u); err != nil {
			return nil, fmt.Errorf("%w: record %d: %v", ErrDataSource, i, err)
		}
		users = append(users, u)
	}
	return users, nil
}

// Rejection is an export record that cannot be synchronized.
type Rejection struct {
	Index  int
	Email  string
	Reason string
}

// Mapping is the authoritative email -> role table.
type Mapping struct {
	roles    map[string]data.Role
	Rejected []Rejection
}

// resolveRole returns the record's own role when it has one, otherwise
// derives it from experience.
func resolveRole(u ExportedUser) (data.Role, error) {
	if strings.TrimSpace(u.Role) != "" {
		r, ok := data.ParseRole(u.Role)
		if !ok {
			return "", fmt.Errorf("unknown role %q", u.Role)
		}
		return r, nil
	}
	if u.ExperienceYears != nil && *u.ExperienceYears > 0 {
		return data.RoleMentor, nil
	}
	return data.RoleMentee, nil
}

// BuildMapping keys users by normalized email. When an email appears more
// than once the last record wins, and a rejected last record leaves the
// email unmapped.
func BuildMapping(users []ExportedUser) *Mapping {
	m := &Mapping{roles: make(map[string]data.Role, len(users))}
	for i, u := range users {
		email := normalize.Email(u.Email)
		if email == "" {
			m.Rejected = append(m.Rejected, Rejection{Index: i, Reason: "missing email"})
			continue
		}
		role, err := resolveRole(u)
		if err != nil {
			m.Rejected = append(m.Rejected, Rejection{Index: i, Email: email, Reason: err.Error()})
			delete(m.roles, email)
			continue
		}
		m.roles[email] = role
	}
	return m
}

// Len returns the number of unique emails.
func (m *Mapping) Len() int { return len(m.roles) }

// Role returns the role mapped to email.
func (m *Mapping) Role(email string) (data.Role, bool) {
	r, ok := m.roles[normalize.Email(email)]
	return r, ok
}

// Emails returns the mapped emails in sorted order.
func (m *Mapping) Emails() []string {
	emails := make([]string, 0, len(m.roles))
	for e := range m.roles {
		emails = append(emails, e)
	}
	slices.Sort(emails)
	return emails
}

// Assignments returns one assignment per email, sorted by email.
func (m *Mapping) Assignments() []data.RoleAssignment {
	out := make([]data.RoleAssignment, 0, len(m.roles))
	for _, e := range m.Emails() {
		out = append(out, data.RoleAssignment{Email: e, Role: m.roles[e]})
	}
	return out
}

// Summary counts emails per role. Every role is present, possibly with 0.
func (m *Mapping) Summary() map[data.Role]int {
	s := make(map[data.Role]int, len(data.Roles))
	for _, r := range data.Roles {
		s[r] = 0
	}
	for _, r := range m.roles {
		s[r]++
	}
	return s
}

// FormatSummary renders a summary as "admin=1 mentee=4 mentor=2".
func FormatSummary(s map[data.Role]int) string {
	roles := make([]string, 0, len(s))
	for r := range s {
		roles = append(roles, string(r))
	}
	slices.Sort(roles)

	parts := make([]string, 0, len(roles))
	for _, r := range roles {
		parts = append(parts, fmt.Sprintf("%s=%d", r, s[data.Role(r)]))
	}
	return strings.Join(parts, " ")
}

// roleStore is the subset of data.UsersStore the synchronizer uses.
type roleStore interface {
	SyncRoles(ctx context.Context, assignments []data.RoleAssignment, now time.Time) (data.UpdateCounts, error)
	CountByEmails(ctx context.Context, emails []string) (int64, error)
}

// Sync writes m to the users collection in one unordered bulk write.
// Matched counts users whose role differed; emails with no account are
// reported in Skipped together with rejected records.
func Sync(ctx context.Context, store roleStore, m *Mapping, now time.Time) (migrate.Result, error) {
	res := migrate.Result{Skipped: int64(len(m.Rejected))}

	present, err := store.CountByEmails(ctx, m.Emails())
	if err != nil {
		return res, err
	}
	missing := int64(m.Len()) - present
	res.Skipped += missing

	details := []string{"roles: " + FormatSummary(m.Summary())}
	if missing > 0 {
		details = append(details, fmt.Sprintf("%d emails have no account", missing))
	}
	for _, r := range m.Rejected {
		details = append(details, fmt.Sprintf("record %d (%s) rejected: %s", r.Index, r.Email, r.Reason))
	}
	res.Detail = strings.Join(details, "; ")

	counts, err := store.SyncRoles(ctx, m.Assignments(), now)
	res.Matched, res.Modified = counts.Matched, counts.Modified
	return res, err
}

// Step runs Sync as a migration step over an export loaded up front.
type Step struct {
	mapping *Mapping
}

// NewStep loads the export at path. It fails before any connection is made
// when the file is missing or malformed.
func NewStep(path string) (*Step, error) {
	users, err := LoadFile(path)
	if err != nil {
		return nil, err
	}
	return &Step{mapping: BuildMapping(users)}, nil
}

func (s *Step) Name() string { return "sync-user-roles" }

func (s *Step) Apply(ctx context.Context, c *db.Client) (migrate.Result, error) {
	return Sync(ctx, data.NewUsersStore(c.Users()), s.mapping, time.Now().UTC())
}
