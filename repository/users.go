package repository

import (
	"context"
	"time"

	"github.com/goliatone/go-errors"
	"github.com/goliatone/go-repository-bun"
	"github.com/google/uuid"
	"github.com/uptrace/bun"

	auth "github.com/goliatone/go-market-auth"
)

// User is the identity record the auth core reads and writes: who the user
// is, whether their phone is verified and which role they hold.
type User struct {
	bun.BaseModel `bun:"table:users,alias:usr"`

	ID              uuid.UUID     `bun:"id,pk,type:uuid" json:"id"`
	Phone           string        `bun:"phone_number,notnull,unique" json:"phone_number"`
	Role            auth.UserRole `bun:"user_role,notnull" json:"user_role"`
	PhoneVerifiedAt *time.Time    `bun:"phone_verified_at,nullzero" json:"phone_verified_at,omitempty"`
	CreatedAt       time.Time     `bun:"created_at,notnull,default:current_timestamp" json:"created_at"`
	UpdatedAt       time.Time     `bun:"updated_at,notnull,default:current_timestamp" json:"updated_at"`
}

// IsPhoneVerified reports whether the phone passed an OTP check
func (u *User) IsPhoneVerified() bool {
	return u != nil && u.PhoneVerifiedAt != nil
}

// ErrUserNotFound no user matched the lookup
var ErrUserNotFound = errors.New("user not found", errors.CategoryNotFound).
	WithCode(errors.CodeNotFound).
	WithTextCode("USER_NOT_FOUND")

// Users is the identity store, a generic bun repository keyed by id with
// the canonical phone as its identifier.
type Users struct {
	repository.Repository[*User]
	db  *bun.DB
	now func() time.Time
}

var _ repository.Repository[*User] = (*Users)(nil)

// NewUsers creates a new repository.
func NewUsers(db *bun.DB) *Users {
	return &Users{
		Repository: repository.NewRepository[*User](db, repository.ModelHandlers[*User]{
			NewRecord: func() *User {
				return &User{}
			},
			GetID: func(record *User) uuid.UUID {
				if record == nil {
					return uuid.Nil
				}
				return record.ID
			},
			SetID: func(record *User, id uuid.UUID) {
				record.ID = id
			},
			GetIdentifier: func() string {
				return "phone_number"
			},
			GetIdentifierValue: func(record *User) string {
				if record == nil {
					return ""
				}
				return record.Phone
			},
		}),
		db:  db,
		now: time.Now,
	}
}

// CreateSchema creates the users table if needed
func (r *Users) CreateSchema(ctx context.Context) error {
	_, err := r.db.NewCreateTable().
		Model((*User)(nil)).
		IfNotExists().
		Exec(ctx)
	return err
}

// FindByPhone returns the user owning the canonical phone
func (r *Users) FindByPhone(ctx context.Context, phone string) (*User, error) {
	user, err := r.GetByIdentifier(ctx, phone)
	if err != nil {
		return nil, notFound(err, "failed to find user by phone", map[string]any{
			"phone_number": phone,
		})
	}
	return user, nil
}

// FindByID returns the user with id
func (r *Users) FindByID(ctx context.Context, id uuid.UUID) (*User, error) {
	user, err := r.GetByID(ctx, id.String())
	if err != nil {
		return nil, notFound(err, "failed to find user by id", map[string]any{
			"id": id.String(),
		})
	}
	return user, nil
}

// MarkPhoneVerified records the verification for phone, creating a buyer
// account when none exists. A phone that is already verified keeps its
// original verification time.
func (r *Users) MarkPhoneVerified(ctx context.Context, phone string) error {
	now := r.now().UTC()
	user := &User{
		Phone:           phone,
		Role:            auth.RoleBuyer,
		PhoneVerifiedAt: &now,
		CreatedAt:       now,
		UpdatedAt:       now,
	}

	// a single statement so concurrent first verifications cannot race
	_, err := r.Create(ctx, user,
		repository.InsertOnConflictUpdate("phone_number"),
		keepFirstVerification,
	)
	if err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to mark phone verified")
	}
	return nil
}

func keepFirstVerification(q *bun.InsertQuery) *bun.InsertQuery {
	return q.
		Set("phone_verified_at = COALESCE(phone_verified_at, EXCLUDED.phone_verified_at)").
		Set("updated_at = EXCLUDED.updated_at")
}

// SetRole changes the role of the user owning phone
func (r *Users) SetRole(ctx context.Context, phone string, role auth.UserRole) error {
	if !auth.IsValidRole(role) {
		return auth.ErrMalformed.Clone().WithMetadata(map[string]any{
			"field": "role",
			"value": role,
		})
	}

	user, err := r.FindByPhone(ctx, phone)
	if err != nil {
		return err
	}

	user.Role = role
	user.UpdatedAt = r.now().UTC()

	if _, err := r.Update(ctx, user, repository.UpdateColumns("user_role", "updated_at")); err != nil {
		return errors.Wrap(err, errors.CategoryInternal, "failed to set user role")
	}
	return nil
}

func notFound(err error, msg string, meta map[string]any) error {
	if repository.IsRecordNotFound(err) {
		return ErrUserNotFound.Clone().WithMetadata(meta)
	}
	return errors.Wrap(err, errors.CategoryInternal, msg)
}
