package account

import (
	"context"
	"errors"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/google/uuid"
	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/postgres"
)

// A MediaStore keeps files users upload.
type MediaStore interface {
	Save(ctx context.Context, name string, r io.Reader, size int64, contentType string) (string, error)
	Delete(ctx context.Context, key string) error
	URL(key string) string
}

// NewUser holds what signing up requires.
type NewUser struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Username    string `json:"username" validate:"required,max=150"`
	Password    string `json:"password" validate:"required,min=8,max=72"`
	FirstName   string `json:"firstName" validate:"max=150"`
	LastName    string `json:"lastName" validate:"max=150"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

// A UserUpdate changes the fields of a User that are set.
//
// IsActive can only be changed by staff, IsStaff only by superusers.
type UserUpdate struct {
	Email       *string `json:"email" validate:"omitempty,email,max=254"`
	Username    *string `json:"username" validate:"omitempty,min=1,max=150"`
	Password    *string `json:"password" validate:"omitempty,min=8,max=72"`
	FirstName   *string `json:"firstName" validate:"omitempty,max=150"`
	LastName    *string `json:"lastName" validate:"omitempty,max=150"`
	PhoneNumber *string `json:"phoneNumber" validate:"omitempty,phone"`
	IsActive    *bool   `json:"isActive"`
	IsStaff     *bool   `json:"isStaff"`
}

// staffOnly asserts whether the UserUpdate changes fields only staff may change.
func (uu UserUpdate) staffOnly() bool { return uu.IsActive != nil || uu.IsStaff != nil }

// superuserOnly asserts whether the UserUpdate grants or revokes staff access.
func (uu UserUpdate) superuserOnly() bool { return uu.IsStaff != nil }

// A UserService manages the Users of a portfolio application.
type UserService struct {
	db     *postgres.DB
	media  MediaStore
	region string
}

// NewUserService constructs a *UserService.
// Phone numbers without a country code are read as numbers from region.
func NewUserService(db *postgres.DB, media MediaStore, region string) *UserService {
	return &UserService{db: db, media: media, region: region}
}

// Transaction runs fn with a UserService bound to a single database transaction,
// committing when fn returns nil and rolling back otherwise.
func (s *UserService) Transaction(fn func(users *UserService, tx *postgres.DB) error) error {
	return s.db.Transaction(func(tx *postgres.DB) error {
		return fn(&UserService{db: tx, media: s.media, region: s.region}, tx)
	})
}

// Create signs up a new, active User.
//
// If the email or username is taken, ErrExists returns.
func (s *UserService) Create(ctx context.Context, nu NewUser) (*User, error) {
	return s.create(ctx, nu, false)
}

// CreateSuperuser creates an active User with staff and superuser access.
func (s *UserService) CreateSuperuser(ctx context.Context, nu NewUser) (*User, error) {
	return s.create(ctx, nu, true)
}

func (s *UserService) create(ctx context.Context, nu NewUser, super bool) (*User, error) {
	if nu.Email == "" || nu.Username == "" {
		return nil, fmt.Errorf("%w: email and username are required", portfolio.ErrMissingData)
	}

	phone, err := NormalizePhoneNumber(nu.PhoneNumber, s.region)
	if err != nil {
		return nil, err
	}

	u := &User{
		Email:       NormalizeEmail(nu.Email),
		Username:    strings.TrimSpace(nu.Username),
		FirstName:   nu.FirstName,
		LastName:    nu.LastName,
		PhoneNumber: phone,
		IsActive:    true,
		IsStaff:     super,
		IsSuperuser: super,
	}

	if err := u.SetPassword(nu.Password); err != nil {
		return nil, err
	}

	if err := s.db.WithContext(ctx).Create(u); err != nil {
		return nil, fmt.Errorf("account: failed creating user %s: %w", u.Username, err)
	}

	return u, nil
}

// Get retrieves the User with id, leaving out soft deleted Users unless includeDeleted is true.
//
// If there is no such User, ErrNotFound returns.
func (s *UserService) Get(ctx context.Context, id uint, includeDeleted bool) (*User, error) {
	q := s.db.WithContext(ctx).Where("id = ?", id)
	if !includeDeleted {
		q = q.Scope(postgres.Active())
	}

	u := new(User)
	if err := q.First(u); err != nil {
		return nil, fmt.Errorf("account: user %d: %w", id, err)
	}

	return u, nil
}

// GetByLogin retrieves the active User whose email or username is login.
func (s *UserService) GetByLogin(ctx context.Context, login string) (*User, error) {
	login = strings.TrimSpace(login)
	if login == "" {
		return nil, fmt.Errorf("%w: login", portfolio.ErrMissingData)
	}

	u := new(User)
	err := s.db.WithContext(ctx).
		Scope(postgres.Active()).
		Where(s.db.Where("email = ?", NormalizeEmail(login)).Or("username = ?", login)).
		First(u)
	if err != nil {
		return nil, fmt.Errorf("account: user %q: %w", login, err)
	}

	return u, nil
}

// List pages through Users ordered by ID, leaving out soft deleted Users unless includeDeleted is true.
// The items of the returned PagedData are a *[]User.
func (s *UserService) List(ctx context.Context, page, perPage int64, includeDeleted bool) (postgres.PagedData, error) {
	q := s.db.WithContext(ctx).Model(new(User)).Order("id")
	if !includeDeleted {
		q = q.Scope(postgres.Active())
	}

	pd, err := q.Paged(page, perPage)
	if err != nil {
		return postgres.PagedData{}, fmt.Errorf("account: failed listing users: %w", err)
	}

	return pd, nil
}

// Update applies uu to the active User with id.
//
// If uu changes the email or username to one taken, ErrExists returns.
func (s *UserService) Update(ctx context.Context, id uint, uu UserUpdate) (*User, error) {
	u, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if uu.Email != nil {
		u.Email = NormalizeEmail(*uu.Email)
	}

	if uu.Username != nil {
		u.Username = strings.TrimSpace(*uu.Username)
	}

	if uu.FirstName != nil {
		u.FirstName = *uu.FirstName
	}

	if uu.LastName != nil {
		u.LastName = *uu.LastName
	}

	if uu.PhoneNumber != nil {
		if u.PhoneNumber, err = NormalizePhoneNumber(*uu.PhoneNumber, s.region); err != nil {
			return nil, err
		}
	}

	if uu.Password != nil {
		if err := u.SetPassword(*uu.Password); err != nil {
			return nil, err
		}
	}

	if uu.IsActive != nil {
		u.IsActive = *uu.IsActive
	}

	if uu.IsStaff != nil {
		u.IsStaff = *uu.IsStaff
	}

	if u.Email == "" || u.Username == "" {
		return nil, fmt.Errorf("%w: email and username are required", portfolio.ErrMissingData)
	}

	u.SetUpdatedAt(portfolio.NowFunc())
	if err := s.db.WithContext(ctx).Save(u); err != nil {
		return nil, fmt.Errorf("account: failed updating user %d: %w", id, err)
	}

	return u, nil
}

// SoftDelete marks the active User with id as deleted.
func (s *UserService) SoftDelete(ctx context.Context, id uint) (*User, error) {
	u, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	if err := portfolio.MarkDeleted(ctx, u, postgres.SaveFunc[*User](s.db)); err != nil {
		return nil, fmt.Errorf("account: failed deleting user %d: %w", id, err)
	}

	return u, nil
}

// Restore brings the User with id back to active use.
//
// Restoring a User whose email or username was taken in the meantime returns ErrExists.
func (s *UserService) Restore(ctx context.Context, id uint) (*User, error) {
	u, err := s.Get(ctx, id, true)
	if err != nil {
		return nil, err
	}

	if err := portfolio.MarkUndeleted(ctx, u, postgres.SaveFunc[*User](s.db)); err != nil {
		return nil, fmt.Errorf("account: failed restoring user %d: %w", id, err)
	}

	return u, nil
}

// Destroy permanently removes the User with id, deleted or not, along with their avatar.
func (s *UserService) Destroy(ctx context.Context, id uint) error {
	u, err := s.Get(ctx, id, true)
	if err != nil {
		return err
	}

	if err := s.db.WithContext(ctx).Delete(u); err != nil {
		return fmt.Errorf("account: failed destroying user %d: %w", id, err)
	}

	if u.Avatar != "" && s.media != nil {
		if err := s.media.Delete(ctx, u.Avatar); err != nil {
			return fmt.Errorf("account: user %d destroyed, avatar %s remains: %w", id, u.Avatar, err)
		}
	}

	return nil
}

// SetAvatar uploads the picture in r to media storage and sets it as the avatar of the active User with id,
// removing the one it replaces.
//
// Only image content types are accepted.
func (s *UserService) SetAvatar(ctx context.Context, id uint, filename string, r io.Reader, size int64, contentType string) (*User, error) {
	if s.media == nil {
		return nil, fmt.Errorf("%w: no media storage", portfolio.ErrNotImplemented)
	}

	if !strings.HasPrefix(contentType, "image/") {
		return nil, fmt.Errorf("%w: %s is not an image", portfolio.ErrNotValid, contentType)
	}

	u, err := s.Get(ctx, id, false)
	if err != nil {
		return nil, err
	}

	name := path.Join("avatars", fmt.Sprint(id), uuid.NewString()+strings.ToLower(path.Ext(filename)))
	key, err := s.media.Save(ctx, name, r, size, contentType)
	if err != nil {
		return nil, fmt.Errorf("account: failed uploading avatar for user %d: %w", id, err)
	}

	old := u.Avatar
	u.Avatar = key
	u.SetUpdatedAt(portfolio.NowFunc())
	if err := s.db.WithContext(ctx).Save(u); err != nil {
		return nil, errors.Join(
			fmt.Errorf("account: failed setting avatar for user %d: %w", id, err),
			s.media.Delete(ctx, key),
		)
	}

	if old != "" {
		// NOTE: a leftover file is harmless, the new avatar is already set
		_ = s.media.Delete(ctx, old)
	}

	return u, nil
}

// AvatarURL returns the public URL of the User's avatar, or "" when none is set.
func (s *UserService) AvatarURL(u *User) string {
	if u.Avatar == "" || s.media == nil {
		return ""
	}

	return s.media.URL(u.Avatar)
}

// Authenticate retrieves the User whose login and password match,
// stamping when they last logged in.
//
// Soft deleted or inactive Users, unknown logins and wrong passwords all return ErrUnauthorized.
func (s *UserService) Authenticate(ctx context.Context, login, password string) (*User, error) {
	u, err := s.GetByLogin(ctx, login)
	switch {
	case errors.Is(err, portfolio.ErrNotFound):
		return nil, fmt.Errorf("%w: no active account found with the given credentials", portfolio.ErrUnauthorized)

	case err != nil:
		return nil, err
	}

	if !u.CheckPassword(password) || !u.HasAccess() {
		return nil, fmt.Errorf("%w: no active account found with the given credentials", portfolio.ErrUnauthorized)
	}

	now := portfolio.NowFunc()
	if err := s.db.WithContext(ctx).Model(u).Update(postgres.Updates{"last_login": now}); err != nil {
		return nil, fmt.Errorf("account: failed stamping login for user %d: %w", u.ID, err)
	}

	u.LastLogin = &now
	return u, nil
}
