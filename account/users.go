package account

import (
	"context"
	"fmt"
	"net/http"
	"strconv"

	"github.com/xy-planning-network/portfolio"
	"github.com/xy-planning-network/portfolio/auth"
	"github.com/xy-planning-network/portfolio/http/middleware"
	"github.com/xy-planning-network/portfolio/http/req"
	"github.com/xy-planning-network/portfolio/http/resp"
	"github.com/xy-planning-network/portfolio/http/router"
	"github.com/xy-planning-network/portfolio/postgres"
)

const (
	ActionMe      = "me"
	ActionRestore = "restore"
	ActionAvatar  = "avatar"
	ActionPurge   = "purge"

	avatarField     = "avatar"
	maxAvatarBytes  = 5 << 20
	defaultPageSize = 100
)

// A UserResponse is a User as the API returns it.
type UserResponse struct {
	*User
	Avatar string `json:"avatar"`
}

// UserPage is a page of UserResponses.
type UserPage struct {
	Items      []UserResponse `json:"items"`
	Page       int64          `json:"page"`
	PerPage    int64          `json:"perPage"`
	TotalItems int64          `json:"totalItems"`
	TotalPages int64          `json:"totalPages"`

	// NextPage and PreviousPage are null at either end.
	NextPage     *int64 `json:"nextPage"`
	PreviousPage *int64 `json:"previousPage"`
}

// UserListQuery holds the query params listing users accepts.
type UserListQuery struct {
	Page    int64 `schema:"page" validate:"omitempty,min=1"`
	PerPage int64 `schema:"perPage" validate:"omitempty,min=1,max=1000"`

	// Deleted includes soft deleted users; staff only.
	Deleted bool `schema:"deleted"`
}

// UserReplace holds every field a PUT to a user must set.
type UserReplace struct {
	Email       string `json:"email" validate:"required,email,max=254"`
	Username    string `json:"username" validate:"required,max=150"`
	FirstName   string `json:"firstName" validate:"max=150"`
	LastName    string `json:"lastName" validate:"max=150"`
	PhoneNumber string `json:"phoneNumber" validate:"omitempty,phone"`
}

// UsersViewSet handles requests to /api/{version}/account/users.
type UsersViewSet struct {
	d        *resp.Responder
	p        *req.Parser
	tokens   *auth.Service
	users    *UserService
	pageSize int64
}

// NewUsersViewSet constructs a *UsersViewSet.
// Lists default to pageSize users per page.
func NewUsersViewSet(d *resp.Responder, p *req.Parser, users *UserService, tokens *auth.Service, pageSize int64) *UsersViewSet {
	if pageSize < 1 {
		pageSize = defaultPageSize
	}

	return &UsersViewSet{d: d, p: p, tokens: tokens, users: users, pageSize: pageSize}
}

// Actions implements router.Extender.
func (vs *UsersViewSet) Actions() []router.Action {
	return []router.Action{
		{Name: ActionMe, Method: http.MethodGet, Handler: vs.Me},
		{Name: ActionRestore, Detail: true, Method: http.MethodPost, Handler: vs.Restore},
		{Name: ActionAvatar, Detail: true, Method: http.MethodPost, Handler: vs.SetAvatar},
		{Name: ActionPurge, Detail: true, Method: http.MethodDelete, Handler: vs.Purge},
	}
}

// Guard implements router.Guarded.
// Signing up is public; restoring and purging users is for staff.
func (vs *UsersViewSet) Guard(action string) []middleware.Adapter {
	switch action {
	case router.ActionCreate:
		return nil
	case ActionRestore, ActionPurge:
		return []middleware.Adapter{middleware.RequireStaff(vs.d)}
	default:
		return []middleware.Adapter{middleware.RequireAuthed(vs.d)}
	}
}

// List pages through users.
func (vs *UsersViewSet) List(w http.ResponseWriter, r *http.Request) {
	cu := vs.currentUser(r)

	var q UserListQuery
	if err := vs.p.ParseQueryParams(r.URL.Query(), &q); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	if q.Deleted && !cu.HasStaffAccess() {
		vs.d.Err(w, r, fmt.Errorf("%w: only staff list deleted users", portfolio.ErrForbidden))
		return
	}

	if q.PerPage == 0 {
		q.PerPage = vs.pageSize
	}

	pd, err := vs.users.List(r.Context(), q.Page, q.PerPage, q.Deleted)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Data(vs.page(pd)))
}

// Create signs up a user.
func (vs *UsersViewSet) Create(w http.ResponseWriter, r *http.Request) {
	var nu NewUser
	if err := vs.p.ParseBody(r.Body, &nu); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	u, err := vs.users.Create(r.Context(), nu)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Created(r.URL.Path+"/"+strconv.FormatUint(uint64(u.ID), 10)), resp.Data(vs.response(u)))
}

// Retrieve responds with a user.
// Staff see soft deleted users too.
func (vs *UsersViewSet) Retrieve(w http.ResponseWriter, r *http.Request) {
	id, err := router.ID(r)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	u, err := vs.users.Get(r.Context(), id, vs.currentUser(r).HasStaffAccess())
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Data(vs.response(u)))
}

// Update replaces the editable fields of a user.
func (vs *UsersViewSet) Update(w http.ResponseWriter, r *http.Request) {
	var ur UserReplace
	if err := vs.p.ParseBody(r.Body, &ur); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.update(w, r, UserUpdate{
		Email:       &ur.Email,
		Username:    &ur.Username,
		FirstName:   &ur.FirstName,
		LastName:    &ur.LastName,
		PhoneNumber: &ur.PhoneNumber,
	})
}

// PartialUpdate changes the fields of a user set in the body.
func (vs *UsersViewSet) PartialUpdate(w http.ResponseWriter, r *http.Request) {
	var uu UserUpdate
	if err := vs.p.ParseBody(r.Body, &uu); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.update(w, r, uu)
}

func (vs *UsersViewSet) update(w http.ResponseWriter, r *http.Request, uu UserUpdate) {
	id, ok := vs.managed(w, r)
	if !ok {
		return
	}

	cu := vs.currentUser(r)
	if uu.staffOnly() && !cu.HasStaffAccess() {
		vs.d.Err(w, r, fmt.Errorf("%w: only staff change access", portfolio.ErrForbidden))
		return
	}

	if uu.superuserOnly() && !cu.IsSuperuser {
		vs.d.Err(w, r, fmt.Errorf("%w: only superusers change staff access", portfolio.ErrForbidden))
		return
	}

	u, err := vs.users.Update(r.Context(), id, uu)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Data(vs.response(u)))
}

// Destroy soft deletes a user, revoking their refresh tokens.
// Both happen in one transaction: a user is never left deleted with live refresh tokens.
func (vs *UsersViewSet) Destroy(w http.ResponseWriter, r *http.Request) {
	id, ok := vs.managed(w, r)
	if !ok {
		return
	}

	err := vs.users.Transaction(func(users *UserService, tx *postgres.DB) error {
		if _, err := users.SoftDelete(r.Context(), id); err != nil {
			return err
		}

		return vs.tokens.WithDB(tx).BlacklistAll(r.Context(), id)
	})
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Code(http.StatusNoContent))
}

// Me responds with the current user.
func (vs *UsersViewSet) Me(w http.ResponseWriter, r *http.Request) {
	vs.d.Json(w, r, resp.Data(vs.response(vs.currentUser(r))))
}

// Restore brings a soft deleted user back.
func (vs *UsersViewSet) Restore(w http.ResponseWriter, r *http.Request) {
	id, err := router.ID(r)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	u, err := vs.users.Restore(r.Context(), id)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Data(vs.response(u)))
}

// Purge permanently removes a user, revoking their refresh tokens.
// Only superusers may purge.
func (vs *UsersViewSet) Purge(w http.ResponseWriter, r *http.Request) {
	if !vs.currentUser(r).IsSuperuser {
		vs.d.Err(w, r, fmt.Errorf("%w: only superusers purge users", portfolio.ErrForbidden))
		return
	}

	id, err := router.ID(r)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	if err := vs.tokens.BlacklistAll(r.Context(), id); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	if err := vs.users.Destroy(r.Context(), id); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Code(http.StatusNoContent))
}

// SetAvatar uploads the picture in the "avatar" field of a multipart form as the user's avatar.
func (vs *UsersViewSet) SetAvatar(w http.ResponseWriter, r *http.Request) {
	id, ok := vs.managed(w, r)
	if !ok {
		return
	}

	f, fh, err := vs.p.ParseMultipart(w, r, avatarField, maxAvatarBytes)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}
	defer f.Close()

	u, err := vs.users.SetAvatar(r.Context(), id, fh.Filename, f, fh.Size, fh.Header.Get("Content-Type"))
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Data(vs.response(u)))
}

// currentUser retrieves the user set by middleware.Authenticate.
// Handlers behind middleware.RequireAuthed always have one; elsewhere, a zero User stands in.
func (vs *UsersViewSet) currentUser(r *http.Request) *User {
	val, err := vs.d.CurrentUser(r.Context())
	if err != nil {
		return new(User)
	}

	u, ok := val.(*User)
	if !ok {
		return new(User)
	}

	return u
}

// managed parses the ID of the user the request acts on,
// writing 403 when the current user may not manage them.
func (vs *UsersViewSet) managed(w http.ResponseWriter, r *http.Request) (uint, bool) {
	id, err := router.ID(r)
	if err != nil {
		vs.d.Err(w, r, err)
		return 0, false
	}

	cu := vs.currentUser(r)
	if cu.ID != id && !cu.HasStaffAccess() {
		vs.d.Err(w, r, fmt.Errorf("%w: user %d", portfolio.ErrForbidden, id))
		return 0, false
	}

	target, err := vs.users.Get(r.Context(), id, true)
	if err != nil {
		vs.d.Err(w, r, err)
		return 0, false
	}

	if !cu.CanManage(*target) {
		vs.d.Err(w, r, fmt.Errorf("%w: user %d", portfolio.ErrForbidden, id))
		return 0, false
	}

	return id, true
}

func (vs *UsersViewSet) response(u *User) UserResponse {
	return UserResponse{User: u, Avatar: vs.users.AvatarURL(u)}
}

func (vs *UsersViewSet) page(pd postgres.PagedData) UserPage {
	up := UserPage{
		Items:      make([]UserResponse, 0),
		Page:       pd.Page,
		PerPage:    pd.PerPage,
		TotalItems: pd.TotalItems,
		TotalPages: pd.TotalPages,

		NextPage:     pd.Next(),
		PreviousPage: pd.Previous(),
	}

	if users, ok := pd.Items.(*[]User); ok {
		for i := range *users {
			up.Items = append(up.Items, vs.response(&(*users)[i]))
		}
	}

	return up
}

// Doc implements router.Documented.
func (vs *UsersViewSet) Doc(action string) router.Doc {
	switch action {
	case router.ActionList:
		return router.Doc{Summary: "List users", Query: UserListQuery{}, Response: UserPage{}}
	case router.ActionCreate:
		return router.Doc{Summary: "Sign up", Public: true, Request: NewUser{}, Response: UserResponse{}, Status: http.StatusCreated}
	case router.ActionRetrieve:
		return router.Doc{Summary: "Retrieve a user", Response: UserResponse{}}
	case router.ActionUpdate:
		return router.Doc{Summary: "Replace a user", Request: UserReplace{}, Response: UserResponse{}}
	case router.ActionPartialUpdate:
		return router.Doc{Summary: "Update a user", Request: UserUpdate{}, Response: UserResponse{}}
	case router.ActionDestroy:
		return router.Doc{Summary: "Soft delete a user", Status: http.StatusNoContent}
	case ActionMe:
		return router.Doc{Summary: "Retrieve the current user", Response: UserResponse{}}
	case ActionRestore:
		return router.Doc{Summary: "Restore a soft deleted user", Response: UserResponse{}}
	case ActionAvatar:
		return router.Doc{Summary: "Upload a user's avatar", Multipart: avatarField, Response: UserResponse{}}
	case ActionPurge:
		return router.Doc{Summary: "Permanently delete a user", Status: http.StatusNoContent}
	default:
		return router.Doc{}
	}
}

// Storer looks up active users for middleware.Authenticate.
func (s *UserService) Storer() middleware.UserStorer {
	return func(ctx context.Context, id uint) (middleware.User, error) {
		return s.Get(ctx, id, false)
	}
}
