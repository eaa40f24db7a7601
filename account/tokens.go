package account

import (
	"net/http"

	"github.com/xy-planning-network/portfolio/auth"
	"github.com/xy-planning-network/portfolio/http/req"
	"github.com/xy-planning-network/portfolio/http/resp"
	"github.com/xy-planning-network/portfolio/http/router"
)

const (
	ActionRefresh   = "refresh"
	ActionVerify    = "verify"
	ActionBlacklist = "blacklist"
)

// TokenObtain holds the credentials exchanged for a token pair.
// Login is a username or an email.
type TokenObtain struct {
	Login    string `json:"login" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// TokenRefresh holds a refresh token.
type TokenRefresh struct {
	Refresh string `json:"refresh" validate:"required"`
}

// TokenAccess holds an access token.
type TokenAccess struct {
	Access string `json:"access"`
}

// TokenVerify holds a token of either kind to verify.
type TokenVerify struct {
	Token string `json:"token" validate:"required"`
}

// TokensViewSet handles requests to /api/{version}/account/tokens.
// Every action is public.
type TokensViewSet struct {
	d      *resp.Responder
	p      *req.Parser
	tokens *auth.Service
	users  *UserService
}

// NewTokensViewSet constructs a *TokensViewSet.
func NewTokensViewSet(d *resp.Responder, p *req.Parser, users *UserService, tokens *auth.Service) *TokensViewSet {
	return &TokensViewSet{d: d, p: p, tokens: tokens, users: users}
}

// Actions implements router.Extender.
func (vs *TokensViewSet) Actions() []router.Action {
	return []router.Action{
		{Name: ActionRefresh, Method: http.MethodPost, Handler: vs.Refresh},
		{Name: ActionVerify, Method: http.MethodPost, Handler: vs.Verify},
		{Name: ActionBlacklist, Method: http.MethodPost, Handler: vs.Blacklist},
	}
}

// Create exchanges credentials for an access and a refresh token.
func (vs *TokensViewSet) Create(w http.ResponseWriter, r *http.Request) {
	var to TokenObtain
	if err := vs.p.ParseBody(r.Body, &to); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	u, err := vs.users.Authenticate(r.Context(), to.Login, to.Password)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	pair, err := vs.tokens.ObtainPair(r.Context(), u.ID)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Data(pair))
}

// Refresh exchanges a refresh token for a new access token.
func (vs *TokensViewSet) Refresh(w http.ResponseWriter, r *http.Request) {
	var tr TokenRefresh
	if err := vs.p.ParseBody(r.Body, &tr); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	access, err := vs.tokens.Refresh(r.Context(), tr.Refresh)
	if err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r, resp.Data(TokenAccess{Access: access}))
}

// Verify checks a token's signature and expiry.
func (vs *TokensViewSet) Verify(w http.ResponseWriter, r *http.Request) {
	var tv TokenVerify
	if err := vs.p.ParseBody(r.Body, &tv); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	if _, err := vs.tokens.Verify(tv.Token); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r)
}

// Blacklist revokes a refresh token.
func (vs *TokensViewSet) Blacklist(w http.ResponseWriter, r *http.Request) {
	var tr TokenRefresh
	if err := vs.p.ParseBody(r.Body, &tr); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	if err := vs.tokens.Blacklist(r.Context(), tr.Refresh); err != nil {
		vs.d.Err(w, r, err)
		return
	}

	vs.d.Json(w, r)
}

// Doc implements router.Documented.
func (vs *TokensViewSet) Doc(action string) router.Doc {
	switch action {
	case router.ActionCreate:
		return router.Doc{Summary: "Obtain a token pair", Public: true, Request: TokenObtain{}, Response: auth.TokenPair{}, Status: http.StatusOK}
	case ActionRefresh:
		return router.Doc{Summary: "Refresh an access token", Public: true, Request: TokenRefresh{}, Response: TokenAccess{}}
	case ActionVerify:
		return router.Doc{Summary: "Verify a token", Public: true, Request: TokenVerify{}}
	case ActionBlacklist:
		return router.Doc{Summary: "Revoke a refresh token", Public: true, Request: TokenRefresh{}}
	default:
		return router.Doc{}
	}
}
