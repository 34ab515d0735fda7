package templatesvc

import (
	"crypto/subtle"
	"net/http"
	"strings"
)

// Role is the access level a bearer token grants.
type Role int

// Roles, in increasing order of access.
const (
	RoleNone Role = iota
	RoleUser
	RoleAdmin
)

// Error details returned to clients.
const (
	detailNotAuthenticated = "Not authenticated"
	detailInvalidToken     = "Your session has expired or the token is invalid. Please sign in again."
	detailAccessProhibited = "You do not have permission to access this resource. Please contact your administrator for assistance."
)

// Authenticator maps bearer tokens to roles. Admin tokens also grant RoleUser.
type Authenticator struct {
	users  []string
	admins []string
}

// NewAuthenticator creates an Authenticator. Empty tokens are ignored.
func NewAuthenticator(userTokens, adminTokens []string) *Authenticator {
	return &Authenticator{
		users:  nonEmpty(userTokens),
		admins: nonEmpty(adminTokens),
	}
}

// Empty reports whether no tokens are configured.
func (a *Authenticator) Empty() bool {
	return len(a.users) == 0 && len(a.admins) == 0
}

// RoleOf returns the role granted by token.
func (a *Authenticator) RoleOf(token string) Role {
	if token == "" {
		return RoleNone
	}
	if matchAny(a.admins, token) {
		return RoleAdmin
	}
	if matchAny(a.users, token) {
		return RoleUser
	}
	return RoleNone
}

// matchAny compares token against every candidate in constant time per
// candidate, without stopping at the first match.
func matchAny(candidates []string, token string) bool {
	found := 0
	for _, candidate := range candidates {
		found |= subtle.ConstantTimeCompare([]byte(candidate), []byte(token))
	}
	return found == 1
}

// bearerToken extracts the token from an "Authorization: Bearer" header.
func bearerToken(r *http.Request) (string, bool) {
	header := r.Header.Get("Authorization")
	scheme, token, found := strings.Cut(header, " ")
	if !found || !strings.EqualFold(scheme, "Bearer") {
		return "", false
	}
	token = strings.TrimSpace(token)
	return token, token != ""
}

// require wraps next so it only runs for requests carrying at least role.
func (s *Server) require(role Role, next http.HandlerFunc) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		token, ok := bearerToken(r)
		if !ok {
			writeDetail(w, http.StatusUnauthorized, detailNotAuthenticated)
			return
		}

		granted := s.auth.RoleOf(token)
		switch {
		case granted == RoleNone:
			writeDetail(w, http.StatusUnauthorized, detailInvalidToken)
		case granted < role:
			writeDetail(w, http.StatusForbidden, detailAccessProhibited)
		default:
			next(w, r)
		}
	}
}

func nonEmpty(tokens []string) []string {
	out := make([]string, 0, len(tokens))
	for _, token := range tokens {
		if token = strings.TrimSpace(token); token != "" {
			out = append(out, token)
		}
	}
	return out
}
