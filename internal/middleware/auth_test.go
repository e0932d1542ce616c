package middleware

import (
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/IMRiesen/avitolike/pkg/response"
	"github.com/IMRiesen/avitolike/pkg/token"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

func init() {
	gin.SetMode(gin.TestMode)
}

func newRouter(m *AuthMiddleware) *gin.Engine {
	r := gin.New()
	whoami := func(c *gin.Context) {
		id := response.OptionalUserID(c)
		if id == nil {
			c.String(http.StatusOK, "anonymous")
			return
		}
		c.String(http.StatusOK, id.String())
	}

	r.GET("/protected", m.RequireAuth(), whoami)
	r.GET("/optional", m.OptionalAuth(), whoami)
	r.GET("/admin", m.RequireAuth(), m.RequireRole("Admin"), whoami)
	return r
}

func do(r http.Handler, path, bearer string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(http.MethodGet, path, nil)
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}
	rec := httptest.NewRecorder()
	r.ServeHTTP(rec, req)
	return rec
}

func TestRequireAuth(t *testing.T) {
	tokens := token.NewManager("secret", "iss", "aud", time.Hour)
	r := newRouter(NewAuthMiddleware(tokens))
	id := uuid.New()
	signed, _, err := tokens.Issue(id, "alice", "a@x.com", []string{"User"})
	if err != nil {
		t.Fatal(err)
	}

	if rec := do(r, "/protected", ""); rec.Code != http.StatusUnauthorized {
		t.Fatalf("missing token: status %d", rec.Code)
	}
	if rec := do(r, "/protected", "garbage"); rec.Code != http.StatusUnauthorized {
		t.Fatalf("bad token: status %d", rec.Code)
	}

	rec := do(r, "/protected", signed)
	if rec.Code != http.StatusOK || rec.Body.String() != id.String() {
		t.Fatalf("valid token: status %d body %q", rec.Code, rec.Body.String())
	}

	rec = do(r, "/protected?token="+signed, "")
	if rec.Code != http.StatusOK {
		t.Fatalf("query token: status %d", rec.Code)
	}
}

func TestOptionalAuth(t *testing.T) {
	tokens := token.NewManager("secret", "", "", time.Hour)
	r := newRouter(NewAuthMiddleware(tokens))

	if rec := do(r, "/optional", ""); rec.Body.String() != "anonymous" {
		t.Fatalf("got %q", rec.Body.String())
	}
	if rec := do(r, "/optional", "garbage"); rec.Code != http.StatusOK || rec.Body.String() != "anonymous" {
		t.Fatalf("invalid token should degrade to anonymous, got %d %q", rec.Code, rec.Body.String())
	}

	id := uuid.New()
	signed, _, _ := tokens.Issue(id, "bob", "b@x.com", nil)
	if rec := do(r, "/optional", signed); rec.Body.String() != id.String() {
		t.Fatalf("got %q", rec.Body.String())
	}
}

func TestRequireRole(t *testing.T) {
	tokens := token.NewManager("secret", "", "", time.Hour)
	r := newRouter(NewAuthMiddleware(tokens))

	user, _, _ := tokens.Issue(uuid.New(), "u", "u@x.com", []string{"User"})
	if rec := do(r, "/admin", user); rec.Code != http.StatusForbidden {
		t.Fatalf("plain user: status %d", rec.Code)
	}

	admin, _, _ := tokens.Issue(uuid.New(), "a", "a@x.com", []string{"User", "Admin"})
	if rec := do(r, "/admin", admin); rec.Code != http.StatusOK {
		t.Fatalf("admin: status %d", rec.Code)
	}
}
