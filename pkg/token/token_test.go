package token

import (
	"errors"
	"reflect"
	"testing"
	"time"

	"github.com/google/uuid"
)

func TestIssueAndParse(t *testing.T) {
	m := NewManager("secret", "avitolike", "avitolike-clients", time.Hour)
	id := uuid.New()

	signed, exp, err := m.Issue(id, "alice", "a@x.com", []string{"User", "Admin"})
	if err != nil {
		t.Fatalf("Issue: %v", err)
	}
	if time.Until(exp) <= 0 {
		t.Fatal("expiry should be in the future")
	}

	claims, err := m.Parse(signed)
	if err != nil {
		t.Fatalf("Parse: %v", err)
	}
	if claims.Subject != id.String() {
		t.Errorf("subject = %s, want %s", claims.Subject, id)
	}
	if claims.Name != "alice" || claims.Email != "a@x.com" {
		t.Errorf("unexpected identity claims: %+v", claims)
	}
	if got := claims.Roles(); !reflect.DeepEqual(got, []string{"User", "Admin"}) {
		t.Errorf("roles = %v", got)
	}
}

func TestParseRejectsExpired(t *testing.T) {
	m := NewManager("secret", "", "", time.Minute)
	m.now = func() time.Time { return time.Now().Add(-2 * time.Hour) }

	signed, _, err := m.Issue(uuid.New(), "bob", "b@x.com", nil)
	if err != nil {
		t.Fatal(err)
	}

	m.now = time.Now
	if _, err := m.Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsForeignSecret(t *testing.T) {
	signed, _, err := NewManager("one", "", "", time.Hour).Issue(uuid.New(), "c", "c@x.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager("two", "", "", time.Hour).Parse(signed); !errors.Is(err, ErrInvalidToken) {
		t.Fatalf("expected ErrInvalidToken, got %v", err)
	}
}

func TestParseRejectsWrongAudience(t *testing.T) {
	signed, _, err := NewManager("s", "iss", "web", time.Hour).Issue(uuid.New(), "d", "d@x.com", nil)
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewManager("s", "iss", "mobile", time.Hour).Parse(signed); err == nil {
		t.Fatal("token for another audience must be rejected")
	}
}

func TestRolesEmpty(t *testing.T) {
	c := &Claims{}
	if c.Roles() != nil {
		t.Fatal("empty role claim should yield no roles")
	}
}
