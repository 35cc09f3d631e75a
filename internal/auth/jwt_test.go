package auth

import (
	"testing"
	"time"
)

func TestIssueAndParse(t *testing.T) {
	pair, err := Issue("juan@co", RoleEmployee, "asistencia", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	claims, err := Parse(pair.AccessToken, "secret", "asistencia")
	if err != nil {
		t.Fatalf("Parse failed: %v", err)
	}
	if claims.Subject != "juan@co" || claims.Role != RoleEmployee {
		t.Errorf("claims: got %q/%q", claims.Subject, claims.Role)
	}
}

func TestParseRejectsWrongKey(t *testing.T) {
	pair, err := Issue("juan@co", RoleAdmin, "asistencia", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "other-secret", "asistencia"); err == nil {
		t.Error("expected error for wrong signing key")
	}
}

func TestParseRejectsWrongIssuer(t *testing.T) {
	pair, err := Issue("juan@co", RoleAdmin, "someone-else", "secret", time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "asistencia"); err == nil {
		t.Error("expected issuer mismatch error")
	}
}

func TestParseRejectsExpired(t *testing.T) {
	pair, err := Issue("juan@co", RoleEmployee, "asistencia", "secret", -time.Minute, time.Hour)
	if err != nil {
		t.Fatalf("Issue failed: %v", err)
	}
	if _, err := Parse(pair.AccessToken, "secret", "asistencia"); err == nil {
		t.Error("expected error for expired token")
	}
}
