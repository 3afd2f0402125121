package tokens

import (
	"testing"
	"time"
)

func TestIssueAndVerify(t *testing.T) {
	issuer := NewIssuer("master-key", time.Hour)
	token, err := issuer.Issue("YWxpY2U=")
	if err != nil {
		t.Fatal(err)
	}
	subject, err := issuer.Verify(token)
	if err != nil {
		t.Fatal(err)
	}
	if subject != "YWxpY2U=" {
		t.Errorf("subject = %q, want alice handle", subject)
	}
}

func TestVerifyRejectsWrongKey(t *testing.T) {
	token, err := NewIssuer("key-a", time.Hour).Issue("YWxpY2U=")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssuer("key-b", time.Hour).Verify(token); err == nil {
		t.Error("expected verification to fail with a different key")
	}
}

func TestVerifyRejectsExpired(t *testing.T) {
	token, err := NewIssuer("master-key", -time.Minute).Issue("YWxpY2U=")
	if err != nil {
		t.Fatal(err)
	}
	if _, err := NewIssuer("master-key", -time.Minute).Verify(token); err == nil {
		t.Error("expected expired token to be rejected")
	}
}
