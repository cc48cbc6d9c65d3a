package signing

import (
	"net/url"
	"testing"
	"time"
)

func newSigner() *Signer { return New("test-signing-secret-32-bytes-ok!") }

const testResource = "video/abc123"

func TestSign_Verify_HappyPath(t *testing.T) {
	s := newSigner()
	exp := time.Now().Add(time.Hour)

	signed := s.Sign(testResource, "learner-1", exp)
	if !s.Verify(testResource, "learner-1", signed.Exp, signed.Sig) {
		t.Fatal("expected Verify to return true for valid signature")
	}
}

func TestVerify_Expired(t *testing.T) {
	s := newSigner()
	exp := time.Now().Add(-time.Hour)

	signed := s.Sign(testResource, "learner-1", exp)
	if s.Verify(testResource, "learner-1", signed.Exp, signed.Sig) {
		t.Fatal("expected Verify to return false for expired signature")
	}
}

func TestVerify_TamperedResource(t *testing.T) {
	s := newSigner()
	exp := time.Now().Add(time.Hour)
	signed := s.Sign("video/abc123", "learner-1", exp)

	if s.Verify("video/other", "learner-1", signed.Exp, signed.Sig) {
		t.Fatal("expected Verify to fail for tampered resource")
	}
}

func TestVerify_TamperedUserID(t *testing.T) {
	s := newSigner()
	exp := time.Now().Add(time.Hour)
	signed := s.Sign(testResource, "learner-1", exp)

	if s.Verify(testResource, "learner-2", signed.Exp, signed.Sig) {
		t.Fatal("expected Verify to fail for different user")
	}
}

func TestVerify_WrongSecret(t *testing.T) {
	s1 := newSigner()
	s2 := New("different-secret-32-bytes-padded!!")
	exp := time.Now().Add(time.Hour)

	signed := s1.Sign(testResource, "learner-1", exp)
	if s2.Verify(testResource, "learner-1", signed.Exp, signed.Sig) {
		t.Fatal("expected Verify to fail with different secret")
	}
}

func TestAttach_ExtractSigned_Roundtrip(t *testing.T) {
	s := newSigner()
	exp := time.Now().Add(time.Hour)
	signed := s.Sign(testResource, "learner-42", exp)

	q := url.Values{}
	Attach(q, signed)

	gotExp, gotSig, err := ExtractSigned(q)
	if err != nil {
		t.Fatalf("ExtractSigned: %v", err)
	}
	if gotExp != signed.Exp {
		t.Fatalf("expected exp %d, got %d", signed.Exp, gotExp)
	}
	if gotSig != signed.Sig {
		t.Fatalf("expected sig %q, got %q", signed.Sig, gotSig)
	}
	if !s.Verify(testResource, "learner-42", gotExp, gotSig) {
		t.Fatal("expected extracted signature to verify")
	}
}

func TestExtractSigned_Missing(t *testing.T) {
	if _, _, err := ExtractSigned(url.Values{}); err == nil {
		t.Fatal("expected error for missing params")
	}
}
