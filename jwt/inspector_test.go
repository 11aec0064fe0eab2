package jwt

import (
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

func signToken(t *testing.T, claims Claims) string {
	t.Helper()
	tok := gjwt.NewWithClaims(gjwt.SigningMethodHS256, claims)
	signed, err := tok.SignedString([]byte("test-secret"))
	if err != nil {
		t.Fatalf("sign token: %v", err)
	}
	return signed
}

func TestDecodeExtractsIdentityClaims(t *testing.T) {
	ins, err := NewInspector(Config{RequireExpiry: true})
	if err != nil {
		t.Fatalf("new inspector: %v", err)
	}

	token := signToken(t, Claims{
		UID:  "u1",
		Role: "admin",
		RegisteredClaims: gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(15 * time.Minute)),
		},
	})

	claims, err := ins.Decode(token)
	if err != nil {
		t.Fatalf("decode failed: %v", err)
	}
	if claims.UID != "u1" || claims.Role != "admin" {
		t.Fatalf("unexpected claims: %+v", claims)
	}
}

func TestDecodeRejectsMissingExpiryWhenRequired(t *testing.T) {
	ins, err := NewInspector(Config{RequireExpiry: true})
	if err != nil {
		t.Fatalf("new inspector: %v", err)
	}

	token := signToken(t, Claims{UID: "u1"})
	if _, err := ins.Decode(token); err != ErrMissingExpiry {
		t.Fatalf("expected ErrMissingExpiry, got %v", err)
	}
	if !ins.Expired(token, time.Now()) {
		t.Fatal("expected token without exp to report expired")
	}
}

func TestExpiredFailClosedOnGarbage(t *testing.T) {
	ins, err := NewInspector(Config{})
	if err != nil {
		t.Fatalf("new inspector: %v", err)
	}

	for _, input := range []string{"", "not.a.jwt", "a.b", "a.b.c.d", "eyJhbGciOiJIUzI1NiJ9.!!!.sig"} {
		if !ins.Expired(input, time.Now()) {
			t.Fatalf("expected malformed token %q to report expired", input)
		}
	}
}

func TestExpiredHonorsLeeway(t *testing.T) {
	ins, err := NewInspector(Config{Leeway: 30 * time.Second, RequireExpiry: true})
	if err != nil {
		t.Fatalf("new inspector: %v", err)
	}

	now := time.Now()
	token := signToken(t, Claims{
		UID: "u1",
		RegisteredClaims: gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(now.Add(-10 * time.Second)),
		},
	})

	if ins.Expired(token, now) {
		t.Fatal("token within leeway window should not report expired")
	}
	if !ins.Expired(token, now.Add(time.Minute)) {
		t.Fatal("token past leeway window should report expired")
	}
}

func TestNewInspectorRejectsBadLeeway(t *testing.T) {
	if _, err := NewInspector(Config{Leeway: -time.Second}); err == nil {
		t.Fatal("expected negative leeway to be rejected")
	}
	if _, err := NewInspector(Config{Leeway: 3 * time.Minute}); err == nil {
		t.Fatal("expected oversized leeway to be rejected")
	}
}
