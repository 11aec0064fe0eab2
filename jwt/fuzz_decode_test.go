package jwt

import (
	"testing"
	"time"

	gjwt "github.com/golang-jwt/jwt/v5"
)

// FuzzInspectorDecode exercises the unverified claim decoder with arbitrary
// token strings. Goal: no panics; malformed inputs must always report expired.
func FuzzInspectorDecode(f *testing.F) {
	ins, err := NewInspector(Config{Leeway: 30 * time.Second, RequireExpiry: true})
	if err != nil {
		f.Fatal(err)
	}

	valid := gjwt.NewWithClaims(gjwt.SigningMethodHS256, Claims{
		UID: "fuzz",
		RegisteredClaims: gjwt.RegisteredClaims{
			ExpiresAt: gjwt.NewNumericDate(time.Now().Add(time.Minute)),
		},
	})
	seed, err := valid.SignedString([]byte("fuzz-secret"))
	if err != nil {
		f.Fatal(err)
	}

	f.Add(seed)
	f.Add("")
	f.Add("not.a.jwt")
	f.Add("eyJhbGciOiJub25lIn0.eyJ1aWQiOiJ0ZXN0In0.")
	f.Add("eyJhbGciOiJIUzI1NiJ9.e30.sig")

	f.Fuzz(func(t *testing.T, input string) {
		claims, err := ins.Decode(input)
		if err != nil {
			if !ins.Expired(input, time.Now()) {
				t.Fatal("undecodable token must report expired")
			}
			return
		}
		if claims == nil {
			t.Fatal("Decode returned nil claims without error")
		}
	})
}
