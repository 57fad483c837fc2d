package httpserver

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/base64"
	"fmt"
	"log/slog"
	"math"
	"net/http"
	"strconv"
	"strings"

	"golang.org/x/crypto/argon2"
)

// Argon2Params defines parameters for Argon2id password hashing
type Argon2Params struct {
	Memory      uint32
	Iterations  uint32
	Parallelism uint8
	SaltLen     uint32
	KeyLen      uint32
}

// DefaultArgon2Params is used by HashPassword callers that have no preference.
var DefaultArgon2Params = Argon2Params{
	Memory:      64 * 1024, // 64 MB
	Iterations:  3,
	Parallelism: 2,
	SaltLen:     16,
	KeyLen:      32,
}

// HashPassword creates an Argon2id hash of the password in the form
// argon2id$iterations$memory$parallelism$salt$hash.
func HashPassword(password string, params Argon2Params) (string, error) {
	salt := make([]byte, params.SaltLen)
	if _, err := rand.Read(salt); err != nil {
		return "", err
	}
	hash := argon2.IDKey([]byte(password), salt, params.Iterations, params.Memory, params.Parallelism, params.KeyLen)
	return fmt.Sprintf("argon2id$%d$%d$%d$%s$%s",
		params.Iterations,
		params.Memory,
		params.Parallelism,
		base64.RawStdEncoding.EncodeToString(salt),
		base64.RawStdEncoding.EncodeToString(hash),
	), nil
}

// VerifyPassword verifies a password against its Argon2id hash
func VerifyPassword(password, encodedHash string) bool {
	parts := strings.Split(encodedHash, "$")
	if len(parts) != 6 || parts[0] != "argon2id" {
		return false
	}
	iters, err1 := parseUint32(parts[1])
	mem, err2 := parseUint32(parts[2])
	par64, err3 := parseUint32(parts[3])
	if err1 != nil || err2 != nil || err3 != nil {
		return false
	}
	salt, err := base64.RawStdEncoding.DecodeString(parts[4])
	if err != nil {
		return false
	}
	expected, err := base64.RawStdEncoding.DecodeString(parts[5])
	if err != nil || len(expected) == 0 {
		return false
	}
	var par uint8
	if par64 > math.MaxUint8 {
		par = math.MaxUint8
	} else {
		par = uint8(par64)
	}
	actual := argon2.IDKey([]byte(password), salt, iters, mem, par, uint32(len(expected)))
	return subtle.ConstantTimeCompare(actual, expected) == 1
}

// BasicAuth protects admin routes with a single username and argon2id hash.
func BasicAuth(username, passwordHash string) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			user, pass, ok := r.BasicAuth()
			userOK := subtle.ConstantTimeCompare([]byte(user), []byte(username)) == 1
			if !ok || !userOK || !VerifyPassword(pass, passwordHash) {
				LoggerFrom(r).Warn("admin auth failed", slog.String("user", user))
				w.Header().Set("WWW-Authenticate", `Basic realm="authentyc-admin"`)
				writeJSON(w, http.StatusUnauthorized, errorEnvelope{Error: apiError{Code: "UNAUTHORIZED", Message: "authentication required"}})
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// parseUint32 parses a decimal string into uint32; returns error on failure
func parseUint32(s string) (uint32, error) {
	x, err := strconv.ParseUint(s, 10, 32)
	if err != nil {
		return 0, fmt.Errorf("parse")
	}
	return uint32(x), nil
}
