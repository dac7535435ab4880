package auth

import (
	"crypto/rand"
	"crypto/sha256"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"strings"

	"github.com/tablegate/tablegate/internal/logger"
)

const bearerPrefix = "Bearer "

// Gate validates the shared bearer token before any tool is reachable.
type Gate struct {
	token string
	// configured is true when the token came from configuration rather
	// than being generated at startup. Only an unconfigured gate may
	// enable the development bypass.
	configured bool
	bypass     bool
}

// NewGate builds the auth gate from the configured token. When no token is
// configured and the process is not running in production, a random token is
// generated and logged; requests carrying it are accepted as usual. The
// development bypass (accepting everything) must be requested explicitly via
// AllowUnauthenticated and is never reachable once a token is configured.
func NewGate(token string, production bool) *Gate {
	if token != "" {
		return &Gate{token: token, configured: true}
	}
	if production {
		// LoadConfig rejects this combination already; refuse to
		// operate open in production regardless.
		logger.Error("No auth token configured in production; all requests will be denied")
		return &Gate{}
	}
	token = generateToken()
	logger.Warn("No AUTH_TOKEN configured; generated one for this process: %s", token)
	return &Gate{token: token}
}

// AllowUnauthenticated enables the development bypass. It is ignored, loudly,
// when a token is configured.
func (g *Gate) AllowUnauthenticated() {
	if g.configured {
		logger.Warn("Ignoring auth bypass request: a token is configured")
		return
	}
	logger.Warn("AUTH BYPASS ENABLED: all requests will be accepted without a token")
	g.bypass = true
}

// Authorize checks the Authorization header first, then the token query
// parameter, and denies otherwise. Comparison is constant-time.
func (g *Gate) Authorize(r *http.Request) bool {
	if g.bypass {
		return true
	}
	if g.token == "" {
		return false
	}

	if header := r.Header.Get("Authorization"); strings.HasPrefix(header, bearerPrefix) {
		return g.tokenMatches(strings.TrimPrefix(header, bearerPrefix))
	}

	if param := r.URL.Query().Get("token"); param != "" {
		return g.tokenMatches(param)
	}

	return false
}

// tokenMatches compares candidate against the configured token without
// leaking a timing side channel. Hashing first keeps the comparison
// constant-time even for inputs of different length.
func (g *Gate) tokenMatches(candidate string) bool {
	want := sha256.Sum256([]byte(g.token))
	got := sha256.Sum256([]byte(candidate))
	return subtle.ConstantTimeCompare(want[:], got[:]) == 1
}

func generateToken() string {
	buf := make([]byte, 16)
	if _, err := rand.Read(buf); err != nil {
		// crypto/rand failing means the platform is broken; nothing
		// sensible to fall back to.
		panic(err)
	}
	return hex.EncodeToString(buf)
}
