package subsonic

import (
	"net/http"
)

// Request captures everything this layer needs from one inbound Subsonic
// call. It is built once by the HTTP entry point and read-only afterwards.
type Request struct {
	Username string
	// Password is either plaintext or hex-encoded with an "enc:" prefix.
	Password string
	// Token is MD5(password+salt) in lowercase hex, sent by clients that
	// never transmit the password itself.
	Token string
	Salt  string

	Client     string // c parameter, the player name
	APIVersion string // v parameter
	Format     string // f parameter: xml (default) or json

	UserAgent  string
	RemoteAddr string
	RawQuery   string

	// RequiresAuth is false for the handful of calls (ping) that skip
	// authentication entirely.
	RequiresAuth bool
}

// ParseRequest builds a Request from the standard Subsonic query
// parameters.
func ParseRequest(r *http.Request, requiresAuth bool) *Request {
	q := r.URL.Query()
	return &Request{
		Username:     q.Get("u"),
		Password:     q.Get("p"),
		Token:        q.Get("t"),
		Salt:         q.Get("s"),
		Client:       q.Get("c"),
		APIVersion:   q.Get("v"),
		Format:       q.Get("f"),
		UserAgent:    r.UserAgent(),
		RemoteAddr:   r.RemoteAddr,
		RawQuery:     r.URL.RawQuery,
		RequiresAuth: requiresAuth,
	}
}
