package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"time"

	"AriaFM/core/auth"
	"AriaFM/logger"
	"AriaFM/model"
	"AriaFM/repository"
)

// encPasswordPrefix marks a hex-encoded password parameter.
const encPasswordPrefix = "enc:"

// authFailedMessage is the single message returned for every
// authentication failure. The real reason (unknown user, locked account,
// bad credentials) goes to the logs only, so the response can't be used to
// enumerate accounts.
const authFailedMessage = "Wrong username or password."

// LoginEvent is raised after each successful authentication. Consumers
// (the last-login updater) receive it asynchronously.
type LoginEvent struct {
	UserID     int64
	Username   string
	Client     string
	RemoteAddr string
	At         time.Time
}

// LoginEventSink consumes login events. Delivery is fire-and-forget.
type LoginEventSink func(event LoginEvent)

// Authenticator validates the credentials on a Subsonic request against the
// user store. It supports the two incompatible schemes the protocol grew
// over time: a password parameter (plaintext or "enc:"-hexed) and the
// salted-token scheme used by clients that never send the password.
type Authenticator struct {
	users   repository.UserRepository
	cipher  *auth.PasswordCipher
	info    ServerInfo
	onLogin LoginEventSink
}

// NewAuthenticator wires the gate. sink may be nil when no login auditing
// is wanted.
func NewAuthenticator(users repository.UserRepository, cipher *auth.PasswordCipher, info ServerInfo, sink LoginEventSink) *Authenticator {
	return &Authenticator{
		users:   users,
		cipher:  cipher,
		info:    info,
		onLogin: sink,
	}
}

// Authenticate runs the gate for one request. On success it returns the
// authenticated user projection; on any failure it returns the uniform
// auth-error envelope. Calls with RequiresAuth=false short-circuit to
// success without touching the user store.
func (a *Authenticator) Authenticate(ctx context.Context, req *Request) (*model.UserInfo, *Response) {
	if !req.RequiresAuth {
		return nil, nil
	}

	if req.Username == "" {
		logger.Warn("Subsonic auth without username",
			logger.String("client", req.Client),
			logger.String("remoteAddr", req.RemoteAddr))
		return nil, NewErrorResponse(a.info, CodeAuthentication, authFailedMessage)
	}

	user, err := a.users.GetUserByUsername(ctx, req.Username)
	if err != nil {
		logger.Error("Subsonic auth user lookup failed",
			logger.String("username", req.Username),
			logger.ErrorField(err))
		return nil, NewErrorResponse(a.info, CodeAuthentication, authFailedMessage)
	}
	if user == nil {
		logger.Warn("Subsonic auth for unknown user",
			logger.String("username", req.Username),
			logger.String("client", req.Client),
			logger.String("remoteAddr", req.RemoteAddr))
		return nil, NewErrorResponse(a.info, CodeAuthentication, authFailedMessage)
	}
	if user.IsLocked {
		logger.Warn("Subsonic auth for locked user",
			logger.String("username", req.Username),
			logger.String("client", req.Client))
		return nil, NewErrorResponse(a.info, CodeAuthentication, authFailedMessage)
	}

	if !a.verifyCredentials(user, req) {
		// Enough detail to diagnose client token bugs, never the password.
		logger.Warn("Subsonic auth credential mismatch",
			logger.String("username", req.Username),
			logger.String("client", req.Client),
			logger.Bool("tokenMode", req.Token != ""),
			logger.String("salt", req.Salt))
		return nil, NewErrorResponse(a.info, CodeAuthentication, authFailedMessage)
	}

	if a.onLogin != nil {
		event := LoginEvent{
			UserID:     user.ID,
			Username:   user.Username,
			Client:     req.Client,
			RemoteAddr: req.RemoteAddr,
			At:         time.Now().UTC(),
		}
		go a.onLogin(event)
	}

	return user.Info(), nil
}

// verifyCredentials picks the verification mode: a non-empty token selects
// token mode, otherwise password mode. Either way the answer is a single
// boolean; the caller is responsible for uniform error messaging.
func (a *Authenticator) verifyCredentials(user *model.User, req *Request) bool {
	if req.Token != "" {
		return a.verifyToken(user, req.Token, req.Salt)
	}
	return a.verifyPassword(user, req.Password)
}

// verifyPassword compares the candidate against the stored encrypted
// password. An "enc:" candidate is hex-decoded and compared against the
// ciphertext directly; a plaintext candidate is compared against the
// decrypted value. Comparison is exact and case-sensitive.
func (a *Authenticator) verifyPassword(user *model.User, candidate string) bool {
	if candidate == "" {
		return false
	}

	if strings.HasPrefix(candidate, encPasswordPrefix) {
		decoded, err := hex.DecodeString(strings.TrimPrefix(candidate, encPasswordPrefix))
		if err != nil {
			logger.Warn("Subsonic auth with undecodable enc: password",
				logger.String("username", user.Username))
			return false
		}
		return string(decoded) == user.EncryptedPassword
	}

	plaintext, err := a.cipher.Decrypt(user.EncryptedPassword)
	if err != nil {
		logger.Error("Failed to decrypt stored password",
			logger.String("username", user.Username),
			logger.ErrorField(err))
		return false
	}
	return candidate == plaintext
}

// verifyToken recomputes MD5(plaintext+salt) and compares it to the
// client's token, case-insensitively (clients disagree about hex casing).
func (a *Authenticator) verifyToken(user *model.User, token, salt string) bool {
	plaintext, err := a.cipher.Decrypt(user.EncryptedPassword)
	if err != nil {
		logger.Error("Failed to decrypt stored password",
			logger.String("username", user.Username),
			logger.ErrorField(err))
		return false
	}

	sum := md5.Sum([]byte(plaintext + salt))
	expected := hex.EncodeToString(sum[:])
	return strings.EqualFold(expected, token)
}
