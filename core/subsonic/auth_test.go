package subsonic

import (
	"context"
	"crypto/md5"
	"encoding/hex"
	"strings"
	"testing"
	"time"

	"AriaFM/core/auth"
	"AriaFM/model"
)

const testCipherKey = "000102030405060708090a0b0c0d0e0f101112131415161718191a1b1c1d1e1f"

type fakeUserRepo struct {
	users map[string]*model.User
}

func (f *fakeUserRepo) CreateUser(context.Context, *model.User) (int64, error) { return 0, nil }

func (f *fakeUserRepo) GetUserByID(context.Context, int64) (*model.User, error) { return nil, nil }

func (f *fakeUserRepo) GetUserByUsername(_ context.Context, username string) (*model.User, error) {
	return f.users[username], nil
}

func (f *fakeUserRepo) GetUserByEmail(context.Context, string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) GetUserByApiKey(context.Context, string) (*model.User, error) {
	return nil, nil
}

func (f *fakeUserRepo) UpdateLastLogin(context.Context, int64, time.Time) error { return nil }

func newTestAuthenticator(t *testing.T, users ...*model.User) (*Authenticator, *auth.PasswordCipher) {
	t.Helper()

	cipher, err := auth.NewPasswordCipher(testCipherKey)
	if err != nil {
		t.Fatalf("failed to create cipher: %v", err)
	}

	repo := &fakeUserRepo{users: map[string]*model.User{}}
	for _, user := range users {
		repo.users[user.Username] = user
	}

	info := ServerInfo{Version: "1.16.1", Type: "ariafm", ServerVersion: "0.9.0"}
	return NewAuthenticator(repo, cipher, info, nil), cipher
}

func newTestUser(t *testing.T, cipher *auth.PasswordCipher, username, password string) *model.User {
	t.Helper()

	encrypted, err := cipher.Encrypt(password)
	if err != nil {
		t.Fatalf("failed to encrypt password: %v", err)
	}
	return &model.User{
		ID:                1,
		ApiKey:            "user-api-key",
		Username:          username,
		EncryptedPassword: encrypted,
	}
}

func subsonicToken(password, salt string) string {
	sum := md5.Sum([]byte(password + salt))
	return hex.EncodeToString(sum[:])
}

func TestAuthenticateSkipsWhenNotRequired(t *testing.T) {
	authenticator, _ := newTestAuthenticator(t)

	user, errResp := authenticator.Authenticate(context.Background(), &Request{RequiresAuth: false})
	if user != nil || errResp != nil {
		t.Error("unauthenticated endpoints should pass through with no user and no error")
	}
}

func TestAuthenticateToken(t *testing.T) {
	tests := []struct {
		name     string
		token    func(password, salt string) string
		salt     string
		wantFail bool
	}{
		{"valid token", subsonicToken, "abc123", false},
		{"uppercase token accepted", func(p, s string) string {
			return strings.ToUpper(subsonicToken(p, s))
		}, "abc123", false},
		{"wrong salt", func(p, s string) string { return subsonicToken(p, "different") }, "abc123", true},
		{"garbage token", func(p, s string) string { return "deadbeef" }, "abc123", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			authenticator, cipher := newTestAuthenticator(t)
			user := newTestUser(t, cipher, "alice", "sesame")
			authenticator.users.(*fakeUserRepo).users["alice"] = user

			req := &Request{
				RequiresAuth: true,
				Username:     "alice",
				Token:        tt.token("sesame", tt.salt),
				Salt:         tt.salt,
			}
			info, errResp := authenticator.Authenticate(context.Background(), req)

			if tt.wantFail {
				if errResp == nil {
					t.Fatal("expected auth failure")
				}
				if errResp.Error.Code != CodeAuthentication {
					t.Errorf("code = %d, want %d", errResp.Error.Code, CodeAuthentication)
				}
				return
			}
			if errResp != nil {
				t.Fatalf("expected success, got %q", errResp.Error.Message)
			}
			if info.Username != "alice" {
				t.Errorf("username = %s, want alice", info.Username)
			}
		})
	}
}

func TestAuthenticatePlaintextPassword(t *testing.T) {
	authenticator, cipher := newTestAuthenticator(t)
	user := newTestUser(t, cipher, "alice", "sesame")
	authenticator.users.(*fakeUserRepo).users["alice"] = user

	req := &Request{RequiresAuth: true, Username: "alice", Password: "sesame"}
	if _, errResp := authenticator.Authenticate(context.Background(), req); errResp != nil {
		t.Fatalf("expected success, got %q", errResp.Error.Message)
	}

	req.Password = "SESAME"
	if _, errResp := authenticator.Authenticate(context.Background(), req); errResp == nil {
		t.Error("password comparison must be case sensitive")
	}
}

func TestAuthenticateEncPassword(t *testing.T) {
	authenticator, cipher := newTestAuthenticator(t)
	user := newTestUser(t, cipher, "alice", "sesame")
	authenticator.users.(*fakeUserRepo).users["alice"] = user

	// The enc: form carries the hex of the stored ciphertext itself.
	req := &Request{
		RequiresAuth: true,
		Username:     "alice",
		Password:     "enc:" + hex.EncodeToString([]byte(user.EncryptedPassword)),
	}
	if _, errResp := authenticator.Authenticate(context.Background(), req); errResp != nil {
		t.Fatalf("expected success, got %q", errResp.Error.Message)
	}

	req.Password = "enc:zzzz"
	if _, errResp := authenticator.Authenticate(context.Background(), req); errResp == nil {
		t.Error("undecodable enc: password should fail")
	}
}

func TestAuthenticateUniformFailureMessage(t *testing.T) {
	authenticator, cipher := newTestAuthenticator(t)
	locked := newTestUser(t, cipher, "locked", "sesame")
	locked.IsLocked = true
	authenticator.users.(*fakeUserRepo).users["locked"] = locked

	tests := []struct {
		name string
		req  *Request
	}{
		{"missing username", &Request{RequiresAuth: true}},
		{"unknown user", &Request{RequiresAuth: true, Username: "nobody", Password: "x"}},
		{"locked user", &Request{RequiresAuth: true, Username: "locked", Password: "sesame"}},
		{"wrong password", &Request{RequiresAuth: true, Username: "locked", Password: "nope"}},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, errResp := authenticator.Authenticate(context.Background(), tt.req)
			if errResp == nil {
				t.Fatal("expected auth failure")
			}
			if errResp.Error.Code != CodeAuthentication {
				t.Errorf("code = %d, want %d", errResp.Error.Code, CodeAuthentication)
			}
			if errResp.Error.Message != authFailedMessage {
				t.Errorf("message = %q, want the uniform %q", errResp.Error.Message, authFailedMessage)
			}
			if errResp.Status != "failed" {
				t.Errorf("status = %q, want failed", errResp.Status)
			}
		})
	}
}
