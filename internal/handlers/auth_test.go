package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestRegister(t *testing.T) {
	api := newTestAPI(t)

	rec := api.do(t, http.MethodPost, "/auth/register", "", CredentialsRequest{Email: "ana@example.com", Password: "secret1"})
	require.Equal(t, http.StatusCreated, rec.Code)

	var resp AuthResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)
	assert.Equal(t, "ana@example.com", resp.Profile.Email)
	assert.NotZero(t, resp.Profile.ID)
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestRegister_Errors(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "taken@example.com")

	tests := []struct {
		name   string
		body   any
		status int
	}{
		{name: "duplicate", body: CredentialsRequest{Email: "taken@example.com", Password: "secret1"}, status: http.StatusConflict},
		{name: "bad email", body: CredentialsRequest{Email: "not-an-email", Password: "secret1"}, status: http.StatusBadRequest},
		{name: "short password", body: CredentialsRequest{Email: "new@example.com", Password: "12345"}, status: http.StatusBadRequest},
		{name: "not json", body: "garbage", status: http.StatusBadRequest},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := api.do(t, http.MethodPost, "/auth/register", "", tt.body)
			assert.Equal(t, tt.status, rec.Code, rec.Body.String())
		})
	}
}

func TestLogin(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "bob@example.com")

	rec := api.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: "bob@example.com", Password: "secret1"})
	require.Equal(t, http.StatusOK, rec.Code)
	var resp AuthResponse
	decodeBody(t, rec, &resp)
	assert.NotEmpty(t, resp.Token)

	rec = api.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: "bob@example.com", Password: "wrong-pass"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: "nobody@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: " "})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestMe(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "me@example.com")

	rec := api.do(t, http.MethodGet, "/auth/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "me@example.com")
}

func TestRequireAuth_RejectsBadTokens(t *testing.T) {
	api := newTestAPI(t)
	api.register(t, "guard@example.com")

	foreign, err := issueToken(1, []byte("other-secret"), time.Hour)
	require.NoError(t, err)
	expired, err := issueToken(1, []byte(testSecret), -time.Minute)
	require.NoError(t, err)

	for name, token := range map[string]string{
		"missing":      "",
		"garbage":      "not.a.token",
		"wrong secret": foreign,
		"expired":      expired,
	} {
		t.Run(name, func(t *testing.T) {
			rec := api.do(t, http.MethodGet, "/auth/me", token, nil)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
		})
	}
}

func TestMe_DeletedUserIsUnauthorized(t *testing.T) {
	api := newTestAPI(t)

	token, err := issueToken(999, []byte(testSecret), time.Hour)
	require.NoError(t, err)

	rec := api.do(t, http.MethodGet, "/auth/me", token, nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestChangePassword(t *testing.T) {
	api := newTestAPI(t)
	token := api.register(t, "pw@example.com")

	rec := api.do(t, http.MethodPut, "/auth/password", token, ChangePasswordRequest{OldPassword: "wrong1", NewPassword: "newpass1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = api.do(t, http.MethodPut, "/auth/password", token, ChangePasswordRequest{OldPassword: "secret1", NewPassword: "123"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = api.do(t, http.MethodPut, "/auth/password", token, ChangePasswordRequest{OldPassword: "secret1", NewPassword: "newpass1"})
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = api.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: "pw@example.com", Password: "secret1"})
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	rec = api.do(t, http.MethodPost, "/auth/login", "", CredentialsRequest{Email: "pw@example.com", Password: "newpass1"})
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestParseTokenSubject_RejectsOtherAlgorithms(t *testing.T) {
	_, err := parseTokenSubject("eyJhbGciOiJub25lIn0.eyJzdWIiOiIxIn0.", []byte(testSecret))
	assert.Error(t, err)
}

func TestBearerToken(t *testing.T) {
	tests := []struct {
		header string
		ok     bool
	}{
		{header: "Bearer abc", ok: true},
		{header: "bearer abc", ok: true},
		{header: "Basic abc", ok: false},
		{header: "Bearer ", ok: false},
		{header: "", ok: false},
	}

	for _, tt := range tests {
		req, _ := http.NewRequest(http.MethodGet, "/", nil)
		req.Header.Set("Authorization", tt.header)
		token, err := bearerToken(req)
		if tt.ok {
			assert.NoError(t, err, tt.header)
			assert.Equal(t, "abc", token)
		} else {
			assert.Error(t, err, tt.header)
		}
	}
}
