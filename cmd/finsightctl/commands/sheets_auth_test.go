package commands

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/oauth2"
)

func TestCallbackHandler(t *testing.T) {
	codes := make(chan string, 1)
	errs := make(chan error, 1)
	h := callbackHandler("s1", codes, errs)

	rec := httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=other&code=abc", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Empty(t, codes)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1", nil))
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = httptest.NewRecorder()
	h.ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/callback?state=s1&code=abc", nil))
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "abc", <-codes)
}

func TestCallbackHandler_Denied(t *testing.T) {
	codes := make(chan string, 1)
	errs := make(chan error, 1)
	rec := httptest.NewRecorder()
	callbackHandler("s1", codes, errs).ServeHTTP(rec,
		httptest.NewRequest(http.MethodGet, "/callback?state=s1&error=access_denied", nil))

	assert.Equal(t, http.StatusBadRequest, rec.Code)
	require.Len(t, errs, 1)
	assert.ErrorContains(t, <-errs, "access_denied")
}

func TestWriteAuthorizedUser(t *testing.T) {
	path := filepath.Join(t.TempDir(), "credentials.json")
	conf := &oauth2.Config{ClientID: "id", ClientSecret: "secret"}

	err := writeAuthorizedUser(path, conf, &oauth2.Token{AccessToken: "a"})
	require.Error(t, err)

	require.NoError(t, writeAuthorizedUser(path, conf, &oauth2.Token{AccessToken: "a", RefreshToken: "r"}))
	data, err := os.ReadFile(path)
	require.NoError(t, err)

	var got authorizedUser
	require.NoError(t, json.Unmarshal(data, &got))
	assert.Equal(t, authorizedUser{Type: "authorized_user", ClientID: "id", ClientSecret: "secret", RefreshToken: "r"}, got)

	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o600), info.Mode().Perm())
}

func TestSheetsAuthCommand_RequiresClientFile(t *testing.T) {
	t.Setenv("GOOGLE_OAUTH_CLIENT_FILE", "")
	_, err := run(t, "", "sheets-auth")
	assert.ErrorContains(t, err, "client-file")
}
