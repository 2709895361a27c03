package nopass_test

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"testing"

	"github.com/stretchr/testify/require"
)

type principal struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

func TestHealthEndpoints(t *testing.T) {
	svc := setupContainer(t, nil)
	client := newClient(t)

	for _, path := range []string{"/livez", "/readyz"} {
		resp, err := client.Get(svc.baseURL + path)
		require.NoError(t, err)
		resp.Body.Close()
		require.Equal(t, http.StatusOK, resp.StatusCode, path)
	}
}

// TestLoginFlow requests a code, redeems it from the emailed link and checks
// the resulting session.
func TestLoginFlow(t *testing.T) {
	svc := setupContainer(t, nil)
	svc.useradd(t, "alice")
	client := newClient(t)

	resp, err := client.PostForm(svc.baseURL+"/accounts/login/", url.Values{
		"username": {"alice"},
		"next":     {"/private/"},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/accounts/login/code/", resp.Header.Get("Location"))

	userID, code := svc.lastLoginLink(t)

	resp, err = client.PostForm(svc.baseURL+"/accounts/login/code/", url.Values{
		"user": {userID},
		"code": {code},
	})
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/private/", resp.Header.Get("Location"))

	resp, err = client.Get(svc.baseURL + "/v1/session")
	require.NoError(t, err)
	var p principal
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&p))
	resp.Body.Close()
	require.Equal(t, userID, p.UserID)
	require.Equal(t, "alice", p.Username)

	// The code is gone after one use.
	resp, err = newClient(t).PostForm(svc.baseURL+"/accounts/login/code/", url.Values{
		"user": {userID},
		"code": {code},
	})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "Unable to log in with provided login code.")

	resp, err = client.Post(svc.baseURL+"/accounts/logout/?next=/accounts/login/", "", nil)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)

	resp, err = client.Get(svc.baseURL + "/v1/session")
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusUnauthorized, resp.StatusCode)
}

func TestLoginOnGet(t *testing.T) {
	svc := setupContainer(t, map[string]string{"NOPASSWORD_LOGIN_ON_GET": "true"})
	svc.useradd(t, "bob")
	client := newClient(t)

	resp, err := client.PostForm(svc.baseURL+"/accounts/login/", url.Values{"username": {"bob"}})
	require.NoError(t, err)
	resp.Body.Close()

	userID, code := svc.lastLoginLink(t)
	resp, err = client.Get(svc.baseURL + "/accounts/login/code/?user=" + userID + "&code=" + code)
	require.NoError(t, err)
	resp.Body.Close()
	require.Equal(t, http.StatusFound, resp.StatusCode)
	require.Equal(t, "/", resp.Header.Get("Location"))
}

func TestInactiveAccount(t *testing.T) {
	svc := setupContainer(t, nil)
	svc.useradd(t, "carol", "-inactive")

	resp, err := newClient(t).PostForm(svc.baseURL+"/accounts/login/", url.Values{"username": {"carol"}})
	require.NoError(t, err)
	body, _ := io.ReadAll(resp.Body)
	resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)
	require.Contains(t, string(body), "This account is inactive.")
}

// TestRateLimitLoginRequests runs with the production limit of 5 code
// requests per minute per IP and username.
func TestRateLimitLoginRequests(t *testing.T) {
	svc := setupContainer(t, map[string]string{
		"NOPASS_RATELIMIT_STRICT_REQUESTS": "5",
		"NOPASS_RATELIMIT_STRICT_BURST":    "5",
	})
	client := newClient(t)

	var last int
	for range 6 {
		resp, err := client.PostForm(svc.baseURL+"/accounts/login/", url.Values{"username": {"nobody"}})
		require.NoError(t, err)
		resp.Body.Close()
		last = resp.StatusCode
	}
	require.Equal(t, http.StatusTooManyRequests, last)
	t.Logf("Successfully rate limited after 5 requests to /accounts/login/")
}
