package handlers_test

import (
	"net/http"
	"testing"

	"github.com/mlhuang/critterchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func doRequest(t *testing.T, req *http.Request) *http.Response {
	t.Helper()
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	t.Cleanup(func() { resp.Body.Close() })
	return resp
}

func TestLoginFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	symbols := []string{"🐶", "🐱", "🦊"}
	session := testutil.IssueSession(t, ts)

	// First login ever creates the account and makes it admin.
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     symbols,
		"pin":         "1234",
		"displayName": "Rex",
	}, session.AccessToken)
	resp := doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var login testutil.LoginResponse
	testutil.AssertJSONResponse(t, resp, &login)
	assert.True(t, login.IsNewAccount)
	assert.Equal(t, "admin", login.Identity.Role)
	assert.Equal(t, symbols, login.Identity.Symbols)

	// The bound identity is visible on /me.
	req = testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	// The login also provisioned the default channel, visible in the list.
	req = testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/channels"), nil, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var channels struct {
		Channels []struct {
			ID string `json:"id"`
		} `json:"channels"`
	}
	testutil.AssertJSONResponse(t, resp, &channels)
	require.Len(t, channels.Channels, 1)
	assert.Equal(t, "general", channels.Channels[0].ID)
}

func TestLoginRejectsWrongPIN(t *testing.T) {
	ts := testutil.NewTestServer(t)

	symbols := []string{"🐼", "🐼", "🐙"}
	first := testutil.IssueSession(t, ts)
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     symbols,
		"pin":         "1234",
		"displayName": "Bamboo",
	}, first.AccessToken)
	resp := doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	// Same key, wrong PIN: the caller learns nothing except the failure.
	second := testutil.IssueSession(t, ts)
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols": symbols,
		"pin":     "9999",
	}, second.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertErrorResponse(t, resp, http.StatusUnauthorized, "Wrong PIN")
}

func TestLoginSupersedesPreviousSession(t *testing.T) {
	ts := testutil.NewTestServer(t)

	symbols := []string{"🐰", "🐸", "🦄"}
	first := testutil.IssueSession(t, ts)
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     symbols,
		"pin":         "1234",
		"displayName": "Hopper",
	}, first.AccessToken)
	resp := doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var login testutil.LoginResponse
	testutil.AssertJSONResponse(t, resp, &login)

	// A second browser logs in with the right PIN and takes over.
	second := testutil.IssueSession(t, ts)
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols": symbols,
		"pin":     "1234",
	}, second.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	// The first session is no longer bound to anything.
	req = testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, first.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)

	// Resume with the cached key fails for the superseded session too.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/resume"), map[string]string{
		"key": login.Identity.Key,
	}, first.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusUnauthorized)

	// But works for the session that owns the record now.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/resume"), map[string]string{
		"key": login.Identity.Key,
	}, second.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
}

func TestKickFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// Admin first, then a regular member.
	adminSession := testutil.IssueSession(t, ts)
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     []string{"🐶", "🐱", "🦊"},
		"pin":         "1234",
		"displayName": "Admin",
	}, adminSession.AccessToken)
	resp := doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	userSession := testutil.IssueSession(t, ts)
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     []string{"🐻", "🐯", "🐧"},
		"pin":         "5678",
		"displayName": "Target",
	}, userSession.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var target testutil.LoginResponse
	testutil.AssertJSONResponse(t, resp, &target)

	// The member cannot kick anyone.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/admin/kick"), map[string]interface{}{
		"key":     target.Identity.Key,
		"minutes": 5,
	}, userSession.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	// The admin kicks the member.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/admin/kick"), map[string]interface{}{
		"key":     target.Identity.Key,
		"minutes": 5,
	}, adminSession.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	// Kicked members are locked out of every identity route.
	req = testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, userSession.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusForbidden)

	var kicked struct {
		Error    string `json:"error"`
		UnlockAt string `json:"unlockAt"`
	}
	testutil.AssertJSONResponse(t, resp, &kicked)
	assert.Equal(t, "kicked", kicked.Error)
	assert.NotEmpty(t, kicked.UnlockAt)

	// Unban restores access immediately.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/admin/unban"), map[string]string{
		"key": target.Identity.Key,
	}, adminSession.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	req = testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/me"), nil, userSession.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)
}

func TestChannelAndMessageAPI(t *testing.T) {
	ts := testutil.NewTestServer(t)

	session := testutil.IssueSession(t, ts)
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     []string{"🐵", "🐔", "🐦"},
		"pin":         "1234",
		"displayName": "Admin",
	}, session.AccessToken)
	resp := doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	// Create a channel.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/channels"), map[string]string{
		"id":    "random",
		"name":  "Random",
		"emoji": "🎲",
	}, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	// Duplicates conflict.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/channels"), map[string]string{
		"id":   "random",
		"name": "Random Again",
	}, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusConflict)

	// Send and list messages.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/channels/random/messages"), map[string]string{
		"body": "first post",
	}, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	req = testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/channels/random/messages"), nil, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var messages struct {
		Messages []struct {
			Body       string `json:"body"`
			SenderName string `json:"senderName"`
		} `json:"messages"`
	}
	testutil.AssertJSONResponse(t, resp, &messages)
	require.Len(t, messages.Messages, 1)
	assert.Equal(t, "first post", messages.Messages[0].Body)
	assert.Equal(t, "Admin", messages.Messages[0].SenderName)

	// Unknown channel 404s.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/channels/nowhere/messages"), map[string]string{
		"body": "lost",
	}, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusNotFound)

	// Blank body 400s.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/channels/random/messages"), map[string]string{
		"body": "   ",
	}, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusBadRequest)
}

func TestConfigEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	// Public, readable before bootstrap.
	resp, err := http.Get(ts.APIURL("/config"))
	require.NoError(t, err)
	defer resp.Body.Close()
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var before struct {
		AppName     string `json:"appName"`
		Initialized bool   `json:"initialized"`
	}
	testutil.AssertJSONResponse(t, resp, &before)
	assert.False(t, before.Initialized)
	assert.NotEmpty(t, before.AppName)

	// Bootstrap and rename.
	session := testutil.IssueSession(t, ts)
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     []string{"🦁", "🐮", "🐷"},
		"pin":         "1234",
		"displayName": "Admin",
	}, session.AccessToken)
	loginResp := doRequest(t, req)
	testutil.AssertStatusCode(t, loginResp, http.StatusOK)

	req = testutil.CreateAuthenticatedRequest(t, "PATCH", ts.APIURL("/config"), map[string]string{
		"appName": "Critter Cave",
	}, session.AccessToken)
	renameResp := doRequest(t, req)
	testutil.AssertStatusCode(t, renameResp, http.StatusOK)

	resp2, err := http.Get(ts.APIURL("/config"))
	require.NoError(t, err)
	defer resp2.Body.Close()

	var after struct {
		AppName     string `json:"appName"`
		Initialized bool   `json:"initialized"`
	}
	testutil.AssertJSONResponse(t, resp2, &after)
	assert.True(t, after.Initialized)
	assert.Equal(t, "Critter Cave", after.AppName)
}

func TestRosterEndpoint(t *testing.T) {
	ts := testutil.NewTestServer(t)

	session := testutil.IssueSession(t, ts)
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     []string{"🐸", "🐸", "🐸"},
		"pin":         "1234",
		"displayName": "Froggo",
	}, session.AccessToken)
	resp := doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var login testutil.LoginResponse
	testutil.AssertJSONResponse(t, resp, &login)

	req = testutil.CreateAuthenticatedRequest(t, "GET", ts.APIURL("/roster"), nil, session.AccessToken)
	resp = doRequest(t, req)
	testutil.AssertStatusCode(t, resp, http.StatusOK)

	var roster struct {
		Members []struct {
			Key    string `json:"key"`
			Online bool   `json:"online"`
		} `json:"members"`
	}
	testutil.AssertJSONResponse(t, resp, &roster)
	require.Len(t, roster.Members, 1)
	assert.Equal(t, login.Identity.Key, roster.Members[0].Key)
	// Login refreshed LastSeenAt, so the member shows online.
	assert.True(t, roster.Members[0].Online)
}
