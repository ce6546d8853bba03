package websocket_test

import (
	"net/http"
	"testing"
	"time"

	"github.com/mlhuang/critterchat/internal/domain"
	"github.com/mlhuang/critterchat/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const waitFor = 3 * time.Second

// loginCritter issues a session and binds it to the given key via the API,
// returning the access token and the derived key.
func loginCritter(t *testing.T, ts *testutil.TestServer, symbols []string, pin, name string) (string, string) {
	t.Helper()

	session := testutil.IssueSession(t, ts)
	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/auth/login"), map[string]interface{}{
		"symbols":     symbols,
		"pin":         pin,
		"displayName": name,
	}, session.AccessToken)

	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	var login testutil.LoginResponse
	testutil.AssertJSONResponse(t, resp, &login)
	return session.AccessToken, login.Identity.Key
}

func TestChatFlow(t *testing.T) {
	ts := testutil.NewTestServer(t)

	token, key := loginCritter(t, ts, []string{"🐶", "🐱", "🦊"}, "1234", "Rex")

	client := testutil.NewWSClient(t, ts.WebSocketURL(token, key))

	sync := client.ExpectStateSync(waitFor)
	assert.Equal(t, domain.StateActive, sync.Model.State)
	assert.Equal(t, key, sync.Model.Key)
	assert.Equal(t, "Rex", sync.Model.DisplayName)

	client.SendChatMessage("general", "hello room")

	msg := client.ExpectMessageNew(waitFor)
	require.NotNil(t, msg.Message)
	assert.Equal(t, "hello room", msg.Message.Body)
	assert.Equal(t, "Rex", msg.Message.SenderName)
	assert.Equal(t, "general", msg.Message.ChannelID)
}

func TestChatFlowBroadcastsToAllClients(t *testing.T) {
	ts := testutil.NewTestServer(t)

	adminToken, adminKey := loginCritter(t, ts, []string{"🐼", "🐼", "🐙"}, "1234", "Bamboo")
	userToken, userKey := loginCritter(t, ts, []string{"🐸", "🐰", "🦄"}, "5678", "Hopper")

	admin := testutil.NewWSClient(t, ts.WebSocketURL(adminToken, adminKey))
	user := testutil.NewWSClient(t, ts.WebSocketURL(userToken, userKey))
	admin.ExpectStateSync(waitFor)
	user.ExpectStateSync(waitFor)

	user.SendChatMessage("general", "anyone here?")

	for _, c := range []*testutil.WSClient{admin, user} {
		msg := c.ExpectMessageNew(waitFor)
		assert.Equal(t, "anyone here?", msg.Message.Body)
		assert.Equal(t, "Hopper", msg.Message.SenderName)
	}
}

func TestChatFlowChannelAnnouncement(t *testing.T) {
	ts := testutil.NewTestServer(t)

	adminToken, adminKey := loginCritter(t, ts, []string{"🦁", "🐮", "🐷"}, "1234", "Admin")

	client := testutil.NewWSClient(t, ts.WebSocketURL(adminToken, adminKey))
	client.ExpectStateSync(waitFor)

	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/channels"), map[string]string{
		"id":    "random",
		"name":  "Random",
		"emoji": "🎲",
	}, adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	announce := client.ExpectChannelNew(waitFor)
	require.NotNil(t, announce.Channel)
	assert.Equal(t, "random", announce.Channel.ID)
	assert.Equal(t, "Random", announce.Channel.Name)
}

func TestChatFlowSupersededSession(t *testing.T) {
	ts := testutil.NewTestServer(t)

	symbols := []string{"🐻", "🐯", "🐧"}
	token, key := loginCritter(t, ts, symbols, "1234", "Grumbles")

	client := testutil.NewWSClient(t, ts.WebSocketURL(token, key))
	client.ExpectStateSync(waitFor)

	// The same critter logs in from another browser.
	loginCritter(t, ts, symbols, "1234", "")

	// The old socket is told it lost the identity, then the server
	// closes the connection.
	for {
		sync := client.ExpectStateSync(waitFor)
		if sync.Model.State == domain.StateActive {
			continue
		}
		assert.Equal(t, domain.StateLoggedOut, sync.Model.State)
		assert.Equal(t, "superseded", sync.Reason)
		break
	}
}

func TestChatFlowKickedOverSocket(t *testing.T) {
	ts := testutil.NewTestServer(t)

	adminToken, _ := loginCritter(t, ts, []string{"🐶", "🐶", "🐶"}, "1234", "Admin")
	userToken, userKey := loginCritter(t, ts, []string{"🐭", "🐹", "🐨"}, "5678", "Target")

	client := testutil.NewWSClient(t, ts.WebSocketURL(userToken, userKey))
	sync := client.ExpectStateSync(waitFor)
	require.Equal(t, domain.StateActive, sync.Model.State)

	req := testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/admin/kick"), map[string]interface{}{
		"key":     userKey,
		"minutes": 10,
	}, adminToken)
	resp, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp.Body.Close()
	require.Equal(t, http.StatusOK, resp.StatusCode)

	kicked := client.ExpectStateSync(waitFor)
	assert.Equal(t, domain.StateKicked, kicked.Model.State)
	require.NotNil(t, kicked.Model.UnlockAt)
	assert.Empty(t, kicked.Model.Key, "kicked view must not leak profile data")

	// A kicked session cannot post.
	client.SendChatMessage("general", "let me back in")
	client.ExpectErrorWithCode("NOT_ACTIVE", waitFor)

	// Unban flips the socket back to active without reconnecting.
	req = testutil.CreateAuthenticatedRequest(t, "POST", ts.APIURL("/admin/unban"), map[string]string{
		"key": userKey,
	}, adminToken)
	resp2, err := http.DefaultClient.Do(req)
	require.NoError(t, err)
	defer resp2.Body.Close()
	require.Equal(t, http.StatusOK, resp2.StatusCode)

	restored := client.ExpectStateSync(waitFor)
	assert.Equal(t, domain.StateActive, restored.Model.State)
	assert.Equal(t, "Target", restored.Model.DisplayName)
}

func TestChatFlowRejectsBadSends(t *testing.T) {
	ts := testutil.NewTestServer(t)

	token, key := loginCritter(t, ts, []string{"🐔", "🐦", "🐵"}, "1234", "Cluck")

	client := testutil.NewWSClient(t, ts.WebSocketURL(token, key))
	client.ExpectStateSync(waitFor)

	client.SendChatMessage("nowhere", "lost")
	client.ExpectErrorWithCode("CHANNEL_NOT_FOUND", waitFor)

	client.SendChatMessage("general", "   ")
	client.ExpectErrorWithCode("EMPTY_MESSAGE", waitFor)
}

func TestChatFlowSyncState(t *testing.T) {
	ts := testutil.NewTestServer(t)

	token, key := loginCritter(t, ts, []string{"🦄", "🦄", "🐙"}, "1234", "Sparkle")

	client := testutil.NewWSClient(t, ts.WebSocketURL(token, key))
	client.ExpectStateSync(waitFor)

	// An explicit sync request re-sends the current model.
	client.SyncState()
	sync := client.ExpectStateSync(waitFor)
	assert.Equal(t, domain.StateActive, sync.Model.State)
	assert.Equal(t, key, sync.Model.Key)
}
