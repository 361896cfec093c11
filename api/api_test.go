package api

import (
	"bytes"
	"encoding/json"
	"io"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"testing"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"chitchat/chat"
	"chitchat/models"
	"chitchat/presence"
	"chitchat/server"
	"chitchat/store"
)

type testAPI struct {
	router *gin.Engine
	store  *store.Store
}

func setupTestAPI(t *testing.T) *testAPI {
	t.Helper()
	gin.SetMode(gin.TestMode)

	tmpfile, err := os.CreateTemp("", "test-*.db")
	require.NoError(t, err)
	tmpfile.Close()
	os.Remove(tmpfile.Name())

	st, err := store.New(tmpfile.Name())
	require.NoError(t, err)

	t.Cleanup(func() {
		st.Close()
		os.Remove(tmpfile.Name())
	})

	svc := chat.NewService(st, st, st, presence.NewRegistry())
	ws := server.New(svc, &server.Config{})
	a := New(st, svc, ws, "test-secret", t.TempDir())

	return &testAPI{router: a.Router("*"), store: st}
}

func (ta *testAPI) request(t *testing.T, method, path, token string, body any) *httptest.ResponseRecorder {
	t.Helper()

	var reader io.Reader
	if body != nil {
		raw, err := json.Marshal(body)
		require.NoError(t, err)
		reader = bytes.NewReader(raw)
	}

	req := httptest.NewRequest(method, path, reader)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v any) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

// register signs a user up, logs them in and returns the id and token.
func (ta *testAPI) register(t *testing.T, name, mobile string) (string, string) {
	t.Helper()

	rec := ta.request(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": name, "mobile": mobile, "password": "secret",
	})
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = ta.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"mobile": mobile, "password": "secret",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var login struct {
		Token string `json:"token"`
	}
	decodeBody(t, rec, &login)
	require.NotEmpty(t, login.Token)

	user, err := ta.store.FindUserByMobile(mobile)
	require.NoError(t, err)
	return user.ID, login.Token
}

func TestSignup(t *testing.T) {
	ta := setupTestAPI(t)

	rec := ta.request(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "Alice", "mobile": "111", "password": "secret",
	})
	assert.Equal(t, http.StatusCreated, rec.Code)
	assert.Contains(t, rec.Body.String(), "User created successfully")

	// Same mobile again.
	rec = ta.request(t, http.MethodPost, "/api/auth/signup", "", gin.H{
		"name": "Alice Again", "mobile": "111", "password": "secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "User already exists")

	// Missing fields.
	rec = ta.request(t, http.MethodPost, "/api/auth/signup", "", gin.H{"name": "Bob"})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	ta := setupTestAPI(t)
	ta.register(t, "Alice", "111")

	rec := ta.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"mobile": "111", "password": "wrong",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "Invalid credentials")

	rec = ta.request(t, http.MethodPost, "/api/auth/login", "", gin.H{
		"mobile": "999", "password": "secret",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}

func TestAuthRequired(t *testing.T) {
	ta := setupTestAPI(t)

	rec := ta.request(t, http.MethodGet, "/api/users", "", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = ta.request(t, http.MethodGet, "/api/users", "not-a-token", nil)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	req := httptest.NewRequest(http.MethodGet, "/api/users", nil)
	req.Header.Set("Authorization", "Basic abc")
	w := httptest.NewRecorder()
	ta.router.ServeHTTP(w, req)
	assert.Equal(t, http.StatusUnauthorized, w.Code)
}

func TestMe(t *testing.T) {
	ta := setupTestAPI(t)
	aliceID, token := ta.register(t, "Alice", "111")

	rec := ta.request(t, http.MethodGet, "/api/users/me", token, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var me models.User
	decodeBody(t, rec, &me)
	assert.Equal(t, aliceID, me.ID)
	assert.Equal(t, "Alice", me.Name)
	assert.Equal(t, "111", me.Mobile)
	assert.NotEmpty(t, me.ProfilePic)

	// The password hash never leaves the server.
	assert.NotContains(t, rec.Body.String(), "password")
}

func TestUpdateUserSelfOnly(t *testing.T) {
	ta := setupTestAPI(t)
	aliceID, aliceToken := ta.register(t, "Alice", "111")
	bobID, _ := ta.register(t, "Bob", "222")

	rec := ta.request(t, http.MethodPut, "/api/users/"+aliceID, aliceToken, gin.H{
		"name": "Alice B", "profilePic": "http://example.com/pic.png",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var updated models.User
	decodeBody(t, rec, &updated)
	assert.Equal(t, "Alice B", updated.Name)
	assert.Equal(t, "http://example.com/pic.png", updated.ProfilePic)

	rec = ta.request(t, http.MethodPut, "/api/users/"+bobID, aliceToken, gin.H{"name": "Hacked"})
	assert.Equal(t, http.StatusForbidden, rec.Code)
}

func TestDirectoryExcludesSelfAndRequester(t *testing.T) {
	ta := setupTestAPI(t)
	_, aliceToken := ta.register(t, "Alice", "111")
	bobID, bobToken := ta.register(t, "Bob", "222")

	rec := ta.request(t, http.MethodGet, "/api/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var users []models.User
	decodeBody(t, rec, &users)
	require.Len(t, users, 1)
	assert.Equal(t, bobID, users[0].ID)

	// An open request hides Alice from Bob's directory.
	rec = ta.request(t, http.MethodPost, "/api/friends/send-request/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.request(t, http.MethodGet, "/api/users", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &users)
	assert.Empty(t, users)

	// Alice still sees Bob.
	rec = ta.request(t, http.MethodGet, "/api/users", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &users)
	assert.Len(t, users, 1)
}

func TestFriendRequestFlow(t *testing.T) {
	ta := setupTestAPI(t)
	aliceID, aliceToken := ta.register(t, "Alice", "111")
	bobID, bobToken := ta.register(t, "Bob", "222")

	rec := ta.request(t, http.MethodPost, "/api/friends/send-request/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "Friend request sent successfully.")

	rec = ta.request(t, http.MethodPost, "/api/friends/send-request/"+bobID, aliceToken, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	assert.Contains(t, rec.Body.String(), "already sent")

	rec = ta.request(t, http.MethodGet, "/api/friends/requests", bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var pending []models.FriendInfo
	decodeBody(t, rec, &pending)
	require.Len(t, pending, 1)
	assert.Equal(t, aliceID, pending[0].FriendID)
	assert.Equal(t, models.StatusPending, pending[0].Status)

	rec = ta.request(t, http.MethodPut, "/api/friends/update-request/"+aliceID, bobToken, gin.H{
		"status": models.StatusAccepted,
	})
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "accepted successfully")

	for _, token := range []string{aliceToken, bobToken} {
		rec = ta.request(t, http.MethodGet, "/api/friends/accepted-requests", token, nil)
		require.Equal(t, http.StatusOK, rec.Code)

		var accepted []models.FriendInfo
		decodeBody(t, rec, &accepted)
		assert.Len(t, accepted, 1)
	}
}

func TestUpdateRequestValidation(t *testing.T) {
	ta := setupTestAPI(t)
	aliceID, aliceToken := ta.register(t, "Alice", "111")
	bobID, bobToken := ta.register(t, "Bob", "222")

	rec := ta.request(t, http.MethodPost, "/api/friends/send-request/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.request(t, http.MethodPut, "/api/friends/update-request/"+aliceID, bobToken, gin.H{
		"status": "maybe",
	})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// The initiator cannot resolve their own request.
	rec = ta.request(t, http.MethodPut, "/api/friends/update-request/"+bobID, aliceToken, gin.H{
		"status": models.StatusAccepted,
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestSendAndHistory(t *testing.T) {
	ta := setupTestAPI(t)
	aliceID, aliceToken := ta.register(t, "Alice", "111")
	bobID, bobToken := ta.register(t, "Bob", "222")

	rec := ta.request(t, http.MethodPost, "/api/chat/send", aliceToken, gin.H{
		"receiverId": bobID, "text": "hi",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sent models.Message
	decodeBody(t, rec, &sent)
	assert.NotEmpty(t, sent.ID)
	assert.Equal(t, aliceID, sent.SenderID)

	rec = ta.request(t, http.MethodGet, "/api/chat/messages/"+aliceID, bobToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var history []models.Message
	decodeBody(t, rec, &history)
	require.Len(t, history, 1)
	assert.Equal(t, sent.ID, history[0].ID)

	// Content-free payload.
	rec = ta.request(t, http.MethodPost, "/api/chat/send", aliceToken, gin.H{"receiverId": bobID})
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	// Unknown receiver.
	rec = ta.request(t, http.MethodPost, "/api/chat/send", aliceToken, gin.H{
		"receiverId": "missing", "text": "hi",
	})
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestDeleteMessageIdempotent(t *testing.T) {
	ta := setupTestAPI(t)
	_, aliceToken := ta.register(t, "Alice", "111")
	bobID, _ := ta.register(t, "Bob", "222")

	rec := ta.request(t, http.MethodPost, "/api/chat/send", aliceToken, gin.H{
		"receiverId": bobID, "text": "hi",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	var sent models.Message
	decodeBody(t, rec, &sent)

	rec = ta.request(t, http.MethodDelete, "/api/chat/delete/"+sent.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)

	rec = ta.request(t, http.MethodDelete, "/api/chat/delete/"+sent.ID, aliceToken, nil)
	assert.Equal(t, http.StatusOK, rec.Code)
}

func TestLastMessages(t *testing.T) {
	ta := setupTestAPI(t)
	aliceID, aliceToken := ta.register(t, "Alice", "111")
	bobID, bobToken := ta.register(t, "Bob", "222")

	rec := ta.request(t, http.MethodPost, "/api/friends/send-request/"+bobID, aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	rec = ta.request(t, http.MethodPut, "/api/friends/update-request/"+aliceID, bobToken, gin.H{
		"status": models.StatusAccepted,
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.request(t, http.MethodGet, "/api/friends/last-messages", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)

	var summaries []models.LastMessage
	decodeBody(t, rec, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, models.NoMessagesYet, summaries[0].LastMessage)
	assert.Nil(t, summaries[0].Timestamp)

	rec = ta.request(t, http.MethodPost, "/api/chat/send", bobToken, gin.H{
		"receiverId": aliceID, "text": "latest",
	})
	require.Equal(t, http.StatusOK, rec.Code)

	rec = ta.request(t, http.MethodGet, "/api/friends/last-messages", aliceToken, nil)
	require.Equal(t, http.StatusOK, rec.Code)
	decodeBody(t, rec, &summaries)
	require.Len(t, summaries, 1)
	assert.Equal(t, "latest", summaries[0].LastMessage)
	assert.NotNil(t, summaries[0].Timestamp)
}

func TestUpload(t *testing.T) {
	ta := setupTestAPI(t)
	_, token := ta.register(t, "Alice", "111")

	var buf bytes.Buffer
	writer := multipart.NewWriter(&buf)
	part, err := writer.CreateFormFile("file", "photo.png")
	require.NoError(t, err)
	_, err = part.Write([]byte("fake image bytes"))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	req := httptest.NewRequest(http.MethodPost, "/api/upload", &buf)
	req.Header.Set("Content-Type", writer.FormDataContentType())
	req.Header.Set("Authorization", "Bearer "+token)

	rec := httptest.NewRecorder()
	ta.router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var resp struct {
		FileURL string `json:"fileURL"`
	}
	decodeBody(t, rec, &resp)
	require.True(t, strings.HasPrefix(resp.FileURL, "/files/"), "got %q", resp.FileURL)
	assert.True(t, strings.HasSuffix(resp.FileURL, ".png"))

	// The stored file is served back under /files.
	rec = ta.request(t, http.MethodGet, resp.FileURL, "", nil)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "fake image bytes", rec.Body.String())
}

func TestUploadRequiresFile(t *testing.T) {
	ta := setupTestAPI(t)
	_, token := ta.register(t, "Alice", "111")

	rec := ta.request(t, http.MethodPost, "/api/upload", token, nil)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
