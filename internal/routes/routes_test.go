package routes

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/require"

	"github.com/xyz-asif/todoshare/internal/config"
	"github.com/xyz-asif/todoshare/internal/store/memory"
)

type apiClient struct {
	t *testing.T
	r *gin.Engine
}

type apiResult struct {
	Code    int             `json:"-"`
	Header  http.Header     `json:"-"`
	Success bool            `json:"success"`
	ErrCode string          `json:"code"`
	Data    json.RawMessage `json:"data"`
}

func (a apiClient) call(method, path, bearer, body string) apiResult {
	a.t.Helper()
	var req *http.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if bearer != "" {
		req.Header.Set("Authorization", "Bearer "+bearer)
	}

	w := httptest.NewRecorder()
	a.r.ServeHTTP(w, req)

	res := apiResult{Code: w.Code, Header: w.Header()}
	if w.Body.Len() > 0 {
		require.NoError(a.t, json.Unmarshal(w.Body.Bytes(), &res))
	}
	return res
}

func (a apiClient) register(email string) (token, id string) {
	a.t.Helper()
	res := a.call("POST", "/api/v1/auth/register", "", `{"email":"`+email+`","password":"correct-horse"}`)
	require.Equal(a.t, http.StatusCreated, res.Code)

	var body struct {
		User struct {
			ID string `json:"id"`
		} `json:"user"`
		AccessToken string `json:"accessToken"`
	}
	require.NoError(a.t, json.Unmarshal(res.Data, &body))
	return body.AccessToken, body.User.ID
}

func newTestAPI(t *testing.T) apiClient {
	gin.SetMode(gin.TestMode)
	cfg := &config.Config{
		JWTSecret:      "test-secret",
		JWTExpireHours: 1,
		AuthRateLimit:  100,
		AuthRateWindow: time.Minute,
		JoinRateLimit:  3,
	}

	ctx, cancel := context.WithCancel(context.Background())
	t.Cleanup(cancel)

	r := gin.New()
	SetupRoutes(ctx, r, MemoryStores(memory.New()), cfg)
	return apiClient{t: t, r: r}
}

func TestSharingFlowOverHTTP(t *testing.T) {
	api := newTestAPI(t)
	alice, _ := api.register("alice@example.com")
	bob, bobID := api.register("bob@example.com")
	carol, _ := api.register("carol@example.com")

	res := api.call("POST", "/api/v1/groups", alice, `{"name":"Team"}`)
	require.Equal(t, http.StatusCreated, res.Code)
	var group struct {
		ID       string `json:"id"`
		JoinCode string `json:"joinCode"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &group))
	require.Equal(t, "/api/v1/groups/"+group.ID, res.Header.Get("Location"))

	res = api.call("POST", "/api/v1/groups/join", bob, `{"joinCode":"`+group.JoinCode+`"}`)
	require.Equal(t, http.StatusOK, res.Code)

	res = api.call("POST", "/api/v1/todos", alice, `{"title":"T1","description":"first"}`)
	require.Equal(t, http.StatusCreated, res.Code)
	var todo struct {
		ID string `json:"id"`
	}
	require.NoError(t, json.Unmarshal(res.Data, &todo))

	res = api.call("POST", "/api/v1/groups/"+group.ID+"/shared-todos", alice, `{"todoId":"`+todo.ID+`"}`)
	require.Equal(t, http.StatusOK, res.Code)

	res = api.call("GET", "/api/v1/groups/"+group.ID+"/shared-todos", bob, "")
	require.Equal(t, http.StatusOK, res.Code)
	require.Contains(t, string(res.Data), `"T1"`)

	res = api.call("GET", "/api/v1/groups/"+group.ID+"/shared-todos?ownerId="+bobID, bob, "")
	require.Equal(t, http.StatusOK, res.Code)
	require.JSONEq(t, `[]`, string(res.Data))

	res = api.call("GET", "/api/v1/groups/"+group.ID+"/shared-todos", carol, "")
	require.Equal(t, http.StatusForbidden, res.Code)
	require.Equal(t, "NOT_GROUP_MEMBER", res.ErrCode)

	// Bob can see the todo through the group but not on his own todo routes.
	res = api.call("GET", "/api/v1/todos/"+todo.ID, bob, "")
	require.Equal(t, http.StatusNotFound, res.Code)

	res = api.call("DELETE", "/api/v1/groups/"+group.ID+"/shared-todos/"+todo.ID, bob, "")
	require.Equal(t, http.StatusForbidden, res.Code)

	res = api.call("DELETE", "/api/v1/groups/"+group.ID+"/shared-todos/"+todo.ID, alice, "")
	require.Equal(t, http.StatusNoContent, res.Code)

	res = api.call("GET", "/api/v1/groups/"+group.ID+"/members", bob, "")
	require.Equal(t, http.StatusForbidden, res.Code)

	res = api.call("DELETE", "/api/v1/groups/"+group.ID+"/members/"+bobID, alice, "")
	require.Equal(t, http.StatusNoContent, res.Code)

	res = api.call("DELETE", "/api/v1/groups/"+group.ID, alice, "")
	require.Equal(t, http.StatusNoContent, res.Code)

	res = api.call("GET", "/api/v1/groups/"+group.ID, alice, "")
	require.Equal(t, http.StatusNotFound, res.Code)

	res = api.call("GET", "/api/v1/groups/zzz", alice, "")
	require.Equal(t, http.StatusBadRequest, res.Code)
	require.Equal(t, "INVALID_ID", res.ErrCode)
}

func TestJoinIsRateLimitedPerUser(t *testing.T) {
	api := newTestAPI(t)
	dave, _ := api.register("dave@example.com")
	erin, _ := api.register("erin@example.com")

	for i := 0; i < 3; i++ {
		res := api.call("POST", "/api/v1/groups/join", dave, `{"joinCode":"0000000000"}`)
		require.Equal(t, http.StatusNotFound, res.Code)
	}
	res := api.call("POST", "/api/v1/groups/join", dave, `{"joinCode":"0000000000"}`)
	require.Equal(t, http.StatusTooManyRequests, res.Code)

	res = api.call("POST", "/api/v1/groups/join", erin, `{"joinCode":"0000000000"}`)
	require.Equal(t, http.StatusNotFound, res.Code)
}
