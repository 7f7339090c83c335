package uazapi

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type capturedRequest struct {
	Method string
	Path   string
	Query  string
	Token  string
	Body   []byte
}

func newTestServer(t *testing.T, status int, response string) (*httptest.Server, *[]capturedRequest) {
	t.Helper()
	var captured []capturedRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		body, _ := io.ReadAll(r.Body)
		captured = append(captured, capturedRequest{
			Method: r.Method,
			Path:   r.URL.Path,
			Query:  r.URL.RawQuery,
			Token:  r.Header.Get("token"),
			Body:   body,
		})
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(status)
		_, _ = w.Write([]byte(response))
	}))
	t.Cleanup(srv.Close)
	return srv, &captured
}

func TestClient_SendBulk(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, `{"folder_id":"fold-1","count":2,"status":"queued"}`)
	client := NewClient(Config{BaseURL: srv.URL, Timeout: time.Second}, "tok-123")

	resp, err := client.SendBulk(context.Background(), domainGateway.BulkRequest{
		DelayMin: 10,
		DelayMax: 30,
		Info:     "Promo",
		Messages: []domainGateway.BulkMessage{
			{Number: "5511999999999", Type: domainGateway.KindText, Text: "hi"},
			{Number: "5511888888888", Type: domainGateway.KindImage, Text: "hi", File: "https://cdn/x.png"},
		},
	})
	require.NoError(t, err)
	assert.Equal(t, "fold-1", resp.FolderID)
	assert.Equal(t, 2, resp.Count.Int())

	require.Len(t, *captured, 1)
	req := (*captured)[0]
	assert.Equal(t, http.MethodPost, req.Method)
	assert.Equal(t, "/sender/advanced", req.Path)
	assert.Equal(t, "tok-123", req.Token)

	var body map[string]any
	require.NoError(t, json.Unmarshal(req.Body, &body))
	assert.EqualValues(t, 10, body["delayMin"])
	assert.EqualValues(t, 30, body["delayMax"])
	assert.Equal(t, "Promo", body["info"])
	assert.NotContains(t, body, "scheduled_for")
	msgs := body["messages"].([]any)
	require.Len(t, msgs, 2)
	first := msgs[0].(map[string]any)
	assert.Equal(t, "text", first["type"])
	assert.NotContains(t, first, "file")
}

func TestClient_SendBulk_GatewayRejects(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusUnauthorized, `{"error":"invalid token"}`)
	client := NewClient(Config{BaseURL: srv.URL}, "bad")

	_, err := client.SendBulk(context.Background(), domainGateway.BulkRequest{})
	require.Error(t, err)

	var gwErr *pkgError.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, http.StatusUnauthorized, gwErr.Status)
	assert.Contains(t, gwErr.Body, "invalid token")
	assert.Equal(t, "send_bulk", gwErr.Operation)
}

func TestClient_ListCampaigns_ArrayAndWrapped(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK,
		`[{"id":"f1","status":"sending","log_total":10,"log_sucess":3,"log_failed":1,"created":1700000000000}]`)
	client := NewClient(Config{BaseURL: srv.URL}, "tok")

	records, err := client.ListCampaigns(context.Background(), "Active")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "f1", records[0].ID)
	assert.Equal(t, 3, records[0].Success.Int())
	assert.Equal(t, "/sender/listfolders", (*captured)[0].Path)
	assert.Equal(t, "status=Active", (*captured)[0].Query)

	wrapped, _ := newTestServer(t, http.StatusOK, `{"folders":[{"id":"f2","status":"done"}]}`)
	client = NewClient(Config{BaseURL: wrapped.URL}, "tok")
	records, err = client.ListCampaigns(context.Background(), "")
	require.NoError(t, err)
	require.Len(t, records, 1)
	assert.Equal(t, "f2", records[0].ID)
}

func TestClient_EditActions(t *testing.T) {
	srv, captured := newTestServer(t, http.StatusOK, `{}`)
	client := NewClient(Config{BaseURL: srv.URL}, "tok")
	ctx := context.Background()

	require.NoError(t, client.PauseCampaign(ctx, "f1"))
	require.NoError(t, client.ResumeCampaign(ctx, "f1"))
	require.NoError(t, client.DeleteCampaign(ctx, "f1"))

	require.Len(t, *captured, 3)
	actions := []string{"stop", "continue", "delete"}
	for i, req := range *captured {
		assert.Equal(t, "/sender/edit", req.Path)
		var body map[string]string
		require.NoError(t, json.Unmarshal(req.Body, &body))
		assert.Equal(t, "f1", body["folder_id"])
		assert.Equal(t, actions[i], body["action"])
	}
}

func TestClient_ListMessages(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK,
		`{"messages":[{"id":"m1","chatid":"5511999999999@s.whatsapp.net","status":"Failed"}],"pagination":{"total":1,"page":1,"pageSize":50,"lastPage":1}}`)
	client := NewClient(Config{BaseURL: srv.URL}, "tok")

	resp, err := client.ListMessages(context.Background(), domainGateway.ListMessagesRequest{FolderID: "f1", MessageStatus: "Failed", Page: 1, PageSize: 50})
	require.NoError(t, err)
	require.Len(t, resp.Messages, 1)
	assert.Equal(t, "5511999999999@s.whatsapp.net", resp.Messages[0].Recipient())
	assert.Equal(t, 1, resp.Pagination.LastPage.Int())
}

func TestClient_RateLimiterHonoursContext(t *testing.T) {
	srv, _ := newTestServer(t, http.StatusOK, `[]`)
	client := NewClient(Config{BaseURL: srv.URL, RatePerSec: 0.001, Burst: 1}, "tok")

	_, err := client.ListCampaigns(context.Background(), "")
	require.NoError(t, err)

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()
	_, err = client.ListCampaigns(ctx, "")
	var gwErr *pkgError.GatewayError
	require.True(t, errors.As(err, &gwErr))
	assert.Equal(t, "list_folders", gwErr.Operation)
}

func TestNewFactory_ReusesClientPerToken(t *testing.T) {
	factory := NewFactory(Config{BaseURL: "http://unused"})
	a := factory("tok-a")
	assert.Same(t, a, factory("tok-a"))
	assert.NotSame(t, a, factory("tok-b"))
}
