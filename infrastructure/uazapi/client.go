package uazapi

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"sync"
	"time"

	coreconfig "github.com/AzielCF/az-engage/core/config"
	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/go-resty/resty/v2"
	"github.com/sirupsen/logrus"
	"golang.org/x/time/rate"
)

const (
	pathSendAdvanced = "/sender/advanced"
	pathListFolders  = "/sender/listfolders"
	pathEditFolder   = "/sender/edit"
	pathListMessages = "/sender/listmessages"

	maxErrorBody = 512
)

type Config struct {
	BaseURL    string
	Timeout    time.Duration
	RatePerSec float64
	Burst      int
}

func FromAppConfig(cfg coreconfig.GatewayConfig) Config {
	return Config{
		BaseURL:    cfg.BaseURL,
		Timeout:    cfg.Timeout,
		RatePerSec: cfg.RatePerSec,
		Burst:      cfg.Burst,
	}
}

// Client talks to one UAZAPI instance. It carries no business logic.
type Client struct {
	http    *resty.Client
	limiter *rate.Limiter
}

var _ domainGateway.IGatewayClient = (*Client)(nil)

func NewClient(cfg Config, token string) *Client {
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	limit := rate.Inf
	if cfg.RatePerSec > 0 {
		limit = rate.Limit(cfg.RatePerSec)
	}
	burst := cfg.Burst
	if burst <= 0 {
		burst = 1
	}

	rc := resty.New().
		SetBaseURL(cfg.BaseURL).
		SetTimeout(cfg.Timeout).
		SetHeader("token", token).
		SetHeader("Accept", "application/json").
		SetHeader("Content-Type", "application/json")

	return &Client{
		http:    rc,
		limiter: rate.NewLimiter(limit, burst),
	}
}

// NewFactory returns a ClientFactory that reuses one client (and limiter) per token.
func NewFactory(cfg Config) domainGateway.ClientFactory {
	var (
		mu      sync.Mutex
		clients = make(map[string]*Client)
	)
	return func(token string) domainGateway.IGatewayClient {
		mu.Lock()
		defer mu.Unlock()
		if c, ok := clients[token]; ok {
			return c
		}
		c := NewClient(cfg, token)
		clients[token] = c
		return c
	}
}

func (c *Client) SendBulk(ctx context.Context, req domainGateway.BulkRequest) (domainGateway.BulkResponse, error) {
	var out domainGateway.BulkResponse
	if err := c.do(ctx, "send_bulk", http.MethodPost, pathSendAdvanced, nil, req, &out); err != nil {
		return domainGateway.BulkResponse{}, err
	}
	logrus.Debugf("[UAZAPI] Bulk accepted folder=%s count=%d status=%s", out.FolderID, out.Count, out.Status)
	return out, nil
}

func (c *Client) ListCampaigns(ctx context.Context, status string) ([]domainGateway.RemoteCampaignRecord, error) {
	query := map[string]string{}
	if status != "" {
		query["status"] = status
	}

	var raw json.RawMessage
	if err := c.do(ctx, "list_folders", http.MethodGet, pathListFolders, query, nil, &raw); err != nil {
		return nil, err
	}
	return decodeFolders(raw)
}

func (c *Client) PauseCampaign(ctx context.Context, folderID string) error {
	return c.edit(ctx, folderID, domainGateway.ActionStop)
}

func (c *Client) ResumeCampaign(ctx context.Context, folderID string) error {
	return c.edit(ctx, folderID, domainGateway.ActionContinue)
}

func (c *Client) DeleteCampaign(ctx context.Context, folderID string) error {
	return c.edit(ctx, folderID, domainGateway.ActionDelete)
}

func (c *Client) ListMessages(ctx context.Context, req domainGateway.ListMessagesRequest) (domainGateway.ListMessagesResponse, error) {
	var out domainGateway.ListMessagesResponse
	if err := c.do(ctx, "list_messages", http.MethodPost, pathListMessages, nil, req, &out); err != nil {
		return domainGateway.ListMessagesResponse{}, err
	}
	return out, nil
}

func (c *Client) edit(ctx context.Context, folderID, action string) error {
	body := map[string]string{"folder_id": folderID, "action": action}
	return c.do(ctx, "edit_"+action, http.MethodPost, pathEditFolder, nil, body, nil)
}

func (c *Client) do(ctx context.Context, op, method, path string, query map[string]string, body, out any) error {
	if err := c.limiter.Wait(ctx); err != nil {
		return &pkgError.GatewayError{Operation: op, Err: err}
	}

	req := c.http.R().SetContext(ctx)
	if len(query) > 0 {
		req.SetQueryParams(query)
	}
	if body != nil {
		req.SetBody(body)
	}

	resp, err := req.Execute(method, path)
	if err != nil {
		return &pkgError.GatewayError{Operation: op, Err: err}
	}
	if resp.IsError() {
		return &pkgError.GatewayError{
			Operation: op,
			Status:    resp.StatusCode(),
			Body:      truncate(resp.String(), maxErrorBody),
		}
	}

	if out == nil {
		return nil
	}
	payload := bytes.TrimSpace(resp.Body())
	if len(payload) == 0 {
		return nil
	}
	if err := json.Unmarshal(payload, out); err != nil {
		return &pkgError.GatewayError{Operation: op, Status: resp.StatusCode(), Err: fmt.Errorf("decode response: %w", err)}
	}
	return nil
}

// decodeFolders accepts a bare array or an object wrapping it.
func decodeFolders(raw json.RawMessage) ([]domainGateway.RemoteCampaignRecord, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 || bytes.Equal(raw, []byte("null")) {
		return nil, nil
	}

	var records []domainGateway.RemoteCampaignRecord
	if raw[0] == '[' {
		if err := json.Unmarshal(raw, &records); err != nil {
			return nil, &pkgError.GatewayError{Operation: "list_folders", Err: err}
		}
		return records, nil
	}

	var wrapped struct {
		Folders []domainGateway.RemoteCampaignRecord `json:"folders"`
		Data    []domainGateway.RemoteCampaignRecord `json:"data"`
	}
	if err := json.Unmarshal(raw, &wrapped); err != nil {
		return nil, &pkgError.GatewayError{Operation: "list_folders", Err: err}
	}
	if len(wrapped.Folders) > 0 {
		return wrapped.Folders, nil
	}
	return wrapped.Data, nil
}

func truncate(s string, max int) string {
	if len(s) <= max {
		return s
	}
	return s[:max] + "..."
}
