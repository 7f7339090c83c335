package gateway

import "context"

// Message kinds accepted by the bulk sender.
const (
	KindText     = "text"
	KindImage    = "image"
	KindVideo    = "video"
	KindAudio    = "audio"
	KindDocument = "document"
)

// Actions accepted by the campaign edit endpoint.
const (
	ActionStop     = "stop"
	ActionContinue = "continue"
	ActionDelete   = "delete"
)

type BulkMessage struct {
	Number  string `json:"number"`
	Type    string `json:"type"`
	Text    string `json:"text,omitempty"`
	File    string `json:"file,omitempty"`
	DocName string `json:"docName,omitempty"`
}

type BulkRequest struct {
	DelayMin     int           `json:"delayMin"`
	DelayMax     int           `json:"delayMax"`
	Info         string        `json:"info"`
	Messages     []BulkMessage `json:"messages"`
	ScheduledFor int64         `json:"scheduled_for,omitempty"`
}

type BulkResponse struct {
	FolderID string  `json:"folder_id"`
	Count    FlexInt `json:"count"`
	Status   string  `json:"status"`
}

// RemoteCampaignRecord is the gateway's view of a campaign folder. It is
// read-only for us and must go through reconciliation before being shown.
type RemoteCampaignRecord struct {
	ID           string   `json:"id"`
	Status       string   `json:"status"`
	Info         string   `json:"info,omitempty"`
	Total        FlexInt  `json:"log_total"`
	Success      FlexInt  `json:"log_sucess"`
	Failed       FlexInt  `json:"log_failed"`
	Delivered    FlexInt  `json:"log_delivered"`
	Read         FlexInt  `json:"log_read"`
	Played       FlexInt  `json:"log_played"`
	Created      FlexTime `json:"created"`
	ScheduledFor FlexTime `json:"scheduled_for"`
	DelayMin     FlexInt  `json:"delayMin"`
	DelayMax     FlexInt  `json:"delayMax"`
	Owner        string   `json:"owner,omitempty"`
}

type ListMessagesRequest struct {
	FolderID      string `json:"folder_id"`
	MessageStatus string `json:"messageStatus,omitempty"`
	Page          int    `json:"page"`
	PageSize      int    `json:"pageSize"`
}

type CampaignMessage struct {
	ID     string `json:"id"`
	ChatID string `json:"chatid"`
	Number string `json:"number"`
	Status string `json:"status"`
	Error  string `json:"error,omitempty"`
}

// Recipient returns whichever recipient field the gateway populated.
func (m CampaignMessage) Recipient() string {
	if m.Number != "" {
		return m.Number
	}
	return m.ChatID
}

type Pagination struct {
	Total    FlexInt `json:"total"`
	Page     FlexInt `json:"page"`
	PageSize FlexInt `json:"pageSize"`
	LastPage FlexInt `json:"lastPage"`
}

type ListMessagesResponse struct {
	Messages   []CampaignMessage `json:"messages"`
	Pagination Pagination        `json:"pagination"`
}

// IGatewayClient is the authenticated view of a single gateway instance.
type IGatewayClient interface {
	SendBulk(ctx context.Context, req BulkRequest) (BulkResponse, error)
	ListCampaigns(ctx context.Context, status string) ([]RemoteCampaignRecord, error)
	PauseCampaign(ctx context.Context, folderID string) error
	ResumeCampaign(ctx context.Context, folderID string) error
	DeleteCampaign(ctx context.Context, folderID string) error
	ListMessages(ctx context.Context, req ListMessagesRequest) (ListMessagesResponse, error)
}

// ClientFactory builds a client bound to one instance token.
type ClientFactory func(token string) IGatewayClient
