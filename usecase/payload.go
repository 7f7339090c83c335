package usecase

import (
	"fmt"
	"math/rand/v2"
	"strings"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/AzielCF/az-engage/pkg/utils"
)

// PayloadBuilder expands a CampaignSpec into per-recipient messages.
// It performs no I/O.
type PayloadBuilder struct {
	intn            func(n int) int
	defaultDelayMin int
	defaultDelayMax int
}

func NewPayloadBuilder(defaultDelayMin, defaultDelayMax int) *PayloadBuilder {
	return &PayloadBuilder{
		intn:            rand.IntN,
		defaultDelayMin: defaultDelayMin,
		defaultDelayMax: defaultDelayMax,
	}
}

// WithRandom swaps the variant picker, mostly for tests.
func (b *PayloadBuilder) WithRandom(intn func(n int) int) *PayloadBuilder {
	b.intn = intn
	return b
}

// MediaKind maps a MIME type to the gateway message kind.
func MediaKind(mimeType string) string {
	mimeType = strings.ToLower(strings.TrimSpace(mimeType))
	switch {
	case strings.HasPrefix(mimeType, "image/"):
		return domainGateway.KindImage
	case strings.HasPrefix(mimeType, "video/"):
		return domainGateway.KindVideo
	case strings.HasPrefix(mimeType, "audio/"):
		return domainGateway.KindAudio
	default:
		return domainGateway.KindDocument
	}
}

// TextVariants returns the pool each recipient draws from: the main text
// followed by the alternates, blanks dropped.
func TextVariants(spec domainCampaign.CampaignSpec) []string {
	pool := make([]string, 0, len(spec.TextVariants)+1)
	if strings.TrimSpace(spec.Text) != "" {
		pool = append(pool, spec.Text)
	}
	for _, v := range spec.TextVariants {
		if strings.TrimSpace(v) != "" {
			pool = append(pool, v)
		}
	}
	return pool
}

// NormalizeRecipients resolves every target or fails on the first malformed one.
func NormalizeRecipients(numbers []string) ([]string, error) {
	out := make([]string, 0, len(numbers))
	for _, raw := range numbers {
		target := utils.NormalizeRecipient(raw)
		if !utils.IsGroupJID(target) && len(target) < utils.MinPhoneDigits {
			return nil, pkgError.ValidationError(fmt.Sprintf("invalid number %q: need at least %d digits", raw, utils.MinPhoneDigits))
		}
		out = append(out, target)
	}
	return out, nil
}

func (b *PayloadBuilder) BuildDispatch(spec domainCampaign.CampaignSpec) ([]domainCampaign.DispatchMessage, error) {
	if len(spec.Numbers) == 0 {
		return nil, pkgError.ValidationError("recipient list cannot be empty")
	}

	pool := TextVariants(spec)
	if len(pool) == 0 && spec.Media == nil {
		return nil, pkgError.ValidationError("text or media is required")
	}

	targets, err := NormalizeRecipients(spec.Numbers)
	if err != nil {
		return nil, err
	}

	kind := domainGateway.KindText
	if spec.Media != nil {
		kind = MediaKind(spec.Media.MimeType)
	}

	messages := make([]domainCampaign.DispatchMessage, 0, len(targets))
	for _, target := range targets {
		msg := domainCampaign.DispatchMessage{
			Number: target,
			Kind:   kind,
			Text:   b.pick(pool),
			Media:  spec.Media,
		}
		messages = append(messages, msg)
	}
	return messages, nil
}

// BuildBulkRequest produces the exact body for the bulk-send endpoint.
func (b *PayloadBuilder) BuildBulkRequest(spec domainCampaign.CampaignSpec) (domainGateway.BulkRequest, error) {
	delayMin, delayMax, err := b.resolveDelays(spec.DelayMin, spec.DelayMax)
	if err != nil {
		return domainGateway.BulkRequest{}, err
	}

	messages, err := b.BuildDispatch(spec)
	if err != nil {
		return domainGateway.BulkRequest{}, err
	}

	req := domainGateway.BulkRequest{
		DelayMin:     delayMin,
		DelayMax:     delayMax,
		Info:         spec.Name,
		Messages:     make([]domainGateway.BulkMessage, 0, len(messages)),
		ScheduledFor: spec.ScheduledFor,
	}
	for _, m := range messages {
		bm := domainGateway.BulkMessage{
			Number: m.Number,
			Type:   m.Kind,
			Text:   m.Text,
		}
		if m.Media != nil {
			bm.File = m.Media.URL
			if m.Kind == domainGateway.KindDocument {
				bm.DocName = m.Media.FileName
			}
		}
		req.Messages = append(req.Messages, bm)
	}
	return req, nil
}

func (b *PayloadBuilder) pick(pool []string) string {
	switch len(pool) {
	case 0:
		return ""
	case 1:
		return pool[0]
	}
	return pool[b.intn(len(pool))]
}

func (b *PayloadBuilder) resolveDelays(delayMin, delayMax int) (int, int, error) {
	if delayMin < 0 || delayMax < 0 {
		return 0, 0, pkgError.ValidationError("delays cannot be negative")
	}
	if delayMin == 0 && delayMax == 0 {
		return b.defaultDelayMin, b.defaultDelayMax, nil
	}
	if delayMax == 0 {
		delayMax = delayMin
	}
	if delayMax < delayMin {
		return 0, 0, pkgError.ValidationError("delay_max must be greater than or equal to delay_min")
	}
	return delayMin, delayMax, nil
}
