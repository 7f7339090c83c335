package usecase

import (
	"errors"
	"math/rand/v2"
	"testing"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	domainGateway "github.com/AzielCF/az-engage/domains/gateway"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildDispatch_PlainText(t *testing.T) {
	b := NewPayloadBuilder(10, 30)

	msgs, err := b.BuildDispatch(domainCampaign.CampaignSpec{
		Numbers: []string{"119999999999", "5511888888888"},
		Text:    "Hello",
	})
	if err != nil {
		t.Fatalf("BuildDispatch() unexpected error: %v", err)
	}
	if len(msgs) != 2 {
		t.Fatalf("BuildDispatch() expected 2 messages, got %d", len(msgs))
	}
	for _, m := range msgs {
		if m.Text != "Hello" || m.Kind != domainGateway.KindText {
			t.Fatalf("unexpected message %+v", m)
		}
	}
	assert.Equal(t, "119999999999", msgs[0].Number)
	assert.Equal(t, "5511888888888", msgs[1].Number)
}

func TestBuildDispatch_NormalizesNumbersAndKeepsGroups(t *testing.T) {
	b := NewPayloadBuilder(10, 30)

	msgs, err := b.BuildDispatch(domainCampaign.CampaignSpec{
		Numbers: []string{"+55 (11) 99999-9999", "120363025246125486@g.us"},
		Text:    "hi",
	})
	require.NoError(t, err)
	require.Len(t, msgs, 2)
	assert.Equal(t, "5511999999999", msgs[0].Number)
	assert.Equal(t, "120363025246125486@g.us", msgs[1].Number)
}

func TestBuildDispatch_RejectsShortNumbers(t *testing.T) {
	b := NewPayloadBuilder(10, 30)

	for _, bad := range []string{"123456789", "abc", "(11) 9999-99", ""} {
		msgs, err := b.BuildDispatch(domainCampaign.CampaignSpec{
			Numbers: []string{"5511999999999", bad},
			Text:    "hi",
		})
		require.Error(t, err, bad)
		assert.Empty(t, msgs, bad)

		var vErr pkgError.ValidationError
		assert.True(t, errors.As(err, &vErr), bad)
	}
}

func TestBuildDispatch_RequiresRecipientsAndContent(t *testing.T) {
	b := NewPayloadBuilder(10, 30)

	_, err := b.BuildDispatch(domainCampaign.CampaignSpec{Text: "hi"})
	assert.Error(t, err)

	_, err = b.BuildDispatch(domainCampaign.CampaignSpec{Numbers: []string{"5511999999999"}, Text: "   "})
	assert.Error(t, err)

	msgs, err := b.BuildDispatch(domainCampaign.CampaignSpec{
		Numbers: []string{"5511999999999"},
		Media:   &domainCampaign.MediaRef{URL: "https://cdn/a.mp3", MimeType: "audio/mpeg"},
	})
	require.NoError(t, err)
	assert.Equal(t, domainGateway.KindAudio, msgs[0].Kind)
	assert.Empty(t, msgs[0].Text)
}

func TestBuildDispatch_VariantsAreUniform(t *testing.T) {
	b := NewPayloadBuilder(10, 30).WithRandom(rand.New(rand.NewPCG(42, 7)).IntN)

	const n = 6000
	numbers := make([]string, n)
	for i := range numbers {
		numbers[i] = "5511999999999"
	}
	spec := domainCampaign.CampaignSpec{
		Numbers:      numbers,
		Text:         "A",
		TextVariants: []string{"B", "", "C"},
	}

	msgs, err := b.BuildDispatch(spec)
	require.NoError(t, err)
	require.Len(t, msgs, n)

	counts := map[string]int{}
	for _, m := range msgs {
		counts[m.Text]++
	}
	require.Len(t, counts, 3, "blank variants must not be drawn")

	expected := float64(n) / 3
	for text, c := range counts {
		assert.InDelta(t, expected, float64(c), expected*0.1, "variant %q drawn %d times", text, c)
	}
}

func TestMediaKind(t *testing.T) {
	cases := map[string]string{
		"image/png":       domainGateway.KindImage,
		"IMAGE/JPEG":      domainGateway.KindImage,
		"video/mp4":       domainGateway.KindVideo,
		"audio/ogg":       domainGateway.KindAudio,
		"application/pdf": domainGateway.KindDocument,
		"":                domainGateway.KindDocument,
	}
	for mime, want := range cases {
		assert.Equal(t, want, MediaKind(mime), mime)
	}
}

func TestBuildBulkRequest(t *testing.T) {
	b := NewPayloadBuilder(10, 30)

	req, err := b.BuildBulkRequest(domainCampaign.CampaignSpec{
		Name:    "Launch",
		Numbers: []string{"5511999999999"},
		Text:    "see attached",
		Media:   &domainCampaign.MediaRef{URL: "https://cdn/a.pdf", MimeType: "application/pdf", FileName: "a.pdf"},
	})
	require.NoError(t, err)
	assert.Equal(t, 10, req.DelayMin)
	assert.Equal(t, 30, req.DelayMax)
	assert.Equal(t, "Launch", req.Info)
	require.Len(t, req.Messages, 1)
	assert.Equal(t, domainGateway.BulkMessage{
		Number:  "5511999999999",
		Type:    domainGateway.KindDocument,
		Text:    "see attached",
		File:    "https://cdn/a.pdf",
		DocName: "a.pdf",
	}, req.Messages[0])

	req, err = b.BuildBulkRequest(domainCampaign.CampaignSpec{
		Numbers:      []string{"5511999999999"},
		Media:        &domainCampaign.MediaRef{URL: "https://cdn/a.png", MimeType: "image/png", FileName: "a.png"},
		DelayMin:     5,
		ScheduledFor: 1760000000000,
	})
	require.NoError(t, err)
	assert.Equal(t, 5, req.DelayMin)
	assert.Equal(t, 5, req.DelayMax)
	assert.Empty(t, req.Messages[0].DocName)
	assert.Equal(t, int64(1760000000000), req.ScheduledFor)
}

func TestBuildBulkRequest_InvalidDelays(t *testing.T) {
	b := NewPayloadBuilder(10, 30)
	base := domainCampaign.CampaignSpec{Numbers: []string{"5511999999999"}, Text: "x"}

	spec := base
	spec.DelayMin, spec.DelayMax = 20, 10
	_, err := b.BuildBulkRequest(spec)
	assert.Error(t, err)

	spec = base
	spec.DelayMin = -1
	_, err = b.BuildBulkRequest(spec)
	assert.Error(t, err)
}
