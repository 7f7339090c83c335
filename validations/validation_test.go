package validations

import (
	"context"
	"testing"
	"time"

	domainBlacklist "github.com/AzielCF/az-engage/domains/blacklist"
	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	"github.com/stretchr/testify/assert"
)

func TestValidateCampaignSpec(t *testing.T) {
	ctx := context.Background()
	base := domainCampaign.CampaignSpec{
		AccountID: "acc-1",
		Numbers:   []string{"5511999999999"},
		Text:      "Hello",
	}

	assert.NoError(t, ValidateCampaignSpec(ctx, base))

	noNumbers := base
	noNumbers.Numbers = nil
	err := ValidateCampaignSpec(ctx, noNumbers)
	assert.IsType(t, pkgError.ValidationError(""), err)

	noContent := base
	noContent.Text = "   "
	assert.Error(t, ValidateCampaignSpec(ctx, noContent))

	variantsOnly := noContent
	variantsOnly.TextVariants = []string{"", "Hi there"}
	assert.NoError(t, ValidateCampaignSpec(ctx, variantsOnly))

	blankVariants := noContent
	blankVariants.TextVariants = []string{"", "  "}
	assert.Error(t, ValidateCampaignSpec(ctx, blankVariants))

	mediaOnly := noContent
	mediaOnly.Media = &domainCampaign.MediaRef{URL: "https://cdn/x.png", MimeType: "image/png"}
	assert.NoError(t, ValidateCampaignSpec(ctx, mediaOnly))

	badMedia := noContent
	badMedia.Media = &domainCampaign.MediaRef{URL: "https://cdn/x.png"}
	assert.Error(t, ValidateCampaignSpec(ctx, badMedia))

	badDelay := base
	badDelay.DelayMin, badDelay.DelayMax = 20, 5
	assert.Error(t, ValidateCampaignSpec(ctx, badDelay))

	blankNumber := base
	blankNumber.Numbers = []string{"5511999999999", " "}
	assert.Error(t, ValidateCampaignSpec(ctx, blankNumber))

	noAccount := base
	noAccount.AccountID = ""
	assert.Error(t, ValidateCampaignSpec(ctx, noAccount))
}

func TestValidateBlacklistAdd(t *testing.T) {
	assert.NoError(t, ValidateBlacklistAdd("5511999999999", domainBlacklist.ReasonBlock, "acc"))
	assert.Error(t, ValidateBlacklistAdd("", domainBlacklist.ReasonBlock, "acc"))
	assert.Error(t, ValidateBlacklistAdd("5511", domainBlacklist.Reason("whatever"), "acc"))
	assert.Error(t, ValidateBlacklistAdd("5511", domainBlacklist.ReasonError, ""))
}

func TestValidateBlacklistImport(t *testing.T) {
	good := domainBlacklist.Entry{
		Number: "5511999999999", Reason: domainBlacklist.ReasonError,
		Timestamp: time.Now(), AccountID: "acc", RetryCount: 1,
	}
	assert.NoError(t, ValidateBlacklistImport([]domainBlacklist.Entry{good}))

	bad := good
	bad.RetryCount = 0
	err := ValidateBlacklistImport([]domainBlacklist.Entry{good, bad})
	if assert.Error(t, err) {
		assert.Contains(t, err.Error(), "record 1")
	}

	noTime := good
	noTime.Timestamp = time.Time{}
	assert.Error(t, ValidateBlacklistImport([]domainBlacklist.Entry{noTime}))
}
