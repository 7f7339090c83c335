package validations

import (
	"context"
	"errors"
	"strings"

	domainCampaign "github.com/AzielCF/az-engage/domains/campaign"
	pkgError "github.com/AzielCF/az-engage/pkg/error"
	validation "github.com/go-ozzo/ozzo-validation/v4"
)

func ValidateCampaignSpec(ctx context.Context, request domainCampaign.CampaignSpec) error {
	hasMedia := request.Media != nil
	hasVariant := false
	for _, v := range request.TextVariants {
		if strings.TrimSpace(v) != "" {
			hasVariant = true
			break
		}
	}

	err := validation.ValidateStructWithContext(ctx, &request,
		validation.Field(&request.AccountID, validation.Required),
		validation.Field(&request.Name, validation.Length(0, 120)),
		validation.Field(&request.Numbers, validation.Required.Error("recipient list cannot be empty"),
			validation.Each(validation.By(notBlank))),
		validation.Field(&request.Text, validation.When(!hasMedia && !hasVariant,
			validation.By(notBlankError("text or media is required")))),
		validation.Field(&request.Media, validation.By(validMedia)),
		validation.Field(&request.DelayMin, validation.Min(0)),
		validation.Field(&request.DelayMax, validation.Min(0)),
		validation.Field(&request.ScheduledFor, validation.Min(int64(0))),
	)
	if err != nil {
		return pkgError.ValidationError(err.Error())
	}

	if request.DelayMax > 0 && request.DelayMax < request.DelayMin {
		return pkgError.ValidationError("delay_max: must be greater than or equal to delay_min.")
	}

	return nil
}

func notBlank(value any) error {
	s, _ := value.(string)
	if strings.TrimSpace(s) == "" {
		return errors.New("cannot be blank")
	}
	return nil
}

func notBlankError(msg string) validation.RuleFunc {
	return func(value any) error {
		s, _ := value.(string)
		if strings.TrimSpace(s) == "" {
			return errors.New(msg)
		}
		return nil
	}
}

func validMedia(value any) error {
	media, _ := value.(*domainCampaign.MediaRef)
	if media == nil {
		return nil
	}
	return validation.ValidateStruct(media,
		validation.Field(&media.URL, validation.Required),
		validation.Field(&media.MimeType, validation.Required),
	)
}
