package usecase

import (
	"context"

	"github.com/galvinus/lead-conversion/internal/entity"
)

// GetConversionUseCase looks up the conversion record for a lead. A
// CONVERTED lead has exactly one; a lead that was never converted has none.
type GetConversionUseCase struct {
	ConversionRepo ConversionFinderInterface
}

func NewGetConversionUseCase(conversionRepo ConversionFinderInterface) *GetConversionUseCase {
	return &GetConversionUseCase{ConversionRepo: conversionRepo}
}

func (uc *GetConversionUseCase) Execute(ctx context.Context, leadID string) (*entity.LeadConversion, error) {
	conversion, err := uc.ConversionRepo.FindByLeadID(ctx, leadID)
	if err != nil {
		return nil, err
	}
	if conversion == nil {
		return nil, entity.ErrConversionNotFound
	}
	return conversion, nil
}
