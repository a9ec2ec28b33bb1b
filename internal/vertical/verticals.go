package vertical

import (
	"github.com/fekuna/marine-listing-service/internal/apperror"
	"github.com/fekuna/marine-listing-service/internal/model"
)

// definitions is the closed set of verticals. Adding a vertical means adding one entry here,
// one extension struct in model and one table in the migrations.
var definitions = []Spec{
	{
		Vertical: model.VerticalYacht,
		Table:    "yacht_extensions",
		Pricing:  PricingFlat,
		newFn:    func() model.Extension { return &model.YachtExtension{} },
		check: func(ext model.Extension) *apperror.ValidationError {
			y := ext.(*model.YachtExtension)
			if y.BeamM > y.LengthM {
				return apperror.Validation("beam_m", "must not exceed length_m")
			}
			return nil
		},
	},
	{
		Vertical: model.VerticalPart,
		Table:    "part_extensions",
		Pricing:  PricingFlat,
		newFn:    func() model.Extension { return &model.PartExtension{} },
	},
	{
		Vertical: model.VerticalMarina,
		Table:    "marina_extensions",
		Pricing:  PricingFlat,
		newFn:    func() model.Extension { return &model.MarinaExtension{} },
	},
	{
		Vertical: model.VerticalCrew,
		Table:    "crew_extensions",
		Pricing:  PricingNegotiable,
		newFn:    func() model.Extension { return &model.CrewExtension{} },
	},
	{
		Vertical: model.VerticalEquipment,
		Table:    "equipment_extensions",
		Pricing:  PricingFlat,
		newFn:    func() model.Extension { return &model.EquipmentExtension{} },
		project: func(ext model.Extension) {
			e := ext.(*model.EquipmentExtension)
			if e.Quantity == 0 {
				e.Quantity = 1
			}
		},
	},
	{
		Vertical: model.VerticalService,
		Table:    "service_extensions",
		Pricing:  PricingNegotiable,
		newFn:    func() model.Extension { return &model.ServiceExtension{} },
	},
	{
		Vertical: model.VerticalStorage,
		Table:    "storage_extensions",
		Pricing:  PricingFlat,
		newFn:    func() model.Extension { return &model.StorageExtension{} },
		check: func(ext model.Extension) *apperror.ValidationError {
			s := ext.(*model.StorageExtension)
			if s.MaxBoatBeamM > s.MaxBoatLengthM {
				return apperror.Validation("max_boat_beam_m", "must not exceed max_boat_length_m")
			}
			return nil
		},
	},
	{
		Vertical: model.VerticalInsurance,
		Table:    "insurance_extensions",
		Pricing:  PricingPremium,
		newFn:    func() model.Extension { return &model.InsuranceExtension{} },
		check: func(ext model.Extension) *apperror.ValidationError {
			ins := ext.(*model.InsuranceExtension)
			if ins.PremiumMode == model.PremiumPercentage && ins.PremiumPercentage == nil {
				return apperror.Validation("premium_percentage", "is required when premium_mode is percentage")
			}
			if ins.MaxPremium > 0 && ins.MaxPremium < ins.MinPremium {
				return apperror.Validation("max_premium", "must be at least min_premium")
			}
			return nil
		},
		project: func(ext model.Extension) {
			ins := ext.(*model.InsuranceExtension)
			if ins.PremiumMode == "" {
				ins.PremiumMode = model.PremiumFixed
				if ins.PremiumPercentage != nil {
					ins.PremiumMode = model.PremiumPercentage
				}
			}
		},
	},
	{
		Vertical: model.VerticalExpertise,
		Table:    "expertise_extensions",
		Pricing:  PricingNegotiable,
		newFn:    func() model.Extension { return &model.ExpertiseExtension{} },
	},
	{
		Vertical: model.VerticalMarketplace,
		Table:    "marketplace_item_extensions",
		Pricing:  PricingFlat,
		newFn:    func() model.Extension { return &model.MarketplaceItemExtension{} },
		project: func(ext model.Extension) {
			m := ext.(*model.MarketplaceItemExtension)
			if m.Quantity == 0 {
				m.Quantity = 1
			}
		},
	},
}
