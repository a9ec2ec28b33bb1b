package model

import (
	"time"

	"github.com/lib/pq"
)

// Extension is the vertical-specific record attached 1:1 to a Listing. The set of
// implementations is closed: one struct per Vertical, each stored in its own table.
type Extension interface {
	Vertical() Vertical
	Base() *ExtensionBase
}

type ExtensionBase struct {
	ID        string `db:"id" json:"id"`
	ListingID string `db:"listing_id" json:"listing_id"`
}

func (b *ExtensionBase) Base() *ExtensionBase { return b }

type YachtExtension struct {
	ExtensionBase
	YachtType     string  `db:"yacht_type" json:"yacht_type" validate:"required,oneof=sailboat motor-yacht catamaran gulet trawler rib speedboat other"`
	Make          string  `db:"make" json:"make" validate:"max=80"`
	Model         string  `db:"model" json:"model" validate:"max=80"`
	Year          int     `db:"year" json:"year" validate:"omitempty,gte=1900,lte=2100"`
	LengthM       float64 `db:"length_m" json:"length_m" validate:"gt=0,lte=200"`
	BeamM         float64 `db:"beam_m" json:"beam_m" validate:"gte=0,lte=60"`
	DraftM        float64 `db:"draft_m" json:"draft_m" validate:"gte=0,lte=30"`
	EngineHours   int     `db:"engine_hours" json:"engine_hours" validate:"gte=0,lte=200000"`
	CabinCount    int     `db:"cabin_count" json:"cabin_count" validate:"gte=0,lte=50"`
	GuestCapacity int     `db:"guest_capacity" json:"guest_capacity" validate:"gte=0,lte=500"`
	CrewIncluded  bool    `db:"crew_included" json:"crew_included"`
	ForCharter    bool    `db:"for_charter" json:"for_charter"`
}

func (*YachtExtension) Vertical() Vertical { return VerticalYacht }

type PartExtension struct {
	ExtensionBase
	PartType         string         `db:"part_type" json:"part_type" validate:"required,max=80"`
	Brand            string         `db:"brand" json:"brand" validate:"max=80"`
	PartNumber       string         `db:"part_number" json:"part_number" validate:"max=64"`
	Condition        string         `db:"condition" json:"condition" validate:"required,oneof=new used refurbished"`
	CompatibleModels pq.StringArray `db:"compatible_models" json:"compatible_models" validate:"max=50,dive,required,max=80"`
}

func (*PartExtension) Vertical() Vertical { return VerticalPart }

type MarinaExtension struct {
	ExtensionBase
	MarinaName     string  `db:"marina_name" json:"marina_name" validate:"required,max=120"`
	BerthCount     int     `db:"berth_count" json:"berth_count" validate:"gte=0,lte=10000"`
	MaxLengthM     float64 `db:"max_length_m" json:"max_length_m" validate:"gte=0,lte=200"`
	MaxDraftM      float64 `db:"max_draft_m" json:"max_draft_m" validate:"gte=0,lte=30"`
	HasElectricity bool    `db:"has_electricity" json:"has_electricity"`
	HasWater       bool    `db:"has_water" json:"has_water"`
	HasFuel        bool    `db:"has_fuel" json:"has_fuel"`
	HasWifi        bool    `db:"has_wifi" json:"has_wifi"`
	HasSecurity    bool    `db:"has_security" json:"has_security"`
	BlueFlag       bool    `db:"blue_flag" json:"blue_flag"`
}

func (*MarinaExtension) Vertical() Vertical { return VerticalMarina }

type CrewExtension struct {
	ExtensionBase
	Position        string         `db:"position" json:"position" validate:"required,oneof=captain skipper first-mate engineer deckhand chef stewardess"`
	ExperienceYears int            `db:"experience_years" json:"experience_years" validate:"gte=0,lte=60"`
	Certifications  pq.StringArray `db:"certifications" json:"certifications" validate:"max=30,dive,required,max=80"`
	Languages       pq.StringArray `db:"languages" json:"languages" validate:"max=20,dive,required,max=40"`
	Nationality     string         `db:"nationality" json:"nationality" validate:"max=60"`
	AvailableFrom   *time.Time     `db:"available_from" json:"available_from"`
}

func (*CrewExtension) Vertical() Vertical { return VerticalCrew }

type EquipmentExtension struct {
	ExtensionBase
	EquipmentType string `db:"equipment_type" json:"equipment_type" validate:"required,max=80"`
	Brand         string `db:"brand" json:"brand" validate:"max=80"`
	Condition     string `db:"condition" json:"condition" validate:"required,oneof=new used refurbished"`
	Quantity      int    `db:"quantity" json:"quantity" validate:"omitempty,gte=1,lte=100000"`
}

func (*EquipmentExtension) Vertical() Vertical { return VerticalEquipment }

type ServiceExtension struct {
	ExtensionBase
	ServiceType       string `db:"service_type" json:"service_type" validate:"required,oneof=maintenance repair cleaning transport survey painting electrical rigging other"`
	CoverageArea      string `db:"coverage_area" json:"coverage_area" validate:"max=120"`
	ResponseTimeHours int    `db:"response_time_hours" json:"response_time_hours" validate:"gte=0,lte=720"`
	EmergencyService  bool   `db:"emergency_service" json:"emergency_service"`
}

func (*ServiceExtension) Vertical() Vertical { return VerticalService }

type StorageExtension struct {
	ExtensionBase
	FacilityName   string  `db:"facility_name" json:"facility_name" validate:"required,max=120"`
	StorageType    string  `db:"storage_type" json:"storage_type" validate:"required,oneof=indoor outdoor dry-stack in-water"`
	MaxBoatLengthM float64 `db:"max_boat_length_m" json:"max_boat_length_m" validate:"gt=0,lte=200"`
	MaxBoatBeamM   float64 `db:"max_boat_beam_m" json:"max_boat_beam_m" validate:"gte=0,lte=60"`
	MaxBoatDraftM  float64 `db:"max_boat_draft_m" json:"max_boat_draft_m" validate:"gte=0,lte=30"`
	HasSecurity    bool    `db:"has_security" json:"has_security"`
	HasElectricity bool    `db:"has_electricity" json:"has_electricity"`
	HasWater       bool    `db:"has_water" json:"has_water"`
	HasCrane       bool    `db:"has_crane" json:"has_crane"`
}

func (*StorageExtension) Vertical() Vertical { return VerticalStorage }

const (
	PremiumFixed      = "fixed"
	PremiumPercentage = "percentage"
)

type InsuranceExtension struct {
	ExtensionBase
	CompanyName       string         `db:"company_name" json:"company_name" validate:"required,max=120"`
	InsuranceType     string         `db:"insurance_type" json:"insurance_type" validate:"required,oneof=hull liability crew cargo comprehensive"`
	CoverageTypes     pq.StringArray `db:"coverage_types" json:"coverage_types" validate:"max=10,dive,oneof=theft fire collision storm towing personal-injury pollution salvage"`
	PremiumMode       string         `db:"premium_mode" json:"premium_mode" validate:"omitempty,oneof=fixed percentage"`
	PremiumPercentage *float64       `db:"premium_percentage" json:"premium_percentage" validate:"omitempty,gte=0,lte=100"`
	MinPremium        float64        `db:"min_premium" json:"min_premium" validate:"gte=0"`
	MaxPremium        float64        `db:"max_premium" json:"max_premium" validate:"gte=0"`
}

func (*InsuranceExtension) Vertical() Vertical { return VerticalInsurance }

type ExpertiseExtension struct {
	ExtensionBase
	ExpertiseType      string         `db:"expertise_type" json:"expertise_type" validate:"required,oneof=pre-purchase-survey valuation damage-assessment insurance-survey tonnage-measurement other"`
	CertificationBody  string         `db:"certification_body" json:"certification_body" validate:"max=120"`
	YearsExperience    int            `db:"years_experience" json:"years_experience" validate:"gte=0,lte=60"`
	ReportDeliveryDays int            `db:"report_delivery_days" json:"report_delivery_days" validate:"gte=0,lte=90"`
	Regions            pq.StringArray `db:"regions" json:"regions" validate:"max=30,dive,required,max=80"`
}

func (*ExpertiseExtension) Vertical() Vertical { return VerticalExpertise }

type MarketplaceItemExtension struct {
	ExtensionBase
	Condition       string `db:"condition" json:"condition" validate:"required,oneof=new like-new used for-parts"`
	Brand           string `db:"brand" json:"brand" validate:"max=80"`
	Quantity        int    `db:"quantity" json:"quantity" validate:"omitempty,gte=1,lte=100000"`
	ShippingOffered bool   `db:"shipping_offered" json:"shipping_offered"`
}

func (*MarketplaceItemExtension) Vertical() Vertical { return VerticalMarketplace }
