package model

import (
	"time"

	"github.com/shopspring/decimal"
)

// Vertical is the fixed discriminator that selects a listing's extension shape.
type Vertical string

const (
	VerticalYacht       Vertical = "yacht"
	VerticalPart        Vertical = "part"
	VerticalMarina      Vertical = "marina"
	VerticalCrew        Vertical = "crew"
	VerticalEquipment   Vertical = "equipment"
	VerticalService     Vertical = "service"
	VerticalStorage     Vertical = "storage"
	VerticalInsurance   Vertical = "insurance"
	VerticalExpertise   Vertical = "expertise"
	VerticalMarketplace Vertical = "marketplace-item"
)

type Currency string

const (
	CurrencyTRY Currency = "TRY"
	CurrencyEUR Currency = "EUR"
	CurrencyUSD Currency = "USD"
	CurrencyGBP Currency = "GBP"

	DefaultCurrency = CurrencyTRY
)

func (c Currency) Valid() bool {
	switch c {
	case CurrencyTRY, CurrencyEUR, CurrencyUSD, CurrencyGBP:
		return true
	}
	return false
}

type ListingStatus string

const (
	ListingPending  ListingStatus = "PENDING"
	ListingApproved ListingStatus = "APPROVED"
	ListingRejected ListingStatus = "REJECTED"
	ListingDeleted  ListingStatus = "DELETED"
)

var listingTransitions = map[ListingStatus][]ListingStatus{
	ListingPending:  {ListingApproved, ListingRejected, ListingDeleted},
	ListingApproved: {ListingPending, ListingDeleted},
	ListingRejected: {ListingPending, ListingDeleted},
	ListingDeleted:  {},
}

func (s ListingStatus) Valid() bool {
	_, ok := listingTransitions[s]
	return ok
}

func (s ListingStatus) IsTerminal() bool {
	return s == ListingDeleted
}

func (s ListingStatus) CanTransitionTo(to ListingStatus) bool {
	for _, next := range listingTransitions[s] {
		if next == to {
			return true
		}
	}
	return false
}

type Listing struct {
	BaseModel
	OwnerID         string           `db:"owner_id" json:"owner_id"`
	Vertical        Vertical         `db:"vertical" json:"vertical"`
	Title           string           `db:"title" json:"title"`
	Description     string           `db:"description" json:"description"`
	Price           *decimal.Decimal `db:"price" json:"price"` // Nullable for premium and negotiable pricing
	Currency        Currency         `db:"currency" json:"currency"`
	Location        string           `db:"location" json:"location"`
	CategoryID      string           `db:"category_id" json:"category_id"`
	Status          ListingStatus    `db:"status" json:"status"`
	RejectionReason *string          `db:"rejection_reason" json:"rejection_reason,omitempty"`
	ViewCount       int              `db:"view_count" json:"view_count"`
	Extension       Extension        `db:"-" json:"extension,omitempty"`
	Images          []ListingImage   `db:"-" json:"images,omitempty"`
}

type ListingImage struct {
	ID        string    `db:"id" json:"id"`
	ListingID string    `db:"listing_id" json:"listing_id"`
	URL       string    `db:"url" json:"url"`
	Position  int       `db:"position" json:"position"`
	CreatedAt time.Time `db:"created_at" json:"created_at"`
}

// StatusEvent is one audited listing status change.
type StatusEvent struct {
	ID         string        `db:"id" json:"id"`
	ListingID  string        `db:"listing_id" json:"listing_id"`
	FromStatus ListingStatus `db:"from_status" json:"from_status"`
	ToStatus   ListingStatus `db:"to_status" json:"to_status"`
	ActorID    string        `db:"actor_id" json:"actor_id"`
	Reason     *string       `db:"reason" json:"reason,omitempty"`
	CreatedAt  time.Time     `db:"created_at" json:"created_at"`
}

// StatusChange is one requested listing status move, applied with a compare-and-set on From.
type StatusChange struct {
	ListingID string
	From      ListingStatus
	To        ListingStatus
	ActorID   string
	Reason    *string
	At        time.Time
}

func (c *StatusChange) Event(id string) *StatusEvent {
	return &StatusEvent{
		ID:         id,
		ListingID:  c.ListingID,
		FromStatus: c.From,
		ToStatus:   c.To,
		ActorID:    c.ActorID,
		Reason:     c.Reason,
		CreatedAt:  c.At,
	}
}
