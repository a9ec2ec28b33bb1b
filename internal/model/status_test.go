package model

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestListingStatusMachine(t *testing.T) {
	all := []ListingStatus{ListingPending, ListingApproved, ListingRejected, ListingDeleted}
	allowed := map[ListingStatus][]ListingStatus{
		ListingPending:  {ListingApproved, ListingRejected, ListingDeleted},
		ListingApproved: {ListingPending, ListingDeleted},
		ListingRejected: {ListingPending, ListingDeleted},
	}

	for _, from := range all {
		for _, to := range all {
			want := false
			for _, ok := range allowed[from] {
				if ok == to {
					want = true
				}
			}
			assert.Equal(t, want, from.CanTransitionTo(to), "%s -> %s", from, to)
		}
	}

	assert.True(t, ListingDeleted.IsTerminal())
	assert.False(t, ListingRejected.IsTerminal())
	assert.False(t, ListingStatus("ARCHIVED").Valid())
}

func TestSuggestionStatusMachine(t *testing.T) {
	for _, to := range []SuggestionStatus{SuggestionApproved, SuggestionRejected, SuggestionMerged} {
		assert.True(t, SuggestionPending.CanTransitionTo(to))
		assert.False(t, to.CanTransitionTo(SuggestionPending))
		assert.False(t, to.CanTransitionTo(SuggestionApproved))
	}
	assert.False(t, SuggestionPending.CanTransitionTo(SuggestionPending))
	assert.False(t, SuggestionPending.CanTransitionTo("LOST"))
}

func TestActorCanManage(t *testing.T) {
	assert.True(t, Actor{UserID: "u1"}.CanManage("u1"))
	assert.False(t, Actor{UserID: "u2"}.CanManage("u1"))
	assert.True(t, Actor{UserID: "a", IsAdmin: true}.CanManage("u1"))
	assert.False(t, Actor{}.CanManage(""))
	assert.True(t, Actor{}.IsAnonymous())
}

func TestCurrencyValid(t *testing.T) {
	assert.True(t, DefaultCurrency.Valid())
	assert.True(t, CurrencyGBP.Valid())
	assert.False(t, Currency("JPY").Valid())
}
