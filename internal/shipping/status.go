package shipping

import (
	"slices"
	"strings"

	"github.com/tuanvumaihuynh/orderdesk/internal/location"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

var (
	returnedWords  = []string{"retour", "retourne", "returned", "return"}
	deliveredWords = []string{"livre", "livree", "delivered", "encaisse", "paye"}
	negationWords  = []string{"non", "pas", "not", "echec", "failed", "jamais", "never"}
)

// MapStatus maps a provider tracking status to the order status it implies.
// It returns false for in-transit statuses that leave the order unchanged.
// A keyword right after a negation ("non livre", "not delivered") does not
// count.
func MapStatus(raw string) (model.OrderStatus, bool) {
	words := strings.Fields(location.Normalize(raw))

	if hasKeyword(words, returnedWords) {
		return model.OrderStatusReturned, true
	}
	if hasKeyword(words, deliveredWords) {
		return model.OrderStatusDelivered, true
	}

	return "", false
}

func hasKeyword(words, keywords []string) bool {
	for i, w := range words {
		if !slices.Contains(keywords, w) {
			continue
		}
		if i > 0 && slices.Contains(negationWords, words[i-1]) {
			continue
		}
		return true
	}
	return false
}
