// Package dedupe flags orders that look like a repeat of a recent order from
// the same customer.
package dedupe

import (
	"strings"

	"github.com/google/uuid"
	"github.com/samber/lo"

	"github.com/tuanvumaihuynh/orderdesk/internal/location"
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

type Signal string

const (
	SignalSameItems   Signal = "same_items"
	SignalItemOverlap Signal = "item_overlap"
	SignalSameBaladia Signal = "same_baladia"
	SignalSimilarName Signal = "similar_name"
)

var weights = map[Signal]int{
	SignalSameItems:   3,
	SignalItemOverlap: 2,
	SignalSameBaladia: 1,
	SignalSimilarName: 1,
}

// Names shorter than this only match exactly; "k" is inside most names.
const minContainedName = 3

type Match struct {
	OrderID uuid.UUID `json:"order_id"`
	Score   int       `json:"score"`
	Signals []Signal  `json:"signals"`
}

// Detect picks the best duplicate of order among candidates. A candidate
// qualifies only when it shares a phone number with order and at least one
// other signal fires. Ties go to the most recent candidate. Callers are
// expected to have narrowed candidates to the duplicate window.
func Detect(order model.Order, candidates []model.Order) (Match, bool) {
	var (
		best      Match
		bestOrder model.Order
		found     bool
	)

	for _, c := range candidates {
		if c.ID == order.ID || c.Status == model.OrderStatusCancelled {
			continue
		}
		if !samePhone(order, c) {
			continue
		}

		signals := Signals(order, c)
		if len(signals) == 0 {
			continue
		}

		score := lo.SumBy(signals, func(s Signal) int { return weights[s] })
		if !found || score > best.Score || (score == best.Score && c.CreatedAt.After(bestOrder.CreatedAt)) {
			best = Match{OrderID: c.ID, Score: score, Signals: signals}
			bestOrder = c
			found = true
		}
	}

	return best, found
}

// Signals lists the secondary signals shared by a and b, phone aside.
func Signals(a, b model.Order) []Signal {
	var signals []Signal

	switch {
	case sameItems(a.Items, b.Items):
		signals = append(signals, SignalSameItems)
	case itemOverlap(a.Items, b.Items):
		signals = append(signals, SignalItemOverlap)
	}
	if a.BaladiaID != 0 && a.BaladiaID == b.BaladiaID {
		signals = append(signals, SignalSameBaladia)
	}
	if similarName(a.CustomerName, b.CustomerName) {
		signals = append(signals, SignalSimilarName)
	}

	return signals
}

func phones(o model.Order) []string {
	out := []string{o.Phone}
	if o.Phone2 != nil && *o.Phone2 != "" {
		out = append(out, *o.Phone2)
	}
	return lo.Compact(out)
}

func samePhone(a, b model.Order) bool {
	return len(lo.Intersect(phones(a), phones(b))) > 0
}

func productIDs(items []model.OrderItem) []uuid.UUID {
	return lo.Uniq(lo.Map(items, func(it model.OrderItem, _ int) uuid.UUID { return it.ProductID }))
}

func sameItems(a, b []model.OrderItem) bool {
	if len(a) == 0 || len(a) != len(b) {
		return false
	}
	qty := lo.SliceToMap(b, func(it model.OrderItem) (uuid.UUID, int) { return it.ProductID, it.Quantity })
	for _, it := range a {
		if q, ok := qty[it.ProductID]; !ok || q != it.Quantity {
			return false
		}
	}
	return true
}

func itemOverlap(a, b []model.OrderItem) bool {
	return len(lo.Intersect(productIDs(a), productIDs(b))) > 0
}

func similarName(a, b string) bool {
	na, nb := location.Normalize(a), location.Normalize(b)
	if na == "" || nb == "" {
		return false
	}
	if na == nb {
		return true
	}
	if len([]rune(na)) < minContainedName || len([]rune(nb)) < minContainedName {
		return false
	}
	return strings.Contains(na, nb) || strings.Contains(nb, na)
}
