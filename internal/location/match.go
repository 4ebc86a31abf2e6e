package location

import (
	"github.com/tuanvumaihuynh/orderdesk/internal/model"
)

// MatchWilaya resolves input given as a code ("16"), a code-prefixed name
// ("16 - Alger"), a French or Arabic name, or a known alias.
func MatchWilaya(wilayas []model.Wilaya, input string) (model.Wilaya, bool) {
	if code, ok := LeadingCode(input); ok {
		return findWilaya(wilayas, code)
	}

	key := Normalize(input)
	if key == "" {
		return model.Wilaya{}, false
	}
	compact := Compact(input)

	for _, w := range wilayas {
		if Normalize(w.Name) == key || Normalize(w.NameAr) == key {
			return w, true
		}
	}

	if code, ok := wilayaAliases[key]; ok {
		return findWilaya(wilayas, code)
	}

	for _, w := range wilayas {
		if Compact(w.Name) == compact || Compact(w.NameAr) == compact {
			return w, true
		}
	}
	for alias, code := range wilayaAliases {
		if Compact(alias) == compact {
			return findWilaya(wilayas, code)
		}
	}

	return model.Wilaya{}, false
}

// MatchBaladia resolves a commune among the communes of one wilaya. An exact
// normalised match wins; a space-insensitive match must be unique.
func MatchBaladia(baladias []model.Baladia, input string) (model.Baladia, bool) {
	key := Normalize(input)
	if key == "" {
		return model.Baladia{}, false
	}

	for _, b := range baladias {
		if Normalize(b.Name) == key || (b.NameAr != "" && Normalize(b.NameAr) == key) {
			return b, true
		}
	}

	compact := Compact(input)
	var (
		found model.Baladia
		hits  int
	)
	for _, b := range baladias {
		if Compact(b.Name) == compact || (b.NameAr != "" && Compact(b.NameAr) == compact) {
			found = b
			hits++
		}
	}
	if hits == 1 {
		return found, true
	}

	return model.Baladia{}, false
}

func findWilaya(wilayas []model.Wilaya, code int) (model.Wilaya, bool) {
	for _, w := range wilayas {
		if w.ID == code {
			return w, true
		}
	}
	return model.Wilaya{}, false
}
