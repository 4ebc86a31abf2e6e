package location

// wilayaAliases maps spellings seen in orders to the official wilaya code.
// Canonical names and Arabic names come from the reference table.
var wilayaAliases = map[string]int{
	"chelef":            2,
	"el asnam":          2,
	"oum bouaghi":       4,
	"oeb":               4,
	"bgayet":            6,
	"bougie":            6,
	"bejaya":            6,
	"tamanghasset":      11,
	"tam":               11,
	"tizi":              15,
	"algiers":           16,
	"el djazair":        16,
	"alger centre":      16,
	"stif":              19,
	"sba":               22,
	"sidi belabbes":     22,
	"qacentina":         25,
	"mosta":             27,
	"wargla":            30,
	"wahran":            31,
	"bayadh":            32,
	"bba":               34,
	"bordj":             34,
	"bordj bouarreridj": 34,
	"tarf":              36,
	"oued souf":         39,
	"souf":              39,
	"tipasa":            42,
	"ghilizane":         48,
	"bbm":               50,
	"ain salah":         53,
	"ain guezzam":       54,
	"tougourt":          55,
	"el mghair":         57,
	"el menia":          58,
	"menia":             58,
}
