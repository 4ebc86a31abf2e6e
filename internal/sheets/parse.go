package sheets

import (
	"encoding/csv"
	"errors"
	"io"
	"strings"

	"github.com/samber/lo"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/location"
)

type column int

const (
	colName column = iota
	colPhone
	colPhone2
	colWilaya
	colCommune
	colAddress
	colProduct
	colQuantity
	colPrice
	colDelivery
	colNotes
)

// Header aliases, compared after location.Normalize.
var headerAliases = map[column][]string{
	colName:     {"nom", "name", "client", "nom complet", "full name", "customer"},
	colPhone:    {"telephone", "phone", "tel", "numero", "mobile"},
	colPhone2:   {"telephone 2", "phone2", "phone 2", "tel 2", "telephone2"},
	colWilaya:   {"wilaya", "willaya", "state"},
	colCommune:  {"commune", "baladia", "city", "ville"},
	colAddress:  {"adresse", "address"},
	colProduct:  {"produit", "product", "sku", "article"},
	colQuantity: {"quantite", "qty", "quantity", "qte"},
	colPrice:    {"prix", "price", "montant", "total"},
	colDelivery: {"livraison", "delivery", "type", "type livraison"},
	colNotes:    {"remarque", "notes", "note", "commentaire"},
}

var requiredColumns = []column{colName, colPhone, colWilaya, colProduct}

// Row is one data line of the sheet. Line is its 1-based row number.
type Row struct {
	Line     int
	Name     string
	Phone    string
	Phone2   string
	Wilaya   string
	Commune  string
	Address  string
	Product  string
	Quantity string
	Price    string
	Delivery string
	Notes    string
}

// Empty reports whether the row carries none of the order fields.
func (r Row) Empty() bool {
	return r.Name == "" && r.Phone == "" && r.Product == "" && r.Wilaya == ""
}

// Parse reads a CSV export. The first row holding the required headers is
// the header row; anything above it is ignored.
func Parse(r io.Reader) ([]Row, error) {
	reader := csv.NewReader(r)
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true

	var (
		index map[column]int
		rows  []Row
	)

	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperr.SheetFormatErr.WrapParent(err)
		}
		line, _ := reader.FieldPos(0)

		if index == nil {
			index = headerIndex(record)
			if !lo.Every(lo.Keys(index), requiredColumns) {
				index = nil
			}
			continue
		}

		get := func(c column) string {
			i, ok := index[c]
			if !ok || i >= len(record) {
				return ""
			}
			return strings.TrimSpace(record[i])
		}

		row := Row{
			Line:     line,
			Name:     get(colName),
			Phone:    get(colPhone),
			Phone2:   get(colPhone2),
			Wilaya:   get(colWilaya),
			Commune:  get(colCommune),
			Address:  get(colAddress),
			Product:  get(colProduct),
			Quantity: get(colQuantity),
			Price:    get(colPrice),
			Delivery: get(colDelivery),
			Notes:    get(colNotes),
		}
		if row.Empty() {
			continue
		}
		rows = append(rows, row)
	}

	if index == nil {
		return nil, apperr.SheetFormatErr.WithMsg("no header row with name, phone, wilaya and product columns")
	}

	return rows, nil
}

// headerIndex maps recognised columns to their position. The first matching
// header wins, so "telephone" is not shadowed by a later "telephone 2".
func headerIndex(record []string) map[column]int {
	lookup := make(map[string]column)
	for col, aliases := range headerAliases {
		for _, a := range aliases {
			lookup[a] = col
		}
	}

	index := make(map[column]int)
	for i, h := range record {
		col, ok := lookup[location.Normalize(h)]
		if !ok {
			continue
		}
		if _, seen := index[col]; !seen {
			index[col] = i
		}
	}
	return index
}
