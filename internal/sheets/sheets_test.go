package sheets_test

import (
	"context"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tuanvumaihuynh/orderdesk/internal/apperr"
	"github.com/tuanvumaihuynh/orderdesk/internal/config"
	"github.com/tuanvumaihuynh/orderdesk/internal/sheets"
)

const sampleCSV = "\uFEFFCommandes du jour,,,,,,\n" +
	"Nom Complet,Téléphone,Téléphone 2,Wilaya,Commune,Produit,Quantité,Livraison\n" +
	"Karim Benali,0550 12 34 56,,16 - Alger,Bab Ezzouar,TSHIRT-01,2,Stop desk\n" +
	",,,,,,,\n" +
	"\"Amina, Zeroual\",+213661000000,0770999999,Oran,Bir El Djir,HOODIE-02,1,Domicile\n"

func TestParse(t *testing.T) {
	t.Parallel()

	rows, err := sheets.Parse(strings.NewReader(sampleCSV))
	require.NoError(t, err)
	require.Len(t, rows, 2)

	assert.Equal(t, sheets.Row{
		Line:     3,
		Name:     "Karim Benali",
		Phone:    "0550 12 34 56",
		Wilaya:   "16 - Alger",
		Commune:  "Bab Ezzouar",
		Product:  "TSHIRT-01",
		Quantity: "2",
		Delivery: "Stop desk",
	}, rows[0])

	assert.Equal(t, 5, rows[1].Line)
	assert.Equal(t, "Amina, Zeroual", rows[1].Name)
	assert.Equal(t, "0770999999", rows[1].Phone2)
}

func TestParseMissingHeaders(t *testing.T) {
	t.Parallel()

	_, err := sheets.Parse(strings.NewReader("foo,bar\n1,2\n"))
	require.ErrorIs(t, err, apperr.SheetFormatErr)
}

func TestParseSource(t *testing.T) {
	t.Parallel()

	src, err := sheets.ParseSource("abc123:456")
	require.NoError(t, err)
	assert.Equal(t, sheets.Source{SheetID: "abc123", GID: "456"}, src)
	assert.Equal(t, "sheet:abc123:456:7", src.ExternalRef(7))

	src, err = sheets.ParseSource("abc123")
	require.NoError(t, err)
	assert.Equal(t, "0", src.GID)

	_, err = sheets.ParseSource(":1")
	require.Error(t, err)
}

func TestClientFetch(t *testing.T) {
	t.Parallel()

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/spreadsheets/d/sheet-1/export" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "csv", r.URL.Query().Get("format"))
		assert.Equal(t, "9", r.URL.Query().Get("gid"))
		w.Header().Set("Content-Type", "text/csv")
		_, _ = w.Write([]byte(sampleCSV))
	}))
	t.Cleanup(srv.Close)

	c := sheets.NewClient(config.Sheets{ExportBaseURL: srv.URL, Timeout: 2 * time.Second})

	rows, err := c.Fetch(context.Background(), sheets.Source{SheetID: "sheet-1", GID: "9"})
	require.NoError(t, err)
	assert.Len(t, rows, 2)

	_, err = c.Fetch(context.Background(), sheets.Source{SheetID: "missing", GID: "0"})
	require.ErrorIs(t, err, apperr.SheetFetchErr)
}
