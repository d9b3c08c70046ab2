package commands

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/require"

	"fipe-garimpo/fipe/fipetest"
)

func execute(t *testing.T, args ...string) (string, error) {
	t.Helper()
	var out bytes.Buffer
	rootCmd.SetOut(&out)
	rootCmd.SetErr(&out)
	rootCmd.SetArgs(args)
	err := rootCmd.Execute()
	return out.String(), err
}

func TestDemoCommand(t *testing.T) {
	out, err := execute(t, "demo", "--threshold", "4000", "--max-mileage", "100000", "--max-price", "0")
	require.NoError(t, err)
	require.Contains(t, out, "Honda Civic EXL 2017")
	require.NotContains(t, out, "Toyota Corolla XEI 2016")
	require.Contains(t, out, "Resumo")
}

func TestDemoCommandNoResults(t *testing.T) {
	out, err := execute(t, "demo", "--threshold", "30000", "--max-mileage", "0", "--max-price", "0")
	require.NoError(t, err)
	require.Contains(t, out, "Nenhum")
}

func TestDemoCommandRejectsOffStepThreshold(t *testing.T) {
	_, err := execute(t, "demo", "--threshold", "4500")
	require.Error(t, err)
}

func scanEnv(t *testing.T) {
	t.Helper()
	site := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/index":
			fmt.Fprint(w, `<ul>
<li class="sc-1fcmfeb-2"><a href="/d/uno"><img src="https://img/uno.jpg"><h2>Fiat Uno 2012</h2><p class="sc-ifAKCX eoKYee">R$ 18.000</p></a></li>
<li class="sc-1fcmfeb-2"><a href="/d/gone"><img src="https://img/gone.jpg"><h2>Fiat Uno 2012</h2><p class="sc-ifAKCX eoKYee">R$ 9.000</p></a></li>
</ul>`)
		case r.Method == http.MethodHead && r.URL.Path == "/d/uno":
			w.WriteHeader(http.StatusOK)
		default:
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	t.Cleanup(site.Close)

	ref := fipetest.NewServer([]fipetest.Brand{
		{Name: "Fiat", Code: "21", Models: []fipetest.Model{
			{Name: "Uno", Code: 100, Years: []fipetest.Variant{
				{Name: "2012 Gasolina", Code: "2012-1", Value: "R$ 25.000,00"},
			}},
		}},
	})
	t.Cleanup(ref.Close)

	t.Setenv("LISTING_URL", site.URL+"/index")
	t.Setenv("BASE_ORIGIN", site.URL)
	t.Setenv("FIPE_API_URL", ref.URL)
	t.Setenv("REFERENCE_STRATEGY", "api")
	t.Setenv("MAX_RETRIES", "0")
}

func readCSV(t *testing.T, path string) [][]string {
	t.Helper()
	f, err := os.Open(path)
	require.NoError(t, err)
	defer f.Close()
	records, err := csv.NewReader(f).ReadAll()
	require.NoError(t, err)
	return records
}

func TestScanCommandExportsCSV(t *testing.T) {
	scanEnv(t)

	csvPath := filepath.Join(t.TempDir(), "deals.csv")
	out, err := execute(t, "scan", "--threshold", "4000", "--max-price", "0", "--csv", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "Fiat Uno 2012")
	require.Contains(t, out, "R$ 7.000")

	records := readCSV(t, csvPath)
	require.Len(t, records, 2)
	require.Equal(t, os.Getenv("BASE_ORIGIN")+"/d/uno", records[1][6])
}

func TestScanCommandExportHonoursMaxPrice(t *testing.T) {
	scanEnv(t)

	csvPath := filepath.Join(t.TempDir(), "deals.csv")
	out, err := execute(t, "scan", "--threshold", "4000", "--max-price", "15000", "--csv", csvPath)
	require.NoError(t, err)
	require.Contains(t, out, "Nenhum")

	records := readCSV(t, csvPath)
	require.Len(t, records, 1, "only the header row")
}
