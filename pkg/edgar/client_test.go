package edgar

import (
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"unicode/utf8"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestServer(t *testing.T, filingHTML string) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	mux.HandleFunc("/files/company_tickers.json", func(w http.ResponseWriter, r *http.Request) {
		assert.NotEmpty(t, r.Header.Get("User-Agent"))
		fmt.Fprint(w, `{"0": {"cik_str": 789019, "ticker": "MSFT", "title": "MICROSOFT CORP"}}`)
	})
	mux.HandleFunc("/submissions/CIK0000789019.json", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{
			"name": "MICROSOFT CORP",
			"sic": "7372",
			"filings": {"recent": {
				"accessionNumber": ["0000789019-25-000010"],
				"form": ["10-K"],
				"primaryDocument": ["msft-10k.htm"]
			}}
		}`)
	})
	mux.HandleFunc("/Archives/edgar/data/789019/000078901925000010/msft-10k.htm", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, filingHTML)
	})
	return httptest.NewServer(mux)
}

func TestCompanyLookup(t *testing.T) {
	server := newTestServer(t, "")
	defer server.Close()

	c := NewClient("stock-themes test@example.com",
		WithBaseURL(server.URL), WithDataBaseURL(server.URL))

	company, err := c.Company(context.Background(), "msft")
	require.NoError(t, err)

	assert.Equal(t, int64(789019), company.CIK)
	assert.Equal(t, "MSFT", company.Ticker)
	assert.Equal(t, "MICROSOFT CORP", company.Name)
	assert.Equal(t, "7372", company.SICCode)
}

func TestCompanyNotFound(t *testing.T) {
	server := newTestServer(t, "")
	defer server.Close()

	c := NewClient("stock-themes test@example.com",
		WithBaseURL(server.URL), WithDataBaseURL(server.URL))

	_, err := c.Company(context.Background(), "ZZZZZZ")
	assert.ErrorIs(t, err, ErrCompanyNotFound)
}

func TestFilingTextExtraction(t *testing.T) {
	business := strings.Repeat("We develop and license software worldwide. ", 5)
	risks := strings.Repeat("Competition may reduce our margins. ", 5)
	html := `<html><body>
		<p>Item 1. Business</p><p>` + business + `</p>
		<p>Item 1A. Risk Factors</p><p>` + risks + `</p>
		<p>Item 2. Properties</p><p>Our headquarters.</p>
	</body></html>`
	server := newTestServer(t, html)
	defer server.Close()

	c := NewClient("stock-themes test@example.com",
		WithBaseURL(server.URL), WithDataBaseURL(server.URL))

	company, err := c.Company(context.Background(), "MSFT")
	require.NoError(t, err)

	text, err := c.FilingText(context.Background(), company)
	require.NoError(t, err)

	assert.Equal(t, "10-K", text.FormType)
	assert.Contains(t, text.BusinessDescription, "license software worldwide")
	assert.NotContains(t, text.BusinessDescription, "Competition")
	assert.Contains(t, text.RiskFactors, "reduce our margins")
}

func TestFilingTextNoUsableForm(t *testing.T) {
	server := newTestServer(t, "<html><body>cover page only</body></html>")
	defer server.Close()

	c := NewClient("stock-themes test@example.com",
		WithBaseURL(server.URL), WithDataBaseURL(server.URL))

	company, err := c.Company(context.Background(), "MSFT")
	require.NoError(t, err)

	text, err := c.FilingText(context.Background(), company)
	require.NoError(t, err)

	assert.Empty(t, text.BusinessDescription)
	assert.Empty(t, text.FormType)
}

func TestStripHTML(t *testing.T) {
	html := `<html><script>var x = 1;</script><p>Hello &amp; welcome</p></html>`

	assert.Equal(t, "Hello & welcome", stripHTML(html))
}

func TestTruncateTextKeepsRuneBoundary(t *testing.T) {
	// 1 ASCII byte then 2-byte runes, so the cap lands mid-rune and must back
	// off one byte.
	s := "a" + strings.Repeat("é", maxSectionLength/2)

	cut := truncateText(s)

	assert.Len(t, cut, maxSectionLength-1)
	assert.True(t, utf8.ValidString(cut))
	assert.Equal(t, "short", truncateText("short"))
}

func TestSectionAfterSkipsTableOfContents(t *testing.T) {
	body := strings.Repeat("Our business builds widgets for industrial customers. ", 4)
	text := "Item 1. Business ....... 3\nItem 1A. Risk Factors ....... 12\n" +
		"Item 1. Business\n" + body + "Item 1A. Risk Factors\nRisks here."

	section := sectionAfter(text, item1Re)

	assert.Contains(t, section, "industrial customers")
	assert.NotContains(t, section, "Risks here")
}
