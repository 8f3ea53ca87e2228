package currency

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

const yearFeed = `<?xml version="1.0" encoding="utf-8"?>
<DataSet xmlns="http://www.bnr.ro/xsd">
  <Header><Publisher>National Bank of Romania</Publisher></Header>
  <Body>
    <Subject>Reference rates</Subject>
    <OrigCurrency>RON</OrigCurrency>
    <Cube date="2024-03-05">
      <Rate currency="EUR">4.9701</Rate>
      <Rate currency="HUF" multiplier="100">1.2640</Rate>
    </Cube>
    <Cube date="2024-03-04">
      <Rate currency="EUR">4.9689</Rate>
      <Rate currency="HUF" multiplier="100">1.2601</Rate>
      <Rate currency="XDR">-</Rate>
    </Cube>
  </Body>
</DataSet>`

func TestParseFeed(t *testing.T) {
	sets, err := ParseFeed([]byte(yearFeed), "RON")
	require.NoError(t, err)
	require.Len(t, sets, 2)

	assert.Equal(t, "2024-03-04", sets[0].Date.Format(time.DateOnly))
	assert.Equal(t, "RON", sets[0].Base)
	assert.InDelta(t, 0.012601, sets[0].Values["HUF"], 1e-12)
	_, ok := sets[0].Values["XDR"]
	assert.False(t, ok)

	v, ok := sets[1].value("RON")
	assert.True(t, ok)
	assert.Equal(t, 1.0, v)
}

func TestParseFeed_Invalid(t *testing.T) {
	_, err := ParseFeed([]byte("<DataSet><Body><Cube date=\"05.03.2024\"/></Body></DataSet>"), "RON")
	assert.Error(t, err)

	_, err = ParseFeed([]byte("not xml"), "RON")
	assert.Error(t, err)
}

func TestFeedClient(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/nbrfxrates.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yearFeed))
	})
	mux.HandleFunc("/files/xml/years/nbrfxrates2024.xml", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(yearFeed))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	client := NewFeedClient(srv.URL+"/", "RON", time.Second)

	latest, err := client.Latest(context.Background())
	require.NoError(t, err)
	assert.Equal(t, "2024-03-05", latest.Date.Format(time.DateOnly))

	year, err := client.Year(context.Background(), 2024)
	require.NoError(t, err)
	assert.Len(t, year, 2)

	_, err = client.Year(context.Background(), 1999)
	assert.Error(t, err)
}
