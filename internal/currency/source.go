package currency

import (
	"context"
	"encoding/xml"
	"fmt"
	"io"
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"
)

// RateSet is one published fixing. Values holds, per currency, how many
// units of Base one unit of that currency is worth (multipliers already
// divided out).
type RateSet struct {
	Date   time.Time
	Base   string
	Values map[string]float64
}

// value returns the base-currency worth of one unit of cur.
func (s RateSet) value(cur string) (float64, bool) {
	if cur == s.Base {
		return 1, true
	}
	v, ok := s.Values[cur]
	return v, ok && v > 0
}

// RateSource publishes current and historical rates.
//
//go:generate mockgen -destination=mocks/mock_source.go -package=mocks -source=source.go RateSource
type RateSource interface {
	// Latest returns the most recent fixing.
	Latest(ctx context.Context) (RateSet, error)
	// Year returns every fixing published in year, ascending by date.
	Year(ctx context.Context, year int) ([]RateSet, error)
}

// FeedClient reads an XML rate feed shaped as
// DataSet/Body/{OrigCurrency, Cube[@date]/Rate[@currency, @multiplier]}.
type FeedClient struct {
	baseURL string
	base    string
	http    *http.Client
}

// NewFeedClient creates a client for the feed rooted at baseURL. base is the
// quote currency assumed when the document does not state one.
func NewFeedClient(baseURL, base string, timeout time.Duration) *FeedClient {
	return &FeedClient{
		baseURL: strings.TrimRight(baseURL, "/"),
		base:    base,
		http:    &http.Client{Timeout: timeout},
	}
}

type feedDocument struct {
	XMLName xml.Name `xml:"DataSet"`
	Body    struct {
		OrigCurrency string     `xml:"OrigCurrency"`
		Cubes        []feedCube `xml:"Cube"`
	} `xml:"Body"`
}

type feedCube struct {
	Date  string     `xml:"date,attr"`
	Rates []feedRate `xml:"Rate"`
}

type feedRate struct {
	Currency   string `xml:"currency,attr"`
	Multiplier string `xml:"multiplier,attr"`
	Value      string `xml:",chardata"`
}

func (c *FeedClient) Latest(ctx context.Context) (RateSet, error) {
	sets, err := c.fetch(ctx, c.baseURL+"/nbrfxrates.xml")
	if err != nil {
		return RateSet{}, err
	}
	if len(sets) == 0 {
		return RateSet{}, fmt.Errorf("latest rates: feed has no fixings")
	}
	return sets[len(sets)-1], nil
}

func (c *FeedClient) Year(ctx context.Context, year int) ([]RateSet, error) {
	return c.fetch(ctx, fmt.Sprintf("%s/files/xml/years/nbrfxrates%d.xml", c.baseURL, year))
}

func (c *FeedClient) fetch(ctx context.Context, url string) ([]RateSet, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, fmt.Errorf("build request: %w", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("get %s: %w", url, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("get %s: unexpected status %d", url, resp.StatusCode)
	}
	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read %s: %w", url, err)
	}
	return ParseFeed(body, c.base)
}

// ParseFeed decodes a feed document into fixings sorted by date.
func ParseFeed(data []byte, defaultBase string) ([]RateSet, error) {
	var doc feedDocument
	if err := xml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("decode feed: %w", err)
	}

	base := strings.ToUpper(strings.TrimSpace(doc.Body.OrigCurrency))
	if base == "" {
		base = defaultBase
	}

	sets := make([]RateSet, 0, len(doc.Body.Cubes))
	for _, cube := range doc.Body.Cubes {
		date, err := time.Parse("2006-01-02", cube.Date)
		if err != nil {
			return nil, fmt.Errorf("cube date %q: %w", cube.Date, err)
		}
		set := RateSet{Date: date, Base: base, Values: make(map[string]float64, len(cube.Rates))}
		for _, r := range cube.Rates {
			v, err := strconv.ParseFloat(strings.TrimSpace(r.Value), 64)
			if err != nil || v <= 0 {
				continue
			}
			if r.Multiplier != "" {
				m, err := strconv.ParseFloat(r.Multiplier, 64)
				if err == nil && m > 0 {
					v /= m
				}
			}
			set.Values[strings.ToUpper(r.Currency)] = v
		}
		sets = append(sets, set)
	}

	sort.Slice(sets, func(i, j int) bool { return sets[i].Date.Before(sets[j].Date) })
	return sets, nil
}
