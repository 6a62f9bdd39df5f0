// Package steam fetches coarse meta signals from the public Steam news
// feed for Stellaris.
package steam

import (
	"encoding/json"
	"io"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/gsmcwhirter/go-util/v7/deferutil"
	"github.com/gsmcwhirter/go-util/v7/errors"
)

// DefaultAppID is the Stellaris Steam application id.
const DefaultAppID = 281990

// DefaultTimeout bounds the single outbound news request.
const DefaultTimeout = 5 * time.Second

const defaultBaseURL = "https://api.steampowered.com/ISteamNews/GetNewsForApp/v0002/"

const userAgent = "map-meta-parser/1.0"

const (
	newsCount     = 5
	newsMaxLength = 500
)

// keywordConfidence is the fixed score assigned on any keyword hit. The
// fields are binary-valued despite the name.
const keywordConfidence = 0.65

var ErrUnexpectedStatus = errors.New("unexpected response status")

// Meta carries the news-derived confidence scores. Error is set only on
// the degraded path built by FailedMeta.
type Meta struct {
	BioRushConfidence    float64 `json:"bio_rush_confidence"`
	VirtualityConfidence float64 `json:"virtuality_confidence"`
	Error                string  `json:"error,omitempty"`
}

// FailedMeta is the degraded result substituted by callers when FetchMeta
// fails; the fetch is best-effort and never aborts a run.
func FailedMeta(err error) Meta {
	return Meta{Error: err.Error()}
}

type Client struct {
	HTTPClient *http.Client
	BaseURL    string
	AppID      int
}

func NewClient(timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = DefaultTimeout
	}

	return &Client{
		HTTPClient: &http.Client{Timeout: timeout},
		BaseURL:    defaultBaseURL,
		AppID:      DefaultAppID,
	}
}

type newsResponse struct {
	AppNews struct {
		NewsItems []newsItem `json:"newsitems"`
	} `json:"appnews"`
}

type newsItem struct {
	Title    string `json:"title"`
	Contents string `json:"contents"`
}

// FetchMeta issues the single news request and scores the returned items.
// Any failure is returned as an error; converting that into a degraded
// Meta value is the caller's decision.
func (c *Client) FetchMeta() (Meta, error) {
	params := url.Values{}
	params.Set("appid", strconv.Itoa(c.AppID))
	params.Set("count", strconv.Itoa(newsCount))
	params.Set("maxlength", strconv.Itoa(newsMaxLength))
	params.Set("format", "json")

	req, err := http.NewRequest(http.MethodGet, c.BaseURL+"?"+params.Encode(), nil)
	if err != nil {
		return Meta{}, errors.Wrap(err, "could not build news request")
	}
	req.Header.Set("User-Agent", userAgent)

	resp, err := c.HTTPClient.Do(req)
	if err != nil {
		return Meta{}, errors.Wrap(err, "could not fetch news")
	}
	defer deferutil.CheckDefer(resp.Body.Close)

	if resp.StatusCode != http.StatusOK {
		return Meta{}, errors.Wrap(ErrUnexpectedStatus, "news request failed", "status", strconv.Itoa(resp.StatusCode))
	}

	raw, err := io.ReadAll(resp.Body)
	if err != nil {
		return Meta{}, errors.Wrap(err, "could not read news response")
	}

	payload := newsResponse{}
	if err := json.Unmarshal(raw, &payload); err != nil {
		return Meta{}, errors.Wrap(err, "could not json decode news response")
	}

	items := payload.AppNews.NewsItems
	if len(items) > newsCount {
		items = items[:newsCount]
	}

	return scoreItems(items), nil
}

func scoreItems(items []newsItem) Meta {
	parts := make([]string, 0, len(items))
	for _, item := range items {
		parts = append(parts, item.Title+" "+item.Contents)
	}
	blob := strings.ToLower(strings.Join(parts, " "))

	meta := Meta{}

	if strings.Contains(blob, "bio") || strings.Contains(blob, "genesis") {
		meta.BioRushConfidence = keywordConfidence
	}

	if strings.Contains(blob, "machine") || strings.Contains(blob, "virtual") {
		meta.VirtualityConfidence = keywordConfidence
	}

	return meta
}
