// Package dart provides a client for the DART corporate disclosure API.
package dart

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog"
)

const (
	listURL   = "https://opendart.fss.or.kr/api/list.json"
	viewerURL = "https://dart.fss.or.kr/dsaf001/main.do?rcpNo="

	statusOK      = "000"
	statusNoData  = "013"
	pageCount     = 100
	dateFormat    = "20060102"
	defaultWeight = 1.0
)

// Disclosure type categories with their importance weights. Material event
// reports weigh heaviest, routine fund and fair-trade filings the least.
var typeWeights = map[string]struct {
	Label  string
	Weight float64
}{
	"A": {"주요사항보고", 2.0},
	"B": {"주요경영사항", 1.8},
	"C": {"발행공시", 1.5},
	"D": {"지분공시", 1.5},
	"E": {"기타공시", 1.0},
	"F": {"외부감사관련", 1.5},
	"G": {"펀드공시", 1.0},
	"H": {"자산유동화", 1.0},
	"I": {"거래소공시", 1.5},
	"J": {"공정위공시", 1.0},
}

// Disclosure is a normalised corporate filing headline. Disclosures are
// administrative text, so they arrive pre-scored as rule-based neutral.
type Disclosure struct {
	Title            string
	Description      string
	SourceURL        string
	SourceName       string
	PublishedAt      time.Time
	ImportanceWeight float64
}

type listResponse struct {
	Status  string     `json:"status"`
	Message string     `json:"message"`
	List    []listItem `json:"list"`
}

type listItem struct {
	ReportName     string `json:"report_nm"`
	ReceiptDate    string `json:"rcept_dt"`
	ReceiptNo      string `json:"rcept_no"`
	DisclosureType string `json:"pblntf_ty"`
}

// Client calls the DART OpenAPI disclosure list endpoint.
type Client struct {
	http   *http.Client
	apiKey string
	log    zerolog.Logger
}

// NewClient creates a DART client.
func NewClient(apiKey string, log zerolog.Logger) *Client {
	return &Client{
		http:   &http.Client{Timeout: 15 * time.Second},
		apiKey: apiKey,
		log:    log.With().Str("client", "dart").Logger(),
	}
}

// Configured reports whether an API key is set.
func (c *Client) Configured() bool {
	return c.apiKey != ""
}

// ListDisclosures fetches filings for a stock code within [begin, end].
func (c *Client) ListDisclosures(ctx context.Context, stockCode string, begin, end time.Time) ([]Disclosure, error) {
	if !c.Configured() {
		c.log.Debug().Msg("dart API key not configured, skipping")
		return nil, nil
	}

	q := url.Values{}
	q.Set("crtfc_key", c.apiKey)
	q.Set("bgn_de", begin.Format(dateFormat))
	q.Set("end_de", end.Format(dateFormat))
	q.Set("stock_code", stockCode)
	q.Set("page_count", fmt.Sprintf("%d", pageCount))

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, listURL+"?"+q.Encode(), nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build dart request: %w", err)
	}

	resp, err := c.http.Do(req)
	if err != nil {
		return nil, fmt.Errorf("dart request failed for %s: %w", stockCode, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("dart API returned status %d for %s", resp.StatusCode, stockCode)
	}

	var body listResponse
	if err := json.NewDecoder(resp.Body).Decode(&body); err != nil {
		return nil, fmt.Errorf("failed to decode dart response: %w", err)
	}

	if body.Status != statusOK {
		if body.Status == statusNoData {
			return nil, nil
		}
		c.log.Debug().Str("status", body.Status).Str("message", body.Message).Msg("dart API status")
		return nil, nil
	}

	disclosures := make([]Disclosure, 0, len(body.List))
	for _, item := range body.List {
		publishedAt, err := time.Parse(dateFormat, item.ReceiptDate)
		if err != nil {
			continue
		}

		info, ok := typeWeights[item.DisclosureType]
		if !ok {
			info.Label, info.Weight = "기타", defaultWeight
		}

		disclosures = append(disclosures, Disclosure{
			Title:            "[공시] " + item.ReportName,
			Description:      info.Label + " - " + item.ReportName,
			SourceURL:        viewerURL + item.ReceiptNo,
			SourceName:       "DART",
			PublishedAt:      publishedAt.UTC(),
			ImportanceWeight: info.Weight,
		})
	}

	c.log.Debug().Str("ticker", stockCode).Int("count", len(disclosures)).Msg("dart disclosures fetched")
	return disclosures, nil
}
