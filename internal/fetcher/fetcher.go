package fetcher

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"time"

	"github.com/rs/zerolog/log"

	"contract-discovery/internal/config"
	"contract-discovery/internal/models"
)

// Client fetches procurement notices from the Contracts Finder OCDS
// search endpoint. The API pages with a cursor link and requires both
// publishedFrom and publishedTo to filter properly.
type Client struct {
	httpClient *http.Client
	baseURL    string
	limit      int
}

func NewClient(cfg config.FetcherConfig) *Client {
	return &Client{
		httpClient: &http.Client{Timeout: 30 * time.Second},
		baseURL:    cfg.BaseURL,
		limit:      cfg.Limit,
	}
}

// FetchContracts pages through every published notice in the window and
// keeps only active tenders that are still open.
func (c *Client) FetchContracts(ctx context.Context, publishedFrom, publishedTo time.Time) ([]models.Contract, error) {
	var contracts []models.Contract
	cursor := ""
	for {
		page, next, err := c.fetchPage(ctx, cursor, publishedFrom, publishedTo)
		if err != nil {
			return nil, err
		}
		contracts = append(contracts, page...)
		if next == "" {
			break
		}
		cursor = next
	}
	log.Info().Int("contracts", len(contracts)).Msg("Fetched active contracts")
	return contracts, nil
}

func (c *Client) fetchPage(ctx context.Context, cursor string, publishedFrom, publishedTo time.Time) ([]models.Contract, string, error) {
	requestURL := cursor
	if requestURL == "" {
		params := url.Values{}
		params.Set("limit", fmt.Sprintf("%d", c.limit))
		params.Set("format", "json")
		params.Set("publishedFrom", publishedFrom.Format(time.RFC3339))
		params.Set("publishedTo", publishedTo.Format(time.RFC3339))
		requestURL = c.baseURL + "?" + params.Encode()
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, requestURL, nil)
	if err != nil {
		return nil, "", err
	}

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, "", err
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		return nil, "", fmt.Errorf("contracts finder request failed: %d, %s", resp.StatusCode, string(body))
	}

	var payload ocdsResponse
	if err := json.NewDecoder(resp.Body).Decode(&payload); err != nil {
		return nil, "", err
	}

	return parseReleases(payload.Releases), payload.Links.Next, nil
}

type ocdsResponse struct {
	Releases []ocdsRelease `json:"releases"`
	Links    struct {
		Next string `json:"next"`
	} `json:"links"`
}

type ocdsRelease struct {
	ID    string `json:"id"`
	Date  string `json:"date"`
	Buyer struct {
		Name string `json:"name"`
	} `json:"buyer"`
	Tender struct {
		Title       string `json:"title"`
		Description string `json:"description"`
		Status      string `json:"status"`
		Value       struct {
			Amount float64 `json:"amount"`
		} `json:"value"`
		TenderPeriod struct {
			EndDate string `json:"endDate"`
		} `json:"tenderPeriod"`
		Items []struct {
			Classification struct {
				ID string `json:"id"`
			} `json:"classification"`
			DeliveryAddresses []struct {
				Region string `json:"region"`
			} `json:"deliveryAddresses"`
		} `json:"items"`
	} `json:"tender"`
}

// parseReleases keeps active tenders whose closing date has not passed
func parseReleases(releases []ocdsRelease) []models.Contract {
	now := time.Now().UTC()
	var contracts []models.Contract
	for _, release := range releases {
		if release.Tender.Status != "active" {
			log.Debug().Str("notice_id", release.ID).Str("status", release.Tender.Status).Msg("Skipping non-active tender")
			continue
		}

		contract := models.Contract{
			NoticeID:    release.ID,
			Title:       release.Tender.Title,
			Description: release.Tender.Description,
			BuyerName:   release.Buyer.Name,
			Value:       release.Tender.Value.Amount,
		}
		contract.PublishedDate = parseOCDSTime(release.Date)
		contract.ClosingDate = parseOCDSTime(release.Tender.TenderPeriod.EndDate)
		if !contract.ClosingDate.IsZero() && contract.ClosingDate.Before(now) {
			continue
		}

		for _, item := range release.Tender.Items {
			if item.Classification.ID != "" {
				contract.CPVCodes = append(contract.CPVCodes, item.Classification.ID)
			}
			if contract.Region == "" && len(item.DeliveryAddresses) > 0 {
				contract.Region = item.DeliveryAddresses[0].Region
			}
		}
		contracts = append(contracts, contract)
	}
	return contracts
}

func parseOCDSTime(raw string) time.Time {
	if raw == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339, "2006-01-02T15:04:05Z07:00", "2006-01-02"} {
		if parsed, err := time.Parse(layout, raw); err == nil {
			return parsed
		}
	}
	return time.Time{}
}
