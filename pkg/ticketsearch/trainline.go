package ticketsearch

import (
	"context"
	"fmt"
	"io"
	"net/http"
	"net/url"
	"os"
	"regexp"
	"sort"
	"strconv"
	"time"

	"TrainChecker/pkg/redis"

	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

const (
	defaultBaseURL   = "https://www.thetrainline.com/book/results"
	defaultUserAgent = "Mozilla/5.0 (X11; Linux x86_64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/120.0 Safari/537.36"
	defaultCacheTTL  = 10 * time.Minute
)

var priceRegex = regexp.MustCompile(`£(\d+\.\d{2})`)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// trainlineSearch fetches the results page for a journey and scrapes the
// cheapest advertised fare. When the page cannot be fetched or no fare is
// found, it still returns the deep link so the user can book manually.
type trainlineSearch struct {
	baseURL   string
	userAgent string
	client    *http.Client
	cache     redis.IRedis
	cacheTTL  time.Duration
	log       *logrus.Logger
}

// NewTrainlineSearch builds the default searcher. The cache is optional;
// pass nil to search uncached.
func NewTrainlineSearch(cache redis.IRedis, log *logrus.Logger) ITicketSearch {
	baseURL := os.Getenv("TRAINLINE_BASE_URL")
	if baseURL == "" {
		baseURL = defaultBaseURL
	}

	return &trainlineSearch{
		baseURL:   baseURL,
		userAgent: defaultUserAgent,
		client:    &http.Client{Timeout: 30 * time.Second},
		cache:     cache,
		cacheTTL:  defaultCacheTTL,
		log:       log,
	}
}

func (t *trainlineSearch) Search(ctx context.Context, q Query) (*Ticket, error) {
	if q.Departure == "" || q.Destination == "" {
		return nil, fmt.Errorf("search query missing stations")
	}

	cacheKey := fareCacheKey(q)
	if t.cache != nil {
		if cached, err := t.cache.GetFare(ctx, cacheKey); err == nil {
			var ticket Ticket
			if err := json.UnmarshalFromString(cached, &ticket); err == nil {
				t.log.WithFields(logrus.Fields{
					"key": cacheKey,
				}).Debug("Fare served from cache")
				return &ticket, nil
			}
		}
	}

	link := t.bookingLink(q)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, link, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to build search request: %w", err)
	}
	req.Header.Set("User-Agent", t.userAgent)

	resp, err := t.client.Do(req)
	if err != nil {
		t.log.WithFields(logrus.Fields{
			"url":   link,
			"error": err.Error(),
		}).Warn("Fare page fetch failed, falling back to deep link")
		return &Ticket{URL: link}, nil
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		t.log.WithFields(logrus.Fields{
			"url":    link,
			"status": resp.StatusCode,
		}).Warn("Fare page returned non-OK status, falling back to deep link")
		return &Ticket{URL: link}, nil
	}

	body, err := io.ReadAll(io.LimitReader(resp.Body, 4<<20))
	if err != nil {
		return &Ticket{URL: link}, nil
	}

	ticket := &Ticket{URL: link}
	if price, ok := cheapestFare(body); ok {
		ticket.Price = price
	}

	if t.cache != nil && ticket.Price != "" {
		if encoded, err := json.MarshalToString(ticket); err == nil {
			if err := t.cache.SetFare(ctx, cacheKey, encoded, t.cacheTTL); err != nil {
				t.log.WithFields(logrus.Fields{
					"key":   cacheKey,
					"error": err.Error(),
				}).Warn("Failed to cache fare")
			}
		}
	}

	return ticket, nil
}

func (t *trainlineSearch) bookingLink(q Query) string {
	params := url.Values{}
	params.Set("originStation", q.Departure)
	params.Set("destinationStation", q.Destination)
	params.Set("outwardDate", q.Date.Format("2006-01-02"))
	if q.Time != "" {
		params.Set("outwardTime", q.Time)
	}
	if q.TripType == "return" {
		params.Set("journeyType", "return")
		if q.ReturnDate != nil {
			params.Set("returnDate", q.ReturnDate.Format("2006-01-02"))
		}
		if q.ReturnTime != "" {
			params.Set("returnTime", q.ReturnTime)
		}
	} else {
		params.Set("journeyType", "single")
	}

	return t.baseURL + "?" + params.Encode()
}

// cheapestFare scans the page for advertised prices and returns the
// lowest one, formatted back with the currency sign.
func cheapestFare(body []byte) (string, bool) {
	matches := priceRegex.FindAllSubmatch(body, -1)
	if len(matches) == 0 {
		return "", false
	}

	prices := make([]float64, 0, len(matches))
	for _, m := range matches {
		if v, err := strconv.ParseFloat(string(m[1]), 64); err == nil {
			prices = append(prices, v)
		}
	}
	if len(prices) == 0 {
		return "", false
	}

	sort.Float64s(prices)
	return fmt.Sprintf("£%.2f", prices[0]), true
}

func fareCacheKey(q Query) string {
	return fmt.Sprintf("fare:%s:%s:%s:%s:%s",
		q.Departure, q.Destination, q.Date.Format("2006-01-02"), q.Time, q.TripType)
}
