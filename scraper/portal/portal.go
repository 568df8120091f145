package portal

import (
	"context"
	"fmt"
	"net/url"
	"os"
	"os/exec"
	"strings"
	"time"

	"github.com/chromedp/chromedp"

	"property-analyser/config"
	"property-analyser/models"
	"property-analyser/utils"
)

const source = "portal"

// card is one listing as extracted from a results or detail page.
type card struct {
	ID      string `json:"id"`
	Address string `json:"address"`
	Suburb  string `json:"suburb"`
	Price   string `json:"price"`
	Area    string `json:"area"`
	Income  string `json:"income"`
	URL     string `json:"url"`
}

// Scraper loads listings from a property portal with headless Chrome. Result
// pages are expected to mark each listing with data-listing-id and its fields
// with data-field="suburb|price|area|income|address".
type Scraper struct {
	cfg    *config.Config
	logger *utils.Logger
	pool   *utils.WorkerPool
	seen   *utils.KeySet
	retry  *utils.RetryConfig
}

// New creates a ready-to-use portal Scraper.
func New(cfg *config.Config, logger *utils.Logger) *Scraper {
	return &Scraper{
		cfg:    cfg,
		logger: logger,
		pool:   utils.NewWorkerPool(cfg.MaxConcurrency, cfg.RateLimitMs),
		seen:   utils.NewKeySet(),
		retry: &utils.RetryConfig{
			MaxAttempts: cfg.MaxRetries,
			BaseDelay:   2 * time.Second,
			Logger:      logger,
		},
	}
}

// FetchRaw walks the result pages starting at PORTAL_URL and returns every
// distinct listing found, filling gaps from detail pages.
func (s *Scraper) FetchRaw(ctx context.Context) ([]*models.RawListing, error) {
	chromeBin := findChromeBinary(s.cfg.ChromeBin)
	s.logger.Info("[portal] Starting scrape of %s (max %d pages), browser: %q",
		s.cfg.PortalURL, s.cfg.PortalPages, chromeBin)

	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", true),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("no-sandbox", true),
		chromedp.Flag("disable-dev-shm-usage", true),
	)
	if chromeBin != "" {
		opts = append(opts, chromedp.ExecPath(chromeBin))
	}

	allocCtx, cancelAlloc := chromedp.NewExecAllocator(ctx, opts...)
	defer cancelAlloc()

	browserCtx, cancelBrowser := chromedp.NewContext(allocCtx, chromedp.WithLogf(func(string, ...interface{}) {}))
	defer cancelBrowser()

	// start the browser so page tabs share it
	if err := chromedp.Run(browserCtx); err != nil {
		return nil, fmt.Errorf("portal: start browser: %w", err)
	}

	var listings []*models.RawListing
	pageURL := s.cfg.PortalURL
	for page := 1; page <= s.cfg.PortalPages && pageURL != ""; page++ {
		if !s.seen.Add("page:" + pageURL) {
			s.logger.Warn("[portal] Pagination loops back to %s, stopping", pageURL)
			break
		}

		cards, next, err := s.scrapePage(browserCtx, pageURL, page)
		if err != nil {
			if len(listings) == 0 {
				return nil, fmt.Errorf("portal: page %d: %w", page, err)
			}
			s.logger.Error("[portal] Page %d failed, keeping %d listings: %v", page, len(listings), err)
			break
		}
		if len(cards) == 0 {
			s.logger.Warn("[portal] Page %d returned 0 listings, stopping", page)
			break
		}

		fresh := s.toRawListings(cards)
		s.enrich(browserCtx, fresh)
		listings = append(listings, fresh...)

		s.logger.Info("[portal] Page %d done, %d listings so far", page, len(listings))
		pageURL = resolveURL(pageURL, next)
	}

	s.logger.Info("[portal] Scrape complete, %d raw listings", len(listings))
	return listings, nil
}

func (s *Scraper) scrapePage(browserCtx context.Context, pageURL string, page int) ([]card, string, error) {
	var cards []card
	var next string

	err := s.retry.Do(browserCtx, fmt.Sprintf("portal-page-%d", page), func() error {
		ctx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		ctx, cancelTimeout := context.WithTimeout(ctx, 90*time.Second)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(pageURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Evaluate(`window.scrollTo(0, document.body.scrollHeight)`, nil),
			chromedp.Sleep(time.Second),
			chromedp.Evaluate(extractCardsJS, &cards),
			chromedp.Evaluate(nextPageJS, &next),
		)
	})
	if err != nil {
		return nil, "", err
	}

	s.logger.Debug("[portal] Page %d: %d cards, next=%q", page, len(cards), next)
	for i := range cards {
		cards[i].URL = resolveURL(pageURL, cards[i].URL)
	}
	return cards, next, nil
}

// toRawListings drops cards already seen on earlier pages. Cards without an id
// are keyed by their detail URL.
func (s *Scraper) toRawListings(cards []card) []*models.RawListing {
	now := time.Now()
	out := make([]*models.RawListing, 0, len(cards))
	for _, c := range cards {
		key := c.ID
		if key == "" {
			key = c.URL
		}
		if key != "" && !s.seen.Add("listing:"+key) {
			s.logger.Debug("[portal] Skipping duplicate listing %s", key)
			continue
		}
		out = append(out, &models.RawListing{
			ListingID:         strings.TrimSpace(c.ID),
			Address:           c.Address,
			Suburb:            c.Suburb,
			Price:             c.Price,
			GrossLettableArea: c.Area,
			NetAnnualIncome:   c.Income,
			URL:               c.URL,
			Source:            source,
			FetchedAt:         now,
		})
	}
	return out
}

// enrich visits the detail page of every listing missing price, area or income.
func (s *Scraper) enrich(browserCtx context.Context, listings []*models.RawListing) {
	for _, l := range listings {
		l := l
		if l.URL == "" || !needsDetail(l) {
			continue
		}

		s.pool.Submit(func() {
			d, err := s.scrapeDetail(browserCtx, l.URL)
			if err != nil {
				s.logger.Warn("[portal] Detail page failed for %s: %v", l.URL, err)
				return
			}
			mergeDetail(l, d)
		})
	}
	s.pool.Wait()
}

func (s *Scraper) scrapeDetail(browserCtx context.Context, detailURL string) (card, error) {
	var d card
	err := s.retry.Do(browserCtx, "portal-detail", func() error {
		ctx, cancel := chromedp.NewContext(browserCtx)
		defer cancel()
		ctx, cancelTimeout := context.WithTimeout(ctx, 60*time.Second)
		defer cancelTimeout()

		return chromedp.Run(ctx,
			chromedp.Navigate(detailURL),
			chromedp.WaitReady("body", chromedp.ByQuery),
			chromedp.Evaluate(extractDetailJS, &d),
		)
	})
	return d, err
}

func needsDetail(l *models.RawListing) bool {
	return blank(l.Price) || blank(l.GrossLettableArea) || blank(l.NetAnnualIncome) || l.Suburb == ""
}

// mergeDetail fills only the fields the results page left blank.
func mergeDetail(l *models.RawListing, d card) {
	if blank(l.Price) && !blank(d.Price) {
		l.Price = d.Price
	}
	if blank(l.GrossLettableArea) && !blank(d.Area) {
		l.GrossLettableArea = d.Area
	}
	if blank(l.NetAnnualIncome) && !blank(d.Income) {
		l.NetAnnualIncome = d.Income
	}
	if l.Suburb == "" && d.Suburb != "" {
		l.Suburb = d.Suburb
	}
	if l.Address == "" && d.Address != "" {
		l.Address = d.Address
	}
	if l.ListingID == "" && d.ID != "" {
		l.ListingID = d.ID
	}
}

func blank(s string) bool {
	s = strings.TrimSpace(s)
	return s == "" || strings.EqualFold(s, "N/A")
}

// resolveURL makes ref absolute against base. An empty ref stays empty.
func resolveURL(base, ref string) string {
	ref = strings.TrimSpace(ref)
	if ref == "" {
		return ""
	}
	b, err := url.Parse(base)
	if err != nil {
		return ref
	}
	r, err := url.Parse(ref)
	if err != nil {
		return ref
	}
	return b.ResolveReference(r).String()
}

// findChromeBinary locates a Chrome/Chromium binary, preferring the configured one.
func findChromeBinary(configured string) string {
	if configured != "" {
		return configured
	}
	if bin := os.Getenv("CHROME_BIN"); bin != "" {
		return bin
	}

	names := []string{"google-chrome-stable", "google-chrome", "chromium", "chromium-browser"}
	for _, name := range names {
		if path, err := exec.LookPath(name); err == nil {
			return path
		}
	}
	return ""
}

const extractCardsJS = `
(function() {
	function text(root, field) {
		var el = root.querySelector('[data-field="' + field + '"]');
		if (el) return (el.getAttribute('content') || el.innerText || '').trim();
		return (root.getAttribute('data-' + field) || '').trim();
	}
	var results = [];
	var cards = document.querySelectorAll('[data-listing-id]');
	for (var i = 0; i < cards.length; i++) {
		var c = cards[i];
		var link = c.querySelector('a[href]');
		results.push({
			id:      c.getAttribute('data-listing-id') || '',
			address: text(c, 'address'),
			suburb:  text(c, 'suburb'),
			price:   text(c, 'price'),
			area:    text(c, 'area'),
			income:  text(c, 'income'),
			url:     link ? link.getAttribute('href') : ''
		});
	}
	return results;
})()
`

const nextPageJS = `
(function() {
	var el = document.querySelector('link[rel="next"]') ||
	         document.querySelector('a[rel="next"]') ||
	         document.querySelector('a[aria-label="Next"]');
	return el ? (el.getAttribute('href') || '') : '';
})()
`

const extractDetailJS = `
(function() {
	function text(field) {
		var el = document.querySelector('[data-field="' + field + '"]');
		return el ? (el.getAttribute('content') || el.innerText || '').trim() : '';
	}
	var root = document.querySelector('[data-listing-id]');
	return {
		id:      root ? (root.getAttribute('data-listing-id') || '') : '',
		address: text('address'),
		suburb:  text('suburb'),
		price:   text('price'),
		area:    text('area'),
		income:  text('income'),
		url:     location.href
	};
})()
`
