// Package mediawiki exports scan transcriptions from a MediaWiki
// installation running the ProofreadPage extension.
package mediawiki

import (
	"context"
	"encoding/json"
	"encoding/xml"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"regexp"
	"strings"
	"sync"
	"time"

	"github.com/antchfx/xmlquery"
	"golang.org/x/net/publicsuffix"

	"github.com/dgallion1/wikiscan/internal/doctree"
)

// ErrMissingPage is returned when the first transcription page of a scan
// does not exist.
var ErrMissingPage = errors.New("scan has no transcription pages")

var scanTitlePattern = regexp.MustCompile(`:([^:]+?\.djvu)`)

// Config holds the connection settings.
type Config struct {
	APIURL    string
	User      string
	Password  string
	IndexPage string
	Timeout   time.Duration
}

// Client talks to the wiki API. It keeps one login session in its cookie
// jar and is safe for concurrent use once logged in.
type Client struct {
	apiURL     string
	user       string
	password   string
	indexPage  string
	httpClient *http.Client
	stats      *RequestStats
	log        *slog.Logger

	attempts uint
	backoff  func(int) time.Duration

	loginMu  sync.Mutex
	loggedIn bool
}

func NewClient(cfg Config, log *slog.Logger) (*Client, error) {
	if cfg.APIURL == "" {
		return nil, errors.New("mediawiki: api url is required")
	}
	jar, err := cookiejar.New(&cookiejar.Options{PublicSuffixList: publicsuffix.List})
	if err != nil {
		return nil, fmt.Errorf("create cookie jar: %w", err)
	}
	timeout := cfg.Timeout
	if timeout <= 0 {
		timeout = 60 * time.Second
	}
	if log == nil {
		log = slog.New(slog.NewTextHandler(io.Discard, nil))
	}
	indexPage := cfg.IndexPage
	if indexPage == "" {
		indexPage = "Scans"
	}
	return &Client{
		apiURL:    cfg.APIURL,
		user:      cfg.User,
		password:  cfg.Password,
		indexPage: indexPage,
		httpClient: &http.Client{
			Timeout: timeout,
			Jar:     jar,
		},
		stats:    NewRequestStats(time.Hour),
		log:      log,
		attempts: MaxRetries,
		backoff:  Backoff,
	}, nil
}

// Stats returns the rolling request statistics.
func (c *Client) Stats() *RequestStats {
	return c.stats
}

type apiPage struct {
	Title     string `json:"title"`
	Missing   bool   `json:"missing"`
	Revisions []struct {
		Content string `json:"content"`
	} `json:"revisions"`
}

type apiResponse struct {
	Login *struct {
		Result string `json:"result"`
		Token  string `json:"token"`
		Reason string `json:"reason"`
	} `json:"login"`
	Query *struct {
		Pages []apiPage `json:"pages"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

// post sends one form-encoded API request, retrying transient failures.
func (c *Client) post(ctx context.Context, params url.Values) (*apiResponse, error) {
	var out *apiResponse
	err := withRetry(ctx, c.attempts, c.backoff,
		func(n uint, err error) {
			c.stats.RecordRetry()
			c.log.Warn("retryable wiki error", "attempt", n, "error", err)
		},
		func() error {
			start := time.Now()
			resp, err := c.doPost(ctx, params)
			c.stats.Record(time.Since(start), err != nil)
			out = resp
			return err
		})
	if err != nil {
		return nil, err
	}
	return out, nil
}

func (c *Client) doPost(ctx context.Context, params url.Values) (*apiResponse, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.apiURL, strings.NewReader(params.Encode()))
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")

	resp, err := c.httpClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("wiki request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read response: %w", err)
	}
	if resp.StatusCode == http.StatusTooManyRequests || resp.StatusCode >= 500 {
		return nil, &RetryableError{StatusCode: resp.StatusCode, Message: string(body)}
	}
	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("wiki api status %d: %s", resp.StatusCode, truncate(string(body), 200))
	}

	var out apiResponse
	if err := json.Unmarshal(body, &out); err != nil {
		return nil, fmt.Errorf("decode response: %w", err)
	}
	if out.Error != nil {
		return nil, fmt.Errorf("wiki api error %s: %s", out.Error.Code, out.Error.Info)
	}
	return &out, nil
}

// Login authenticates with the legacy two-step flow: the first request
// returns a token that the second one confirms.
func (c *Client) Login(ctx context.Context) error {
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	return c.loginLocked(ctx)
}

func (c *Client) loginLocked(ctx context.Context) error {
	params := url.Values{
		"action":     {"login"},
		"format":     {"json"},
		"lgname":     {c.user},
		"lgpassword": {c.password},
	}
	r, err := c.post(ctx, params)
	if err != nil {
		return fmt.Errorf("login: %w", err)
	}
	if r.Login == nil || r.Login.Token == "" {
		return errors.New("login: no token in response")
	}

	params.Set("lgtoken", r.Login.Token)
	r, err = c.post(ctx, params)
	if err != nil {
		return fmt.Errorf("login confirm: %w", err)
	}
	if r.Login == nil || r.Login.Result != "Success" {
		result, reason := "", ""
		if r.Login != nil {
			result, reason = r.Login.Result, r.Login.Reason
		}
		return fmt.Errorf("login failed: result %q %s", result, reason)
	}

	c.loggedIn = true
	c.log.Info("logged in to wiki", "user", c.user)
	return nil
}

// ensureLogin logs in once when credentials are configured.
func (c *Client) ensureLogin(ctx context.Context) error {
	if c.user == "" {
		return nil
	}
	c.loginMu.Lock()
	defer c.loginMu.Unlock()
	if c.loggedIn {
		return nil
	}
	return c.loginLocked(ctx)
}

// pageContent fetches the latest revision of one page. A missing page is
// reported with ok=false.
func (c *Client) pageContent(ctx context.Context, title string) (content string, ok bool, err error) {
	r, err := c.post(ctx, url.Values{
		"action":        {"query"},
		"format":        {"json"},
		"formatversion": {"2"},
		"prop":          {"revisions"},
		"rvprop":        {"content"},
		"titles":        {title},
	})
	if err != nil {
		return "", false, err
	}
	if r.Query == nil || len(r.Query.Pages) == 0 {
		return "", false, fmt.Errorf("query %q: no pages in response", title)
	}
	page := r.Query.Pages[0]
	if page.Missing {
		return "", false, nil
	}
	if len(page.Revisions) == 0 {
		return "", false, fmt.Errorf("query %q: no revisions in response", title)
	}
	return page.Revisions[0].Content, true, nil
}

// ScanTitles lists the scans linked from the index page.
func (c *Client) ScanTitles(ctx context.Context) ([]string, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}
	content, ok, err := c.pageContent(ctx, c.indexPage)
	if err != nil {
		return nil, fmt.Errorf("scan titles: %w", err)
	}
	if !ok {
		return nil, fmt.Errorf("scan titles: index page %q: %w", c.indexPage, ErrMissingPage)
	}

	var titles []string
	for _, m := range scanTitlePattern.FindAllStringSubmatch(content, -1) {
		titles = append(titles, m[1])
	}
	if len(titles) == 0 {
		c.log.Warn("no djvu files found on index page", "page", c.indexPage)
	}
	return titles, nil
}

// FetchSource downloads every transcription page Page:<title>/<n>, starting
// at 1, until the wiki reports a page missing.
func (c *Client) FetchSource(ctx context.Context, title string) (*doctree.Source, error) {
	if err := c.ensureLogin(ctx); err != nil {
		return nil, err
	}

	src := &doctree.Source{Title: title}
	for n := 1; ; n++ {
		content, ok, err := c.pageContent(ctx, fmt.Sprintf("Page:%s/%d", title, n))
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", title, n, err)
		}
		if !ok {
			if n == 1 {
				return nil, fmt.Errorf("fetch %s: %w", title, ErrMissingPage)
			}
			break
		}

		text, err := TranscriptionText(content)
		if err != nil {
			return nil, fmt.Errorf("fetch %s page %d: %w", title, n, err)
		}
		if strings.TrimSpace(text) == "" {
			return nil, fmt.Errorf("page %d of scan title %q is empty", n, title)
		}
		src.Pages = append(src.Pages, text)
		c.log.Debug("page exported", "title", title, "page", n)
	}
	return src, nil
}

// pageMarkup tolerates what transcribers type into wikitext: bare
// ampersands, HTML entities and void tags such as <br>.
var pageMarkup = xmlquery.ParserOptions{
	Decoder: &xmlquery.DecoderOptions{
		Strict:    false,
		AutoClose: xml.HTMLAutoClose,
		Entity:    xml.HTMLEntity,
	},
}

// TranscriptionText returns the text of the first <noinclude> element of a
// page revision.
func TranscriptionText(content string) (string, error) {
	doc, err := xmlquery.ParseWithOptions(strings.NewReader("<page>"+content+"</page>"), pageMarkup)
	if err != nil {
		return "", fmt.Errorf("parse page markup: %w", err)
	}
	node := xmlquery.FindOne(doc, "//noinclude")
	if node == nil {
		return "", errors.New("unrecognised page structure: no <noinclude> element")
	}
	return node.InnerText(), nil
}

// Close releases idle connections.
func (c *Client) Close() {
	c.httpClient.CloseIdleConnections()
}

func truncate(s string, n int) string {
	if len(s) <= n {
		return s
	}
	return s[:n] + "..."
}
