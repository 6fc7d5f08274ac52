package myfitnesspal

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"net/http/cookiejar"
	"net/url"
	"strings"
	"time"

	"mindbody-backend/pkg/recordstore"
)

// DateField identifies one diary day; a day is imported at most once.
const DateField = "date"

var (
	ErrMissingCredentials = errors.New("missing credentials")
	ErrInvalidCredentials = errors.New("myfitnesspal rejected the credentials")
	ErrUnavailable        = errors.New("myfitnesspal endpoint is not configured")
)

// Columns is the column order of a diary summary record.
var Columns = []string{DateField, "calories_consumed", "protein", "carbs", "fat"}

type Client struct {
	baseURL string
	timeout time.Duration
	now     func() time.Time
}

func NewClient(baseURL string, timeout time.Duration) *Client {
	if timeout <= 0 {
		timeout = 30 * time.Second
	}
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		timeout: timeout,
		now:     time.Now,
	}
}

// SetClock overrides the source of "today".
func (c *Client) SetClock(now func() time.Time) {
	c.now = now
}

// Available reports whether the client can reach a diary endpoint, with the reason when not.
func (c *Client) Available() (bool, string) {
	if c.baseURL == "" {
		return false, "MFP_BASE_URL is not set"
	}
	return true, ""
}

type diaryTotals struct {
	Calories      *float64 `json:"calories"`
	Protein       *float64 `json:"protein"`
	Carbohydrates *float64 `json:"carbohydrates"`
	Fat           *float64 `json:"fat"`
}

// Connect logs in with username and password and returns today's diary totals.
// Missing credentials fail before any request is made.
func (c *Client) Connect(ctx context.Context, username, password string) (recordstore.Record, error) {
	if strings.TrimSpace(username) == "" || password == "" {
		return nil, ErrMissingCredentials
	}
	if ok, _ := c.Available(); !ok {
		return nil, ErrUnavailable
	}

	jar, err := cookiejar.New(nil)
	if err != nil {
		return nil, err
	}
	client := &http.Client{Jar: jar, Timeout: c.timeout}

	if err := c.login(ctx, client, username, password); err != nil {
		return nil, err
	}

	today := c.now().Format("2006-01-02")
	totals, err := c.fetchTotals(ctx, client, today)
	if err != nil {
		return nil, err
	}
	return recordstore.Record{
		DateField:           today,
		"calories_consumed": formatTotal(totals.Calories),
		"protein":           formatTotal(totals.Protein),
		"carbs":             formatTotal(totals.Carbohydrates),
		"fat":               formatTotal(totals.Fat),
	}, nil
}

func (c *Client) login(ctx context.Context, client *http.Client, username, password string) error {
	form := url.Values{"username": {username}, "password": {password}}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+"/account/login", strings.NewReader(form.Encode()))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("myfitnesspal login: %w", err)
	}
	defer resp.Body.Close()
	_, _ = io.Copy(io.Discard, resp.Body)

	switch {
	case resp.StatusCode == http.StatusUnauthorized || resp.StatusCode == http.StatusForbidden:
		return ErrInvalidCredentials
	case resp.StatusCode < 200 || resp.StatusCode > 299:
		return fmt.Errorf("myfitnesspal login returned %d", resp.StatusCode)
	}
	return nil
}

func (c *Client) fetchTotals(ctx context.Context, client *http.Client, day string) (*diaryTotals, error) {
	endpoint := c.baseURL + "/api/diary/totals?" + url.Values{"date": {day}}.Encode()
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return nil, err
	}
	req.Header.Set("Accept", "application/json")
	resp, err := client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("myfitnesspal diary: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode == http.StatusUnauthorized {
		return nil, ErrInvalidCredentials
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		return nil, fmt.Errorf("myfitnesspal diary returned %d", resp.StatusCode)
	}
	var totals diaryTotals
	if err := json.NewDecoder(resp.Body).Decode(&totals); err != nil {
		return nil, fmt.Errorf("decode myfitnesspal diary: %w", err)
	}
	return &totals, nil
}

// A total the diary omits counts as zero.
func formatTotal(v *float64) string {
	if v == nil {
		return "0"
	}
	return recordstore.FormatValue(*v)
}
