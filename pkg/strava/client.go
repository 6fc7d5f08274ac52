package strava

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"mindbody-backend/pkg/recordstore"

	"golang.org/x/oauth2"
)

const (
	DefaultAuthURL  = "https://www.strava.com/oauth/authorize"
	DefaultTokenURL = "https://www.strava.com/oauth/token"
	DefaultAPIBase  = "https://www.strava.com/api/v3"

	Scope = "activity:read_all"
)

// Identity field emitted for every activity record.
const ActivityIDField = "activity_id"

// ProfileKey identifies a Strava athlete row in the profile table.
const ProfileKey = "strava_id"

var ErrMissingAccessToken = errors.New("strava token has no access_token")

// TokenUpdateFunc receives a token blob after the access token was refreshed.
type TokenUpdateFunc = func(blob map[string]any) error

// APIError is a non-2xx answer from the Strava REST API.
type APIError struct {
	StatusCode int
	Body       string
}

func (e *APIError) Error() string {
	return fmt.Sprintf("strava api returned %d: %s", e.StatusCode, e.Body)
}

type Config struct {
	ClientID     string
	ClientSecret string
	RedirectURI  string
	AuthURL      string
	TokenURL     string
	APIBase      string
	HTTPClient   *http.Client
}

type Client struct {
	oauth      *oauth2.Config
	apiBase    string
	httpClient *http.Client
}

type notifyTokenSource struct {
	src      oauth2.TokenSource
	current  *oauth2.Token
	callback TokenUpdateFunc
}

func (s *notifyTokenSource) Token() (*oauth2.Token, error) {
	t, err := s.src.Token()
	if err != nil {
		return nil, err
	}
	if s.callback != nil && s.current.AccessToken != t.AccessToken {
		s.current = t
		if err := s.callback(BlobFromToken(t)); err != nil {
			log.Printf("[Strava] Failed to persist refreshed token: %v", err)
		}
	}
	return t, nil
}

func NewClient(cfg Config) *Client {
	authURL := cfg.AuthURL
	if authURL == "" {
		authURL = DefaultAuthURL
	}
	tokenURL := cfg.TokenURL
	if tokenURL == "" {
		tokenURL = DefaultTokenURL
	}
	apiBase := cfg.APIBase
	if apiBase == "" {
		apiBase = DefaultAPIBase
	}
	httpClient := cfg.HTTPClient
	if httpClient == nil {
		httpClient = &http.Client{Timeout: 30 * time.Second}
	}
	return &Client{
		oauth: &oauth2.Config{
			ClientID:     cfg.ClientID,
			ClientSecret: cfg.ClientSecret,
			RedirectURL:  cfg.RedirectURI,
			Scopes:       []string{Scope},
			Endpoint: oauth2.Endpoint{
				AuthURL:   authURL,
				TokenURL:  tokenURL,
				AuthStyle: oauth2.AuthStyleInParams,
			},
		},
		apiBase:    strings.TrimRight(apiBase, "/"),
		httpClient: httpClient,
	}
}

// Configured reports whether client credentials were supplied.
func (c *Client) Configured() bool {
	return c.oauth.ClientID != "" && c.oauth.ClientSecret != ""
}

// AuthCodeURL builds the authorization redirect carrying state.
func (c *Client) AuthCodeURL(state string) string {
	return c.oauth.AuthCodeURL(state, oauth2.SetAuthURLParam("approval_prompt", "auto"))
}

func (c *Client) withHTTPClient(ctx context.Context) context.Context {
	return context.WithValue(ctx, oauth2.HTTPClient, c.httpClient)
}

// ExchangeCode trades an authorization code for a token blob.
func (c *Client) ExchangeCode(ctx context.Context, code string) (map[string]any, error) {
	if strings.TrimSpace(code) == "" {
		return nil, errors.New("authorization code is empty")
	}
	tok, err := c.oauth.Exchange(c.withHTTPClient(ctx), code)
	if err != nil {
		return nil, fmt.Errorf("exchange strava code: %w", err)
	}
	blob := BlobFromToken(tok)
	if athlete, ok := tok.Extra("athlete").(map[string]any); ok {
		if id := recordstore.FormatValue(athlete["id"]); id != "" {
			blob["athlete_id"] = id
		}
	}
	return blob, nil
}

// BlobFromToken flattens an oauth2 token into the stored credential shape.
func BlobFromToken(t *oauth2.Token) map[string]any {
	blob := map[string]any{
		"access_token":  t.AccessToken,
		"refresh_token": t.RefreshToken,
		"token_type":    t.TokenType,
	}
	if !t.Expiry.IsZero() {
		blob["expires_at"] = t.Expiry.Unix()
	}
	return blob
}

// TokenFromBlob rebuilds an oauth2 token from a stored blob.
func TokenFromBlob(blob map[string]any) (*oauth2.Token, error) {
	access := blobString(blob, "access_token")
	if access == "" {
		return nil, ErrMissingAccessToken
	}
	tok := &oauth2.Token{
		AccessToken:  access,
		RefreshToken: blobString(blob, "refresh_token"),
		TokenType:    blobString(blob, "token_type"),
	}
	if tok.TokenType == "" {
		tok.TokenType = "Bearer"
	}
	if exp := blobString(blob, "expires_at"); exp != "" {
		secs, err := strconv.ParseFloat(exp, 64)
		if err != nil {
			return nil, fmt.Errorf("invalid expires_at %q: %w", exp, err)
		}
		tok.Expiry = time.Unix(int64(secs), 0)
	}
	return tok, nil
}

func blobString(blob map[string]any, key string) string {
	v, ok := blob[key]
	if !ok {
		return ""
	}
	return recordstore.FormatValue(v)
}

func (c *Client) apiClient(ctx context.Context, blob map[string]any, onRefresh TokenUpdateFunc) (*http.Client, error) {
	tok, err := TokenFromBlob(blob)
	if err != nil {
		return nil, err
	}
	ctx = c.withHTTPClient(ctx)
	src := &notifyTokenSource{
		src:      c.oauth.TokenSource(ctx, tok),
		current:  tok,
		callback: onRefresh,
	}
	return oauth2.NewClient(ctx, src), nil
}

func (c *Client) getJSON(ctx context.Context, client *http.Client, path string, query url.Values, out any) error {
	endpoint := c.apiBase + path
	if len(query) > 0 {
		endpoint += "?" + query.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, endpoint, nil)
	if err != nil {
		return err
	}
	resp, err := client.Do(req)
	if err != nil {
		return fmt.Errorf("strava request %s: %w", path, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		body, _ := io.ReadAll(io.LimitReader(resp.Body, 512))
		return &APIError{StatusCode: resp.StatusCode, Body: strings.TrimSpace(string(body))}
	}
	dec := json.NewDecoder(resp.Body)
	dec.UseNumber()
	if err := dec.Decode(out); err != nil {
		return fmt.Errorf("decode strava %s: %w", path, err)
	}
	return nil
}

// FetchActivities returns the athlete's most recent activities, newest first.
func (c *Client) FetchActivities(ctx context.Context, blob map[string]any, pageSize int, onRefresh TokenUpdateFunc) ([]recordstore.Record, error) {
	client, err := c.apiClient(ctx, blob, onRefresh)
	if err != nil {
		return nil, err
	}
	if pageSize <= 0 {
		pageSize = 50
	}
	var raw []map[string]any
	query := url.Values{"per_page": {strconv.Itoa(pageSize)}}
	if err := c.getJSON(ctx, client, "/athlete/activities", query, &raw); err != nil {
		return nil, err
	}

	records := make([]recordstore.Record, 0, len(raw))
	for _, a := range raw {
		records = append(records, recordstore.Record{
			ActivityIDField:        recordstore.FormatValue(a["id"]),
			"name":                 recordstore.FormatValue(a["name"]),
			"distance":             recordstore.FormatValue(a["distance"]),
			"type":                 recordstore.FormatValue(a["type"]),
			"start_date":           recordstore.FormatValue(a["start_date"]),
			"elapsed_time":         recordstore.FormatValue(a["elapsed_time"]),
			"average_speed":        recordstore.FormatValue(a["average_speed"]),
			"total_elevation_gain": recordstore.FormatValue(a["total_elevation_gain"]),
			"calories":             recordstore.FormatValue(a["calories"]),
		})
	}
	return records, nil
}

// ActivityColumns is the column order used for activity records.
var ActivityColumns = []string{
	ActivityIDField, "name", "distance", "type", "start_date",
	"elapsed_time", "average_speed", "total_elevation_gain", "calories",
}

// ProfileColumns is the column order used for profile records.
var ProfileColumns = []string{
	ProfileKey, "firstname", "lastname", "city", "country", "sex", "weight", "created_at", "updated_at",
}

// FetchProfile returns the authenticated athlete.
func (c *Client) FetchProfile(ctx context.Context, blob map[string]any, onRefresh TokenUpdateFunc) (recordstore.Record, error) {
	client, err := c.apiClient(ctx, blob, onRefresh)
	if err != nil {
		return nil, err
	}
	var raw map[string]any
	if err := c.getJSON(ctx, client, "/athlete", nil, &raw); err != nil {
		return nil, err
	}
	id := recordstore.FormatValue(raw["id"])
	if id == "" {
		return nil, errors.New("strava profile has no id")
	}
	return recordstore.Record{
		ProfileKey:   id,
		"firstname":  recordstore.FormatValue(raw["firstname"]),
		"lastname":   recordstore.FormatValue(raw["lastname"]),
		"city":       recordstore.FormatValue(raw["city"]),
		"country":    recordstore.FormatValue(raw["country"]),
		"sex":        recordstore.FormatValue(raw["sex"]),
		"weight":     recordstore.FormatValue(raw["weight"]),
		"created_at": recordstore.FormatValue(raw["created_at"]),
		"updated_at": recordstore.FormatValue(raw["updated_at"]),
	}, nil
}
