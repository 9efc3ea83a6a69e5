// Package google appends ledger backup rows to a Google spreadsheet.
package google

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net"
	"net/http"
	"os"
	"strconv"
	"strings"
	"time"

	"golang.org/x/oauth2"
	googleauth "golang.org/x/oauth2/google"
	goption "google.golang.org/api/option"
	gsheet "google.golang.org/api/sheets/v4"

	"github.com/huy7715/money-tracker/internal/core"
	ports "github.com/huy7715/money-tracker/internal/sheets"
)

// Options configures the backup client. Credentials come either inline
// as JSON or from a file; inline wins when both are set. The token is
// the offline OAuth token produced by the oauth-init command.
type Options struct {
	SpreadsheetID string
	// Base sheet name without year (e.g. "Transactions"); the client
	// prefixes the current year so each year gets its own tab.
	SheetName string

	OAuthClientJSON string
	OAuthClientFile string
	OAuthTokenJSON  string
	OAuthTokenFile  string
}

type Client struct {
	svc           *gsheet.Service
	spreadsheetID string
	sheetName     string
}

var _ ports.BackupWriter = (*Client)(nil)

const (
	dateTimeLayout   = "2006-01-02 15:04:05"
	defaultSheetBase = "Transactions"
)

func New(ctx context.Context, opts Options) (*Client, error) {
	if strings.TrimSpace(opts.SpreadsheetID) == "" {
		return nil, errors.New("missing spreadsheet ID")
	}

	base := strings.TrimSpace(opts.SheetName)
	if base == "" {
		base = defaultSheetBase
	}

	svc, err := newSheetsService(ctx, opts)
	if err != nil {
		return nil, fmt.Errorf("sheets service: %w", err)
	}

	return &Client{
		svc:           svc,
		spreadsheetID: strings.TrimSpace(opts.SpreadsheetID),
		sheetName:     yearPrefixedName(base, time.Now().Year()),
	}, nil
}

// newSheetsService builds a Sheets service authenticated with the
// stored OAuth client and offline token.
func newSheetsService(ctx context.Context, opts Options) (*gsheet.Service, error) {
	clientJSON, err := loadJSON(opts.OAuthClientJSON, opts.OAuthClientFile)
	if err != nil {
		return nil, fmt.Errorf("load oauth client: %w", err)
	}
	if clientJSON == nil {
		return nil, errors.New("missing oauth client credentials (set GOOGLE_OAUTH_CLIENT_JSON or GOOGLE_OAUTH_CLIENT_FILE)")
	}

	tokenJSON, err := loadJSON(opts.OAuthTokenJSON, opts.OAuthTokenFile)
	if err != nil {
		return nil, fmt.Errorf("load oauth token: %w", err)
	}
	if tokenJSON == nil {
		return nil, errors.New("missing oauth token (run oauth-init, then set GOOGLE_OAUTH_TOKEN_JSON or GOOGLE_OAUTH_TOKEN_FILE)")
	}

	cfg, err := googleauth.ConfigFromJSON(clientJSON, gsheet.SpreadsheetsScope)
	if err != nil {
		return nil, fmt.Errorf("parse oauth client: %w", err)
	}

	var tok oauth2.Token
	if err := json.Unmarshal(tokenJSON, &tok); err != nil {
		return nil, fmt.Errorf("parse oauth token: %w", err)
	}

	// Route the oauth2 transport through a pooled base client so the
	// worker reuses connections across appends.
	ctx = context.WithValue(ctx, oauth2.HTTPClient, newHTTPClientWithPooling())
	httpClient := cfg.Client(ctx, &tok)

	service, err := gsheet.NewService(ctx, goption.WithHTTPClient(httpClient))
	if err != nil {
		return nil, fmt.Errorf("create sheets service: %w", err)
	}
	return service, nil
}

func loadJSON(inline, file string) ([]byte, error) {
	switch {
	case strings.TrimSpace(inline) != "":
		return []byte(inline), nil
	case strings.TrimSpace(file) != "":
		b, err := os.ReadFile(strings.TrimSpace(file))
		if err != nil {
			return nil, fmt.Errorf("read %s: %w", file, err)
		}
		return b, nil
	default:
		return nil, nil
	}
}

// newHTTPClientWithPooling returns an HTTP client tuned for repeated
// Sheets API calls: pooled connections, keep-alive, HTTP/2.
func newHTTPClientWithPooling() *http.Client {
	dialer := &net.Dialer{
		Timeout:   30 * time.Second,
		KeepAlive: 30 * time.Second,
	}

	transport := &http.Transport{
		DialContext: dialer.DialContext,

		MaxIdleConns:        100,
		MaxIdleConnsPerHost: 10,
		MaxConnsPerHost:     50,
		IdleConnTimeout:     90 * time.Second,

		TLSHandshakeTimeout:   10 * time.Second,
		ResponseHeaderTimeout: 30 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,

		ForceAttemptHTTP2: true,
	}

	return &http.Client{
		Transport: transport,
		Timeout:   60 * time.Second,
	}
}

// Append writes one ledger entry as a backup row.
func (c *Client) Append(ctx context.Context, tx core.Transaction) (string, error) {
	return c.appendRow(ctx, backupRow(tx))
}

// AppendTombstone writes a deletion marker for the given entry ID.
func (c *Client) AppendTombstone(ctx context.Context, id int64, deletedAt time.Time) (string, error) {
	return c.appendRow(ctx, tombstoneRow(id, deletedAt))
}

func (c *Client) appendRow(ctx context.Context, row []any) (string, error) {
	if c.svc == nil {
		return "", errors.New("sheets service not initialized")
	}

	rng := fmt.Sprintf("%s!A:G", c.sheetName)
	vr := &gsheet.ValueRange{Values: [][]any{row}}

	resp, err := c.svc.Spreadsheets.Values.Append(c.spreadsheetID, rng, vr).
		ValueInputOption("USER_ENTERED").
		InsertDataOption("INSERT_ROWS").
		Context(ctx).Do()
	if err != nil {
		return "", fmt.Errorf("append to sheet %s: %w", c.sheetName, err)
	}
	if resp.Updates != nil && resp.Updates.UpdatedRange != "" {
		return resp.Updates.UpdatedRange, nil
	}
	return rng, nil
}

// backupRow lays out one entry as [ID, Date, Type, Category, Amount,
// Description, AssetID]. Amount is in whole currency units so the
// sheet stays readable.
func backupRow(tx core.Transaction) []any {
	assetID := ""
	if tx.AssetID != nil {
		assetID = strconv.FormatInt(*tx.AssetID, 10)
	}
	return []any{
		tx.ID,
		tx.Date,
		string(tx.Type),
		tx.Category,
		tx.Amount.Float64(),
		tx.Description,
		assetID,
	}
}

func tombstoneRow(id int64, deletedAt time.Time) []any {
	return []any{id, deletedAt.Format(dateTimeLayout), "deleted", "", "", "", ""}
}

// yearPrefixedName returns "<year> <base>" unless base already starts
// with a 4-digit year.
func yearPrefixedName(base string, year int) string {
	base = strings.TrimSpace(base)
	if base == "" {
		return base
	}
	if len(base) >= 5 {
		if y, err := strconv.Atoi(base[0:4]); err == nil && base[4] == ' ' && y > 1900 && y < 3000 {
			return base
		}
	}
	return fmt.Sprintf("%d %s", year, base)
}
