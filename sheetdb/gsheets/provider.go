// Copyright (C) 2026 Storj Labs, Inc.
// See LICENSE for copying information.

// Package gsheets implements sheetdb.Spreadsheet on top of the Google Sheets
// API, authenticated with a service account.
package gsheets

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/spacemonkeygo/monkit/v3"
	"github.com/zeebo/errs"
	"go.uber.org/zap"
	"golang.org/x/oauth2"
	"golang.org/x/oauth2/google"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"
	"google.golang.org/api/sheets/v4"

	"storj.io/clubsheet/private/lrucache"
	"storj.io/clubsheet/sheetdb"
)

var (
	mon = monkit.Package()

	// Error is the error class for the gsheets package.
	Error = errs.Class("gsheets")
)

// Scopes are the OAuth2 scopes requested for the service account.
var Scopes = []string{
	"https://www.googleapis.com/auth/spreadsheets",
	"https://www.googleapis.com/auth/drive",
}

// Config configures the Google Sheets backend.
type Config struct {
	Credentials       CredentialsConfig
	Retry             RetryConfig
	Timeout           time.Duration `help:"timeout for authenticating and opening a spreadsheet" default:"30s"`
	RequestsPerMinute int `help:"maximum spreadsheet API requests per minute per client, 0 disables the limit" default:"60"`
	CacheCapacity     int `help:"number of authenticated clients kept in memory" default:"8"`
}

// Dialer builds an authenticated Sheets service from a credential payload.
type Dialer func(ctx context.Context, payload []byte) (*sheets.Service, error)

// tokenRefreshTimeout bounds token refreshes made after the first handshake.
const tokenRefreshTimeout = 30 * time.Second

// DialServiceAccount authenticates payload as a service account key and
// verifies it by fetching a first token within ctx.
func DialServiceAccount(ctx context.Context, payload []byte) (_ *sheets.Service, err error) {
	defer mon.Task()(&ctx)(&err)

	jwt, err := google.JWTConfigFromJSON(payload, Scopes...)
	if err != nil {
		return nil, err
	}
	token, err := jwt.TokenSource(ctx).Token()
	if err != nil {
		return nil, err
	}

	// the service and its token source outlive ctx
	detached := context.WithoutCancel(ctx)
	if _, ok := detached.Value(oauth2.HTTPClient).(*http.Client); !ok {
		detached = context.WithValue(detached, oauth2.HTTPClient, &http.Client{Timeout: tokenRefreshTimeout})
	}
	tokens := oauth2.ReuseTokenSource(token, jwt.TokenSource(detached))
	return sheets.NewService(detached, option.WithTokenSource(tokens))
}

// Client is an authenticated Sheets API client.
type Client struct {
	log     *zap.Logger
	service *sheets.Service
	caller  *caller
	timeout time.Duration
}

// Provider hands out clients, one per distinct credential payload.
type Provider struct {
	log     *zap.Logger
	config  Config
	dial    Dialer
	clients *lrucache.Cache[*Client]
}

// NewProvider returns a Provider. A nil dial uses DialServiceAccount.
func NewProvider(log *zap.Logger, config Config, dial Dialer) *Provider {
	if dial == nil {
		dial = DialServiceAccount
	}
	if config.Timeout <= 0 {
		config.Timeout = sheetdb.DefaultTimeout
	}
	return &Provider{
		log:    log,
		config: config,
		dial:   dial,
		clients: lrucache.New[*Client](lrucache.Options{
			Capacity: config.CacheCapacity,
			Name:     "gsheets_clients",
		}),
	}
}

// Client returns the client for payload, authenticating on first use.
// Failed authentications are not remembered.
func (p *Provider) Client(ctx context.Context, payload []byte) (_ *Client, err error) {
	defer mon.Task()(&ctx)(&err)

	return p.clients.Get(ctx, string(payload), func() (*Client, error) {
		ctx, cancel := context.WithTimeout(ctx, p.config.Timeout)
		defer cancel()

		service, err := p.dial(ctx, payload)
		if err != nil {
			return nil, sheetdb.ErrConnection.Wrap(err)
		}
		p.log.Info("authenticated spreadsheet client")
		return &Client{
			log:     p.log,
			service: service,
			caller:  newCaller(p.log, p.config.Retry, p.config.RequestsPerMinute),
			timeout: p.config.Timeout,
		}, nil
	})
}

// Connect authenticates payload and opens the spreadsheet named by locator,
// which is a spreadsheet URL or id.
func (p *Provider) Connect(ctx context.Context, payload []byte, locator string) (_ *Client, _ *Spreadsheet, err error) {
	defer mon.Task()(&ctx)(&err)

	client, err := p.Client(ctx, payload)
	if err != nil {
		return nil, nil, err
	}
	spreadsheet, err := client.Open(ctx, locator)
	if err != nil {
		return nil, nil, err
	}
	return client, spreadsheet, nil
}

// Open resolves locator and loads the spreadsheet's tab list.
func (c *Client) Open(ctx context.Context, locator string) (_ *Spreadsheet, err error) {
	defer mon.Task()(&ctx)(&err)

	id, err := SpreadsheetID(locator)
	if err != nil {
		return nil, err
	}

	ctx, cancel := context.WithTimeout(ctx, c.timeout)
	defer cancel()

	spreadsheet := &Spreadsheet{client: c, id: id}
	if err := spreadsheet.refresh(ctx); err != nil {
		var apiErr *googleapi.Error
		if errors.As(err, &apiErr) && (apiErr.Code == http.StatusNotFound || apiErr.Code == http.StatusForbidden) {
			return nil, sheetdb.ErrConnection.New("spreadsheet %q is not accessible: %v", id, err)
		}
		return nil, sheetdb.ErrConnection.Wrap(err)
	}

	c.log.Info("spreadsheet opened", zap.String("id", id), zap.String("title", spreadsheet.title))
	return spreadsheet, nil
}
