package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"io"
	"net/url"
	"strings"
	"time"

	"github.com/cenkalti/backoff/v5"
	"github.com/sourcegraph/conc/iter"

	"github.com/coachpo/coinbase-advanced/pkg/models"
	"github.com/coachpo/coinbase-advanced/pkg/signer"
	"github.com/coachpo/coinbase-advanced/pkg/ws"
)

const maxResubscribeInterval = 30 * time.Second

type command struct {
	name    string
	summary string
	run     func(ctx context.Context, a *app, args []string) error
}

var commands []command

func init() {
	commands = []command{
		{"time", "print the exchange clock and local skew", runTime},
		{"accounts", "list accounts with a balance", runAccounts},
		{"products", "list products", runProducts},
		{"candles", "fetch candles for a product over a range", runCandles},
		{"book", "print top of book for one or more products", runBook},
		{"watch", "stream a WebSocket channel", runWatch},
	}
}

func newFlagSet(name string, out io.Writer) *flag.FlagSet {
	fs := flag.NewFlagSet(name, flag.ContinueOnError)
	fs.SetOutput(out)
	return fs
}

func runTime(ctx context.Context, a *app, args []string) error {
	if err := newFlagSet("time", a.out).Parse(args); err != nil {
		return err
	}
	now, err := a.rest.GetUnixTime(ctx)
	if err != nil {
		return fmt.Errorf("get time: %w", err)
	}
	a.printf("exchange %s  skew %s\n", now.ISO.UTC().Format(time.RFC3339Nano), now.Skew(time.Now()).Round(time.Millisecond))
	return nil
}

func runAccounts(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("accounts", a.out)
	all := fs.Bool("all", false, "include empty accounts")
	if err := fs.Parse(args); err != nil {
		return err
	}
	page, err := a.rest.ListAccountsAll(ctx)
	if err != nil {
		return fmt.Errorf("list accounts: %w", err)
	}
	for _, acct := range page.Accounts {
		if acct.AvailableBalance == nil {
			continue
		}
		if !*all && acct.AvailableBalance.Value.IsZero() && acct.Hold.Value.IsZero() {
			continue
		}
		a.printf("%-8s %s  hold %s\n", acct.Currency,
			a.au.Bold(acct.AvailableBalance.Value.String()), acct.Hold.Value.String())
	}
	return nil
}

func runProducts(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("products", a.out)
	limit := fs.Int("limit", 0, "maximum products to return")
	kind := fs.String("type", "", "product type filter (SPOT or FUTURE)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	productType := models.ProductType(strings.ToUpper(*kind))
	if !productType.Valid() && productType != "" {
		return fmt.Errorf("unknown product type %q", *kind)
	}
	page, err := a.rest.ListProducts(ctx, *limit, 0, productType)
	if err != nil {
		return fmt.Errorf("list products: %w", err)
	}
	for _, p := range page.Products {
		status := p.Status
		if p.TradingDisabled {
			status = "disabled"
		}
		a.printf("%-14s %16s  %s\n", p.ProductID, p.Price.String(), status)
	}
	return nil
}

func runCandles(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("candles", a.out)
	product := fs.String("product", "BTC-USD", "product id")
	granularity := fs.String("granularity", string(models.GranularityOneHour), "candle granularity")
	since := fs.Duration("since", 24*time.Hour, "how far back to fetch")
	if err := fs.Parse(args); err != nil {
		return err
	}
	end := time.Now().UTC()
	page, err := a.rest.GetProductCandlesAll(ctx, *product, end.Add(-*since), end, models.Granularity(*granularity))
	if err != nil {
		return fmt.Errorf("get candles: %w", err)
	}
	for _, c := range page.Candles {
		move := a.au.Green(c.Close.String())
		if c.Close.LessThan(c.Open.Decimal) {
			move = a.au.Red(c.Close.String())
		}
		a.printf("%s  o %s  h %s  l %s  c %s  v %s\n", c.Start.Time().Format(time.RFC3339),
			c.Open.String(), c.High.String(), c.Low.String(), move, c.Volume.String())
	}
	return nil
}

type topOfBook struct {
	product string
	bid     models.PriceLevel
	ask     models.PriceLevel
}

func runBook(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("book", a.out)
	depth := fs.Int("limit", 1, "levels per side")
	if err := fs.Parse(args); err != nil {
		return err
	}
	products := fs.Args()
	if len(products) == 0 {
		products = []string{"BTC-USD"}
	}
	books, err := iter.MapErr(products, func(product *string) (topOfBook, error) {
		book, err := a.rest.GetProductBook(ctx, *product, *depth)
		if err != nil {
			return topOfBook{}, fmt.Errorf("%s: %w", *product, err)
		}
		top := topOfBook{product: book.ProductID}
		top.bid, _ = book.BestBid()
		top.ask, _ = book.BestAsk()
		return top, nil
	})
	for _, top := range books {
		if top.product == "" {
			continue
		}
		a.printf("%-12s bid %s x %s  ask %s x %s\n", top.product,
			a.au.Green(top.bid.Price.String()), top.bid.Size.String(),
			a.au.Red(top.ask.Price.String()), top.ask.Size.String())
	}
	return err
}

func runWatch(ctx context.Context, a *app, args []string) error {
	fs := newFlagSet("watch", a.out)
	channel := fs.String("channel", string(models.ChannelTicker), "channel to subscribe to")
	if err := fs.Parse(args); err != nil {
		return err
	}
	products := fs.Args()
	if len(products) == 0 {
		products = []string{"BTC-USD"}
	}
	ch := models.Channel(*channel)
	if !ch.Valid() || ch == models.ChannelSubscriptions {
		return fmt.Errorf("unknown channel %q", *channel)
	}

	tokens, err := a.tokenSource()
	if err != nil {
		return err
	}
	client, err := ws.New(ws.Options{
		URL:              a.cfg.Websocket.URL,
		TokenSource:      tokens,
		HandshakeTimeout: a.cfg.Websocket.HandshakeTimeout,
		WriteTimeout:     a.cfg.Websocket.WriteTimeout,
	})
	if err != nil {
		return err
	}
	defer func() {
		_ = client.Close()
	}()
	client.OnError(func(err error) { a.logger.Printf("watch: %v", err) })
	if err := client.On(ch, a.printEvent); err != nil {
		return err
	}

	return a.watch(ctx, client, products, ch)
}

// watch keeps one subscription alive, resubscribing with exponential backoff
// after a transport failure.
func (a *app) watch(ctx context.Context, client *ws.Client, products []string, ch models.Channel) error {
	retry := backoff.NewExponentialBackOff()
	retry.MaxInterval = maxResubscribeInterval

	for {
		sub, err := client.Subscribe(ctx, products, ch, nil)
		if err == nil {
			retry.Reset()
			a.logger.Printf("watching %s for %s", ch, strings.Join(products, ","))
			select {
			case <-ctx.Done():
				return sub.Close()
			case <-sub.Done():
			}
			err = sub.Err()
			if err == nil {
				return nil
			}
		}
		if ctx.Err() != nil {
			return nil
		}

		sleep := retry.NextBackOff()
		if sleep == backoff.Stop {
			sleep = maxResubscribeInterval
		}
		a.logger.Printf("subscription lost: %v; retrying in %s", err, sleep.Round(time.Millisecond))
		select {
		case <-ctx.Done():
			return nil
		case <-time.After(sleep):
		}
	}
}

// tokenSource returns a JWT source for cloud keys, nil without credentials,
// and an error for legacy keys which cannot sign WebSocket subscriptions.
func (a *app) tokenSource() (signer.TokenSource, error) {
	if !a.cfg.Credentials.HasCredentials() {
		return nil, nil
	}
	host := ""
	if parsed, err := url.Parse(a.cfg.REST.BaseURL); err == nil {
		host = parsed.Host
	}
	sign, err := signer.New(a.cfg.Credentials, host)
	if err != nil {
		return nil, err
	}
	tokens, ok := sign.(signer.TokenSource)
	if !ok {
		return nil, errors.New("websocket subscriptions need cloud API keys")
	}
	return tokens, nil
}

func (a *app) side(side string) any {
	switch strings.ToUpper(side) {
	case string(models.SideBuy):
		return a.au.Bold(a.au.Green("BUY"))
	case string(models.SideSell):
		return a.au.Bold(a.au.Red("SELL"))
	default:
		return side
	}
}

func (a *app) printEvent(event models.Event) {
	switch e := event.(type) {
	case *models.TickerEvent:
		for _, t := range e.Tickers() {
			a.printf("%-12s %s  bid %s  ask %s  24h %s%%\n", t.ProductID, a.au.Bold(t.Price.String()),
				t.BestBid.String(), t.BestAsk.String(), t.PricePercentChg24H.String())
		}
	case *models.TickerBatchEvent:
		for _, t := range e.Tickers() {
			a.printf("%-12s %s\n", t.ProductID, a.au.Bold(t.Price.String()))
		}
	case *models.MarketTradesEvent:
		for _, t := range e.Trades() {
			a.printf("%-12s %-4v %s @ %s\n", t.ProductID, a.side(string(t.Side)), t.Size.String(), t.Price.String())
		}
	case *models.CandlesEvent:
		for _, c := range e.Candles() {
			a.printf("%-12s %s  c %s  v %s\n", c.ProductID, c.Start.Time().Format(time.RFC3339),
				c.Close.String(), c.Volume.String())
		}
	case *models.Level2Event:
		for _, batch := range e.Events {
			a.printf("%-12s %s %d levels\n", batch.ProductID, batch.Type, len(batch.Updates))
		}
	case *models.StatusEvent:
		for _, p := range e.Products() {
			a.printf("%-12s %s\n", p.ID, a.au.Yellow(p.Status))
		}
	case *models.UserEvent:
		for _, o := range e.Orders() {
			a.printf("order %s %s %-4v %s\n", o.OrderID, o.ProductID, a.side(o.OrderSide), a.au.Cyan(o.Status))
		}
	case *models.HeartbeatEvent:
		a.printf("heartbeat %d\n", e.HeartbeatCounter)
	}
}
