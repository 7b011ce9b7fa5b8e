package cmd

import (
	"fmt"

	"github.com/rustyeddy/rebalancer/broker/kis"
	"github.com/rustyeddy/rebalancer/config"
	"github.com/rustyeddy/rebalancer/store"
	"github.com/rustyeddy/rebalancer/yahoo"
)

// yahooRPS keeps history downloads well under the chart API limits.
const yahooRPS = 2

func openLoader(dbPath string) (*store.Loader, error) {
	st, err := store.NewSQLite(dbPath)
	if err != nil {
		return nil, fmt.Errorf("open price db: %w", err)
	}
	return &store.Loader{
		Store:   st,
		Fetcher: yahoo.NewClient(yahooRPS),
	}, nil
}

func newKIS(cfg *config.Config) (*kis.Client, error) {
	secrets := config.SecretsFromEnv()
	if secrets.Token == "" {
		return nil, fmt.Errorf("%s is not set", config.EnvToken)
	}
	account := cfg.Broker.AccountID
	if secrets.AccountID != "" {
		account = secrets.AccountID
	}
	return kis.NewClient(kis.Config{
		BaseURL:           cfg.Broker.BaseURL,
		Token:             secrets.Token,
		AccountID:         account,
		Exchange:          cfg.Broker.Exchange,
		RequestsPerSecond: cfg.Broker.RequestsPerSecond,
	})
}
