package main

import (
	"context"
	"os"
	"time"

	"github.com/k-capehart/go-salesforce/v3"
	"github.com/rotisserie/eris"

	"github.com/klug-labs/closing-cli/internal/enrich"
	"github.com/klug-labs/closing-cli/internal/fetcher"
	"github.com/klug-labs/closing-cli/internal/gbm"
	"github.com/klug-labs/closing-cli/internal/model"
	"github.com/klug-labs/closing-cli/internal/schema"
	"github.com/klug-labs/closing-cli/internal/store"
	"github.com/klug-labs/closing-cli/pkg/brasilapi"
	sfpkg "github.com/klug-labs/closing-cli/pkg/salesforce"
)

// initStore opens the configured persistence backend and runs migrations.
func initStore(ctx context.Context) (store.Store, error) {
	var (
		st  store.Store
		err error
	)
	switch cfg.Store.Driver {
	case "sqlite":
		st, err = store.NewSQLite(cfg.Store.Path)
	case "postgres":
		st, err = store.NewPostgres(ctx, cfg.Store.DatabaseURL)
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
	if err != nil {
		return nil, err
	}
	if err := st.Migrate(ctx); err != nil {
		st.Close()
		return nil, err
	}
	return st, nil
}

// initEnricher wires the registry client and cache behind the configured
// pacing.
func initEnricher(st store.Store) *enrich.Enricher {
	client := brasilapi.NewClient(brasilapi.WithBaseURL(cfg.Registry.BaseURL))
	return enrich.New(st, client,
		enrich.WithDelay(time.Duration(cfg.Enrich.DelaySecs)*time.Second),
		enrich.WithBackoff(time.Duration(cfg.Enrich.BackoffSecs)*time.Second),
	)
}

func initSalesforce() (sfpkg.Client, error) {
	if cfg.Salesforce.ClientID == "" {
		return nil, eris.New("salesforce client ID is required (CLOSING_SALESFORCE_CLIENT_ID)")
	}

	pemData, err := os.ReadFile(cfg.Salesforce.KeyPath)
	if err != nil {
		return nil, eris.Wrap(err, "read salesforce JWT private key")
	}

	sf, err := salesforce.Init(salesforce.Creds{
		Domain:         cfg.Salesforce.LoginURL,
		Username:       cfg.Salesforce.Username,
		ConsumerKey:    cfg.Salesforce.ClientID,
		ConsumerRSAPem: string(pemData),
	})
	if err != nil {
		return nil, eris.Wrap(err, "init salesforce")
	}

	return sfpkg.NewClient(sf), nil
}

// modelParams maps config onto trainer hyperparameters.
func modelParams() gbm.Params {
	return gbm.Params{
		NEstimators:    cfg.Model.NEstimators,
		LearningRate:   cfg.Model.LearningRate,
		MaxDepth:       cfg.Model.MaxDepth,
		MinSamplesLeaf: cfg.Model.MinSamplesLeaf,
	}
}

// loadRecords reads a spreadsheet source and converts it to typed records.
// Headers are normalized (and optionally aliased) before the build.
func loadRecords(ctx context.Context, source, aliasFile string) ([]model.Opportunity, []string, error) {
	table, err := fetcher.Load(ctx, source,
		fetcher.WithTimeout(time.Duration(cfg.Fetch.TimeoutSecs)*time.Second),
		fetcher.WithFTPCredentials(cfg.Fetch.FTPUser, cfg.Fetch.FTPPass),
	)
	if err != nil {
		return nil, nil, err
	}

	headers := schema.NormalizeHeaders(table.Headers)
	if aliasFile != "" {
		aliases, err := schema.LoadAliases(aliasFile)
		if err != nil {
			return nil, nil, err
		}
		headers = schema.ApplyAliases(headers, aliases)
	}

	records, _ := schema.BuildRecords(headers, table.Rows)
	return records, headers, nil
}
