package main

import (
	"database/sql"
	"fmt"

	"github.com/MrJamesThe3rd/pawfund/internal/campaign"
	campaignStore "github.com/MrJamesThe3rd/pawfund/internal/campaign/store"
	"github.com/MrJamesThe3rd/pawfund/internal/config"
	"github.com/MrJamesThe3rd/pawfund/internal/database"
	"github.com/MrJamesThe3rd/pawfund/internal/export"
)

type env struct {
	cfg       *config.Config
	db        *sql.DB
	campaigns *campaign.Service
	exporter  *export.Service
}

func openEnv() (*env, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}

	db, err := database.New(cfg.ConnectionString())
	if err != nil {
		return nil, fmt.Errorf("connecting to database: %w", err)
	}

	campaigns := campaign.NewService(campaignStore.New(db))

	return &env{
		cfg:       cfg,
		db:        db,
		campaigns: campaigns,
		exporter:  export.NewService(campaigns, cfg.FX.CampaignCurrency),
	}, nil
}

func (e *env) Close() error {
	return e.db.Close()
}
