package main

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"
	"github.com/spf13/cobra"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/config"
	"github.com/ManuelReschke/Urlsy/internal/pkg/database"
)

// demoLinks are the public sample links shown in the docs and the README.
var demoLinks = []models.Link{
	{Code: "demo001", TargetURL: "https://example.com/welcome"},
	{Code: "demo002", TargetURL: "https://example.com/pricing"},
}

var seedCmd = &cobra.Command{
	Use:   "seed",
	Short: "Upsert the demo short links",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		database.SetupDatabase(cfg.DB)
		repository.InitializeFactory(database.DB)

		return seedDemoLinks(cmd.Context(), repository.GetGlobalFactory().GetLinkRepository())
	},
}

func seedDemoLinks(ctx context.Context, repo repository.LinkRepository) error {
	for _, demo := range demoLinks {
		link := demo
		link.Source = models.LinkSourceSeed
		link.IsActive = true
		if err := repo.UpsertByCode(ctx, &link); err != nil {
			return fmt.Errorf("seeding %s: %w", demo.Code, err)
		}
		log.Info().Str("code", link.Code).Str("target_url", link.TargetURL).Msg("seeded demo link")
	}
	return nil
}
