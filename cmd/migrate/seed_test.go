package main

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/database/testdb"
)

func TestSeedDemoLinksIsIdempotent(t *testing.T) {
	db := testdb.New(t)
	repo := repository.NewLinkRepository(db)
	ctx := context.Background()

	require.NoError(t, db.Create(&models.Link{Code: "demo002", TargetURL: "https://old.example.com", Source: models.LinkSourceHomepage}).Error)

	require.NoError(t, seedDemoLinks(ctx, repo))
	require.NoError(t, seedDemoLinks(ctx, repo))

	var seeded []models.Link
	require.NoError(t, db.Order("code").Find(&seeded).Error)
	require.Len(t, seeded, 2)

	assert.Equal(t, "demo001", seeded[0].Code)
	assert.Equal(t, "https://example.com/welcome", seeded[0].TargetURL)
	assert.Equal(t, "https://example.com/pricing", seeded[1].TargetURL)
	for _, l := range seeded {
		assert.Equal(t, models.LinkSourceSeed, l.Source)
		assert.True(t, l.IsActive)
	}
}

func TestGotoRequiresVersion(t *testing.T) {
	rootCmd.SetArgs([]string{"goto"})
	err := rootCmd.Execute()
	assert.Error(t, err)
}
