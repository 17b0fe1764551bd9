package statistics

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ManuelReschke/Urlsy/app/models"
	"github.com/ManuelReschke/Urlsy/app/repository"
	"github.com/ManuelReschke/Urlsy/internal/pkg/database/testdb"
)

func TestGetCountsTotalsWithoutCache(t *testing.T) {
	db := testdb.New(t)

	user, err := models.NewUser("Owner", "owner@example.com", "")
	require.NoError(t, err)
	require.NoError(t, db.Create(user).Error)

	for _, code := range []string{"aaa1111", "bbb2222"} {
		require.NoError(t, db.Create(&models.Link{Code: code, TargetURL: "https://example.com", Source: models.LinkSourceHomepage, IsActive: true}).Error)
	}
	var link models.Link
	require.NoError(t, db.Where("code = ?", "aaa1111").First(&link).Error)
	require.NoError(t, db.Create(&models.LinkClick{LinkID: link.ID, IPHash: "h", ClickedAt: time.Now().UTC()}).Error)

	svc := NewService(repository.NewRepositories(db), nil)
	totals, err := svc.Get(context.Background())
	require.NoError(t, err)

	assert.Equal(t, Totals{TotalLinks: 2, TotalClicks: 1, TotalUsers: 1}, totals)
	assert.NoError(t, svc.Invalidate(context.Background()))
}
