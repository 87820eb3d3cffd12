package services

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/huangang/gymdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"gorm.io/gorm"
)

func TestRepository_CRUD(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository[models.Supplement](db)
	ctx := context.Background()

	whey := &models.Supplement{Name: "Whey", Price: 40}
	require.NoError(t, repo.Create(ctx, whey))
	require.NotZero(t, whey.ID)

	exists, err := repo.Exists(ctx, "name", "Whey")
	require.NoError(t, err)
	assert.True(t, exists)

	exists, err = repo.Exists(ctx, "name", "Creatine")
	require.NoError(t, err)
	assert.False(t, exists)

	require.NoError(t, repo.Update(ctx, whey.ID, map[string]interface{}{"price": 45.0}))
	got, err := repo.Get(ctx, whey.ID)
	require.NoError(t, err)
	assert.Equal(t, 45.0, got.Price)

	require.NoError(t, repo.Delete(ctx, whey.ID))
	_, err = repo.Get(ctx, whey.ID)
	assert.True(t, errors.Is(err, gorm.ErrRecordNotFound))
}

func TestRepository_MissingRows(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository[models.Member](db)
	ctx := context.Background()

	assert.ErrorIs(t, repo.Update(ctx, 99, map[string]interface{}{"name": "x"}), gorm.ErrRecordNotFound)
	assert.ErrorIs(t, repo.Delete(ctx, 99), gorm.ErrRecordNotFound)

	_, err := repo.FindOne(ctx, "email", "nobody@gym.test")
	assert.ErrorIs(t, err, gorm.ErrRecordNotFound)
}

func TestRepository_ListOrderAndLimit(t *testing.T) {
	db := newTestDB(t)
	repo := NewRepository[models.Notification](db)
	ctx := context.Background()

	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)
	for i := 0; i < 5; i++ {
		require.NoError(t, repo.Create(ctx, &models.Notification{
			Email:   "a@gym.test",
			Message: "m",
			Ts:      base.Add(time.Duration(i) * time.Hour),
		}))
	}

	list, err := repo.List(ctx, Order{Key: "ts", Desc: true}, 3)
	require.NoError(t, err)
	require.Len(t, list, 3)
	assert.True(t, list[0].Ts.After(list[1].Ts))

	byEmail, err := repo.FindByField(ctx, "email", "a@gym.test", Order{Key: "ts"})
	require.NoError(t, err)
	require.Len(t, byEmail, 5)
	assert.True(t, byEmail[0].Ts.Before(byEmail[4].Ts))
}
