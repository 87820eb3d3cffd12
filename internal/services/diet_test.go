package services

import (
	"context"
	"errors"
	"testing"

	"github.com/huangang/gymdesk/internal/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDietService_Assign(t *testing.T) {
	db := newTestDB(t)
	pipe := newTestPipeline(db)
	svc := NewDietService(db, NewMemberService(db, pipe), pipe)
	ctx := context.Background()
	seedMembers(t, db, models.Member{Name: "Asha", Email: "asha@gym.test"})

	plan, err := svc.Assign(ctx, adminSession, &AssignDietRequest{Email: "Asha@gym.test", Plan: "High protein"})
	require.NoError(t, err)
	assert.Equal(t, "asha@gym.test", plan.Email)
	assert.False(t, plan.AssignedAt.IsZero())

	_, err = svc.Assign(ctx, adminSession, &AssignDietRequest{Email: "asha@gym.test", Plan: "Keto"})
	require.Error(t, err)
	assert.True(t, errors.Is(err, ErrConfirmationRequired))
	assert.Equal(t, KindDuplicate, KindOf(err))

	_, err = svc.Assign(ctx, adminSession, &AssignDietRequest{Email: "asha@gym.test", Plan: "Keto", Confirm: true})
	require.NoError(t, err)

	plans, err := svc.ListByEmail(ctx, "asha@gym.test")
	require.NoError(t, err)
	assert.Len(t, plans, 2)
	assert.Equal(t, []string{ActionAddDiet, ActionAddDiet}, auditActions(t, db))
}

func TestDietService_AssignErrors(t *testing.T) {
	db := newTestDB(t)
	pipe := newTestPipeline(db)
	svc := NewDietService(db, NewMemberService(db, pipe), pipe)
	ctx := context.Background()

	_, err := svc.Assign(ctx, adminSession, &AssignDietRequest{Email: "asha@gym.test"})
	assert.Equal(t, KindValidation, KindOf(err))

	_, err = svc.Assign(ctx, adminSession, &AssignDietRequest{Email: "ghost@gym.test", Plan: "Keto"})
	assert.Equal(t, KindNotFound, KindOf(err))

	assert.Equal(t, KindNotFound, KindOf(svc.Delete(ctx, adminSession, 7)))
}
