package services

import (
	"context"
	"errors"
	"strings"
	"time"

	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/utils"
	"gorm.io/gorm"
)

type DietService struct {
	diets   *Repository[models.DietPlan]
	members *MemberService
	pipe    *Pipeline
	now     func() time.Time
}

func NewDietService(db *gorm.DB, members *MemberService, pipe *Pipeline) *DietService {
	return &DietService{
		diets:   NewRepository[models.DietPlan](db),
		members: members,
		pipe:    pipe,
		now:     time.Now,
	}
}

// AssignDietRequest adds a plan. Confirm must be set to add a second plan for
// the same member.
type AssignDietRequest struct {
	Email   string `json:"email" binding:"required,email,max=255"`
	Plan    string `json:"plan" binding:"required"`
	Confirm bool   `json:"confirm"`
}

func (s *DietService) Assign(ctx context.Context, sess Session, req *AssignDietRequest) (*models.DietPlan, error) {
	email := utils.NormalizeEmail(req.Email)
	plan := strings.TrimSpace(req.Plan)
	if err := validate(&AssignDietRequest{Email: email, Plan: plan}); err != nil {
		return nil, err
	}

	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}

	member, err := s.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	if !req.Confirm {
		exists, err := s.diets.Exists(ctx, "email", member.Email)
		if err != nil {
			return nil, storeError("check diet plans", err)
		}
		if exists {
			return nil, &Error{
				Kind:    KindDuplicate,
				Message: "member already has a diet plan, confirm to add another one",
				Err:     ErrConfirmationRequired,
			}
		}
	}

	diet := &models.DietPlan{Email: member.Email, Plan: plan, AssignedAt: s.now()}
	if err := s.diets.Create(ctx, diet); err != nil {
		return nil, storeError("create diet plan", err)
	}

	s.pipe.done(ctx, sess, ActionAddDiet,
		models.Details{"email": member.Email},
		ChangeEvent{Entity: "diets", Action: "created", ID: diet.ID, Email: member.Email})
	return diet, nil
}

func (s *DietService) List(ctx context.Context) ([]models.DietPlan, error) {
	list, err := s.diets.List(ctx, Order{Key: "assigned_at", Desc: true}, 0)
	if err != nil {
		return nil, storeError("list diet plans", err)
	}
	return list, nil
}

func (s *DietService) ListByEmail(ctx context.Context, email string) ([]models.DietPlan, error) {
	list, err := s.diets.FindByField(ctx, "email", utils.NormalizeEmail(email), Order{Key: "assigned_at", Desc: true})
	if err != nil {
		return nil, storeError("list diet plans", err)
	}
	return list, nil
}

func (s *DietService) Delete(ctx context.Context, sess Session, id uint) error {
	if err := s.pipe.begin(ctx); err != nil {
		return err
	}

	if err := s.diets.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("diet plan %d not found", id)
		}
		return storeError("delete diet plan", err)
	}

	s.pipe.done(ctx, sess, ActionDeleteDiet,
		models.Details{"id": id},
		ChangeEvent{Entity: "diets", Action: "deleted", ID: id})
	return nil
}
