package services

import (
	"context"
	"errors"
	"strings"

	"github.com/huangang/gymdesk/internal/models"
	"gorm.io/gorm"
)

type SupplementService struct {
	supplements *Repository[models.Supplement]
	pipe        *Pipeline
}

func NewSupplementService(db *gorm.DB, pipe *Pipeline) *SupplementService {
	return &SupplementService{
		supplements: NewRepository[models.Supplement](db),
		pipe:        pipe,
	}
}

type CreateSupplementRequest struct {
	Name  string  `json:"name" binding:"required,max=200"`
	Price float64 `json:"price" binding:"gt=0"`
}

func (s *SupplementService) Create(ctx context.Context, sess Session, req *CreateSupplementRequest) (*models.Supplement, error) {
	name := strings.TrimSpace(req.Name)
	if err := validate(&CreateSupplementRequest{Name: name, Price: req.Price}); err != nil {
		return nil, err
	}

	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}

	exists, err := s.supplements.Exists(ctx, "name", name)
	if err != nil {
		return nil, storeError("check supplement", err)
	}
	if exists {
		return nil, duplicateError("supplement %q already exists", name)
	}

	supp := &models.Supplement{Name: name, Price: req.Price}
	if err := s.supplements.Create(ctx, supp); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateError("supplement %q already exists", name)
		}
		return nil, storeError("create supplement", err)
	}

	s.pipe.done(ctx, sess, ActionAddSupplement,
		models.Details{"name": name, "price": req.Price},
		ChangeEvent{Entity: "supplements", Action: "created", ID: supp.ID})
	return supp, nil
}

// List is the admin view, newest first.
func (s *SupplementService) List(ctx context.Context) ([]models.Supplement, error) {
	list, err := s.supplements.List(ctx, Order{Key: "created_at", Desc: true}, 0)
	if err != nil {
		return nil, storeError("list supplements", err)
	}
	return list, nil
}

// ListByName is the member catalogue, alphabetical.
func (s *SupplementService) ListByName(ctx context.Context) ([]models.Supplement, error) {
	list, err := s.supplements.List(ctx, Order{Key: "name"}, 0)
	if err != nil {
		return nil, storeError("list supplements", err)
	}
	return list, nil
}

func (s *SupplementService) Delete(ctx context.Context, sess Session, id uint) error {
	if err := s.pipe.begin(ctx); err != nil {
		return err
	}

	if err := s.supplements.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("supplement %d not found", id)
		}
		return storeError("delete supplement", err)
	}

	s.pipe.done(ctx, sess, ActionDeleteSupplement,
		models.Details{"id": id},
		ChangeEvent{Entity: "supplements", Action: "deleted", ID: id})
	return nil
}
