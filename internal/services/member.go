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

var memberOrderKeys = map[string]bool{"created_at": true, "name": true, "email": true}

type MemberService struct {
	members *Repository[models.Member]
	pipe    *Pipeline
}

func NewMemberService(db *gorm.DB, pipe *Pipeline) *MemberService {
	return &MemberService{
		members: NewRepository[models.Member](db),
		pipe:    pipe,
	}
}

type CreateMemberRequest struct {
	Name       string `json:"name" binding:"required,max=200"`
	Email      string `json:"email" binding:"required,email,max=255"`
	FeePackage string `json:"fee_package" binding:"max=100"`
}

type UpdateMemberRequest struct {
	Name string `json:"name" binding:"required,max=200"`
}

// Create adds a member. The existence check runs before the insert and the
// unique index on email catches a racing creator.
func (s *MemberService) Create(ctx context.Context, sess Session, req *CreateMemberRequest) (*models.Member, error) {
	in := CreateMemberRequest{
		Name:       strings.TrimSpace(req.Name),
		Email:      utils.NormalizeEmail(req.Email),
		FeePackage: strings.TrimSpace(req.FeePackage),
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	name, email, feePackage := in.Name, in.Email, in.FeePackage

	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}

	exists, err := s.members.Exists(ctx, "email", email)
	if err != nil {
		return nil, storeError("check member", err)
	}
	if exists {
		return nil, duplicateError("a member with email %s already exists", email)
	}

	member := &models.Member{
		Name:       name,
		Email:      email,
		FeePackage: feePackage,
		Status:     models.StatusActive,
	}
	if err := s.members.Create(ctx, member); err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return nil, duplicateError("a member with email %s already exists", email)
		}
		return nil, storeError("create member", err)
	}

	s.pipe.done(ctx, sess, ActionAddMember,
		models.Details{"name": name, "email": email, "feePackage": feePackage},
		ChangeEvent{Entity: "members", Action: "created", ID: member.ID, Email: email})
	return member, nil
}

// List returns every member. Unknown sort keys fall back to newest first.
func (s *MemberService) List(ctx context.Context, order Order) ([]models.Member, error) {
	if !memberOrderKeys[order.Key] {
		order = Order{Key: "created_at", Desc: true}
	}
	members, err := s.members.List(ctx, order, 0)
	if err != nil {
		return nil, storeError("list members", err)
	}
	return members, nil
}

func (s *MemberService) Get(ctx context.Context, id uint) (*models.Member, error) {
	member, err := s.members.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("member %d not found", id)
		}
		return nil, storeError("get member", err)
	}
	return member, nil
}

// FindByEmail resolves the member a bill, notification or diet plan refers to.
func (s *MemberService) FindByEmail(ctx context.Context, email string) (*models.Member, error) {
	email = utils.NormalizeEmail(email)
	member, err := s.members.FindOne(ctx, "email", email)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("member not found with email %s", email)
		}
		return nil, storeError("find member", err)
	}
	return member, nil
}

// UpdateName is the only member patch. It stamps updated_at.
func (s *MemberService) UpdateName(ctx context.Context, sess Session, id uint, name string) (*models.Member, error) {
	name = strings.TrimSpace(name)
	if err := validate(&UpdateMemberRequest{Name: name}); err != nil {
		return nil, err
	}

	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}

	err := s.members.Update(ctx, id, map[string]interface{}{
		"name":       name,
		"updated_at": time.Now(),
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("member %d not found", id)
		}
		return nil, storeError("update member", err)
	}

	s.pipe.done(ctx, sess, ActionEditMember,
		models.Details{"id": id, "newName": name},
		ChangeEvent{Entity: "members", Action: "updated", ID: id})
	return s.Get(ctx, id)
}

// Delete removes the member only. Bills, notifications and diet plans that
// reference the email are kept.
func (s *MemberService) Delete(ctx context.Context, sess Session, id uint) error {
	if err := s.pipe.begin(ctx); err != nil {
		return err
	}

	if err := s.members.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("member %d not found", id)
		}
		return storeError("delete member", err)
	}

	s.pipe.done(ctx, sess, ActionDeleteMember,
		models.Details{"id": id},
		ChangeEvent{Entity: "members", Action: "deleted", ID: id})
	return nil
}
