package services

import (
	"context"
	"errors"
	"strings"

	"github.com/huangang/gymdesk/internal/models"
	"github.com/huangang/gymdesk/internal/utils"
)

// MemberViewService backs the member dashboard. Every call is scoped to the
// session's email.
type MemberViewService struct {
	members       *MemberService
	bills         *BillService
	notifications *NotificationService
	supplements   *SupplementService
	diets         *DietService
	audit         *AuditLogger
}

func NewMemberViewService(members *MemberService, bills *BillService, notifications *NotificationService,
	supplements *SupplementService, diets *DietService, audit *AuditLogger) *MemberViewService {
	return &MemberViewService{
		members:       members,
		bills:         bills,
		notifications: notifications,
		supplements:   supplements,
		diets:         diets,
		audit:         audit,
	}
}

// Profile returns the member record for the signed-in user, or nil when the
// account has no member record yet.
func (s *MemberViewService) Profile(ctx context.Context, sess Session) (*models.Member, error) {
	member, err := s.members.FindByEmail(ctx, sess.Email)
	if errors.Is(err, ErrNotFound) {
		return nil, nil
	}
	return member, err
}

func (s *MemberViewService) MyBills(ctx context.Context, sess Session) ([]models.Bill, error) {
	return s.bills.ListByEmail(ctx, sess.Email)
}

func (s *MemberViewService) Receipt(ctx context.Context, sess Session, billID uint) (*Receipt, error) {
	return s.bills.Receipt(ctx, sess, billID)
}

func (s *MemberViewService) MyNotifications(ctx context.Context, sess Session) ([]models.Notification, error) {
	return s.notifications.ListByEmail(ctx, sess.Email)
}

func (s *MemberViewService) Supplements(ctx context.Context) ([]models.Supplement, error) {
	return s.supplements.ListByName(ctx)
}

func (s *MemberViewService) MyDiets(ctx context.Context, sess Session) ([]models.DietPlan, error) {
	return s.diets.ListByEmail(ctx, sess.Email)
}

// Search matches members whose name or email contains query, ignoring case.
func (s *MemberViewService) Search(ctx context.Context, sess Session, query string) ([]models.Member, error) {
	query = strings.ToLower(strings.TrimSpace(query))
	if query == "" {
		return nil, validationError("please enter a search term")
	}

	all, err := s.members.List(ctx, Order{Key: "name"})
	if err != nil {
		return nil, err
	}

	matches := make([]models.Member, 0)
	for _, m := range all {
		if strings.Contains(strings.ToLower(m.Name), query) || strings.Contains(strings.ToLower(m.Email), query) {
			matches = append(matches, m)
		}
	}

	s.audit.Record(ctx, sess, ActionMemberSearch, models.Details{
		"email":   utils.NormalizeEmail(sess.Email),
		"query":   query,
		"results": len(matches),
	})
	return matches, nil
}
