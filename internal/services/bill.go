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

type BillService struct {
	db      *gorm.DB
	bills   *Repository[models.Bill]
	members *MemberService
	pipe    *Pipeline
	now     func() time.Time
}

func NewBillService(db *gorm.DB, members *MemberService, pipe *Pipeline) *BillService {
	return &BillService{
		db:      db,
		bills:   NewRepository[models.Bill](db),
		members: members,
		pipe:    pipe,
		now:     time.Now,
	}
}

type CreateBillRequest struct {
	Email  string  `json:"email" binding:"required,email,max=255"`
	Amount float64 `json:"amount" binding:"gt=0"`
	Month  string  `json:"month" binding:"required,yearmonth"`
}

// Create records an unpaid bill for an existing member.
func (s *BillService) Create(ctx context.Context, sess Session, req *CreateBillRequest) (*models.Bill, error) {
	in := CreateBillRequest{
		Email:  utils.NormalizeEmail(req.Email),
		Amount: req.Amount,
		Month:  strings.TrimSpace(req.Month),
	}
	if err := validate(&in); err != nil {
		return nil, err
	}
	email, month := in.Email, in.Month

	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}

	member, err := s.members.FindByEmail(ctx, email)
	if err != nil {
		return nil, err
	}

	bill := &models.Bill{
		MemberID: member.ID,
		Email:    member.Email,
		Amount:   req.Amount,
		Month:    month,
		Paid:     false,
	}
	if err := s.bills.Create(ctx, bill); err != nil {
		return nil, storeError("create bill", err)
	}

	s.pipe.done(ctx, sess, ActionCreateBill,
		models.Details{"email": bill.Email, "amount": bill.Amount, "month": month},
		ChangeEvent{Entity: "bills", Action: "created", ID: bill.ID, Email: bill.Email})
	return bill, nil
}

func (s *BillService) List(ctx context.Context) ([]models.Bill, error) {
	bills, err := s.bills.List(ctx, Order{Key: "created_at", Desc: true}, 0)
	if err != nil {
		return nil, storeError("list bills", err)
	}
	return bills, nil
}

func (s *BillService) ListByEmail(ctx context.Context, email string) ([]models.Bill, error) {
	bills, err := s.bills.FindByField(ctx, "email", utils.NormalizeEmail(email), Order{Key: "created_at", Desc: true})
	if err != nil {
		return nil, storeError("list bills", err)
	}
	return bills, nil
}

func (s *BillService) Get(ctx context.Context, id uint) (*models.Bill, error) {
	bill, err := s.bills.Get(ctx, id)
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, notFoundError("bill %d not found", id)
		}
		return nil, storeError("get bill", err)
	}
	return bill, nil
}

// MarkPaid flips paid once. The update only matches unpaid rows, so a repeat
// call keeps the first paid_at and writes no audit entry.
func (s *BillService) MarkPaid(ctx context.Context, sess Session, id uint) (*models.Bill, error) {
	if err := s.pipe.begin(ctx); err != nil {
		return nil, err
	}

	result := s.db.WithContext(ctx).
		Model(&models.Bill{}).
		Where("id = ? AND paid = ?", id, false).
		Updates(map[string]interface{}{"paid": true, "paid_at": s.now()})
	if result.Error != nil {
		return nil, storeError("mark bill paid", result.Error)
	}

	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if result.RowsAffected > 0 {
		s.pipe.done(ctx, sess, ActionMarkPaid,
			models.Details{"id": id},
			ChangeEvent{Entity: "bills", Action: "updated", ID: id, Email: bill.Email})
	}
	return bill, nil
}

func (s *BillService) Delete(ctx context.Context, sess Session, id uint) error {
	if err := s.pipe.begin(ctx); err != nil {
		return err
	}

	if err := s.bills.Delete(ctx, id); err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return notFoundError("bill %d not found", id)
		}
		return storeError("delete bill", err)
	}

	s.pipe.done(ctx, sess, ActionDeleteBill,
		models.Details{"id": id},
		ChangeEvent{Entity: "bills", Action: "deleted", ID: id})
	return nil
}

// Receipt is the printable summary of one bill.
type Receipt struct {
	BillID    uint       `json:"bill_id"`
	Email     string     `json:"email"`
	Amount    float64    `json:"amount"`
	Month     string     `json:"month"`
	Status    string     `json:"status"` // Paid, Unpaid
	CreatedAt time.Time  `json:"created_at"`
	PaidAt    *time.Time `json:"paid_at,omitempty"`
}

// Receipt returns a bill summary. Members only see their own bills; another
// member's bill is reported as missing.
func (s *BillService) Receipt(ctx context.Context, sess Session, id uint) (*Receipt, error) {
	bill, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	if !sess.IsAdmin() && bill.Email != utils.NormalizeEmail(sess.Email) {
		return nil, notFoundError("bill %d not found", id)
	}

	status := "Unpaid"
	if bill.Paid {
		status = "Paid"
	}
	return &Receipt{
		BillID:    bill.ID,
		Email:     bill.Email,
		Amount:    bill.Amount,
		Month:     bill.Month,
		Status:    status,
		CreatedAt: bill.CreatedAt,
		PaidAt:    bill.PaidAt,
	}, nil
}
