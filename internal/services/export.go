package services

import (
	"context"
	"time"

	"github.com/huangang/gymdesk/internal/models"
	"gorm.io/gorm"
)

var (
	memberExportColumns = []string{"name", "email", "package"}
	billExportColumns   = []string{"email", "amount", "month", "paid"}
)

// Export is a rendered CSV download.
type Export struct {
	Filename string
	Rows     int
	Content  []byte
}

type ExportService struct {
	members *Repository[models.Member]
	bills   *Repository[models.Bill]
	now     func() time.Time
}

func NewExportService(db *gorm.DB) *ExportService {
	return &ExportService{
		members: NewRepository[models.Member](db),
		bills:   NewRepository[models.Bill](db),
		now:     time.Now,
	}
}

func (s *ExportService) Members(ctx context.Context) (*Export, error) {
	members, err := s.members.List(ctx, Order{Key: "created_at", Desc: true}, 0)
	if err != nil {
		return nil, storeError("list members", err)
	}
	if len(members) == 0 {
		return nil, notFoundError("no members found to export")
	}

	rows := make([]map[string]interface{}, len(members))
	for i, m := range members {
		rows[i] = map[string]interface{}{
			"name":    m.Name,
			"email":   m.Email,
			"package": m.FeePackage,
		}
	}
	return s.render("members", rows, memberExportColumns), nil
}

func (s *ExportService) Bills(ctx context.Context) (*Export, error) {
	bills, err := s.bills.List(ctx, Order{Key: "created_at", Desc: true}, 0)
	if err != nil {
		return nil, storeError("list bills", err)
	}
	if len(bills) == 0 {
		return nil, notFoundError("no bills found to export")
	}

	rows := make([]map[string]interface{}, len(bills))
	for i, b := range bills {
		rows[i] = map[string]interface{}{
			"email":  b.Email,
			"amount": b.Amount,
			"month":  b.Month,
			"paid":   b.Paid,
		}
	}
	return s.render("bills", rows, billExportColumns), nil
}

func (s *ExportService) render(entity string, rows []map[string]interface{}, columns []string) *Export {
	return &Export{
		Filename: ExportFilename(entity, s.now().UTC()),
		Rows:     len(rows),
		Content:  []byte(ToCSV(rows, columns)),
	}
}
