package service

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/jmoiron/sqlx"
	"github.com/rs/zerolog/log"

	apperrors "github.com/quickmart/pos-server/internal/errors"
	"github.com/quickmart/pos-server/internal/model"
	"github.com/quickmart/pos-server/internal/repository"
)

type BillService struct {
	db       TxRunner
	bills    repository.BillRepository
	products repository.ProductRepository
	notifier Notifier
}

func NewBillService(
	db TxRunner,
	bills repository.BillRepository,
	products repository.ProductRepository,
	notifier Notifier,
) *BillService {
	return &BillService{
		db:       db,
		bills:    bills,
		products: products,
		notifier: notifier,
	}
}

// Generate creates a bill from the requested lines. Stock is decremented
// with a stock >= quantity guard inside the bill transaction; any line that
// fails the guard aborts the whole bill. This is the authoritative decrement,
// unlike the advisory check at scan time.
func (s *BillService) Generate(ctx context.Context, staffID string, lines []model.BillLine) (*model.Bill, error) {
	if len(lines) == 0 {
		return nil, apperrors.MissingRequired("items")
	}
	for _, line := range lines {
		if line.ProductID == "" {
			return nil, apperrors.MissingRequired("productId")
		}
		if line.Quantity <= 0 {
			return nil, apperrors.InvalidInput("quantity", "must be a positive integer")
		}
	}

	billID := uuid.NewString()
	var bill *model.Bill
	var lowStock []model.Product

	err := s.db.WithTx(ctx, func(tx *sqlx.Tx) error {
		productRepo := s.products.WithTx(tx)
		billRepo := s.bills.WithTx(tx)

		var items []model.BillItem
		var total int64

		for _, line := range lines {
			product, err := productRepo.DecrementStock(ctx, line.ProductID, line.Quantity)
			if err != nil {
				return fmt.Errorf("decrement stock: %w", err)
			}
			if product == nil {
				existing, err := productRepo.FindByID(ctx, line.ProductID)
				if err != nil {
					return fmt.Errorf("find product: %w", err)
				}
				if existing == nil {
					return apperrors.ProductNotFound(line.ProductID)
				}
				return apperrors.InsufficientStock(existing.Name, existing.Stock)
			}

			items = append(items, model.BillItem{
				BillID:         billID,
				ProductID:      product.ID,
				ProductName:    product.Name,
				UnitPriceCents: product.PriceCents,
				Quantity:       line.Quantity,
			})
			total += product.PriceCents * int64(line.Quantity)

			if product.Stock <= product.LowStockThreshold {
				lowStock = append(lowStock, *product)
			}
		}

		created, err := billRepo.Create(ctx, billID, staffID, total)
		if err != nil {
			return fmt.Errorf("create bill: %w", err)
		}

		for _, item := range items {
			saved, err := billRepo.CreateItem(ctx, item)
			if err != nil {
				return fmt.Errorf("create bill item: %w", err)
			}
			created.Items = append(created.Items, *saved)
		}

		bill = created
		return nil
	})
	if err != nil {
		return nil, err
	}

	for _, p := range lowStock {
		s.notifier.Emit(ctx, EmitParams{
			Title:    "Low stock",
			Message:  fmt.Sprintf("%s is down to %d units", p.Name, p.Stock),
			Severity: model.SeverityWarning,
			Audience: model.AudienceDesktops,
		})
	}

	log.Info().
		Str("billId", bill.ID).
		Str("staffId", staffID).
		Int64("totalCents", bill.TotalCents).
		Int("items", len(bill.Items)).
		Msg("bill generated")

	return bill, nil
}

func (s *BillService) Get(ctx context.Context, id string) (*model.Bill, error) {
	bill, err := s.bills.FindByID(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find bill: %w", err)
	}
	if bill == nil {
		return nil, nil
	}

	items, err := s.bills.FindItems(ctx, id)
	if err != nil {
		return nil, fmt.Errorf("find bill items: %w", err)
	}
	bill.Items = items
	return bill, nil
}

func (s *BillService) ListByStaff(ctx context.Context, staffID string, limit, offset int) ([]model.Bill, int, error) {
	bills, err := s.bills.ListByStaff(ctx, staffID, limit, offset)
	if err != nil {
		return nil, 0, fmt.Errorf("list bills: %w", err)
	}
	total, err := s.bills.CountByStaff(ctx, staffID)
	if err != nil {
		return nil, 0, fmt.Errorf("count bills: %w", err)
	}
	return bills, total, nil
}
