package services

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"instaviz/internal/common"
	"instaviz/internal/repositories"

	"github.com/google/uuid"
	"github.com/jung-kurt/gofpdf"
)

// InvoiceService renders order invoices as PDFs, stores them in MinIO
// and hands out short-lived download URLs.
type InvoiceService interface {
	GenerateOrderInvoice(ctx context.Context, orderID uuid.UUID) (string, error)
}

type invoiceService struct {
	orderRepo repositories.OrderRepository
	userRepo  repositories.UserRepository
	minioSvc  MinioService
	bucket    string
}

// NewInvoiceService creates a new InvoiceService instance.
func NewInvoiceService(orderRepo repositories.OrderRepository, userRepo repositories.UserRepository, minioSvc MinioService, bucket string) InvoiceService {
	return &invoiceService{
		orderRepo: orderRepo,
		userRepo:  userRepo,
		minioSvc:  minioSvc,
		bucket:    bucket,
	}
}

// GenerateOrderInvoice builds the invoice PDF for an order and returns
// a presigned download URL valid for one hour.
func (s *invoiceService) GenerateOrderInvoice(ctx context.Context, orderID uuid.UUID) (string, error) {
	order, err := s.orderRepo.GetByID(ctx, orderID)
	if err != nil {
		return "", err
	}
	if order == nil {
		return "", common.NewNotFound("order")
	}

	user, err := s.userRepo.GetByID(ctx, order.UserID)
	if err != nil {
		return "", err
	}
	if user == nil {
		return "", common.NewNotFound("user")
	}

	pdf := gofpdf.New("P", "mm", "A4", "")
	pdf.AddPage()

	marginX := 20.0
	marginY := 20.0
	pdf.SetMargins(marginX, marginY, marginX)
	pdf.SetAutoPageBreak(true, marginY)

	pdf.SetFont("Arial", "B", 16)
	pdf.SetTextColor(33, 37, 41)
	pdf.SetXY(marginX, marginY)
	pdf.Cell(0, 10, "INSTAVIZ INVOICE")
	pdf.Ln(15)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice Number: INV-%s", order.ID.String()[:8]))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Invoice Date: %s", time.Now().Format("02-Jan-2006")))
	pdf.Ln(8)
	pdf.Cell(0, 8, fmt.Sprintf("Order ID: %s", order.ID.String()))
	pdf.Ln(13)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(0, 8, "BILL TO:")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(0, 6, user.Name)
	pdf.Ln(6)
	pdf.Cell(0, 6, user.Email)
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 11)
	pdf.Cell(80, 8, "Item")
	pdf.Cell(30, 8, "Qty")
	pdf.Cell(40, 8, "Amount")
	pdf.Ln(8)
	pdf.SetFont("Arial", "", 11)
	pdf.Cell(80, 8, fmt.Sprintf("%s business card", order.CardType))
	pdf.Cell(30, 8, fmt.Sprintf("%d", order.OrderDetails.Quantity))
	pdf.Cell(40, 8, fmt.Sprintf("%.2f", order.OrderDetails.TotalAmount))
	pdf.Ln(12)

	pdf.SetFont("Arial", "B", 12)
	pdf.Cell(110, 8, "TOTAL")
	pdf.Cell(40, 8, fmt.Sprintf("%.2f", order.OrderDetails.TotalAmount))
	pdf.Ln(8)

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return "", fmt.Errorf("failed to render invoice PDF: %v", err)
	}

	objectName := fmt.Sprintf("invoices/%s.pdf", order.ID.String())
	if err := s.minioSvc.Upload(ctx, s.bucket, objectName, &buf, int64(buf.Len()), "application/pdf"); err != nil {
		return "", err
	}
	return s.minioSvc.GetPresignedURL(ctx, s.bucket, objectName, time.Hour)
}
