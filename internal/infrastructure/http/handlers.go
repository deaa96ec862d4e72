package httpapi

import (
	"context"
	"errors"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"

	invoiceApplication "github.com/rcarvalho-pb/billing_system-go/internal/application/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
)

type InvoiceService interface {
	Create(ctx context.Context, p invoiceApplication.CreateParams) (string, error)
	Get(ctx context.Context, guid string, raiseError bool) (*invoice.Invoice, error)
	Update(ctx context.Context, guid, paymentURI string) error
}

type InvoiceHandler struct {
	Service InvoiceService
	Logger  logging.Logger
}

type CreateInvoiceRequest struct {
	CustomerGUID string `json:"customer_guid" binding:"required"`
	Amount       int64  `json:"amount"`
	Title        string `json:"title"`
	PaymentURI   string `json:"payment_uri"`
}

type UpdateInvoiceRequest struct {
	PaymentURI string `json:"payment_uri" binding:"required"`
}

type TransactionResponse struct {
	GUID        string    `json:"guid"`
	Type        string    `json:"transaction_type"`
	Class       string    `json:"transaction_cls"`
	Status      string    `json:"status"`
	Amount      int64     `json:"amount"`
	PaymentURI  string    `json:"payment_uri"`
	ScheduledAt time.Time `json:"scheduled_at"`
	CreatedAt   time.Time `json:"created_at"`
	UpdatedAt   time.Time `json:"updated_at"`
}

type InvoiceResponse struct {
	GUID         string                `json:"guid"`
	CustomerGUID string                `json:"customer_guid"`
	Title        string                `json:"title,omitempty"`
	Amount       int64                 `json:"amount"`
	Status       string                `json:"status"`
	PaymentURI   string                `json:"payment_uri,omitempty"`
	CreatedAt    time.Time             `json:"created_at"`
	UpdatedAt    time.Time             `json:"updated_at"`
	Transactions []TransactionResponse `json:"transactions"`
}

func newInvoiceResponse(inv *invoice.Invoice) InvoiceResponse {
	resp := InvoiceResponse{
		GUID:         inv.GUID,
		CustomerGUID: inv.CustomerGUID,
		Title:        inv.Title,
		Amount:       inv.Amount,
		Status:       string(inv.Status),
		PaymentURI:   inv.PaymentURI,
		CreatedAt:    inv.CreatedAt,
		UpdatedAt:    inv.UpdatedAt,
		Transactions: make([]TransactionResponse, 0, len(inv.Transactions)),
	}
	for _, tx := range inv.Transactions {
		resp.Transactions = append(resp.Transactions, newTransactionResponse(tx))
	}
	return resp
}

func newTransactionResponse(tx transaction.Transaction) TransactionResponse {
	return TransactionResponse{
		GUID:        tx.GUID,
		Type:        string(tx.Type),
		Class:       string(tx.Class),
		Status:      string(tx.Status),
		Amount:      tx.Amount,
		PaymentURI:  tx.PaymentURI,
		ScheduledAt: tx.ScheduledAt,
		CreatedAt:   tx.CreatedAt,
		UpdatedAt:   tx.UpdatedAt,
	}
}

func (h *InvoiceHandler) CreateInvoice(c *gin.Context) {
	var req CreateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	guid, err := h.Service.Create(ctx, invoiceApplication.CreateParams{
		CustomerGUID: req.CustomerGUID,
		Amount:       req.Amount,
		Title:        req.Title,
		PaymentURI:   req.PaymentURI,
	})
	if err != nil {
		h.respondError(c, err)
		return
	}

	inv, err := h.Service.Get(ctx, guid, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.Header("Location", "/v1/invoices/"+guid)
	c.JSON(http.StatusCreated, newInvoiceResponse(inv))
}

func (h *InvoiceHandler) GetInvoice(c *gin.Context) {
	inv, err := h.Service.Get(c.Request.Context(), c.Param("guid"), true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newInvoiceResponse(inv))
}

func (h *InvoiceHandler) UpdateInvoice(c *gin.Context) {
	var req UpdateInvoiceRequest
	if err := c.ShouldBindJSON(&req); err != nil {
		c.JSON(http.StatusBadRequest, gin.H{"error": "invalid request body", "details": err.Error()})
		return
	}

	ctx := c.Request.Context()
	guid := c.Param("guid")

	if err := h.Service.Update(ctx, guid, req.PaymentURI); err != nil {
		h.respondError(c, err)
		return
	}

	inv, err := h.Service.Get(ctx, guid, true)
	if err != nil {
		h.respondError(c, err)
		return
	}

	c.JSON(http.StatusOK, newInvoiceResponse(inv))
}

func (h *InvoiceHandler) respondError(c *gin.Context, err error) {
	switch {
	case errors.Is(err, invoiceApplication.ErrValidation):
		c.JSON(http.StatusBadRequest, gin.H{"error": err.Error()})
	case errors.Is(err, invoiceApplication.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"error": err.Error()})
	case errors.Is(err, invoiceApplication.ErrInvalidOperation):
		c.JSON(http.StatusConflict, gin.H{"error": err.Error()})
	default:
		h.Logger.Error("request failed", map[string]any{
			"method": c.Request.Method,
			"path":   c.FullPath(),
			"error":  err,
		})
		c.JSON(http.StatusInternalServerError, gin.H{"error": "internal server error"})
	}
}
