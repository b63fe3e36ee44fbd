package domain

import "time"

// =============================================================================
// SALE DOMAIN TYPES
// =============================================================================

// PaymentMethod is how a sale was paid.
type PaymentMethod string

const (
	PaymentCash         PaymentMethod = "cash"
	PaymentCard         PaymentMethod = "card"
	PaymentBankTransfer PaymentMethod = "bank_transfer"
	PaymentCredit       PaymentMethod = "credit"
)

// ValidPaymentMethod reports whether m is one of the accepted methods.
func ValidPaymentMethod(m PaymentMethod) bool {
	switch m {
	case PaymentCash, PaymentCard, PaymentBankTransfer, PaymentCredit:
		return true
	}
	return false
}

// SaleStatus is the lifecycle state of a persisted sale.
type SaleStatus string

const (
	SaleStatusPending   SaleStatus = "pending"
	SaleStatusCompleted SaleStatus = "completed"
	SaleStatusCancelled SaleStatus = "cancelled"
)

// LineItem is one product-quantity-price entry within a draft sale.
//
// UnitPrice is copied from the product when the line is added or updated via
// a product pick and may later be overridden per line; it is not re-derived.
// UnitCost is copied at add time and used only for profit computation.
type LineItem struct {
	ProductID int64   `json:"product_id"`
	Quantity  int     `json:"quantity"`
	UnitPrice float64 `json:"unit_price"`
	UnitCost  float64 `json:"unit_cost"`
}

// SaleDraft is the in-memory, not-yet-submitted sale: ordered line items plus
// discount/tax settings and optional customer details. Totals are never stored
// on the draft; they are recomputed from items + discount + tax + snapshot.
type SaleDraft struct {
	Items           []LineItem    `json:"items"`
	DiscountAmount  float64       `json:"discount_amount"`
	TaxPercentage   float64       `json:"tax_percentage"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerAddress string        `json:"customer_address"`
	Notes           string        `json:"notes"`
}

// Breakdown is the full monetary breakdown of a draft, recomputed on demand.
type Breakdown struct {
	Subtotal         float64 `json:"subtotal"`
	TotalCost        float64 `json:"total_cost"`
	DiscountAmount   float64 `json:"discount_amount"`
	TaxAmount        float64 `json:"tax_amount"`
	FinalTotal       float64 `json:"final_total"`
	NetProfit        float64 `json:"net_profit"`
	ProfitMargin     float64 `json:"profit_margin"`
	ProfitPercentage float64 `json:"profit_percentage"`
}

// Sale is a persisted sale record.
type Sale struct {
	ID              int64         `json:"id"`
	SaleNumber      string        `json:"sale_number"`
	SaleDate        time.Time     `json:"sale_date"`
	CustomerName    string        `json:"customer_name"`
	CustomerPhone   string        `json:"customer_phone"`
	CustomerAddress string        `json:"customer_address"`
	PaymentMethod   PaymentMethod `json:"payment_method"`
	Status          SaleStatus    `json:"status"`
	DiscountAmount  float64       `json:"discount_amount"`
	TaxPercentage   float64       `json:"tax_percentage"`
	Notes           string        `json:"notes"`
	Items           []LineItem    `json:"items"`

	// Figures computed at submission time from the then-current snapshot.
	Subtotal   float64 `json:"subtotal"`
	TotalCost  float64 `json:"total_cost"`
	TaxAmount  float64 `json:"tax_amount"`
	FinalTotal float64 `json:"final_total"`
	NetProfit  float64 `json:"net_profit"`

	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// SaleListItem is the trimmed row returned by sale listings.
type SaleListItem struct {
	ID            int64         `json:"id"`
	SaleNumber    string        `json:"sale_number"`
	SaleDate      time.Time     `json:"sale_date"`
	CustomerName  string        `json:"customer_name"`
	PaymentMethod PaymentMethod `json:"payment_method"`
	Status        SaleStatus    `json:"status"`
	ItemsCount    int           `json:"items_count"`
	FinalTotal    float64       `json:"final_total"`
	NetProfit     float64       `json:"net_profit"`
}

// SaleTotals is one completed sale's monetary figures, used for reporting.
type SaleTotals struct {
	FinalTotal float64
	TotalCost  float64
	NetProfit  float64
}

// Invoice is the billing record created alongside each completed sale.
type Invoice struct {
	ID            int64      `json:"id"`
	InvoiceNumber string     `json:"invoice_number"`
	SaleID        int64      `json:"sale_id"`
	InvoiceDate   time.Time  `json:"invoice_date"`
	IsPrinted     bool       `json:"is_printed"`
	PrintedAt     *time.Time `json:"printed_at,omitempty"`
	CreatedAt     time.Time  `json:"created_at"`
}
