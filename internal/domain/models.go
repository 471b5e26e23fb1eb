package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

type Room struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	SortOrder int       `json:"sort_order"`
	CreatedAt time.Time `json:"created_at"`
}

type RoomCreateRequest struct {
	Name      string `json:"name"`
	SortOrder int    `json:"sort_order"`
}

type RoomUpdateRequest struct {
	Name      *string `json:"name,omitempty"`
	SortOrder *int    `json:"sort_order,omitempty"`
}

type Table struct {
	ID        string    `json:"id"`
	RoomID    string    `json:"room_id"`
	Name      string    `json:"name"`
	Seats     int       `json:"seats"`
	PosX      int       `json:"pos_x"`
	PosY      int       `json:"pos_y"`
	CreatedAt time.Time `json:"created_at"`
}

type TableCreateRequest struct {
	RoomID string `json:"room_id"`
	Name   string `json:"name"`
	Seats  int    `json:"seats"`
	PosX   int    `json:"pos_x"`
	PosY   int    `json:"pos_y"`
}

type TableUpdateRequest struct {
	RoomID *string `json:"room_id,omitempty"`
	Name   *string `json:"name,omitempty"`
	Seats  *int    `json:"seats,omitempty"`
	PosX   *int    `json:"pos_x,omitempty"`
	PosY   *int    `json:"pos_y,omitempty"`
}

type Product struct {
	ID        string          `json:"id"`
	Name      string          `json:"name"`
	Category  string          `json:"category"`
	Price     decimal.Decimal `json:"price"`
	TaxRate   decimal.Decimal `json:"tax_rate"`
	Color     string          `json:"color"`
	Active    bool            `json:"active"`
	CreatedAt time.Time       `json:"created_at"`
}

type ProductCreateRequest struct {
	Name     string          `json:"name"`
	Category string          `json:"category"`
	Price    decimal.Decimal `json:"price"`
	TaxRate  decimal.Decimal `json:"tax_rate"`
	Color    string          `json:"color"`
}

type ProductUpdateRequest struct {
	Name     *string          `json:"name,omitempty"`
	Category *string          `json:"category,omitempty"`
	Price    *decimal.Decimal `json:"price,omitempty"`
	TaxRate  *decimal.Decimal `json:"tax_rate,omitempty"`
	Color    *string          `json:"color,omitempty"`
	Active   *bool            `json:"active,omitempty"`
}

type Till struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

type TillCreateRequest struct {
	Name string `json:"name"`
}

type TillUpdateRequest struct {
	Name   *string `json:"name,omitempty"`
	Active *bool   `json:"active,omitempty"`
}

type GridCell struct {
	Row       int    `json:"row"`
	Col       int    `json:"col"`
	ProductID string `json:"product_id"`
}

// GridLayout is the per-till arrangement of product buttons. Cells are
// stored as a JSONB blob; order within the slice is not significant.
type GridLayout struct {
	ID        string     `json:"id"`
	TillID    string     `json:"till_id"`
	Name      string     `json:"name"`
	Rows      int        `json:"rows"`
	Cols      int        `json:"cols"`
	Cells     []GridCell `json:"cells"`
	UpdatedAt time.Time  `json:"updated_at"`
}

type GridLayoutSaveRequest struct {
	TillID string     `json:"till_id"`
	Name   string     `json:"name"`
	Rows   int        `json:"rows"`
	Cols   int        `json:"cols"`
	Cells  []GridCell `json:"cells"`
}

type TransactionItem struct {
	ProductID string          `json:"productId"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
}

// Transaction is the read model consumed by the reporting and closing
// paths. Items is deliberately untyped: depending on which store driver
// produced the row it may be a materialized []TransactionItem, a raw
// JSON string/[]byte, or an already-decoded []any. report.NormalizeItems
// is the only place that interprets it.
type Transaction struct {
	ID            string          `json:"id"`
	CreatedAt     time.Time       `json:"created_at"`
	Total         decimal.Decimal `json:"total"`
	Tax           decimal.Decimal `json:"tax"`
	Tip           decimal.Decimal `json:"tip"`
	PaymentMethod string          `json:"payment_method"`
	TillID        string          `json:"till_id"`
	TillName      string          `json:"till_name"`
	UserID        string          `json:"user_id"`
	Items         any             `json:"items"`
}

type TransactionCreateRequest struct {
	Total         decimal.Decimal   `json:"total"`
	Tax           decimal.Decimal   `json:"tax"`
	Tip           decimal.Decimal   `json:"tip"`
	PaymentMethod string            `json:"payment_method"`
	TillID        string            `json:"till_id"`
	TillName      string            `json:"till_name"`
	Items         []TransactionItem `json:"items"`
}

type PaymentMethodStats struct {
	Count int             `json:"count"`
	Total decimal.Decimal `json:"total"`
}

type TillStats struct {
	Transactions int             `json:"transactions"`
	Total        decimal.Decimal `json:"total"`
}

// ClosingSummary is built fresh per computation and never mutated after
// return. The breakdown maps each sum to TotalSales exactly.
type ClosingSummary struct {
	Transactions   int                           `json:"transactions"`
	TotalSales     decimal.Decimal               `json:"total_sales"`
	TotalTax       decimal.Decimal               `json:"total_tax"`
	TotalTips      decimal.Decimal               `json:"total_tips"`
	PaymentMethods map[string]PaymentMethodStats `json:"payment_methods"`
	Tills          map[string]TillStats          `json:"tills"`
}

type DailyClosing struct {
	ID       string         `json:"id"`
	ClosedAt time.Time      `json:"closed_at"`
	Summary  ClosingSummary `json:"summary"`
	UserID   string         `json:"user_id"`
}

type HourlyBucket struct {
	Hour         int             `json:"hour"`
	Transactions int             `json:"transactions"`
	Total        decimal.Decimal `json:"total"`
}

type HourlySalesResult struct {
	StartHour         int             `json:"start_hour"`
	Buckets           []HourlyBucket  `json:"buckets"`
	TotalSales        decimal.Decimal `json:"total_sales"`
	TotalTransactions int             `json:"total_transactions"`
	PeakHour          int             `json:"peak_hour"`
	PeakHourTotal     decimal.Decimal `json:"peak_hour_total"`
	AverageHourly     decimal.Decimal `json:"average_hourly"`
}

type HourlyComparisonEntry struct {
	Hour          int             `json:"hour"`
	Total         decimal.Decimal `json:"total"`
	PreviousTotal decimal.Decimal `json:"previous_total"`
	Difference    decimal.Decimal `json:"difference"`
	PercentChange float64         `json:"percent_change"`
}

type HourlyComparison struct {
	Hours              []HourlyComparisonEntry `json:"hours"`
	TotalDifference    decimal.Decimal         `json:"total_difference"`
	TotalPercentChange float64                 `json:"total_percent_change"`
}

// ProductSales aggregates line items across transactions. This is the
// only consumer of Transaction.Items; rows whose items cannot be
// normalized simply contribute nothing here.
type ProductSales struct {
	ProductID string          `json:"product_id"`
	Quantity  int             `json:"quantity"`
	Revenue   decimal.Decimal `json:"revenue"`
}

// Settings is the singleton configuration row. AutoStartTime and
// BusinessDayEndTime are "HH:MM" wall-clock strings interpreted in the
// configured timezone. LastCloseAt is the watermark advanced by every
// close, manual or automatic, so a process restart never replays an
// already-closed window.
type Settings struct {
	TaxMode            string     `json:"tax_mode"`
	AutoCloseEnabled   bool       `json:"auto_close_enabled"`
	AutoStartTime      string     `json:"auto_start_time"`
	BusinessDayEndTime string     `json:"business_day_end_time"`
	LastCloseAt        *time.Time `json:"last_close_at,omitempty"`
	UpdatedAt          time.Time  `json:"updated_at"`
}

type SettingsUpdateRequest struct {
	TaxMode            *string `json:"tax_mode,omitempty"`
	AutoCloseEnabled   *bool   `json:"auto_close_enabled,omitempty"`
	AutoStartTime      *string `json:"auto_start_time,omitempty"`
	BusinessDayEndTime *string `json:"business_day_end_time,omitempty"`
}

type SchedulerStatus struct {
	IsRunning           bool       `json:"is_running"`
	IsClosingInProgress bool       `json:"is_closing_in_progress"`
	LastCloseTime       *time.Time `json:"last_close_time,omitempty"`
	AutoCloseEnabled    bool       `json:"auto_close_enabled"`
	BusinessDayEndTime  string     `json:"business_day_end_time"`
	NextScheduledClose  *time.Time `json:"next_scheduled_close,omitempty"`
}

type LoginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

type LoginResponse struct {
	AccessToken string `json:"access_token"`
	Role        string `json:"role"`
	ExpiresAt   string `json:"expires_at"`
}

type Actor struct {
	Username string
	Role     string
}

type StaffCreateRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
	Role     string `json:"role"`
}

type StaffUser struct {
	Username  string    `json:"username"`
	Role      string    `json:"role"`
	Active    bool      `json:"active"`
	CreatedAt time.Time `json:"created_at"`
}

// UserAccount is an internal persistence model for auth credentials.
type UserAccount struct {
	Username  string
	Password  string
	Role      string
	Active    bool
	CreatedAt time.Time
}

const (
	RoleAdmin  = "admin"
	RoleWaiter = "waiter"
)

const (
	PaymentCash = "cash"
	PaymentCard = "card"
)

const (
	TaxModeGross = "gross"
	TaxModeNet   = "net"
)
