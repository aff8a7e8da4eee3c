package models

import (
	"database/sql/driver"
	"fmt"
	"slices"
	"time"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"
)

// OrderStatus is the lifecycle state of an order.
type OrderStatus string

const (
	StatusNew        OrderStatus = "new"
	StatusInProgress OrderStatus = "in_progress"
	StatusProcessed  OrderStatus = "processed"
	StatusCompleted  OrderStatus = "completed"
	StatusCanceled   OrderStatus = "canceled"
	StatusExpired    OrderStatus = "expired"
)

// OrderStatuses lists every status in lifecycle order.
var OrderStatuses = []OrderStatus{
	StatusNew,
	StatusInProgress,
	StatusProcessed,
	StatusCompleted,
	StatusCanceled,
	StatusExpired,
}

// statusTransitions is the legal forward moves. Statuses without an entry
// are terminal.
var statusTransitions = map[OrderStatus][]OrderStatus{
	StatusNew:        {StatusInProgress, StatusCanceled, StatusExpired},
	StatusInProgress: {StatusProcessed, StatusCanceled},
	StatusProcessed:  {StatusCompleted},
}

func (s OrderStatus) Valid() bool {
	return slices.Contains(OrderStatuses, s)
}

// Terminal reports whether no transition leaves s.
func (s OrderStatus) Terminal() bool {
	return len(statusTransitions[s]) == 0
}

func (s OrderStatus) CanTransitionTo(to OrderStatus) bool {
	return slices.Contains(statusTransitions[s], to)
}

// ParseOrderStatus converts a wire value into an OrderStatus.
func ParseOrderStatus(s string) (OrderStatus, error) {
	status := OrderStatus(s)
	if !status.Valid() {
		return "", &ValidationError{Field: "status", Message: fmt.Sprintf("Select a valid choice. %s is not one of the available choices.", s)}
	}
	return status, nil
}

func (s *OrderStatus) UnmarshalText(b []byte) error {
	parsed, err := ParseOrderStatus(string(b))
	if err != nil {
		return err
	}
	*s = parsed
	return nil
}

func (s OrderStatus) Value() (driver.Value, error) {
	return string(s), nil
}

func (s *OrderStatus) Scan(src any) error {
	switch v := src.(type) {
	case string:
		*s = OrderStatus(v)
	case []byte:
		*s = OrderStatus(v)
	default:
		return fmt.Errorf("cannot scan %T into OrderStatus", src)
	}
	return nil
}

// Order is a checked-out purchase. Its user and lines are fixed at
// creation; only the status changes afterwards.
type Order struct {
	ID        uint        `gorm:"primaryKey"`
	UserID    uint        `gorm:"not null;index"`
	Items     []OrderItem `gorm:"foreignKey:OrderID"`
	Status    OrderStatus `gorm:"size:30;not null;index"`
	CreatedAt time.Time   `gorm:"index"`
}

func (o *Order) TableName() string {
	return "orders"
}

// BeforeCreate starts every order in StatusNew whatever the caller set.
func (o *Order) BeforeCreate(tx *gorm.DB) error {
	o.Status = StatusNew
	return nil
}

func (o *Order) Total() decimal.Decimal {
	total := decimal.Zero
	for _, item := range o.Items {
		total = total.Add(item.LineTotal())
	}
	return total
}

// OrderItem snapshots a product line at checkout. ProductID is cleared if
// the product is later deleted.
type OrderItem struct {
	ID           uint            `gorm:"primaryKey"`
	OrderID      uint            `gorm:"not null;index"`
	ProductID    *uint           `gorm:"index"`
	ProductTitle string          `gorm:"size:255;not null"`
	UnitPrice    decimal.Decimal `gorm:"type:decimal(12,2);not null"`
	Quantity     int             `gorm:"not null"`
}

func (i *OrderItem) TableName() string {
	return "order_items"
}

func (i *OrderItem) LineTotal() decimal.Decimal {
	return i.UnitPrice.Mul(decimal.NewFromInt(int64(i.Quantity)))
}
