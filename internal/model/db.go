package model

import "time"

type Product struct {
	ID       string `gorm:"primaryKey;size:64;not null"` // product sku
	BrandID  string `gorm:"size:64;index;not null"`
	Name     string `gorm:"size:128;not null"`
	Price    int64  `gorm:"not null"` // minor currency units
	Currency string `gorm:"size:8;not null"`
}

type Order struct {
	ID     string      `gorm:"primaryKey;size:64;not null"`
	UserID string      `gorm:"size:64;index;not null;index:idx_orders_user_idem,unique"`
	Status OrderStatus `gorm:"size:32;index;not null"`

	TotalAmount int64  `gorm:"not null"` // sum of discounted item prices
	PlatformFee int64  `gorm:"not null"` // sum of item commissions
	Currency    string `gorm:"size:8;not null"`

	ShippingAddressID string  `gorm:"size:64;not null"`
	BillingAddressID  string  `gorm:"size:64;not null"`
	CouponID          *string `gorm:"size:64;index"`

	// Issued by the payment gateway once the remote order exists. Empty for
	// orphaned CREATED rows that never reached the gateway.
	GatewayOrderID string  `gorm:"size:64;index"`
	IdempotencyKey *string `gorm:"size:64;index:idx_orders_user_idem,unique"`

	DeliveredAt        *time.Time
	ReturnWindowEndsAt *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type OrderItem struct {
	ID uint `gorm:"primaryKey"`
	// FK → orders.id
	OrderID string `gorm:"size:64;index;not null"`
	// FK → products.id
	ProductID string `gorm:"size:64;index;not null"`
	BrandID   string `gorm:"size:64;index;not null"`
	Quantity  int32  `gorm:"not null"`

	// Price is the discounted line total; Commission + BrandAmount == Price.
	Price       int64  `gorm:"not null"`
	Commission  int64  `gorm:"not null"`
	BrandAmount int64  `gorm:"not null"`
	Currency    string `gorm:"size:8;not null"`

	CreatedAt time.Time
}

// Payment is created at most once per order for its entire lifetime; the
// unique index on OrderID is what resolves the dual-path confirmation race.
type Payment struct {
	ID      string        `gorm:"primaryKey;size:64;not null"`
	OrderID string        `gorm:"size:64;uniqueIndex;not null"`
	Status  PaymentStatus `gorm:"size:32;index;not null"`

	GatewayPaymentID string `gorm:"size:64;index;not null"`
	Amount           int64  `gorm:"not null"`
	PaidAt           time.Time

	GatewayRefundID *string `gorm:"size:64"`
	RefundedAt      *time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

type Coupon struct {
	ID              string       `gorm:"primaryKey;size:64;not null"`
	Code            string       `gorm:"size:64;uniqueIndex;not null"`
	UserID          string       `gorm:"size:64;index;not null"`
	DiscountPercent int64        `gorm:"not null"`
	Status          CouponStatus `gorm:"size:32;index;not null"`
	ExpiresAt       time.Time

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Address rows are treated as append-only; orders reference them by id.
type Address struct {
	ID         string `gorm:"primaryKey;size:64;not null"`
	UserID     string `gorm:"size:64;index;not null"`
	Recipient  string `gorm:"size:128;not null"`
	Line1      string `gorm:"size:256;not null"`
	Line2      string `gorm:"size:256"`
	City       string `gorm:"size:64;not null"`
	State      string `gorm:"size:64"`
	PostalCode string `gorm:"size:16;not null"`
	Phone      string `gorm:"size:32"`

	CreatedAt time.Time
}

type WebhookEvent struct {
	EventID     string `gorm:"primaryKey;size:128;not null"`
	EventType   string `gorm:"size:64;index"`
	ProcessedAt time.Time
	CreatedAt   time.Time
}
