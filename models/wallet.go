package models

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

const (
	WalletTxnTopUp   = "TOPUP"
	WalletTxnPayment = "PAYMENT"
	WalletTxnRefund  = "REFUND"
)

type Wallet struct {
	ID        uuid.UUID      `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	UserID    uuid.UUID      `gorm:"type:uuid;not null;uniqueIndex" json:"user_id"`
	User      User           `gorm:"foreignKey:UserID" json:"-"`
	Balance   float64        `gorm:"default:0" json:"balance"` // THB
	CreatedAt time.Time      `json:"created_at"`
	UpdatedAt time.Time      `json:"updated_at"`
	DeletedAt gorm.DeletedAt `gorm:"index" json:"-"`
}

func (w *Wallet) BeforeCreate(tx *gorm.DB) error {
	if w.ID == uuid.Nil {
		w.ID = uuid.New()
	}
	return nil
}

// WalletTransaction is append-only. The signed amount always satisfies
// balance_after - balance_before == amount, so the balance can be
// reconstructed from the log.
type WalletTransaction struct {
	ID              uuid.UUID  `gorm:"type:uuid;primary_key;default:gen_random_uuid()" json:"id"`
	WalletID        uuid.UUID  `gorm:"type:uuid;not null;index" json:"wallet_id"`
	Wallet          Wallet     `gorm:"foreignKey:WalletID" json:"-"`
	Type            string     `gorm:"not null" json:"type"` // TOPUP, PAYMENT, REFUND
	Amount          float64    `gorm:"not null" json:"amount"` // signed
	BalanceBefore   float64    `gorm:"not null" json:"balance_before"`
	BalanceAfter    float64    `gorm:"not null" json:"balance_after"`
	Description     string     `json:"description"`
	OrderID         *uuid.UUID `gorm:"type:uuid" json:"order_id,omitempty"`
	GatewayTxnID    string     `json:"gateway_txn_id,omitempty"`
	GatewayProvider string     `json:"gateway_provider,omitempty"`
	CreatedAt       time.Time  `json:"created_at"`
}

func (t *WalletTransaction) BeforeCreate(tx *gorm.DB) error {
	if t.ID == uuid.Nil {
		t.ID = uuid.New()
	}
	return nil
}
