package models

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

type TransactionType string

const (
	TransactionDeposit    TransactionType = "DEPOSIT"
	TransactionWithdraw   TransactionType = "WITHDRAW"
	TransactionProfit     TransactionType = "PROFIT"
	TransactionCommission TransactionType = "COMMISSION"
)

type TransactionStatus string

const (
	StatusPending  TransactionStatus = "PENDING"
	StatusApproved TransactionStatus = "APPROVED"
	StatusRejected TransactionStatus = "REJECTED"
)

type SupportStatus string

const (
	SupportOpen       SupportStatus = "OPEN"
	SupportInProgress SupportStatus = "IN_PROGRESS"
	SupportResolved   SupportStatus = "RESOLVED"
)

// Rank orders support statuses; tickets only ever move to a higher rank.
func (s SupportStatus) Rank() int {
	switch s {
	case SupportOpen:
		return 1
	case SupportInProgress:
		return 2
	case SupportResolved:
		return 3
	}
	return 0
}

type User struct {
	ID                  string          `gorm:"primaryKey;size:64" json:"id"`
	TelegramID          *int64          `gorm:"uniqueIndex" json:"telegram_id,omitempty"`
	Username            string          `gorm:"size:255" json:"username"`
	Phone               string          `gorm:"size:32;uniqueIndex;not null" json:"phone"`
	Email               string          `gorm:"size:255" json:"email"`
	TotalBalance        decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"total_balance"`
	WithdrawableBalance decimal.Decimal `gorm:"type:numeric(20,2);not null;default:0" json:"withdrawable_balance"`
	ActiveVIP           *int            `gorm:"column:active_vip" json:"active_vip"`
	VIPExpiryDate       *time.Time      `gorm:"column:vip_expiry_date;index" json:"vip_expiry_date"`
	ReferrerID          *string         `gorm:"size:64;index" json:"referrer_id"`
	WithdrawPinHash     string          `gorm:"size:255" json:"withdraw_pin_hash,omitempty"`
	IsBlocked           bool            `gorm:"default:false" json:"is_blocked"`
	IsAdmin             bool            `gorm:"default:false" json:"is_admin"`
	LastTaskCompletedAt *time.Time      `json:"last_task_completed_at"`
	CreatedAt           time.Time       `json:"created_at"`
}

// ReferralCode is the shareable code other users enter at registration.
func (u *User) ReferralCode() string {
	id := strings.ReplaceAll(u.ID, "-", "")
	if len(id) > 6 {
		id = id[:6]
	}
	return "NCP" + strings.ToUpper(id)
}

type VIPLevel struct {
	Level        int             `gorm:"primaryKey;autoIncrement:false" json:"level" validate:"gt=0"`
	Name         string          `gorm:"size:64" json:"name" validate:"required"`
	Price        decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"price" validate:"gt=0"`
	DailyProfit  decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"daily_profit" validate:"gt=0"`
	TasksPerDay  int             `gorm:"not null;default:1" json:"tasks_per_day" validate:"gte=1"`
	ValidityDays int             `gorm:"not null" json:"validity_days" validate:"gt=0"`
	ImageURL     string          `gorm:"size:512" json:"image_url,omitempty" validate:"omitempty,url"`
}

func (VIPLevel) TableName() string { return "vip_levels" }

// TotalProfit is what a tier pays out if the task is done every day of its validity.
func (v VIPLevel) TotalProfit() decimal.Decimal {
	return v.DailyProfit.Mul(decimal.NewFromInt(int64(v.ValidityDays)))
}

type Transaction struct {
	ID        string            `gorm:"primaryKey;size:64" json:"id"`
	UserID    string            `gorm:"size:64;index;not null" json:"user_id"`
	Type      TransactionType   `gorm:"size:16;index;not null" json:"type"`
	Amount    decimal.Decimal   `gorm:"type:numeric(20,2);not null" json:"amount"`
	Status    TransactionStatus `gorm:"size:16;index;not null" json:"status"`
	CreatedAt time.Time         `gorm:"index" json:"created_at"`
	Details   string            `gorm:"size:512" json:"details,omitempty"`
}

type TransactionFilter struct {
	UserID string
	Type   TransactionType
	Status TransactionStatus
}

// Matches reports whether tx satisfies every non-empty field of the filter.
func (f TransactionFilter) Matches(tx *Transaction) bool {
	if f.UserID != "" && tx.UserID != f.UserID {
		return false
	}
	if f.Type != "" && tx.Type != f.Type {
		return false
	}
	if f.Status != "" && tx.Status != f.Status {
		return false
	}
	return true
}

type SupportToken struct {
	ID        string        `gorm:"primaryKey;size:64" json:"id"`
	UserID    string        `gorm:"size:64;index;not null" json:"user_id"`
	Username  string        `gorm:"size:255" json:"username"`
	Subject   string        `gorm:"size:255" json:"subject"`
	Message   string        `gorm:"type:text" json:"message"`
	Status    SupportStatus `gorm:"size:16;index;not null" json:"status"`
	CreatedAt time.Time     `gorm:"index" json:"created_at"`
}

type AppConfig struct {
	ID            uint            `gorm:"primaryKey;autoIncrement:false" json:"-"`
	MinWithdrawal decimal.Decimal `gorm:"type:numeric(20,2);not null" json:"minWithdrawal"`
	Version       int64           `gorm:"not null;default:0" json:"version"`
}

func (AppConfig) TableName() string { return "app_config" }

// ExpiryNotifier is told about memberships that lapsed and were cleared.
type ExpiryNotifier func(user *User, level int, expiredAt time.Time)
