package stubapi

import (
	"time"

	"github.com/google/uuid"
	"gorm.io/gorm"
)

// User represents the users table.
type User struct {
	UserID       string    `gorm:"type:uuid;primaryKey"`
	UserName     string    `gorm:"not null;uniqueIndex:uniq_users_user_name"`
	Name         string    `gorm:"not null"`
	PasswordHash string    `gorm:"not null"`
	CreatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

func (user *User) BeforeCreate(tx *gorm.DB) error {
	if user.UserID == "" {
		user.UserID = uuid.NewString()
	}
	return nil
}

// StockRecord is one listed stock with its current best price.
type StockRecord struct {
	StockID   int64     `gorm:"primaryKey;autoIncrement"`
	StockName string    `gorm:"not null;uniqueIndex:uniq_stocks_stock_name"`
	Price     float64   `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (StockRecord) TableName() string { return "stocks" }

// Holding is one row of a user's portfolio.
type Holding struct {
	UserID        string `gorm:"primaryKey;priority:1"`
	StockID       int64  `gorm:"primaryKey;priority:2"`
	QuantityOwned int64  `gorm:"not null"`
}

func (Holding) TableName() string { return "stock_portfolios" }

// WalletAccount holds a user's cash balance.
type WalletAccount struct {
	UserID    string    `gorm:"type:uuid;primaryKey"`
	Balance   float64   `gorm:"not null"`
	UpdatedAt time.Time `gorm:"not null"`
}

func (WalletAccount) TableName() string { return "wallets" }

// WalletTransactionRecord mirrors the wallet_transactions table.
type WalletTransactionRecord struct {
	WalletTxID int64     `gorm:"primaryKey;autoIncrement"`
	UserID     string    `gorm:"type:uuid;not null;index:idx_wallet_tx_user"`
	IsDebit    bool      `gorm:"not null"`
	Amount     float64   `gorm:"not null"`
	StockTxID  int64     `gorm:"not null"`
	CreatedAt  time.Time `gorm:"not null"`
}

func (WalletTransactionRecord) TableName() string { return "wallet_transactions" }

// StockTransactionRecord mirrors the stock_transactions table.
type StockTransactionRecord struct {
	StockTxID   int64     `gorm:"primaryKey;autoIncrement"`
	UserID      string    `gorm:"type:uuid;not null;index:idx_stock_tx_user"`
	StockID     int64     `gorm:"not null"`
	WalletTxID  *int64    `gorm:""`
	OrderStatus string    `gorm:"not null"`
	IsBuy       bool      `gorm:"not null"`
	OrderType   string    `gorm:"not null"`
	StockPrice  float64   `gorm:"not null"`
	Quantity    int64     `gorm:"not null"`
	ParentTxID  *int64    `gorm:""`
	CreatedAt   time.Time `gorm:"not null"`
}

func (StockTransactionRecord) TableName() string { return "stock_transactions" }

// Order lifecycle and kind values served to clients.
const (
	orderStatusInProgress = "IN_PROGRESS"
	orderStatusCompleted  = "COMPLETED"

	orderTypeMarket = "MARKET"
	orderTypeLimit  = "LIMIT"
)
