package stubapi

import (
	"context"
	"errors"
	"time"

	gosqlite "github.com/glebarez/go-sqlite"
	"github.com/jackc/pgx/v5/pgconn"
	"gorm.io/gorm"
)

const (
	pgUniqueViolationCode = "23505"
	sqliteConstraintCode  = 19
)

// Domain errors surfaced by the store.
var (
	ErrDuplicateUserName  = errors.New("username already exists")
	ErrDuplicateStockName = errors.New("stock already exists")
	ErrUnknownUser        = errors.New("unknown user")
	ErrUnknownStock       = errors.New("unknown stock")
	ErrUnknownOrder       = errors.New("unknown order")
	ErrInsufficientFunds  = errors.New("insufficient funds")
	ErrInsufficientShares = errors.New("insufficient shares")
)

// Store wraps GORM access to the stub trading schema.
type Store struct {
	db *gorm.DB
}

// NewStore returns a Store backed by gorm.DB.
func NewStore(db *gorm.DB) *Store {
	return &Store{db: db}
}

// Migrate creates the schema when missing.
func (store *Store) Migrate() error {
	return store.db.AutoMigrate(
		&User{},
		&StockRecord{},
		&Holding{},
		&WalletAccount{},
		&WalletTransactionRecord{},
		&StockTransactionRecord{},
	)
}

// WithTx executes fn within a transaction.
func (store *Store) WithTx(ctx context.Context, fn func(ctx context.Context, txStore *Store) error) error {
	return store.db.WithContext(ctx).Transaction(func(transaction *gorm.DB) error {
		return fn(ctx, &Store{db: transaction})
	})
}

// CreateUser inserts a new account with an empty wallet.
func (store *Store) CreateUser(ctx context.Context, userName string, name string, passwordHash string) (User, error) {
	user := User{UserName: userName, Name: name, PasswordHash: passwordHash, CreatedAt: time.Now().UTC()}
	err := store.db.WithContext(ctx).Create(&user).Error
	if isUniqueViolation(err) {
		return User{}, ErrDuplicateUserName
	}
	if err != nil {
		return User{}, err
	}
	wallet := WalletAccount{UserID: user.UserID, Balance: 0, UpdatedAt: time.Now().UTC()}
	if err := store.db.WithContext(ctx).Create(&wallet).Error; err != nil {
		return User{}, err
	}
	return user, nil
}

// GetUserByUserName looks an account up for login.
func (store *Store) GetUserByUserName(ctx context.Context, userName string) (User, error) {
	var user User
	err := store.db.WithContext(ctx).Where("user_name = ?", userName).Take(&user).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return User{}, ErrUnknownUser
	}
	if err != nil {
		return User{}, err
	}
	return user, nil
}

// CreateStock lists a new stock.
func (store *Store) CreateStock(ctx context.Context, stockName string, price float64) (StockRecord, error) {
	stock := StockRecord{StockName: stockName, Price: price, UpdatedAt: time.Now().UTC()}
	err := store.db.WithContext(ctx).Create(&stock).Error
	if isUniqueViolation(err) {
		return StockRecord{}, ErrDuplicateStockName
	}
	if err != nil {
		return StockRecord{}, err
	}
	return stock, nil
}

// ListStocks returns the catalog ordered by id.
func (store *Store) ListStocks(ctx context.Context) ([]StockRecord, error) {
	var stocks []StockRecord
	err := store.db.WithContext(ctx).Order("stock_id asc").Find(&stocks).Error
	return stocks, err
}

// GetStock returns one listed stock.
func (store *Store) GetStock(ctx context.Context, stockID int64) (StockRecord, error) {
	var stock StockRecord
	err := store.db.WithContext(ctx).Where("stock_id = ?", stockID).Take(&stock).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StockRecord{}, ErrUnknownStock
	}
	if err != nil {
		return StockRecord{}, err
	}
	return stock, nil
}

// SetStockPrice records a new best price.
func (store *Store) SetStockPrice(ctx context.Context, stockID int64, price float64) error {
	return store.db.WithContext(ctx).
		Model(&StockRecord{}).
		Where("stock_id = ?", stockID).
		Updates(map[string]any{"price": price, "updated_at": time.Now().UTC()}).Error
}

// GetWallet returns the user's wallet, creating it on first use.
func (store *Store) GetWallet(ctx context.Context, userID string) (WalletAccount, error) {
	var wallet WalletAccount
	err := store.db.WithContext(ctx).Where("user_id = ?", userID).Take(&wallet).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		wallet = WalletAccount{UserID: userID, Balance: 0, UpdatedAt: time.Now().UTC()}
		if createErr := store.db.WithContext(ctx).Create(&wallet).Error; createErr != nil {
			return WalletAccount{}, createErr
		}
		return wallet, nil
	}
	if err != nil {
		return WalletAccount{}, err
	}
	return wallet, nil
}

// AdjustWallet applies a positive or negative delta to the balance and
// refuses to overdraw.
func (store *Store) AdjustWallet(ctx context.Context, userID string, delta float64) error {
	wallet, err := store.GetWallet(ctx, userID)
	if err != nil {
		return err
	}
	updated := wallet.Balance + delta
	if updated < 0 {
		return ErrInsufficientFunds
	}
	return store.db.WithContext(ctx).
		Model(&WalletAccount{}).
		Where("user_id = ?", userID).
		Updates(map[string]any{"balance": updated, "updated_at": time.Now().UTC()}).Error
}

// AdjustHolding applies a delta to the user's position in a stock and
// refuses to go short.
func (store *Store) AdjustHolding(ctx context.Context, userID string, stockID int64, delta int64) error {
	var holding Holding
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		Take(&holding).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		if delta < 0 {
			return ErrInsufficientShares
		}
		return store.db.WithContext(ctx).Create(&Holding{UserID: userID, StockID: stockID, QuantityOwned: delta}).Error
	}
	if err != nil {
		return err
	}
	updated := holding.QuantityOwned + delta
	if updated < 0 {
		return ErrInsufficientShares
	}
	if updated == 0 {
		return store.db.WithContext(ctx).
			Where("user_id = ? AND stock_id = ?", userID, stockID).
			Delete(&Holding{}).Error
	}
	return store.db.WithContext(ctx).
		Model(&Holding{}).
		Where("user_id = ? AND stock_id = ?", userID, stockID).
		Update("quantity_owned", updated).Error
}

// ListHoldings returns the user's portfolio joined with stock names.
func (store *Store) ListHoldings(ctx context.Context, userID string) ([]Holding, error) {
	var holdings []Holding
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("stock_id asc").
		Find(&holdings).Error
	return holdings, err
}

// InsertStockTransaction records an order row.
func (store *Store) InsertStockTransaction(ctx context.Context, record *StockTransactionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return store.db.WithContext(ctx).Create(record).Error
}

// InsertWalletTransaction records a debit or credit row.
func (store *Store) InsertWalletTransaction(ctx context.Context, record *WalletTransactionRecord) error {
	if record.CreatedAt.IsZero() {
		record.CreatedAt = time.Now().UTC()
	}
	return store.db.WithContext(ctx).Create(record).Error
}

// LinkWalletTransaction points an order row at the wallet row it caused.
func (store *Store) LinkWalletTransaction(ctx context.Context, stockTxID int64, walletTxID int64) error {
	return store.db.WithContext(ctx).
		Model(&StockTransactionRecord{}).
		Where("stock_tx_id = ?", stockTxID).
		Update("wallet_tx_id", walletTxID).Error
}

// GetStockTransaction returns one order row for cancellation checks.
func (store *Store) GetStockTransaction(ctx context.Context, userID string, stockTxID int64) (StockTransactionRecord, error) {
	var record StockTransactionRecord
	err := store.db.WithContext(ctx).
		Where("user_id = ? AND stock_tx_id = ?", userID, stockTxID).
		Take(&record).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return StockTransactionRecord{}, ErrUnknownOrder
	}
	if err != nil {
		return StockTransactionRecord{}, err
	}
	return record, nil
}

// DeleteStockTransaction removes a cancelled order row.
func (store *Store) DeleteStockTransaction(ctx context.Context, stockTxID int64) error {
	return store.db.WithContext(ctx).
		Where("stock_tx_id = ?", stockTxID).
		Delete(&StockTransactionRecord{}).Error
}

// ListStockTransactions returns the user's order history, newest last.
func (store *Store) ListStockTransactions(ctx context.Context, userID string) ([]StockTransactionRecord, error) {
	var records []StockTransactionRecord
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("stock_tx_id asc").
		Find(&records).Error
	return records, err
}

// ListWalletTransactions returns the user's wallet history, newest last.
func (store *Store) ListWalletTransactions(ctx context.Context, userID string) ([]WalletTransactionRecord, error) {
	var records []WalletTransactionRecord
	err := store.db.WithContext(ctx).
		Where("user_id = ?", userID).
		Order("wallet_tx_id asc").
		Find(&records).Error
	return records, err
}

func isUniqueViolation(err error) bool {
	if err == nil {
		return false
	}
	if errors.Is(err, gorm.ErrDuplicatedKey) {
		return true
	}
	var pgErr *pgconn.PgError
	if errors.As(err, &pgErr) {
		return pgErr.Code == pgUniqueViolationCode
	}
	var sqliteErr *gosqlite.Error
	if errors.As(err, &sqliteErr) {
		return sqliteErr.Code()&0xFF == sqliteConstraintCode
	}
	return false
}
