package views

import (
	"fmt"
	"io"
	"text/tabwriter"
	"time"

	"github.com/stockpulse/tradedesk/internal/restclient"
)

const gridTimeFormat = time.RFC3339

// RenderStocks writes the stock listing as a table.
func RenderStocks(writer io.Writer, stocks []restclient.Stock) error {
	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tNAME\tPRICE")
	for _, stock := range stocks {
		fmt.Fprintf(table, "%d\t%s\t%.2f\n", stock.StockID, stock.StockName, stock.Price)
	}
	return table.Flush()
}

// RenderPortfolio writes the holdings grid.
func RenderPortfolio(writer io.Writer, holdings []restclient.PortfolioHolding) error {
	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tNAME\tOWNED")
	for _, holding := range holdings {
		fmt.Fprintf(table, "%d\t%s\t%d\n", holding.StockID, holding.StockName, holding.QuantityOwned)
	}
	return table.Flush()
}

// RenderWalletBalance writes the balance card.
func RenderWalletBalance(writer io.Writer, balance restclient.WalletBalance) error {
	_, err := fmt.Fprintf(writer, "Balance: %.2f\n", balance.Balance)
	return err
}

// RenderWalletTransactions writes the wallet history grid.
func RenderWalletTransactions(writer io.Writer, transactions []restclient.WalletTransaction) error {
	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tKIND\tAMOUNT\tSTOCK_TX\tTIME")
	for _, transaction := range transactions {
		kind := "credit"
		if transaction.IsDebit {
			kind = "debit"
		}
		fmt.Fprintf(table, "%d\t%s\t%.2f\t%d\t%s\n",
			transaction.WalletTxID, kind, transaction.Amount, transaction.StockTxID,
			transaction.TimeStamp.Format(gridTimeFormat))
	}
	return table.Flush()
}

// RenderStockTransactions writes the order history grid, including the
// parent link for triggered fills of limit orders.
func RenderStockTransactions(writer io.Writer, transactions []restclient.StockTransaction) error {
	table := tabwriter.NewWriter(writer, 0, 4, 2, ' ', 0)
	fmt.Fprintln(table, "ID\tSTOCK\tSIDE\tKIND\tQTY\tPRICE\tSTATUS\tPARENT\tTIME")
	for _, transaction := range transactions {
		side := "SELL"
		if transaction.IsBuy {
			side = "BUY"
		}
		parent := "-"
		if transaction.ParentTxID != nil {
			parent = fmt.Sprintf("%d", *transaction.ParentTxID)
		}
		fmt.Fprintf(table, "%d\t%d\t%s\t%s\t%d\t%.2f\t%s\t%s\t%s\n",
			transaction.StockTxID, transaction.StockID, side, transaction.OrderType,
			transaction.Quantity, transaction.StockPrice, transaction.OrderStatus,
			parent, transaction.TimeStamp.Format(gridTimeFormat))
	}
	return table.Flush()
}
