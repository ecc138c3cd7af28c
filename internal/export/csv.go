// Package export renders read-only store snapshots as CSV for download.
package export

import (
	"io"
	"time"

	"github.com/gocarina/gocsv"

	"signal-core/internal/signal"
)

// Row is one exported signal. Column order follows the struct order.
type Row struct {
	Symbol      string `csv:"symbol"`
	Action      string `csv:"action"`
	Price       string `csv:"price"`
	SLPrice     string `csv:"sl_price"`
	TPPrice     string `csv:"tp_price"`
	Confidence  int    `csv:"confidence"`
	Logic       string `csv:"logic"`
	Status      string `csv:"status"`
	PnL         string `csv:"pnl"`
	TradeResult string `csv:"trade_result"`
	Timestamp   string `csv:"timestamp"`
	ClosedAt    string `csv:"closed_at"`
}

// Signals writes the snapshot to w as CSV, one row per signal in the given
// order, preceded by a header row.
func Signals(w io.Writer, signals []signal.Signal) error {
	rows := make([]*Row, 0, len(signals))
	for _, s := range signals {
		row := &Row{
			Symbol:      s.Symbol,
			Action:      string(s.Action),
			Price:       s.Price.String(),
			SLPrice:     s.SLPrice.String(),
			TPPrice:     s.TPPrice.String(),
			Confidence:  s.Confidence,
			Logic:       s.Logic,
			Status:      string(s.Status),
			PnL:         s.PnL.String(),
			TradeResult: string(s.TradeResult),
			Timestamp:   s.Timestamp.UTC().Format(time.RFC3339),
		}
		if s.ClosedAt != nil {
			row.ClosedAt = s.ClosedAt.UTC().Format(time.RFC3339)
		}
		rows = append(rows, row)
	}
	return gocsv.Marshal(&rows, w)
}
