package saver

import (
	"context"

	"github.com/parquet-go/parquet-go"

	"TrendRadar/internal/domain/models"
)

// row is the flat DTO used for the parquet layout. Columnar readers
// want scalars, so the feature vector is stored as a repeated column.
type row struct {
	Symbol       string    `parquet:"symbol"`
	Timeframe    string    `parquet:"timeframe"`
	EntryDate    int64     `parquet:"entry_date"` // unix seconds
	EntryPrice   float64   `parquet:"entry_price"`
	Stage        int32     `parquet:"stage"`
	BuyPoint     float64   `parquet:"buy_point,optional"`
	StopLoss     float64   `parquet:"stop_loss"`
	HasBuyPoint  bool      `parquet:"has_buy_point"`
	HasUptrend   bool      `parquet:"has_uptrend"`
	HasRSChaikin bool      `parquet:"has_rs_chaikin"`
	Outcome      int32     `parquet:"outcome"`
	Gain         float64   `parquet:"gain"`
	BarsHeld     int32     `parquet:"bars_held"`
	TargetPct    float64   `parquet:"target_pct"`
	Features     []float64 `parquet:"features,list"`
}

// ParquetSaver writes the dataset as a parquet file.
type ParquetSaver struct{}

func (ParquetSaver) Extension() string { return "parquet" }

func (ParquetSaver) Save(ctx context.Context, rows []models.LabeledSignal, path string) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	out := make([]row, 0, len(rows))
	for i := range rows {
		r := &rows[i]
		out = append(out, row{
			Symbol:       r.Symbol,
			Timeframe:    r.Timeframe,
			EntryDate:    r.EntryDate.Unix(),
			EntryPrice:   r.EntryPrice,
			Stage:        int32(r.Stage),
			BuyPoint:     r.BuyPoint,
			StopLoss:     r.StopLoss,
			HasBuyPoint:  r.Flags.HasBuyPoint,
			HasUptrend:   r.Flags.HasUptrend,
			HasRSChaikin: r.Flags.HasRSChaikin,
			Outcome:      int32(r.Outcome),
			Gain:         r.Gain,
			BarsHeld:     int32(r.BarsHeld),
			TargetPct:    r.TargetPct,
			Features:     r.Features,
		})
	}
	return parquet.WriteFile(path, out)
}
