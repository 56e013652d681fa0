package report

import (
	"encoding/csv"
	"fmt"
	"io"

	"github.com/rotisserie/eris"

	"github.com/sells-group/peerview-cli/internal/model"
)

var csvHeader = []string{
	"name", "street", "latitude", "longitude",
	"period_start", "period_end",
	"annual_revenue", "prior_year_estimate", "yoy_growth",
	"ticket_size", "transaction_count", "seasonality_ratio",
	"data_quality", "benchmark_flag",
}

// WriteCSV streams one row per metric record. Nil metrics become empty cells
// so a spreadsheet import distinguishes "absent" from zero.
func WriteCSV(w io.Writer, records []model.MetricRecord) error {
	cw := csv.NewWriter(w)
	if err := cw.Write(csvHeader); err != nil {
		return eris.Wrap(err, "report: write csv header")
	}
	for _, r := range records {
		row := []string{
			r.Name, r.Street,
			floatCell(r.Latitude, 6), floatCell(r.Longitude, 6),
			r.PeriodStart, r.PeriodEnd,
			floatCell(r.AnnualRevenue, 2), floatCell(r.PriorYearEst, 2), floatCell(r.YoYGrowth, 4),
			floatCell(r.TicketSize, 2), floatCell(r.TransactionCount, 0), floatCell(r.SeasonalityRatio, 4),
			string(r.DataQuality), string(r.BenchmarkFlag),
		}
		if err := cw.Write(row); err != nil {
			return eris.Wrap(err, "report: write csv row")
		}
	}
	cw.Flush()
	return eris.Wrap(cw.Error(), "report: flush csv")
}

func floatCell(v *float64, prec int) string {
	if v == nil {
		return ""
	}
	return fmt.Sprintf("%.*f", prec, *v)
}
