package report

import (
	"io"

	"github.com/rotisserie/eris"
	"github.com/tealeg/xlsx/v2"

	"github.com/sells-group/peerview-cli/internal/model"
)

const (
	moneyFormat = "#,##0.00"
	ratioFormat = "0.0000"
)

// WriteWorkbook builds the exhibit workbook: one sheet with every metric
// record and, when a summary exists, a second sheet with the population
// statistics.
func WriteWorkbook(w io.Writer, project *model.Project, records []model.MetricRecord, summary *model.BenchmarkSummary) error {
	file := xlsx.NewFile()

	if err := addMetricsSheet(file, records); err != nil {
		return err
	}
	if summary != nil {
		if err := addBenchmarkSheet(file, project, summary); err != nil {
			return err
		}
	}
	return eris.Wrap(file.Write(w), "report: write workbook")
}

func addMetricsSheet(file *xlsx.File, records []model.MetricRecord) error {
	sheet, err := file.AddSheet("Peer Metrics")
	if err != nil {
		return eris.Wrap(err, "report: add metrics sheet")
	}

	header := sheet.AddRow()
	for _, h := range []string{
		"Business", "Street", "Period",
		"Annual Revenue", "Prior Year Est", "YoY Growth",
		"Avg Ticket", "Transactions", "Seasonality", "In Benchmark",
	} {
		header.AddCell().SetString(h)
	}

	for _, r := range records {
		row := sheet.AddRow()
		row.AddCell().SetString(r.Name)
		row.AddCell().SetString(r.Street)
		row.AddCell().SetString(periodLabel(r))
		setMoney(row.AddCell(), r.AnnualRevenue)
		setMoney(row.AddCell(), r.PriorYearEst)
		setRatio(row.AddCell(), r.YoYGrowth)
		setMoney(row.AddCell(), r.TicketSize)
		setRatio(row.AddCell(), r.TransactionCount)
		setRatio(row.AddCell(), r.SeasonalityRatio)
		if r.Trusted() {
			row.AddCell().SetString("yes")
		} else {
			row.AddCell().SetString("no")
		}
	}
	return nil
}

func addBenchmarkSheet(file *xlsx.File, project *model.Project, s *model.BenchmarkSummary) error {
	sheet, err := file.AddSheet("Benchmark")
	if err != nil {
		return eris.Wrap(err, "report: add benchmark sheet")
	}

	addPair := func(label string, fill func(*xlsx.Cell)) {
		row := sheet.AddRow()
		row.AddCell().SetString(label)
		fill(row.AddCell())
	}

	addPair("Industry", func(c *xlsx.Cell) { c.SetString(project.Industry) })
	addPair("Location", func(c *xlsx.Cell) { c.SetString(project.Location) })
	addPair("Peer Count", func(c *xlsx.Cell) { c.SetInt(s.Count) })
	addPair("Mean Annual Revenue", func(c *xlsx.Cell) { c.SetFloatWithFormat(s.MeanAnnualRevenue, moneyFormat) })
	addPair("Median Annual Revenue", func(c *xlsx.Cell) { c.SetFloatWithFormat(s.MedianAnnualRevenue, moneyFormat) })
	addPair("Mean Avg Ticket", func(c *xlsx.Cell) { c.SetFloatWithFormat(s.MeanTicketSize, moneyFormat) })
	addPair("Mean Transaction Count", func(c *xlsx.Cell) { c.SetFloatWithFormat(s.MeanTransactionCount, ratioFormat) })
	addPair("Mean YoY Growth", func(c *xlsx.Cell) { c.SetFloatWithFormat(s.MeanYoYGrowth, ratioFormat) })
	addPair("Mean Seasonality Ratio", func(c *xlsx.Cell) { c.SetFloatWithFormat(s.MeanSeasonalityRatio, ratioFormat) })
	return nil
}

func periodLabel(r model.MetricRecord) string {
	switch {
	case r.PeriodStart != "" && r.PeriodEnd != "":
		return r.PeriodStart + " to " + r.PeriodEnd
	case r.PeriodEnd != "":
		return "through " + r.PeriodEnd
	default:
		return ""
	}
}

func setMoney(c *xlsx.Cell, v *float64) {
	if v == nil {
		c.SetString("")
		return
	}
	c.SetFloatWithFormat(*v, moneyFormat)
}

func setRatio(c *xlsx.Cell, v *float64) {
	if v == nil {
		c.SetString("")
		return
	}
	c.SetFloatWithFormat(*v, ratioFormat)
}
