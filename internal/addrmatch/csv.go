package addrmatch

import (
	"encoding/csv"
	"os"
	"strconv"

	"github.com/rotisserie/eris"

	"github.com/sells-group/peerview-cli/internal/model"
	"github.com/sells-group/peerview-cli/internal/normalize"
)

var csvHeader = []string{
	"metric_record_id", "project_id", "search_result_id", "place_id", "enigma_id",
	"g_address_full", "matched_full_address", "g_street", "matched_street",
	"g_city", "g_state", "g_zip", "e_city", "e_state", "e_zip",
	"city_equal", "state_equal", "zip_equal", "street_equal", "equal_after_norm",
	"reason", "category",
	"annual_revenue", "yoy_growth", "ticket_size",
	"g_address_full_norm", "matched_full_address_norm", "g_street_norm", "matched_street_norm",
}

// WriteCSV exports verdicts with both raw and normalized address variants for
// spreadsheet triage.
func WriteCSV(verdicts []model.Verdict, path string) error {
	f, err := os.Create(path)
	if err != nil {
		return eris.Wrapf(err, "addrmatch: create csv %s", path)
	}
	defer f.Close() //nolint:errcheck

	w := csv.NewWriter(f)
	if err := w.Write(csvHeader); err != nil {
		return eris.Wrap(err, "addrmatch: write csv header")
	}

	for _, v := range verdicts {
		row := []string{
			v.MetricRecordID, v.ProjectID, v.SearchResultID, v.PlaceID, v.EnigmaID,
			v.GoogleFullAddress, v.MatchedFullAddress, v.GoogleStreet, v.MatchedStreet,
			v.GoogleCity, v.GoogleState, v.GoogleZip,
			v.MatchedCity, v.MatchedState, v.MatchedZip,
			strconv.FormatBool(v.CityEqual), strconv.FormatBool(v.StateEqual),
			strconv.FormatBool(v.ZipEqual), strconv.FormatBool(v.StreetEqual),
			strconv.FormatBool(v.EqualAfterNorm),
			string(v.Reason), string(v.Category),
			formatFloat(v.AnnualRevenue), formatFloat(v.YoYGrowth), formatFloat(v.TicketSize),
			normalize.Text(v.GoogleFullAddress), normalize.Text(v.MatchedFullAddress),
			normalize.StreetOnly(v.GoogleStreet), normalize.StreetOnly(v.MatchedStreet),
		}
		if err := w.Write(row); err != nil {
			return eris.Wrap(err, "addrmatch: write csv row")
		}
	}

	w.Flush()
	if err := w.Error(); err != nil {
		return eris.Wrap(err, "addrmatch: flush csv")
	}
	return nil
}

func formatFloat(f *float64) string {
	if f == nil {
		return ""
	}
	return strconv.FormatFloat(*f, 'f', -1, 64)
}
