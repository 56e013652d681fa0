package notion

import (
	"context"
	"fmt"

	"github.com/jomei/notionapi"
	"github.com/rotisserie/eris"

	"github.com/sells-group/peerview-cli/internal/model"
)

// ExportSummary writes a project's benchmark summary to the benchmark
// database, updating the project's page when one already exists so repeated
// exports do not pile up duplicates.
func ExportSummary(ctx context.Context, c Client, dbID string, project *model.Project, summary *model.BenchmarkSummary) (*notionapi.Page, error) {
	props := summaryProperties(project, summary)

	existing, err := FindProjectPage(ctx, c, dbID, project.Name)
	if err != nil {
		return nil, err
	}

	if existing != nil {
		page, err := c.UpdatePage(ctx, string(existing.ID), &notionapi.PageUpdateRequest{
			Properties: props,
		})
		if err != nil {
			return nil, eris.Wrap(err, "notion: update summary page")
		}
		return page, nil
	}

	page, err := c.CreatePage(ctx, &notionapi.PageCreateRequest{
		Parent: notionapi.Parent{
			Type:       notionapi.ParentTypeDatabaseID,
			DatabaseID: notionapi.DatabaseID(dbID),
		},
		Properties: props,
	})
	if err != nil {
		return nil, eris.Wrap(err, "notion: create summary page")
	}
	return page, nil
}

func summaryProperties(project *model.Project, s *model.BenchmarkSummary) notionapi.Properties {
	return notionapi.Properties{
		"Project": notionapi.TitleProperty{
			Title: []notionapi.RichText{{Text: &notionapi.Text{Content: project.Name}}},
		},
		"Industry": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: project.Industry}}},
		},
		"Location": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{Content: project.Location}}},
		},
		"Peer Count":       numberProp(float64(s.Count)),
		"Mean Revenue":     numberProp(s.MeanAnnualRevenue),
		"Median Revenue":   numberProp(s.MedianAnnualRevenue),
		"Mean Ticket":      numberProp(s.MeanTicketSize),
		"Mean Txn Count":   numberProp(s.MeanTransactionCount),
		"Mean YoY Growth":  numberProp(s.MeanYoYGrowth),
		"Mean Seasonality": numberProp(s.MeanSeasonalityRatio),
		"Computed": notionapi.RichTextProperty{
			RichText: []notionapi.RichText{{Text: &notionapi.Text{
				Content: fmt.Sprintf("%s (%d trusted peers)", s.CreatedAt.Format("2006-01-02"), s.Count),
			}}},
		},
	}
}

func numberProp(v float64) notionapi.NumberProperty {
	return notionapi.NumberProperty{Number: v}
}
