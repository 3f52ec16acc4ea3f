package notionsync

import (
	"time"

	"github.com/jomei/notionapi"

	"github.com/spendview/spendview/internal/infra/bigquery"
)

// TransactionToProperties maps a warehouse transaction row onto the Notion
// transactions database schema. Transaction ID is the title property and the
// sync's idempotency key.
func TransactionToProperties(tx *bigquery.TransactionRow) notionapi.Properties {
	amount, _ := tx.Amount.Float64()

	props := notionapi.Properties{
		"Transaction ID": notionapi.TitleProperty{
			Title: richText(tx.TransactionID),
		},
		"Description": notionapi.RichTextProperty{
			RichText: richText(tx.Description),
		},
		"Amount": notionapi.NumberProperty{
			Number: amount,
		},
		"Date": notionapi.DateProperty{
			Date: &notionapi.DateObject{
				Start: notionDate(time.Date(
					tx.TransactionDate.Year,
					tx.TransactionDate.Month,
					tx.TransactionDate.Day,
					0, 0, 0, 0, time.UTC,
				)),
			},
		},
		"Confidence": notionapi.NumberProperty{
			Number: tx.Confidence,
		},
	}

	if tx.Category != "" {
		props["Category"] = notionapi.SelectProperty{
			Select: notionapi.Option{Name: tx.Category},
		}
	}

	return props
}

// CategoryTotalToProperties maps one category total onto the Notion summary
// database schema. The title combines run and category so repeated syncs of
// the same run stay idempotent.
func CategoryTotalToProperties(row *bigquery.CategoryTotalRow) notionapi.Properties {
	total, _ := row.Total.Float64()

	return notionapi.Properties{
		"Summary ID": notionapi.TitleProperty{
			Title: richText(row.RunID + "/" + row.Category),
		},
		"Category": notionapi.SelectProperty{
			Select: notionapi.Option{Name: row.Category},
		},
		"Total": notionapi.NumberProperty{
			Number: total,
		},
	}
}

func richText(content string) []notionapi.RichText {
	return []notionapi.RichText{
		{
			Type: notionapi.ObjectTypeText,
			Text: &notionapi.Text{Content: content},
		},
	}
}

func notionDate(t time.Time) *notionapi.Date {
	d := notionapi.Date(t)
	return &d
}
