package notionsync

import (
	"context"
	"fmt"
	"time"

	"github.com/jomei/notionapi"

	"github.com/spendview/spendview/internal/infra/bigquery"
	"github.com/spendview/spendview/internal/logger"
)

// SyncTransactions mirrors the warehouse's transactions for a date range
// into a Notion database. Pages whose Transaction ID is no longer in the
// warehouse are archived; missing transactions are created. Existing pages
// are left alone, so the sync is idempotent. With dryRun set the plan is
// logged and nothing is written.
func SyncTransactions(ctx context.Context, repo bigquery.Repository, notion NotionService, databaseID string, start, end time.Time, dryRun bool) error {
	log := logger.FromContext(ctx)

	log.Info().
		Time("start_date", start).
		Time("end_date", end).
		Bool("dry_run", dryRun).
		Msg("Starting transaction sync to Notion")

	transactions, err := repo.QueryTransactionsByDateRange(ctx, start, end)
	if err != nil {
		return fmt.Errorf("query transactions: %w", err)
	}

	valid := make(map[string]bool, len(transactions))
	for _, tx := range transactions {
		valid[tx.TransactionID] = true
	}

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return fmt.Errorf("query notion pages: %w", err)
	}

	existing := make(map[string]bool, len(pages))
	var deleted int
	for _, page := range pages {
		txID := pageTitle(page, "Transaction ID")
		if txID != "" && valid[txID] {
			existing[txID] = true
			continue
		}

		if dryRun {
			log.Info().
				Str("transaction_id", txID).
				Str("page_id", string(page.ID)).
				Msg("[DRY RUN] Would archive stale Notion page")
			deleted++
			continue
		}
		if err := notion.DeletePage(ctx, string(page.ID)); err != nil {
			log.Warn().
				Err(err).
				Str("page_id", string(page.ID)).
				Msg("Failed to archive stale Notion page")
			continue
		}
		deleted++
	}

	var created, skipped int
	for _, tx := range transactions {
		if existing[tx.TransactionID] {
			skipped++
			continue
		}

		if dryRun {
			log.Info().
				Str("transaction_id", tx.TransactionID).
				Msg("[DRY RUN] Would create Notion page")
			created++
			continue
		}

		if _, err := notion.CreatePage(ctx, databaseID, TransactionToProperties(tx)); err != nil {
			log.Warn().
				Err(err).
				Str("transaction_id", tx.TransactionID).
				Msg("Failed to create Notion page")
			continue
		}
		created++
	}

	log.Info().
		Int("created", created).
		Int("deleted", deleted).
		Int("skipped", skipped).
		Int("total", len(transactions)).
		Msg("Transaction sync completed")

	return nil
}

// SyncCategoryTotals exports the per-category totals of one extraction run
// into a Notion summary database.
func SyncCategoryTotals(ctx context.Context, repo bigquery.Repository, notion NotionService, databaseID, runID string, dryRun bool) error {
	log := logger.FromContext(ctx)

	totals, err := repo.QueryCategoryTotals(ctx, runID)
	if err != nil {
		return fmt.Errorf("query category totals: %w", err)
	}

	pages, err := queryAllPages(ctx, notion, databaseID)
	if err != nil {
		return fmt.Errorf("query notion pages: %w", err)
	}
	existing := make(map[string]bool, len(pages))
	for _, page := range pages {
		if id := pageTitle(page, "Summary ID"); id != "" {
			existing[id] = true
		}
	}

	var created, skipped int
	for _, row := range totals {
		summaryID := row.RunID + "/" + row.Category
		if existing[summaryID] {
			skipped++
			continue
		}

		if dryRun {
			log.Info().
				Str("summary_id", summaryID).
				Msg("[DRY RUN] Would create Notion summary page")
			created++
			continue
		}

		if _, err := notion.CreatePage(ctx, databaseID, CategoryTotalToProperties(row)); err != nil {
			log.Warn().
				Err(err).
				Str("summary_id", summaryID).
				Msg("Failed to create Notion summary page")
			continue
		}
		created++
	}

	log.Info().
		Str("run_id", runID).
		Int("created", created).
		Int("skipped", skipped).
		Msg("Category totals sync completed")

	return nil
}

// queryAllPages drains a Notion database query across pagination.
func queryAllPages(ctx context.Context, notion NotionService, databaseID string) ([]notionapi.Page, error) {
	var pages []notionapi.Page
	var cursor notionapi.Cursor

	for {
		req := &notionapi.DatabaseQueryRequest{PageSize: 100}
		if cursor != "" {
			req.StartCursor = cursor
		}

		resp, err := notion.QueryDatabase(ctx, databaseID, req)
		if err != nil {
			return nil, err
		}

		pages = append(pages, resp.Results...)
		if !resp.HasMore {
			break
		}
		cursor = resp.NextCursor
	}

	return pages, nil
}

// pageTitle reads the plain text of a title property, empty when absent.
func pageTitle(page notionapi.Page, property string) string {
	prop, ok := page.Properties[property]
	if !ok {
		return ""
	}
	title, ok := prop.(*notionapi.TitleProperty)
	if !ok || len(title.Title) == 0 {
		return ""
	}
	return title.Title[0].PlainText
}
