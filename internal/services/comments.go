package services

import (
	"context"
	"strings"

	"suarawarga/internal/models"
	"suarawarga/internal/utils"
)

// AddComment appends a comment to the report. Comments cannot be edited or removed.
func (e *Engine) AddComment(ctx context.Context, reportID, wallet, text string) (*models.Report, error) {
	reportID = strings.TrimSpace(reportID)
	wallet = strings.TrimSpace(wallet)
	text = strings.TrimSpace(text)

	var missing []string
	if reportID == "" {
		missing = append(missing, "reportId")
	}
	if wallet == "" {
		missing = append(missing, "walletAddress")
	}
	if text == "" {
		missing = append(missing, "text")
	}
	if len(missing) > 0 {
		err := missingFields(missing...)
		e.fail("comment", reportID, err)
		return nil, err
	}

	report, err := e.mutate(ctx, reportID, func(r *models.Report) error {
		r.Comments = append(r.Comments, models.Comment{
			ID:            utils.NewID(CommentPrefix),
			WalletAddress: wallet,
			Text:          text,
			CreatedAt:     e.reports.now().UTC(),
		})
		return nil
	})
	if err != nil {
		e.fail("comment", reportID, err)
		return nil, err
	}

	e.metrics.incComment()
	e.log.Info().Str("report_id", report.ID).Str("wallet", wallet).Msg("comment added")

	e.afterWrite(ctx, models.ActivityTypeComment, report, wallet)
	return report, nil
}
