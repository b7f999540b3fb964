package services

import (
	"context"
	"strings"

	"suarawarga/internal/models"
)

// Verify adds wallet to the report's verification set.
//
// Rules are checked in order: the report must exist, the wallet must not be
// the reporter, must not have verified already, and the report must still be
// pending. The third distinct verification moves the report to verified,
// which is terminal.
func (e *Engine) Verify(ctx context.Context, reportID, wallet string) (*models.Report, error) {
	reportID = strings.TrimSpace(reportID)
	wallet = strings.TrimSpace(wallet)

	var missing []string
	if reportID == "" {
		missing = append(missing, "reportId")
	}
	if wallet == "" {
		missing = append(missing, "walletAddress")
	}
	if len(missing) > 0 {
		err := missingFields(missing...)
		e.fail("verify", reportID, err)
		return nil, err
	}

	report, err := e.mutate(ctx, reportID, func(r *models.Report) error {
		switch {
		case r.WalletAddress == wallet:
			return ErrSelfVerification
		case r.HasVerified(wallet):
			return ErrDuplicateVerification
		case r.IsVerified:
			return ErrAlreadyVerified
		}
		r.AddVerification(wallet)
		return nil
	})
	if err != nil {
		e.fail("verify", reportID, err)
		return nil, err
	}

	e.metrics.incVerification()
	ev := e.log.Info().Str("report_id", report.ID).Str("wallet", wallet).Int("verified_count", report.VerifiedCount)
	if report.IsVerified {
		// 只有跨过阈值的那一次验证能走到这里
		ev.Msg("report reached verification threshold")
	} else {
		ev.Msg("report verified by wallet")
	}

	e.afterWrite(ctx, models.ActivityTypeVerification, report, wallet)
	return report, nil
}
