package pg

import (
	"context"
	"database/sql"
	"errors"

	"github.com/ibeloyar/laundry/internal/model"
	"github.com/shopspring/decimal"
)

// GetSubscription returns the client's plan and the weight washed in period.
// A period without a usage row reads as zero.
func (r *Repository) GetSubscription(ctx context.Context, clientID string, period model.BillingPeriod) (model.ClientSubscription, error) {
	sub := model.ClientSubscription{ClientID: clientID, Period: period}

	err := r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		query := `SELECT c.plan, c.quota_ceiling_kg, COALESCE(u.washed_kg, 0)
		FROM clients c
		LEFT JOIN client_usage u ON u.client_id = c.id AND u.year = $2 AND u.month = $3
		WHERE c.id = $1`

		var plan string
		var ceiling decimal.NullDecimal

		err := db.QueryRowContext(ctx, query, clientID, period.Year, int(period.Month)).
			Scan(&plan, &ceiling, &sub.WashedKg)
		if err != nil {
			return err
		}

		sub.Plan = model.PlanKind(plan)
		if ceiling.Valid {
			sub.QuotaCeilingKg = ceiling.Decimal
		}

		return nil
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.ClientSubscription{}, model.ErrClientNotFound
	}
	if err != nil {
		return model.ClientSubscription{}, err
	}

	return sub, nil
}

// applyQuotaIncrement adds inc.DeltaKg to the usage counter only if it still
// holds the value the caller priced against.
func applyQuotaIncrement(ctx context.Context, tx *sql.Tx, inc *model.QuotaIncrement) error {
	_, err := tx.ExecContext(ctx, `INSERT INTO client_usage (client_id, year, month, washed_kg)
		VALUES ($1, $2, $3, 0) ON CONFLICT (client_id, year, month) DO NOTHING`,
		inc.ClientID,
		inc.Period.Year,
		int(inc.Period.Month),
	)
	if err != nil {
		return err
	}

	res, err := tx.ExecContext(ctx, `UPDATE client_usage SET washed_kg = washed_kg + $1
		WHERE client_id = $2 AND year = $3 AND month = $4 AND washed_kg = $5`,
		inc.DeltaKg,
		inc.ClientID,
		inc.Period.Year,
		int(inc.Period.Month),
		inc.ExpectedWashedKg,
	)
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrQuotaConflict
	}

	return nil
}
