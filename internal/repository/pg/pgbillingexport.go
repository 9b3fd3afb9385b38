package pg

import (
	"bytes"
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"github.com/ibeloyar/laundry/internal/model"
	"github.com/ibeloyar/laundry/pgk/retryablehttp"
)

const (
	exportBatchSize       = 100
	exportShutdownTimeout = 4 * time.Second
)

// RunBillingExport periodically sends charges of delivered orders to the
// billing system. It does nothing when no billing address is configured.
func (r *Repository) RunBillingExport() {
	if r.billingAddress == "" || r.stopExportChan != nil {
		return
	}

	ticker := time.NewTicker(r.exportInterval)
	r.stopExportChan = make(chan struct{})
	r.exportDone = make(chan struct{})

	stop := r.stopExportChan
	done := r.exportDone

	go func() {
		defer close(done)
		defer ticker.Stop()

		for {
			select {
			case <-ticker.C:
				if r.workerPool.isPaused() {
					continue
				}
				r.exportCharges()
			case <-stop:
				return
			}
		}
	}()
}

func (r *Repository) StopBillingExport() {
	if r.stopExportChan == nil {
		return
	}

	close(r.stopExportChan)
	r.stopExportChan = nil

	finished := make(chan struct{})
	go func() {
		defer close(finished)
		r.workerPool.shutdown()
		<-r.exportDone
	}()

	select {
	case <-finished:
		r.lg.Info("billing export stopped")
	case <-time.After(exportShutdownTimeout):
		r.lg.Warn("billing export force stopped after timeout")
		r.workerPool.cancel()
	}
}

func (r *Repository) exportCharges() {
	charges, err := r.getPendingCharges(r.workerPool.ctx)
	if err != nil {
		r.lg.Errorf("getPendingCharges error: %v", err)
		return
	}

	if len(charges) > 0 {
		r.workerPool.run(charges, r.exportWorker)
	}
}

func (r *Repository) exportWorker(ctx context.Context, charge model.Charge) {
	if err := r.postCharge(ctx, charge); err != nil {
		r.lg.Errorf("export charge of order %s error: %v", charge.OrderID, err)
		return
	}

	if err := r.markExported(ctx, charge.OrderID); err != nil {
		r.lg.Errorf("mark order %s exported error: %v", charge.OrderID, err)
	}
}

// postCharge treats 409 as success: the billing system already holds the charge.
func (r *Repository) postCharge(ctx context.Context, charge model.Charge) error {
	body, err := json.Marshal(charge)
	if err != nil {
		return err
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, r.billingAddress+"/api/charges", bytes.NewReader(body))
	if err != nil {
		return err
	}
	req.Header.Set("Content-Type", "application/json")

	response, err := r.retryClient.Do(ctx, req)
	if err != nil {
		if response != nil && response.StatusCode == http.StatusTooManyRequests {
			retryAfter := retryablehttp.RetryAfter(response)
			r.workerPool.pausePoolWithTimer(retryAfter)
			return fmt.Errorf("rate limited: %v", retryAfter)
		}
		return err
	}
	defer response.Body.Close()

	switch response.StatusCode {
	case http.StatusOK, http.StatusCreated, http.StatusAccepted, http.StatusConflict:
		return nil
	}

	return fmt.Errorf("charge export request failed: %s", http.StatusText(response.StatusCode))
}

func (r *Repository) getPendingCharges(ctx context.Context) ([]model.Charge, error) {
	result := make([]model.Charge, 0)

	err := r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		query := `SELECT id, client_id, period_year, period_month, price
		FROM orders WHERE status = $1 AND exported_at IS NULL
		ORDER BY updated_at LIMIT $2`

		rows, err := db.QueryContext(ctx, query, model.OrderStatusDelivered, exportBatchSize)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			var (
				charge   model.Charge
				clientID sql.NullString
				month    int
				price    []byte
			)

			if err := rows.Scan(&charge.OrderID, &clientID, &charge.Period.Year, &month, &price); err != nil {
				return err
			}

			var breakdown model.PriceBreakdown
			if err := json.Unmarshal(price, &breakdown); err != nil {
				return fmt.Errorf("decode price of order %s: %w", charge.OrderID, err)
			}

			if clientID.Valid {
				charge.ClientID = &clientID.String
			}
			charge.Period.Month = time.Month(month)
			charge.BillableWeightKg = breakdown.BillableWeightKg
			charge.QuotaConsumedKg = breakdown.QuotaConsumedKg
			charge.Total = breakdown.Total

			result = append(result, charge)
		}

		return rows.Err()
	})

	return result, err
}

func (r *Repository) markExported(ctx context.Context, orderID string) error {
	return r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		_, err := db.ExecContext(ctx, `UPDATE orders SET exported_at = NOW() WHERE id = $1 AND exported_at IS NULL`, orderID)
		return err
	})
}
