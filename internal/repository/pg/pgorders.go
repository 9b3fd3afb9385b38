package pg

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/ibeloyar/laundry/internal/model"
)

const orderColumns = `id, client_id, weight_kg, formula, surplus_formula, options, is_student,
	price, allocation, period_year, period_month, status, version, created_at`

type rowScanner interface {
	Scan(dest ...any) error
}

// CreateOrder stores a new order and, when inc is set, the Premium quota it
// consumes. Both happen in one transaction.
func (r *Repository) CreateOrder(ctx context.Context, order model.Order, inc *model.QuotaIncrement) error {
	options, price, allocation, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}

	err = r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		return inTx(ctx, db, func(tx *sql.Tx) error {
			_, err := tx.ExecContext(ctx, `INSERT INTO orders (id, client_id, weight_kg, formula, surplus_formula,
				options, is_student, price, allocation, period_year, period_month, status, version, created_at, updated_at)
				VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $14)`,
				order.ID,
				nullString(order.ClientID),
				order.WeightKg,
				order.Formula,
				nullFormula(order.SurplusFormula),
				options,
				order.IsStudent,
				price,
				allocation,
				order.Period.Year,
				int(order.Period.Month),
				order.Status,
				order.Version,
				order.CreatedAt,
			)
			if err != nil {
				return err
			}

			if inc != nil {
				return applyQuotaIncrement(ctx, tx, inc)
			}

			return nil
		})
	})

	switch {
	case isUniqueViolation(err):
		return fmt.Errorf("%w: order %s already exists", model.ErrOrderConflict, order.ID)
	case isForeignKeyViolation(err):
		return model.ErrClientNotFound
	}

	return err
}

// UpdateOrder replaces the mutable fields and the price breakdown of an order
// still at expectedVersion.
func (r *Repository) UpdateOrder(ctx context.Context, order model.Order, expectedVersion int64, inc *model.QuotaIncrement) error {
	options, price, allocation, err := marshalOrderDocs(order)
	if err != nil {
		return err
	}

	return r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		return inTx(ctx, db, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `UPDATE orders SET weight_kg = $1, formula = $2, surplus_formula = $3,
				options = $4, is_student = $5, price = $6, allocation = $7, version = $8, updated_at = NOW()
				WHERE id = $9 AND version = $10`,
				order.WeightKg,
				order.Formula,
				nullFormula(order.SurplusFormula),
				options,
				order.IsStudent,
				price,
				allocation,
				order.Version,
				order.ID,
				expectedVersion,
			)
			if err := expectOneRow(res, err); err != nil {
				return err
			}

			if inc != nil {
				return applyQuotaIncrement(ctx, tx, inc)
			}

			return nil
		})
	})
}

// UpdateOrderStatus persists the new status and appends the last history event.
func (r *Repository) UpdateOrderStatus(ctx context.Context, order model.Order, expectedVersion int64) error {
	return r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		return inTx(ctx, db, func(tx *sql.Tx) error {
			res, err := tx.ExecContext(ctx, `UPDATE orders SET status = $1, version = $2, updated_at = NOW()
				WHERE id = $3 AND version = $4`,
				order.Status,
				order.Version,
				order.ID,
				expectedVersion,
			)
			if err := expectOneRow(res, err); err != nil {
				return err
			}

			if len(order.History) == 0 {
				return nil
			}

			event := order.History[len(order.History)-1]
			_, err = tx.ExecContext(ctx, `INSERT INTO order_status_events (order_id, from_status, to_status, at)
				VALUES ($1, $2, $3, $4)`,
				order.ID,
				event.From,
				event.To,
				event.At,
			)

			return err
		})
	})
}

func (r *Repository) GetOrder(ctx context.Context, id string) (model.Order, error) {
	var order model.Order

	err := r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		row := db.QueryRowContext(ctx, `SELECT `+orderColumns+` FROM orders WHERE id = $1`, id)

		var err error
		order, err = scanOrder(row)
		if err != nil {
			return err
		}

		rows, err := db.QueryContext(ctx, `SELECT from_status, to_status, at
			FROM order_status_events WHERE order_id = $1 ORDER BY id`, id)
		if err != nil {
			return err
		}
		defer rows.Close()

		for rows.Next() {
			var event model.StatusEvent
			if err := rows.Scan(&event.From, &event.To, &event.At); err != nil {
				return err
			}
			event.At = event.At.UTC()
			order.History = append(order.History, event)
		}

		return rows.Err()
	})
	if errors.Is(err, sql.ErrNoRows) {
		return model.Order{}, model.ErrOrderNotFound
	}
	if err != nil {
		return model.Order{}, err
	}

	return order, nil
}

// GetOrdersByClientID lists a client's orders, newest first, without history.
func (r *Repository) GetOrdersByClientID(ctx context.Context, clientID string) ([]model.Order, error) {
	result := make([]model.Order, 0)

	err := r.executeWithRetryConnection(ctx, func(db *sql.DB) error {
		rows, err := db.QueryContext(ctx, `SELECT `+orderColumns+`
			FROM orders WHERE client_id = $1 ORDER BY created_at DESC`, clientID)
		if err != nil {
			return err
		}
		defer rows.Close()

		result = result[:0]
		for rows.Next() {
			order, err := scanOrder(rows)
			if err != nil {
				return err
			}

			result = append(result, order)
		}

		return rows.Err()
	})
	if err != nil {
		return nil, err
	}

	return result, nil
}

func scanOrder(row rowScanner) (model.Order, error) {
	var (
		order          model.Order
		clientID       sql.NullString
		surplusFormula sql.NullString
		options        []byte
		price          []byte
		allocation     []byte
		month          int
		createdAt      time.Time
	)

	err := row.Scan(
		&order.ID,
		&clientID,
		&order.WeightKg,
		&order.Formula,
		&surplusFormula,
		&options,
		&order.IsStudent,
		&price,
		&allocation,
		&order.Period.Year,
		&month,
		&order.Status,
		&order.Version,
		&createdAt,
	)
	if err != nil {
		return model.Order{}, err
	}

	if clientID.Valid {
		order.ClientID = &clientID.String
	}
	if surplusFormula.Valid {
		f := model.Formula(surplusFormula.String)
		order.SurplusFormula = &f
	}
	order.Period.Month = time.Month(month)
	order.CreatedAt = createdAt.UTC()

	if err := json.Unmarshal(options, &order.Options); err != nil {
		return model.Order{}, fmt.Errorf("decode options of order %s: %w", order.ID, err)
	}
	if err := json.Unmarshal(price, &order.Price); err != nil {
		return model.Order{}, fmt.Errorf("decode price of order %s: %w", order.ID, err)
	}
	if err := json.Unmarshal(allocation, &order.Allocation); err != nil {
		return model.Order{}, fmt.Errorf("decode allocation of order %s: %w", order.ID, err)
	}

	return order, nil
}

func marshalOrderDocs(order model.Order) (options, price, allocation []byte, err error) {
	if options, err = json.Marshal(order.Options); err != nil {
		return nil, nil, nil, err
	}
	if price, err = json.Marshal(order.Price); err != nil {
		return nil, nil, nil, err
	}
	if allocation, err = json.Marshal(order.Allocation); err != nil {
		return nil, nil, nil, err
	}

	return options, price, allocation, nil
}

// expectOneRow turns a version-guarded update that matched nothing into ErrOrderConflict.
func expectOneRow(res sql.Result, err error) error {
	if err != nil {
		return err
	}

	affected, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if affected == 0 {
		return model.ErrOrderConflict
	}

	return nil
}

func nullString(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: *s, Valid: true}
}

func nullFormula(f *model.Formula) sql.NullString {
	if f == nil {
		return sql.NullString{}
	}

	return sql.NullString{String: string(*f), Valid: true}
}
