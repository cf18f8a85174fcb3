package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"libretto/internal/amqp"
	"libretto/internal/core"
	"libretto/internal/storage"
)

// TransactionService orchestrates transaction writes across the local store
// and AMQP. The local write is authoritative; event publishing is
// best-effort and never fails the request.
type TransactionService struct {
	store      storage.Store
	amqpClient *amqp.Client
}

func NewTransactionService(store storage.Store, amqpClient *amqp.Client) *TransactionService {
	return &TransactionService{
		store:      store,
		amqpClient: amqpClient,
	}
}

// Create validates and saves a transaction, then publishes an insert event.
func (s *TransactionService) Create(ctx context.Context, tx core.Transaction) (int64, error) {
	if err := tx.Validate(); err != nil {
		return 0, err
	}

	id, err := s.store.InsertTransaction(ctx, tx)
	if err != nil {
		return 0, fmt.Errorf("save transaction: %w", err)
	}

	s.publishEvent(ctx, id, string(storage.OpInsert), tx.Date)
	return id, nil
}

// Update validates and replaces an existing transaction.
func (s *TransactionService) Update(ctx context.Context, tx core.Transaction) error {
	if err := tx.Validate(); err != nil {
		return err
	}

	if err := s.store.UpdateTransaction(ctx, tx); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}

	s.publishEvent(ctx, tx.ID, string(storage.OpUpdate), tx.Date)
	return nil
}

// Delete removes a transaction and publishes a delete event.
func (s *TransactionService) Delete(ctx context.Context, id int64) error {
	tx, err := s.store.GetTransaction(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.DeleteTransaction(ctx, id); err != nil {
		return fmt.Errorf("delete transaction: %w", err)
	}

	s.publishEvent(ctx, id, string(storage.OpDelete), tx.Date)
	return nil
}

// Get fetches a single transaction.
func (s *TransactionService) Get(ctx context.Context, id int64) (core.Transaction, error) {
	return s.store.GetTransaction(ctx, id)
}

// Categories lists the categories for one transaction type.
func (s *TransactionService) Categories(ctx context.Context, t core.Type) ([]core.Category, error) {
	if err := t.Validate(); err != nil {
		return nil, err
	}
	return s.store.CategoriesByType(ctx, t)
}

// CreateCategory adds a user-defined category.
func (s *TransactionService) CreateCategory(ctx context.Context, c core.Category) (int64, error) {
	if err := c.Validate(); err != nil {
		return 0, err
	}
	c.IsCustom = true
	return s.store.InsertCategory(ctx, c)
}

func (s *TransactionService) publishEvent(ctx context.Context, id int64, op string, date time.Time) {
	if s.amqpClient == nil {
		return
	}
	if err := s.amqpClient.PublishTransactionEvent(ctx, id, op, date); err != nil {
		// Local write already succeeded, so log and move on.
		slog.ErrorContext(ctx, "Failed to publish transaction event",
			"id", id, "op", op, "error", err)
	}
}

// Close closes the AMQP connection. The store is closed by its owner.
func (s *TransactionService) Close() error {
	if s.amqpClient != nil {
		if err := s.amqpClient.Close(); err != nil {
			return fmt.Errorf("close amqp: %w", err)
		}
	}
	return nil
}
