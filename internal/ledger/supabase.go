package ledger

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/supabase-community/supabase-go"
)

// SupabaseStore implements the Store interface against a hosted Supabase
// project, for deployments that want the records in a cloud store instead of a
// local file. Tables mirror the bolt buckets: "receipts" and "expenses".
type SupabaseStore struct {
	client *supabase.Client
}

// NewSupabaseStore creates a new SupabaseStore instance
func NewSupabaseStore(url, key string) (*SupabaseStore, error) {
	if url == "" || key == "" {
		return nil, fmt.Errorf("supabase url and key are required")
	}

	client, err := supabase.NewClient(url, key, &supabase.ClientOptions{})
	if err != nil {
		return nil, fmt.Errorf("creating supabase client: %w", err)
	}

	return &SupabaseStore{client: client}, nil
}

// SaveReceipt saves a receipt record
func (s *SupabaseStore) SaveReceipt(ctx context.Context, receipt *Receipt) error {
	_, _, err := s.client.From("receipts").Insert(receipt, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("saving receipt: %w", err)
	}
	return nil
}

// GetReceipt retrieves a receipt by ID
func (s *SupabaseStore) GetReceipt(ctx context.Context, id string) (*Receipt, error) {
	data, _, err := s.client.From("receipts").
		Select("*", "", false).
		Eq("id", id).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("getting receipt: %w", err)
	}

	var receipts []*Receipt
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, fmt.Errorf("parsing receipt: %w", err)
	}
	if len(receipts) == 0 {
		return nil, fmt.Errorf("receipt %s: %w", id, ErrNotFound)
	}
	return receipts[0], nil
}

// ListReceipts returns all receipts, newest first
func (s *SupabaseStore) ListReceipts(ctx context.Context) ([]*Receipt, error) {
	data, _, err := s.client.From("receipts").
		Select("*", "", false).
		Order("created_at.desc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing receipts: %w", err)
	}

	receipts := make([]*Receipt, 0)
	if err := json.Unmarshal(data, &receipts); err != nil {
		return nil, fmt.Errorf("parsing receipts: %w", err)
	}
	return receipts, nil
}

// DeleteReceipt removes a receipt record
func (s *SupabaseStore) DeleteReceipt(ctx context.Context, id string) error {
	_, _, err := s.client.From("receipts").
		Delete("", "").
		Eq("id", id).
		Execute()
	if err != nil {
		return fmt.Errorf("deleting receipt: %w", err)
	}
	return nil
}

// SaveExpense saves an expense record
func (s *SupabaseStore) SaveExpense(ctx context.Context, expense *Expense) error {
	_, _, err := s.client.From("expenses").Insert(expense, false, "", "", "").Execute()
	if err != nil {
		return fmt.Errorf("saving expense: %w", err)
	}
	return nil
}

// ListExpenses returns all expenses, newest first
func (s *SupabaseStore) ListExpenses(ctx context.Context) ([]*Expense, error) {
	data, _, err := s.client.From("expenses").
		Select("*", "", false).
		Order("created_at.desc", nil).
		Execute()
	if err != nil {
		return nil, fmt.Errorf("listing expenses: %w", err)
	}

	expenses := make([]*Expense, 0)
	if err := json.Unmarshal(data, &expenses); err != nil {
		return nil, fmt.Errorf("parsing expenses: %w", err)
	}
	return expenses, nil
}

// Close closes the store (no-op for the HTTP-backed client)
func (s *SupabaseStore) Close() error {
	return nil
}
