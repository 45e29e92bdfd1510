package ledger

import (
	"context"
	"errors"
	"path/filepath"
	"time"

	. "github.com/onsi/ginkgo/v2"
	. "github.com/onsi/gomega"
)

var _ = Describe("BoltStore", func() {
	var (
		ctx    context.Context
		tmpDir string
		dbPath string
		store  *BoltStore
	)

	BeforeEach(func() {
		ctx = context.Background()
		tmpDir = GinkgoT().TempDir()
		dbPath = filepath.Join(tmpDir, "test.db")
		var err error
		store, err = NewBoltStore(dbPath)
		Expect(err).NotTo(HaveOccurred())
	})

	AfterEach(func() {
		if store != nil {
			store.Close()
		}
	})

	Describe("SaveReceipt", func() {
		var (
			receipt *Receipt
			err     error
		)

		BeforeEach(func() {
			receipt = &Receipt{
				ID:        "test-id",
				ImageData: "aGVsbG8=",
				Price:     12.50,
				OCRText:   "Total: RM 12.50",
				Pattern:   "currency-prefixed",
				CreatedAt: time.Now(),
			}
		})

		JustBeforeEach(func() {
			err = store.SaveReceipt(ctx, receipt)
		})

		When("saving succeeds", func() {
			It("should not return an error", func() {
				Expect(err).NotTo(HaveOccurred())
			})

			It("should save the receipt to the database", func() {
				saved, getErr := store.GetReceipt(ctx, "test-id")
				Expect(getErr).NotTo(HaveOccurred())
				Expect(saved.ID).To(Equal("test-id"))
				Expect(saved.Price).To(Equal(12.50))
				Expect(saved.ImageData).To(Equal("aGVsbG8="))
			})
		})
	})

	Describe("GetReceipt", func() {
		var (
			receiptID string
			receipt   *Receipt
			err       error
		)

		JustBeforeEach(func() {
			receipt, err = store.GetReceipt(ctx, receiptID)
		})

		When("receipt exists", func() {
			BeforeEach(func() {
				receiptID = "test-id"
				Expect(store.SaveReceipt(ctx, &Receipt{
					ID:        "test-id",
					Price:     8.90,
					CreatedAt: time.Now(),
				})).NotTo(HaveOccurred())
			})

			It("should return the receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipt.ID).To(Equal("test-id"))
				Expect(receipt.Price).To(Equal(8.90))
			})
		})

		When("receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "missing"
			})

			It("should return ErrNotFound", func() {
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
				Expect(receipt).To(BeNil())
			})
		})
	})

	Describe("ListReceipts", func() {
		var (
			receipts []*Receipt
			err      error
		)

		JustBeforeEach(func() {
			receipts, err = store.ListReceipts(ctx)
		})

		When("the store is empty", func() {
			It("should return an empty slice", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(BeEmpty())
			})
		})

		When("multiple receipts exist", func() {
			BeforeEach(func() {
				base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
				Expect(store.SaveReceipt(ctx, &Receipt{ID: "a", Price: 1, CreatedAt: base})).NotTo(HaveOccurred())
				Expect(store.SaveReceipt(ctx, &Receipt{ID: "b", Price: 2, CreatedAt: base.Add(time.Hour)})).NotTo(HaveOccurred())
				Expect(store.SaveReceipt(ctx, &Receipt{ID: "c", Price: 3, CreatedAt: base.Add(30 * time.Minute)})).NotTo(HaveOccurred())
			})

			It("should return receipts newest first", func() {
				Expect(err).NotTo(HaveOccurred())
				Expect(receipts).To(HaveLen(3))
				Expect(receipts[0].ID).To(Equal("b"))
				Expect(receipts[1].ID).To(Equal("c"))
				Expect(receipts[2].ID).To(Equal("a"))
			})
		})
	})

	Describe("DeleteReceipt", func() {
		var (
			receiptID string
			err       error
		)

		JustBeforeEach(func() {
			err = store.DeleteReceipt(ctx, receiptID)
		})

		When("receipt exists", func() {
			BeforeEach(func() {
				receiptID = "test-id"
				Expect(store.SaveReceipt(ctx, &Receipt{
					ID:        "test-id",
					Price:     5.00,
					CreatedAt: time.Now(),
				})).NotTo(HaveOccurred())
			})

			It("should remove the receipt", func() {
				Expect(err).NotTo(HaveOccurred())
				_, getErr := store.GetReceipt(ctx, "test-id")
				Expect(errors.Is(getErr, ErrNotFound)).To(BeTrue())
			})
		})

		When("receipt does not exist", func() {
			BeforeEach(func() {
				receiptID = "missing"
			})

			It("should return ErrNotFound", func() {
				Expect(errors.Is(err, ErrNotFound)).To(BeTrue())
			})
		})
	})

	Describe("SaveExpense", func() {
		It("should persist the expense record", func() {
			expense := &Expense{
				ID:        "exp-1",
				Amount:    42.00,
				Type:      ExpenseTypeTotal,
				CreatedAt: time.Now(),
			}
			Expect(store.SaveExpense(ctx, expense)).NotTo(HaveOccurred())

			expenses, err := store.ListExpenses(ctx)
			Expect(err).NotTo(HaveOccurred())
			Expect(expenses).To(HaveLen(1))
			Expect(expenses[0].Amount).To(Equal(42.00))
			Expect(expenses[0].Type).To(Equal(ExpenseTypeTotal))
		})
	})

	Describe("ListExpenses", func() {
		When("multiple expenses exist", func() {
			BeforeEach(func() {
				base := time.Date(2026, 3, 1, 10, 0, 0, 0, time.UTC)
				Expect(store.SaveExpense(ctx, &Expense{ID: "x", Amount: 1, Type: ExpenseTypeTotal, CreatedAt: base})).NotTo(HaveOccurred())
				Expect(store.SaveExpense(ctx, &Expense{ID: "y", Amount: 2, Type: ExpenseTypeTotal, CreatedAt: base.Add(time.Minute)})).NotTo(HaveOccurred())
			})

			It("should return expenses newest first", func() {
				expenses, err := store.ListExpenses(ctx)
				Expect(err).NotTo(HaveOccurred())
				Expect(expenses).To(HaveLen(2))
				Expect(expenses[0].ID).To(Equal("y"))
				Expect(expenses[1].ID).To(Equal("x"))
			})
		})
	})
})
