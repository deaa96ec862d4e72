package invoice_test

import (
	"context"
	"errors"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rcarvalho-pb/billing_system-go/internal/application/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/event"
	domainInvoice "github.com/rcarvalho-pb/billing_system-go/internal/domain/invoice"
	"github.com/rcarvalho-pb/billing_system-go/internal/domain/transaction"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/clock"
	guidgen "github.com/rcarvalho-pb/billing_system-go/internal/infra/guid"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/logging"
	"github.com/rcarvalho-pb/billing_system-go/internal/infra/metrics"
	"github.com/rcarvalho-pb/billing_system-go/internal/infrastructure/persistence/inmemory"
)

const (
	customerGUID  = "CU1"
	amount        = int64(556677)
	title         = "Foobar invoice"
	paymentURI    = "/v1/cards/1234"
	newPaymentURI = "/v1/cards/5678"
)

var (
	createNow = time.Date(2013, 8, 16, 0, 0, 0, 0, time.UTC)
	updateNow = time.Date(2013, 8, 17, 0, 0, 0, 0, time.UTC)
)

type fixture struct {
	store   *inmemory.Store
	clock   *clock.Fixed
	metrics *metrics.Counters
	service *invoice.Service
}

func newFixture() *fixture {
	f := &fixture{
		store:   inmemory.NewStore(),
		clock:   clock.NewFixed(createNow),
		metrics: &metrics.Counters{},
	}
	f.service = &invoice.Service{
		Repo:    f.store,
		Clock:   f.clock,
		GUIDs:   guidgen.UUIDGenerator{},
		Logger:  logging.Nop{},
		Metrics: f.metrics,
	}
	return f
}

func (f *fixture) create(t *testing.T, uri string) string {
	t.Helper()
	guid, err := f.service.Create(context.Background(), invoice.CreateParams{
		CustomerGUID: customerGUID,
		Title:        title,
		Amount:       amount,
		PaymentURI:   uri,
	})
	require.NoError(t, err)
	return guid
}

func (f *fixture) get(t *testing.T, guid string) *domainInvoice.Invoice {
	t.Helper()
	inv, err := f.service.Get(context.Background(), guid, true)
	require.NoError(t, err)
	return inv
}

func TestGet(t *testing.T) {
	f := newFixture()
	ctx := context.Background()

	inv, err := f.service.Get(ctx, "IV_NON_EXIST", false)
	require.NoError(t, err)
	assert.Nil(t, inv)

	_, err = f.service.Get(ctx, "IV_NON_EXIST", true)
	assert.ErrorIs(t, err, invoice.ErrNotFound)

	guid, err := f.service.Create(ctx, invoice.CreateParams{
		CustomerGUID: customerGUID,
		Amount:       1000,
	})
	require.NoError(t, err)

	inv, err = f.service.Get(ctx, guid, false)
	require.NoError(t, err)
	require.NotNil(t, inv)
	assert.Equal(t, guid, inv.GUID)
}

func TestCreate(t *testing.T) {
	f := newFixture()

	guid := f.create(t, "")

	inv := f.get(t, guid)
	assert.Equal(t, guid, inv.GUID)
	assert.True(t, strings.HasPrefix(inv.GUID, "IV"))
	assert.Equal(t, customerGUID, inv.CustomerGUID)
	assert.Equal(t, title, inv.Title)
	assert.Equal(t, domainInvoice.StatusInit, inv.Status)
	assert.Equal(t, amount, inv.Amount)
	assert.Empty(t, inv.PaymentURI)
	assert.Equal(t, createNow, inv.CreatedAt)
	assert.Equal(t, createNow, inv.UpdatedAt)
	assert.Empty(t, inv.Transactions)

	assert.Equal(t, uint64(1), f.metrics.InvoicesCreated)
	assert.Equal(t, uint64(0), f.metrics.TransactionsScheduled)
}

func TestCreate_WithPaymentURI(t *testing.T) {
	f := newFixture()

	guid := f.create(t, paymentURI)

	inv := f.get(t, guid)
	assert.True(t, strings.HasPrefix(inv.GUID, "IV"))
	assert.Equal(t, customerGUID, inv.CustomerGUID)
	assert.Equal(t, domainInvoice.StatusProcessing, inv.Status)
	assert.Equal(t, title, inv.Title)
	assert.Equal(t, amount, inv.Amount)
	assert.Equal(t, paymentURI, inv.PaymentURI)
	assert.Equal(t, createNow, inv.CreatedAt)
	assert.Equal(t, createNow, inv.UpdatedAt)

	require.Len(t, inv.Transactions, 1)
	tx := inv.Transactions[0]
	assert.True(t, strings.HasPrefix(tx.GUID, "IT"))
	assert.Equal(t, transaction.TypeCharge, tx.Type)
	assert.Equal(t, transaction.ClassInvoice, tx.Class)
	assert.Equal(t, transaction.StatusInit, tx.Status)
	assert.Equal(t, inv.GUID, tx.InvoiceGUID)
	assert.Equal(t, amount, tx.Amount)
	assert.Equal(t, paymentURI, tx.PaymentURI)
	assert.Equal(t, createNow, tx.ScheduledAt)

	events := f.store.Events()
	require.Len(t, events, 2)
	assert.Equal(t, event.InvoiceCreated, events[0].Type)
	assert.Equal(t, event.TransactionScheduled, events[1].Type)
}

func TestCreate_WithWrongAmount(t *testing.T) {
	for _, wrong := range []int64{0, -1, -556677} {
		f := newFixture()

		_, err := f.service.Create(context.Background(), invoice.CreateParams{
			CustomerGUID: customerGUID,
			Amount:       wrong,
			PaymentURI:   paymentURI,
		})
		require.ErrorIs(t, err, invoice.ErrValidation)
		assert.ErrorIs(t, err, invoice.ErrInvalidAmount)

		assert.Empty(t, f.store.Events())
		assert.Equal(t, uint64(0), f.metrics.InvoicesCreated)
	}
}

func TestUpdate_PaymentURI(t *testing.T) {
	f := newFixture()
	guid := f.create(t, "")
	require.Empty(t, f.get(t, guid).Transactions)

	f.clock.Set(updateNow)
	require.NoError(t, f.service.Update(context.Background(), guid, paymentURI))

	inv := f.get(t, guid)
	assert.Equal(t, domainInvoice.StatusProcessing, inv.Status)
	assert.Equal(t, paymentURI, inv.PaymentURI)
	assert.Equal(t, updateNow, inv.UpdatedAt)
	assert.Equal(t, createNow, inv.CreatedAt)

	require.Len(t, inv.Transactions, 1)
	tx := inv.Transactions[0]
	assert.Equal(t, transaction.StatusInit, tx.Status)
	assert.Equal(t, guid, tx.InvoiceGUID)
	assert.Equal(t, amount, tx.Amount)
	assert.Equal(t, paymentURI, tx.PaymentURI)
	assert.Equal(t, updateNow, tx.ScheduledAt)
}

func TestUpdate_PaymentURIWhileProcessing(t *testing.T) {
	f := newFixture()
	guid := f.create(t, paymentURI)
	firstGUID := f.get(t, guid).Transactions[0].GUID

	f.clock.Set(updateNow)
	require.NoError(t, f.service.Update(context.Background(), guid, newPaymentURI))

	inv := f.get(t, guid)
	assert.Equal(t, domainInvoice.StatusProcessing, inv.Status)
	assert.Equal(t, updateNow, inv.UpdatedAt)
	require.Len(t, inv.Transactions, 2)

	canceled := inv.Transactions[0]
	assert.Equal(t, firstGUID, canceled.GUID)
	assert.Equal(t, transaction.StatusCanceled, canceled.Status)
	assert.Equal(t, guid, canceled.InvoiceGUID)
	assert.Equal(t, amount, canceled.Amount)
	assert.Equal(t, paymentURI, canceled.PaymentURI)
	assert.Equal(t, createNow, canceled.ScheduledAt)
	assert.Equal(t, createNow, canceled.CreatedAt)

	scheduled := inv.Transactions[1]
	assert.Equal(t, transaction.StatusInit, scheduled.Status)
	assert.Equal(t, guid, scheduled.InvoiceGUID)
	assert.Equal(t, amount, scheduled.Amount)
	assert.Equal(t, newPaymentURI, scheduled.PaymentURI)
	assert.Equal(t, updateNow, scheduled.ScheduledAt)
	assert.Equal(t, inv.UpdatedAt, scheduled.ScheduledAt)

	assert.Equal(t, uint64(1), f.metrics.TransactionsCanceled)
	assert.Equal(t, uint64(2), f.metrics.TransactionsScheduled)
}

func TestUpdate_PaymentURIWhileFailed(t *testing.T) {
	f := newFixture()
	guid := f.create(t, paymentURI)
	failed := f.get(t, guid).Transactions[0]

	require.NoError(t, f.store.ForceTransactionStatus(failed.GUID, transaction.StatusFailed))
	require.NoError(t, f.store.ForceInvoiceStatus(guid, domainInvoice.StatusProcessFailed))

	f.clock.Set(updateNow)
	require.NoError(t, f.service.Update(context.Background(), guid, newPaymentURI))

	inv := f.get(t, guid)
	assert.Equal(t, domainInvoice.StatusProcessing, inv.Status)
	assert.Equal(t, updateNow, inv.UpdatedAt)
	require.Len(t, inv.Transactions, 2)

	kept := inv.Transactions[0]
	assert.Equal(t, failed.GUID, kept.GUID)
	assert.Equal(t, transaction.StatusFailed, kept.Status)
	assert.Equal(t, guid, kept.InvoiceGUID)
	assert.Equal(t, amount, kept.Amount)
	assert.Equal(t, paymentURI, kept.PaymentURI)
	assert.Equal(t, createNow, kept.ScheduledAt)
	assert.Equal(t, createNow, kept.UpdatedAt)

	scheduled := inv.Transactions[1]
	assert.Equal(t, transaction.StatusInit, scheduled.Status)
	assert.Equal(t, newPaymentURI, scheduled.PaymentURI)
	assert.Equal(t, updateNow, scheduled.ScheduledAt)

	assert.Equal(t, uint64(0), f.metrics.TransactionsCanceled)
}

func TestUpdate_OnlyLatestPendingIsCanceled(t *testing.T) {
	f := newFixture()
	guid := f.create(t, paymentURI)

	f.clock.Set(updateNow)
	require.NoError(t, f.service.Update(context.Background(), guid, newPaymentURI))

	third := updateNow.Add(time.Hour)
	f.clock.Set(third)
	require.NoError(t, f.service.Update(context.Background(), guid, "/v1/cards/9999"))

	txs := f.get(t, guid).Transactions
	require.Len(t, txs, 3)
	assert.Equal(t, transaction.StatusCanceled, txs[0].Status)
	assert.Equal(t, updateNow, txs[0].UpdatedAt)
	assert.Equal(t, transaction.StatusCanceled, txs[1].Status)
	assert.Equal(t, third, txs[1].UpdatedAt)
	assert.Equal(t, transaction.StatusInit, txs[2].Status)
	assert.Equal(t, "/v1/cards/9999", txs[2].PaymentURI)
}

func TestUpdate_PaymentURIWithWrongStatus(t *testing.T) {
	statuses := []domainInvoice.Status{
		domainInvoice.StatusRefunded,
		domainInvoice.StatusRefunding,
		domainInvoice.StatusRefundFailed,
		domainInvoice.StatusCanceled,
		domainInvoice.StatusSettled,
	}

	for _, status := range statuses {
		t.Run(string(status), func(t *testing.T) {
			f := newFixture()
			guid := f.create(t, paymentURI)
			require.NoError(t, f.store.ForceInvoiceStatus(guid, status))

			before := f.get(t, guid)
			eventsBefore := len(f.store.Events())

			f.clock.Set(updateNow)
			err := f.service.Update(context.Background(), guid, newPaymentURI)
			require.ErrorIs(t, err, invoice.ErrInvalidOperation)

			assert.Equal(t, before, f.get(t, guid))
			assert.Len(t, f.store.Events(), eventsBefore)
			assert.Equal(t, uint64(1), f.metrics.UpdatesRejected)
		})
	}
}

func TestUpdate_MissingInvoice(t *testing.T) {
	f := newFixture()

	err := f.service.Update(context.Background(), "IV_NON_EXIST", paymentURI)
	assert.ErrorIs(t, err, invoice.ErrNotFound)
}

func TestUpdate_EmptyPaymentURI(t *testing.T) {
	f := newFixture()
	guid := f.create(t, paymentURI)

	before := f.get(t, guid)
	eventsBefore := len(f.store.Events())

	f.clock.Set(updateNow)
	err := f.service.Update(context.Background(), guid, "")
	require.ErrorIs(t, err, invoice.ErrValidation)
	assert.ErrorIs(t, err, invoice.ErrMissingPaymentURI)

	assert.Equal(t, before, f.get(t, guid))
	assert.Len(t, f.store.Events(), eventsBefore)
	assert.Zero(t, f.metrics.UpdatesRejected)
}

// failingRepo lets the unit run and then fails a chosen write.
type failingRepo struct {
	domainInvoice.Repository
	failOn string
}

type failingUnit struct {
	domainInvoice.UnitOfWork
	failOn string
}

var errStoreDown = errors.New("store down")

func (r *failingRepo) RunAtomic(ctx context.Context, fn func(domainInvoice.UnitOfWork) error) error {
	return r.Repository.RunAtomic(ctx, func(uow domainInvoice.UnitOfWork) error {
		return fn(&failingUnit{UnitOfWork: uow, failOn: r.failOn})
	})
}

func (u *failingUnit) CreateTransaction(ctx context.Context, tx *transaction.Transaction) error {
	if u.failOn == "CreateTransaction" {
		return errStoreDown
	}
	return u.UnitOfWork.CreateTransaction(ctx, tx)
}

func (u *failingUnit) RecordEvent(ctx context.Context, evt event.Event) error {
	if u.failOn == "RecordEvent" && evt.Type == event.TransactionScheduled {
		return errStoreDown
	}
	return u.UnitOfWork.RecordEvent(ctx, evt)
}

func TestCreate_StoreFailureLeavesNothingBehind(t *testing.T) {
	f := newFixture()
	f.service.Repo = &failingRepo{Repository: f.store, failOn: "CreateTransaction"}

	_, err := f.service.Create(context.Background(), invoice.CreateParams{
		CustomerGUID: customerGUID,
		Amount:       amount,
		PaymentURI:   paymentURI,
	})
	require.ErrorIs(t, err, errStoreDown)

	assert.Empty(t, f.store.Events())
	assert.Equal(t, uint64(0), f.metrics.InvoicesCreated)
}

func TestUpdate_StoreFailureRollsBackCancellation(t *testing.T) {
	f := newFixture()
	guid := f.create(t, paymentURI)
	before := f.get(t, guid)

	f.service.Repo = &failingRepo{Repository: f.store, failOn: "RecordEvent"}
	f.clock.Set(updateNow)

	err := f.service.Update(context.Background(), guid, newPaymentURI)
	require.ErrorIs(t, err, errStoreDown)

	f.service.Repo = f.store
	assert.Equal(t, before, f.get(t, guid))
}

func TestUpdate_ConcurrentCallsLeaveOnePendingAttempt(t *testing.T) {
	f := newFixture()
	guid := f.create(t, paymentURI)

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			_ = f.service.Update(context.Background(), guid, newPaymentURI)
		}()
	}
	wg.Wait()

	txs := f.get(t, guid).Transactions
	require.Len(t, txs, 9)

	pending := 0
	for _, tx := range txs {
		if tx.Status == transaction.StatusInit {
			pending++
		}
	}
	assert.Equal(t, 1, pending)
}
