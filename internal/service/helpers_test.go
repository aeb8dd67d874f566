package service

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/models"
	"github.com/Arpit626324/Automated-Customer-Dispute-Resolution/internal/repository"
)

var errStoreDown = errors.New("connection refused")

type memDocument struct {
	mu  sync.Mutex
	doc []byte
}

func (d *memDocument) Load(context.Context) ([]byte, error) {
	d.mu.Lock()
	defer d.mu.Unlock()
	return d.doc, nil
}

func (d *memDocument) Save(_ context.Context, doc []byte) error {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.doc = append([]byte(nil), doc...)
	return nil
}

// downBackend behaves like an unreachable remote database.
type downBackend struct{}

func (downBackend) Insert(context.Context, models.Claim) (models.Claim, error) {
	return models.Claim{}, errStoreDown
}
func (downBackend) Get(context.Context, string) (models.Claim, error) {
	return models.Claim{}, errStoreDown
}
func (downBackend) ListAll(context.Context) ([]models.Claim, error) { return nil, errStoreDown }
func (downBackend) ListByCustomer(context.Context, int64) ([]models.Claim, error) {
	return nil, errStoreDown
}
func (downBackend) ListByOrder(context.Context, int64) ([]models.Claim, error) {
	return nil, errStoreDown
}
func (downBackend) Save(context.Context, models.Claim) error { return errStoreDown }

// newOfflineRepository returns a claim repository whose remote side is down.
func newOfflineRepository() *repository.FallbackRepository {
	return repository.NewFallbackRepository(downBackend{}, repository.NewLocalClaimBackend(&memDocument{}))
}

type fakeOrderStore struct {
	orders map[int64]models.OrderMaster
	items  map[int64][]models.OrderItem
	err    error
}

func (s *fakeOrderStore) GetOrder(_ context.Context, orderID int64) (*models.OrderMaster, []models.OrderItem, error) {
	if s.err != nil {
		return nil, nil, s.err
	}
	order, ok := s.orders[orderID]
	if !ok {
		return nil, nil, models.ErrOrderNotFound
	}
	return &order, s.items[orderID], nil
}

func (s *fakeOrderStore) GetOrderSummaries(_ context.Context, orderIDs []int64) (map[int64]models.OrderSummary, error) {
	if s.err != nil {
		return nil, s.err
	}
	out := make(map[int64]models.OrderSummary)
	for _, id := range orderIDs {
		order, ok := s.orders[id]
		if !ok {
			continue
		}
		out[id] = models.OrderSummary{OrderID: id, TotalAmount: order.TotalAmount, Items: s.items[id]}
	}
	return out, nil
}

func newOrderStore() *fakeOrderStore {
	return &fakeOrderStore{
		orders: map[int64]models.OrderMaster{
			1001: {OrderID: 1001, CustomerID: 501, DeliveryStatus: "delivered", PaymentStatus: "paid", TotalAmount: 50, DeliveryDate: "2026-09-20"},
			1002: {OrderID: 1002, CustomerID: 502, DeliveryStatus: "delivered", PaymentStatus: "paid", TotalAmount: 120.5, DeliveryDate: "2027-01-15"},
		},
		items: map[int64][]models.OrderItem{
			1001: {{ProductName: "Ceramic Vase", Quantity: 1, PricePerUnit: 50}},
			1002: {
				{ProductName: "Headphones", Quantity: 1, PricePerUnit: 100.5},
				{ProductName: "Cable", Quantity: 2, PricePerUnit: 10},
			},
		},
	}
}

type recordingPublisher struct {
	mu     sync.Mutex
	events []models.ClaimEvent
}

func (p *recordingPublisher) Publish(_ context.Context, e models.ClaimEvent) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.events = append(p.events, e)
	return nil
}

type stubAgent struct {
	decision models.Decision
	calls    int
	lastCtx  models.OrderContext
}

func (a *stubAgent) RequestDecision(_ context.Context, _ models.ClaimInput, oc models.OrderContext) models.Decision {
	a.calls++
	a.lastCtx = oc
	d := a.decision
	d.DataSourceConnected = oc.Order != nil
	return d
}

var fixedNow = time.Date(2026, 10, 17, 9, 30, 0, 0, time.UTC)
