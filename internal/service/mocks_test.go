package service

import (
	"context"
	"fmt"
	"sync"

	"github.com/MayderC/zayrel-be/internal/gateway"
	"github.com/MayderC/zayrel-be/internal/models"
	"github.com/google/uuid"
)

// fakeStore implements the repository interfaces over in-memory maps. It
// honors the same conditional semantics as the SQL repositories: stock
// debits are all-or-nothing and status transitions are compare-and-set.
type fakeStore struct {
	mu       sync.Mutex
	variants map[uint64]*models.Variant
	orders   map[uuid.UUID]*models.Order
	grants   map[uuid.UUID]int64
	tokens   map[uint64]int64
}

func newFakeStore() *fakeStore {
	return &fakeStore{
		variants: make(map[uint64]*models.Variant),
		orders:   make(map[uuid.UUID]*models.Order),
		grants:   make(map[uuid.UUID]int64),
		tokens:   make(map[uint64]int64),
	}
}

func (f *fakeStore) addVariant(id uint64, name string, price *int64, stock int32) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.variants[id] = &models.Variant{ID: id, SKU: fmt.Sprintf("SKU-%d", id), Name: name, Price: price, Stock: stock}
}

func (f *fakeStore) stock(id uint64) int32 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.variants[id].Stock
}

func (f *fakeStore) GetVariants(_ context.Context, ids []uint64) (map[uint64]models.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	out := make(map[uint64]models.Variant, len(ids))
	for _, id := range ids {
		if v, ok := f.variants[id]; ok {
			out[id] = *v
		}
	}
	return out, nil
}

func (f *fakeStore) GetVariant(_ context.Context, id uint64) (*models.Variant, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	v, ok := f.variants[id]
	if !ok {
		return nil, models.ErrVariantNotFound
	}
	cp := *v
	return &cp, nil
}

func (f *fakeStore) CreateOrder(_ context.Context, order *models.Order) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	// all-or-nothing debit, like the transactional SQL path
	for _, item := range order.Items {
		v, ok := f.variants[item.VariantID]
		if !ok || v.Stock < item.Quantity {
			return nil, models.ErrOutOfStock
		}
	}
	for _, item := range order.Items {
		f.variants[item.VariantID].Stock -= item.Quantity
	}

	f.orders[order.ID] = copyOrder(order)
	return copyOrder(order), nil
}

func (f *fakeStore) GetOrderByID(_ context.Context, id uuid.UUID) (*models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return nil, models.ErrOrderNotFound
	}
	return copyOrder(order), nil
}

func (f *fakeStore) GetOrdersByStatus(_ context.Context, status string) ([]models.Order, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	orders := []models.Order{}
	for _, order := range f.orders {
		if order.Status == status {
			orders = append(orders, *copyOrder(order))
		}
	}
	return orders, nil
}

func (f *fakeStore) TransitionStatus(_ context.Context, id uuid.UUID, from []string, to string) (bool, error) {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return false, nil
	}
	for _, status := range from {
		if order.Status == status {
			order.Status = to
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeStore) SetTracking(_ context.Context, id uuid.UUID, trackingNumber, provider string) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	order.TrackingNumber = trackingNumber
	order.ShippingProvider = provider
	return nil
}

func (f *fakeStore) PromotePendingProof(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	if order.Proof != nil && order.Proof.ReviewStatus == models.ReviewStatusPending {
		order.Proof.ReviewStatus = models.ReviewStatusVerified
		order.Proof.Reason = ""
	}
	return nil
}

func (f *fakeStore) MergeProof(_ context.Context, id uuid.UUID, proof models.PaymentProof) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	if order.Proof == nil {
		order.Proof = &models.PaymentProof{}
	}

	// mirror the SQL merge: empty fields never clobber stored values,
	// verification clears the reason
	if proof.StorageRef != "" {
		order.Proof.StorageRef = proof.StorageRef
	}
	if proof.Method != "" {
		order.Proof.Method = proof.Method
	}
	if proof.Reference != "" {
		order.Proof.Reference = proof.Reference
	}
	if proof.ReviewStatus != "" {
		order.Proof.ReviewStatus = proof.ReviewStatus
	}
	if proof.ReviewStatus == models.ReviewStatusVerified {
		order.Proof.Reason = ""
	} else if proof.Reason != "" {
		order.Proof.Reason = proof.Reason
	}
	return nil
}

func (f *fakeStore) CancelOrder(_ context.Context, id uuid.UUID) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	order, ok := f.orders[id]
	if !ok {
		return models.ErrOrderNotFound
	}
	if order.Status == models.OrderStatusCancelled {
		return models.ErrAlreadyCancelled
	}
	for _, item := range order.Items {
		f.variants[item.VariantID].Stock += item.Quantity
	}
	order.Status = models.OrderStatusCancelled
	return nil
}

func (f *fakeStore) GrantForOrder(_ context.Context, orderID uuid.UUID, userID uint64, amount int64) error {
	f.mu.Lock()
	defer f.mu.Unlock()

	if _, ok := f.grants[orderID]; ok {
		return models.ErrConflictData
	}
	f.grants[orderID] = amount
	f.tokens[userID] += amount
	return nil
}

func (f *fakeStore) tokenBalance(userID uint64) int64 {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.tokens[userID]
}

func copyOrder(order *models.Order) *models.Order {
	cp := *order
	cp.Items = append([]models.OrderItem(nil), order.Items...)
	if order.Proof != nil {
		proof := *order.Proof
		cp.Proof = &proof
	}
	if order.Owner.Guest != nil {
		guest := *order.Owner.Guest
		cp.Owner.Guest = &guest
	}
	return &cp
}

// fakeDispatcher records emitted events
type fakeDispatcher struct {
	mu     sync.Mutex
	events []models.Event
}

func (d *fakeDispatcher) Notify(event models.Event) {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.events = append(d.events, event)
}

func (d *fakeDispatcher) names() []string {
	d.mu.Lock()
	defer d.mu.Unlock()

	names := make([]string, 0, len(d.events))
	for _, e := range d.events {
		names = append(names, e.Name)
	}
	return names
}

func (d *fakeDispatcher) find(name string) *models.Event {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i := range d.events {
		if d.events[i].Name == name {
			return &d.events[i]
		}
	}
	return nil
}

func (d *fakeDispatcher) count(name string) int {
	d.mu.Lock()
	defer d.mu.Unlock()

	n := 0
	for _, e := range d.events {
		if e.Name == name {
			n++
		}
	}
	return n
}

// fakeProofStorage returns a deterministic reference
type fakeProofStorage struct {
	stored [][]byte
	err    error
}

func (s *fakeProofStorage) Store(_ context.Context, blob []byte, orderID string) (string, error) {
	if s.err != nil {
		return "", s.err
	}
	s.stored = append(s.stored, blob)
	return "proofs/" + orderID, nil
}

// fakeGateway is a scriptable gateway strategy
type fakeGateway struct {
	name        string
	currency    string
	verifyOK    bool
	event       *gateway.Event
	decodeErr   error
	result      *gateway.InitiateResult
	initiateErr error
	lastReq     *gateway.InitiateRequest
}

func (g *fakeGateway) Name() string               { return g.name }
func (g *fakeGateway) SettlementCurrency() string { return g.currency }
func (g *fakeGateway) SignatureHeader() string    { return "X-Test-Signature" }

func (g *fakeGateway) InitiatePayment(_ context.Context, req gateway.InitiateRequest) (*gateway.InitiateResult, error) {
	g.lastReq = &req
	if g.initiateErr != nil {
		return nil, g.initiateErr
	}
	return g.result, nil
}

func (g *fakeGateway) VerifyWebhook([]byte, string) bool { return g.verifyOK }

func (g *fakeGateway) DecodeWebhook([]byte) (*gateway.Event, error) {
	if g.decodeErr != nil {
		return nil, g.decodeErr
	}
	return g.event, nil
}
