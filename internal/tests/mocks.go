package tests

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"sync/atomic"
	"time"

	"ridebook/internal/domain"
	"ridebook/internal/repository"
	"ridebook/internal/service"
)

// ──────────────────────────────────────────────
// MOCK RIDE REPOSITORY
// ──────────────────────────────────────────────

// MockRideRepository is a mock implementation of RideRepository. Guarded
// writes check-and-swap under the mutex, so concurrent transition attempts
// see the same winner-takes-all behavior as the real store.
type MockRideRepository struct {
	mu    sync.Mutex
	rides map[string]*domain.Ride

	// Counters for verification
	CreateCallCount int32
	AssignCallCount int32

	// Error injection
	CreateError error
}

// NewMockRideRepository creates a new mock ride repository.
func NewMockRideRepository() *MockRideRepository {
	return &MockRideRepository{
		rides: make(map[string]*domain.Ride),
	}
}

// AddRide adds a ride to the mock repository.
func (m *MockRideRepository) AddRide(ride *domain.Ride) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.rides[ride.ID] = ride
}

// GetRide returns the stored ride for test assertions.
func (m *MockRideRepository) GetRide(id string) *domain.Ride {
	m.mu.Lock()
	defer m.mu.Unlock()
	if ride, ok := m.rides[id]; ok {
		copy := *ride
		return &copy
	}
	return nil
}

func (m *MockRideRepository) Create(ctx context.Context, ride *domain.Ride) error {
	atomic.AddInt32(&m.CreateCallCount, 1)
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *ride
	m.rides[ride.ID] = &copy
	return nil
}

func (m *MockRideRepository) GetByID(ctx context.Context, id string) (*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *ride
	return &copy, nil
}

func (m *MockRideRepository) UpdateStatus(ctx context.Context, id string, to domain.RideStatus, from ...domain.RideStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if !statusIn(ride.Status, from) {
		return repository.ErrConflict
	}
	ride.Status = to
	return nil
}

func (m *MockRideRepository) Assign(ctx context.Context, id, driverID string) error {
	atomic.AddInt32(&m.AssignCallCount, 1)
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusRequested {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusAccepted
	ride.DriverID = driverID
	return nil
}

func (m *MockRideRepository) Start(ctx context.Context, id string, startedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusAccepted {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusInProgress
	ride.StartedAt = startedAt
	return nil
}

func (m *MockRideRepository) Complete(ctx context.Context, id string, distanceKm float64, durationMin int, fare int64, completedAt time.Time) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	ride, ok := m.rides[id]
	if !ok {
		return repository.ErrNotFound
	}
	if ride.Status != domain.RideStatusInProgress {
		return repository.ErrConflict
	}
	ride.Status = domain.RideStatusCompleted
	ride.DistanceKm = distanceKm
	ride.DurationMin = durationMin
	ride.Fare = fare
	ride.CompletedAt = completedAt
	return nil
}

func (m *MockRideRepository) ListByStatus(ctx context.Context, statuses ...domain.RideStatus) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(r *domain.Ride) bool {
		return statusIn(r.Status, statuses)
	}), nil
}

func (m *MockRideRepository) ListByRider(ctx context.Context, riderID string, statuses ...domain.RideStatus) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(r *domain.Ride) bool {
		return r.RiderID == riderID && statusIn(r.Status, statuses)
	}), nil
}

func (m *MockRideRepository) ListByDriver(ctx context.Context, driverID string, statuses ...domain.RideStatus) ([]*domain.Ride, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.collect(func(r *domain.Ride) bool {
		return r.DriverID == driverID && statusIn(r.Status, statuses)
	}), nil
}

func (m *MockRideRepository) CountCompletedByDriver(ctx context.Context, driverID string) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	count := 0
	for _, r := range m.rides {
		if r.DriverID == driverID && r.Status == domain.RideStatusCompleted {
			count++
		}
	}
	return count, nil
}

// collect returns matching rides newest first. Caller holds the mutex.
func (m *MockRideRepository) collect(match func(*domain.Ride) bool) []*domain.Ride {
	result := make([]*domain.Ride, 0)
	for _, r := range m.rides {
		if match(r) {
			copy := *r
			result = append(result, &copy)
		}
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].CreatedAt.After(result[j].CreatedAt)
	})
	return result
}

func statusIn(status domain.RideStatus, set []domain.RideStatus) bool {
	for _, s := range set {
		if s == status {
			return true
		}
	}
	return false
}

// ──────────────────────────────────────────────
// MOCK PAYMENT REPOSITORY
// ──────────────────────────────────────────────

// MockPaymentRepository is a mock implementation of PaymentRepository.
type MockPaymentRepository struct {
	mu       sync.Mutex
	payments map[string]*domain.Payment

	// Counters for verification
	MarkPaidCallCount   int32
	MarkFailedCallCount int32

	// Error injection
	CreateError error
}

// NewMockPaymentRepository creates a new mock payment repository.
func NewMockPaymentRepository() *MockPaymentRepository {
	return &MockPaymentRepository{
		payments: make(map[string]*domain.Payment),
	}
}

// AddPayment adds a payment to the mock repository.
func (m *MockPaymentRepository) AddPayment(payment *domain.Payment) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.payments[payment.ID] = payment
}

// GetPayment returns the stored payment for test assertions.
func (m *MockPaymentRepository) GetPayment(id string) *domain.Payment {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.payments[id]; ok {
		copy := *p
		return &copy
	}
	return nil
}

// CountPayments returns the number of stored payment rows.
func (m *MockPaymentRepository) CountPayments() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.payments)
}

func (m *MockPaymentRepository) Create(ctx context.Context, payment *domain.Payment) error {
	if m.CreateError != nil {
		return m.CreateError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *payment
	m.payments[payment.ID] = &copy
	return nil
}

func (m *MockPaymentRepository) GetByID(ctx context.Context, id string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockPaymentRepository) GetByOrderID(ctx context.Context, orderID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byOrderID(orderID)
	if p == nil {
		return nil, repository.ErrNotFound
	}
	copy := *p
	return &copy, nil
}

func (m *MockPaymentRepository) LatestByRide(ctx context.Context, rideID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var latest *domain.Payment
	for _, p := range m.payments {
		if p.RideID != rideID {
			continue
		}
		if latest == nil || p.CreatedAt.After(latest.CreatedAt) {
			latest = p
		}
	}
	if latest == nil {
		return nil, repository.ErrNotFound
	}
	copy := *latest
	return &copy, nil
}

func (m *MockPaymentRepository) PaidByRide(ctx context.Context, rideID string) (*domain.Payment, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, p := range m.payments {
		if p.RideID == rideID && p.Status == domain.PaymentStatusPaid {
			copy := *p
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockPaymentRepository) MarkPaid(ctx context.Context, orderID, paymentID, signature string) error {
	atomic.AddInt32(&m.MarkPaidCallCount, 1)
	return m.recordCallback(orderID, paymentID, signature, domain.PaymentStatusPaid)
}

func (m *MockPaymentRepository) MarkFailed(ctx context.Context, orderID, paymentID, signature string) error {
	atomic.AddInt32(&m.MarkFailedCallCount, 1)
	return m.recordCallback(orderID, paymentID, signature, domain.PaymentStatusFailed)
}

func (m *MockPaymentRepository) MarkRefunded(ctx context.Context, id, refundID string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.payments[id]
	if !ok {
		return repository.ErrNotFound
	}
	if p.Status != domain.PaymentStatusPaid {
		return repository.ErrConflict
	}
	p.Status = domain.PaymentStatusRefunded
	p.RefundID = refundID
	p.UpdatedAt = time.Now()
	return nil
}

func (m *MockPaymentRepository) recordCallback(orderID, paymentID, signature string, status domain.PaymentStatus) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	p := m.byOrderID(orderID)
	if p == nil {
		return repository.ErrNotFound
	}
	p.PaymentID = paymentID
	p.Signature = signature
	p.Status = status
	p.UpdatedAt = time.Now()
	return nil
}

// byOrderID returns the stored row. Caller holds the mutex.
func (m *MockPaymentRepository) byOrderID(orderID string) *domain.Payment {
	for _, p := range m.payments {
		if p.OrderID == orderID {
			return p
		}
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK USER REPOSITORY
// ──────────────────────────────────────────────

// MockUserRepository is a mock implementation of UserRepository.
type MockUserRepository struct {
	mu    sync.RWMutex
	users map[string]*domain.User
}

// NewMockUserRepository creates a new mock user repository.
func NewMockUserRepository() *MockUserRepository {
	return &MockUserRepository{
		users: make(map[string]*domain.User),
	}
}

// AddUser adds a user to the mock repository.
func (m *MockUserRepository) AddUser(user *domain.User) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.users[user.ID] = user
}

func (m *MockUserRepository) Create(ctx context.Context, user *domain.User) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *user
	m.users[user.ID] = &copy
	return nil
}

func (m *MockUserRepository) GetByID(ctx context.Context, id string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	user, ok := m.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *user
	return &copy, nil
}

func (m *MockUserRepository) GetByEmail(ctx context.Context, email string) (*domain.User, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, u := range m.users {
		if u.Email == email {
			copy := *u
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockUserRepository) UpdateProfile(ctx context.Context, id, name, phone string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	user, ok := m.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	user.Name = name
	user.Phone = phone
	return nil
}

// ──────────────────────────────────────────────
// MOCK DRIVER REPOSITORY
// ──────────────────────────────────────────────

// MockDriverRepository is a mock implementation of DriverRepository.
type MockDriverRepository struct {
	mu      sync.RWMutex
	drivers map[string]*domain.Driver
}

// NewMockDriverRepository creates a new mock driver repository.
func NewMockDriverRepository() *MockDriverRepository {
	return &MockDriverRepository{
		drivers: make(map[string]*domain.Driver),
	}
}

// AddDriver adds a driver to the mock repository.
func (m *MockDriverRepository) AddDriver(driver *domain.Driver) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.drivers[driver.ID] = driver
}

func (m *MockDriverRepository) Create(ctx context.Context, driver *domain.Driver) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	copy := *driver
	m.drivers[driver.ID] = &copy
	return nil
}

func (m *MockDriverRepository) GetByID(ctx context.Context, id string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	driver, ok := m.drivers[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	copy := *driver
	return &copy, nil
}

func (m *MockDriverRepository) GetByEmail(ctx context.Context, email string) (*domain.Driver, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	for _, d := range m.drivers {
		if d.Email == email {
			copy := *d
			return &copy, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (m *MockDriverRepository) UpdateProfile(ctx context.Context, id string, update repository.DriverProfileUpdate) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	driver, ok := m.drivers[id]
	if !ok {
		return repository.ErrNotFound
	}
	driver.Name = update.Name
	driver.Phone = update.Phone
	if update.IsActive != nil {
		driver.IsActive = *update.IsActive
	}
	if update.VehicleNo != nil {
		driver.VehicleNo = *update.VehicleNo
	}
	if update.VehicleModel != nil {
		driver.VehicleModel = *update.VehicleModel
	}
	return nil
}

// ──────────────────────────────────────────────
// MOCK GEOCODER
// ──────────────────────────────────────────────

// MockGeocoder is a mock implementation of Geocoder. Addresses resolve to
// fixed coordinates; routes return Distance/Duration regardless of points.
type MockGeocoder struct {
	mu        sync.Mutex
	addresses map[string]service.Coordinate

	// Route returned by RouteDistance.
	Distance float64
	Duration int

	// Counters for verification
	RouteCallCount int32

	// Error injection
	ResolveError error
	RouteError   error
}

// NewMockGeocoder creates a new mock geocoder.
func NewMockGeocoder(distanceKm float64, durationMin int) *MockGeocoder {
	return &MockGeocoder{
		addresses: make(map[string]service.Coordinate),
		Distance:  distanceKm,
		Duration:  durationMin,
	}
}

// AddAddress registers the coordinates an address resolves to.
func (m *MockGeocoder) AddAddress(address string, coord service.Coordinate) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.addresses[address] = coord
}

func (m *MockGeocoder) ResolveAddress(ctx context.Context, address string) (service.Coordinate, error) {
	if m.ResolveError != nil {
		return service.Coordinate{}, m.ResolveError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	if coord, ok := m.addresses[address]; ok {
		return coord, nil
	}
	return service.Coordinate{}, fmt.Errorf("%w: %q", service.ErrGeocoding, address)
}

func (m *MockGeocoder) RouteDistance(ctx context.Context, origin, destination service.Coordinate) (service.Route, error) {
	atomic.AddInt32(&m.RouteCallCount, 1)
	if m.RouteError != nil {
		return service.Route{}, m.RouteError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	return service.Route{DistanceKm: m.Distance, DurationMin: m.Duration}, nil
}

// SetRoute changes the route returned by subsequent RouteDistance calls.
func (m *MockGeocoder) SetRoute(distanceKm float64, durationMin int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Distance = distanceKm
	m.Duration = durationMin
}

// ──────────────────────────────────────────────
// MOCK PAYMENT GATEWAY
// ──────────────────────────────────────────────

// MockGateway is a mock implementation of PaymentGateway.
type MockGateway struct {
	mu sync.Mutex

	// Counters for verification
	CreateOrderCallCount int32
	RefundCallCount      int32

	// Error injection
	CreateOrderError error
	RefundError      error

	orderSeq  int
	refundSeq int
}

// NewMockGateway creates a new mock payment gateway.
func NewMockGateway() *MockGateway {
	return &MockGateway{}
}

func (m *MockGateway) CreateOrder(ctx context.Context, amount int64, currency, receipt string) (*service.GatewayOrder, error) {
	atomic.AddInt32(&m.CreateOrderCallCount, 1)
	if m.CreateOrderError != nil {
		return nil, m.CreateOrderError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.orderSeq++
	return &service.GatewayOrder{
		ID:       fmt.Sprintf("order_%03d", m.orderSeq),
		Amount:   amount * 100,
		Currency: currency,
		Receipt:  receipt,
	}, nil
}

func (m *MockGateway) Refund(ctx context.Context, gatewayPaymentID string, amount int64) (*domain.Refund, error) {
	atomic.AddInt32(&m.RefundCallCount, 1)
	if m.RefundError != nil {
		return nil, m.RefundError
	}
	m.mu.Lock()
	defer m.mu.Unlock()
	m.refundSeq++
	return &domain.Refund{
		ID:     fmt.Sprintf("rfnd_%03d", m.refundSeq),
		Status: "processed",
		Amount: amount * 100,
	}, nil
}
