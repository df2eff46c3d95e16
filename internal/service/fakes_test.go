package service

import (
	"bytes"
	"context"
	"errors"
	"io"
	"sort"
	"sync"

	"github.com/iliyamo/library-seat-booking/internal/model"
	"github.com/iliyamo/library-seat-booking/internal/queue"
	"github.com/iliyamo/library-seat-booking/internal/repository"
)

// memDB is an in-memory stand-in for the MySQL tables touched by the
// workflow.  It applies the same rules as BookingRepo inside one mutex so
// each call is atomic.
type memDB struct {
	mu sync.Mutex

	profiles map[uint64]model.Profile // by user id
	roles    map[uint64]string
	seats    map[uint64]*model.Seat
	bookings map[uint64]*model.Booking
	payments map[uint64]*model.Payment
	nextID   uint64

	failBookingInsert error
	failPaymentInsert error
	failDecide        error
	failCreateProfile error
}

func newMemDB() *memDB {
	return &memDB{
		profiles: map[uint64]model.Profile{},
		roles:    map[uint64]string{},
		seats:    map[uint64]*model.Seat{},
		bookings: map[uint64]*model.Booking{},
		payments: map[uint64]*model.Payment{},
	}
}

func (m *memDB) id() uint64 { m.nextID++; return m.nextID }

func (m *memDB) addSeat(number string, available bool) uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	id := m.id()
	m.seats[id] = &model.Seat{ID: id, SeatNumber: number, IsAvailable: available}
	return id
}

func (m *memDB) addAdmin(userID uint64, name string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.profiles[userID] = model.Profile{ID: m.id(), UserID: userID, FullName: name}
	m.roles[userID] = model.RoleAdmin
}

// stats mirrors the admin dashboard counters.
func (m *memDB) stats() (active, pending int) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for _, b := range m.bookings {
		if b.Status == model.BookingActive {
			active++
		}
	}
	for _, p := range m.payments {
		if p.Status == model.PaymentPending {
			pending++
		}
	}
	return
}

// ProfileStore

func (m *memDB) GetByUserID(_ context.Context, userID uint64) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return &p, nil
}

func (m *memDB) Create(_ context.Context, p *model.Profile) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failCreateProfile != nil {
		return m.failCreateProfile
	}
	if _, ok := m.profiles[p.UserID]; ok {
		return repository.ErrConflict
	}
	p.ID = m.id()
	m.profiles[p.UserID] = *p
	return nil
}

func (m *memDB) Update(_ context.Context, userID uint64, fullName, phone string) (*model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.profiles[userID]
	if !ok {
		return nil, repository.ErrNotFound
	}
	p.FullName, p.Phone = fullName, phone
	m.profiles[userID] = p
	return &p, nil
}

func (m *memDB) ListByUserIDs(_ context.Context, ids []uint64) (map[uint64]model.Profile, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := map[uint64]model.Profile{}
	for _, id := range ids {
		if p, ok := m.profiles[id]; ok {
			out[id] = p
		}
	}
	return out, nil
}

// RoleStore

func (m *memDB) RoleOf(_ context.Context, userID uint64) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	r, ok := m.roles[userID]
	if !ok {
		return "", repository.ErrNotFound
	}
	return r, nil
}

// Ledger

func (m *memDB) CreateWithPayment(_ context.Context, b *model.Booking, p *model.Payment) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	seat, ok := m.seats[b.SeatID]
	if !ok {
		return repository.ErrSeatNotFound
	}
	if !seat.IsAvailable {
		return repository.ErrSeatUnavailable
	}
	for _, other := range m.bookings {
		if other.SeatID == b.SeatID && other.EndDate.After(b.StartDate) &&
			(other.Status == model.BookingPending || other.Status == model.BookingActive) {
			return repository.ErrConflict
		}
	}
	if m.failBookingInsert != nil {
		return errors.Join(repository.ErrBookingInsert, m.failBookingInsert)
	}
	if m.failPaymentInsert != nil {
		return errors.Join(repository.ErrPaymentInsert, m.failPaymentInsert)
	}
	b.ID = m.id()
	bc := *b
	m.bookings[b.ID] = &bc
	p.BookingID = b.ID
	p.ID = m.id()
	pc := *p
	pc.CreatedAt = b.StartDate
	m.payments[p.ID] = &pc
	return nil
}

func (m *memDB) DecidePayment(_ context.Context, d repository.Decision) (model.PaymentStatus, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.failDecide != nil {
		return "", m.failDecide
	}
	p, ok := m.payments[d.PaymentID]
	if !ok {
		return "", repository.ErrNotFound
	}
	b := m.bookings[p.BookingID]
	if p.BookingID != d.BookingID {
		return "", repository.ErrBookingMismatch
	}
	if d.Outcome == model.PaymentApproved && d.SeatID != nil && *d.SeatID != b.SeatID {
		return "", repository.ErrBookingMismatch
	}
	prior := p.Status
	if prior != model.PaymentPending {
		return prior, nil
	}
	by, at := d.VerifiedBy, d.At
	p.Status, p.VerifiedBy, p.VerifiedAt = d.Outcome, &by, &at
	if d.Outcome == model.PaymentApproved {
		b.Status = model.BookingActive
		b.RegistrationFeePaid = true
		if d.SeatID != nil {
			m.seats[*d.SeatID].IsAvailable = false
		}
	} else {
		b.Status = model.BookingCancelled
	}
	return prior, nil
}

func (m *memDB) ListPendingPayments(_ context.Context) ([]repository.PendingPaymentRow, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	var out []repository.PendingPaymentRow
	for _, p := range m.payments {
		if p.Status != model.PaymentPending {
			continue
		}
		b := m.bookings[p.BookingID]
		out = append(out, repository.PendingPaymentRow{
			Payment: *p, SeatID: b.SeatID, SeatNumber: m.seats[b.SeatID].SeatNumber,
		})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Payment.ID > out[j].Payment.ID })
	return out, nil
}

// memBlobs is an in-memory BlobStore.
type memBlobs struct {
	mu      sync.Mutex
	objects map[string][]byte
	failPut error
}

func newMemBlobs() *memBlobs { return &memBlobs{objects: map[string][]byte{}} }

func (b *memBlobs) Put(_ context.Context, key, _ string, r io.Reader) (string, error) {
	if b.failPut != nil {
		return "", b.failPut
	}
	data, err := io.ReadAll(r)
	if err != nil {
		return "", err
	}
	b.mu.Lock()
	defer b.mu.Unlock()
	b.objects[key] = data
	return "/uploads/" + key, nil
}

func (b *memBlobs) Delete(_ context.Context, key string) error {
	b.mu.Lock()
	defer b.mu.Unlock()
	delete(b.objects, key)
	return nil
}

func (b *memBlobs) count() int {
	b.mu.Lock()
	defer b.mu.Unlock()
	return len(b.objects)
}

// recordingPublisher keeps published events.
type recordingPublisher struct {
	mu     sync.Mutex
	events []queue.PaymentEvent
	err    error
}

func (r *recordingPublisher) Publish(_ context.Context, ev queue.PaymentEvent) error {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events = append(r.events, ev)
	return r.err
}

func (r *recordingPublisher) types() []string {
	r.mu.Lock()
	defer r.mu.Unlock()
	out := make([]string, len(r.events))
	for i, e := range r.events {
		out[i] = e.Type
	}
	return out
}

var (
	pngBytes = append([]byte("\x89PNG\r\n\x1a\n"), bytes.Repeat([]byte{0}, 32)...)
	jpegData = append([]byte{0xFF, 0xD8, 0xFF, 0xE0}, bytes.Repeat([]byte{0}, 32)...)
	pdfBytes = []byte("%PDF-1.7\n1 0 obj\n<<>>\nendobj\n")
)
