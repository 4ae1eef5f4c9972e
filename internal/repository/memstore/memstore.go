// Package memstore is an in-memory application.Store. Units of work are
// serialized by one mutex and roll back by restoring a snapshot, which gives
// the same isolation the Postgres store gets from row locks.
package memstore

import (
	"context"
	"sort"
	"sync"

	"github.com/DriveNow-Rental/service-booking/internal/application"
	bookingDomain "github.com/DriveNow-Rental/service-booking/internal/domain/booking"
	"github.com/DriveNow-Rental/service-booking/internal/domain/resource"
	"github.com/DriveNow-Rental/service-booking/pkg/domain"
	"github.com/google/uuid"
)

type state struct {
	bookings map[uuid.UUID]*bookingDomain.Booking
	vehicles map[uuid.UUID]resource.Vehicle
	users    map[uuid.UUID]resource.User
}

func newState() *state {
	return &state{
		bookings: make(map[uuid.UUID]*bookingDomain.Booking),
		vehicles: make(map[uuid.UUID]resource.Vehicle),
		users:    make(map[uuid.UUID]resource.User),
	}
}

func (s *state) clone() *state {
	c := newState()
	for id, b := range s.bookings {
		c.bookings[id] = cloneBooking(b)
	}
	for id, v := range s.vehicles {
		c.vehicles[id] = v
	}
	for id, u := range s.users {
		c.users[id] = u
	}
	return c
}

// Store is an in-memory implementation of application.Store.
type Store struct {
	mu    sync.Mutex
	state *state
}

var _ application.Store = (*Store)(nil)

// New creates an empty Store.
func New() *Store {
	return &Store{state: newState()}
}

// PutVehicle inserts or replaces a vehicle.
func (s *Store) PutVehicle(v resource.Vehicle) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.vehicles[v.ID] = v
}

// PutUser inserts or replaces a user.
func (s *Store) PutUser(u resource.User) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.users[u.ID] = u
}

// PutBooking inserts or replaces a booking as-is, bypassing version checks.
func (s *Store) PutBooking(b *bookingDomain.Booking) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.state.bookings[b.ID()] = cloneBooking(b)
}

// Vehicle returns a stored vehicle.
func (s *Store) Vehicle(id uuid.UUID) (resource.Vehicle, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	v, ok := s.state.vehicles[id]
	return v, ok
}

// User returns a stored user.
func (s *Store) User(id uuid.UUID) (resource.User, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	u, ok := s.state.users[id]
	return u, ok
}

// WithinTx runs fn with exclusive access to the store. If fn returns an
// error every change it made is discarded.
func (s *Store) WithinTx(ctx context.Context, fn func(ctx context.Context, tx application.Tx) error) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	snapshot := s.state.clone()
	if err := fn(ctx, &txView{store: s, held: true}); err != nil {
		s.state = snapshot
		return err
	}
	return nil
}

// Bookings returns a repository for lock-free reads and single writes.
func (s *Store) Bookings() bookingDomain.BookingRepository { return &bookingRepo{view: &txView{store: s}} }

// Vehicles returns the vehicle catalog outside a unit of work.
func (s *Store) Vehicles() application.VehicleCatalog { return &vehicleCatalog{view: &txView{store: s}} }

// Users returns the user directory outside a unit of work.
func (s *Store) Users() application.UserDirectory { return &userDirectory{view: &txView{store: s}} }

// txView is the store seen from inside (held) or outside a unit of work.
type txView struct {
	store *Store
	held  bool
}

func (v *txView) Bookings() bookingDomain.BookingRepository { return &bookingRepo{view: v} }
func (v *txView) Vehicles() application.VehicleCatalog      { return &vehicleCatalog{view: v} }
func (v *txView) Users() application.UserDirectory          { return &userDirectory{view: v} }

func (v *txView) with(fn func(st *state) error) error {
	if !v.held {
		v.store.mu.Lock()
		defer v.store.mu.Unlock()
	}
	return fn(v.store.state)
}

type vehicleCatalog struct{ view *txView }

func (c *vehicleCatalog) Resolve(_ context.Context, id uuid.UUID) (*resource.Vehicle, error) {
	var out *resource.Vehicle
	err := c.view.with(func(st *state) error {
		v, ok := st.vehicles[id]
		if !ok {
			return domain.NewNotFoundError("Vehicle", id.String())
		}
		out = &v
		return nil
	})
	return out, err
}

func (c *vehicleCatalog) SetAvailable(_ context.Context, id uuid.UUID, available bool) error {
	return c.view.with(func(st *state) error {
		v, ok := st.vehicles[id]
		if !ok {
			return domain.NewNotFoundError("Vehicle", id.String())
		}
		v.Available = available
		st.vehicles[id] = v
		return nil
	})
}

type userDirectory struct{ view *txView }

func (d *userDirectory) Resolve(_ context.Context, id uuid.UUID) (*resource.User, error) {
	var out *resource.User
	err := d.view.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NewNotFoundError("User", id.String())
		}
		out = &u
		return nil
	})
	return out, err
}

func (d *userDirectory) SetAvailable(_ context.Context, id uuid.UUID, available bool) error {
	return d.view.with(func(st *state) error {
		u, ok := st.users[id]
		if !ok {
			return domain.NewNotFoundError("User", id.String())
		}
		u.Available = available
		st.users[id] = u
		return nil
	})
}

type bookingRepo struct{ view *txView }

func (r *bookingRepo) FindByID(_ context.Context, id uuid.UUID) (*bookingDomain.Booking, error) {
	var out *bookingDomain.Booking
	err := r.view.with(func(st *state) error {
		b, ok := st.bookings[id]
		if !ok {
			return domain.NewNotFoundError("Booking", id.String())
		}
		out = cloneBooking(b)
		return nil
	})
	return out, err
}

func (r *bookingRepo) FindByNumber(_ context.Context, number string) (*bookingDomain.Booking, error) {
	var out *bookingDomain.Booking
	err := r.view.with(func(st *state) error {
		for _, b := range st.bookings {
			if b.BookingNumber() == number {
				out = cloneBooking(b)
				return nil
			}
		}
		return domain.NewNotFoundError("Booking", number)
	})
	return out, err
}

func (r *bookingRepo) ExistsByNumber(_ context.Context, number string) (bool, error) {
	var exists bool
	err := r.view.with(func(st *state) error {
		for _, b := range st.bookings {
			if b.BookingNumber() == number {
				exists = true
				break
			}
		}
		return nil
	})
	return exists, err
}

func (r *bookingRepo) FindActiveByVehicle(_ context.Context, vehicleID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.collect(func(b *bookingDomain.Booking) bool {
		return b.IsActive() && b.VehicleID() == vehicleID
	})
}

func (r *bookingRepo) FindActiveByDriver(_ context.Context, driverID uuid.UUID) ([]*bookingDomain.Booking, error) {
	return r.collect(func(b *bookingDomain.Booking) bool {
		return b.IsActive() && b.HoldsDriver(driverID)
	})
}

func (r *bookingRepo) List(_ context.Context, filter bookingDomain.Filter, page, limit int) ([]*bookingDomain.Booking, int64, error) {
	all, err := r.collect(filter.Matches)
	if err != nil {
		return nil, 0, err
	}
	total := int64(len(all))
	offset := domain.Offset(page, limit)
	if offset >= len(all) {
		return []*bookingDomain.Booking{}, total, nil
	}
	end := offset + limit
	if end > len(all) {
		end = len(all)
	}
	return all[offset:end], total, nil
}

func (r *bookingRepo) FindAll(_ context.Context, filter bookingDomain.Filter) ([]*bookingDomain.Booking, error) {
	return r.collect(filter.Matches)
}

func (r *bookingRepo) CountByStatus(_ context.Context) (map[bookingDomain.Status]int64, error) {
	counts := make(map[bookingDomain.Status]int64)
	err := r.view.with(func(st *state) error {
		for _, b := range st.bookings {
			counts[b.Status()]++
		}
		return nil
	})
	return counts, err
}

func (r *bookingRepo) SumTotalPrice(_ context.Context, filter bookingDomain.Filter) (int64, error) {
	var sum int64
	err := r.view.with(func(st *state) error {
		for _, b := range st.bookings {
			if filter.Matches(b) {
				sum += b.TotalPriceCents()
			}
		}
		return nil
	})
	return sum, err
}

func (r *bookingRepo) Save(_ context.Context, bk *bookingDomain.Booking) error {
	return r.view.with(func(st *state) error {
		if _, exists := st.bookings[bk.ID()]; exists {
			return domain.NewConflictError("booking already exists")
		}
		for _, b := range st.bookings {
			if b.BookingNumber() == bk.BookingNumber() {
				return domain.NewConflictError("booking number already exists")
			}
		}
		st.bookings[bk.ID()] = cloneBooking(bk)
		return nil
	})
}

func (r *bookingRepo) Update(_ context.Context, bk *bookingDomain.Booking) error {
	return r.view.with(func(st *state) error {
		current, ok := st.bookings[bk.ID()]
		if !ok || current.Version() != bk.Version()-1 {
			return domain.NewConflictError("booking was modified by another transaction")
		}
		st.bookings[bk.ID()] = cloneBooking(bk)
		return nil
	})
}

func (r *bookingRepo) Delete(_ context.Context, id uuid.UUID) error {
	return r.view.with(func(st *state) error {
		if _, ok := st.bookings[id]; !ok {
			return domain.NewNotFoundError("Booking", id.String())
		}
		delete(st.bookings, id)
		return nil
	})
}

// collect returns clones of the matching bookings, newest first.
func (r *bookingRepo) collect(match func(*bookingDomain.Booking) bool) ([]*bookingDomain.Booking, error) {
	var out []*bookingDomain.Booking
	err := r.view.with(func(st *state) error {
		for _, b := range st.bookings {
			if match(b) {
				out = append(out, cloneBooking(b))
			}
		}
		return nil
	})
	sort.SliceStable(out, func(i, j int) bool {
		if out[i].CreatedAt().Equal(out[j].CreatedAt()) {
			return out[i].BookingNumber() > out[j].BookingNumber()
		}
		return out[i].CreatedAt().After(out[j].CreatedAt())
	})
	return out, err
}

func cloneBooking(b *bookingDomain.Booking) *bookingDomain.Booking {
	var driverID *uuid.UUID
	if b.DriverID() != nil {
		id := *b.DriverID()
		driverID = &id
	}
	return bookingDomain.Reconstruct(bookingDomain.ReconstructParams{
		ID:                   b.ID(),
		BookingNumber:        b.BookingNumber(),
		CustomerID:           b.CustomerID(),
		VehicleID:            b.VehicleID(),
		DriverID:             driverID,
		DateRange:            b.DateRange(),
		TotalPriceCents:      b.TotalPriceCents(),
		BasePricePerDayCents: b.BasePricePerDayCents(),
		DistancePriceCents:   b.DistancePriceCents(),
		DistanceKm:           b.DistanceKm(),
		Currency:             b.Currency(),
		Status:               b.Status(),
		PaymentStatus:        b.PaymentStatus(),
		PaymentMethod:        b.PaymentMethod(),
		SpecialRequests:      b.SpecialRequests(),
		Pickup:               b.Pickup(),
		Dropoff:              b.Dropoff(),
		Version:              b.Version(),
		CreatedAt:            b.CreatedAt(),
		UpdatedAt:            b.UpdatedAt(),
	})
}
