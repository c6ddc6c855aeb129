package service

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/Eursukkul/car-rental-microservice/internal/lock"
	"github.com/Eursukkul/car-rental-microservice/internal/models"
	"github.com/Eursukkul/car-rental-microservice/internal/repository"
	"gorm.io/datatypes"
	"gorm.io/gorm"
)

// --- In-memory store shared by the fake repositories ---

type memStore struct {
	mu           sync.Mutex
	txMu         sync.Mutex
	reservations map[string]models.Reservation
	entries      map[string]models.SettlementEntry
	entryOrder   []string
	vehicles     map[string]models.Vehicle
	users        map[string]models.User
	changes      []models.StatusChange

	// failOn makes the named repository method return the error.
	failOn map[string]error
	// onConflictCheck runs before the vehicle calendar is read.
	onConflictCheck func()
}

func newMemStore() *memStore {
	return &memStore{
		reservations: map[string]models.Reservation{},
		entries:      map[string]models.SettlementEntry{},
		vehicles:     map[string]models.Vehicle{},
		users:        map[string]models.User{},
		failOn:       map[string]error{},
	}
}

type memSnapshot struct {
	reservations map[string]models.Reservation
	entries      map[string]models.SettlementEntry
	entryOrder   []string
	changes      []models.StatusChange
}

func (s *memStore) snapshot() memSnapshot {
	s.mu.Lock()
	defer s.mu.Unlock()
	snap := memSnapshot{
		reservations: make(map[string]models.Reservation, len(s.reservations)),
		entries:      make(map[string]models.SettlementEntry, len(s.entries)),
		entryOrder:   append([]string(nil), s.entryOrder...),
		changes:      append([]models.StatusChange(nil), s.changes...),
	}
	for k, v := range s.reservations {
		snap.reservations[k] = v
	}
	for k, v := range s.entries {
		snap.entries[k] = copyEntry(v)
	}
	return snap
}

func (s *memStore) restore(snap memSnapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.reservations = snap.reservations
	s.entries = snap.entries
	s.entryOrder = snap.entryOrder
	s.changes = snap.changes
}

func (s *memStore) fail(op string) error {
	return s.failOn[op]
}

func (s *memStore) addVehicle(id, owner string, available bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.vehicles[id] = models.Vehicle{ID: id, OwnerID: owner, PlateNumber: "PL-" + id, Model: "Corolla", Available: available}
}

func (s *memStore) addUser(id string, role models.Role) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.users[id] = models.User{ID: id, Email: id + "@example.com", Role: role, Active: true}
}

func (s *memStore) reservation(id string) models.Reservation {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.reservations[id]
}

func (s *memStore) statusChanges() []models.StatusChange {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]models.StatusChange(nil), s.changes...)
}

func copyEntry(e models.SettlementEntry) models.SettlementEntry {
	if e.Metadata != nil {
		m := make(datatypes.JSONMap, len(e.Metadata))
		for k, v := range e.Metadata {
			m[k] = v
		}
		e.Metadata = m
	}
	return e
}

// --- Fake TxManager ---

// fakeTx runs fn directly. When atomic is set it also serializes transactions
// and restores the store if fn fails, which is what a real rollback looks like
// from the outside.
type fakeTx struct {
	store  *memStore
	atomic bool
}

func (f *fakeTx) WithinTransaction(ctx context.Context, fn func(tx *gorm.DB) error) error {
	if !f.atomic {
		return fn(nil)
	}
	f.store.txMu.Lock()
	defer f.store.txMu.Unlock()

	snap := f.store.snapshot()
	if err := fn(nil); err != nil {
		f.store.restore(snap)
		return err
	}
	return nil
}

// --- Fake ReservationRepository ---

type fakeReservationRepo struct{ s *memStore }

func (r *fakeReservationRepo) Create(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.Create"); err != nil {
		return err
	}
	_ = reservation.BeforeCreate(nil)
	now := time.Now().UTC()
	reservation.CreatedAt, reservation.UpdatedAt = now, now
	r.s.reservations[reservation.ID] = *reservation
	return nil
}

func (r *fakeReservationRepo) Save(ctx context.Context, tx *gorm.DB, reservation *models.Reservation) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.Save"); err != nil {
		return err
	}
	r.s.reservations[reservation.ID] = *reservation
	return nil
}

func (r *fakeReservationRepo) FindByID(ctx context.Context, id string) (*models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.FindByID"); err != nil {
		return nil, err
	}
	res, ok := r.s.reservations[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &res, nil
}

func (r *fakeReservationRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Reservation, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeReservationRepo) FindActiveByVehicle(ctx context.Context, tx *gorm.DB, vehicleID string, excludeID string) ([]models.Reservation, error) {
	if hook := r.s.onConflictCheck; hook != nil {
		hook()
	}
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var out []models.Reservation
	for _, res := range r.s.reservations {
		if res.VehicleID != vehicleID || res.Status == models.StatusCancelled || res.ID == excludeID {
			continue
		}
		out = append(out, res)
	}
	return out, nil
}

func (r *fakeReservationRepo) FindByVehicle(ctx context.Context, vehicleID string, status *models.ReservationStatus) ([]models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Reservation{}
	for _, res := range r.s.reservations {
		if res.VehicleID != vehicleID || (status != nil && res.Status != *status) {
			continue
		}
		out = append(out, res)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].StartDate.Before(out[j].StartDate) })
	return out, nil
}

func (r *fakeReservationRepo) FindByRequester(ctx context.Context, requesterID string) ([]models.Reservation, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.Reservation{}
	for _, res := range r.s.reservations {
		if res.RequesterID == requesterID {
			out = append(out, res)
		}
	}
	return out, nil
}

func (r *fakeReservationRepo) AppendStatusChange(ctx context.Context, tx *gorm.DB, change *models.StatusChange) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("reservations.AppendStatusChange"); err != nil {
		return err
	}
	_ = change.BeforeCreate(nil)
	r.s.changes = append(r.s.changes, *change)
	return nil
}

// --- Fake SettlementRepository ---

type fakeSettlementRepo struct{ s *memStore }

func (r *fakeSettlementRepo) Create(ctx context.Context, tx *gorm.DB, entry *models.SettlementEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("entries.Create"); err != nil {
		return err
	}
	_ = entry.BeforeCreate(nil)
	now := time.Now().UTC()
	entry.CreatedAt, entry.UpdatedAt = now, now
	r.s.entries[entry.ID] = copyEntry(*entry)
	r.s.entryOrder = append(r.s.entryOrder, entry.ID)
	return nil
}

func (r *fakeSettlementRepo) UpdateStatus(ctx context.Context, tx *gorm.DB, entry *models.SettlementEntry) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("entries.UpdateStatus"); err != nil {
		return err
	}
	stored, ok := r.s.entries[entry.ID]
	if !ok {
		return gorm.ErrRecordNotFound
	}
	stored.Status = entry.Status
	stored.Metadata = entry.Metadata
	stored.UpdatedAt = entry.UpdatedAt
	r.s.entries[entry.ID] = copyEntry(stored)
	return nil
}

func (r *fakeSettlementRepo) FindByID(ctx context.Context, tx *gorm.DB, id string) (*models.SettlementEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if err := r.s.fail("entries.FindByID"); err != nil {
		return nil, err
	}
	e, ok := r.s.entries[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	e = copyEntry(e)
	return &e, nil
}

func (r *fakeSettlementRepo) FindByReservation(ctx context.Context, tx *gorm.DB, reservationID string) ([]models.SettlementEntry, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	out := []models.SettlementEntry{}
	for _, id := range r.s.entryOrder {
		if e := r.s.entries[id]; e.ReservationID == reservationID {
			out = append(out, copyEntry(e))
		}
	}
	return out, nil
}

// --- Fake VehicleRepository ---

type fakeVehicleRepo struct{ s *memStore }

func (r *fakeVehicleRepo) FindByID(ctx context.Context, id string) (*models.Vehicle, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	v, ok := r.s.vehicles[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &v, nil
}

func (r *fakeVehicleRepo) FindByIDForUpdate(ctx context.Context, tx *gorm.DB, id string) (*models.Vehicle, error) {
	return r.FindByID(ctx, id)
}

func (r *fakeVehicleRepo) IsAvailable(ctx context.Context, id string) (bool, error) {
	v, err := r.FindByID(ctx, id)
	if err != nil {
		return false, err
	}
	return v.Available, nil
}

func (r *fakeVehicleRepo) OwnerOf(ctx context.Context, id string) (string, error) {
	v, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return v.OwnerID, nil
}

func (r *fakeVehicleRepo) Upsert(ctx context.Context, vehicle *models.Vehicle) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.vehicles[vehicle.ID] = *vehicle
	return nil
}

// --- Fake UserRepository ---

type fakeUserRepo struct{ s *memStore }

func (r *fakeUserRepo) FindByID(ctx context.Context, id string) (*models.User, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	u, ok := r.s.users[id]
	if !ok {
		return nil, gorm.ErrRecordNotFound
	}
	return &u, nil
}

func (r *fakeUserRepo) Exists(ctx context.Context, id string) (bool, error) {
	u, err := r.FindByID(ctx, id)
	if err == gorm.ErrRecordNotFound {
		return false, nil
	}
	if err != nil {
		return false, err
	}
	return u.Active, nil
}

func (r *fakeUserRepo) RoleOf(ctx context.Context, id string) (models.Role, error) {
	u, err := r.FindByID(ctx, id)
	if err != nil {
		return "", err
	}
	return u.Role, nil
}

func (r *fakeUserRepo) Upsert(ctx context.Context, user *models.User) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	r.s.users[user.ID] = *user
	return nil
}

// --- Fixture ---

const (
	requesterID = "user-1"
	otherUserID = "user-2"
	adminID     = "admin-1"
	operatorID  = "operator-1"
	vehicleID   = "car-1"
)

type fixture struct {
	store       *memStore
	tx          *fakeTx
	locker      *lock.KeyedMutex
	reservation ReservationService
	settlement  SettlementService
}

func newFixture(atomic bool) *fixture {
	store := newMemStore()
	store.addVehicle(vehicleID, operatorID, true)
	store.addUser(requesterID, models.RoleRequester)
	store.addUser(otherUserID, models.RoleRequester)
	store.addUser(adminID, models.RoleAdministrator)
	store.addUser(operatorID, models.RoleOperator)

	tx := &fakeTx{store: store, atomic: atomic}
	locker := lock.NewKeyedMutex()
	reservations := &fakeReservationRepo{s: store}
	entries := &fakeSettlementRepo{s: store}
	vehicles := &fakeVehicleRepo{s: store}
	users := &fakeUserRepo{s: store}

	return &fixture{
		store:       store,
		tx:          tx,
		locker:      locker,
		reservation: NewReservationService(tx, reservations, vehicles, users, locker),
		settlement:  NewSettlementService(tx, reservations, entries, users, locker),
	}
}

func date(s string) time.Time {
	t, err := models.ParseDate(s)
	if err != nil {
		panic(err)
	}
	return t
}

var (
	_ repository.TxManager             = (*fakeTx)(nil)
	_ repository.ReservationRepository = (*fakeReservationRepo)(nil)
	_ repository.SettlementRepository  = (*fakeSettlementRepo)(nil)
	_ repository.VehicleRepository     = (*fakeVehicleRepo)(nil)
	_ repository.UserRepository        = (*fakeUserRepo)(nil)
)
