package service

import (
	"context"
	"errors"
	"sort"
	"strings"
	"sync"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/internal/repository"
	"blood-donation-backend/pkg/utils"

	"gorm.io/gorm"
)

// memDB backs every fake store so cross-table behavior (cascades, preloads) matches MySQL closely enough.
type memDB struct {
	seq           uint
	users         map[uint]*models.User
	tokens        []*models.RefreshToken
	donors        map[uint]*models.Donor
	orgs          map[uint]*models.Organization
	hospitals     map[uint]*models.Hospital
	events        map[uint]*models.Event
	regs          map[uint]*models.Registration
	results       map[uint]*models.DonationResult
	notifications map[uint]*models.Notification
	otps          map[uint]*models.OTPCode
	groups        map[uint]*models.VolunteerGroup
	members       []*models.VolunteerGroupMember
	audits        []models.AuditLog

	batchErr error
}

func newMemDB() *memDB {
	return &memDB{
		users:         map[uint]*models.User{},
		donors:        map[uint]*models.Donor{},
		orgs:          map[uint]*models.Organization{},
		hospitals:     map[uint]*models.Hospital{},
		events:        map[uint]*models.Event{},
		regs:          map[uint]*models.Registration{},
		results:       map[uint]*models.DonationResult{},
		notifications: map[uint]*models.Notification{},
		otps:          map[uint]*models.OTPCode{},
		groups:        map[uint]*models.VolunteerGroup{},
	}
}

func (db *memDB) nextID() uint {
	db.seq++
	return db.seq
}

func sortedKeys[T any](m map[uint]T) []uint {
	keys := make([]uint, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })
	return keys
}

func paginate[T any](items []T, p utils.PageParams) []T {
	start := p.Offset()
	if start >= len(items) {
		return []T{}
	}
	end := start + p.Limit()
	if end > len(items) {
		end = len(items)
	}
	return items[start:end]
}

func contains(haystack, needle string) bool {
	return strings.Contains(strings.ToLower(haystack), strings.ToLower(needle))
}

// users

type fakeUsers struct{ db *memDB }

func (f *fakeUsers) FindByID(_ context.Context, id uint) (*models.User, error) {
	u, ok := f.db.users[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := *u
	return &cp, nil
}

func (f *fakeUsers) FindByEmail(_ context.Context, email string) (*models.User, error) {
	for _, id := range sortedKeys(f.db.users) {
		if u := f.db.users[id]; u.Email == email {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) FindByPhone(_ context.Context, phone string) (*models.User, error) {
	for _, id := range sortedKeys(f.db.users) {
		if u := f.db.users[id]; u.Phone != nil && *u.Phone == phone {
			cp := *u
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) conflicts(user *models.User) bool {
	for _, u := range f.db.users {
		if u.ID == user.ID {
			continue
		}
		if u.Email == user.Email {
			return true
		}
		if u.Phone != nil && user.Phone != nil && *u.Phone == *user.Phone {
			return true
		}
	}
	return false
}

func (f *fakeUsers) Create(_ context.Context, user *models.User) error {
	if f.conflicts(user) {
		return gorm.ErrDuplicatedKey
	}
	user.ID = f.db.nextID()
	user.CreatedAt = time.Now()
	cp := *user
	f.db.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) CreateWithDonor(ctx context.Context, user *models.User, donor *models.Donor) error {
	if err := f.Create(ctx, user); err != nil {
		return err
	}
	donor.UserID = user.ID
	donor.ID = f.db.nextID()
	cp := *donor
	f.db.donors[donor.ID] = &cp
	return nil
}

func (f *fakeUsers) Update(_ context.Context, user *models.User) error {
	if f.conflicts(user) {
		return gorm.ErrDuplicatedKey
	}
	cp := *user
	cp.Organization, cp.Hospital = nil, nil
	f.db.users[user.ID] = &cp
	return nil
}

func (f *fakeUsers) UpdatePassword(_ context.Context, id uint, hash string) error {
	if u, ok := f.db.users[id]; ok {
		u.PasswordHash = hash
	}
	return nil
}

func (f *fakeUsers) SetActive(_ context.Context, id uint, active bool) error {
	u, ok := f.db.users[id]
	if !ok {
		return repository.ErrNotFound
	}
	u.IsActive = active
	return nil
}

func (f *fakeUsers) Delete(_ context.Context, id uint) error {
	if _, ok := f.db.users[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.users, id)
	for did, d := range f.db.donors {
		if d.UserID == id {
			delete(f.db.donors, did)
		}
	}
	return nil
}

func (f *fakeUsers) List(_ context.Context, filter repository.UserFilter, page utils.PageParams) ([]models.User, int64, error) {
	var out []models.User
	for _, id := range sortedKeys(f.db.users) {
		u := f.db.users[id]
		if filter.Role != "" && u.Role != filter.Role {
			continue
		}
		if filter.Active != nil && u.IsActive != *filter.Active {
			continue
		}
		if filter.Query != "" && !contains(u.FullName, filter.Query) && !contains(u.Email, filter.Query) {
			continue
		}
		out = append(out, *u)
	}
	return paginate(out, page), int64(len(out)), nil
}

func (f *fakeUsers) ListIDs(_ context.Context, role string) ([]uint, error) {
	var ids []uint
	for _, id := range sortedKeys(f.db.users) {
		u := f.db.users[id]
		if u.IsActive && (role == "" || u.Role == role) {
			ids = append(ids, id)
		}
	}
	return ids, nil
}

func (f *fakeUsers) ListCoordinatorIDs(_ context.Context, organizationID, hospitalID *uint) ([]uint, error) {
	var ids []uint
	for _, id := range sortedKeys(f.db.users) {
		u := f.db.users[id]
		if !u.IsActive {
			continue
		}
		switch {
		case organizationID != nil:
			if u.Role == models.RoleOrganization && sameID(u.OrganizationID, *organizationID) {
				ids = append(ids, id)
			}
		case hospitalID != nil:
			if u.Role == models.RoleHospital && sameID(u.HospitalID, *hospitalID) {
				ids = append(ids, id)
			}
		}
	}
	return ids, nil
}

func (f *fakeUsers) CountByRole(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, u := range f.db.users {
		counts[u.Role]++
	}
	return counts, nil
}

func (f *fakeUsers) CreateRefreshToken(_ context.Context, token *models.RefreshToken) error {
	token.ID = f.db.nextID()
	cp := *token
	f.db.tokens = append(f.db.tokens, &cp)
	return nil
}

func (f *fakeUsers) FindRefreshTokenByHash(_ context.Context, hash string) (*models.RefreshToken, error) {
	for _, t := range f.db.tokens {
		if t.TokenHash == hash && !t.Revoked {
			cp := *t
			if u, ok := f.db.users[t.UserID]; ok {
				cp.User = *u
			}
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeUsers) RevokeRefreshTokenByHash(_ context.Context, hash string) error {
	for _, t := range f.db.tokens {
		if t.TokenHash == hash {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeUsers) RevokeUserRefreshTokens(_ context.Context, userID uint) error {
	for _, t := range f.db.tokens {
		if t.UserID == userID {
			t.Revoked = true
		}
	}
	return nil
}

func (f *fakeUsers) DeleteStaleRefreshTokens(_ context.Context, before time.Time) (int64, error) {
	kept := f.db.tokens[:0]
	var n int64
	for _, t := range f.db.tokens {
		if t.Revoked || t.ExpiresAt.Before(before) {
			n++
			continue
		}
		kept = append(kept, t)
	}
	f.db.tokens = kept
	return n, nil
}

// donors

type fakeDonors struct{ db *memDB }

func (f *fakeDonors) withUser(d *models.Donor) *models.Donor {
	cp := *d
	if u, ok := f.db.users[d.UserID]; ok {
		uc := *u
		cp.User = &uc
	}
	return &cp
}

func (f *fakeDonors) FindByID(_ context.Context, id uint) (*models.Donor, error) {
	d, ok := f.db.donors[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	return f.withUser(d), nil
}

func (f *fakeDonors) FindByUserID(_ context.Context, userID uint) (*models.Donor, error) {
	for _, id := range sortedKeys(f.db.donors) {
		if d := f.db.donors[id]; d.UserID == userID {
			return f.withUser(d), nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeDonors) Update(_ context.Context, donor *models.Donor) error {
	cp := *donor
	cp.User = nil
	f.db.donors[donor.ID] = &cp
	return nil
}

func (f *fakeDonors) ConfirmBloodType(_ context.Context, donorID uint, bloodType string, hospitalID *uint, at time.Time) error {
	d, ok := f.db.donors[donorID]
	if !ok {
		return repository.ErrNotFound
	}
	d.BloodType = &bloodType
	d.BloodTypeConfirmed = true
	d.ConfirmedByHospitalID = hospitalID
	d.ConfirmedAt = &at
	return nil
}

func (f *fakeDonors) List(_ context.Context, filter repository.DonorFilter, page utils.PageParams) ([]models.Donor, int64, error) {
	var out []models.Donor
	for _, id := range sortedKeys(f.db.donors) {
		d := f.withUser(f.db.donors[id])
		if filter.BloodType != "" && (d.BloodType == nil || *d.BloodType != filter.BloodType) {
			continue
		}
		if filter.Confirmed != nil && d.BloodTypeConfirmed != *filter.Confirmed {
			continue
		}
		if filter.Query != "" && (d.User == nil || !contains(d.User.FullName, filter.Query)) {
			continue
		}
		out = append(out, *d)
	}
	return paginate(out, page), int64(len(out)), nil
}

func (f *fakeDonors) CountByBloodType(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, d := range f.db.donors {
		key := "unknown"
		if d.BloodType != nil {
			key = *d.BloodType
		}
		counts[key]++
	}
	return counts, nil
}

// organizations

type fakeOrgs struct{ db *memDB }

func (f *fakeOrgs) GetAllOrganizations(_ context.Context) ([]models.Organization, error) {
	var out []models.Organization
	for _, id := range sortedKeys(f.db.orgs) {
		if o := f.db.orgs[id]; o.IsActive {
			out = append(out, *o)
		}
	}
	return out, nil
}

func (f *fakeOrgs) GetOrganizationByID(_ context.Context, id uint) (*models.Organization, error) {
	o, ok := f.db.orgs[id]
	if !ok || !o.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *o
	return &cp, nil
}

func (f *fakeOrgs) CreateOrganization(_ context.Context, org *models.Organization) error {
	org.ID = f.db.nextID()
	cp := *org
	f.db.orgs[org.ID] = &cp
	return nil
}

func (f *fakeOrgs) UpdateOrganization(_ context.Context, org *models.Organization) error {
	cp := *org
	f.db.orgs[org.ID] = &cp
	return nil
}

func (f *fakeOrgs) SoftDeleteOrganization(_ context.Context, id uint) error {
	if o, ok := f.db.orgs[id]; ok {
		o.IsActive = false
	}
	return nil
}

func (f *fakeOrgs) CountActive(ctx context.Context) (int64, error) {
	all, _ := f.GetAllOrganizations(ctx)
	return int64(len(all)), nil
}

// hospitals

type fakeHospitals struct{ db *memDB }

func (f *fakeHospitals) GetAllHospitals(_ context.Context) ([]models.Hospital, error) {
	var out []models.Hospital
	for _, id := range sortedKeys(f.db.hospitals) {
		if h := f.db.hospitals[id]; h.IsActive {
			out = append(out, *h)
		}
	}
	return out, nil
}

func (f *fakeHospitals) GetHospitalByID(_ context.Context, id uint) (*models.Hospital, error) {
	h, ok := f.db.hospitals[id]
	if !ok || !h.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *h
	return &cp, nil
}

func (f *fakeHospitals) GetHospitalByCode(_ context.Context, code string) (*models.Hospital, error) {
	for _, h := range f.db.hospitals {
		if h.Code == code {
			cp := *h
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeHospitals) GetHospitalsWithCoordinates(ctx context.Context) ([]models.Hospital, error) {
	all, _ := f.GetAllHospitals(ctx)
	var out []models.Hospital
	for _, h := range all {
		if h.Latitude != nil && h.Longitude != nil {
			out = append(out, h)
		}
	}
	return out, nil
}

func (f *fakeHospitals) CreateHospital(_ context.Context, h *models.Hospital) error {
	h.ID = f.db.nextID()
	cp := *h
	f.db.hospitals[h.ID] = &cp
	return nil
}

func (f *fakeHospitals) UpdateHospital(_ context.Context, h *models.Hospital) error {
	cp := *h
	f.db.hospitals[h.ID] = &cp
	return nil
}

func (f *fakeHospitals) SoftDeleteHospital(_ context.Context, id uint) error {
	if h, ok := f.db.hospitals[id]; ok {
		h.IsActive = false
	}
	return nil
}

func (f *fakeHospitals) CountActive(ctx context.Context) (int64, error) {
	all, _ := f.GetAllHospitals(ctx)
	return int64(len(all)), nil
}

// events

type fakeEvents struct{ db *memDB }

func (f *fakeEvents) hydrate(e *models.Event) models.Event {
	cp := *e
	if o, ok := f.db.orgs[e.OrganizationID]; ok {
		oc := *o
		cp.Organization = &oc
	}
	if h, ok := f.db.hospitals[e.HospitalID]; ok {
		hc := *h
		cp.Hospital = &hc
	}
	return cp
}

func (f *fakeEvents) Create(_ context.Context, event *models.Event) error {
	event.ID = f.db.nextID()
	cp := *event
	cp.Organization, cp.Hospital = nil, nil
	f.db.events[event.ID] = &cp
	return nil
}

func (f *fakeEvents) FindByID(_ context.Context, id uint) (*models.Event, error) {
	e, ok := f.db.events[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := f.hydrate(e)
	return &cp, nil
}

func (f *fakeEvents) Update(_ context.Context, event *models.Event) error {
	cp := *event
	cp.Organization, cp.Hospital = nil, nil
	f.db.events[event.ID] = &cp
	return nil
}

func (f *fakeEvents) Delete(_ context.Context, id uint) error {
	if _, ok := f.db.events[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.events, id)
	for rid, r := range f.db.regs {
		if r.EventID == id {
			delete(f.db.regs, rid)
		}
	}
	return nil
}

func (f *fakeEvents) match(e *models.Event, filter repository.EventFilter) bool {
	if filter.Status != "" && e.Status != filter.Status {
		return false
	}
	if filter.OrganizationID != nil && e.OrganizationID != *filter.OrganizationID {
		return false
	}
	if filter.HospitalID != nil && e.HospitalID != *filter.HospitalID {
		return false
	}
	if filter.Query != "" && !contains(e.Title, filter.Query) && !contains(e.Location, filter.Query) {
		return false
	}
	if filter.From != nil && e.StartTime.Before(*filter.From) {
		return false
	}
	if filter.To != nil && !e.StartTime.Before(*filter.To) {
		return false
	}
	if filter.UpcomingAfter != nil && !e.StartTime.After(*filter.UpcomingAfter) {
		return false
	}
	return true
}

func (f *fakeEvents) ListAll(_ context.Context, filter repository.EventFilter) ([]models.Event, error) {
	var out []models.Event
	for _, id := range sortedKeys(f.db.events) {
		if e := f.db.events[id]; f.match(e, filter) {
			out = append(out, f.hydrate(e))
		}
	}
	sort.SliceStable(out, func(i, j int) bool { return out[i].StartTime.Before(out[j].StartTime) })
	return out, nil
}

func (f *fakeEvents) List(ctx context.Context, filter repository.EventFilter, page utils.PageParams) ([]models.Event, int64, error) {
	all, _ := f.ListAll(ctx, filter)
	for i := range all {
		all[i].RegisteredCount, _ = f.CountActiveRegistrations(ctx, all[i].ID)
	}
	return paginate(all, page), int64(len(all)), nil
}

func (f *fakeEvents) CountActiveRegistrations(_ context.Context, eventID uint) (int64, error) {
	var n int64
	for _, r := range f.db.regs {
		if r.EventID == eventID && r.Status != models.StatusRejected {
			n++
		}
	}
	return n, nil
}

func (f *fakeEvents) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, e := range f.db.events {
		counts[e.Status]++
	}
	return counts, nil
}

// registrations

type fakeRegs struct{ db *memDB }

func (f *fakeRegs) hydrate(r *models.Registration) models.Registration {
	cp := *r
	if e, ok := f.db.events[r.EventID]; ok {
		ec := *e
		cp.Event = &ec
	}
	if d, ok := f.db.donors[r.DonorID]; ok {
		cp.Donor = (&fakeDonors{db: f.db}).withUser(d)
	}
	return cp
}

func (f *fakeRegs) Create(_ context.Context, reg *models.Registration) error {
	for _, r := range f.db.regs {
		if r.EventID == reg.EventID && r.DonorID == reg.DonorID {
			return gorm.ErrDuplicatedKey
		}
	}
	reg.ID = f.db.nextID()
	cp := *reg
	cp.Event, cp.Donor = nil, nil
	f.db.regs[reg.ID] = &cp
	return nil
}

func (f *fakeRegs) FindByID(_ context.Context, id uint) (*models.Registration, error) {
	r, ok := f.db.regs[id]
	if !ok {
		return nil, repository.ErrNotFound
	}
	cp := f.hydrate(r)
	return &cp, nil
}

func (f *fakeRegs) FindByIDs(_ context.Context, ids []uint) ([]models.Registration, error) {
	var out []models.Registration
	for _, id := range ids {
		if r, ok := f.db.regs[id]; ok {
			cp := f.hydrate(r)
			cp.Event = nil
			out = append(out, cp)
		}
	}
	return out, nil
}

func (f *fakeRegs) FindByEventAndDonor(_ context.Context, eventID, donorID uint) (*models.Registration, error) {
	for _, r := range f.db.regs {
		if r.EventID == eventID && r.DonorID == donorID {
			cp := *r
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeRegs) Update(_ context.Context, reg *models.Registration) error {
	cp := *reg
	cp.Event, cp.Donor = nil, nil
	f.db.regs[reg.ID] = &cp
	return nil
}

func (f *fakeRegs) Delete(_ context.Context, id uint) error {
	if _, ok := f.db.regs[id]; !ok {
		return repository.ErrNotFound
	}
	delete(f.db.regs, id)
	return nil
}

func (f *fakeRegs) List(_ context.Context, filter repository.RegistrationFilter, page utils.PageParams) ([]models.Registration, int64, error) {
	var out []models.Registration
	for _, id := range sortedKeys(f.db.regs) {
		r := f.db.regs[id]
		e := f.db.events[r.EventID]
		if filter.EventID != nil && r.EventID != *filter.EventID {
			continue
		}
		if filter.DonorID != nil && r.DonorID != *filter.DonorID {
			continue
		}
		if filter.Status != "" && r.Status != filter.Status {
			continue
		}
		if filter.OrganizationID != nil && (e == nil || e.OrganizationID != *filter.OrganizationID) {
			continue
		}
		if filter.HospitalID != nil && (e == nil || e.HospitalID != *filter.HospitalID) {
			continue
		}
		out = append(out, f.hydrate(r))
	}
	return paginate(out, page), int64(len(out)), nil
}

func (f *fakeRegs) CountByStatus(_ context.Context) (map[string]int64, error) {
	counts := map[string]int64{}
	for _, r := range f.db.regs {
		counts[r.Status]++
	}
	return counts, nil
}

// donation results

type fakeResults struct{ db *memDB }

func (f *fakeResults) ExistingRegistrationIDs(_ context.Context, ids []uint) ([]uint, error) {
	var out []uint
	for _, id := range ids {
		for _, r := range f.db.results {
			if r.RegistrationID == id {
				out = append(out, id)
			}
		}
	}
	return out, nil
}

// CreateBatch validates everything before writing so a failure leaves no trace.
func (f *fakeResults) CreateBatch(_ context.Context, results []models.DonationResult) error {
	if f.db.batchErr != nil {
		return f.db.batchErr
	}
	for _, res := range results {
		if _, ok := f.db.donors[res.DonorID]; !ok && res.Status == models.DonationSucceeded {
			return repository.ErrNotFound
		}
	}
	for i := range results {
		res := &results[i]
		res.ID = f.db.nextID()
		cp := *res
		f.db.results[res.ID] = &cp
		if res.Status != models.DonationSucceeded {
			continue
		}
		d := f.db.donors[res.DonorID]
		at := res.DonatedAt
		d.LastDonationAt = &at
		d.TotalDonations++
		if d.BloodType == nil && res.BloodType != nil {
			bt := *res.BloodType
			d.BloodType = &bt
		}
	}
	return nil
}

func (f *fakeResults) match(r *models.DonationResult, filter repository.DonationResultFilter) bool {
	if filter.DonorID != nil && r.DonorID != *filter.DonorID {
		return false
	}
	if filter.EventID != nil && r.EventID != *filter.EventID {
		return false
	}
	if filter.HospitalID != nil && r.HospitalID != *filter.HospitalID {
		return false
	}
	if filter.Status != "" && r.Status != filter.Status {
		return false
	}
	return true
}

func (f *fakeResults) List(_ context.Context, filter repository.DonationResultFilter, page utils.PageParams) ([]models.DonationResult, int64, error) {
	var out []models.DonationResult
	for _, id := range sortedKeys(f.db.results) {
		if r := f.db.results[id]; f.match(r, filter) {
			out = append(out, *r)
		}
	}
	return paginate(out, page), int64(len(out)), nil
}

func (f *fakeResults) Totals(_ context.Context, filter repository.DonationResultFilter, since *time.Time) (repository.DonationTotals, error) {
	var t repository.DonationTotals
	for _, r := range f.db.results {
		if !f.match(r, filter) || (since != nil && r.DonatedAt.Before(*since)) {
			continue
		}
		if r.Status == models.DonationSucceeded {
			t.Successful++
			t.TotalVolume += int64(r.VolumeML)
		} else {
			t.Failed++
		}
	}
	return t, nil
}

// notifications

type fakeNotifications struct {
	db        *memDB
	createErr error
}

func (f *fakeNotifications) Create(_ context.Context, n *models.Notification) error {
	if f.createErr != nil {
		return f.createErr
	}
	n.ID = f.db.nextID()
	n.CreatedAt = time.Now()
	cp := *n
	f.db.notifications[n.ID] = &cp
	return nil
}

func (f *fakeNotifications) ListByUser(_ context.Context, userID uint, unreadOnly bool, page utils.PageParams) ([]models.Notification, int64, error) {
	var out []models.Notification
	keys := sortedKeys(f.db.notifications)
	for i := len(keys) - 1; i >= 0; i-- {
		n := f.db.notifications[keys[i]]
		if n.UserID != userID || (unreadOnly && n.IsRead) {
			continue
		}
		out = append(out, *n)
	}
	return paginate(out, page), int64(len(out)), nil
}

func (f *fakeNotifications) CountUnread(_ context.Context, userID uint) (int64, error) {
	var c int64
	for _, n := range f.db.notifications {
		if n.UserID == userID && !n.IsRead {
			c++
		}
	}
	return c, nil
}

func (f *fakeNotifications) MarkRead(_ context.Context, userID, id uint, at time.Time) error {
	n, ok := f.db.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	n.IsRead = true
	n.ReadAt = &at
	return nil
}

func (f *fakeNotifications) MarkAllRead(_ context.Context, userID uint, at time.Time) (int64, error) {
	var c int64
	for _, n := range f.db.notifications {
		if n.UserID == userID && !n.IsRead {
			n.IsRead = true
			n.ReadAt = &at
			c++
		}
	}
	return c, nil
}

func (f *fakeNotifications) Delete(_ context.Context, userID, id uint) error {
	n, ok := f.db.notifications[id]
	if !ok || n.UserID != userID {
		return repository.ErrNotFound
	}
	delete(f.db.notifications, id)
	return nil
}

// otp codes

type fakeOTPs struct{ db *memDB }

func (f *fakeOTPs) Replace(_ context.Context, otp *models.OTPCode) error {
	for _, o := range f.db.otps {
		if o.Email == otp.Email && o.Purpose == otp.Purpose && o.UsedAt == nil {
			at := otp.CreatedAt
			o.UsedAt = &at
		}
	}
	otp.ID = f.db.nextID()
	cp := *otp
	f.db.otps[otp.ID] = &cp
	return nil
}

func (f *fakeOTPs) FindLatestActive(_ context.Context, email, purpose string) (*models.OTPCode, error) {
	keys := sortedKeys(f.db.otps)
	for i := len(keys) - 1; i >= 0; i-- {
		o := f.db.otps[keys[i]]
		if o.Email == email && o.Purpose == purpose && o.UsedAt == nil {
			cp := *o
			return &cp, nil
		}
	}
	return nil, repository.ErrNotFound
}

func (f *fakeOTPs) RecordFailedAttempt(_ context.Context, id uint, maxAttempts int, at time.Time) (int, error) {
	o, ok := f.db.otps[id]
	if !ok || o.UsedAt != nil {
		return 0, repository.ErrNotFound
	}
	o.Attempts++
	if o.Attempts >= maxAttempts {
		o.UsedAt = &at
	}
	return o.Attempts, nil
}

func (f *fakeOTPs) MarkUsed(_ context.Context, id uint, at time.Time) error {
	o, ok := f.db.otps[id]
	if !ok || o.UsedAt != nil {
		return repository.ErrNotFound
	}
	o.UsedAt = &at
	return nil
}

func (f *fakeOTPs) DeleteExpired(_ context.Context, before time.Time) (int64, error) {
	var n int64
	for id, o := range f.db.otps {
		if o.ExpiresAt.Before(before) || (o.UsedAt != nil && o.UsedAt.Before(before)) {
			delete(f.db.otps, id)
			n++
		}
	}
	return n, nil
}

// volunteer groups

type fakeVolunteers struct{ db *memDB }

func (f *fakeVolunteers) count(groupID uint) int64 {
	var n int64
	for _, m := range f.db.members {
		if m.GroupID == groupID {
			n++
		}
	}
	return n
}

func (f *fakeVolunteers) CreateGroup(_ context.Context, g *models.VolunteerGroup) error {
	g.ID = f.db.nextID()
	cp := *g
	f.db.groups[g.ID] = &cp
	return nil
}

func (f *fakeVolunteers) FindGroupByID(_ context.Context, id uint) (*models.VolunteerGroup, error) {
	g, ok := f.db.groups[id]
	if !ok || !g.IsActive {
		return nil, repository.ErrNotFound
	}
	cp := *g
	cp.MemberCount = f.count(id)
	return &cp, nil
}

func (f *fakeVolunteers) UpdateGroup(_ context.Context, g *models.VolunteerGroup) error {
	cp := *g
	f.db.groups[g.ID] = &cp
	return nil
}

func (f *fakeVolunteers) DeactivateGroup(_ context.Context, id uint) error {
	g, ok := f.db.groups[id]
	if !ok || !g.IsActive {
		return repository.ErrNotFound
	}
	g.IsActive = false
	return nil
}

func (f *fakeVolunteers) ListGroups(_ context.Context, organizationID *uint, query string, page utils.PageParams) ([]models.VolunteerGroup, int64, error) {
	var out []models.VolunteerGroup
	for _, id := range sortedKeys(f.db.groups) {
		g := f.db.groups[id]
		if !g.IsActive {
			continue
		}
		if organizationID != nil && !sameID(g.OrganizationID, *organizationID) {
			continue
		}
		if query != "" && !contains(g.Name, query) {
			continue
		}
		cp := *g
		cp.MemberCount = f.count(id)
		out = append(out, cp)
	}
	return paginate(out, page), int64(len(out)), nil
}

func (f *fakeVolunteers) ListGroupsByMember(_ context.Context, userID uint) ([]models.VolunteerGroup, error) {
	var out []models.VolunteerGroup
	for _, m := range f.db.members {
		if g, ok := f.db.groups[m.GroupID]; ok && m.UserID == userID && g.IsActive {
			out = append(out, *g)
		}
	}
	return out, nil
}

func (f *fakeVolunteers) AddMember(_ context.Context, m *models.VolunteerGroupMember) error {
	for _, x := range f.db.members {
		if x.GroupID == m.GroupID && x.UserID == m.UserID {
			return gorm.ErrDuplicatedKey
		}
	}
	m.ID = f.db.nextID()
	m.JoinedAt = time.Now()
	cp := *m
	f.db.members = append(f.db.members, &cp)
	return nil
}

func (f *fakeVolunteers) RemoveMember(_ context.Context, groupID, userID uint) error {
	for i, m := range f.db.members {
		if m.GroupID == groupID && m.UserID == userID {
			f.db.members = append(f.db.members[:i], f.db.members[i+1:]...)
			return nil
		}
	}
	return repository.ErrNotFound
}

func (f *fakeVolunteers) IsMember(_ context.Context, groupID, userID uint) (bool, error) {
	for _, m := range f.db.members {
		if m.GroupID == groupID && m.UserID == userID {
			return true, nil
		}
	}
	return false, nil
}

func (f *fakeVolunteers) ListMembers(_ context.Context, groupID uint, page utils.PageParams) ([]models.VolunteerGroupMember, int64, error) {
	var out []models.VolunteerGroupMember
	for _, m := range f.db.members {
		if m.GroupID == groupID {
			out = append(out, *m)
		}
	}
	return paginate(out, page), int64(len(out)), nil
}

// audit

type fakeAudit struct{ db *memDB }

func (f *fakeAudit) CreateAuditLog(_ context.Context, userID *uint, action string, details string) error {
	f.db.audits = append(f.db.audits, models.AuditLog{ID: f.db.nextID(), UserID: userID, Action: action, Details: details})
	return nil
}

func (f *fakeAudit) ListAuditLogs(_ context.Context, action string, userID *uint, page utils.PageParams) ([]models.AuditLog, int64, error) {
	var out []models.AuditLog
	for i := len(f.db.audits) - 1; i >= 0; i-- {
		a := f.db.audits[i]
		if action != "" && a.Action != action {
			continue
		}
		if userID != nil && !sameID(a.UserID, *userID) {
			continue
		}
		out = append(out, a)
	}
	return paginate(out, page), int64(len(out)), nil
}

func (db *memDB) auditActions() []string {
	out := make([]string, len(db.audits))
	for i, a := range db.audits {
		out[i] = a.Action
	}
	return out
}

// mail and notification doubles

type sentMail struct {
	To, Subject, Body string
}

type fakeMailer struct {
	mu   sync.Mutex
	sent []sentMail
	err  error
}

func (m *fakeMailer) Send(_ context.Context, to, subject, body string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.err != nil {
		return m.err
	}
	m.sent = append(m.sent, sentMail{To: to, Subject: subject, Body: body})
	return nil
}

func (m *fakeMailer) Close() error { return nil }

func (m *fakeMailer) Sent() []sentMail {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]sentMail(nil), m.sent...)
}

type recordingNotifier struct {
	msgs    []Message
	// failFor makes delivery to these users fail.
	failFor map[uint]bool
}

func (r *recordingNotifier) Notify(_ context.Context, msg Message) (*models.Notification, error) {
	if r.failFor[msg.UserID] {
		return nil, errors.New("notification store unavailable")
	}
	r.msgs = append(r.msgs, msg)
	return &models.Notification{UserID: msg.UserID, Type: msg.Type, Title: msg.Title}, nil
}

func (r *recordingNotifier) NotifyMany(ctx context.Context, msgs []Message) (int, error) {
	var errs []error
	delivered := 0
	for _, m := range msgs {
		if _, err := r.Notify(ctx, m); err != nil {
			errs = append(errs, err)
			continue
		}
		delivered++
	}
	return delivered, errors.Join(errs...)
}

func (r *recordingNotifier) to(userID uint) []Message {
	var out []Message
	for _, m := range r.msgs {
		if m.UserID == userID {
			out = append(out, m)
		}
	}
	return out
}

type fakePusher struct {
	mu     sync.Mutex
	pushed map[uint][]interface{}
}

func (p *fakePusher) SendToUser(userID uint, event string, data interface{}) int {
	p.mu.Lock()
	defer p.mu.Unlock()
	if p.pushed == nil {
		p.pushed = map[uint][]interface{}{}
	}
	p.pushed[userID] = append(p.pushed[userID], data)
	return 1
}
