package service

import (
	"testing"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"
)

var testNow = time.Date(2025, 6, 1, 9, 0, 0, 0, time.UTC)

type testEnv struct {
	db       *memDB
	notifier *recordingNotifier
	mail     *fakeMailer

	users         *fakeUsers
	donorStore    *fakeDonors
	otpStore      *fakeOTPs
	notifications *fakeNotifications

	auth       *AuthService
	otp        *OTPService
	donors     *DonorService
	events     *EventService
	regs       *RegistrationService
	approvals  *ApprovalService
	hospitals  *HospitalService
	orgs       *OrganizationService
	volunteers *VolunteerService
	inbox      *NotificationService
	admin      *AdminService
	locations  *LocationService
	worker     *WorkerService
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	utils.InitJWT("test-secret", 15*time.Minute, 24*time.Hour)

	db := newMemDB()
	users := &fakeUsers{db: db}
	donors := &fakeDonors{db: db}
	orgs := &fakeOrgs{db: db}
	hospitals := &fakeHospitals{db: db}
	events := &fakeEvents{db: db}
	regs := &fakeRegs{db: db}
	results := &fakeResults{db: db}
	notifications := &fakeNotifications{db: db}
	otps := &fakeOTPs{db: db}
	groups := &fakeVolunteers{db: db}
	audit := &fakeAudit{db: db}

	notifier := &recordingNotifier{}
	mail := &fakeMailer{}
	clock := func() time.Time { return testNow }

	env := &testEnv{
		db:            db,
		notifier:      notifier,
		mail:          mail,
		users:         users,
		donorStore:    donors,
		otpStore:      otps,
		notifications: notifications,
	}

	env.otp = NewOTPService(otps, mail, 6, 5*time.Minute)
	env.otp.now = clock
	env.auth = NewAuthService(users, donors, env.otp, audit, nil)
	env.auth.now = clock
	env.donors = NewDonorService(donors, users, results, audit)
	env.events = NewEventService(events, hospitals, regs, users, notifier, audit)
	env.events.now = clock
	env.regs = NewRegistrationService(regs, events, donors, users, notifier, audit, nil, 84)
	env.regs.now = clock
	env.approvals = NewApprovalService(events, regs, users, notifier, audit, nil)
	env.approvals.now = clock
	env.hospitals = NewHospitalService(hospitals, users, donors, events, regs, results, notifier, audit, nil)
	env.hospitals.now = clock
	env.orgs = NewOrganizationService(orgs, users, audit)
	env.volunteers = NewVolunteerService(groups, users, orgs, notifier, audit)
	env.inbox = NewNotificationService(notifications)
	env.inbox.now = clock
	env.admin = NewAdminService(users, donors, orgs, hospitals, events, regs, results, notifier, audit, nil)
	env.admin.now = clock
	env.locations = NewLocationService(events, hospitals)
	env.locations.now = clock
	env.worker = NewWorkerService(otps, users, time.Minute, nil)
	env.worker.now = clock
	return env
}

func ptr[T any](v T) *T { return &v }

func (e *testEnv) addOrg(name string) *models.Organization {
	o := &models.Organization{ID: e.db.nextID(), Name: name, IsActive: true}
	e.db.orgs[o.ID] = o
	return o
}

func (e *testEnv) addHospital(code string, lat, lng float64) *models.Hospital {
	h := &models.Hospital{ID: e.db.nextID(), Code: code, Name: "Hospital " + code, Latitude: &lat, Longitude: &lng, IsActive: true}
	e.db.hospitals[h.ID] = h
	return h
}

func (e *testEnv) addUser(email, role string) *models.User {
	hash, _ := utils.HashPassword("password123")
	u := &models.User{ID: e.db.nextID(), Email: email, FullName: email, PasswordHash: hash, Role: role, IsActive: true}
	e.db.users[u.ID] = u
	return u
}

func (e *testEnv) addOrgCoordinator(email string, orgID uint) *models.User {
	u := e.addUser(email, models.RoleOrganization)
	u.OrganizationID = &orgID
	return u
}

func (e *testEnv) addHospitalCoordinator(email string, hospitalID uint) *models.User {
	u := e.addUser(email, models.RoleHospital)
	u.HospitalID = &hospitalID
	return u
}

func (e *testEnv) addDonor(email string) (*models.User, *models.Donor) {
	u := e.addUser(email, models.RoleDonor)
	d := &models.Donor{ID: e.db.nextID(), UserID: u.ID, Gender: "other"}
	e.db.donors[d.ID] = d
	return u, d
}

func (e *testEnv) addEvent(orgID, hospitalID uint, status string, start time.Time, capacity int) *models.Event {
	ev := &models.Event{
		ID:              e.db.nextID(),
		OrganizationID:  orgID,
		HospitalID:      hospitalID,
		Title:           "Drive",
		Location:        "Hall",
		StartTime:       start,
		EndTime:         start.Add(4 * time.Hour),
		MaxParticipants: capacity,
		Status:          status,
	}
	e.db.events[ev.ID] = ev
	return ev
}

func (e *testEnv) addRegistration(eventID, donorID uint, status string) *models.Registration {
	r := &models.Registration{ID: e.db.nextID(), EventID: eventID, DonorID: donorID, Status: status}
	e.db.regs[r.ID] = r
	return r
}

func actorOf(u *models.User) Actor {
	return Actor{UserID: u.ID, Role: u.Role}
}
