package service

import (
	"context"
	"errors"
	"net/http"
	"testing"
	"time"

	"blood-donation-backend/internal/models"
	"blood-donation-backend/pkg/utils"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCreateHospitalNormalizesCode(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser("admin@example.com", models.RoleAdmin)
	ctx := context.Background()

	h, err := env.hospitals.CreateHospital(ctx, actorOf(admin), HospitalInput{Code: " bvcr ", Name: "Cho Ray"})
	require.NoError(t, err)
	assert.Equal(t, "BVCR", h.Code)
	assert.True(t, h.IsActive)

	_, err = env.hospitals.CreateHospital(ctx, actorOf(admin), HospitalInput{Code: "BVCR", Name: "Duplicate"})
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))

	_, err = env.hospitals.CreateHospital(ctx, actorOf(admin), HospitalInput{Name: "No code"})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestUpdateAndDeleteHospital(t *testing.T) {
	env := newTestEnv(t)
	admin := env.addUser("admin@example.com", models.RoleAdmin)
	h := env.addHospital("H1", 0, 0)
	env.addHospital("H2", 0, 0)
	ctx := context.Background()

	_, err := env.hospitals.UpdateHospital(ctx, actorOf(admin), h.ID, HospitalInput{Code: "h2", Name: "Clash"})
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))

	updated, err := env.hospitals.UpdateHospital(ctx, actorOf(admin), h.ID, HospitalInput{Code: "h9", Name: "Renamed"})
	require.NoError(t, err)
	assert.Equal(t, "H9", updated.Code)
	assert.Equal(t, "Renamed", updated.Name)

	require.NoError(t, env.hospitals.DeleteHospital(ctx, actorOf(admin), h.ID))
	_, err = env.hospitals.GetHospitalByID(ctx, h.ID)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))
}

func TestUpdateMyHospitalKeepsCode(t *testing.T) {
	env := newTestEnv(t)
	h := env.addHospital("H1", 0, 0)
	coord := env.addHospitalCoordinator("hosp@example.com", h.ID)

	got, err := env.hospitals.UpdateMyHospital(context.Background(), actorOf(coord), HospitalInput{Code: "OTHER", Name: "New name"})
	require.NoError(t, err)
	assert.Equal(t, "H1", got.Code)
	assert.Equal(t, "New name", env.db.hospitals[h.ID].Name)

	donor, _ := env.addDonor("donor@example.com")
	_, err = env.hospitals.GetMyHospital(context.Background(), actorOf(donor))
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))
}

type resultsFixture struct {
	env   *testEnv
	coord *models.User
	event *models.Event
	users []*models.User
	regs  []*models.Registration
}

func newResultsFixture(t *testing.T) *resultsFixture {
	env := newTestEnv(t)
	org := env.addOrg("Club")
	hosp := env.addHospital("H1", 0, 0)
	f := &resultsFixture{env: env}
	f.coord = env.addHospitalCoordinator("hosp@example.com", hosp.ID)
	f.event = env.addEvent(org.ID, hosp.ID, models.StatusApproved, testNow.Add(-2*time.Hour), 10)
	for _, email := range []string{"a@example.com", "b@example.com"} {
		u, d := env.addDonor(email)
		f.users = append(f.users, u)
		f.regs = append(f.regs, env.addRegistration(f.event.ID, d.ID, models.StatusApproved))
	}
	return f
}

func TestRecordResultsUpdatesDonors(t *testing.T) {
	f := newResultsFixture(t)

	results, err := f.env.hospitals.RecordResults(context.Background(), actorOf(f.coord), RecordResultsInput{
		EventID: f.event.ID,
		Results: []ResultInput{
			{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded, VolumeML: 350, BloodType: "O"},
			{RegistrationID: f.regs[1].ID, Status: models.DonationFailed, VolumeML: 200, Note: "low iron"},
		},
	})
	require.NoError(t, err)
	require.Len(t, results, 2)
	assert.Equal(t, 0, results[1].VolumeML)
	assert.Equal(t, f.event.StartTime, results[0].DonatedAt)

	donated := f.env.db.donors[f.regs[0].DonorID]
	assert.Equal(t, 1, donated.TotalDonations)
	require.NotNil(t, donated.LastDonationAt)
	assert.Equal(t, f.event.StartTime, *donated.LastDonationAt)
	require.NotNil(t, donated.BloodType)
	assert.Equal(t, "O", *donated.BloodType)

	failed := f.env.db.donors[f.regs[1].DonorID]
	assert.Equal(t, 0, failed.TotalDonations)
	assert.Nil(t, failed.LastDonationAt)

	msgs := f.env.notifier.to(f.users[0].ID)
	require.Len(t, msgs, 1)
	assert.Equal(t, models.NotificationDonationRecorded, msgs[0].Type)
	assert.Equal(t, "a@example.com", msgs[0].Email)
	assert.Len(t, f.env.notifier.to(f.users[1].ID), 1)
}

func TestRecordResultsRejectsWholeBatch(t *testing.T) {
	f := newResultsFixture(t)
	ctx := context.Background()
	pending := f.env.addRegistration(f.event.ID, f.env.db.donors[f.regs[0].DonorID].ID+100, models.StatusPending)

	cases := []struct {
		name    string
		results []ResultInput
		status  int
	}{
		{
			name: "duplicate registration",
			results: []ResultInput{
				{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded, VolumeML: 350},
				{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded, VolumeML: 350},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "success without volume",
			results: []ResultInput{
				{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "unknown registration",
			results: []ResultInput{
				{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded, VolumeML: 350},
				{RegistrationID: 9999, Status: models.DonationFailed},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "registration not approved",
			results: []ResultInput{
				{RegistrationID: pending.ID, Status: models.DonationFailed},
			},
			status: http.StatusBadRequest,
		},
		{
			name: "bad status",
			results: []ResultInput{
				{RegistrationID: f.regs[0].ID, Status: "maybe"},
			},
			status: http.StatusBadRequest,
		},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			_, err := f.env.hospitals.RecordResults(ctx, actorOf(f.coord), RecordResultsInput{EventID: f.event.ID, Results: tc.results})
			assert.Equal(t, tc.status, utils.StatusOf(err))
			assert.Empty(t, f.env.db.results)
			assert.Equal(t, 0, f.env.db.donors[f.regs[0].DonorID].TotalDonations)
		})
	}
}

func TestRecordResultsRollbackLeavesDonorsUntouched(t *testing.T) {
	f := newResultsFixture(t)
	f.env.db.batchErr = errors.New("deadlock")

	_, err := f.env.hospitals.RecordResults(context.Background(), actorOf(f.coord), RecordResultsInput{
		EventID: f.event.ID,
		Results: []ResultInput{{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded, VolumeML: 250}},
	})
	require.Error(t, err)
	assert.Equal(t, http.StatusInternalServerError, utils.StatusOf(err))
	assert.Empty(t, f.env.db.results)
	assert.Nil(t, f.env.db.donors[f.regs[0].DonorID].LastDonationAt)
	assert.Empty(t, f.env.notifier.msgs)
}

func TestRecordResultsTwiceConflicts(t *testing.T) {
	f := newResultsFixture(t)
	ctx := context.Background()
	in := RecordResultsInput{
		EventID: f.event.ID,
		Results: []ResultInput{{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded, VolumeML: 250}},
	}

	_, err := f.env.hospitals.RecordResults(ctx, actorOf(f.coord), in)
	require.NoError(t, err)
	_, err = f.env.hospitals.RecordResults(ctx, actorOf(f.coord), in)
	assert.Equal(t, http.StatusConflict, utils.StatusOf(err))
	assert.Equal(t, 1, f.env.db.donors[f.regs[0].DonorID].TotalDonations)
}

func TestRecordResultsEventChecks(t *testing.T) {
	f := newResultsFixture(t)
	ctx := context.Background()
	org := f.env.addOrg("Other")
	otherHosp := f.env.addHospital("H2", 0, 0)
	foreign := f.env.addEvent(org.ID, otherHosp.ID, models.StatusApproved, testNow.Add(-time.Hour), 5)
	future := f.env.addEvent(org.ID, f.event.HospitalID, models.StatusApproved, testNow.Add(time.Hour), 5)
	result := []ResultInput{{RegistrationID: f.regs[0].ID, Status: models.DonationFailed}}

	_, err := f.env.hospitals.RecordResults(ctx, actorOf(f.coord), RecordResultsInput{EventID: foreign.ID, Results: result})
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))

	_, err = f.env.hospitals.RecordResults(ctx, actorOf(f.coord), RecordResultsInput{EventID: future.ID, Results: result})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	_, err = f.env.hospitals.RecordResults(ctx, actorOf(f.coord), RecordResultsInput{EventID: f.event.ID})
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestListResultsScopedToHospital(t *testing.T) {
	f := newResultsFixture(t)
	ctx := context.Background()
	_, err := f.env.hospitals.RecordResults(ctx, actorOf(f.coord), RecordResultsInput{
		EventID: f.event.ID,
		Results: []ResultInput{
			{RegistrationID: f.regs[0].ID, Status: models.DonationSucceeded, VolumeML: 350},
			{RegistrationID: f.regs[1].ID, Status: models.DonationFailed},
		},
	})
	require.NoError(t, err)

	page := utils.PageParams{Page: 1, PerPage: 10}
	_, total, err := f.env.hospitals.ListResults(ctx, actorOf(f.coord), nil, models.DonationFailed, page)
	require.NoError(t, err)
	assert.EqualValues(t, 1, total)

	_, _, err = f.env.hospitals.ListResults(ctx, actorOf(f.coord), nil, "other", page)
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))
}

func TestConfirmBloodType(t *testing.T) {
	env := newTestEnv(t)
	h := env.addHospital("H1", 0, 0)
	coord := env.addHospitalCoordinator("hosp@example.com", h.ID)
	admin := env.addUser("admin@example.com", models.RoleAdmin)
	donorUser, donor := env.addDonor("donor@example.com")
	ctx := context.Background()

	got, err := env.hospitals.ConfirmBloodType(ctx, actorOf(coord), donor.ID, models.BloodTypeAB)
	require.NoError(t, err)
	assert.True(t, got.BloodTypeConfirmed)
	require.NotNil(t, env.db.donors[donor.ID].ConfirmedByHospitalID)
	assert.Equal(t, h.ID, *env.db.donors[donor.ID].ConfirmedByHospitalID)
	assert.Equal(t, testNow, *env.db.donors[donor.ID].ConfirmedAt)
	assert.Len(t, env.notifier.to(donorUser.ID), 1)

	_, err = env.hospitals.ConfirmBloodType(ctx, actorOf(admin), donor.ID, models.BloodTypeO)
	require.NoError(t, err)
	assert.Nil(t, env.db.donors[donor.ID].ConfirmedByHospitalID)

	_, err = env.hospitals.ConfirmBloodType(ctx, actorOf(coord), donor.ID, "Z")
	assert.Equal(t, http.StatusBadRequest, utils.StatusOf(err))

	_, err = env.hospitals.ConfirmBloodType(ctx, actorOf(coord), 777, models.BloodTypeA)
	assert.Equal(t, http.StatusNotFound, utils.StatusOf(err))

	_, err = env.hospitals.ConfirmBloodType(ctx, actorOf(donorUser), donor.ID, models.BloodTypeA)
	assert.Equal(t, http.StatusForbidden, utils.StatusOf(err))
}
