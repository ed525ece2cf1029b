package records_test

import (
	"context"
	"errors"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/campusclinic/console/pkg/auth"
	"github.com/campusclinic/console/pkg/client"
	"github.com/campusclinic/console/pkg/common/logger"
	"github.com/campusclinic/console/pkg/common/models"
	"github.com/campusclinic/console/pkg/devserver"
	"github.com/campusclinic/console/pkg/query"
	"github.com/campusclinic/console/pkg/records"
)

func init() {
	logger.InitCLI()
}

type fixture struct {
	svc      *records.Service
	sessions *auth.Manager
	api      *client.Client
}

// newFixture wires a client against an in-memory backend and logs in as the
// given seeded account.
func newFixture(t *testing.T, username, password string) *fixture {
	t.Helper()

	srv := httptest.NewServer(devserver.New("test-secret", time.Hour).Handler())
	t.Cleanup(srv.Close)

	store := auth.NewTokenStore(filepath.Join(t.TempDir(), "token"))
	sessions := auth.NewManager(store)
	sessions.Init()

	api := client.New(srv.URL, 5*time.Second, store)
	svc := records.New(api, query.NewCache(), time.Minute, time.Minute)

	token, err := api.Login(context.Background(), username, password)
	require.NoError(t, err)
	_, err = sessions.Login(token)
	require.NoError(t, err)

	return &fixture{svc: svc, sessions: sessions, api: api}
}

func TestLoginDecodesSeededAccount(t *testing.T) {
	f := newFixture(t, "nurse.cruz", "nurse123")

	state, session := f.sessions.Current()
	require.Equal(t, auth.StateAuthenticated, state)
	require.Equal(t, "nurse.cruz", session.Username)
	// Tokens carry a ROLE_ prefix on the wire; the session does not.
	require.Equal(t, models.RoleNurse, session.Role)
}

func TestPatientLifecycle(t *testing.T) {
	f := newFixture(t, "dr.reyes", "doctor123")
	ctx := context.Background()

	list, err := f.svc.PatientsList(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	created, err := f.svc.CreatePatient(ctx, models.Patient{
		FirstName:     "Ana",
		LastName:      "Lim",
		StudentNumber: "2024-00117",
		Gender:        "Female",
		Status:        "Active",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)

	// The create must dirty the list so the next read sees the new row
	// even though the cache window has not elapsed.
	list, err = f.svc.PatientsList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 1)
	require.Equal(t, "Lim", list[0].LastName)

	created.ContactNumber = "0917-555-0101"
	updated, err := f.svc.UpdatePatient(ctx, created.ID, created)
	require.NoError(t, err)
	require.Equal(t, "0917-555-0101", updated.ContactNumber)

	got, err := f.svc.Patient(ctx, created.ID)
	require.NoError(t, err)
	require.Equal(t, "0917-555-0101", got.ContactNumber)

	require.NoError(t, f.svc.DeletePatient(ctx, created.ID))

	list, err = f.svc.PatientsList(ctx)
	require.NoError(t, err)
	require.Empty(t, list)

	_, err = f.svc.Patient(ctx, created.ID)
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 404, httpErr.Status)
}

func TestImportPatientsRejectsBadRowVerbatim(t *testing.T) {
	f := newFixture(t, "nurse.cruz", "nurse123")
	ctx := context.Background()

	csv := "studentNumber,lastName,firstName\n" +
		"2024-001,Reyes,Marco\n" +
		"2024-002,Santos,Bea\n" +
		"2024-003,,Ghost\n"

	err := f.svc.ImportPatients(ctx, "batch.csv", []byte(csv))
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 400, httpErr.Status)
	require.Equal(t, "row 4: missing last name", httpErr.Body)

	// A rejected import commits nothing.
	list, listErr := f.svc.PatientsList(ctx)
	require.NoError(t, listErr)
	require.Empty(t, list)
}

func TestImportThenExportPatients(t *testing.T) {
	f := newFixture(t, "nurse.cruz", "nurse123")
	ctx := context.Background()

	csv := "studentNumber,lastName,firstName\n" +
		"2024-001,Reyes,Marco\n"
	require.NoError(t, f.svc.ImportPatients(ctx, "batch.csv", []byte(csv)))

	dir := t.TempDir()
	require.NoError(t, f.svc.ExportPatients(ctx, dir))

	data, err := os.ReadFile(filepath.Join(dir, "patients.csv"))
	require.NoError(t, err)
	require.Contains(t, string(data), "Reyes")
}

func TestVisitRoutingByType(t *testing.T) {
	f := newFixture(t, "dr.santos", "dentist123")
	ctx := context.Background()

	patient, err := f.svc.CreatePatient(ctx, models.Patient{FirstName: "Jo", LastName: "Tan"})
	require.NoError(t, err)

	medical, err := f.svc.CreateMedicalVisit(ctx, models.MedicalVisit{
		VisitEnvelope: models.VisitEnvelope{
			PatientID:      patient.ID,
			VisitDate:      "2026-08-30",
			ChiefComplaint: "Fever",
			Diagnosis:      "URTI",
		},
		Symptoms: "Cough, colds",
	}, &records.Attachment{Filename: "chart.png", Content: []byte("png")})
	require.NoError(t, err)
	require.NotZero(t, medical.ID)
	require.Equal(t, "/uploads/chart.png", medical.MedicalChartImage)

	dental, err := f.svc.CreateDentalVisit(ctx, models.DentalVisit{
		VisitEnvelope: models.VisitEnvelope{
			PatientID:      patient.ID,
			VisitDate:      "2026-08-31",
			ChiefComplaint: "Toothache",
			Diagnosis:      "Caries",
		},
		ToothStatus: models.ToothStatus{"18": models.ToothCaries, "31": models.ToothNoCaries},
	}, nil, nil)
	require.NoError(t, err)
	require.NotZero(t, dental.ID)

	gotDental, err := f.svc.DentalVisit(ctx, dental.ID)
	require.NoError(t, err)
	require.Equal(t, models.ToothCaries, gotDental.ToothStatus.Mark("18"))
	require.Equal(t, models.ToothUnset, gotDental.ToothStatus.Mark("48"))

	// Each variant lives under its own path. A medical id is not visible
	// through the dental endpoint.
	_, err = f.svc.DentalVisit(ctx, medical.ID)
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 404, httpErr.Status)

	list, err := f.svc.VisitsList(ctx)
	require.NoError(t, err)
	require.Len(t, list, 2)
	types := map[string]bool{}
	for _, v := range list {
		types[v.VisitType] = true
		require.NotNil(t, v.Patient)
		require.Equal(t, "Tan", v.Patient.LastName)
	}
	require.True(t, types[models.VisitTypeMedical])
	require.True(t, types[models.VisitTypeDental])

	forPatient, err := f.svc.VisitsForPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, forPatient, 2)

	require.NoError(t, f.svc.DeleteVisit(ctx, models.VisitTypeMedical, medical.ID))

	forPatient, err = f.svc.VisitsForPatient(ctx, patient.ID)
	require.NoError(t, err)
	require.Len(t, forPatient, 1)
	require.Equal(t, models.VisitTypeDental, forPatient[0].VisitType)
}

func TestUpdateDentalVisitKeepsPriorUploads(t *testing.T) {
	f := newFixture(t, "dr.santos", "dentist123")
	ctx := context.Background()

	patient, err := f.svc.CreatePatient(ctx, models.Patient{FirstName: "Jo", LastName: "Tan"})
	require.NoError(t, err)

	created, err := f.svc.CreateDentalVisit(ctx, models.DentalVisit{
		VisitEnvelope: models.VisitEnvelope{
			PatientID:      patient.ID,
			VisitDate:      "2026-08-31",
			ChiefComplaint: "Checkup",
		},
		ToothStatus: models.ToothStatus{"11": models.ToothExtraction},
	}, &records.Attachment{Filename: "dental.png", Content: []byte("png")}, nil)
	require.NoError(t, err)
	require.Equal(t, "/uploads/dental.png", created.DentalChartImage)

	created.Diagnosis = "Impacted molar"
	updated, err := f.svc.UpdateDentalVisit(ctx, created.ID, created, nil, nil)
	require.NoError(t, err)
	require.Equal(t, "Impacted molar", updated.Diagnosis)
	require.Equal(t, "/uploads/dental.png", updated.DentalChartImage)
	require.Equal(t, models.ToothExtraction, updated.ToothStatus.Mark("11"))
}

func TestUserAccountLifecycle(t *testing.T) {
	f := newFixture(t, "admin", "admin123")
	ctx := context.Background()

	users, err := f.svc.UsersList(ctx)
	require.NoError(t, err)
	require.Len(t, users, 4)
	for _, u := range users {
		require.Empty(t, u.Password)
	}

	created, err := f.svc.CreateUser(ctx, models.UserAccount{
		Username: "dr.new",
		Role:     models.RoleMD,
		Password: "newdoc123",
	})
	require.NoError(t, err)
	require.NotZero(t, created.ID)
	require.Empty(t, created.Password)

	// An update with an empty password leaves the credential untouched.
	created.Role = models.RoleDMD
	_, err = f.svc.UpdateUser(ctx, created.ID, created)
	require.NoError(t, err)

	_, err = f.api.Login(ctx, "dr.new", "newdoc123")
	require.NoError(t, err)

	require.NoError(t, f.svc.DeleteUser(ctx, created.ID))

	_, err = f.api.Login(ctx, "dr.new", "newdoc123")
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 401, httpErr.Status)
}

func TestUsersRequireAdmin(t *testing.T) {
	f := newFixture(t, "nurse.cruz", "nurse123")

	_, err := f.svc.UsersList(context.Background())
	var httpErr *client.HTTPError
	require.ErrorAs(t, err, &httpErr)
	require.Equal(t, 403, httpErr.Status)
}

func TestDashboardAggregates(t *testing.T) {
	f := newFixture(t, "dr.reyes", "doctor123")
	ctx := context.Background()

	patient, err := f.svc.CreatePatient(ctx, models.Patient{FirstName: "Jo", LastName: "Tan"})
	require.NoError(t, err)

	today := time.Now().Format("2006-01-02")
	for _, diag := range []string{"URTI", "URTI", "Gastritis"} {
		_, err := f.svc.CreateMedicalVisit(ctx, models.MedicalVisit{
			VisitEnvelope: models.VisitEnvelope{
				PatientID:      patient.ID,
				VisitDate:      today,
				ChiefComplaint: "Checkup",
				Diagnosis:      diag,
			},
		}, nil)
		require.NoError(t, err)
	}

	kpis, err := f.svc.KPIs(ctx)
	require.NoError(t, err)
	require.Equal(t, 3, kpis.TodaysVisits)
	require.Equal(t, 3, kpis.VisitsThisMonth)

	diagnoses, err := f.svc.TopDiagnoses(ctx)
	require.NoError(t, err)
	require.Len(t, diagnoses, 2)
	require.Equal(t, models.DiagnosisStat{Diagnosis: "URTI", Count: 2}, diagnoses[0])

	trend, err := f.svc.VisitsTrend(ctx)
	require.NoError(t, err)
	require.Len(t, trend, 1)
	require.Equal(t, today, trend[0].Date)
	require.Equal(t, 3, trend[0].Count)
}

func TestAuditEntriesFilter(t *testing.T) {
	f := newFixture(t, "admin", "admin123")
	ctx := context.Background()

	first, err := f.svc.CreatePatient(ctx, models.Patient{FirstName: "Ana", LastName: "Lim"})
	require.NoError(t, err)
	second, err := f.svc.CreatePatient(ctx, models.Patient{FirstName: "Jo", LastName: "Tan"})
	require.NoError(t, err)

	second.Remarks = "follow-up"
	_, err = f.svc.UpdatePatient(ctx, second.ID, second)
	require.NoError(t, err)

	entries, err := f.svc.AuditEntries(ctx, "Patient", second.ID)
	require.NoError(t, err)
	require.Len(t, entries, 2)
	for _, e := range entries {
		require.Equal(t, "Patient", e.EntityName)
		require.Equal(t, second.ID, e.RecordID)
		require.Equal(t, "admin", e.Username)
	}

	entries, err = f.svc.AuditEntries(ctx, "Patient", first.ID)
	require.NoError(t, err)
	require.Len(t, entries, 1)
	require.Equal(t, models.AuditCreate, entries[0].Action)
}

func TestLoggedOutRequestsFailFast(t *testing.T) {
	f := newFixture(t, "admin", "admin123")
	f.sessions.Logout()

	_, err := f.svc.PatientsList(context.Background())
	require.True(t, errors.Is(err, client.ErrUnauthenticated))
}

func TestDeleteVisitUnknownType(t *testing.T) {
	f := newFixture(t, "dr.reyes", "doctor123")

	err := f.svc.DeleteVisit(context.Background(), "SURGICAL", 1)
	require.Error(t, err)
}
