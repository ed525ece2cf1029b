package records

import (
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"strconv"

	"github.com/campusclinic/console/pkg/client"
	"github.com/campusclinic/console/pkg/common/models"
)

// Medical and dental visits live in separate backend collections; there is
// no generic visit endpoint. Every operation routes on an explicit type
// discriminator, and only the unified read-all list merges the two (tagged
// by visitType).

// Attachment is an optional file carried by a visit create/update.
type Attachment struct {
	Filename string
	Content  []byte
}

func visitPath(visitType string) (string, error) {
	switch visitType {
	case models.VisitTypeMedical:
		return "/api/visits/medical", nil
	case models.VisitTypeDental:
		return "/api/visits/dental", nil
	default:
		return "", fmt.Errorf("unknown visit type %q", visitType)
	}
}

// VisitsList returns the unified list of all visits, tagged by visitType.
func (s *Service) VisitsList(ctx context.Context) ([]models.VisitSummary, error) {
	res := s.cache.Fetch(ctx, keyVisitsList, s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out []models.VisitSummary
		if err := s.api.JSON(ctx, http.MethodGet, "/api/visits-list", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.([]models.VisitSummary)
	return data, res.Err
}

// VisitsForPatient returns the merged visit history of one patient.
func (s *Service) VisitsForPatient(ctx context.Context, patientID int) ([]models.VisitSummary, error) {
	res := s.cache.Fetch(ctx, keyPatientVisits(patientID), s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out []models.VisitSummary
		if err := s.api.JSON(ctx, http.MethodGet, fmt.Sprintf("/api/visits-list/patient/%d", patientID), nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.([]models.VisitSummary)
	return data, res.Err
}

func (s *Service) MedicalVisit(ctx context.Context, id int) (models.MedicalVisit, error) {
	var out models.MedicalVisit
	err := s.api.JSON(ctx, http.MethodGet, fmt.Sprintf("/api/visits/medical/%d", id), nil, &out)
	return out, err
}

func (s *Service) DentalVisit(ctx context.Context, id int) (models.DentalVisit, error) {
	var out models.DentalVisit
	err := s.api.JSON(ctx, http.MethodGet, fmt.Sprintf("/api/visits/dental/%d", id), nil, &out)
	return out, err
}

// CreateMedicalVisit posts a medical visit as multipart/form-data. The
// endpoints take multipart even when no image is attached.
func (s *Service) CreateMedicalVisit(ctx context.Context, v models.MedicalVisit, chartImage *Attachment) (models.MedicalVisit, error) {
	form := medicalVisitForm(v, chartImage)
	var created models.MedicalVisit
	if err := s.api.Multipart(ctx, http.MethodPost, "/api/visits/medical", form, &created); err != nil {
		return models.MedicalVisit{}, err
	}
	s.invalidate(MutationVisitWrite, created.ID, v.PatientID)
	return created, nil
}

func (s *Service) UpdateMedicalVisit(ctx context.Context, id int, v models.MedicalVisit, chartImage *Attachment) (models.MedicalVisit, error) {
	form := medicalVisitForm(v, chartImage)
	var updated models.MedicalVisit
	if err := s.api.Multipart(ctx, http.MethodPut, fmt.Sprintf("/api/visits/medical/%d", id), form, &updated); err != nil {
		return models.MedicalVisit{}, err
	}
	s.invalidate(MutationVisitWrite, id, v.PatientID)
	return updated, nil
}

func (s *Service) CreateDentalVisit(ctx context.Context, v models.DentalVisit, chartImage, diagnosticImage *Attachment) (models.DentalVisit, error) {
	form, err := dentalVisitForm(v, chartImage, diagnosticImage)
	if err != nil {
		return models.DentalVisit{}, err
	}
	var created models.DentalVisit
	if err := s.api.Multipart(ctx, http.MethodPost, "/api/visits/dental", form, &created); err != nil {
		return models.DentalVisit{}, err
	}
	s.invalidate(MutationVisitWrite, created.ID, v.PatientID)
	return created, nil
}

func (s *Service) UpdateDentalVisit(ctx context.Context, id int, v models.DentalVisit, chartImage, diagnosticImage *Attachment) (models.DentalVisit, error) {
	form, err := dentalVisitForm(v, chartImage, diagnosticImage)
	if err != nil {
		return models.DentalVisit{}, err
	}
	var updated models.DentalVisit
	if err := s.api.Multipart(ctx, http.MethodPut, fmt.Sprintf("/api/visits/dental/%d", id), form, &updated); err != nil {
		return models.DentalVisit{}, err
	}
	s.invalidate(MutationVisitWrite, id, v.PatientID)
	return updated, nil
}

// DeleteVisit removes a visit from the collection named by visitType.
func (s *Service) DeleteVisit(ctx context.Context, visitType string, id int) error {
	base, err := visitPath(visitType)
	if err != nil {
		return err
	}
	if err := s.api.JSON(ctx, http.MethodDelete, fmt.Sprintf("%s/%d", base, id), nil, nil); err != nil {
		return err
	}
	s.invalidate(MutationVisitWrite, id, 0)
	return nil
}

func (s *Service) ImportVisits(ctx context.Context, filename string, content []byte) error {
	form := client.NewForm().File("file", filename, content)
	if err := s.api.Multipart(ctx, http.MethodPost, "/api/visits/import", form, nil); err != nil {
		return err
	}
	s.invalidate(MutationVisitWrite, 0, 0)
	return nil
}

func (s *Service) ExportVisits(ctx context.Context, dir string) error {
	return s.api.Download(ctx, "/api/visits/export", dir, "visits.csv")
}

func envelopeFields(form *client.Form, v models.VisitEnvelope) {
	form.Field("patientId", strconv.Itoa(v.PatientID)).
		Field("visitDate", v.VisitDate).
		Field("chiefComplaint", v.ChiefComplaint).
		Field("temperature", v.Temperature).
		Field("bloodPressure", v.BloodPressure).
		Field("pulseRate", v.PulseRate).
		Field("respiratoryRate", v.RespiratoryRate).
		Field("spo2", v.SpO2).
		Field("history", v.History).
		Field("physicalExamFindings", v.ExamFindings).
		Field("diagnosis", v.Diagnosis).
		Field("plan", v.Plan).
		Field("treatment", v.Treatment)
}

func medicalVisitForm(v models.MedicalVisit, chartImage *Attachment) *client.Form {
	form := client.NewForm()
	envelopeFields(form, v.VisitEnvelope)
	form.Field("symptoms", v.Symptoms).
		Field("hama", v.HAMA).
		Field("referralForm", v.ReferralForm).
		Field("nurseNotes", v.NurseNotes)
	if chartImage != nil {
		form.File("medicalChartImage", chartImage.Filename, chartImage.Content)
	}
	return form
}

func dentalVisitForm(v models.DentalVisit, chartImage, diagnosticImage *Attachment) (*client.Form, error) {
	form := client.NewForm()
	envelopeFields(form, v.VisitEnvelope)
	form.Field("diagnosticTestResult", v.DiagnosticTestResult)

	// The tooth-status map travels as one JSON-encoded form field.
	if v.ToothStatus != nil {
		encoded, err := json.Marshal(v.ToothStatus)
		if err != nil {
			return nil, err
		}
		form.Field("toothStatus", string(encoded))
	}

	if chartImage != nil {
		form.File("dentalChartImage", chartImage.Filename, chartImage.Content)
	}
	if diagnosticImage != nil {
		form.File("diagnosticTestImage", diagnosticImage.Filename, diagnosticImage.Content)
	}
	return form, nil
}
