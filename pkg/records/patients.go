package records

import (
	"context"
	"fmt"
	"net/http"

	"github.com/campusclinic/console/pkg/client"
	"github.com/campusclinic/console/pkg/common/models"
)

// PatientsList returns the summary projection of every patient. The result
// is cached and revalidated on the list interval; when a refresh fails the
// previous data is returned alongside the error.
func (s *Service) PatientsList(ctx context.Context) ([]models.PatientSummary, error) {
	res := s.cache.Fetch(ctx, keyPatientsList, s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out []models.PatientSummary
		if err := s.api.JSON(ctx, http.MethodGet, "/api/patients-list", nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.([]models.PatientSummary)
	return data, res.Err
}

// Patient returns the full projection for one record.
func (s *Service) Patient(ctx context.Context, id int) (models.Patient, error) {
	res := s.cache.Fetch(ctx, keyPatient(id), s.listRefresh, func(ctx context.Context) (interface{}, error) {
		var out models.Patient
		if err := s.api.JSON(ctx, http.MethodGet, fmt.Sprintf("/api/patients/%d", id), nil, &out); err != nil {
			return nil, err
		}
		return out, nil
	})
	data, _ := res.Data.(models.Patient)
	return data, res.Err
}

func (s *Service) CreatePatient(ctx context.Context, p models.Patient) (models.Patient, error) {
	var created models.Patient
	if err := s.api.JSON(ctx, http.MethodPost, "/api/add-patient", p, &created); err != nil {
		return models.Patient{}, err
	}
	s.invalidate(MutationPatientWrite, created.ID, 0)
	return created, nil
}

func (s *Service) UpdatePatient(ctx context.Context, id int, p models.Patient) (models.Patient, error) {
	var updated models.Patient
	if err := s.api.JSON(ctx, http.MethodPut, fmt.Sprintf("/api/update-patient/%d", id), p, &updated); err != nil {
		return models.Patient{}, err
	}
	s.invalidate(MutationPatientWrite, id, 0)
	return updated, nil
}

func (s *Service) DeletePatient(ctx context.Context, id int) error {
	if err := s.api.JSON(ctx, http.MethodDelete, fmt.Sprintf("/api/delete-patient/%d", id), nil, nil); err != nil {
		return err
	}
	s.invalidate(MutationPatientWrite, id, 0)
	return nil
}

// ImportPatients uploads a CSV as multipart/form-data under the single
// "file" field. A backend rejection surfaces its body text verbatim.
func (s *Service) ImportPatients(ctx context.Context, filename string, content []byte) error {
	form := client.NewForm().File("file", filename, content)
	if err := s.api.Multipart(ctx, http.MethodPost, "/api/patients/import", form, nil); err != nil {
		return err
	}
	s.invalidate(MutationPatientWrite, 0, 0)
	return nil
}

// ExportPatients downloads the CSV export into dir as patients.csv.
func (s *Service) ExportPatients(ctx context.Context, dir string) error {
	return s.api.Download(ctx, "/api/patients/export", dir, "patients.csv")
}
