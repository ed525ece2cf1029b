package devserver

import (
	"encoding/csv"
	"encoding/json"
	"fmt"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/campusclinic/console/pkg/common/models"
)

func (s *Server) visitSummariesLocked() []models.VisitSummary {
	list := make([]models.VisitSummary, 0, len(s.medical)+len(s.dental))
	for _, v := range s.medical {
		list = append(list, s.summaryLocked(v.VisitEnvelope, models.VisitTypeMedical))
	}
	for _, v := range s.dental {
		list = append(list, s.summaryLocked(v.VisitEnvelope, models.VisitTypeDental))
	}
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	return list
}

func (s *Server) summaryLocked(env models.VisitEnvelope, visitType string) models.VisitSummary {
	summary := models.VisitSummary{
		ID:             env.ID,
		VisitDate:      env.VisitDate,
		ChiefComplaint: env.ChiefComplaint,
		VisitType:      visitType,
		Diagnosis:      env.Diagnosis,
	}
	if p, ok := s.patients[env.PatientID]; ok {
		summary.Patient = &models.PatientRef{FirstName: p.FirstName, LastName: p.LastName}
	}
	return summary
}

func (s *Server) handleVisitsList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := s.visitSummariesLocked()
	s.mu.Unlock()
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handlePatientVisits(w http.ResponseWriter, r *http.Request) {
	patientID, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	var list []models.VisitSummary
	for _, v := range s.medical {
		if v.PatientID == patientID {
			list = append(list, s.summaryLocked(v.VisitEnvelope, models.VisitTypeMedical))
		}
	}
	for _, v := range s.dental {
		if v.PatientID == patientID {
			list = append(list, s.summaryLocked(v.VisitEnvelope, models.VisitTypeDental))
		}
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	if list == nil {
		list = []models.VisitSummary{}
	}
	respondJSON(w, http.StatusOK, list)
}

// parseVisitEnvelope reads the shared multipart fields. The visit endpoints
// take multipart bodies even when nothing is attached.
func parseVisitEnvelope(r *http.Request) (models.VisitEnvelope, error) {
	if err := r.ParseMultipartForm(20 << 20); err != nil {
		return models.VisitEnvelope{}, fmt.Errorf("invalid multipart body")
	}

	patientID, err := strconv.Atoi(r.FormValue("patientId"))
	if err != nil || patientID <= 0 {
		return models.VisitEnvelope{}, fmt.Errorf("patientId is required")
	}
	if r.FormValue("visitDate") == "" {
		return models.VisitEnvelope{}, fmt.Errorf("visitDate is required")
	}

	return models.VisitEnvelope{
		PatientID:       patientID,
		VisitDate:       r.FormValue("visitDate"),
		ChiefComplaint:  r.FormValue("chiefComplaint"),
		Temperature:     r.FormValue("temperature"),
		BloodPressure:   r.FormValue("bloodPressure"),
		PulseRate:       r.FormValue("pulseRate"),
		RespiratoryRate: r.FormValue("respiratoryRate"),
		SpO2:            r.FormValue("spo2"),
		History:         r.FormValue("history"),
		ExamFindings:    r.FormValue("physicalExamFindings"),
		Diagnosis:       r.FormValue("diagnosis"),
		Plan:            r.FormValue("plan"),
		Treatment:       r.FormValue("treatment"),
	}, nil
}

// attachmentPath records an uploaded file the way the real backend would: as
// a server-side path. Content is discarded; this server keeps no files.
func attachmentPath(r *http.Request, field string) string {
	file, header, err := r.FormFile(field)
	if err != nil {
		return ""
	}
	file.Close()
	return "/uploads/" + header.Filename
}

func (s *Server) handleMedicalVisitCreate(w http.ResponseWriter, r *http.Request) {
	env, err := parseVisitEnvelope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	visit := models.MedicalVisit{
		VisitEnvelope:     env,
		Symptoms:          r.FormValue("symptoms"),
		HAMA:              r.FormValue("hama"),
		ReferralForm:      r.FormValue("referralForm"),
		NurseNotes:        r.FormValue("nurseNotes"),
		MedicalChartImage: attachmentPath(r, "medicalChartImage"),
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[env.PatientID]; !ok {
		http.Error(w, "patient not found", http.StatusBadRequest)
		return
	}

	visit.ID = s.nextVisitID
	s.nextVisitID++
	s.medical[visit.ID] = visit
	s.recordAudit(models.AuditCreate, actingUser(r), "MedicalVisit", visit.ID, "created medical visit")

	respondJSON(w, http.StatusCreated, visit)
}

func (s *Server) handleMedicalVisitGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	visit, ok := s.medical[id]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "visit not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, visit)
}

func (s *Server) handleMedicalVisitUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	env, err := parseVisitEnvelope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.medical[id]
	if !ok {
		http.Error(w, "visit not found", http.StatusNotFound)
		return
	}

	env.ID = id
	visit := models.MedicalVisit{
		VisitEnvelope:     env,
		Symptoms:          r.FormValue("symptoms"),
		HAMA:              r.FormValue("hama"),
		ReferralForm:      r.FormValue("referralForm"),
		NurseNotes:        r.FormValue("nurseNotes"),
		MedicalChartImage: existing.MedicalChartImage,
	}
	if path := attachmentPath(r, "medicalChartImage"); path != "" {
		visit.MedicalChartImage = path
	}

	s.medical[id] = visit
	s.recordAudit(models.AuditUpdate, actingUser(r), "MedicalVisit", id, "updated medical visit")

	respondJSON(w, http.StatusOK, visit)
}

func (s *Server) handleDentalVisitCreate(w http.ResponseWriter, r *http.Request) {
	env, err := parseVisitEnvelope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	visit := models.DentalVisit{
		VisitEnvelope:        env,
		DiagnosticTestResult: r.FormValue("diagnosticTestResult"),
		DentalChartImage:     attachmentPath(r, "dentalChartImage"),
		DiagnosticTestImage:  attachmentPath(r, "diagnosticTestImage"),
	}
	if raw := r.FormValue("toothStatus"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &visit.ToothStatus); err != nil {
			http.Error(w, "malformed toothStatus", http.StatusBadRequest)
			return
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[env.PatientID]; !ok {
		http.Error(w, "patient not found", http.StatusBadRequest)
		return
	}

	visit.ID = s.nextVisitID
	s.nextVisitID++
	s.dental[visit.ID] = visit
	s.recordAudit(models.AuditCreate, actingUser(r), "DentalVisit", visit.ID, "created dental visit")

	respondJSON(w, http.StatusCreated, visit)
}

func (s *Server) handleDentalVisitGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	visit, ok := s.dental[id]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "visit not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, visit)
}

func (s *Server) handleDentalVisitUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	env, err := parseVisitEnvelope(r)
	if err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.dental[id]
	if !ok {
		http.Error(w, "visit not found", http.StatusNotFound)
		return
	}

	env.ID = id
	visit := models.DentalVisit{
		VisitEnvelope:        env,
		DiagnosticTestResult: r.FormValue("diagnosticTestResult"),
		ToothStatus:          existing.ToothStatus,
		DentalChartImage:     existing.DentalChartImage,
		DiagnosticTestImage:  existing.DiagnosticTestImage,
	}
	if raw := r.FormValue("toothStatus"); raw != "" {
		if err := json.Unmarshal([]byte(raw), &visit.ToothStatus); err != nil {
			http.Error(w, "malformed toothStatus", http.StatusBadRequest)
			return
		}
	}
	if path := attachmentPath(r, "dentalChartImage"); path != "" {
		visit.DentalChartImage = path
	}
	if path := attachmentPath(r, "diagnosticTestImage"); path != "" {
		visit.DiagnosticTestImage = path
	}

	s.dental[id] = visit
	s.recordAudit(models.AuditUpdate, actingUser(r), "DentalVisit", id, "updated dental visit")

	respondJSON(w, http.StatusOK, visit)
}

func (s *Server) handleVisitDelete(visitType string) http.HandlerFunc {
	return func(w http.ResponseWriter, r *http.Request) {
		id, _ := strconv.Atoi(mux.Vars(r)["id"])

		s.mu.Lock()
		defer s.mu.Unlock()

		switch visitType {
		case models.VisitTypeMedical:
			if _, ok := s.medical[id]; !ok {
				http.Error(w, "visit not found", http.StatusNotFound)
				return
			}
			delete(s.medical, id)
			s.recordAudit(models.AuditDelete, actingUser(r), "MedicalVisit", id, "deleted medical visit")
		case models.VisitTypeDental:
			if _, ok := s.dental[id]; !ok {
				http.Error(w, "visit not found", http.StatusNotFound)
				return
			}
			delete(s.dental, id)
			s.recordAudit(models.AuditDelete, actingUser(r), "DentalVisit", id, "deleted dental visit")
		}

		w.WriteHeader(http.StatusNoContent)
	}
}

var visitCSVHeader = []string{"visitType", "patientId", "visitDate", "chiefComplaint", "diagnosis", "treatment"}

func (s *Server) handleVisitsImport(w http.ResponseWriter, r *http.Request) {
	if err := r.ParseMultipartForm(10 << 20); err != nil {
		http.Error(w, "invalid multipart body", http.StatusBadRequest)
		return
	}
	file, _, err := r.FormFile("file")
	if err != nil {
		http.Error(w, "missing file field", http.StatusBadRequest)
		return
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1
	rows, err := reader.ReadAll()
	if err != nil {
		http.Error(w, fmt.Sprintf("malformed CSV: %v", err), http.StatusBadRequest)
		return
	}
	if len(rows) < 2 {
		http.Error(w, "empty import", http.StatusBadRequest)
		return
	}

	type parsedRow struct {
		visitType string
		env       models.VisitEnvelope
	}
	var imported []parsedRow
	for i, row := range rows[1:] {
		rowNum := i + 2
		get := func(col int) string {
			if col < len(row) {
				return row[col]
			}
			return ""
		}
		patientID, err := strconv.Atoi(get(1))
		if err != nil {
			http.Error(w, fmt.Sprintf("row %d: bad patient id", rowNum), http.StatusBadRequest)
			return
		}
		visitType := get(0)
		if visitType != models.VisitTypeMedical && visitType != models.VisitTypeDental {
			http.Error(w, fmt.Sprintf("row %d: unknown visit type %q", rowNum, visitType), http.StatusBadRequest)
			return
		}
		imported = append(imported, parsedRow{
			visitType: visitType,
			env: models.VisitEnvelope{
				PatientID:      patientID,
				VisitDate:      get(2),
				ChiefComplaint: get(3),
				Diagnosis:      get(4),
				Treatment:      get(5),
			},
		})
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, row := range imported {
		row.env.ID = s.nextVisitID
		s.nextVisitID++
		if row.visitType == models.VisitTypeMedical {
			s.medical[row.env.ID] = models.MedicalVisit{VisitEnvelope: row.env}
			s.recordAudit(models.AuditCreate, actingUser(r), "MedicalVisit", row.env.ID, "imported medical visit")
		} else {
			s.dental[row.env.ID] = models.DentalVisit{VisitEnvelope: row.env}
			s.recordAudit(models.AuditCreate, actingUser(r), "DentalVisit", row.env.ID, "imported dental visit")
		}
	}

	respondJSON(w, http.StatusOK, map[string]int{"imported": len(imported)})
}

func (s *Server) handleVisitsExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := s.visitSummariesLocked()
	type exportRow struct {
		visitType string
		env       models.VisitEnvelope
	}
	rows := make([]exportRow, 0, len(list))
	for _, summary := range list {
		if summary.VisitType == models.VisitTypeMedical {
			rows = append(rows, exportRow{summary.VisitType, s.medical[summary.ID].VisitEnvelope})
		} else {
			rows = append(rows, exportRow{summary.VisitType, s.dental[summary.ID].VisitEnvelope})
		}
	}
	s.mu.Unlock()

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="visits.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write(visitCSVHeader)
	for _, row := range rows {
		_ = writer.Write([]string{
			row.visitType,
			strconv.Itoa(row.env.PatientID),
			row.env.VisitDate,
			row.env.ChiefComplaint,
			row.env.Diagnosis,
			row.env.Treatment,
		})
	}
	writer.Flush()
}
