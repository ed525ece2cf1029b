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

func (s *Server) handlePatientsList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]models.PatientSummary, 0, len(s.patients))
	for _, p := range s.patients {
		list = append(list, models.PatientSummary{
			ID:            p.ID,
			StudentNumber: p.StudentNumber,
			FirstName:     p.FirstName,
			LastName:      p.LastName,
			MiddleInitial: p.MiddleInitial,
			Gender:        p.Gender,
			Status:        p.Status,
			Category:      p.Category,
		})
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handlePatientGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	p, ok := s.patients[id]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, p)
}

func (s *Server) handlePatientCreate(w http.ResponseWriter, r *http.Request) {
	var req models.Patient
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.FirstName == "" || req.LastName == "" {
		http.Error(w, "first and last name are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	req.ID = s.nextPatientID
	s.nextPatientID++
	s.patients[req.ID] = req
	s.recordAudit(models.AuditCreate, actingUser(r), "Patient", req.ID, "created patient "+req.FirstName+" "+req.LastName)

	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handlePatientUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.Patient
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.patients[id]; !ok {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}

	req.ID = id
	s.patients[id] = req
	s.recordAudit(models.AuditUpdate, actingUser(r), "Patient", id, "updated patient "+req.FirstName+" "+req.LastName)

	respondJSON(w, http.StatusOK, req)
}

func (s *Server) handlePatientDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()

	p, ok := s.patients[id]
	if !ok {
		http.Error(w, "patient not found", http.StatusNotFound)
		return
	}

	delete(s.patients, id)
	s.recordAudit(models.AuditDelete, actingUser(r), "Patient", id, "deleted patient "+p.FirstName+" "+p.LastName)

	w.WriteHeader(http.StatusNoContent)
}

// patientCSVHeader is the column order for both import and export.
var patientCSVHeader = []string{"studentNumber", "lastName", "firstName", "middleInitial", "status", "gender", "birthDate", "category", "contactNumber"}

func (s *Server) handlePatientsImport(w http.ResponseWriter, r *http.Request) {
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

	// Validate everything before touching state so a bad row imports nothing.
	var imported []models.Patient
	for i, row := range rows[1:] {
		rowNum := i + 2 // 1-based, counting the header
		get := func(col int) string {
			if col < len(row) {
				return row[col]
			}
			return ""
		}
		p := models.Patient{
			StudentNumber: get(0),
			LastName:      get(1),
			FirstName:     get(2),
			MiddleInitial: get(3),
			Status:        get(4),
			Gender:        get(5),
			BirthDate:     get(6),
			Category:      get(7),
			ContactNumber: get(8),
		}
		if p.LastName == "" {
			http.Error(w, fmt.Sprintf("row %d: missing last name", rowNum), http.StatusBadRequest)
			return
		}
		if p.FirstName == "" {
			http.Error(w, fmt.Sprintf("row %d: missing first name", rowNum), http.StatusBadRequest)
			return
		}
		imported = append(imported, p)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	for _, p := range imported {
		p.ID = s.nextPatientID
		s.nextPatientID++
		s.patients[p.ID] = p
		s.recordAudit(models.AuditCreate, actingUser(r), "Patient", p.ID, "imported patient "+p.FirstName+" "+p.LastName)
	}

	respondJSON(w, http.StatusOK, map[string]int{"imported": len(imported)})
}

func (s *Server) handlePatientsExport(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]models.Patient, 0, len(s.patients))
	for _, p := range s.patients {
		list = append(list, p)
	}
	s.mu.Unlock()
	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })

	w.Header().Set("Content-Type", "text/csv")
	w.Header().Set("Content-Disposition", `attachment; filename="patients.csv"`)

	writer := csv.NewWriter(w)
	_ = writer.Write(patientCSVHeader)
	for _, p := range list {
		_ = writer.Write([]string{p.StudentNumber, p.LastName, p.FirstName, p.MiddleInitial, p.Status, p.Gender, p.BirthDate, p.Category, p.ContactNumber})
	}
	writer.Flush()
}
