// Package devserver is an in-memory stand-in for the clinic backend,
// implementing the REST contract the client consumes. It exists for local
// development and hermetic integration tests; nothing survives a restart.
package devserver

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"

	"github.com/gorilla/mux"

	"github.com/campusclinic/console/pkg/common/models"
)

type Server struct {
	mu     sync.Mutex
	signer *TokenSigner

	users     map[int]models.UserAccount
	passwords map[string]string
	patients  map[int]models.Patient
	medical   map[int]models.MedicalVisit
	dental    map[int]models.DentalVisit
	audit     []models.AuditLogEntry

	nextUserID    int
	nextPatientID int
	nextVisitID   int
	nextAuditID   int
}

func New(secret string, ttl time.Duration) *Server {
	s := &Server{
		signer:        NewTokenSigner(secret, ttl),
		users:         make(map[int]models.UserAccount),
		passwords:     make(map[string]string),
		patients:      make(map[int]models.Patient),
		medical:       make(map[int]models.MedicalVisit),
		dental:        make(map[int]models.DentalVisit),
		nextUserID:    1,
		nextPatientID: 1,
		nextVisitID:   1,
		nextAuditID:   1,
	}
	s.seed()
	return s
}

// seed creates one account per role so every surface is reachable out of
// the box.
func (s *Server) seed() {
	for _, u := range []struct {
		username, password, role string
	}{
		{"admin", "admin123", models.RoleAdmin},
		{"dr.reyes", "doctor123", models.RoleMD},
		{"dr.santos", "dentist123", models.RoleDMD},
		{"nurse.cruz", "nurse123", models.RoleNurse},
	} {
		id := s.nextUserID
		s.nextUserID++
		s.users[id] = models.UserAccount{ID: id, Username: u.username, Role: u.role}
		s.passwords[u.username] = u.password
	}
}

// Handler returns the routed HTTP surface with logging, recovery, and bearer
// auth applied. Only /api/auth/login is reachable unauthenticated.
func (s *Server) Handler() http.Handler {
	router := mux.NewRouter()
	router.Use(logging)
	router.Use(recovery)

	router.HandleFunc("/api/auth/login", s.handleLogin).Methods(http.MethodPost)

	api := router.PathPrefix("/api").Subrouter()
	api.Use(s.authenticate)

	api.HandleFunc("/dashboard/kpis", s.handleKPIs).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/top-diagnoses", s.handleTopDiagnoses).Methods(http.MethodGet)
	api.HandleFunc("/dashboard/visits-trend", s.handleVisitsTrend).Methods(http.MethodGet)

	api.HandleFunc("/patients-list", s.handlePatientsList).Methods(http.MethodGet)
	api.HandleFunc("/patients/import", s.handlePatientsImport).Methods(http.MethodPost)
	api.HandleFunc("/patients/export", s.handlePatientsExport).Methods(http.MethodGet)
	api.HandleFunc("/patients/{id:[0-9]+}", s.handlePatientGet).Methods(http.MethodGet)
	api.HandleFunc("/add-patient", s.handlePatientCreate).Methods(http.MethodPost)
	api.HandleFunc("/update-patient/{id:[0-9]+}", s.handlePatientUpdate).Methods(http.MethodPut)
	api.HandleFunc("/delete-patient/{id:[0-9]+}", s.handlePatientDelete).Methods(http.MethodDelete)

	api.HandleFunc("/visits-list", s.handleVisitsList).Methods(http.MethodGet)
	api.HandleFunc("/visits-list/patient/{id:[0-9]+}", s.handlePatientVisits).Methods(http.MethodGet)
	api.HandleFunc("/visits/import", s.handleVisitsImport).Methods(http.MethodPost)
	api.HandleFunc("/visits/export", s.handleVisitsExport).Methods(http.MethodGet)
	api.HandleFunc("/visits/medical", s.handleMedicalVisitCreate).Methods(http.MethodPost)
	api.HandleFunc("/visits/medical/{id:[0-9]+}", s.handleMedicalVisitGet).Methods(http.MethodGet)
	api.HandleFunc("/visits/medical/{id:[0-9]+}", s.handleMedicalVisitUpdate).Methods(http.MethodPut)
	api.HandleFunc("/visits/medical/{id:[0-9]+}", s.handleVisitDelete(models.VisitTypeMedical)).Methods(http.MethodDelete)
	api.HandleFunc("/visits/dental", s.handleDentalVisitCreate).Methods(http.MethodPost)
	api.HandleFunc("/visits/dental/{id:[0-9]+}", s.handleDentalVisitGet).Methods(http.MethodGet)
	api.HandleFunc("/visits/dental/{id:[0-9]+}", s.handleDentalVisitUpdate).Methods(http.MethodPut)
	api.HandleFunc("/visits/dental/{id:[0-9]+}", s.handleVisitDelete(models.VisitTypeDental)).Methods(http.MethodDelete)

	api.HandleFunc("/admin/users/list", requireAdmin(s.handleUsersList)).Methods(http.MethodGet)
	api.HandleFunc("/admin/users/add", requireAdmin(s.handleUserCreate)).Methods(http.MethodPost)
	api.HandleFunc("/admin/users/update/{id:[0-9]+}", requireAdmin(s.handleUserUpdate)).Methods(http.MethodPut)
	api.HandleFunc("/admin/users/delete/{id:[0-9]+}", requireAdmin(s.handleUserDelete)).Methods(http.MethodDelete)
	api.HandleFunc("/admin/users/{id:[0-9]+}", requireAdmin(s.handleUserGet)).Methods(http.MethodGet)

	api.HandleFunc("/audit-logs", s.handleAuditLogs).Methods(http.MethodGet)

	return router
}

// recordAudit appends an audit entry for a CRUD action. Callers hold s.mu.
func (s *Server) recordAudit(action, username, entityName string, recordID int, details string) {
	entry := models.AuditLogEntry{
		ID:         s.nextAuditID,
		Action:     action,
		Username:   username,
		Timestamp:  time.Now().UTC().Format(time.RFC3339),
		EntityName: entityName,
		RecordID:   recordID,
		Details:    details,
	}
	s.nextAuditID++
	s.audit = append(s.audit, entry)
}

func respondJSON(w http.ResponseWriter, status int, payload interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(payload)
}
