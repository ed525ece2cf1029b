package devserver

import (
	"encoding/json"
	"net/http"
	"sort"
	"strconv"

	"github.com/gorilla/mux"

	"github.com/campusclinic/console/pkg/common/logger"
	"github.com/campusclinic/console/pkg/common/models"
)

// handleLogin checks the credentials and answers with the raw token string
// in the response body, not JSON-wrapped, matching the production contract.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req models.LoginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	password, ok := s.passwords[req.Username]
	var account models.UserAccount
	for _, u := range s.users {
		if u.Username == req.Username {
			account = u
			break
		}
	}
	s.mu.Unlock()

	if !ok || password != req.Password || account.Username == "" {
		logger.Log.WithField("username", req.Username).Warn("authentication failed")
		http.Error(w, "invalid credentials", http.StatusUnauthorized)
		return
	}

	token, err := s.signer.Issue(account.Username, account.Role)
	if err != nil {
		logger.Log.WithError(err).Error("failed issuing token")
		http.Error(w, "internal error", http.StatusInternalServerError)
		return
	}

	w.Header().Set("Content-Type", "text/plain")
	w.WriteHeader(http.StatusOK)
	_, _ = w.Write([]byte(token))
}

func sanitizeUser(u models.UserAccount) models.UserAccount {
	u.Password = ""
	return u
}

func (s *Server) handleUsersList(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	list := make([]models.UserAccount, 0, len(s.users))
	for _, u := range s.users {
		list = append(list, sanitizeUser(u))
	}
	s.mu.Unlock()

	sort.Slice(list, func(i, j int) bool { return list[i].ID < list[j].ID })
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleUserGet(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	u, ok := s.users[id]
	s.mu.Unlock()

	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}
	respondJSON(w, http.StatusOK, sanitizeUser(u))
}

func (s *Server) handleUserCreate(w http.ResponseWriter, r *http.Request) {
	var req models.UserAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}
	if req.Username == "" || req.Password == "" || req.Role == "" {
		http.Error(w, "username, password and role are required", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.passwords[req.Username]; exists {
		http.Error(w, "username already taken", http.StatusConflict)
		return
	}

	req.ID = s.nextUserID
	s.nextUserID++
	s.passwords[req.Username] = req.Password
	req.Password = ""
	s.users[req.ID] = req
	s.recordAudit(models.AuditCreate, actingUser(r), "User", req.ID, "created user "+req.Username)

	respondJSON(w, http.StatusCreated, req)
}

func (s *Server) handleUserUpdate(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	var req models.UserAccount
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		http.Error(w, "invalid payload", http.StatusBadRequest)
		return
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[id]
	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	if req.Username != "" && req.Username != existing.Username {
		s.passwords[req.Username] = s.passwords[existing.Username]
		delete(s.passwords, existing.Username)
		existing.Username = req.Username
	}
	if req.Role != "" {
		existing.Role = req.Role
	}
	// Empty password means "no change".
	if req.Password != "" {
		s.passwords[existing.Username] = req.Password
	}

	s.users[id] = existing
	s.recordAudit(models.AuditUpdate, actingUser(r), "User", id, "updated user "+existing.Username)

	respondJSON(w, http.StatusOK, sanitizeUser(existing))
}

func (s *Server) handleUserDelete(w http.ResponseWriter, r *http.Request) {
	id, _ := strconv.Atoi(mux.Vars(r)["id"])

	s.mu.Lock()
	defer s.mu.Unlock()

	existing, ok := s.users[id]
	if !ok {
		http.Error(w, "user not found", http.StatusNotFound)
		return
	}

	delete(s.users, id)
	delete(s.passwords, existing.Username)
	s.recordAudit(models.AuditDelete, actingUser(r), "User", id, "deleted user "+existing.Username)

	w.WriteHeader(http.StatusNoContent)
}
