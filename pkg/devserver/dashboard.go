package devserver

import (
	"net/http"
	"sort"
	"strconv"
	"strings"
	"time"

	"github.com/campusclinic/console/pkg/common/models"
)

// Dashboard aggregates are computed from whatever visits are in memory.
// Visit dates are treated as "YYYY-MM-DD..." strings, matching what the
// forms submit.

func (s *Server) handleKPIs(w http.ResponseWriter, r *http.Request) {
	today := time.Now().Format("2006-01-02")
	month := today[:7]

	s.mu.Lock()
	var kpis models.KPIs
	for _, summary := range s.visitSummariesLocked() {
		if strings.HasPrefix(summary.VisitDate, today) {
			kpis.TodaysVisits++
		}
		if strings.HasPrefix(summary.VisitDate, month) {
			kpis.VisitsThisMonth++
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, kpis)
}

func (s *Server) handleTopDiagnoses(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	counts := make(map[string]int)
	for _, summary := range s.visitSummariesLocked() {
		if summary.Diagnosis != "" {
			counts[summary.Diagnosis]++
		}
	}
	s.mu.Unlock()

	stats := make([]models.DiagnosisStat, 0, len(counts))
	for diagnosis, count := range counts {
		stats = append(stats, models.DiagnosisStat{Diagnosis: diagnosis, Count: count})
	}
	sort.Slice(stats, func(i, j int) bool {
		if stats[i].Count != stats[j].Count {
			return stats[i].Count > stats[j].Count
		}
		return stats[i].Diagnosis < stats[j].Diagnosis
	})
	if len(stats) > 10 {
		stats = stats[:10]
	}

	respondJSON(w, http.StatusOK, stats)
}

func (s *Server) handleVisitsTrend(w http.ResponseWriter, r *http.Request) {
	s.mu.Lock()
	counts := make(map[string]int)
	for _, summary := range s.visitSummariesLocked() {
		date := summary.VisitDate
		if len(date) > 10 {
			date = date[:10]
		}
		if date != "" {
			counts[date]++
		}
	}
	s.mu.Unlock()

	trend := make([]models.VisitTrendPoint, 0, len(counts))
	for date, count := range counts {
		trend = append(trend, models.VisitTrendPoint{Date: date, Count: count})
	}
	sort.Slice(trend, func(i, j int) bool { return trend[i].Date < trend[j].Date })

	respondJSON(w, http.StatusOK, trend)
}

// handleAuditLogs returns the audit trail filtered to one entity + record.
func (s *Server) handleAuditLogs(w http.ResponseWriter, r *http.Request) {
	entityName := r.URL.Query().Get("entityName")
	recordID, _ := strconv.Atoi(r.URL.Query().Get("recordId"))

	s.mu.Lock()
	matches := make([]models.AuditLogEntry, 0)
	for _, entry := range s.audit {
		if entry.EntityName == entityName && entry.RecordID == recordID {
			matches = append(matches, entry)
		}
	}
	s.mu.Unlock()

	respondJSON(w, http.StatusOK, matches)
}
