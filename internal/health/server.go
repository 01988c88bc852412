// Package health provides health check and monitoring for the complaint register.
//
// This package implements:
//   - HTTP health check endpoint
//   - Last submission tracking
//   - Uptime monitoring
package health

import (
	"encoding/json"
	"net/http"
	"sync"
	"time"
)

// Status represents the application health status.
//
// This is returned by the /health endpoint for monitoring tools.
type Status struct {
	Status           string `json:"status"`
	Uptime           string `json:"uptime"`
	StorePath        string `json:"store_path"`
	LastSubmitTime   string `json:"last_submit_time"`
	LastSubmitStatus string `json:"last_submit_status"`
	Submissions      int    `json:"submissions"`
}

// Monitor tracks application health metrics.
//
// All fields are protected by the RWMutex; the HTTP server reads them while
// request handlers record submissions.
type Monitor struct {
	startTime        time.Time
	storePath        string
	lastSubmitTime   time.Time
	lastSubmitStatus string
	submissions      int
	unhealthy        bool
	mu               sync.RWMutex
	now              func() time.Time
}

// NewMonitor creates a new health monitor for the workbook at storePath.
func NewMonitor(storePath string) *Monitor {
	return &Monitor{
		startTime:        time.Now(),
		storePath:        storePath,
		lastSubmitStatus: "not started",
		now:              time.Now,
	}
}

// RecordSubmit updates the status after a submission attempt.
//
// Validation failures are not recorded here. storeErr marks the monitor
// unhealthy until the next successful save.
func (m *Monitor) RecordSubmit(status string, storeErr bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.lastSubmitTime = m.now()
	m.lastSubmitStatus = status
	m.unhealthy = storeErr
	if !storeErr {
		m.submissions++
	}
}

// GetStatus returns the current health status.
func (m *Monitor) GetStatus() Status {
	m.mu.RLock()
	defer m.mu.RUnlock()

	st := Status{
		Status:           "healthy",
		Uptime:           m.now().Sub(m.startTime).Round(time.Second).String(),
		StorePath:        m.storePath,
		LastSubmitStatus: m.lastSubmitStatus,
		Submissions:      m.submissions,
	}
	if m.unhealthy {
		st.Status = "unhealthy"
	}
	if !m.lastSubmitTime.IsZero() {
		st.LastSubmitTime = m.lastSubmitTime.Format("2006-01-02 15:04:05")
	}
	return st
}

// Handler serves the status as JSON. Unhealthy monitors answer 503 so load
// balancers and uptime checks notice a broken workbook.
//
// Example response:
//
//	{
//	  "status": "healthy",
//	  "uptime": "1h2m3s",
//	  "store_path": "cadastro.xlsx",
//	  "last_submit_time": "2026-10-15 10:30:00",
//	  "last_submit_status": "saved #12",
//	  "submissions": 12
//	}
func (m *Monitor) Handler() http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		status := m.GetStatus()

		code := http.StatusOK
		if status.Status != "healthy" {
			code = http.StatusServiceUnavailable
		}
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(code)
		json.NewEncoder(w).Encode(status)
	})
}
