// Package server exposes the converter as a JSON web API with a worker pool
// for batch jobs.
package server

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
	"github.com/gorilla/websocket"

	"github.com/user/ppkconvert/internal/ppk"
	"github.com/user/ppkconvert/internal/storage"
	"github.com/user/ppkconvert/pkg/hostinfo"
)

type Server struct {
	router   *mux.Router
	store    *storage.ConversionStore
	jobStore *JobStore
	pool     *WorkerPool
	host     *hostinfo.Info
	upgrader websocket.Upgrader
	port     string
}

type JobStore struct {
	mu   sync.RWMutex
	jobs map[string]*ConversionJob
}

// KeyInput is one PPK container submitted for conversion. The passphrase is
// only needed for encrypted keys and is never echoed back.
type KeyInput struct {
	Name       string `json:"name,omitempty"`
	Key        string `json:"key"`
	Passphrase string `json:"passphrase,omitempty"`
}

type JobRequest struct {
	Keys []KeyInput `json:"keys"`
}

type KeyResult struct {
	Name        string `json:"name,omitempty"`
	KeyID       string `json:"key_id,omitempty"`
	Algorithm   string `json:"algorithm,omitempty"`
	Fingerprint string `json:"fingerprint,omitempty"`
	Error       string `json:"error,omitempty"`
}

type ConversionJob struct {
	ID          string              `json:"id"`
	Status      string              `json:"status"`
	Total       int                 `json:"total"`
	StartedAt   time.Time           `json:"started_at"`
	UpdatedAt   time.Time           `json:"updated_at"`
	CompletedAt *time.Time          `json:"completed_at,omitempty"`
	Results     []KeyResult         `json:"results,omitempty"`
	Error       string              `json:"error,omitempty"`
	Progress    chan ProgressUpdate `json:"-"`

	// request holds the submitted key material and passphrases; it stays
	// unexported so job listings never serialize it.
	request JobRequest
}

type ProgressUpdate struct {
	Current    int     `json:"current"`
	Total      int     `json:"total"`
	Percentage float64 `json:"percentage"`
	Name       string  `json:"name,omitempty"`
}

func NewServer(port string) *Server {
	return NewServerWithWorkers(port, 1)
}

func NewServerWithWorkers(port string, workers int) *Server {
	if workers < 1 {
		workers = 1
	}

	store := storage.NewConversionStore()
	jobStore := &JobStore{
		jobs: make(map[string]*ConversionJob),
	}

	s := &Server{
		router:   mux.NewRouter(),
		store:    store,
		jobStore: jobStore,
		host:     hostinfo.Collect(),
		upgrader: websocket.Upgrader{
			CheckOrigin: func(r *http.Request) bool {
				return true
			},
		},
		port: port,
	}

	s.pool = NewWorkerPool(workers, jobStore, store)
	s.setupRoutes()
	return s
}

func (s *Server) setupRoutes() {
	api := s.router.PathPrefix("/api/v1").Subrouter()
	api.HandleFunc("/status", s.handleStatus).Methods("GET")
	api.HandleFunc("/convert", s.handleConvert).Methods("POST")
	api.HandleFunc("/jobs", s.handleCreateJob).Methods("POST")
	api.HandleFunc("/jobs", s.handleListJobs).Methods("GET")
	api.HandleFunc("/jobs/{id}", s.handleGetJob).Methods("GET")
	api.HandleFunc("/jobs/{id}/terminate", s.handleTerminateJob).Methods("POST")
	api.HandleFunc("/jobs/{id}/progress", s.handleJobProgress).Methods("GET")
	api.HandleFunc("/keys", s.handleListKeys).Methods("GET")
	api.HandleFunc("/keys/{id}", s.handleGetKey).Methods("GET")
	api.HandleFunc("/keys/{id}/download", s.handleDownloadKey).Methods("GET")
	api.HandleFunc("/keys/{id}", s.handleDeleteKey).Methods("DELETE")
}

func (s *Server) Start() error {
	s.pool.Start()

	log.Printf("ppkconvert web API listening on http://localhost:%s", s.port)
	return http.ListenAndServe(":"+s.port, s.router)
}

func (s *Server) handleStatus(w http.ResponseWriter, r *http.Request) {
	s.jobStore.mu.RLock()
	jobs := len(s.jobStore.jobs)
	s.jobStore.mu.RUnlock()

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]any{
		"host": s.host,
		"keys": s.store.Count(),
		"jobs": jobs,
	})
}

// handleConvert converts a single key synchronously and stores the result.
func (s *Server) handleConvert(w http.ResponseWriter, r *http.Request) {
	var input KeyInput
	if err := json.NewDecoder(r.Body).Decode(&input); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}

	if !ppk.IsPuTTYKeyBytes([]byte(input.Key)) {
		http.Error(w, "not a PuTTY key file", http.StatusBadRequest)
		return
	}

	stored, err := convertInput(s.store, input, "")
	if err != nil {
		http.Error(w, err.Error(), http.StatusUnprocessableEntity)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(stored)
}

func (s *Server) handleCreateJob(w http.ResponseWriter, r *http.Request) {
	var request JobRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil {
		http.Error(w, err.Error(), http.StatusBadRequest)
		return
	}
	if len(request.Keys) == 0 {
		http.Error(w, "no keys submitted", http.StatusBadRequest)
		return
	}

	job := &ConversionJob{
		ID:        uuid.New().String(),
		Status:    "queued",
		Total:     len(request.Keys),
		StartedAt: time.Now(),
		UpdatedAt: time.Now(),
		Progress:  make(chan ProgressUpdate, len(request.Keys)+1),
		request:   request,
	}

	s.jobStore.mu.Lock()
	s.jobStore.jobs[job.ID] = job
	s.jobStore.mu.Unlock()

	if err := s.pool.Submit(job); err != nil {
		http.Error(w, "server is busy, try again later", http.StatusServiceUnavailable)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"job_id": job.ID,
		"status": "queued",
	})
}

func (s *Server) handleListJobs(w http.ResponseWriter, r *http.Request) {
	// Encode while holding the lock: workers mutate jobs concurrently.
	s.jobStore.mu.RLock()
	defer s.jobStore.mu.RUnlock()

	jobs := make([]*ConversionJob, 0, len(s.jobStore.jobs))
	for _, job := range s.jobStore.jobs {
		jobs = append(jobs, job)
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(jobs)
}

func (s *Server) handleGetJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.jobStore.mu.RLock()
	defer s.jobStore.mu.RUnlock()

	job, exists := s.jobStore.jobs[id]
	if !exists {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(job)
}

func (s *Server) handleTerminateJob(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.jobStore.mu.Lock()
	job, exists := s.jobStore.jobs[id]
	if !exists {
		s.jobStore.mu.Unlock()
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}
	if job.CompletedAt != nil {
		s.jobStore.mu.Unlock()
		http.Error(w, "job already finished", http.StatusConflict)
		return
	}

	job.Status = "terminated"
	job.UpdatedAt = time.Now()
	s.jobStore.mu.Unlock()

	s.pool.TerminateJob(id)

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(map[string]string{
		"job_id": id,
		"status": "terminated",
	})
}

func (s *Server) handleJobProgress(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	s.jobStore.mu.RLock()
	job, exists := s.jobStore.jobs[id]
	s.jobStore.mu.RUnlock()

	if !exists {
		http.Error(w, "job not found", http.StatusNotFound)
		return
	}

	conn, err := s.upgrader.Upgrade(w, r, nil)
	if err != nil {
		log.Printf("websocket upgrade failed: %v", err)
		return
	}
	defer conn.Close()

	ticker := time.NewTicker(100 * time.Millisecond)
	defer ticker.Stop()

	// Set to nil once drained so the closed channel stops winning the select.
	progress := job.Progress

	for {
		select {
		case update, ok := <-progress:
			if !ok {
				progress = nil
				continue
			}
			conn.WriteJSON(map[string]any{
				"status":     "running",
				"completed":  false,
				"current":    update.Current,
				"total":      update.Total,
				"percentage": update.Percentage,
				"name":       update.Name,
			})
		case <-ticker.C:
			s.jobStore.mu.RLock()
			status := job.Status
			s.jobStore.mu.RUnlock()

			if status != "running" && status != "queued" {
				conn.WriteJSON(map[string]any{
					"status":    status,
					"completed": true,
				})
				return
			}
		case <-r.Context().Done():
			return
		}
	}
}

func (s *Server) handleListKeys(w http.ResponseWriter, r *http.Request) {
	jobID := r.URL.Query().Get("job_id")

	var keys []*storage.ConvertedKey
	if jobID != "" {
		keys = s.store.GetByJob(jobID)
	} else {
		keys = s.store.All()
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(keys)
}

func (s *Server) handleGetKey(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	key, exists := s.store.Get(id)
	if !exists {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	w.Header().Set("Content-Type", "application/json")
	json.NewEncoder(w).Encode(key)
}

func (s *Server) handleDownloadKey(w http.ResponseWriter, r *http.Request) {
	id := mux.Vars(r)["id"]

	key, exists := s.store.Get(id)
	if !exists {
		http.Error(w, "key not found", http.StatusNotFound)
		return
	}

	filename := fmt.Sprintf("%s_%s.pem", key.Algorithm, key.ID[:8])
	w.Header().Set("Content-Type", "application/x-pem-file")
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%s", filename))
	w.Write([]byte(key.PEM))
}

func (s *Server) handleDeleteKey(w http.ResponseWriter, r *http.Request) {
	s.store.Delete(mux.Vars(r)["id"])
	w.WriteHeader(http.StatusNoContent)
}

// convertInput runs the full pipeline for one submitted key and stores the
// result under the given job ID ("" for synchronous conversions).
func convertInput(store *storage.ConversionStore, input KeyInput, jobID string) (*storage.ConvertedKey, error) {
	key, err := ppk.ParseBytes([]byte(input.Key), input.Passphrase)
	if err != nil {
		return nil, err
	}

	pem, err := key.ToOpenSSH()
	if err != nil {
		return nil, err
	}

	info := key.Info()
	info.Source = input.Name
	return store.Store(info, pem, jobID), nil
}
