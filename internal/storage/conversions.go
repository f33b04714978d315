// Package storage keeps completed conversions in memory for the web API.
package storage

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/user/ppkconvert/internal/ppk"
)

// ConvertedKey is one completed conversion. The PEM field holds the
// unprotected OpenSSH private key text, so records should be deleted as soon
// as the caller has downloaded them.
type ConvertedKey struct {
	ID          string    `json:"id"`
	Source      string    `json:"source,omitempty"`
	Algorithm   string    `json:"algorithm"`
	Comment     string    `json:"comment,omitempty"`
	Fingerprint string    `json:"fingerprint,omitempty"`
	PEM         string    `json:"pem"`
	JobID       string    `json:"job_id,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}

type ConversionStore struct {
	mu   sync.RWMutex
	keys map[string]*ConvertedKey
}

func NewConversionStore() *ConversionStore {
	return &ConversionStore{
		keys: make(map[string]*ConvertedKey),
	}
}

// Store records a finished conversion and assigns it an ID.
func (s *ConversionStore) Store(info ppk.Info, pem, jobID string) *ConvertedKey {
	key := &ConvertedKey{
		ID:          uuid.New().String(),
		Source:      info.Source,
		Algorithm:   info.Algorithm,
		Comment:     info.Comment,
		Fingerprint: info.Fingerprint,
		PEM:         pem,
		JobID:       jobID,
		CreatedAt:   time.Now(),
	}

	s.mu.Lock()
	s.keys[key.ID] = key
	s.mu.Unlock()

	return key
}

func (s *ConversionStore) Get(id string) (*ConvertedKey, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	key, exists := s.keys[id]
	return key, exists
}

func (s *ConversionStore) GetByJob(jobID string) []*ConvertedKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var keys []*ConvertedKey
	for _, key := range s.keys {
		if key.JobID == jobID {
			keys = append(keys, key)
		}
	}
	return keys
}

func (s *ConversionStore) All() []*ConvertedKey {
	s.mu.RLock()
	defer s.mu.RUnlock()

	keys := make([]*ConvertedKey, 0, len(s.keys))
	for _, key := range s.keys {
		keys = append(keys, key)
	}
	return keys
}

func (s *ConversionStore) Delete(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.keys, id)
}

func (s *ConversionStore) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.keys)
}
