// Package database persists job postings. Repository stores them in
// Postgres; FileStore keeps them in a JSON file for single-host runs and
// local development. Both expose the same methods.
package database

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"go-jobboard-scraper/internal/models"
	"go-jobboard-scraper/pkg/logging"
)

var ErrNotFound = errors.New("job not found")

// Store is the full persistence surface used by the API and the scraper.
type Store interface {
	Upsert(ctx context.Context, key string, job models.JobPosting) (models.JobPosting, bool, error)
	Get(ctx context.Context, externalID string) (models.JobPosting, error)
	Count(ctx context.Context, filter models.JobFilter) (int, error)
	List(ctx context.Context, filter models.JobFilter) ([]models.JobPosting, error)
	DeleteAll(ctx context.Context) (int, error)
	Stats(ctx context.Context) (models.Stats, error)
	Close() error
}

var (
	_ Store = (*Repository)(nil)
	_ Store = (*FileStore)(nil)
)

// FileStore keeps every posting in memory and rewrites the file after each
// change. Safe for concurrent use.
type FileStore struct {
	mu       sync.Mutex
	filePath string
	jobs     map[string]models.JobPosting
	nextID   int64
	now      func() time.Time
	log      *logging.Logger
}

// OpenFileStore creates or loads the store at path. A missing file is an
// empty store; an unreadable one is an error.
func OpenFileStore(path string, log *logging.Logger) (*FileStore, error) {
	if log == nil {
		log = logging.Nop()
	}
	if err := os.MkdirAll(filepath.Dir(path), 0755); err != nil {
		return nil, fmt.Errorf("failed to create store directory: %w", err)
	}
	fs := &FileStore{
		filePath: path,
		jobs:     make(map[string]models.JobPosting),
		nextID:   1,
		now:      time.Now,
		log:      log,
	}
	if err := fs.load(); err != nil {
		return nil, err
	}
	return fs, nil
}

func (fs *FileStore) Upsert(_ context.Context, key string, job models.JobPosting) (models.JobPosting, bool, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	now := fs.now().UTC()
	job.ExternalID = key
	job.Skills = nonNilSkills(job.Skills)
	job.UpdatedAt = now

	existing, found := fs.jobs[key]
	if found {
		job.ID = existing.ID
		job.CreatedAt = existing.CreatedAt
		if job.FullDescription == "" {
			job.FullDescription = existing.FullDescription
		}
		job.DetailsScraped = job.DetailsScraped || existing.DetailsScraped
	} else {
		job.ID = fs.nextID
		fs.nextID++
		job.CreatedAt = now
	}

	fs.jobs[key] = job
	if err := fs.save(); err != nil {
		if found {
			fs.jobs[key] = existing
		} else {
			delete(fs.jobs, key)
		}
		return models.JobPosting{}, false, err
	}
	return job, !found, nil
}

func (fs *FileStore) Get(_ context.Context, externalID string) (models.JobPosting, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	job, ok := fs.jobs[externalID]
	if !ok {
		return models.JobPosting{}, ErrNotFound
	}
	return job, nil
}

func (fs *FileStore) Count(_ context.Context, filter models.JobFilter) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()
	n := 0
	for _, job := range fs.jobs {
		if matches(job, filter) {
			n++
		}
	}
	return n, nil
}

// List orders by most recently updated, like Repository.List.
func (fs *FileStore) List(_ context.Context, filter models.JobFilter) ([]models.JobPosting, error) {
	fs.mu.Lock()
	out := make([]models.JobPosting, 0, len(fs.jobs))
	for _, job := range fs.jobs {
		if matches(job, filter) {
			out = append(out, job)
		}
	}
	fs.mu.Unlock()

	sort.Slice(out, func(i, j int) bool {
		if !out[i].UpdatedAt.Equal(out[j].UpdatedAt) {
			return out[i].UpdatedAt.After(out[j].UpdatedAt)
		}
		return out[i].ID > out[j].ID
	})

	if filter.Offset > 0 {
		if filter.Offset >= len(out) {
			return []models.JobPosting{}, nil
		}
		out = out[filter.Offset:]
	}
	if filter.Limit > 0 && filter.Limit < len(out) {
		out = out[:filter.Limit]
	}
	return out, nil
}

func (fs *FileStore) DeleteAll(_ context.Context) (int, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	old := fs.jobs
	fs.jobs = make(map[string]models.JobPosting)
	if err := fs.save(); err != nil {
		fs.jobs = old
		return 0, err
	}
	fs.log.Info("🗑️ Cleared job store", "deleted", len(old))
	return len(old), nil
}

func (fs *FileStore) Stats(_ context.Context) (models.Stats, error) {
	fs.mu.Lock()
	defer fs.mu.Unlock()

	stats := models.Stats{ByJobType: make(map[models.JobType]int)}
	for _, job := range fs.jobs {
		stats.Total++
		stats.ByJobType[job.JobType]++
		if job.DetailsScraped {
			stats.DetailsScraped++
		}
		if stats.LastUpdated == nil || job.UpdatedAt.After(*stats.LastUpdated) {
			t := job.UpdatedAt
			stats.LastUpdated = &t
		}
	}
	return stats, nil
}

func (fs *FileStore) Close() error {
	return nil
}

// load reads the file into memory.
func (fs *FileStore) load() error {
	data, err := os.ReadFile(fs.filePath)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("failed to read %s: %w", fs.filePath, err)
	}
	if len(strings.TrimSpace(string(data))) == 0 {
		return nil
	}

	var entries []models.JobPosting
	if err := json.Unmarshal(data, &entries); err != nil {
		return fmt.Errorf("failed to parse %s: %w", fs.filePath, err)
	}
	for _, job := range entries {
		if job.ExternalID == "" {
			continue
		}
		job.Skills = nonNilSkills(job.Skills)
		fs.jobs[job.ExternalID] = job
		if job.ID >= fs.nextID {
			fs.nextID = job.ID + 1
		}
	}
	fs.log.Info("📋 Loaded stored jobs", "count", len(fs.jobs), "file", fs.filePath)
	return nil
}

// save writes through a temp file and rename so a crash never leaves a
// half-written store. Callers hold the lock.
func (fs *FileStore) save() error {
	entries := make([]models.JobPosting, 0, len(fs.jobs))
	for _, job := range fs.jobs {
		entries = append(entries, job)
	}
	sort.Slice(entries, func(i, j int) bool { return entries[i].ID < entries[j].ID })

	data, err := json.MarshalIndent(entries, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal jobs: %w", err)
	}
	tmp := fs.filePath + ".tmp"
	if err := os.WriteFile(tmp, data, 0644); err != nil {
		return fmt.Errorf("failed to write %s: %w", tmp, err)
	}
	if err := os.Rename(tmp, fs.filePath); err != nil {
		return fmt.Errorf("failed to replace %s: %w", fs.filePath, err)
	}
	return nil
}

// matches mirrors buildWhere for in-memory filtering.
func matches(job models.JobPosting, f models.JobFilter) bool {
	if len(f.JobTypes) > 0 {
		ok := false
		for _, jt := range f.JobTypes {
			if job.JobType == jt {
				ok = true
				break
			}
		}
		if !ok {
			return false
		}
	}
	if s := strings.TrimSpace(f.Location); s != "" && !containsFold(job.Location, s) {
		return false
	}
	if s := strings.TrimSpace(f.Experience); s != "" && !containsFold(job.ExperienceRequired, s) {
		return false
	}
	if s := strings.TrimSpace(f.Search); s != "" && !containsFold(job.Title, s) && !containsFold(job.Company, s) {
		return false
	}
	return true
}

func containsFold(s, sub string) bool {
	return strings.Contains(strings.ToLower(s), strings.ToLower(sub))
}
