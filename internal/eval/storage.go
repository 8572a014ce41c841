package eval

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/gofrs/flock"

	"github.com/docqa-dev/docqa/internal/errors"
)

// FileStore persists datasets and jobs as JSON files under a data
// directory. A cross-process flock guards writes so concurrent CLI
// invocations cannot corrupt each other's artifacts.
type FileStore struct {
	dir  string
	lock *flock.Flock
}

// NewFileStore creates the store, making the directory layout as
// needed.
func NewFileStore(dir string) (*FileStore, error) {
	for _, sub := range []string{"datasets", "jobs"} {
		if err := os.MkdirAll(filepath.Join(dir, sub), 0o755); err != nil {
			return nil, errors.New(errors.ErrCodeStorageFailed, "failed to create data directory", err)
		}
	}

	return &FileStore{
		dir:  dir,
		lock: flock.New(filepath.Join(dir, ".eval.lock")),
	}, nil
}

// SaveDataset validates and persists a dataset.
func (s *FileStore) SaveDataset(d *TestDataset) error {
	if err := d.Validate(); err != nil {
		return err
	}
	return s.writeJSON(s.datasetPath(d.ID), d)
}

// GetDataset loads a dataset by ID.
func (s *FileStore) GetDataset(id string) (*TestDataset, error) {
	var d TestDataset
	if err := s.readJSON(s.datasetPath(id), &d); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeDatasetNotFound, fmt.Sprintf("dataset %q not found", id), nil)
		}
		return nil, errors.New(errors.ErrCodeStorageFailed, "failed to read dataset", err)
	}
	return &d, nil
}

// ListDatasets returns all stored datasets sorted by name.
func (s *FileStore) ListDatasets() ([]*TestDataset, error) {
	ids, err := s.listIDs("datasets")
	if err != nil {
		return nil, err
	}

	datasets := make([]*TestDataset, 0, len(ids))
	for _, id := range ids {
		d, err := s.GetDataset(id)
		if err != nil {
			return nil, err
		}
		datasets = append(datasets, d)
	}

	sort.Slice(datasets, func(i, j int) bool { return datasets[i].Name < datasets[j].Name })
	return datasets, nil
}

// SaveJob persists a job snapshot. Called repeatedly as the job
// progresses.
func (s *FileStore) SaveJob(j *EvaluationJob) error {
	return s.writeJSON(s.jobPath(j.ID), j)
}

// GetJob loads a job by ID.
func (s *FileStore) GetJob(id string) (*EvaluationJob, error) {
	var j EvaluationJob
	if err := s.readJSON(s.jobPath(id), &j); err != nil {
		if os.IsNotExist(err) {
			return nil, errors.New(errors.ErrCodeJobNotFound, fmt.Sprintf("job %q not found", id), nil)
		}
		return nil, errors.New(errors.ErrCodeStorageFailed, "failed to read job", err)
	}
	return &j, nil
}

// ListJobs returns all stored jobs, newest first.
func (s *FileStore) ListJobs() ([]*EvaluationJob, error) {
	ids, err := s.listIDs("jobs")
	if err != nil {
		return nil, err
	}

	jobs := make([]*EvaluationJob, 0, len(ids))
	for _, id := range ids {
		j, err := s.GetJob(id)
		if err != nil {
			return nil, err
		}
		jobs = append(jobs, j)
	}

	sort.Slice(jobs, func(i, j int) bool { return jobs[i].CreatedAt.After(jobs[j].CreatedAt) })
	return jobs, nil
}

func (s *FileStore) datasetPath(id string) string {
	return filepath.Join(s.dir, "datasets", id+".json")
}

func (s *FileStore) jobPath(id string) string {
	return filepath.Join(s.dir, "jobs", id+".json")
}

func (s *FileStore) listIDs(sub string) ([]string, error) {
	entries, err := os.ReadDir(filepath.Join(s.dir, sub))
	if err != nil {
		return nil, errors.New(errors.ErrCodeStorageFailed, "failed to list "+sub, err)
	}

	ids := make([]string, 0, len(entries))
	for _, entry := range entries {
		name := entry.Name()
		if entry.IsDir() || !strings.HasSuffix(name, ".json") {
			continue
		}
		ids = append(ids, strings.TrimSuffix(name, ".json"))
	}
	return ids, nil
}

// writeJSON persists v atomically under the store lock: write to a
// temp file, fsync, rename into place.
func (s *FileStore) writeJSON(path string, v any) error {
	if err := s.lock.Lock(); err != nil {
		return errors.New(errors.ErrCodeStorageFailed, "failed to acquire store lock", err)
	}
	defer s.lock.Unlock()

	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return errors.New(errors.ErrCodeStorageFailed, "failed to encode artifact", err)
	}

	tmp := path + ".tmp"
	f, err := os.OpenFile(tmp, os.O_WRONLY|os.O_CREATE|os.O_TRUNC, 0o644)
	if err != nil {
		return errors.New(errors.ErrCodeStorageFailed, "failed to create temp file", err)
	}

	if _, err := f.Write(data); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.New(errors.ErrCodeStorageFailed, "failed to write artifact", err)
	}
	if err := f.Sync(); err != nil {
		f.Close()
		os.Remove(tmp)
		return errors.New(errors.ErrCodeStorageFailed, "failed to sync artifact", err)
	}
	if err := f.Close(); err != nil {
		os.Remove(tmp)
		return errors.New(errors.ErrCodeStorageFailed, "failed to close artifact", err)
	}

	if err := os.Rename(tmp, path); err != nil {
		os.Remove(tmp)
		return errors.New(errors.ErrCodeStorageFailed, "failed to finalize artifact", err)
	}
	return nil
}

func (s *FileStore) readJSON(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return err
	}
	return json.Unmarshal(data, v)
}
