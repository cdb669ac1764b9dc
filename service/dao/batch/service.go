// Package batch loads job definitions from YAML documents so that whole
// batches can be described declaratively and submitted in one call. The
// document is either a bare list of job dictionaries or a mapping with a
// "jobs" key, optionally carrying a batch name:
//
//	name: nightly-encode
//	jobs:
//	  - cmd: [ffmpeg, -i, in.avi, out.mp4]
//	    memory: 2G
//	  - cmd: [sha256sum, out.mp4]
//	    memory: 64M
//	    timeout: 5m
package batch

import (
	"context"
	"fmt"

	"github.com/procbatch/procbatch/model"
	"github.com/viant/afs"
	"gopkg.in/yaml.v3"
)

// Batch is a named collection of job specs loaded from one document.
type Batch struct {
	Name string
	Jobs []*model.JobSpec
}

// Service loads batch documents from any storage URL the underlying file
// system abstraction understands (plain paths included).
type Service struct {
	fs afs.Service
}

// New creates a batch DAO.
func New() *Service {
	return &Service{fs: afs.New()}
}

type document struct {
	Name string                   `yaml:"name,omitempty"`
	Jobs []map[string]interface{} `yaml:"jobs"`
}

// Load reads and decodes the batch definition at URL.
func (s *Service) Load(ctx context.Context, URL string) (*Batch, error) {
	data, err := s.fs.DownloadWithURL(ctx, URL)
	if err != nil {
		return nil, fmt.Errorf("failed to load batch %v: %w", URL, err)
	}
	return s.decode(URL, data)
}

func (s *Service) decode(URL string, data []byte) (*Batch, error) {
	var doc document
	if err := yaml.Unmarshal(data, &doc); err != nil {
		// a bare list of jobs is accepted too
		var jobs []map[string]interface{}
		if listErr := yaml.Unmarshal(data, &jobs); listErr != nil {
			return nil, fmt.Errorf("failed to decode batch %v: %w", URL, err)
		}
		doc.Jobs = jobs
	}
	if len(doc.Jobs) == 0 {
		return nil, fmt.Errorf("batch %v defines no jobs", URL)
	}
	result := &Batch{Name: doc.Name, Jobs: make([]*model.JobSpec, 0, len(doc.Jobs))}
	for i, values := range doc.Jobs {
		spec, err := model.FromMap(values)
		if err != nil {
			return nil, fmt.Errorf("batch %v job %d: %w", URL, i, err)
		}
		result.Jobs = append(result.Jobs, spec)
	}
	return result, nil
}
