package cron

import (
	"context"
	"fmt"
)

// Job is a scheduled task run by the cron worker.
type Job interface {
	Name() string
	Run(ctx context.Context) error
}

// Registry holds jobs in registration order. Names are unique.
type Registry struct {
	jobs  []Job
	names map[string]struct{}
}

func NewRegistry(jobs ...Job) *Registry {
	registry := &Registry{names: map[string]struct{}{}}
	for _, job := range jobs {
		_ = registry.Register(job)
	}
	return registry
}

// Register adds a job. Nil jobs are ignored; a repeated name is an error.
func (r *Registry) Register(job Job) error {
	if job == nil {
		return nil
	}
	if r.names == nil {
		r.names = map[string]struct{}{}
	}
	if _, dup := r.names[job.Name()]; dup {
		return fmt.Errorf("cron job %q already registered", job.Name())
	}
	r.names[job.Name()] = struct{}{}
	r.jobs = append(r.jobs, job)
	return nil
}

// Only narrows the registry to the named jobs, for one-off runs.
func (r *Registry) Only(names ...string) (*Registry, error) {
	out := NewRegistry()
	for _, name := range names {
		var found Job
		for _, job := range r.jobs {
			if job.Name() == name {
				found = job
				break
			}
		}
		if found == nil {
			return nil, fmt.Errorf("unknown cron job %q", name)
		}
		if err := out.Register(found); err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Jobs returns a copy of the registered jobs.
func (r *Registry) Jobs() []Job {
	jobs := make([]Job, len(r.jobs))
	copy(jobs, r.jobs)
	return jobs
}
