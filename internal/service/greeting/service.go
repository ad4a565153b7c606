// Package greeting issues greeting messages with process-local sequential
// IDs and tracks how many have been served since startup.
package greeting

import (
	"fmt"
	"sync/atomic"
	"time"
)

const template = "Hello, %s!"

// Greeting is a single issued greeting. Values are immutable after
// construction and nothing outlives the response that carries them.
type Greeting struct {
	ID      int64
	Content string
}

// Stats reports issuance totals since process start.
type Stats struct {
	Served    int64
	StartedAt time.Time
}

// Service defines greeting operations.
type Service interface {
	Greet(name string) Greeting
	Stats() Stats
}

// LocalService implements Service with an in-process atomic sequence.
// IDs are strictly increasing for the lifetime of the process and reset
// on restart.
type LocalService struct {
	served  atomic.Int64
	started time.Time
}

// NewLocalService creates a greeting service anchored to the current time.
func NewLocalService() *LocalService {
	return &LocalService{started: time.Now().UTC()}
}

func (s *LocalService) Greet(name string) Greeting {
	return Greeting{
		ID:      s.served.Add(1),
		Content: fmt.Sprintf(template, name),
	}
}

func (s *LocalService) Stats() Stats {
	return Stats{
		Served:    s.served.Load(),
		StartedAt: s.started,
	}
}

// Compile-time interface check
var _ Service = (*LocalService)(nil)
