package pipeline

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"sync"

	"plugfolio-deployer/internal/domain"
)

type fakeStore struct {
	mu     sync.Mutex
	values map[string]string
	getErr error
	putErr error
	puts   int
}

func newFakeStore(values map[string]string) *fakeStore {
	if values == nil {
		values = map[string]string{}
	}
	return &fakeStore{values: values}
}

func (s *fakeStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.getErr != nil {
		return "", s.getErr
	}
	v, ok := s.values[key]
	if !ok {
		return "", domain.ErrParameterNotFound
	}
	return v, nil
}

func (s *fakeStore) Put(_ context.Context, key, value string, overwrite bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.putErr != nil {
		return s.putErr
	}
	if _, ok := s.values[key]; ok && !overwrite {
		return domain.ErrParameterExists
	}
	s.values[key] = value
	s.puts++
	return nil
}

func (s *fakeStore) value(key string) string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.values[key]
}

type dnsRecord struct {
	ip  string
	ttl int64
}

type fakeDNS struct {
	mu      sync.Mutex
	records map[string]dnsRecord
	calls   int
	err     error
}

func newFakeDNS() *fakeDNS {
	return &fakeDNS{records: map[string]dnsRecord{}}
}

func (d *fakeDNS) UpsertARecord(_ context.Context, zone, name, ip string, ttl int64) error {
	d.mu.Lock()
	defer d.mu.Unlock()

	d.calls++
	if d.err != nil {
		return d.err
	}
	d.records[zone+"/"+name] = dnsRecord{ip: ip, ttl: ttl}
	return nil
}

type dispatchCall struct {
	hostIDs  []string
	document string
	params   map[string][]string
}

type fakeChannel struct {
	mu    sync.Mutex
	calls []dispatchCall
	err   error
}

func (c *fakeChannel) Dispatch(_ context.Context, hostIDs []string, document string, params map[string][]string) (*domain.RemoteCommandHandle, error) {
	c.mu.Lock()
	defer c.mu.Unlock()

	c.calls = append(c.calls, dispatchCall{hostIDs: hostIDs, document: document, params: params})
	if c.err != nil {
		return nil, c.err
	}
	return &domain.RemoteCommandHandle{
		CommandID:    "cmd-1",
		DocumentName: document,
		HostIDs:      hostIDs,
		Status:       "Pending",
		Parameters:   params,
		RequestedAt:  "2024-01-02T03:04:05Z",
	}, nil
}

// fakeCloner "clones" by writing files into the destination.
type fakeCloner struct {
	files  map[string]string
	err    error
	commit string

	mu   sync.Mutex
	dirs []string
}

func (c *fakeCloner) Clone(_ context.Context, _ string, destDir string) error {
	c.mu.Lock()
	c.dirs = append(c.dirs, destDir)
	c.mu.Unlock()

	if c.err != nil {
		return c.err
	}
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return err
	}
	for name, content := range c.files {
		if err := os.WriteFile(filepath.Join(destDir, name), []byte(content), 0o644); err != nil {
			return err
		}
	}
	return nil
}

func (c *fakeCloner) GetCurrentCommit(_ context.Context, repoDir string) (string, error) {
	if c.commit == "" {
		return "", errors.New("no commit")
	}
	return c.commit, nil
}

type failingStage struct {
	name string
	err  error
}

func (s failingStage) Name() string { return s.name }

func (s failingStage) Run(_ context.Context, in domain.DeploymentState) (domain.DeploymentState, error) {
	return in, s.err
}

var errBoom = errors.New("boom")

type recordedEvent struct {
	topic string
	event any
}

type recordingBus struct {
	mu     sync.Mutex
	events []recordedEvent
}

func (b *recordingBus) Publish(topic string, event any) {
	b.mu.Lock()
	defer b.mu.Unlock()
	b.events = append(b.events, recordedEvent{topic: topic, event: event})
}

func (b *recordingBus) topics() []string {
	b.mu.Lock()
	defer b.mu.Unlock()

	out := make([]string, 0, len(b.events))
	for _, e := range b.events {
		out = append(out, e.topic)
	}
	return out
}
