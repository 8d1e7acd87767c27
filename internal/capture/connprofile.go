package capture

import (
	"sync"
	"time"
)

// Profile tracks per-source-IP traffic seen by the capture loop: bytes
// accumulated and the first/last time a frame from that address arrived.
type Profile struct {
	Addr           string
	BytesIn        uint64
	PacketsIn      uint64
	TimestampFirst time.Time
	TimestampLast  time.Time
}

// ProfileMap is a synchronized source-IP to Profile table, the same
// accumulate-or-create-under-lock shape the teacher's AtomicIPProfileMap
// uses for its IPProfile records, trimmed to the fields the capture loop's
// observability side effects actually need.
type ProfileMap struct {
	mu    sync.Mutex
	items map[string]*Profile
}

// NewProfileMap returns an empty ProfileMap.
func NewProfileMap() *ProfileMap {
	return &ProfileMap{items: make(map[string]*Profile)}
}

// Size returns the number of distinct source addresses tracked.
func (m *ProfileMap) Size() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.items)
}

// Observe records one captured frame from addr with byteCount payload
// bytes at timestamp ts, creating the profile on first sight.
func (m *ProfileMap) Observe(addr string, byteCount int, ts time.Time) *Profile {
	m.mu.Lock()
	defer m.mu.Unlock()

	p, ok := m.items[addr]
	if !ok {
		p = &Profile{Addr: addr, TimestampFirst: ts}
		m.items[addr] = p
	}
	p.BytesIn += uint64(byteCount)
	p.PacketsIn++
	p.TimestampLast = ts
	return p
}

// Get returns the profile for addr, if one has been observed.
func (m *ProfileMap) Get(addr string) (Profile, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	p, ok := m.items[addr]
	if !ok {
		return Profile{}, false
	}
	return *p, true
}

// TotalBytes sums BytesIn across every tracked address, for the
// end-of-run summary the CLI prints.
func (m *ProfileMap) TotalBytes() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	var total uint64
	for _, p := range m.items {
		total += p.BytesIn
	}
	return total
}
