package media

import (
	"context"
	"fmt"
	"sync"

	"github.com/google/uuid"
)

// Memory keeps uploads in process. It backs MEDIA_DRIVER=memory for local
// runs without a media host.
type Memory struct {
	mu      sync.Mutex
	baseURL string
	objects map[string][]byte
}

func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "memory://media"
	}
	return &Memory{baseURL: baseURL, objects: make(map[string][]byte)}
}

func (m *Memory) Upload(_ context.Context, data []byte, contentType string) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	u := fmt.Sprintf("%s/%s%s", m.baseURL, uuid.NewString(), extensionFor(contentType))
	m.objects[u] = append([]byte(nil), data...)
	return u, nil
}

func (m *Memory) Delete(_ context.Context, url string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.objects[url]; !ok {
		return fmt.Errorf("no asset at %s", url)
	}
	delete(m.objects, url)
	return nil
}

func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
