package s3

import (
	"bytes"
	"context"
	"errors"
	"io"
	"net/url"
	"sync"
)

// ErrNoObject is returned by Memory for keys it does not hold.
var ErrNoObject = errors.New("no such object")

// Memory keeps objects in process. It backs local runs without a bucket
// and the service tests.
type Memory struct {
	mu      sync.RWMutex
	objects map[string]MemoryObject
	baseURL string
}

type MemoryObject struct {
	ContentType string
	Data        []byte
}

var _ Storage = (*Memory)(nil)

func NewMemory(baseURL string) *Memory {
	if baseURL == "" {
		baseURL = "memory://objects"
	}
	return &Memory{objects: map[string]MemoryObject{}, baseURL: baseURL}
}

func (m *Memory) Upload(_ context.Context, key, contentType string, body io.Reader, _ int64) error {
	var buf bytes.Buffer
	if _, err := io.Copy(&buf, body); err != nil {
		return &OpError{Op: "upload", Key: key, Err: err}
	}
	m.mu.Lock()
	m.objects[key] = MemoryObject{ContentType: contentType, Data: buf.Bytes()}
	m.mu.Unlock()
	return nil
}

func (m *Memory) PresignDownload(_ context.Context, key string) (string, error) {
	m.mu.RLock()
	_, ok := m.objects[key]
	m.mu.RUnlock()
	if !ok {
		return "", &OpError{Op: "presign", Key: key, Err: ErrNoObject}
	}
	return m.baseURL + "/" + url.PathEscape(key), nil
}

func (m *Memory) Delete(_ context.Context, key string) error {
	m.mu.Lock()
	delete(m.objects, key)
	m.mu.Unlock()
	return nil
}

// Object returns a stored object.
func (m *Memory) Object(key string) (MemoryObject, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	o, ok := m.objects[key]
	return o, ok
}
