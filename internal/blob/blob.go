// Package blob archives binary artifacts produced during checks.
package blob

import (
	"context"
	"fmt"
	"strings"
	"sync"

	"cloud.google.com/go/storage"
)

// GCS stores artifacts in a Google Cloud Storage bucket and returns gs://
// URIs.
type GCS struct {
	client *storage.Client
	bucket string
	prefix string
}

// NewGCS wraps an existing storage client. The prefix is prepended to every
// object path.
func NewGCS(client *storage.Client, bucket, prefix string) *GCS {
	return &GCS{client: client, bucket: bucket, prefix: strings.Trim(prefix, "/")}
}

func (g *GCS) PutObject(ctx context.Context, path, contentType string, data []byte) (string, error) {
	object := path
	if g.prefix != "" {
		object = g.prefix + "/" + path
	}

	w := g.client.Bucket(g.bucket).Object(object).NewWriter(ctx)
	w.ContentType = contentType
	if _, err := w.Write(data); err != nil {
		w.Close()
		return "", fmt.Errorf("write gs://%s/%s: %w", g.bucket, object, err)
	}
	if err := w.Close(); err != nil {
		return "", fmt.Errorf("finalize gs://%s/%s: %w", g.bucket, object, err)
	}
	return fmt.Sprintf("gs://%s/%s", g.bucket, object), nil
}

// Memory is an in-process store for tests and local development.
type Memory struct {
	mu      sync.Mutex
	objects map[string]Object
}

// Object is one stored artifact.
type Object struct {
	ContentType string
	Data        []byte
}

func NewMemory() *Memory {
	return &Memory{objects: make(map[string]Object)}
}

func (m *Memory) PutObject(_ context.Context, path, contentType string, data []byte) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	buf := make([]byte, len(data))
	copy(buf, data)
	m.objects[path] = Object{ContentType: contentType, Data: buf}
	return "mem://" + path, nil
}

// Get returns a stored object, for test assertions.
func (m *Memory) Get(path string) (Object, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	obj, ok := m.objects[path]
	return obj, ok
}

// Len reports how many objects are stored.
func (m *Memory) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.objects)
}
