package blob

import (
	"context"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestMemory_PutAndGet(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	uri, err := m.PutObject(context.Background(), "screenshots/run-1/desktop/a.png", "image/png", []byte{1, 2, 3})
	require.NoError(t, err)
	require.Equal(t, "mem://screenshots/run-1/desktop/a.png", uri)

	obj, ok := m.Get("screenshots/run-1/desktop/a.png")
	require.True(t, ok)
	require.Equal(t, "image/png", obj.ContentType)
	require.Equal(t, []byte{1, 2, 3}, obj.Data)
	require.Equal(t, 1, m.Len())
}

func TestMemory_CopiesData(t *testing.T) {
	t.Parallel()
	m := NewMemory()

	data := []byte{1, 2, 3}
	_, err := m.PutObject(context.Background(), "a", "application/octet-stream", data)
	require.NoError(t, err)

	data[0] = 9
	obj, _ := m.Get("a")
	require.Equal(t, byte(1), obj.Data[0])
}
