package launcher

import (
	"bytes"
	"context"
	"sync"

	"github.com/viant/afs"
	"github.com/viant/afs/file"
)

// capture collects one output stream in memory. When a destination URL is
// set the collected bytes are uploaded on flush and consumers receive the URL
// instead of the content. The writer is safe for concurrent use because a
// pipeline's stages share one stderr sink.
type capture struct {
	mu  sync.Mutex
	buf bytes.Buffer
	URL string
}

func (c *capture) Write(p []byte) (int, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.Write(p)
}

// flush uploads the collected bytes when a destination was requested; it is
// called once, after the unit exited.
func (c *capture) flush(ctx context.Context, fs afs.Service) error {
	if c.URL == "" {
		return nil
	}
	c.mu.Lock()
	data := append([]byte(nil), c.buf.Bytes()...)
	c.mu.Unlock()
	return fs.Upload(ctx, c.URL, file.DefaultFileOsMode, bytes.NewReader(data))
}

// value returns what the JobResult should carry for this stream.
func (c *capture) value() string {
	if c.URL != "" {
		return c.URL
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.buf.String()
}
