package texture

import (
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/multierr"
	"go.uber.org/zap"

	"github.com/Faultbox/oglrenderer/internal/engine/gpu"
	"github.com/Faultbox/oglrenderer/internal/logger"
)

// Cache maps source paths to uploaded textures so each path is decoded and
// uploaded once. Failed loads are cached too, with a zero ID.
//
// A cache starts with one reference. Clones of a model Retain it; the last
// Release deletes every texture.
type Cache struct {
	dev gpu.Device
	dec Decoder

	mu      sync.Mutex
	entries map[string]*Texture
	order   []string
	errs    error

	refs atomic.Int32
}

// NewCache creates an empty cache holding one reference.
func NewCache(dev gpu.Device, dec Decoder) *Cache {
	if dec == nil {
		dec = FileDecoder{}
	}
	c := &Cache{
		dev:     dev,
		dec:     dec,
		entries: make(map[string]*Texture),
	}
	c.refs.Store(1)
	return c
}

// Get returns the texture for a file path, decoding it on first use.
// The role of the first request decides the upload format.
func (c *Cache) Get(path string, role Role) *Texture {
	return c.load(path, role, func() (*Image, error) {
		return c.dec.Decode(path)
	})
}

// GetEmbedded is Get for image bytes carried inside an asset, keyed by key.
func (c *Cache) GetEmbedded(key string, data []byte, hint string, role Role) *Texture {
	return c.load(key, role, func() (*Image, error) {
		return DecodeBytes(data, hint)
	})
}

func (c *Cache) load(key string, role Role, decode func() (*Image, error)) *Texture {
	c.mu.Lock()
	defer c.mu.Unlock()

	if t, ok := c.entries[key]; ok {
		return t
	}

	t := &Texture{Role: role, Path: key}
	img, err := decode()
	if err == nil {
		t.ID, err = Upload(c.dev, img, role)
	}
	if err != nil {
		err = fmt.Errorf("%w: %s (%s): %v", ErrLoad, key, role, err)
		c.errs = multierr.Append(c.errs, err)
		logger.Warn("texture failed to load",
			zap.String("path", key),
			zap.Stringer("role", role),
			zap.Error(err),
		)
	} else {
		logger.Debug("texture uploaded",
			zap.String("path", key),
			zap.Stringer("role", role),
			zap.Int("width", img.Width),
			zap.Int("height", img.Height),
			zap.Int("channels", img.Channels),
		)
	}

	c.entries[key] = t
	c.order = append(c.order, key)
	return t
}

// Len returns the number of cached paths, including failures.
func (c *Cache) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.entries)
}

// Textures returns cached textures in load order.
func (c *Cache) Textures() []*Texture {
	c.mu.Lock()
	defer c.mu.Unlock()
	out := make([]*Texture, 0, len(c.order))
	for _, k := range c.order {
		out = append(out, c.entries[k])
	}
	return out
}

// Err returns every load failure seen so far.
func (c *Cache) Err() error {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.errs
}

// Retain adds a reference.
func (c *Cache) Retain() *Cache {
	c.refs.Add(1)
	return c
}

// Release drops a reference and frees every texture when none remain.
// It returns true when the textures were freed.
func (c *Cache) Release() bool {
	n := c.refs.Add(-1)
	if n > 0 {
		return false
	}
	if n < 0 {
		panic("texture: cache released more times than retained")
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	for _, t := range c.entries {
		if t.ID != 0 {
			c.dev.DeleteTexture(t.ID)
			t.ID = 0
		}
	}
	c.entries = make(map[string]*Texture)
	c.order = nil
	return true
}
