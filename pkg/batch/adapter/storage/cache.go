package storage

import (
	"sync"

	"github.com/hashicorp/go-multierror"

	"github.com/giorgioGunawan/boxscore-backend/pkg/batch/support/util/logger"
)

// ConnectionCache holds the connections a provider opened, keyed by name.
type ConnectionCache struct {
	mu          sync.RWMutex
	connections map[string]StorageConnection
}

// NewConnectionCache returns an empty cache.
func NewConnectionCache() *ConnectionCache {
	return &ConnectionCache{connections: make(map[string]StorageConnection)}
}

// Get returns the cached connection for name or opens and caches a new one.
func (c *ConnectionCache) Get(name string, open func() (StorageConnection, error)) (StorageConnection, error) {
	c.mu.RLock()
	conn, ok := c.connections[name]
	c.mu.RUnlock()
	if ok {
		return conn, nil
	}

	c.mu.Lock()
	defer c.mu.Unlock()
	if conn, ok = c.connections[name]; ok {
		return conn, nil
	}
	conn, err := open()
	if err != nil {
		return nil, err
	}
	c.connections[name] = conn
	logger.Debugf("Opened storage connection '%s' (%s).", name, conn.Type())
	return conn, nil
}

// CloseAll closes and forgets every cached connection.
func (c *ConnectionCache) CloseAll() error {
	c.mu.Lock()
	defer c.mu.Unlock()

	var errs error
	for name, conn := range c.connections {
		if err := conn.Close(); err != nil {
			errs = multierror.Append(errs, err)
		}
		delete(c.connections, name)
	}
	return errs
}
