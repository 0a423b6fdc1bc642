// Package cache provides a direct-mapped cache model using Akita cache
// components.
package cache

import (
	"errors"
	"fmt"
	"math/rand/v2"
	"strconv"
	"strings"

	akitacache "github.com/sarchlab/akita/v4/mem/cache"
)

// ErrInvalidAddress is returned when an address string is not hexadecimal.
var ErrInvalidAddress = errors.New("invalid address")

// emptyField is the tag and data text of a line that holds nothing.
const emptyField = "0x0"

// Statistics holds cache performance statistics.
type Statistics struct {
	Reads      uint64
	Writes     uint64
	Hits       uint64
	Misses     uint64
	Evictions  uint64
	Writebacks uint64
	// Activity counts one per access plus one per dirty write-back. It is a
	// power proxy only.
	Activity uint64
}

// Accesses returns Hits + Misses.
func (s Statistics) Accesses() uint64 {
	return s.Hits + s.Misses
}

// HitRate returns hits / accesses, or 0 before the first access.
func (s Statistics) HitRate() float64 {
	total := s.Accesses()
	if total == 0 {
		return 0
	}
	return float64(s.Hits) / float64(total)
}

// MissRate returns 1 - HitRate. Before the first access this is 1.
func (s Statistics) MissRate() float64 {
	return 1 - s.HitRate()
}

// ActivityFactor returns activity / accesses, or 0 before the first access.
func (s Statistics) ActivityFactor() float64 {
	total := s.Accesses()
	if total == 0 {
		return 0
	}
	return float64(s.Activity) / float64(total)
}

// LineView is a read-only copy of one cache line.
type LineView struct {
	Index int    `json:"index"`
	Valid bool   `json:"valid"`
	Dirty bool   `json:"dirty"`
	Tag   string `json:"tag"`
	Data  string `json:"data"`
}

// Cache is a direct-mapped cache. Each set of the underlying Akita
// directory holds exactly one way, so the set ID is the line index.
type Cache struct {
	config Config

	directory *akitacache.DirectoryImpl

	// Synthetic line contents, indexed by line index.
	data []string
	rng  *rand.Rand

	stats Statistics
}

// New creates a new cache with the given configuration.
func New(config Config) (*Cache, error) {
	if err := config.Validate(); err != nil {
		return nil, err
	}

	c := &Cache{}
	c.build(config)
	return c, nil
}

// MustNew is like New but panics on an invalid configuration. It is meant
// for the package defaults.
func MustNew(config Config) *Cache {
	c, err := New(config)
	if err != nil {
		panic(err)
	}
	return c
}

func (c *Cache) build(config Config) {
	c.config = config
	c.directory = akitacache.NewDirectory(
		config.NumLines(),
		1,
		config.LineSize,
		akitacache.NewLRUVictimFinder(),
	)
	c.Reset()
}

// Config returns the cache configuration.
func (c *Cache) Config() Config {
	return c.config
}

// Configure validates the new geometry, then reallocates every line and
// clears the statistics. On error the cache is left unchanged.
func (c *Cache) Configure(config Config) error {
	if err := config.Validate(); err != nil {
		return err
	}
	c.build(config)
	return nil
}

// Stats returns cache statistics.
func (c *Cache) Stats() Statistics {
	return c.stats
}

// HitRate returns the fraction of accesses that hit.
func (c *Cache) HitRate() float64 {
	return c.stats.HitRate()
}

// MissRate returns the fraction of accesses that missed.
func (c *Cache) MissRate() float64 {
	return c.stats.MissRate()
}

// ActivityFactor returns activity per access.
func (c *Cache) ActivityFactor() float64 {
	return c.stats.ActivityFactor()
}

// Reset invalidates all cache lines without writeback and zeroes the
// counters.
func (c *Cache) Reset() {
	c.directory.Reset()
	c.data = make([]string, c.config.NumLines())
	for i := range c.data {
		c.data[i] = emptyField
	}
	c.rng = rand.New(rand.NewPCG(uint64(c.config.Size), uint64(c.config.LineSize)))
	c.stats = Statistics{}
}

// Access parses a hexadecimal address (with or without a 0x prefix) and
// performs the access. It returns whether the access hit.
func (c *Cache) Access(address string, isWrite bool) (bool, error) {
	addr, err := ParseAddress(address)
	if err != nil {
		return false, err
	}
	return c.AccessAddr(addr, isWrite), nil
}

// AccessAddr performs a read or write at addr and returns whether it hit.
func (c *Cache) AccessAddr(addr uint64, isWrite bool) bool {
	if isWrite {
		c.stats.Writes++
	} else {
		c.stats.Reads++
	}

	blockAddr := c.blockAddr(addr)
	hit := false

	block := c.directory.Lookup(0, blockAddr)
	if block != nil && block.IsValid {
		hit = true
		c.stats.Hits++
		c.directory.Visit(block)

		if isWrite {
			block.IsDirty = true
			c.data[block.SetID] = c.nextData()
		}
	} else {
		c.stats.Misses++
		c.fill(blockAddr, isWrite)
	}

	c.stats.Activity++
	return hit
}

// fill installs blockAddr in its line, writing back a dirty victim first.
func (c *Cache) fill(blockAddr uint64, isWrite bool) {
	victim := c.directory.FindVictim(blockAddr)
	if victim == nil {
		return
	}

	if victim.IsValid {
		c.stats.Evictions++
		if victim.IsDirty {
			c.stats.Writebacks++
			c.stats.Activity++
		}
	}

	victim.Tag = blockAddr
	victim.IsValid = true
	victim.IsDirty = isWrite
	c.data[victim.SetID] = c.nextData()

	c.directory.Visit(victim)
}

// Index returns the line index for addr.
func (c *Cache) Index(addr uint64) int {
	mask := uint64(1)<<c.config.indexBits() - 1
	return int((addr >> c.config.offsetBits()) & mask)
}

// Tag returns the tag for addr.
func (c *Cache) Tag(addr uint64) uint64 {
	return addr >> (c.config.offsetBits() + c.config.indexBits())
}

// State returns a copy of every line in index order.
func (c *Cache) State() []LineView {
	views := make([]LineView, 0, c.config.NumLines())
	for i, set := range c.directory.GetSets() {
		block := set.Blocks[0]
		view := LineView{
			Index: i,
			Valid: block.IsValid,
			Dirty: block.IsDirty,
			Tag:   emptyField,
			Data:  c.data[i],
		}
		if block.IsValid {
			view.Tag = fmt.Sprintf("0x%x", c.Tag(block.Tag))
		}
		views = append(views, view)
	}
	return views
}

func (c *Cache) blockAddr(addr uint64) uint64 {
	lineSize := uint64(c.config.LineSize)
	return (addr / lineSize) * lineSize
}

func (c *Cache) nextData() string {
	return fmt.Sprintf("0x%08x", c.rng.Uint32())
}

// ParseAddress parses a hexadecimal address string.
func ParseAddress(address string) (uint64, error) {
	s := strings.TrimSpace(address)
	s = strings.TrimPrefix(strings.TrimPrefix(s, "0x"), "0X")
	if s == "" {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}

	addr, err := strconv.ParseUint(s, 16, 64)
	if err != nil {
		return 0, fmt.Errorf("%w: %q", ErrInvalidAddress, address)
	}
	return addr, nil
}
