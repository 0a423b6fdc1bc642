package cache

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrInvalidConfig is returned when a cache geometry cannot be modeled.
var ErrInvalidConfig = errors.New("invalid cache configuration")

// Config holds cache configuration parameters.
type Config struct {
	// Size in bytes. Must be a power of two.
	Size int `yaml:"size" json:"size"`
	// LineSize in bytes. Must be a power of two no larger than Size.
	LineSize int `yaml:"lineSize" json:"lineSize"`
}

// DefaultL1IConfig returns default configuration for the L1 instruction
// cache: 32KB with 64B lines.
func DefaultL1IConfig() Config {
	return Config{
		Size:     32 * 1024,
		LineSize: 64,
	}
}

// DefaultL1DConfig returns default configuration for the L1 data cache:
// 32KB with 64B lines.
func DefaultL1DConfig() Config {
	return Config{
		Size:     32 * 1024,
		LineSize: 64,
	}
}

// DefaultL2Config returns default configuration for the unified L2 cache:
// 256KB with 64B lines.
func DefaultL2Config() Config {
	return Config{
		Size:     256 * 1024,
		LineSize: 64,
	}
}

// NumLines returns the number of lines, Size / LineSize.
func (c Config) NumLines() int {
	if c.LineSize <= 0 {
		return 0
	}
	return c.Size / c.LineSize
}

// Validate checks that the geometry splits cleanly into offset, index and
// tag bits.
func (c Config) Validate() error {
	if c.Size <= 0 || c.LineSize <= 0 {
		return fmt.Errorf("%w: size %d and line size %d must be > 0",
			ErrInvalidConfig, c.Size, c.LineSize)
	}
	if !isPowerOfTwo(c.Size) {
		return fmt.Errorf("%w: size %d is not a power of two", ErrInvalidConfig, c.Size)
	}
	if !isPowerOfTwo(c.LineSize) {
		return fmt.Errorf("%w: line size %d is not a power of two",
			ErrInvalidConfig, c.LineSize)
	}
	if c.LineSize > c.Size {
		return fmt.Errorf("%w: line size %d exceeds size %d",
			ErrInvalidConfig, c.LineSize, c.Size)
	}
	return nil
}

func (c Config) offsetBits() int {
	return bits.TrailingZeros(uint(c.LineSize))
}

func (c Config) indexBits() int {
	return bits.TrailingZeros(uint(c.NumLines()))
}

func isPowerOfTwo(n int) bool {
	return n > 0 && n&(n-1) == 0
}
