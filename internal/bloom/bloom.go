// Package bloom implements the no-false-negative existence filter the
// Searcher consults before hitting the Store, structurally grounded
// on original_source's FileBloomFilter and persisted with a magic
// header framing adapted from AlexC1991-VoxAI_IDE's mmap store.
package bloom

import (
	"bufio"
	"encoding/binary"
	"math"
	"os"
	"sync"

	"github.com/cespare/xxhash/v2"

	"github.com/standardbeagle/filedex/internal/errs"
)

const (
	magic   = "FDXB"
	version = 1

	// DefaultCapacity and DefaultErrorRate match original_source's
	// FileBloomFilter defaults.
	DefaultCapacity  = 10_000_000
	DefaultErrorRate = 0.0001
)

// Filter is a thread-safe bloom filter over indexed paths.
type Filter struct {
	mu       sync.RWMutex
	bits     []uint64
	numBits  uint64
	numHash  uint32
	count    uint64
	capacity uint64
	errRate  float64
}

// New sizes a Filter for capacity items at the given false-positive
// rate using the standard bloom-filter sizing formulas.
func New(capacity uint64, errorRate float64) *Filter {
	if capacity == 0 {
		capacity = DefaultCapacity
	}
	if errorRate <= 0 || errorRate >= 1 {
		errorRate = DefaultErrorRate
	}
	m := optimalBits(capacity, errorRate)
	k := optimalHashCount(m, capacity)
	return &Filter{
		bits:     make([]uint64, (m+63)/64),
		numBits:  m,
		numHash:  k,
		capacity: capacity,
		errRate:  errorRate,
	}
}

func optimalBits(n uint64, p float64) uint64 {
	m := -float64(n) * math.Log(p) / (math.Ln2 * math.Ln2)
	return uint64(math.Ceil(m))
}

func optimalHashCount(m, n uint64) uint32 {
	k := math.Round(float64(m) / float64(n) * math.Ln2)
	if k < 1 {
		k = 1
	}
	return uint32(k)
}

// hashPair derives two independent 64-bit hashes from path using
// xxhash with two different seeds; per-slot hashes are produced by
// double-hashing (Kirsch-Mitzenmacher) so only two hash evaluations
// are needed regardless of numHash.
func hashPair(path string) (uint64, uint64) {
	h1 := xxhash.Sum64String(path)
	h2 := xxhash.Sum64String(path + "\x00salt")
	return h1, h2
}

func (f *Filter) slot(h1, h2 uint64, i uint32) uint64 {
	return (h1 + uint64(i)*h2) % f.numBits
}

// Insert adds path to the filter.
func (f *Filter) Insert(path string) {
	h1, h2 := hashPair(path)
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := uint32(0); i < f.numHash; i++ {
		bit := f.slot(h1, h2, i)
		f.bits[bit/64] |= 1 << (bit % 64)
	}
	f.count++
}

// MightContain reports whether path may be present. It never returns
// false for a path actually inserted (I3) but may return true for a
// path never inserted.
func (f *Filter) MightContain(path string) bool {
	h1, h2 := hashPair(path)
	f.mu.RLock()
	defer f.mu.RUnlock()
	for i := uint32(0); i < f.numHash; i++ {
		bit := f.slot(h1, h2, i)
		if f.bits[bit/64]&(1<<(bit%64)) == 0 {
			return false
		}
	}
	return true
}

// Clear resets the filter to empty, keeping its current sizing.
func (f *Filter) Clear() {
	f.mu.Lock()
	defer f.mu.Unlock()
	for i := range f.bits {
		f.bits[i] = 0
	}
	f.count = 0
}

// Len returns the number of items Insert has been called with.
func (f *Filter) Len() uint64 {
	f.mu.RLock()
	defer f.mu.RUnlock()
	return f.count
}

func (f *Filter) IsEmpty() bool { return f.Len() == 0 }

// PathSource supplies every path the filter should be rebuilt from.
type PathSource interface {
	AllPaths(root string) ([]string, error)
}

// RebuildFrom clears the filter and reinserts every path the source
// currently holds for root.
func (f *Filter) RebuildFrom(source PathSource, root string) error {
	paths, err := source.AllPaths(root)
	if err != nil {
		return errs.New(errs.KindStoreIo, "rebuilding bloom filter", err)
	}
	f.Clear()
	for _, p := range paths {
		f.Insert(p)
	}
	return nil
}

// Save persists the filter to path using a magic-header + version +
// sizing + raw-bitset framing, so a restart can reload without a full
// RebuildFrom scan.
func (f *Filter) Save(path string) error {
	tmp := path + ".tmp"
	file, err := os.Create(tmp)
	if err != nil {
		return errs.WithPath(errs.KindStoreIo, path, "creating bloom sidecar", err)
	}
	defer file.Close()

	w := bufio.NewWriter(file)
	f.mu.RLock()
	defer f.mu.RUnlock()

	if _, err := w.WriteString(magic); err != nil {
		return err
	}
	hdr := make([]byte, 4+8+8+4+8)
	binary.LittleEndian.PutUint32(hdr[0:4], version)
	binary.LittleEndian.PutUint64(hdr[4:12], f.numBits)
	binary.LittleEndian.PutUint64(hdr[12:20], f.count)
	binary.LittleEndian.PutUint32(hdr[20:24], f.numHash)
	binary.LittleEndian.PutUint64(hdr[24:32], uint64(len(f.bits)))
	if _, err := w.Write(hdr); err != nil {
		return err
	}
	for _, word := range f.bits {
		var b [8]byte
		binary.LittleEndian.PutUint64(b[:], word)
		if _, err := w.Write(b[:]); err != nil {
			return err
		}
	}
	if err := w.Flush(); err != nil {
		return err
	}
	file.Close()
	return os.Rename(tmp, path)
}

// Load reads a filter previously written by Save.
func Load(path string) (*Filter, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errs.WithPath(errs.KindStoreIo, path, "reading bloom sidecar", err)
	}
	if len(data) < len(magic)+32 || string(data[:len(magic)]) != magic {
		return nil, errs.WithPath(errs.KindStoreIo, path, "bad bloom sidecar header", nil)
	}
	off := len(magic)
	ver := binary.LittleEndian.Uint32(data[off : off+4])
	if ver != version {
		return nil, errs.WithPath(errs.KindStoreIo, path, "unsupported bloom sidecar version", nil)
	}
	off += 4
	numBits := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	count := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8
	numHash := binary.LittleEndian.Uint32(data[off : off+4])
	off += 4
	numWords := binary.LittleEndian.Uint64(data[off : off+8])
	off += 8

	bits := make([]uint64, numWords)
	for i := range bits {
		if off+8 > len(data) {
			return nil, errs.WithPath(errs.KindStoreIo, path, "truncated bloom sidecar", nil)
		}
		bits[i] = binary.LittleEndian.Uint64(data[off : off+8])
		off += 8
	}

	return &Filter{
		bits:    bits,
		numBits: numBits,
		numHash: numHash,
		count:   count,
	}, nil
}
