package rdapbootstrap

import (
	"context"
	"encoding/binary"
	"errors"
	"time"
)

// Record is a stored value and the time it was last written or touched.
type Record struct {
	Value    []byte
	Modified time.Time
}

// Store is the key-value store behind the registry mirror. Implementations
// must be safe for concurrent use; they need not be linearizable.
type Store interface {
	// Get returns found=false, err=nil for a missing key.
	Get(ctx context.Context, key string) (rec Record, found bool, err error)
	Set(ctx context.Context, key string, rec Record) error
	// Touch moves Modified forward without rewriting the value. Touching a
	// missing key is not an error.
	Touch(ctx context.Context, key string, at time.Time) error
	Close() error
}

// StoreBackend enumerates supported store types.
type StoreBackend string

const (
	StoreBackendMemory  StoreBackend = "memory"
	StoreBackendRedis   StoreBackend = "redis"
	StoreBackendLevelDB StoreBackend = "leveldb"
)

var errCorruptRecord = errors.New("corrupt store record")

// Encoded records are an 8-byte big-endian unix-nano timestamp followed by
// the value, so Touch can rewrite the header in place.
const recordHeaderLen = 8

func encodeRecord(rec Record) []byte {
	b := make([]byte, recordHeaderLen+len(rec.Value))
	binary.BigEndian.PutUint64(b, uint64(rec.Modified.UnixNano()))
	copy(b[recordHeaderLen:], rec.Value)
	return b
}

func decodeRecord(b []byte) (Record, error) {
	if len(b) < recordHeaderLen {
		return Record{}, errCorruptRecord
	}
	ns := int64(binary.BigEndian.Uint64(b[:recordHeaderLen]))
	v := make([]byte, len(b)-recordHeaderLen)
	copy(v, b[recordHeaderLen:])
	return Record{Value: v, Modified: time.Unix(0, ns)}, nil
}

func encodeTimestamp(at time.Time) []byte {
	b := make([]byte, recordHeaderLen)
	binary.BigEndian.PutUint64(b, uint64(at.UnixNano()))
	return b
}
