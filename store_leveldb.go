package rdapbootstrap

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/syndtr/goleveldb/leveldb"
)

// levelDBStore keeps records on local disk. It is for single-instance
// deployments that want the mirror to survive restarts.
type levelDBStore struct {
	db *leveldb.DB
	// serialises Touch's read-modify-write
	mu sync.Mutex
}

// OpenLevelDBStore opens (or creates) a LevelDB database at path.
func OpenLevelDBStore(path string) (Store, error) {
	db, err := leveldb.OpenFile(path, nil)
	if err != nil {
		return nil, err
	}
	return &levelDBStore{db: db}, nil
}

func (s *levelDBStore) Get(_ context.Context, key string) (Record, bool, error) {
	b, err := s.db.Get([]byte("r:"+key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return Record{}, false, nil
	}
	if err != nil {
		return Record{}, false, err
	}
	rec, err := decodeRecord(b)
	if err != nil {
		_ = s.db.Delete([]byte("r:"+key), nil)
		return Record{}, false, nil
	}
	return rec, true, nil
}

func (s *levelDBStore) Set(_ context.Context, key string, rec Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.db.Put([]byte("r:"+key), encodeRecord(rec), nil)
}

func (s *levelDBStore) Touch(_ context.Context, key string, at time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, err := s.db.Get([]byte("r:"+key), nil)
	if errors.Is(err, leveldb.ErrNotFound) {
		return nil
	}
	if err != nil {
		return err
	}
	if len(b) < recordHeaderLen {
		return errCorruptRecord
	}
	copy(b, encodeTimestamp(at))
	return s.db.Put([]byte("r:"+key), b, nil)
}

func (s *levelDBStore) Close() error { return s.db.Close() }
