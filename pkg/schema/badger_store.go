package schema

import (
	"cmp"
	"encoding/binary"
	"errors"
	"fmt"

	"github.com/dgraph-io/badger/v4"
)

// IDCodec converts identifiers to and from badger key suffixes. Encodings
// must sort bytewise in identifier order.
type IDCodec[ID cmp.Ordered] interface {
	Encode(id ID) []byte
	Decode(b []byte) (ID, error)
}

// Uint64Codec encodes uint64 identifiers big-endian.
type Uint64Codec struct{}

func (Uint64Codec) Encode(id uint64) []byte { return binary.BigEndian.AppendUint64(nil, id) }

func (Uint64Codec) Decode(b []byte) (uint64, error) {
	if len(b) != 8 {
		return 0, fmt.Errorf("invalid uint64 key suffix length %d", len(b))
	}
	return binary.BigEndian.Uint64(b), nil
}

// StringCodec stores string identifiers verbatim.
type StringCodec struct{}

func (StringCodec) Encode(id string) []byte         { return []byte(id) }
func (StringCodec) Decode(b []byte) (string, error) { return string(b), nil }

// BadgerStore keeps the index in an in-memory BadgerDB instance. Each entry
// is a key with an empty value:
//
//	uint32 BE len(indexKey) | indexKey | codec(id)
//
// The length prefix keeps one index key from being a prefix of another.
type BadgerStore[ID cmp.Ordered] struct {
	db    *badger.DB
	codec IDCodec[ID]
}

// NewBadgerStore opens an in-memory badger database for the index.
func NewBadgerStore[ID cmp.Ordered](codec IDCodec[ID]) (*BadgerStore[ID], error) {
	if codec == nil {
		return nil, errors.New("schema: badger store requires an id codec")
	}
	opts := badger.DefaultOptions("").
		WithInMemory(true).
		WithLogger(nil).
		WithMemTableSize(8 << 20).
		WithNumMemtables(2).
		WithBlockCacheSize(8 << 20).
		WithIndexCacheSize(4 << 20)

	db, err := badger.Open(opts)
	if err != nil {
		return nil, fmt.Errorf("failed to open index store: %w", err)
	}
	return &BadgerStore[ID]{db: db, codec: codec}, nil
}

func entryPrefix(key string) []byte {
	buf := make([]byte, 4, 4+len(key))
	binary.BigEndian.PutUint32(buf, uint32(len(key)))
	return append(buf, key...)
}

func (s *BadgerStore[ID]) entryKey(key string, id ID) []byte {
	return append(entryPrefix(key), s.codec.Encode(id)...)
}

func (s *BadgerStore[ID]) Add(key string, id ID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Set(s.entryKey(key, id), []byte{})
	})
}

func (s *BadgerStore[ID]) Remove(key string, id ID) error {
	return s.db.Update(func(txn *badger.Txn) error {
		return txn.Delete(s.entryKey(key, id))
	})
}

func (s *BadgerStore[ID]) Lookup(key string) ([]ID, error) {
	prefix := entryPrefix(key)
	out := []ID{}
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		opts.Prefix = prefix
		it := txn.NewIterator(opts)
		defer it.Close()

		for it.Seek(prefix); it.ValidForPrefix(prefix); it.Next() {
			id, err := s.codec.Decode(it.Item().KeyCopy(nil)[len(prefix):])
			if err != nil {
				return err
			}
			out = append(out, id)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return out, nil
}

// Keys counts distinct index keys by walking the key space once.
func (s *BadgerStore[ID]) Keys() (int, error) {
	n := 0
	err := s.db.View(func(txn *badger.Txn) error {
		opts := badger.DefaultIteratorOptions
		opts.PrefetchValues = false
		it := txn.NewIterator(opts)
		defer it.Close()

		var last []byte
		for it.Rewind(); it.Valid(); it.Next() {
			k := it.Item().Key()
			if len(k) < 4 {
				continue
			}
			end := 4 + int(binary.BigEndian.Uint32(k[:4]))
			if end > len(k) {
				continue
			}
			if last == nil || string(last) != string(k[:end]) {
				last = append(last[:0], k[:end]...)
				n++
			}
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return n, nil
}

func (s *BadgerStore[ID]) Clear() error {
	return s.db.DropAll()
}

func (s *BadgerStore[ID]) Close() error {
	return s.db.Close()
}
