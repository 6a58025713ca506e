package db

import (
	"github.com/cockroachdb/pebble"

	"github.com/guardiannet/gnlist-engine/pkg/collection/bytes"
)

func iterate(iter *pebble.Iterator, limit int, reverse bool, visit func(iter *pebble.Iterator)) error {
	count := 0
	first, next := iter.First, iter.Next
	if reverse {
		first, next = iter.Last, iter.Prev
	}
	for first(); iter.Valid(); next() {
		visit(iter)
		count++
		if limit != -1 && count >= limit {
			break
		}
	}
	if err := iter.Error(); err != nil {
		_ = iter.Close()
		return err
	}
	return iter.Close()
}

func iteratePrefix(iter *pebble.Iterator, limit int, reverse bool) ([]KeyValue, error) {
	data := []KeyValue{}
	err := iterate(iter, limit, reverse, func(iter *pebble.Iterator) {
		data = append(data, &keyValue{
			key:   bytes.Copy(iter.Key()),
			value: bytes.Copy(iter.Value()),
		})
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}

func iterateKeyPrefix(iter *pebble.Iterator, limit int, reverse bool) ([][]byte, error) {
	data := [][]byte{}
	err := iterate(iter, limit, reverse, func(iter *pebble.Iterator) {
		data = append(data, bytes.Copy(iter.Key()))
	})
	if err != nil {
		return nil, err
	}
	return data, nil
}
