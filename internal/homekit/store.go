package homekit

import (
	"strings"

	"github.com/brutella/hap"
	"github.com/cybre/yeelight-bridge/internal/errors"
	"go.mills.io/bitcask/v2"
)

// Store adapts a bitcask database to hap's storage interface, which
// holds pairing state, the accessory tree hash and the server's keys.
type Store struct {
	db bitcask.DB
}

var _ hap.Store = (*Store)(nil)

func NewStore(db bitcask.DB) *Store {
	return &Store{db: db}
}

func (s *Store) Set(key string, value []byte) error {
	if err := s.db.Put([]byte(key), value); err != nil {
		return errors.Wrapf(err, "put %s", key)
	}

	return nil
}

func (s *Store) Get(key string) ([]byte, error) {
	value, err := s.db.Get([]byte(key))
	if err != nil {
		return nil, errors.Wrapf(err, "get %s", key)
	}

	return value, nil
}

func (s *Store) Delete(key string) error {
	if err := s.db.Delete([]byte(key)); err != nil {
		return errors.Wrapf(err, "delete %s", key)
	}

	return nil
}

func (s *Store) KeysWithSuffix(suffix string) ([]string, error) {
	var keys []string

	err := s.db.ForEach(func(key bitcask.Key) error {
		if strings.HasSuffix(string(key), suffix) {
			keys = append(keys, string(key))
		}

		return nil
	})
	if err != nil {
		return nil, errors.Wrapf(err, "scan keys with suffix %q", suffix)
	}

	return keys, nil
}
