package rocksdb

import (
	"github.com/linxGnu/grocksdb"

	"github.com/UltraSive/garage/internal/datastore"
)

type RocksDB struct {
	db        *grocksdb.DB
	readOpts  *grocksdb.ReadOptions
	writeOpts *grocksdb.WriteOptions
}

var _ datastore.Datastore = (*RocksDB)(nil)

func Open(path string) (*RocksDB, error) {
	opts := grocksdb.NewDefaultOptions()
	opts.SetCreateIfMissing(true)
	db, err := grocksdb.OpenDb(opts, path)
	if err != nil {
		return nil, err
	}
	return &RocksDB{
		db:        db,
		readOpts:  grocksdb.NewDefaultReadOptions(),
		writeOpts: grocksdb.NewDefaultWriteOptions(),
	}, nil
}

func (r *RocksDB) Get(key string) (string, bool, error) {
	v, err := r.db.Get(r.readOpts, []byte(key))
	if err != nil {
		return "", false, err
	}
	defer v.Free()
	if !v.Exists() {
		return "", false, nil
	}
	return string(v.Data()), true, nil
}

func (r *RocksDB) Put(key, value string) error {
	if err := r.db.Put(r.writeOpts, []byte(key), []byte(value)); err != nil {
		return &datastore.WriteError{Key: key, Err: err}
	}
	return nil
}

func (r *RocksDB) Delete(key string) error {
	return r.db.Delete(r.writeOpts, []byte(key))
}

// Clear deletes every key in one write batch.
func (r *RocksDB) Clear() error {
	batch := grocksdb.NewWriteBatch()
	defer batch.Destroy()

	it := r.db.NewIterator(r.readOpts)
	for it.SeekToFirst(); it.Valid(); it.Next() {
		k := it.Key()
		batch.Delete(k.Data())
		k.Free()
	}
	err := it.Err()
	it.Close()
	if err != nil {
		return err
	}
	return r.db.Write(r.writeOpts, batch)
}

func (r *RocksDB) List() (map[string]string, error) {
	out := make(map[string]string)
	it := r.db.NewIterator(r.readOpts)
	defer it.Close()
	for it.SeekToFirst(); it.Valid(); it.Next() {
		k, v := it.Key(), it.Value()
		out[string(k.Data())] = string(v.Data())
		k.Free()
		v.Free()
	}
	return out, it.Err()
}

func (r *RocksDB) Close() error {
	r.readOpts.Destroy()
	r.writeOpts.Destroy()
	r.db.Close()
	return nil
}
