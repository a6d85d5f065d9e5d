package storage

import (
	"errors"
	"io/fs"
	"os"
)

// sqliteCompanions are the files SQLite keeps next to a database while it is open.
var sqliteCompanions = []string{"", "-wal", "-shm", "-journal"}

// Usage is the on-disk footprint of one or more lookup databases.
type Usage struct {
	Files map[string]int64 `json:"files"`
	Total int64            `json:"total"`
}

// DiskUsage sizes each database path together with its WAL, shared-memory and
// rollback journal files. Files that do not exist are left out.
func DiskUsage(dbPaths ...string) (*Usage, error) {
	u := &Usage{Files: make(map[string]int64)}
	for _, p := range dbPaths {
		if p == "" || p == ":memory:" {
			continue
		}
		for _, suffix := range sqliteCompanions {
			name := p + suffix
			info, err := os.Stat(name)
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			if err != nil {
				return nil, err
			}
			if info.IsDir() {
				continue
			}
			if _, seen := u.Files[name]; seen {
				continue
			}
			u.Files[name] = info.Size()
			u.Total += info.Size()
		}
	}
	return u, nil
}
