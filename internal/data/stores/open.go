package stores

import (
	"fmt"

	"github.com/colonyops/revthreads/internal/data/db"
	"github.com/rs/zerolog"
)

// Open opens the database in dataDir. A corrupt file is moved aside and a
// fresh database is created in its place.
func Open(dataDir string, opts db.OpenOptions, log zerolog.Logger) (*db.DB, error) {
	database, err := db.Open(dataDir, opts)
	if err == nil {
		return database, nil
	}
	if !IsCorruptionError(err) {
		return nil, err
	}

	backup, recErr := RecoverFromCorruption(dataDir)
	if recErr != nil {
		return nil, fmt.Errorf("%w (recovery failed: %v)", err, recErr)
	}
	log.Warn().Err(err).Str("backup", backup).Msg("database was corrupt, starting fresh")

	return db.Open(dataDir, opts)
}
