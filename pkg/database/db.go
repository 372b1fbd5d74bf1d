package database

// Ledger records which source directories the watch daemon has already
// split, so a restart does not reprocess them.
type Ledger interface {
	MarkProcessed(dirPath string) error
	IsProcessed(dirPath string) (bool, error)
	Close() error
}
