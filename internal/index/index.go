package index

// PostIndex defines the operations the converter needs from the index.
// Consumers depend on this interface rather than *DB.
type PostIndex interface {
	RecordPost(p PostRow, links []LinkRow) error
	Prune(keep map[string]struct{}) (int, error)
	Posts() ([]PostRow, error)
	UnresolvedLinks() ([]LinkRow, error)
	Close() error
}

// Verify *DB satisfies PostIndex at compile time.
var _ PostIndex = (*DB)(nil)
