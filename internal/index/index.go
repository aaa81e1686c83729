package index

// DocIndex defines the interface for document indexing operations.
// Consumers should depend on this interface rather than the concrete *DB type
// to facilitate testing with mocks.
type DocIndex interface {
	UpsertDoc(d DocRow, body string, links []string) error
	DeleteDoc(path string) error
	GetChecksum(path string) (string, error)
	GetDoc(path string) (*DocRow, error)
	ListDocs(q ListQuery) ([]DocRow, int, error)
	ListTags() ([]TagCount, error)
	Search(query string, limit int) ([]SearchResult, error)
	Backlinks(target string) ([]string, error)
	AllPaths() (map[string]struct{}, error)
	AllChecksums() (map[string]string, error)
	Ping() error
	Close() error
}

// Verify *DB satisfies DocIndex at compile time.
var _ DocIndex = (*DB)(nil)
