package index

import (
	"log/slog"
	"path"
	"strings"
	"time"

	"github.com/starford/ansuz/internal/checksum"
	"github.com/starford/ansuz/internal/parser"
	"github.com/starford/ansuz/internal/storage"
)

// Sync walks the content tree and brings the index up to date:
//   - new/changed documents are parsed and upserted
//   - documents removed from disk are deleted from the index
func Sync(db *DB, store storage.Provider, logger *slog.Logger) error {
	metas, err := store.List("")
	if err != nil {
		return err
	}

	checksums, err := db.AllChecksums()
	if err != nil {
		return err
	}

	disk := make(map[string]struct{}, len(metas))
	for _, m := range metas {
		disk[m.Path] = struct{}{}

		if checksums[m.Path] == m.Checksum {
			continue
		}

		data, err := store.Read(m.Path)
		if err != nil {
			logger.Warn("sync: read failed", slog.String("path", m.Path), slog.String("error", err.Error()))
			continue
		}
		if err := IndexDoc(db, m.Path, data); err != nil {
			logger.Warn("sync: index failed", slog.String("path", m.Path), slog.String("error", err.Error()))
		} else {
			logger.Debug("sync: indexed", slog.String("path", m.Path))
		}
	}

	// Remove stale entries.
	for p := range checksums {
		if _, ok := disk[p]; !ok {
			if err := db.DeleteDoc(p); err != nil {
				logger.Warn("sync: delete failed", slog.String("path", p), slog.String("error", err.Error()))
			} else {
				logger.Debug("sync: removed stale", slog.String("path", p))
			}
		}
	}

	return nil
}

// IndexDoc parses data and upserts it into the index. A document with broken
// front matter is still indexed body-only; lint surfaces the problem. The
// document service, sync, and watcher all index through here.
func IndexDoc(db DocIndex, docPath string, data []byte) error {
	res, err := parser.Parse(data)
	if err != nil {
		return err
	}

	row := DocRow{
		Path:      docPath,
		Title:     docTitle(docPath, res),
		Date:      res.Meta.Date,
		Draft:     res.Meta.Draft,
		Summary:   res.Meta.Summary,
		Checksum:  checksum.Sum(data),
		Tags:      res.Meta.Tags,
		Words:     wordCount(res.Body),
		UpdatedAt: time.Now(),
	}
	return db.UpsertDoc(row, res.Body, parser.InternalTargets(docPath, res.Links))
}

// docTitle falls back to the file name when neither front matter nor a
// top-level heading provides one.
func docTitle(docPath string, res *parser.Result) string {
	if res.Title != "" {
		return res.Title
	}
	return strings.TrimSuffix(path.Base(docPath), ".md")
}

func wordCount(body string) int {
	return len(strings.Fields(body))
}
