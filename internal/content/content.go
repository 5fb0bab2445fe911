// Package content embeds the published curriculum, one JSON document per week.
package content

import (
	"embed"
	"io/fs"
	"sync"

	"github.com/pavelanni/readingprep/internal/curriculum"
)

// TargetCount is the number of weeks the curriculum must cover.
const TargetCount = 60

//go:embed weeks/*.json
var weeks embed.FS

// FS returns the embedded week documents.
func FS() fs.FS {
	return weeks
}

// Load builds the embedded catalog. The work happens once per process;
// later calls return the same catalog or the same error.
var Load = sync.OnceValues(func() (*curriculum.Catalog, error) {
	return curriculum.Build(weeks, TargetCount)
})
