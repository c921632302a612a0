package dedup

import (
	"context"
	"os"
)

// partitionBySize groups candidates by byte length, the cheapest
// possible pre-filter: files of different length cannot be exact
// duplicates. Files that cannot be stat'd are counted as errors and
// dropped from all further passes.
func (f *Finder) partitionBySize(ctx context.Context, paths []string) (map[int64][]string, error) {
	partitions := make(map[int64][]string)

	for i, path := range paths {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		info, err := os.Stat(path)
		if err != nil {
			f.log.Warn("cannot stat file", "path", path, "error", err)
			f.errors.Add(1)
			continue
		}

		size := info.Size()
		f.sizes[path] = size
		partitions[size] = append(partitions[size], path)

		f.report(i+1, len(paths), PhaseSizing)
	}

	return partitions, nil
}
