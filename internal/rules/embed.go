package rules

import (
	"embed"
	"fmt"
	"io/fs"

	"secrules/internal/logging"
)

//go:embed corpus
var embeddedCorpus embed.FS

// Embedded loads the corpus compiled into the binary. It is the fallback
// source when no local corpus directory exists yet, and the seed that
// `secrules init` materializes to disk.
func Embedded(logger *logging.AppLogger) (*Corpus, error) {
	sub, err := fs.Sub(embeddedCorpus, "corpus")
	if err != nil {
		return nil, fmt.Errorf("embedded corpus unavailable: %w", err)
	}
	return LoadFS(sub, logger)
}
