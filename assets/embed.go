package assets

import (
	"embed"
	"io"
)

//go:embed dictionary.json
var FS embed.FS

// DictionaryName is the embedded default vocabulary.
const DictionaryName = "dictionary.json"

// Dictionary opens the embedded default dictionary. Callers must close it.
func Dictionary() (io.ReadCloser, error) {
	return FS.Open(DictionaryName)
}
