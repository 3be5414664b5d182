// Package classify determines the format of input files and validates
// Stooq text exports by probing their header line.
package classify

import (
	"bufio"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/redline/redline/pkg/errors"
)

// Format represents a detected file format.
type Format uint8

const (
	FormatUnknown Format = iota
	FormatTXT
	FormatCSV
	FormatJSON
	FormatParquet
	FormatFeather
	FormatDuckDB
)

func (f Format) String() string {
	names := []string{"unknown", "txt", "csv", "json", "parquet", "feather", "duckdb"}
	if int(f) < len(names) {
		return names[f]
	}
	return "unknown"
}

// ParseFormat parses a format identifier. Unknown strings map to
// FormatUnknown.
func ParseFormat(s string) Format {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "txt", "stooq":
		return FormatTXT
	case "csv":
		return FormatCSV
	case "json", "jsonl":
		return FormatJSON
	case "parquet":
		return FormatParquet
	case "feather":
		return FormatFeather
	case "duckdb":
		return FormatDuckDB
	}
	return FormatUnknown
}

// extToFormat maps file extensions to formats.
var extToFormat = map[string]Format{
	".txt":     FormatTXT,
	".csv":     FormatCSV,
	".json":    FormatJSON,
	".parquet": FormatParquet,
	".feather": FormatFeather,
	".duckdb":  FormatDuckDB,
}

// RequiredStooqTokens are the header tokens every Stooq export carries.
var RequiredStooqTokens = []string{
	"<TICKER>", "<DATE>", "<TIME>", "<OPEN>", "<HIGH>", "<LOW>", "<CLOSE>", "<VOL>",
}

// FileDescriptor describes one classified input file. Immutable once
// produced.
type FileDescriptor struct {
	Path      string
	Format    Format
	SizeBytes int64
}

// Classifier inspects files by extension and header probe.
type Classifier struct {
	// ValidateStooqHeader controls whether .txt files are header-probed
	// for the required Stooq tokens.
	ValidateStooqHeader bool
}

// New returns a classifier with header validation enabled.
func New() *Classifier {
	return &Classifier{ValidateStooqHeader: true}
}

// Classify determines the format of a file. For .txt files it additionally
// validates the Stooq header shape unless validation is disabled.
func (c *Classifier) Classify(path string) (FileDescriptor, error) {
	info, err := os.Stat(path)
	if err != nil {
		if os.IsNotExist(err) {
			return FileDescriptor{}, errors.FileNotFound(path)
		}
		return FileDescriptor{}, errors.Wrap(err, errors.CodeFilePermission, "cannot stat file").
			WithContext("path", path)
	}

	ext := strings.ToLower(filepath.Ext(path))
	format, ok := extToFormat[ext]
	if !ok {
		return FileDescriptor{}, errors.UnknownFormat(path)
	}

	if format == FormatTXT && c.ValidateStooqHeader {
		if missing := missingStooqTokens(path); len(missing) > 0 {
			return FileDescriptor{}, errors.NotStooq(path, missing)
		}
	}

	return FileDescriptor{Path: path, Format: format, SizeBytes: info.Size()}, nil
}

// IsValidStooq reports whether the file opens, is readable as text, and its
// header tokens are a superset of the required Stooq set. I/O and decode
// problems yield false, never an error.
func IsValidStooq(path string) bool {
	return len(missingStooqTokens(path)) == 0
}

// missingStooqTokens reads the first line only and returns the required
// tokens absent from it. A read failure reports every token as missing.
func missingStooqTokens(path string) []string {
	f, err := os.Open(path)
	if err != nil {
		return RequiredStooqTokens
	}
	defer f.Close()

	scanner := bufio.NewScanner(f)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	if !scanner.Scan() {
		return RequiredStooqTokens
	}
	header := strings.TrimPrefix(strings.TrimSpace(scanner.Text()), "\ufeff")

	// Stooq exports are comma delimited; some mirrors use tabs.
	delim := ","
	if strings.Count(header, "\t") > strings.Count(header, ",") {
		delim = "\t"
	}

	present := make(map[string]bool)
	for _, tok := range strings.Split(header, delim) {
		present[strings.ToUpper(strings.TrimSpace(tok))] = true
	}

	var missing []string
	for _, tok := range RequiredStooqTokens {
		if !present[tok] {
			missing = append(missing, tok)
		}
	}
	return missing
}

// FindStooqFiles walks a directory tree and returns every .txt file whose
// header passes Stooq validation. Unreadable entries are skipped.
func FindStooqFiles(dir string) ([]string, error) {
	var found []string
	err := filepath.WalkDir(dir, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return nil
		}
		if d.IsDir() || !strings.EqualFold(filepath.Ext(path), ".txt") {
			return nil
		}
		if IsValidStooq(path) {
			found = append(found, path)
		}
		return nil
	})
	if err != nil {
		return nil, err
	}
	return found, nil
}
