package stations

import (
	"encoding/csv"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"
)

// nullSentinel marks an absent value in the stations CSV export.
const nullSentinel = `\N`

// Directory maps lowercased station name variants to short station codes.
// Built once at startup and read-only afterwards.
type Directory struct {
	codes    map[string]string
	names    map[string]string
	variants []string
}

// Load reads a 5-column stations CSV (official name, long name, alias,
// primary code, fallback code) and builds the lookup directory. A missing
// file is a fatal startup error for the caller.
func Load(path string, log *logrus.Logger) (*Directory, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("stations directory not found: %s: %w", path, err)
	}
	defer f.Close()

	reader := csv.NewReader(f)
	reader.FieldsPerRecord = -1

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			log.WithFields(logrus.Fields{
				"path":  path,
				"error": err.Error(),
			}).Warn("Skipping malformed stations row")
			continue
		}
		rows = append(rows, row)
	}

	dir := FromRows(rows)

	log.WithFields(logrus.Fields{
		"path":     path,
		"variants": len(dir.codes),
		"stations": len(dir.names),
	}).Info("Station directory loaded")

	return dir, nil
}

// FromRows builds a Directory from raw CSV rows. Later rows overwrite
// earlier ones on colliding name variants (last-write-wins).
func FromRows(rows [][]string) *Directory {
	dir := &Directory{
		codes: make(map[string]string),
		names: make(map[string]string),
	}

	for _, row := range rows {
		if len(row) < 5 {
			continue
		}
		official, longname, alias := row[0], row[1], row[2]

		code := strings.TrimSpace(row[3])
		if code == "" || code == nullSentinel {
			code = strings.TrimSpace(row[4])
		}
		if code == "" || code == nullSentinel {
			continue
		}

		for _, variant := range []string{official, longname, alias} {
			variant = strings.TrimSpace(variant)
			if variant == "" || variant == nullSentinel {
				continue
			}
			dir.codes[strings.ToLower(variant)] = code
		}

		if official != "" && official != nullSentinel {
			dir.names[code] = strings.TrimSpace(official)
		}
	}

	dir.variants = make([]string, 0, len(dir.codes))
	for variant := range dir.codes {
		dir.variants = append(dir.variants, variant)
	}
	// Longest-first so that multi-word names win phrase matching before
	// their substrings ("london liverpool street" before "london").
	sort.Slice(dir.variants, func(i, j int) bool {
		if len(dir.variants[i]) != len(dir.variants[j]) {
			return len(dir.variants[i]) > len(dir.variants[j])
		}
		return dir.variants[i] < dir.variants[j]
	})

	return dir
}

// Lookup resolves a station name variant to its code.
func (d *Directory) Lookup(name string) (string, bool) {
	code, ok := d.codes[strings.ToLower(strings.TrimSpace(name))]
	return code, ok
}

// DisplayName resolves a code back to the official station name, falling
// back to the raw code when no name is known.
func (d *Directory) DisplayName(code string) string {
	if name, ok := d.names[code]; ok {
		return name
	}
	return code
}

// Variants returns all known name variants, longest first.
func (d *Directory) Variants() []string {
	return d.variants
}

// Nearest finds the name variant closest to s by edit distance and returns
// its code together with the similarity ratio in [0,1].
func (d *Directory) Nearest(s string) (string, float64) {
	s = strings.ToLower(strings.TrimSpace(s))
	if s == "" {
		return "", 0
	}

	bestCode := ""
	bestSim := 0.0
	for _, variant := range d.variants {
		sim := similarity(s, variant)
		if sim > bestSim {
			bestSim = sim
			bestCode = d.codes[variant]
		}
	}

	return bestCode, bestSim
}

func similarity(s1, s2 string) float64 {
	if s1 == s2 {
		return 1.0
	}

	maxLen := len(s1)
	if len(s2) > maxLen {
		maxLen = len(s2)
	}
	if maxLen == 0 {
		return 0
	}

	dist := levenshteinDistance(s1, s2)
	sim := 1.0 - float64(dist)/float64(maxLen)
	if sim < 0 {
		return 0
	}
	return sim
}

func levenshteinDistance(s1, s2 string) int {
	if len(s1) == 0 {
		return len(s2)
	}
	if len(s2) == 0 {
		return len(s1)
	}

	matrix := make([][]int, len(s1)+1)
	for i := range matrix {
		matrix[i] = make([]int, len(s2)+1)
		matrix[i][0] = i
	}
	for j := 0; j <= len(s2); j++ {
		matrix[0][j] = j
	}

	for i := 1; i <= len(s1); i++ {
		for j := 1; j <= len(s2); j++ {
			cost := 0
			if s1[i-1] != s2[j-1] {
				cost = 1
			}

			matrix[i][j] = min3(
				matrix[i-1][j]+1,
				matrix[i][j-1]+1,
				matrix[i-1][j-1]+cost,
			)
		}
	}

	return matrix[len(s1)][len(s2)]
}

func min3(a, b, c int) int {
	if a < b && a < c {
		return a
	} else if b < c {
		return b
	}
	return c
}
