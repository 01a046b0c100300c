package crawl

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// ReadSeeds parses a newline-delimited list of domains or URLs. Blank
// lines and lines starting with '#' are skipped.
func ReadSeeds(r io.Reader) ([]string, error) {
	var seeds []string
	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		seeds = append(seeds, line)
	}
	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan seed list: %w", err)
	}
	return seeds, nil
}

// ReadSeedFile reads seeds from a file path.
func ReadSeedFile(path string) ([]string, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("open seed file: %w", err)
	}
	defer f.Close()
	return ReadSeeds(f)
}
