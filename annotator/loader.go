package annotator

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// ItemPath returns the location of a domain's item file: <inputDir>/<itemType>/<domain>.txt.
func ItemPath(inputDir, itemType, domain string) string {
	return filepath.Join(inputDir, itemType, domain+".txt")
}

// LoadItems reads the target items for a domain, one per line.
func LoadItems(inputDir, itemType, domain string) ([]Item, error) {
	path := ItemPath(inputDir, itemType, domain)
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open item file for domain %s: %w", domain, err)
	}
	defer f.Close()

	items, err := ReadItems(f, domain)
	if err != nil {
		return nil, fmt.Errorf("failed to read item file %s: %w", path, err)
	}
	return items, nil
}

// ReadItems splits r into items. Lines are trimmed; blank lines are kept as empty
// items so that output stays aligned with the input file. Line length is unbounded.
func ReadItems(r io.Reader, domain string) ([]Item, error) {
	br := bufio.NewReader(r)

	var items []Item
	line := 0
	for {
		text, err := br.ReadString('\n')
		if err != nil && err != io.EOF {
			return nil, err
		}
		if text == "" && err == io.EOF {
			break
		}

		line++
		items = append(items, Item{
			Domain: domain,
			Line:   line,
			Text:   strings.TrimSpace(text),
		})

		if err == io.EOF {
			break
		}
	}
	return items, nil
}
