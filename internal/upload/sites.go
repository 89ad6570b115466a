package upload

import (
	"bufio"
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/sakif/hoverspeak/internal/apperror"
)

var headerNames = map[string]bool{
	"url":            true,
	"site":           true,
	"website":        true,
	"receiving site": true,
	"receiving_site": true,
}

// ParseSites reads receiving-site URLs from a .txt or .csv file. Text files
// hold one URL per line; CSV files use the first column and may start with
// a header row. Blank lines and lines starting with # are skipped.
func ParseSites(filename string, data []byte) ([]string, error) {
	data = stripBOM(data)

	switch strings.ToLower(filepath.Ext(filename)) {
	case ".txt":
		return parseText(data)
	case ".csv":
		return parseCSV(data)
	default:
		return nil, apperror.ValidationFailed("receivingSitesFile", "bulk upload accepts .txt or .csv files")
	}
}

func parseText(data []byte) ([]string, error) {
	var sites []string
	sc := bufio.NewScanner(bytes.NewReader(data))
	for sc.Scan() {
		line := strings.TrimSpace(sc.Text())
		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}
		sites = append(sites, line)
	}
	if err := sc.Err(); err != nil {
		return nil, fmt.Errorf("reading sites file: %w", err)
	}
	return sites, nil
}

func parseCSV(data []byte) ([]string, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.Comment = '#'
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var sites []string
	first := true
	for {
		rec, err := r.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, apperror.ValidationFailed("receivingSitesFile", fmt.Sprintf("malformed CSV: %v", err))
		}
		if len(rec) == 0 {
			continue
		}
		site := strings.TrimSpace(rec[0])
		if first {
			first = false
			if headerNames[strings.ToLower(site)] {
				continue
			}
		}
		if site == "" {
			continue
		}
		sites = append(sites, site)
	}
	return sites, nil
}

func stripBOM(b []byte) []byte {
	return bytes.TrimPrefix(b, []byte{0xEF, 0xBB, 0xBF})
}
