package dataset

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"golang.org/x/text/encoding/charmap"
	"golang.org/x/text/transform"
)

// LoadOptions controls file loading. TargetCol selects the class column,
// -1 meaning the last column. KEEL archives ship Latin-1 files, so Latin1
// decodes them through a charmap transform.
type LoadOptions struct {
	TargetCol int
	Header    bool
	Latin1    bool
	// Secure shifts every class label by +2 when -1 occurs as a genuine
	// class, so -1 stays reserved for unlabeled instances.
	Secure bool
}

// DefaultLoadOptions matches the common KEEL layout: last column is the
// target, no header, secure labels.
func DefaultLoadOptions() LoadOptions {
	return LoadOptions{TargetCol: -1, Secure: true}
}

const unlabeledSentinel = -1 << 30

// ReadCSV loads a numeric-feature CSV. Target tokens "unlabeled" and "?"
// mark unlabeled instances (-1 in the returned labels); categorical targets
// are label-encoded in ascending lexical order.
func ReadCSV(path string, opts LoadOptions) ([][]float64, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	reader := csv.NewReader(decodeReader(file, opts.Latin1))
	reader.TrimLeadingSpace = true

	records, err := reader.ReadAll()
	if err != nil {
		return nil, nil, err
	}
	if opts.Header && len(records) > 0 {
		records = records[1:]
	}
	return parseRecords(records, opts)
}

// ReadKEEL loads a KEEL .dat file (http://www.keel.es/): @attribute and
// @outputs header lines followed by @data and CSV rows.
func ReadKEEL(path string, opts LoadOptions) ([][]float64, []int, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, nil, err
	}
	defer file.Close()

	scanner := bufio.NewScanner(decodeReader(file, opts.Latin1))
	attributes := make([]string, 0)
	target := ""
	var records [][]string
	inData := false
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" {
			continue
		}
		if inData {
			records = append(records, strings.Split(line, ","))
			continue
		}
		lower := strings.ToLower(line)
		switch {
		case strings.HasPrefix(lower, "@attribute"):
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				attributes = append(attributes, parts[1])
			}
		case strings.HasPrefix(lower, "@outputs"):
			parts := strings.Fields(line)
			if len(parts) >= 2 {
				target = strings.TrimSuffix(parts[1], ",")
			}
		case strings.HasPrefix(lower, "@data"):
			inData = true
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, nil, err
	}
	if len(records) == 0 {
		return nil, nil, errors.New("no data rows")
	}

	if target != "" {
		for i, name := range attributes {
			if name == target {
				opts.TargetCol = i
				break
			}
		}
	}
	return parseRecords(records, opts)
}

func decodeReader(r io.Reader, latin1 bool) io.Reader {
	if latin1 {
		return transform.NewReader(r, charmap.ISO8859_1.NewDecoder())
	}
	return r
}

func parseRecords(records [][]string, opts LoadOptions) ([][]float64, []int, error) {
	if len(records) == 0 {
		return nil, nil, errors.New("no data rows")
	}
	width := len(records[0])
	targetCol := opts.TargetCol
	if targetCol < 0 {
		targetCol = width - 1
	}
	if targetCol >= width {
		return nil, nil, fmt.Errorf("target column %d out of range", targetCol)
	}

	X := make([][]float64, 0, len(records))
	rawY := make([]string, 0, len(records))
	for n, record := range records {
		if len(record) != width {
			return nil, nil, fmt.Errorf("row %d has %d columns, expected %d", n, len(record), width)
		}
		row := make([]float64, 0, width-1)
		for i, field := range record {
			field = strings.TrimSpace(field)
			if i == targetCol {
				rawY = append(rawY, field)
				continue
			}
			v, err := strconv.ParseFloat(field, 64)
			if err != nil {
				return nil, nil, fmt.Errorf("row %d column %d: %v", n, i, err)
			}
			row = append(row, v)
		}
		X = append(X, row)
	}

	y, err := parseTargets(rawY, opts.Secure)
	if err != nil {
		return nil, nil, err
	}
	return X, y, nil
}

func parseTargets(raw []string, secure bool) ([]int, error) {
	y := make([]int, len(raw))
	categories := make(map[string]bool)
	numeric := true
	minusOneClass := false
	for i, field := range raw {
		lower := strings.ToLower(field)
		if lower == "unlabeled" || field == "?" {
			y[i] = unlabeledSentinel
			continue
		}
		v, err := strconv.Atoi(field)
		if err != nil {
			numeric = false
			categories[field] = true
			continue
		}
		if v == -1 {
			minusOneClass = true
		}
		y[i] = v
	}

	if !numeric {
		order := make(map[string]int, len(categories))
		sorted := make([]string, 0, len(categories))
		for c := range categories {
			sorted = append(sorted, c)
		}
		sortStrings(sorted)
		for i, c := range sorted {
			order[c] = i
		}
		for i, field := range raw {
			if y[i] == unlabeledSentinel {
				continue
			}
			code, ok := order[field]
			if !ok {
				return nil, fmt.Errorf("mixed numeric and categorical targets (%q)", field)
			}
			y[i] = code
		}
		minusOneClass = false
	}

	if secure && minusOneClass {
		for i := range y {
			if y[i] != unlabeledSentinel {
				y[i] += 2
			}
		}
	}
	for i := range y {
		if y[i] == unlabeledSentinel {
			y[i] = -1
		}
	}
	return y, nil
}

func sortStrings(s []string) {
	for i := 1; i < len(s); i++ {
		for j := i; j > 0 && s[j-1] > s[j]; j-- {
			s[j-1], s[j] = s[j], s[j-1]
		}
	}
}

// SplitLabeled separates a -1-convention dataset into the labeled and
// unlabeled parts expected by the wrappers.
func SplitLabeled(X [][]float64, y []int) (XL [][]float64, yL []int, XU [][]float64) {
	for i, label := range y {
		if label == -1 {
			XU = append(XU, X[i])
		} else {
			XL = append(XL, X[i])
			yL = append(yL, label)
		}
	}
	return XL, yL, XU
}
