package excel

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"path/filepath"
	"strings"

	"github.com/xuri/excelize/v2"

	"github.com/James99309/stargirl-reader/pkg/models"
)

// Target receives imported words. The vocabulary store satisfies it.
type Target interface {
	InitializeWord(record models.VocabularyRecord) bool
	AddContext(word string, ctx models.WordContext) bool
}

// ImportConfig defines the import configuration
type ImportConfig struct {
	FilePath            string // Path to the Excel or CSV file
	WordColumn          string // Column with the word
	DefinitionColumn    string // Column with the definition, optionally "english (translation)"
	PartOfSpeechColumn  string // Column with the part of speech
	PhoneticColumn      string // Column with the phonetic spelling
	PronunciationColumn string // Column with the audio URL
	ContextColumn       string // Column with a sentence the word appears in
	ChapterColumn       string // Column with the chapter of that sentence
	SheetName           string // Name of the sheet to import, first sheet when empty
	StartRow            int    // The row to start importing from (1-based index)
}

// DefaultImportConfig returns the default import configuration
func DefaultImportConfig() ImportConfig {
	return ImportConfig{
		WordColumn:          "A",
		DefinitionColumn:    "B",
		PartOfSpeechColumn:  "C",
		PhoneticColumn:      "D",
		PronunciationColumn: "E",
		ContextColumn:       "F",
		ChapterColumn:       "G",
		StartRow:            2, // By default, start from the second row (skip header)
	}
}

// ImportResult holds the result of an import operation
type ImportResult struct {
	TotalProcessed int
	Created        int
	ContextsAdded  int
	Skipped        int
	Errors         []string
}

// ImportWords imports words from an Excel or CSV file
func ImportWords(config ImportConfig, target Target) (*ImportResult, error) {
	// Check the file extension
	ext := strings.ToLower(filepath.Ext(config.FilePath))

	var rows [][]string
	var err error
	if ext == ".csv" {
		rows, err = readCSV(config.FilePath)
	} else {
		rows, err = readExcel(config.FilePath, config.SheetName)
	}
	if err != nil {
		return nil, err
	}

	result := &ImportResult{
		Errors: make([]string, 0),
	}
	for i, row := range rows {
		// Skip header rows
		if i < config.StartRow-1 {
			continue
		}
		if isBlank(row) {
			continue
		}

		result.TotalProcessed++
		if err := processRow(row, config, target, result); err != nil {
			result.Errors = append(result.Errors, fmt.Sprintf("Row %d: %v", i+1, err))
		}
	}
	return result, nil
}

// readExcel returns every row of the sheet
func readExcel(path, sheet string) ([][]string, error) {
	f, err := excelize.OpenFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open Excel file: %w", err)
	}
	defer f.Close()

	if sheet == "" {
		sheet = f.GetSheetName(0)
	}
	rows, err := f.GetRows(sheet)
	if err != nil {
		return nil, fmt.Errorf("failed to get rows: %w", err)
	}
	return rows, nil
}

// readCSV returns every record of the file
func readCSV(path string) ([][]string, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open CSV file: %w", err)
	}
	defer file.Close()

	reader := csv.NewReader(file)
	reader.FieldsPerRecord = -1 // Allow variable number of fields
	reader.LazyQuotes = true

	var rows [][]string
	for {
		row, err := reader.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("error reading CSV: %w", err)
		}
		rows = append(rows, row)
	}
	return rows, nil
}

// processRow adds one word. Existing words keep their metadata; only a new
// context sentence is attached to them.
func processRow(row []string, config ImportConfig, target Target, result *ImportResult) error {
	word := cleanWord(cell(row, config.WordColumn))
	definition := strings.TrimSpace(cell(row, config.DefinitionColumn))
	if word == "" {
		return fmt.Errorf("word cannot be empty")
	}
	if definition == "" {
		return fmt.Errorf("definition cannot be empty")
	}

	var ctx *models.WordContext
	if sentence := strings.TrimSpace(cell(row, config.ContextColumn)); sentence != "" {
		ctx = &models.WordContext{
			Sentence:  sentence,
			ChapterID: parseIntOrDefault(cell(row, config.ChapterColumn), 0, math.MaxInt32, 0),
		}
	}

	record := models.VocabularyRecord{
		Word:             word,
		Definition:       definition,
		PartOfSpeech:     strings.TrimSpace(cell(row, config.PartOfSpeechColumn)),
		Phonetic:         strings.TrimSpace(cell(row, config.PhoneticColumn)),
		PronunciationRef: strings.TrimSpace(cell(row, config.PronunciationColumn)),
		IsNew:            true,
	}
	if ctx != nil {
		record.Contexts = []models.WordContext{*ctx}
	}

	if target.InitializeWord(record) {
		result.Created++
		return nil
	}
	if ctx != nil && target.AddContext(word, *ctx) {
		result.ContextsAdded++
		return nil
	}
	result.Skipped++
	return nil
}

// cell returns the value in the given column letter, or "" when the row is short
func cell(row []string, column string) string {
	if column == "" {
		return ""
	}
	if colIdx := columnToIndex(column); colIdx >= 0 && colIdx < len(row) {
		return row[colIdx]
	}
	return ""
}

func isBlank(row []string) bool {
	for _, v := range row {
		if strings.TrimSpace(v) != "" {
			return false
		}
	}
	return true
}

// cleanWord removes inflection notes in brackets, "go (went, gone)" becomes "go"
func cleanWord(word string) string {
	indexOpenParen := strings.Index(word, "(")
	if indexOpenParen > 0 {
		return strings.TrimSpace(word[:indexOpenParen])
	}
	return strings.TrimSpace(word)
}

// Helper function to convert Excel column letter to index
func columnToIndex(column string) int {
	column = strings.ToUpper(column)
	index := 0
	for i := 0; i < len(column); i++ {
		index = index*26 + int(column[i]-'A'+1)
	}
	return index - 1
}

// Helper function to parse integer within a range
func parseIntInRange(s string, min, max int) (int, error) {
	var val int
	if _, err := fmt.Sscanf(strings.TrimSpace(s), "%d", &val); err != nil {
		return min, err
	}
	if val < min {
		return min, nil
	}
	if val > max {
		return max, nil
	}
	return val, nil
}

// Helper function to parse integer with default value
func parseIntOrDefault(s string, min, max, defaultVal int) int {
	if val, err := parseIntInRange(s, min, max); err == nil {
		return val
	}
	return defaultVal
}
