//go:build mage

package main

import (
	"bufio"
	"encoding/json"
	"fmt"
	"io/fs"
	"os"
	"strings"
	"unicode"

	"github.com/bmatcuk/doublestar/v4"
)

// Stats prints Go lines of code and documentation word counts.
func Stats() error {
	fsys := os.DirFS(".")
	files, err := doublestar.Glob(fsys, "{cmd,internal,pkg}/**/*.go")
	if err != nil {
		return err
	}

	var prodLines, testLines int
	for _, path := range files {
		count, countErr := countLines(fsys, path)
		if countErr != nil {
			continue
		}
		if strings.HasSuffix(path, "_test.go") {
			testLines += count
		} else {
			prodLines += count
		}
	}

	docWords, err := countWordsInGlob(fsys, "*.md")
	if err != nil {
		return err
	}

	record := map[string]int{
		"go_files":    len(files),
		"go_loc_prod": prodLines,
		"go_loc_test": testLines,
		"go_loc":      prodLines + testLines,
		"doc_wc":      docWords,
	}
	line, err := json.Marshal(record)
	if err != nil {
		return err
	}
	fmt.Println(string(line))
	return nil
}

func countLines(fsys fs.FS, path string) (int, error) {
	f, err := fsys.Open(path)
	if err != nil {
		return 0, err
	}
	defer f.Close()

	count := 0
	scanner := bufio.NewScanner(f)
	for scanner.Scan() {
		count++
	}
	return count, scanner.Err()
}

func countWordsInGlob(fsys fs.FS, pattern string) (int, error) {
	matches, err := doublestar.Glob(fsys, pattern)
	if err != nil {
		return 0, err
	}
	total := 0
	for _, path := range matches {
		data, readErr := fs.ReadFile(fsys, path)
		if readErr != nil {
			continue
		}
		total += countWords(string(data))
	}
	return total, nil
}

func countWords(s string) int {
	count := 0
	inWord := false
	for _, r := range s {
		if unicode.IsSpace(r) {
			inWord = false
		} else if !inWord {
			inWord = true
			count++
		}
	}
	return count
}
