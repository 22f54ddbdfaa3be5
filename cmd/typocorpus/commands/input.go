package commands

import (
	"bufio"
	"fmt"
	"io"
	"os"
	"strings"
)

// stdioPath selects stdin or stdout wherever a path is accepted.
const stdioPath = "-"

// commentPrefix starts an ignored line in URL lists.
const commentPrefix = "#"

// openInput returns a reader for path and a label for messages. Closing the
// returned closer is a no-op for stdin.
func openInput(path string, stdin io.Reader) (io.Reader, string, func() error, error) {
	if path == stdioPath {
		return stdin, "stdin", func() error { return nil }, nil
	}

	f, err := os.Open(path)
	if err != nil {
		return nil, "", nil, fmt.Errorf("open %s: %w", path, err)
	}

	return f, path, f.Close, nil
}

// readURLs returns repository URLs from args or, when none are given, one per
// line from inputPath (stdin when empty or "-").
func readURLs(args []string, inputPath string, stdin io.Reader) ([]string, error) {
	if len(args) > 0 {
		return args, nil
	}

	if inputPath == "" {
		inputPath = stdioPath
	}

	r, label, closeFn, err := openInput(inputPath, stdin)
	if err != nil {
		return nil, err
	}
	defer closeFn() //nolint:errcheck // read-only input

	var urls []string

	scanner := bufio.NewScanner(r)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())
		if line == "" || strings.HasPrefix(line, commentPrefix) {
			continue
		}

		urls = append(urls, line)
	}

	scanErr := scanner.Err()
	if scanErr != nil {
		return nil, fmt.Errorf("read %s: %w", label, scanErr)
	}

	return urls, nil
}
