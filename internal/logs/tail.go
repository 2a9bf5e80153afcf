package logs

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sort"
	"time"
)

// ErrNoLogs reports that the log directory holds no agent log files.
var ErrNoLogs = errors.New("no log files found")

// Latest returns the newest file in dir whose name starts with prefix.
// Daily names sort chronologically, so the lexical maximum is the newest.
func Latest(dir, prefix string) (string, error) {
	matches, err := filepath.Glob(filepath.Join(dir, prefix+"-*.log"))
	if err != nil {
		return "", fmt.Errorf("list log files: %w", err)
	}
	if len(matches) == 0 {
		return "", fmt.Errorf("%w in %s", ErrNoLogs, dir)
	}
	sort.Strings(matches)
	return matches[len(matches)-1], nil
}

// Last returns up to limit trailing lines of path and the offset of its end.
func Last(path string, limit int) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, 0, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	if limit <= 0 {
		end, err := file.Seek(0, io.SeekEnd)
		if err != nil {
			return nil, 0, fmt.Errorf("seek log file: %w", err)
		}
		return nil, end, nil
	}

	scanner := newScanner(file)
	ring := make([]string, limit)
	count, idx := 0, 0
	for scanner.Scan() {
		ring[idx] = scanner.Text()
		idx = (idx + 1) % limit
		if count < limit {
			count++
		}
	}
	if err := scanner.Err(); err != nil {
		return nil, 0, fmt.Errorf("read log file: %w", err)
	}
	end, err := file.Seek(0, io.SeekEnd)
	if err != nil {
		return nil, 0, fmt.Errorf("seek log file: %w", err)
	}

	lines := make([]string, count)
	if count == limit {
		for i := 0; i < count; i++ {
			lines[i] = ring[(idx+i)%limit]
		}
	} else {
		copy(lines, ring[:count])
	}
	return lines, end, nil
}

// FollowOptions controls Follow.
type FollowOptions struct {
	Dir    string
	Prefix string
	// Path and Offset mark where reading resumes.
	Path   string
	Offset int64
	// Poll is the interval between checks for new lines.
	Poll time.Duration
}

// Follow emits complete lines appended after opts.Offset until ctx ends. When
// a newer daily file appears, the rest of the current file is drained and
// reading continues from the start of the new one.
func Follow(ctx context.Context, opts FollowOptions, emit func(string)) error {
	poll := opts.Poll
	if poll <= 0 {
		poll = 500 * time.Millisecond
	}
	path, offset := opts.Path, opts.Offset

	ticker := time.NewTicker(poll)
	defer ticker.Stop()
	for {
		lines, next, err := readFrom(path, offset)
		if err != nil {
			return err
		}
		for _, line := range lines {
			emit(line)
		}
		offset = next

		if latest, err := Latest(opts.Dir, opts.Prefix); err == nil && latest > path {
			rest, _, err := readFrom(path, offset)
			if err != nil {
				return err
			}
			for _, line := range rest {
				emit(line)
			}
			path, offset = latest, 0
			continue
		}

		select {
		case <-ctx.Done():
			return nil
		case <-ticker.C:
		}
	}
}

// readFrom returns the complete lines after offset. A trailing partial line
// is left for the next read.
func readFrom(path string, offset int64) ([]string, int64, error) {
	file, err := os.Open(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, offset, nil
		}
		return nil, offset, fmt.Errorf("open log file: %w", err)
	}
	defer file.Close()

	info, err := file.Stat()
	if err != nil {
		return nil, offset, fmt.Errorf("stat log file: %w", err)
	}
	if offset > info.Size() {
		offset = 0
	}
	if _, err := file.Seek(offset, io.SeekStart); err != nil {
		return nil, offset, fmt.Errorf("seek log file: %w", err)
	}

	reader := bufio.NewReader(file)
	var lines []string
	for {
		line, err := reader.ReadString('\n')
		if err != nil {
			if errors.Is(err, io.EOF) {
				return lines, offset, nil
			}
			return lines, offset, fmt.Errorf("read log file: %w", err)
		}
		offset += int64(len(line))
		lines = append(lines, line[:len(line)-1])
	}
}

func newScanner(r io.Reader) *bufio.Scanner {
	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)
	return scanner
}
