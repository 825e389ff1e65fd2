package worker

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"os"
	"sort"
	"strings"

	"github.com/ppiankov/neurolocus/internal/model"
)

// Analyzer localizes one note and wraps it in a report
type Analyzer interface {
	Analyze(ctx context.Context, subject, text string) *model.Report
}

// NoteJob localizes one note of a batch
type NoteJob struct {
	Index    int
	Subject  string
	Note     string
	Analyzer Analyzer
	Limiter  *Limiter // optional; throttles narrative-producing analyzers
}

// Execute runs the job; it fails only when ctx ends first
func (j *NoteJob) Execute(ctx context.Context) Result {
	res := &NoteResult{Index: j.Index, Subject: j.Subject, Note: j.Note}

	if j.Limiter != nil {
		if err := j.Limiter.Wait(ctx, batchLimiterKey); err != nil {
			res.Error = fmt.Errorf("rate limit: %w", err)
			return res
		}
	}
	if err := ctx.Err(); err != nil {
		res.Error = err
		return res
	}

	res.Report = j.Analyzer.Analyze(ctx, j.Subject, j.Note)
	return res
}

// NoteResult is the outcome of localizing one note
type NoteResult struct {
	Index   int
	Subject string
	Note    string
	Report  *model.Report
	Error   error
}

// GetError returns the job error
func (r *NoteResult) GetError() error {
	return r.Error
}

const batchLimiterKey = "batch"

// BatchProcessor localizes many notes concurrently
type BatchProcessor struct {
	analyzer    Analyzer
	concurrency int
	limiter     *Limiter
}

// NewBatchProcessor creates a processor. A positive requestsPerSecond throttles
// the whole batch, which matters when each report also calls an LLM.
func NewBatchProcessor(analyzer Analyzer, concurrency int, requestsPerSecond float64, burst int) *BatchProcessor {
	b := &BatchProcessor{
		analyzer:    analyzer,
		concurrency: concurrency,
	}
	if requestsPerSecond > 0 {
		b.limiter = NewLimiter(requestsPerSecond, burst)
	}
	return b
}

// ProcessNotes localizes notes and returns one result per note, in input order
func (b *BatchProcessor) ProcessNotes(ctx context.Context, notes []string) []*NoteResult {
	if len(notes) == 0 {
		return []*NoteResult{}
	}

	pool := NewPool(ctx, b.concurrency)
	pool.Start()

	// submit from a separate goroutine so a full queue cannot block result draining
	go func() {
		defer pool.Close()
		for i, note := range notes {
			job := &NoteJob{
				Index:    i,
				Subject:  fmt.Sprintf("note-%d", i+1),
				Note:     note,
				Analyzer: b.analyzer,
				Limiter:  b.limiter,
			}
			if !pool.Submit(job) {
				return
			}
		}
	}()

	out := make([]*NoteResult, 0, len(notes))
	for result := range pool.Results() {
		out = append(out, result.(*NoteResult))
	}

	// notes never reached by a cancelled batch still get a result
	if len(out) < len(notes) {
		done := make(map[int]bool, len(out))
		for _, r := range out {
			done[r.Index] = true
		}
		err := ctx.Err()
		if err == nil {
			err = context.Canceled
		}
		for i, note := range notes {
			if !done[i] {
				out = append(out, &NoteResult{Index: i, Subject: fmt.Sprintf("note-%d", i+1), Note: note, Error: err})
			}
		}
	}

	sort.Slice(out, func(i, j int) bool { return out[i].Index < out[j].Index })
	return out
}

// ProcessFile reads notes from a file and localizes them
func (b *BatchProcessor) ProcessFile(ctx context.Context, filePath string) ([]*NoteResult, error) {
	notes, err := ReadNotesFromFile(filePath)
	if err != nil {
		return nil, fmt.Errorf("read notes: %w", err)
	}

	return b.ProcessNotes(ctx, notes), nil
}

// ReadNotesFromFile reads notes from a file; "-" reads standard input
func ReadNotesFromFile(filePath string) ([]string, error) {
	if filePath == "-" {
		return ReadNotes(os.Stdin)
	}

	file, err := os.Open(filePath)
	if err != nil {
		return nil, fmt.Errorf("open file: %w", err)
	}
	defer func() { _ = file.Close() }()

	return ReadNotes(file)
}

// ReadNotes reads one note per line, skipping blank lines and # comments.
// Repeated notes are kept once.
func ReadNotes(r io.Reader) ([]string, error) {
	var notes []string
	seen := make(map[string]bool)

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 64*1024), 1024*1024)
	for scanner.Scan() {
		line := strings.TrimSpace(scanner.Text())

		if line == "" || strings.HasPrefix(line, "#") {
			continue
		}

		if !seen[line] {
			seen[line] = true
			notes = append(notes, line)
		}
	}

	if err := scanner.Err(); err != nil {
		return nil, fmt.Errorf("scan notes: %w", err)
	}

	return notes, nil
}
