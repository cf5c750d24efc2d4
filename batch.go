// SPDX-License-Identifier: MIT
// Copyright (c) 2026 MIO-Modding
// Source: github.com/MIO-Modding/gin

package gin

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"runtime"
	"sync"
)

// batchTask is one validated archive scheduled for decode.
type batchTask struct {
	// path is the archive file path.
	path string
	// outputDir is the per-archive extraction directory.
	outputDir string
	// index is the position in the validated input order.
	index int
	// numberOffset is the first pre-reserved sequence number for this archive.
	numberOffset int
}

// DecodeBatch validates and decodes multiple archives. Unreadable paths,
// directories, and files failing the magic check are skipped with a
// diagnostic; ErrEmptyInputSet is returned before any filesystem write when
// nothing survives filtering. Sequence numbers are globally unique and
// strictly increasing across the batch: each archive's numeric range is
// pre-reserved from its section count before any decode starts, so numbering
// is a pure function of input order regardless of worker count.
func DecodeBatch(ctx context.Context, inputPaths []string, opts BatchOptions) ([]string, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	if opts.OutputDir == "" {
		opts.OutputDir = "."
	}
	if opts.HeaderDir == "" {
		opts.HeaderDir = opts.OutputDir
	}

	tasks := validateBatchInputs(inputPaths, opts)
	if len(tasks) == 0 {
		return nil, ErrEmptyInputSet
	}

	if err := os.MkdirAll(opts.OutputDir, 0o750); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}
	if err := os.MkdirAll(opts.HeaderDir, 0o750); err != nil {
		return nil, fmt.Errorf("create header dir: %w", err)
	}

	workers := opts.MaxWorkers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > len(tasks) {
		workers = len(tasks)
	}

	results := make([][]string, len(tasks))
	taskErrs := make([]error, len(tasks))

	taskCh := make(chan batchTask, len(tasks))
	ctx, cancel := context.WithCancel(ctx)
	defer cancel()

	var wg sync.WaitGroup
	for w := 0; w < workers; w++ {
		wg.Go(func() {
			for task := range taskCh {
				results[task.index], taskErrs[task.index] = Decode(ctx, task.path, DecodeOptions{
					OutputDir:        task.outputDir,
					HeaderDir:        opts.HeaderDir,
					NumberOffset:     task.numberOffset,
					NumberNames:      opts.NumberNames,
					OnSectionSkipped: opts.OnSectionSkipped,
				})

				if errors.Is(taskErrs[task.index], context.Canceled) {
					return
				}
			}
		})
	}

	for _, task := range tasks {
		select {
		case <-ctx.Done():
			close(taskCh)
			wg.Wait()
			return nil, ctx.Err()
		case taskCh <- task:
		}
	}

	close(taskCh)
	wg.Wait()

	if err := ctx.Err(); err != nil {
		return nil, err
	}

	// Merge worker results back in input order under the coordinator.
	written := make([]string, 0, len(tasks))
	for i := range tasks {
		if taskErrs[i] != nil {
			// Archive-level failure is recovered locally and reported;
			// it never aborts the rest of the batch.
			if opts.OnInputSkipped != nil {
				opts.OnInputSkipped(tasks[i].path, taskErrs[i])
			}

			continue
		}

		written = append(written, results[i]...)
	}

	return written, nil
}

// validateBatchInputs filters candidate paths and pre-reserves numbering ranges.
func validateBatchInputs(inputPaths []string, opts BatchOptions) []batchTask {
	tasks := make([]batchTask, 0, len(inputPaths))
	nextNumber := 0

	for _, path := range inputPaths {
		fi, err := os.Stat(path)
		if err != nil {
			skipInput(opts, path, fmt.Errorf("%w: %w", ErrUnreadableInput, err))
			continue
		}
		if fi.IsDir() {
			skipInput(opts, path, ErrNotAFile)
			continue
		}

		head, err := ReadMainHeader(path)
		if err != nil {
			skipInput(opts, path, err)
			continue
		}

		tasks = append(tasks, batchTask{
			path:         path,
			outputDir:    filepath.Join(opts.OutputDir, archiveStem(path)),
			index:        len(tasks),
			numberOffset: nextNumber,
		})
		nextNumber += int(head.SectionCount)
	}

	return tasks
}

// skipInput reports one dropped batch candidate.
func skipInput(opts BatchOptions, path string, reason error) {
	if opts.OnInputSkipped != nil {
		opts.OnInputSkipped(path, reason)
	}
}

// archiveStem returns the archive file name without its extension,
// used as the per-archive extraction subdirectory name.
func archiveStem(path string) string {
	return trimLastSuffix(filepath.Base(path))
}
