// Package convert runs PPK to OpenSSH conversions over batches of files.
package convert

import (
	"fmt"
	"path/filepath"
	"strings"
	"time"

	"github.com/schollz/progressbar/v3"

	"github.com/user/ppkconvert/internal/ppk"
)

type Runner struct {
	config Config
}

func NewRunner(config Config) *Runner {
	return &Runner{config: config}
}

// Run converts every configured file. Per-file failures are recorded on the
// Result rather than aborting the batch.
func (r *Runner) Run() []Result {
	var progress *progressbar.ProgressBar

	if r.config.ShowProgress {
		progress = progressbar.NewOptions(len(r.config.Files),
			progressbar.OptionSetDescription("[convert]"),
			progressbar.OptionSetWidth(40),
			progressbar.OptionShowCount(),
			progressbar.OptionOnCompletion(func() {
				fmt.Println()
			}),
		)
	}

	results := make([]Result, 0, len(r.config.Files))
	for _, file := range r.config.Files {
		result := r.convertFile(file)
		results = append(results, result)

		if r.config.Verbose {
			if result.Err != "" {
				fmt.Printf("%s: %s\n", result.Source, result.Err)
			} else {
				fmt.Printf("%s -> %s (%s)\n", result.Source, result.Output, result.Algorithm)
			}
		}
		if progress != nil {
			progress.Add(1)
		}
	}

	return results
}

func (r *Runner) convertFile(path string) Result {
	start := time.Now()
	result := Result{Source: path}

	key, err := ppk.ParseFile(path, r.config.Passphrase)
	if err != nil {
		result.Err = err.Error()
		result.Duration = time.Since(start)
		return result
	}

	info := key.Info()
	result.Algorithm = info.Algorithm
	result.Fingerprint = info.Fingerprint

	output := r.OutputPath(path)
	if err := key.WriteOpenSSH(output); err != nil {
		result.Err = err.Error()
	} else {
		result.Output = output
	}

	result.Duration = time.Since(start)
	return result
}

// OutputPath derives the destination for a converted key: the source name
// with its .ppk extension replaced by the configured suffix, placed in the
// output directory when one is set and next to the source otherwise.
func (r *Runner) OutputPath(source string) string {
	suffix := r.config.Suffix
	if suffix == "" {
		suffix = ".pem"
	}
	base := strings.TrimSuffix(filepath.Base(source), ".ppk") + suffix
	if r.config.OutputDir != "" {
		return filepath.Join(r.config.OutputDir, base)
	}
	return filepath.Join(filepath.Dir(source), base)
}
