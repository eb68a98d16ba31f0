package app

import (
	"fluentgen/internal/engine/repository"
	"fluentgen/internal/output"
	"fluentgen/internal/shared/util"
)

// writeOutputs renders the configured reports and returns the paths written.
func (a *App) writeOutputs(repo *repository.Repository) ([]string, error) {
	var written []string
	if path := a.Config.Output.DOT; path != "" {
		dot, err := output.NewDOTGenerator(repo).Generate()
		if err != nil {
			return written, err
		}
		if err := util.WriteFileWithDirs(path, []byte(dot), 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	if path := a.Config.Output.TSV; path != "" {
		tsv, err := output.NewTSVGenerator(repo).Generate()
		if err != nil {
			return written, err
		}
		if err := util.WriteFileWithDirs(path, []byte(tsv), 0o644); err != nil {
			return written, err
		}
		written = append(written, path)
	}
	return written, nil
}
