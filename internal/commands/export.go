package commands

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/spf13/cobra"

	"github.com/klabast/wb-services/lineup-planner/internal/app"
	appLog "github.com/klabast/wb-services/lineup-planner/internal/log"
)

func newExportCommand(opts *rootOptions) *cobra.Command {
	var (
		marksPath string
		outDir    string
		undo      int
	)

	cmd := &cobra.Command{
		Use:   "export",
		Short: "Replay a marks file and write the CSV and ICS schedule",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			env, err := opts.load(cmd.Context())
			if err != nil {
				return err
			}

			p, err := loadPlanner(env.catalog, marksPath, undo)
			if err != nil {
				return err
			}

			paths, err := writeExport(p, env.export, outDir, time.Now())
			if err != nil {
				return err
			}
			for _, path := range paths {
				fmt.Fprintln(cmd.OutOrStdout(), path)
			}
			return nil
		},
	}
	cmd.Flags().StringVar(&marksPath, "marks", "", "YAML file with the marks to replay")
	cmd.Flags().StringVar(&outDir, "out", ".", "Directory to write the files into")
	cmd.Flags().IntVar(&undo, "undo", 0, "Number of trailing marks to undo before exporting")
	_ = cmd.MarkFlagRequired("marks")
	return cmd
}

// writeExport writes the planner's export files into dir and returns their paths
func writeExport(p *app.Planner, opts app.ExportOptions, dir string, now time.Time) ([]string, error) {
	files, err := p.Export(opts, now)
	if errors.Is(err, app.ErrNoSelections) {
		return nil, errors.New(app.MsgNoSelections)
	}
	if err != nil {
		return nil, err
	}

	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create output dir: %w", err)
	}

	paths := make([]string, 0, len(files))
	for _, f := range files {
		path := filepath.Join(dir, f.Name)
		if err := os.WriteFile(path, f.Body, 0o644); err != nil {
			return nil, fmt.Errorf("write %s: %w", f.Name, err)
		}
		appLog.Info("export written", "file", path, "bytes", len(f.Body))
		paths = append(paths, path)
	}
	return paths, nil
}
