package cmd

import (
	"fmt"
	"io/fs"
	"mime"
	"os"
	"path"
	"path/filepath"

	"github.com/spf13/cobra"
	"github.com/xy-planning-network/portfolio/ranger"
	"github.com/xy-planning-network/portfolio/storage"
)

// collectstaticCmd uploads the files under a directory to the static location of the bucket
var collectstaticCmd = &cobra.Command{
	Use:   "collectstatic [dir]",
	Short: "Upload static files to object storage",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		dir := "static"
		if len(args) == 1 {
			dir = args[0]
		}

		cfg, err := ranger.NewConfig()
		if err != nil {
			return err
		}

		s, err := storage.New(cfg.Storage, storage.Static)
		if err != nil {
			return err
		}

		if err := s.EnsureBucket(cmd.Context()); err != nil {
			return err
		}

		l := cliLogger(cfg)
		n, err := collect(cmd, s, os.DirFS(dir))
		if err != nil {
			return err
		}

		l.Info(fmt.Sprintf("%d static files copied to %s", n, s.URL("")), nil)
		return nil
	},
}

func collect(cmd *cobra.Command, s *storage.Storage, fsys fs.FS) (int, error) {
	var n int
	err := fs.WalkDir(fsys, ".", func(name string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}

		info, err := d.Info()
		if err != nil {
			return err
		}

		f, err := fsys.Open(name)
		if err != nil {
			return err
		}
		defer f.Close()

		key := filepath.ToSlash(name)
		if _, err := s.Save(cmd.Context(), key, f, info.Size(), mime.TypeByExtension(path.Ext(key))); err != nil {
			return err
		}

		n++
		return nil
	})

	return n, err
}

func init() {
	rootCmd.AddCommand(collectstaticCmd)
}
