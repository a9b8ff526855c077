package main

import (
	"encoding/base64"
	"encoding/json"
	"os"
	"path/filepath"
	"sort"
	"strconv"
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/inkwell-hq/formfill/internal/merge"
	"github.com/inkwell-hq/formfill/pkg/reasoning"
)

var mergePagesDir string

var mergeCmd = &cobra.Command{
	Use:   "merge <document-id>",
	Short: "Run the second-pass field merge over rendered page images",
	Long:  "Reads page renders from --pages (files named <page>.png or <page>.jpg), detects fields on each, and reconciles them against the stored set.",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		env, err := initEnv(cmd.Context())
		if err != nil {
			return err
		}
		defer env.Close()

		pages, err := loadPageImages(mergePagesDir)
		if err != nil {
			return err
		}
		if len(pages) == 0 {
			return eris.Errorf("no page images found in %s", mergePagesDir)
		}

		report, err := env.engine.RunMerge(cmd.Context(), args[0], pages)
		if err != nil {
			return err
		}

		zap.L().Info("merge complete",
			zap.String("document_id", args[0]),
			zap.Int("adjusted", report.FieldsAdjusted),
			zap.Int("added", report.FieldsAdded),
			zap.Int("removed", report.FieldsRemoved),
			zap.Ints("pages_skipped", report.PagesSkipped))

		enc := json.NewEncoder(os.Stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(report)
	},
}

// loadPageImages reads <page>.png / <page>.jpg files from a directory into
// base64 page images, sorted by page number.
func loadPageImages(dir string) ([]merge.PageImage, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, eris.Wrapf(err, "read pages dir %s", dir)
	}

	var pages []merge.PageImage
	for _, entry := range entries {
		if entry.IsDir() {
			continue
		}
		name := entry.Name()
		ext := strings.ToLower(filepath.Ext(name))
		var mediaType string
		switch ext {
		case ".png":
			mediaType = "image/png"
		case ".jpg", ".jpeg":
			mediaType = "image/jpeg"
		default:
			continue
		}
		page, err := strconv.Atoi(strings.TrimSuffix(name, ext))
		if err != nil || page < 1 {
			zap.L().Warn("skipping page file with non-numeric name", zap.String("file", name))
			continue
		}

		data, err := os.ReadFile(filepath.Join(dir, name))
		if err != nil {
			return nil, eris.Wrapf(err, "read page file %s", name)
		}
		pages = append(pages, merge.PageImage{
			PageNumber: page,
			Image: reasoning.Image{
				MediaType: mediaType,
				Data:      base64.StdEncoding.EncodeToString(data),
			},
		})
	}

	sort.Slice(pages, func(i, j int) bool { return pages[i].PageNumber < pages[j].PageNumber })
	return pages, nil
}

func init() {
	mergeCmd.Flags().StringVar(&mergePagesDir, "pages", ".", "directory of rendered page images")
	rootCmd.AddCommand(mergeCmd)
}
