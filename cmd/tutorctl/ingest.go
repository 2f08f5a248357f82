package main

import (
	"encoding/base64"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dgallion1/tutorkb/internal/parser"
	"github.com/dgallion1/tutorkb/internal/pipeline"
)

var ingestCmd = &cobra.Command{
	Use:   "ingest <file>...",
	Short: "Segment, summarize and store local files",
	Long: `Ingest registers each file as a material, extracts its text, segments
it and stores one digested fragment per segment. The kind is taken from
the file extension unless --kind is given.`,
	Args: cobra.MinimumNArgs(1),
	RunE: runIngest,
}

func init() {
	ingestCmd.Flags().String("kind", "", "material kind for every file (text, markdown, html, csv, pdf, docx)")
	ingestCmd.Flags().String("name", "", "material name (only with a single file; default is the file name)")
}

func runIngest(cmd *cobra.Command, args []string) error {
	kindFlag, _ := cmd.Flags().GetString("kind")
	nameFlag, _ := cmd.Flags().GetString("name")
	if nameFlag != "" && len(args) > 1 {
		return fmt.Errorf("--name only applies to a single file")
	}

	a, err := openApp(cmd)
	if err != nil {
		return err
	}
	defer a.Close()

	out := cmd.OutOrStdout()
	failed := 0
	for _, path := range args {
		up, err := uploadFromFile(path, kindFlag, nameFlag)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			failed++
			continue
		}

		res, err := a.Ingester.Ingest(cmd.Context(), up)
		if err != nil {
			fmt.Fprintf(out, "%s: %v\n", path, err)
			failed++
			continue
		}
		fmt.Fprintf(out, "%s: material %s, %d fragments\n", path, res.MaterialID, res.Fragments)
	}

	if failed > 0 {
		return fmt.Errorf("%d file(s) failed", failed)
	}
	return nil
}

// uploadFromFile reads path into an upload, base64-encoding binary kinds.
func uploadFromFile(path, kind, name string) (pipeline.Upload, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return pipeline.Upload{}, err
	}
	if kind == "" {
		kind = strings.TrimPrefix(filepath.Ext(path), ".")
	}
	kind = parser.NormalizeKind(kind)
	if name == "" {
		name = filepath.Base(path)
	}

	up := pipeline.Upload{Name: name, Kind: kind}
	if parser.IsBinaryKind(kind) {
		up.ContentEncoded = base64.StdEncoding.EncodeToString(data)
	} else {
		up.Content = string(data)
	}
	return up, nil
}
