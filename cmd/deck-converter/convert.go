// Copyright Mesh Intelligence Inc., 2026. All rights reserved.

package main

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/pdiddy/deck-converter/internal/client"
	"github.com/pdiddy/deck-converter/pkg/types"
)

var convertCmd = &cobra.Command{
	Use:   "convert <file>",
	Short: "Convert a PDF to PPTX or a PPTX to PDF",
	Long: `Convert converts a single file. The direction follows from the file
extension unless --to is given: .pdf files become presentations and .pptx
files become PDF documents.

By default the conversion runs locally with the same method chain as the
service. With --server the file is uploaded to a running deck-converter
instead, retrying when the server is rate limiting.`,
	Args: cobra.ExactArgs(1),
	RunE: runConvert,
}

func init() {
	convertCmd.Flags().String("to", "", "output format: pptx or pdf (default: inferred from the input extension)")
	convertCmd.Flags().StringP("out", "o", "", "output path (default: next to the input, named after it)")
	convertCmd.Flags().String("server", "", "base URL of a deck-converter service to convert through")

	rootCmd.AddCommand(convertCmd)
}

func runConvert(cmd *cobra.Command, args []string) error {
	input := args[0]
	to, _ := cmd.Flags().GetString("to")
	out, _ := cmd.Flags().GetString("out")
	serverURL, _ := cmd.Flags().GetString("server")

	dir, err := inferDirection(input, to)
	if err != nil {
		return err
	}

	var (
		name string
		data []byte
	)
	if serverURL != "" {
		name, data, err = convertRemote(cmd.Context(), serverURL, dir, input)
	} else {
		name, data, err = convertLocal(cmd.Context(), dir, input)
	}
	if err != nil {
		return err
	}

	if out == "" {
		out = filepath.Join(filepath.Dir(input), name)
	}
	if err := os.WriteFile(out, data, 0o644); err != nil {
		return fmt.Errorf("writing output: %w", err)
	}

	log.WithFields(logrus.Fields{
		"input":     input,
		"output":    out,
		"direction": dir,
		"bytes":     len(data),
	}).Info("Converted.")
	fmt.Fprintln(cmd.OutOrStdout(), out)
	return nil
}

// inferDirection picks the direction from --to, else from the input
// extension.
func inferDirection(input, to string) (types.Direction, error) {
	switch strings.ToLower(strings.TrimPrefix(to, ".")) {
	case "pptx":
		return types.PDFToPPTX, nil
	case "pdf":
		return types.PPTXToPDF, nil
	case "":
	default:
		return "", fmt.Errorf("unsupported output format %q: use pptx or pdf", to)
	}

	switch strings.ToLower(filepath.Ext(input)) {
	case ".pdf":
		return types.PDFToPPTX, nil
	case ".pptx":
		return types.PPTXToPDF, nil
	default:
		return "", fmt.Errorf("cannot infer conversion for %q: use --to pptx or --to pdf", filepath.Base(input))
	}
}

func convertLocal(ctx context.Context, dir types.Direction, input string) (string, []byte, error) {
	conf := cfg
	conf.Metrics.Enabled = false

	a, err := newApp(ctx, conf, log)
	if err != nil {
		return "", nil, err
	}
	defer a.Close()

	f, err := os.Open(input)
	if err != nil {
		return "", nil, err
	}
	defer f.Close()

	res, err := a.dispatcher.Convert(ctx, types.ConversionRequest{
		Filename:  filepath.Base(input),
		Direction: dir,
		Body:      f,
	})
	if err != nil {
		return "", nil, err
	}
	return res.Filename, res.Data, nil
}

func convertRemote(ctx context.Context, baseURL string, dir types.Direction, input string) (string, []byte, error) {
	c, err := client.New(baseURL, log)
	if err != nil {
		return "", nil, err
	}

	data, err := os.ReadFile(input)
	if err != nil {
		return "", nil, err
	}

	doc, err := c.Convert(ctx, dir, filepath.Base(input), data)
	if err != nil {
		return "", nil, err
	}
	return filepath.Base(doc.Filename), doc.Data, nil
}
