// cmd_recognize.go: Runs the recognition flow on an HTML file
//
// Copyright (c) 2025 AGILira - A. Giordano
// Series: an AGILira library
// SPDX-License-Identifier: MPL-2.0

package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	selectocr "github.com/agilira/go-selectocr"
)

var (
	recognizeOutput   string
	recognizeBodyOnly bool
)

var recognizeCmd = &cobra.Command{
	Use:   "recognize <file.html>",
	Short: "Recognize the image selected in an HTML file and insert the text",
	Long: `Loads an HTML document whose selection is marked with <!--[--> and <!--]-->,
sends the src of the first selected element to the recognition backend and
inserts the returned text at the start of the selection.

The resulting document is written to stdout, or to --output.`,
	Example: `  selectocr recognize page.html --base-url http://localhost:8080
  selectocr recognize page.html -o result.html --body`,
	Args: cobra.ExactArgs(1),
	RunE: runRecognize,
}

func init() {
	recognizeCmd.Flags().StringVarP(&recognizeOutput, "output", "o", "", "Write the resulting document to this file")
	recognizeCmd.Flags().BoolVar(&recognizeBodyOnly, "body", false, "Only render the contents of <body>")
}

func runRecognize(cmd *cobra.Command, args []string) error {
	path := filepath.Clean(args[0])
	f, err := os.Open(path) // #nosec G304 -- user supplied input file
	if err != nil {
		return fmt.Errorf("open document: %w", err)
	}
	doc, err := selectocr.ParseHTMLDocument(f)
	_ = f.Close()
	if err != nil {
		return err
	}

	log := commandLogger()
	p, err := newPipeline(activeConfig, log)
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	flow := selectocr.NewRecognitionFlow(doc, p.recognizer, selectocr.NewWriterNotifier(cmd.ErrOrStderr()), log)
	result, err := flow.Run(cmd.Context())
	if err != nil {
		return err
	}
	log.Info("Recognition finished",
		"outcome", result.Outcome.String(),
		"reference", result.Reference.String(),
		"elapsed", result.Elapsed)

	var rendered string
	if recognizeBodyOnly {
		rendered, err = doc.RenderBody()
	} else {
		rendered, err = doc.Render()
	}
	if err != nil {
		return err
	}

	if recognizeOutput == "" {
		_, err = fmt.Fprintln(cmd.OutOrStdout(), rendered)
		return err
	}
	if err := os.WriteFile(recognizeOutput, []byte(rendered), 0o600); err != nil {
		return fmt.Errorf("write document: %w", err)
	}
	return nil
}
