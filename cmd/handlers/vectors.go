package handlers

import (
	"context"
	"fmt"
	"time"

	"paracluster/internal/logger"
	"paracluster/internal/vectorstore"
	"github.com/spf13/cobra"
)

// NewVectorsCmd creates the vectors management command
func NewVectorsCmd() *cobra.Command {
	vectorsCmd := &cobra.Command{
		Use:   "vectors",
		Short: "Manage word embedding sources",
		Long:  `Import text embedding files into SQLite stores and inspect embedding sources.`,
	}

	// Add subcommands
	vectorsCmd.AddCommand(newVectorsImportCmd())
	vectorsCmd.AddCommand(newVectorsInfoCmd())

	return vectorsCmd
}

func newVectorsImportCmd() *cobra.Command {
	var textPath, dbPath string

	cmd := &cobra.Command{
		Use:   "import",
		Short: "Import a GloVe or word2vec text file into a SQLite store",
		Long: `Read a text embedding file ("word v1 v2 ..." per line, optional "count dim" header)
and store every vector in a SQLite database that the clustering strategies can open
in place of the text file.

Examples:
  paracluster vectors import --text vectors/wiki-news-300d-1M.txt --db vectors/wiki-news.db`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVectorsImport(cmd, textPath, dbPath)
		},
	}

	cmd.Flags().StringVar(&textPath, "text", "", "Text embedding file to import")
	cmd.Flags().StringVar(&dbPath, "db", "", "SQLite store to create or extend")
	_ = cmd.MarkFlagRequired("text")
	_ = cmd.MarkFlagRequired("db")

	return cmd
}

func newVectorsInfoCmd() *cobra.Command {
	var path string

	cmd := &cobra.Command{
		Use:   "info",
		Short: "Show the dimensionality and size of an embedding source",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runVectorsInfo(cmd, path)
		},
	}

	cmd.Flags().StringVarP(&path, "path", "p", "", "Embedding source (text file or .db)")
	_ = cmd.MarkFlagRequired("path")

	return cmd
}

func runVectorsImport(cmd *cobra.Command, textPath, dbPath string) error {
	out := cmd.OutOrStdout()
	start := time.Now()

	fmt.Fprintf(out, "📄 Reading %s...\n", textPath)
	mem, err := vectorstore.LoadText(textPath)
	if err != nil {
		return err
	}
	fmt.Fprintf(out, "   ✓ %d words, %d dimensions\n", mem.Len(), mem.Dim())

	store, err := vectorstore.CreateSQLite(dbPath)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	fmt.Fprintf(out, "💾 Importing into %s...\n", dbPath)
	n, err := store.Import(context.Background(), mem)
	if err != nil {
		return err
	}
	logger.Info("Imported vectors", "source", textPath, "store", dbPath, "words", n, "duration", time.Since(start))
	fmt.Fprintf(out, "   ✓ Imported %d vectors\n", n)
	return nil
}

func runVectorsInfo(cmd *cobra.Command, path string) error {
	out := cmd.OutOrStdout()

	src, err := vectorstore.Open(path)
	if err != nil {
		return err
	}
	defer func() { _ = vectorstore.Close(src) }()

	fmt.Fprintf(out, "📊 %s\n", src.Name())
	fmt.Fprintf(out, "   Dimensions: %d\n", src.Dim())
	switch s := src.(type) {
	case *vectorstore.Memory:
		fmt.Fprintf(out, "   Words:      %d\n", s.Len())
	case *vectorstore.SQLiteStore:
		n, err := s.Count(context.Background())
		if err != nil {
			return err
		}
		fmt.Fprintf(out, "   Words:      %d\n", n)
	}
	return nil
}
