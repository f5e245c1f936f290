// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"log/slog"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/policyqna/pkg/logging"
)

// --- Global Command Variables ---
var (
	configPath string
	cfg        Config

	// ingest flags
	docTitle      string
	docCode       string
	docType       string
	docDepartment string
	docVersion    string

	// ask flags
	askTopK int

	rootCmd = &cobra.Command{
		Use:   "policyqna",
		Short: "Ontology-augmented Q&A over internal policies and manuals",
		Long: `policyqna ingests policy documents into a vector index and answers
questions against them, expanding queries through a curated domain
ontology of concepts, relations, and rules.`,
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			var err error
			cfg, err = LoadConfig(configPath)
			if err != nil {
				return err
			}
			logging.Setup(logging.Config{
				Level:   parseLogLevel(cfg.Logging.Level),
				Service: "policyqna",
				JSON:    cfg.Logging.JSON,
				LogDir:  cfg.Logging.Dir,
			})
			return nil
		},
	}

	ingestCmd = &cobra.Command{
		Use:   "ingest [file]",
		Short: "Ingest a policy document: extract, chunk, and index it",
		Args:  cobra.ExactArgs(1),
		RunE:  runIngest, // Defined in cmd_ingest.go
	}

	reindexCmd = &cobra.Command{
		Use:   "reindex [document-code]",
		Short: "Re-extract and re-index an already ingested document",
		Args:  cobra.ExactArgs(1),
		RunE:  runReindex, // Defined in cmd_ingest.go
	}

	deleteCmd = &cobra.Command{
		Use:   "delete [document-code]",
		Short: "Delete a document, its chunks, and its index entries",
		Args:  cobra.ExactArgs(1),
		RunE:  runDelete, // Defined in cmd_ingest.go
	}

	listCmd = &cobra.Command{
		Use:   "list",
		Short: "List ingested documents",
		Args:  cobra.NoArgs,
		RunE:  runList, // Defined in cmd_ingest.go
	}

	askCmd = &cobra.Command{
		Use:   "ask [question]",
		Short: "Ask a question against the indexed policy corpus",
		Args:  cobra.MinimumNArgs(1),
		RunE:  runAsk, // Defined in cmd_ask.go
	}

	ontologyCmd = &cobra.Command{
		Use:   "ontology",
		Short: "Manage the domain ontology",
	}

	ontologyLoadCmd = &cobra.Command{
		Use:   "load [file]",
		Short: "Load concepts, relations, and rules from a YAML file",
		Args:  cobra.ExactArgs(1),
		RunE:  runOntologyLoad, // Defined in cmd_ontology.go
	}

	ontologyShowCmd = &cobra.Command{
		Use:   "show [concept-name]",
		Short: "Show a concept's subgraph to a bounded depth",
		Args:  cobra.ExactArgs(1),
		RunE:  runOntologyShow, // Defined in cmd_ontology.go
	}

	ontologyDefineCmd = &cobra.Command{
		Use:   "define [term]",
		Short: "Show a term's curated definition and its sources",
		Args:  cobra.ExactArgs(1),
		RunE:  runOntologyDefine, // Defined in cmd_ontology.go
	}
)

// subgraphDepth bounds `ontology show` traversal.
var subgraphDepth int

func init() {
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Path to a YAML config file")

	ingestCmd.Flags().StringVar(&docTitle, "title", "", "Document title (required)")
	ingestCmd.Flags().StringVar(&docCode, "code", "", "Stable document code, e.g. HR-001 (required)")
	ingestCmd.Flags().StringVar(&docType, "type", "policy", "Document type: policy|regulation|manual|guideline|procedure|template")
	ingestCmd.Flags().StringVar(&docDepartment, "department", "", "Owning department")
	ingestCmd.Flags().StringVar(&docVersion, "version", "", "Document version")
	_ = ingestCmd.MarkFlagRequired("title")
	_ = ingestCmd.MarkFlagRequired("code")

	askCmd.Flags().IntVar(&askTopK, "top-k", 0, "Number of evidence chunks to retrieve (default from config)")

	ontologyShowCmd.Flags().IntVar(&subgraphDepth, "depth", 2, "Traversal depth")

	ontologyCmd.AddCommand(ontologyLoadCmd, ontologyShowCmd, ontologyDefineCmd)
	rootCmd.AddCommand(ingestCmd, reindexCmd, deleteCmd, listCmd, askCmd, ontologyCmd)
}

func parseLogLevel(level string) slog.Level {
	switch level {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
