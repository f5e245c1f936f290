// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/policyqna/services/document"
)

func runIngest(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	parsedType, err := document.ParseDocumentType(docType)
	if err != nil {
		return err
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.docs.UploadAndIndex(ctx, document.UploadRequest{
		Title:      docTitle,
		Code:       docCode,
		Type:       parsedType,
		Department: docDepartment,
		Version:    docVersion,
		FilePath:   args[0],
	})
	if err != nil {
		return err
	}

	chunks, err := a.store.GetChunks(ctx, doc.ID)
	if err != nil {
		return err
	}
	fmt.Printf("Ingested %s (%s): %d chunks indexed\n", doc.Title, doc.Code, len(chunks))
	return nil
}

func runReindex(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.store.FindDocumentByCode(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.docs.Reindex(ctx, doc.ID); err != nil {
		return err
	}
	fmt.Printf("Reindexed %s (%s)\n", doc.Title, doc.Code)
	return nil
}

func runDelete(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	doc, err := a.store.FindDocumentByCode(ctx, args[0])
	if err != nil {
		return err
	}
	if err := a.docs.Delete(ctx, doc.ID); err != nil {
		return err
	}
	fmt.Printf("Deleted %s (%s)\n", doc.Title, doc.Code)
	return nil
}

func runList(cmd *cobra.Command, _ []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	docs, err := a.store.ListDocuments(ctx)
	if err != nil {
		return err
	}
	if len(docs) == 0 {
		fmt.Println("No documents ingested.")
		return nil
	}
	for _, doc := range docs {
		indexed := " "
		if doc.Indexed {
			indexed = "*"
		}
		fmt.Printf("%s %-10s %-12s %s\n", indexed, doc.Code, doc.Type.KoreanName(), doc.Title)
	}
	return nil
}
