// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/AleutianAI/policyqna/services/rag"
)

func runAsk(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()
	question := strings.Join(args, " ")

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	pipeline, err := a.newPipeline()
	if err != nil {
		return err
	}

	resp, err := pipeline.Ask(ctx, rag.QnaRequest{Question: question, TopK: askTopK})
	if err != nil {
		return err
	}

	fmt.Println(resp.Answer)

	if resp.RedirectInfo != nil {
		fmt.Printf("\n[리다이렉트: %s → %s]\n", resp.RedirectInfo.RuleName, resp.RedirectInfo.TargetReference)
	}
	if len(resp.Sources) > 0 {
		fmt.Println("\n출처:")
		for _, src := range resp.Sources {
			fmt.Printf("  - %s (score %.2f)\n", src.FullReference(), src.RelevanceScore)
		}
	}
	if len(resp.RelatedTerms) > 0 {
		fmt.Println("\n관련 용어:")
		for _, term := range resp.RelatedTerms {
			fmt.Printf("  - %s: %s\n", term.Term, term.Definition)
		}
	}
	return nil
}
