// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package main

import (
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"

	"github.com/AleutianAI/policyqna/services/ontology"
)

// ontologyFile is the YAML layout for `ontology load`. Relations and
// rules reference concepts by canonical name.
type ontologyFile struct {
	Concepts []struct {
		Name          string   `yaml:"name"`
		NameEN        string   `yaml:"name_en"`
		Type          string   `yaml:"type"`
		Definition    string   `yaml:"definition"`
		Synonyms      []string `yaml:"synonyms"`
		Abbreviations []string `yaml:"abbreviations"`
	} `yaml:"concepts"`

	Relations []struct {
		Source string  `yaml:"source"`
		Target string  `yaml:"target"`
		Type   string  `yaml:"type"`
		Weight float64 `yaml:"weight"`
	} `yaml:"relations"`

	Rules []struct {
		Name        string `yaml:"name"`
		Type        string `yaml:"type"`
		Condition   string `yaml:"condition"`
		Consequence string `yaml:"consequence"`
		Priority    int    `yaml:"priority"`
	} `yaml:"rules"`
}

func runOntologyLoad(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("read ontology file: %w", err)
	}
	var file ontologyFile
	if err := yaml.Unmarshal(data, &file); err != nil {
		return fmt.Errorf("parse ontology file: %w", err)
	}

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	for _, c := range file.Concepts {
		conceptType, err := ontology.ParseConceptType(c.Type)
		if err != nil {
			return fmt.Errorf("concept %q: %w", c.Name, err)
		}
		err = a.ontology.CreateConcept(ctx, &ontology.Concept{
			Name:          c.Name,
			NameEN:        c.NameEN,
			Type:          conceptType,
			Definition:    c.Definition,
			Synonyms:      c.Synonyms,
			Abbreviations: c.Abbreviations,
		})
		if err != nil {
			return fmt.Errorf("concept %q: %w", c.Name, err)
		}
	}

	for _, r := range file.Relations {
		relType, err := ontology.ParseRelationType(r.Type)
		if err != nil {
			return fmt.Errorf("relation %s->%s: %w", r.Source, r.Target, err)
		}
		source, err := a.store.FindConceptByName(ctx, r.Source)
		if err != nil {
			return fmt.Errorf("relation source %q: %w", r.Source, err)
		}
		target, err := a.store.FindConceptByName(ctx, r.Target)
		if err != nil {
			return fmt.Errorf("relation target %q: %w", r.Target, err)
		}
		err = a.ontology.CreateRelation(ctx, &ontology.Relation{
			SourceID: source.ID,
			TargetID: target.ID,
			Type:     relType,
			Weight:   r.Weight,
		})
		if err != nil {
			return fmt.Errorf("relation %s->%s: %w", r.Source, r.Target, err)
		}
	}

	for _, r := range file.Rules {
		ruleType, err := ontology.ParseRuleType(r.Type)
		if err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
		err = a.ontology.CreateRule(ctx, &ontology.Rule{
			Name:        r.Name,
			Type:        ruleType,
			Condition:   r.Condition,
			Consequence: r.Consequence,
			Priority:    r.Priority,
		})
		if err != nil {
			return fmt.Errorf("rule %q: %w", r.Name, err)
		}
	}

	fmt.Printf("Loaded %d concepts, %d relations, %d rules\n",
		len(file.Concepts), len(file.Relations), len(file.Rules))
	return nil
}

func runOntologyShow(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	root, err := a.store.FindConceptByName(ctx, args[0])
	if err != nil {
		return err
	}
	graph, err := a.ontology.Subgraph(ctx, root.ID, subgraphDepth)
	if err != nil {
		return err
	}

	names := make(map[uuid.UUID]*ontology.Concept, len(graph.Concepts))
	for _, c := range graph.Concepts {
		names[c.ID] = c
		fmt.Printf("%s [%s]\n", c.Name, c.Type.KoreanName())
	}
	for _, rel := range graph.Relations {
		source, target := names[rel.SourceID], names[rel.TargetID]
		if source == nil || target == nil {
			continue
		}
		fmt.Printf("  %s -%s(%.1f)-> %s\n", source.Name, rel.Type, rel.Weight, target.Name)
	}
	return nil
}

func runOntologyDefine(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	a, err := openApp(ctx)
	if err != nil {
		return err
	}
	defer a.Close()

	def, err := a.ontology.TermDefinition(ctx, args[0])
	if err != nil {
		return err
	}

	fmt.Printf("%s: %s\n", def.Term, def.Definition)
	if len(def.Sources) > 0 {
		fmt.Printf("출처: %s\n", strings.Join(def.Sources, ", "))
	}
	return nil
}
