// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.

package rag

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	// questionsTotal counts processed questions by terminal outcome:
	// answer, no_evidence, redirect_answer, redirect_miss, error.
	questionsTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "policyqna_questions_total",
		Help: "Total questions processed by terminal outcome",
	}, []string{"outcome"})

	// questionDuration tracks end-to-end question latency by path.
	questionDuration = promauto.NewHistogramVec(prometheus.HistogramOpts{
		Name:    "policyqna_question_duration_seconds",
		Help:    "Question processing duration in seconds",
		Buckets: prometheus.ExponentialBuckets(0.01, 2, 12), // 10ms to ~40s
	}, []string{"path"}) // "redirect" or "expansion"

	// expansionTermCount tracks how wide expansion fans out per query.
	expansionTermCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "policyqna_expansion_terms",
		Help:    "Number of weighted terms produced per query expansion",
		Buckets: []float64{1, 2, 3, 5, 8, 13, 21, 34},
	})

	// retrievalResultCount tracks evidence counts after fusion.
	retrievalResultCount = promauto.NewHistogram(prometheus.HistogramOpts{
		Name:    "policyqna_retrieval_results",
		Help:    "Number of evidence chunks after retrieval fusion",
		Buckets: []float64{0, 1, 2, 3, 5, 10, 20},
	})
)
