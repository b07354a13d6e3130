/* Copyright © 2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package main

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	commandTotal = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "drawbot_commands_total",
			Help: "Total /draw subcommands handled by status.",
		},
		[]string{"subcommand", "status"},
	)
	commandDuration = promauto.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "drawbot_command_duration_seconds",
			Help:    "Time taken to handle a /draw subcommand.",
			Buckets: []float64{0.01, 0.05, 0.1, 0.25, 0.5, 1, 2.5, 5},
		},
		[]string{"subcommand"},
	)
	activeDraws = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "drawbot_active_draws",
			Help: "Number of channels with a draw in progress.",
		},
	)
	infeasibleDraws = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "drawbot_infeasible_draws_total",
			Help: "Draws that reached a state with no legal completion.",
		},
	)
)
