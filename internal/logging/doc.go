// Printdeck - Print Management Sync Client
// Copyright 2026 Tom F. (tomtom215)
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/tomtom215/printdeck

// Package logging provides the zerolog-based structured logger used across printdeck.
//
// A single global logger is configured once from main via Init and then used
// through the level helpers:
//
//	logging.Init(logging.Config{Level: "debug", Format: "console"})
//	logging.Info().Str("printer_id", id).Msg("printer paused")
//	logging.Warn().Err(err).Msg("fetch jobs failed")
//
// Components that want a fixed field on every line take a child logger:
//
//	log := logging.Component("transport")
//	log.Info().Int("attempt", n).Msg("reconnecting")
//
// Batches and CLI commands carry a correlation ID through their context so that
// every line emitted for one upload batch can be grepped together:
//
//	ctx = logging.ContextWithNewCorrelationID(ctx)
//	logging.Ctx(ctx).Info().Msg("batch started")
//
// Libraries that only speak log/slog (sutureslog) are bridged with
// NewSlogLogger, which writes through the same zerolog logger.
//
// Always terminate an event chain with Msg or Send, otherwise nothing is written.
package logging
