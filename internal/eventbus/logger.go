// Recserve - Blended Offline/Online Recommendation Serving
// Copyright 2026 Recserve Authors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/recserve/recserve

package eventbus

import (
	"github.com/ThreeDotsLabs/watermill"
	"github.com/rs/zerolog"

	"github.com/recserve/recserve/internal/logging"
)

// watermillLogger bridges Watermill's LoggerAdapter to the zerolog-backed
// global logger. Trace maps to debug; Watermill is chatty at trace level.
type watermillLogger struct {
	fields watermill.LogFields
}

// NewWatermillLogger returns a LoggerAdapter writing through the global
// logger.
func NewWatermillLogger() watermill.LoggerAdapter {
	return &watermillLogger{}
}

func (l *watermillLogger) attach(evt *zerolog.Event, fields watermill.LogFields) *zerolog.Event {
	for k, v := range l.fields {
		evt = evt.Interface(k, v)
	}
	for k, v := range fields {
		evt = evt.Interface(k, v)
	}
	return evt
}

func (l *watermillLogger) Error(msg string, err error, fields watermill.LogFields) {
	l.attach(logging.Error().Err(err), fields).Msg(msg)
}

func (l *watermillLogger) Info(msg string, fields watermill.LogFields) {
	l.attach(logging.Info(), fields).Msg(msg)
}

func (l *watermillLogger) Debug(msg string, fields watermill.LogFields) {
	l.attach(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) Trace(msg string, fields watermill.LogFields) {
	l.attach(logging.Debug(), fields).Msg(msg)
}

func (l *watermillLogger) With(fields watermill.LogFields) watermill.LoggerAdapter {
	merged := make(watermill.LogFields, len(l.fields)+len(fields))
	for k, v := range l.fields {
		merged[k] = v
	}
	for k, v := range fields {
		merged[k] = v
	}
	return &watermillLogger{fields: merged}
}
