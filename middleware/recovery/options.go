// Copyright 2025 The Rivaas Authors
//
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package recovery

import (
	"context"
	"log/slog"
)

// WithStackTrace enables or disables stack trace capture. Default: true.
func WithStackTrace(enabled bool) Option {
	return func(p *Policy) { p.stackTrace = enabled }
}

// WithStackSize sets the maximum captured stack trace size in bytes.
// Default: 4KB.
func WithStackSize(size int) Option {
	return func(p *Policy) { p.stackSize = size }
}

// WithDisableStackAll, when true, truncates the captured stack trace
// of the panicking goroutine to stackSize; when false the whole trace
// is kept. Default: true.
func WithDisableStackAll(disabled bool) Option {
	return func(p *Policy) { p.disableStackAll = disabled }
}

// WithLogger sets the slog.Logger used to record panics.
func WithLogger(logger *slog.Logger) Option {
	return func(p *Policy) { p.logger = logger }
}

// WithPanicHandler overrides the default logging behavior with a custom
// callback, receiving the recovered value and captured stack trace.
func WithPanicHandler(fn func(ctx context.Context, value any, stack []byte)) Option {
	return func(p *Policy) { p.onPanic = fn }
}
