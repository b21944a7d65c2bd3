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

package requestid

// WithHeader sets the header name carrying the request id. Default:
// "X-Request-ID".
func WithHeader(headerName string) Option {
	return func(cfg *config) { cfg.headerName = headerName }
}

// WithGenerator sets a custom function to generate request ids. By
// default a time-ordered UUID v7 is used.
func WithGenerator(generator func() string) Option {
	return func(cfg *config) { cfg.generator = generator }
}

// WithAllowClientID controls whether a client-supplied id (read from the
// configured header) is honored. When false, a new id is always
// generated server-side. Default: true.
func WithAllowClientID(allow bool) Option {
	return func(cfg *config) { cfg.allowClientID = allow }
}
