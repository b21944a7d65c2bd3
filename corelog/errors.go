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

package corelog

import "errors"

var (
	// ErrNilLogger indicates a nil custom logger was passed to WithCustomLogger.
	ErrNilLogger = errors.New("corelog: custom logger is nil")
	// ErrInvalidHandler indicates an unsupported HandlerType was specified.
	ErrInvalidHandler = errors.New("corelog: invalid handler type")
	// ErrCannotChangeLevel is returned by SetLevel when using a custom logger.
	ErrCannotChangeLevel = errors.New("corelog: cannot change level on custom logger")
)
