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

package uri_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/rivaas-dev/corehttp/uri"
)

func TestSplitDropsEmptyAndRepeatedSlashes(t *testing.T) {
	t.Parallel()

	assert.Equal(t, []string{"a", "b", "c"}, uri.Split("/a//b/c/"))
	assert.Nil(t, uri.Split("/"))
	assert.Nil(t, uri.Split(""))
}

func TestNormalize(t *testing.T) {
	t.Parallel()

	assert.Equal(t, "/a/b", uri.Normalize("a//b/"))
	assert.Equal(t, "/", uri.Normalize(""))
	assert.Equal(t, "/", uri.Normalize("///"))
}

func TestParseQuery(t *testing.T) {
	t.Parallel()

	q, err := uri.ParseQuery("a=1&a=2&b=x")
	require.NoError(t, err)
	assert.Equal(t, []string{"1", "2"}, q["a"])
	assert.Equal(t, []string{"x"}, q["b"])
}

func TestDecompose(t *testing.T) {
	t.Parallel()

	path, query := uri.Decompose("/widgets/1?expand=owner")
	assert.Equal(t, "/widgets/1", path)
	assert.Equal(t, "expand=owner", query)

	path, query = uri.Decompose("/widgets")
	assert.Equal(t, "/widgets", path)
	assert.Equal(t, "", query)
}
