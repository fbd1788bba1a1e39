// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

// Package source builds path graphs from external data.
//
// Three inputs are supported:
//
//   - Edge records: CSV rows of "from,to,weight" with a non-negative
//     integer weight. The first malformed row aborts the build.
//   - Link indexes: a map of document -> linked documents. Every linked
//     pair becomes two unit-weight edges, one per direction.
//   - Markdown corpora: a directory of notes scanned for links, producing
//     a link index.
//
// Every builder returns a frozen *graph.Graph or an error. Partial graphs
// are never returned.
package source
