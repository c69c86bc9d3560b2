// Copyright The Gatherhall Authors.
// SPDX-License-Identifier: MIT

package handlers

import "net/http"

// PreviewDigest handles POST /digest/preview: renders the upcoming
// digest without sending anything.
func (h *Handlers) PreviewDigest(w http.ResponseWriter, r *http.Request) {
	preview, err := h.Digest.Preview(r.Context())
	if err != nil {
		writeError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, preview)
}
