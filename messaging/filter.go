// Copyright 2026 The Bureau Authors
// SPDX-License-Identifier: Apache-2.0

package messaging

import "encoding/json"

// BuildSyncFilter constructs the inline JSON filter string for /sync.
// timelineLimit caps the number of timeline events per room per
// response; zero omits the limit (server default). Presence and
// account data are always suppressed — the dashboard renders neither —
// and room members are lazy-loaded to keep initial sync small on large
// rooms.
func BuildSyncFilter(timelineLimit int) string {
	timeline := map[string]any{
		"lazy_load_members": true,
	}
	if timelineLimit > 0 {
		timeline["limit"] = timelineLimit
	}

	top := map[string]any{
		"room": map[string]any{
			"timeline": timeline,
		},
		"presence":     map[string]any{"types": []string{}},
		"account_data": map[string]any{"types": []string{}},
	}

	data, _ := json.Marshal(top)
	return string(data)
}
