// Copyright (C) 2025 Aleutian AI (jinterlante@aleutian.ai)
// This program is free software: you can redistribute it and/or modify
// it under the terms of the GNU Affero General Public License as published by
// the Free Software Foundation, either version 3 of the License, or
// (at your option) any later version.
// See the LICENSE.txt file for the full license text.
//
// NOTE: This work is subject to additional terms under AGPL v3 Section 7.
// See the NOTICE.txt file for details regarding AI system attribution.

package vault

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

var (
	writesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitka_vault_writes_total",
		Help: "Atomic write operations by status",
	}, []string{"status"})

	sectionUpdatesTotal = promauto.NewCounterVec(prometheus.CounterOpts{
		Name: "sitka_vault_section_updates_total",
		Help: "Shared document section updates by section and status",
	}, []string{"section", "status"})
)

func recordWrite(status string) {
	writesTotal.WithLabelValues(status).Inc()
}
