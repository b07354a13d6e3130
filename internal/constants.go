/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

import "time"

const (
	UserAgent      = "uefa-drawbot/0.3.0 (+https://github.com/mikeb26/uefa-drawbot)"
	WebCacheBucket = "bopmatic-uefa-drawbot-prod-webcache"
	DefaultBaseURL = "https://draw-data.uefa-drawbot.dev"

	// past seasons never change; the current one is refreshed daily
	ArchiveMaxAge = 30 * 24 * time.Hour
	CurrentMaxAge = 24 * time.Hour
)
