/* Copyright © 2025-2026 Mike Brown. All Rights Reserved.
 *
 * See LICENSE file at the root of this repository for license terms
 */
package internal

const (
	UserAgent      = "tkdrank/0.3.0 (+https://github.com/mikeb26/tkdrank)"
	WebCacheBucket = "bopmatic-tkdrank-prod-webcache"

	// browser UA presented to SimplyCompete; its Cloudflare front end
	// rejects obvious bots
	BrowserUserAgent = "Mozilla/5.0 (Windows NT 10.0; Win64; x64) AppleWebKit/537.36 (KHTML, like Gecko) Chrome/138.0.0.0 Safari/537.36"
)
