/*
Package workers sizes the worker pools used for metadata scanning.

Scanning a file means a stat plus a full read through the content digest, so
the work is mostly I/O bound. ForIO returns two workers per available CPU,
where "available" is GOMAXPROCS and therefore respects container CPU limits.

	n := workers.ForIO(32)

Operators can pin the count with the SCAN_WORKERS environment variable:

	SCAN_WORKERS=4 resource-index

An explicit value from configuration is honoured through Resolve, which only
falls back to the automatic calculation for non-positive requests.
*/
package workers
