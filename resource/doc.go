// Package resource limits how hard callers can drive identification.
//
// A Controller combines a token-bucket rate limiter on attempts with a
// weighted semaphore on concurrent scans. Acquire waits on the limiter first
// and then on the semaphore, so a burst of attempts cannot starve the scan
// slots of callers that were already admitted.
//
// A nil *Controller imposes no limits.
package resource
