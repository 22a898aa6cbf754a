/*
Package resilience provides a circuit breaker for outbound calls.

The breaker has three states. Closed passes requests through and counts
failures; Open fails fast without invoking the operation; Half-Open admits a
bounded number of probe requests after the timeout elapses.

	Closed --[failures]-> Open --[timeout]-> Half-Open --[successes]-> Closed

It guards the companion snapshot trigger: when the companion is down, trigger
attempts fail fast instead of stacking retries behind consumer registrations.
*/
package resilience
