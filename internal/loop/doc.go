// Package loop mediates between a remote decision service and locally
// registered tools.
//
// Invariant:
//   - every dispatched action names a registered tool; the loop terminates
//     only on a finish decision or an error, never silently.
//
// Flow:
//
//	input -> decision(actions) -> dispatch tools -> decision(...) -> finish(output)
package loop
