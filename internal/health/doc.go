// Package health provides composable probes and the handlers behind
// /-/healthy and /-/ready.
//
// Probes combine with [All]. [Fixed] is static and
// [CheckFunc] adapts a plain function. [TCPDial] checks that the upstream
// accepts connections.
//
// [ShutdownGate] fails readiness as soon as shutdown starts so the load
// balancer drains the gate before the listener closes.
package health
