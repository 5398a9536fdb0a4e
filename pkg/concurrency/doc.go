/*
Package concurrency provides the goroutine-management primitives shared by
the broker consumer loops, the device agent's heartbeat task, and the
registry's consumer pools.

Features:
  - SafeGo / FanOut: panic-recovering goroutine launch helpers
  - WorkerPool: bounded pool of workers draining a task queue (the registry
    launches its consumer pools with SafeGo, not with WorkerPool)
*/
package concurrency
