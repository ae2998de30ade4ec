// Package syncer pushes the current branch to every remote of a repository,
// one commit at a time.
//
// For each remote, in name order, the engine:
//
//  1. rejects names outside [A-Za-z0-9_@:./-] and names starting with '-'
//  2. probes and fetches the remote
//  3. computes the gap: local commits absent from remote/branch, oldest first,
//     or the whole history when the remote has no such branch
//  4. pushes the gap commit by commit, waiting PushDelay between pushes
//
// The first push that fails, after any retries, stops that remote. Later
// remotes are still processed. Every remote ends with exactly one Result:
//
//	PENDING -> UP_TO_DATE
//	PENDING -> PUSHING -> SYNCHRONIZED
//	PENDING -> PUSHING -> PARTIALLY_SYNCHRONIZED (FailedAt k)
//	PENDING -> SKIPPED
//
// Progress is reported through an Observer: one fetch and one plan event per
// reachable remote, one push event per attempted push, and one result per
// remote in processing order. In dry-run mode pushes are not performed but
// the events are identical.
//
// A gap is never recomputed during a run. Interrupted runs leave remotes
// partially pushed, and the next run picks up from the remote's new tip.
package syncer
