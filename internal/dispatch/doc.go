// Package dispatch provides a synchronous, namespace-aware event registry.
//
// A Dispatcher maps event types to ordered listener entries. Event strings
// may name several space-separated types, each optionally qualified with
// dot-separated namespaces:
//
//	"item:added"                  - one type
//	"item:added item:removed"     - two types
//	"item:added.sidebar.stats"    - one type, namespaces "sidebar" and "stats"
//	".sidebar"                    - every type, namespace "sidebar"
//
// Namespaces select entries for Fire and Off without holding on to the
// original listener:
//
//	d := dispatch.New()
//	onAdd := dispatch.NewListener(func(m dispatch.Meta, payload any) { ... })
//	_ = d.On("item:added.sidebar", onAdd)
//	d.Fire("item:added", item) // invokes onAdd
//	d.Off(".sidebar", nil)     // removes every sidebar entry of every type
//
// # Lifecycle hooks
//
// RegisterEvent attaches a Lifecycle to a type. Setup runs when the first
// entry is added, Add for every added entry, Remove for every removed entry
// and Teardown when the last entry goes away. Add hooks may decorate the
// callable with Entry.Wrap or keep the entry out of the store with
// Entry.Discard. RegisterPersistentEvent builds on this to replay the first
// firing of a type to listeners that register later.
//
// # Re-entrancy
//
// Listeners and hooks run inline on the caller's goroutine and may call back
// into the Dispatcher. Stored sequences are never modified in place: Fire
// iterates a snapshot and every removal stores a freshly built sequence. A
// Dispatcher is not safe for concurrent use by multiple goroutines.
package dispatch
