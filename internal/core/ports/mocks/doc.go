// Package mocks provides test doubles for ports interfaces.
//
// The mocks are thread-safe, in-memory implementations suitable for unit
// testing. Each mock provides:
//
//   - Default behavior matching the SQL drivers, including unique-index checks
//   - Callback functions (xxxFn) for injecting failures per test
//   - Helper methods for setting state directly
//
// # Usage Example
//
//	func TestPersist(t *testing.T) {
//		store := mocks.NewTagStore()
//		persister := tagging.NewPersister(store, nil)
//		// ... run the persister and inspect store.Tags()
//	}
//
// # Available Mocks
//
//   - TagStore: implements ports.TagStore
package mocks
