// Package works implements the catalogue of literary and visual works and
// the author-only operations on them.
//
// Anyone may list and read published works. Creating a work requires the
// author session role; updating one requires owning it. Ownership is checked
// by Policy.CanMutate against the stored author id, so no role (admin
// included) can edit another author's work.
//
//	svc := works.NewService(store, logger)
//	works.NewHandlers(svc, guard).RegisterRoutes(router)
package works
