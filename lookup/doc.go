// Package lookup builds reverse indexes from canonical record identifiers to
// referenced entities, used to resolve foreign-key style references (a
// contact's company, an RFP's contact) to display attributes.
//
// An Index is a dense snapshot of one version of the referenced collection:
// it is rebuilt in full whenever that collection changes, never patched
// incrementally, so a miss always means the record does not exist at build
// time rather than a staleness artifact. Each Index is an isolated value
// created by Build; there is no shared package-level cache, which keeps the
// invalidation dependency between an index and its source collection explicit
// at the call site.
package lookup
