/*
Package datatree provides CLI tooling to version data alongside code.

A dataset is a git repository with an annex for large file content.
Datasets nest: a subdataset is linked into its superdataset, so one
root version addresses a whole tree of data. The tooling reports on
content state, records it, and keeps nested datasets in step.
*/
package datatree
