// Package model describes the base records manipulated by datatree.
//
// The object model for datatree is composed of:
//
//	Datasets:
//	  A dataset is a content versioned working tree. Datasets nest: a
//	  dataset may link other datasets at subdirectories, recorded in the
//	  revision history of the parent by commit identity.
//
//	Content records:
//	  A ContentInfo describes one path of a dataset, either as found in
//	  the working tree or as recorded in a revision. Records carry the
//	  path kind, the recorded object identity, and, for annexed content,
//	  the content key and local availability.
//
//	Status records:
//	  A StatusEntry classifies one path against a reference revision:
//	  clean, added, modified, deleted, or untracked.
//
//	Results:
//	  A Result is one record of the stream emitted by dataset commands.
//	  Results carry an outcome class so a stream can mix successes and
//	  failures without aborting.
package model
