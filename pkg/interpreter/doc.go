// Package interpreter runs Falcon programs.
//
// A program is plain text, one statement per line. Each line is split on whitespace;
// the first token names a builtin statement (let, include) or a command exported by
// an included library module. Arguments of let are passed through the text scanner,
// which expands $name, !expression! and ;snippet; constructs in a single left to
// right pass. A backslash makes the following character literal.
//
// An Interpreter owns its variable store and module registry; separate instances
// share nothing. Instances are not safe for concurrent use.
package interpreter
