// Package graph is a block-based mono render graph modelled on the Web Audio
// API. A [Context] owns a [Destination]; nodes are created against the
// context, wired with Connect and ConnectParam, and audio is pulled from the
// destination one render quantum at a time.
//
// Nodes upstream of the destination, and the upstream of every started
// source, are rendered in dependency order. Feedback loops are legal as long
// as they contain a [Delay]: a delay inside a cycle reads its output before
// the rest of the loop is rendered and writes its input at the end of the
// quantum, so its effective delay is at least one quantum. Loops without a
// delay render silence.
//
// A Context is safe for one rendering goroutine and any number of control
// goroutines as long as graph mutations happen inside [Context.Update].
package graph
