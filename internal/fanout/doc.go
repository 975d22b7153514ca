// Package fanout delivers items from one producer to many consumers without
// ever blocking the producer.
//
// Each consumer owns a GrowableBuffer that doubles in size instead of
// rejecting writes. A Hub keeps the set of consumer buffers and copies every
// published item into each of them.
package fanout
