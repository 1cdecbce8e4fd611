/*
Package artifact serialises writes of step outputs.

Concurrent branches of one run, or several runs sharing an output folder, may
target the same output location (for example two steps with the same
output_file). The Manager holds a reference-counted lock per location and,
when configured with a ports.DistributedLocker, also a cross-process lock.
*/
package artifact
