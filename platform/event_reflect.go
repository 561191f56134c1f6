package platform

import "reflect"

// waitOnAnyReflect handles the arbitrary-n case of WaitOnAny. The
// scheduler itself only ever waits on two events (message, work_to_steal)
// so this path serves embedders with a custom waiting pattern and is not
// on the hot loop.
func waitOnAnyReflect(events []*Event) int {
	cases := make([]reflect.SelectCase, len(events))
	for i, e := range events {
		cases[i] = reflect.SelectCase{
			Dir:  reflect.SelectRecv,
			Chan: reflect.ValueOf(e.chan_()),
		}
	}
	chosen, _, _ := reflect.Select(cases)
	return chosen
}
