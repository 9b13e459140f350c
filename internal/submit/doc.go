// Package submit sends generated answers to a form's response endpoint.
//
// Sink is the seam the run loop submits through. HTTPSink posts the hidden
// inputs captured at extraction followed by the answers, urlencoded, and
// returns the status and visible text of the response page so the caller can
// check for a confirmation message.
package submit
