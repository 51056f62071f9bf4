// Package alarm contains the debounced alarm state machine.
//
// A Controller turns a per-frame "intrusion seen" signal into an alarm that
// stays active for a cooldown after the last trigger, so a track whose center
// jitters across the zone boundary does not make the alarm flicker. Time is
// read from an injected Clock; each zone owns its own Controller.
package alarm
