// Package session drives the interactive recording loop.
//
// One iteration is a take: select a script, read it aloud after a countdown,
// stop with Enter, persist the WAV/transcript pair and a manifest entry. Any
// failure inside a take is reported and the loop continues at the repeat
// prompt; only manifest corruption aborts the session, since the recorder
// refuses to risk prior fixtures.
//
// Terminal I/O goes through an injected reader and writer, and capture through
// the audio.Capturer interface, so the whole loop is testable with scripted
// input and no hardware.
package session
