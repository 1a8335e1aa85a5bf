// Package audio plays preview clips through the system speaker.
//
// [SpeakerBackend] implements [player.Backend] on top of faiface/beep: a clip is fetched
// over HTTP, decoded from MP3, resampled to the speaker rate and played through a
// [beep.Ctrl] and [effects.Volume] chain. Live controls take the speaker lock.
package audio
