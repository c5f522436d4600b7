// Package download implements the streaming harness around the yt-dlp
// subprocess. A Runner spawns yt-dlp and drains its two output streams line
// by line, a SessionState turns classified stdout lines into label-indexed
// progress events, a Session ties one logical download to successive
// subprocess invocations, and the Service schedules many sessions under a
// parallelism limit. Events reach observers through an EventSink.
package download
