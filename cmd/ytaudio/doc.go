// Command ytaudio archives YouTube audio in bulk.
//
// It downloads the audio track of single videos, whole channels, or a
// newline-delimited file of URLs, re-encodes everything to a fixed profile
// (m4a container, AAC, 44100 Hz, mono), and writes one directory per video
// holding the artifact and a JSON metadata sidecar:
//
//	downloads/dQw4w9WgXcQ/dQw4w9WgXcQ.m4a
//	downloads/dQw4w9WgXcQ/dQw4w9WgXcQ.json
//
// # Usage
//
// Download one video:
//
//	ytaudio --url https://www.youtube.com/watch?v=dQw4w9WgXcQ
//
// Download a channel, newest first, capped at 50 videos:
//
//	ytaudio --channel https://www.youtube.com/@somechannel --max-videos 50
//
// Work through a file mixing video and channel URLs ('#' starts a comment):
//
//	ytaudio --file urls.txt --output /srv/archive
//
// Re-running any of these is safe: fully archived videos are skipped
// without touching the network, so interrupted batches can simply be
// restarted.
//
// # Throttling
//
// All remote traffic is paced with randomized delays (--min-delay and
// --max-delay, plus a separate longer window between downloads) and capped
// at --speed-limit. Throttling responses from YouTube back off at 30, 60,
// and 120 seconds before a video is given up on.
//
// # Configuration
//
// Settings are loaded from ytaudio.json (current directory or
// ~/.config/ytaudio/), overridden by YTAUDIO_* environment variables,
// overridden by flags. A config_cookies.txt file in the working directory
// is picked up automatically for age-restricted content.
//
// # Dependencies
//
// ytaudio shells out to yt-dlp, ffprobe, and ffmpeg; all three must be
// installed and on PATH or pointed at via flags.
package main
